// Package useragent classifies user-agent strings into the device, browser,
// and operating-system attributes stored on a visitor's detail record.
package useragent

import (
	_ "embed"
	"fmt"
	"strings"
	"sync"

	"go.elara.ws/pcre"
	"gopkg.in/yaml.v3"
)

// Device type classifications. Unclassifiable agents fall back to desktop,
// never to an "unknown" bucket.
const (
	DeviceDesktop = "desktop"
	DeviceMobile  = "mobile"
	DeviceTablet  = "tablet"
)

// UserAgent is the classification result for one user-agent string
type UserAgent struct {
	UserAgent      string
	Browser        string
	BrowserVersion string
	OS             string
	OSVersion      string
	DeviceType     string
	DeviceBrand    string
	DeviceModel    string
	Bot            bool
}

//go:embed patterns.yml
var patternsFile []byte

type clientEntry struct {
	Regex string `yaml:"regex"`
	Name  string `yaml:"name"`
}

type deviceEntry struct {
	Regex string `yaml:"regex"`
	Brand string `yaml:"brand"`
	Model string `yaml:"model"`
}

type botEntry struct {
	Regex string `yaml:"regex"`
}

type patternDatabase struct {
	Browsers []clientEntry `yaml:"browsers"`
	OSs      []clientEntry `yaml:"oss"`
	Devices  []deviceEntry `yaml:"devices"`
	Bots     []botEntry    `yaml:"bots"`
}

// regexCache compiles each pattern once and reuses it across parses
type regexCache struct {
	compiled map[string]*pcre.Regexp
	mutex    sync.RWMutex
}

func newRegexCache() *regexCache {
	return &regexCache{compiled: make(map[string]*pcre.Regexp)}
}

func (rc *regexCache) get(pattern string) (*pcre.Regexp, error) {
	rc.mutex.RLock()
	if re, ok := rc.compiled[pattern]; ok {
		rc.mutex.RUnlock()
		return re, nil
	}
	rc.mutex.RUnlock()

	re, err := pcre.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("failed to compile pattern %q: %w", pattern, err)
	}

	rc.mutex.Lock()
	rc.compiled[pattern] = re
	rc.mutex.Unlock()
	return re, nil
}

var (
	database *patternDatabase
	cache    = newRegexCache()
	loadOnce sync.Once
	loadErr  error
)

func loadDatabase() (*patternDatabase, error) {
	loadOnce.Do(func() {
		db := &patternDatabase{}
		if err := yaml.Unmarshal(patternsFile, db); err != nil {
			loadErr = fmt.Errorf("failed to load user agent patterns: %w", err)
			return
		}
		database = db
	})
	return database, loadErr
}

// Parse classifies a user-agent string. It never fails: pattern table or
// compile errors degrade to an empty classification with the desktop
// fallback, matching the pipeline's policy of containing classifier errors.
func Parse(rawUA string) *UserAgent {
	result := &UserAgent{
		UserAgent:  rawUA,
		DeviceType: ClassifyDeviceType(rawUA),
	}
	if rawUA == "" {
		return result
	}

	db, err := loadDatabase()
	if err != nil {
		return result
	}

	result.Bot = matchesAny(db.Bots, rawUA)

	if name, version, ok := matchClient(db.Browsers, rawUA); ok {
		result.Browser = name
		result.BrowserVersion = version
	}
	if name, version, ok := matchClient(db.OSs, rawUA); ok {
		result.OS = name
		result.OSVersion = version
	}
	if brand, model, ok := matchDevice(db.Devices, rawUA); ok {
		result.DeviceBrand = brand
		result.DeviceModel = model
	}

	return result
}

// ClassifyDeviceType maps a user-agent string onto {desktop, mobile, tablet}
// using fixed substring precedence: mobile/phone first, then tablet/ipad,
// everything else (including crawlers) is desktop.
func ClassifyDeviceType(rawUA string) string {
	ua := strings.ToLower(rawUA)

	if strings.Contains(ua, "mobile") || strings.Contains(ua, "phone") {
		return DeviceMobile
	}
	if strings.Contains(ua, "tablet") || strings.Contains(ua, "ipad") {
		return DeviceTablet
	}
	return DeviceDesktop
}

func matchClient(entries []clientEntry, rawUA string) (name, version string, ok bool) {
	for _, entry := range entries {
		re, err := cache.get(entry.Regex)
		if err != nil {
			continue
		}
		m := re.FindStringSubmatch(rawUA)
		if m == nil {
			continue
		}
		version = ""
		if len(m) > 1 {
			// iOS and macOS report versions with underscores
			version = strings.ReplaceAll(m[1], "_", ".")
		}
		return entry.Name, version, true
	}
	return "", "", false
}

func matchDevice(entries []deviceEntry, rawUA string) (brand, model string, ok bool) {
	for _, entry := range entries {
		re, err := cache.get(entry.Regex)
		if err != nil {
			continue
		}
		m := re.FindStringSubmatch(rawUA)
		if m == nil {
			continue
		}
		model = entry.Model
		if model == "" && len(m) > 1 {
			model = strings.TrimSpace(m[1])
		}
		return entry.Brand, model, true
	}
	return "", "", false
}

func matchesAny(entries []botEntry, rawUA string) bool {
	for _, entry := range entries {
		re, err := cache.get(entry.Regex)
		if err != nil {
			continue
		}
		if re.MatchString(rawUA) {
			return true
		}
	}
	return false
}
