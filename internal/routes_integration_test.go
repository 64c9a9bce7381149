package internal

import (
	"reflect"
	"runtime"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/karloscodes/cartridge/testsupport"
	"github.com/stretchr/testify/require"
)

func TestCollectRouteRateLimited(t *testing.T) {
	srv := testsupport.NewTestServer(t, testsupport.TestServerOptions{
		RouteMountFunc: MountAppRoutes,
	})
	routes := srv.App.GetRoutes(true)

	var collectRoute *fiber.Route
	for idx := range routes {
		route := routes[idx]
		if route.Method == fiber.MethodPost && route.Path == "/api/v1/collect" {
			collectRoute = &routes[idx]
			break
		}
	}

	require.NotNil(t, collectRoute, "expected collect route to be registered")

	// The rate limiter is wrapped in a conditional function that only applies
	// in production. In test environment, it passes through but the wrapper
	// still exists. Check for the conditional wrapper (defined in MountAppRoutes).
	hasRateLimiter := false
	var handlerNames []string
	for _, handler := range collectRoute.Handlers {
		name := runtime.FuncForPC(reflect.ValueOf(handler).Pointer()).Name()
		handlerNames = append(handlerNames, name)
		if strings.Contains(name, "middleware/limiter") || strings.Contains(name, "MountAppRoutes.func") {
			hasRateLimiter = true
			break
		}
	}

	require.Truef(t, hasRateLimiter, "expected rate limiter middleware for collect route, handlers: %v", handlerNames)
}

func TestReportingRoutesRegistered(t *testing.T) {
	srv := testsupport.NewTestServer(t, testsupport.TestServerOptions{
		RouteMountFunc: MountAppRoutes,
	})
	routes := srv.App.GetRoutes(true)

	expected := map[string]bool{
		"/api/v1/stats":               false,
		"/api/v1/stats/enhanced":      false,
		"/api/v1/visitors":            false,
		"/api/v1/visitors/:visitorId": false,
		"/api/v1/active":              false,
		"/_health":                    false,
	}

	for _, route := range routes {
		if route.Method != fiber.MethodGet {
			continue
		}
		if _, ok := expected[route.Path]; ok {
			expected[route.Path] = true
		}
	}

	for path, found := range expected {
		require.Truef(t, found, "expected GET %s to be registered", path)
	}
}
