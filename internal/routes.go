package internal

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/karloscodes/cartridge"
	cartridgemiddleware "github.com/karloscodes/cartridge/middleware"

	v1 "sitepulse/api/v1"
	"sitepulse/internal/config"
	"sitepulse/internal/http"
)

// publicCORSConfig returns the standard CORS configuration for public endpoints.
// Beacons fire from arbitrary origins, so the whole surface is permissive.
var publicCORSConfig = &cors.Config{
	AllowOrigins: "*",
	AllowMethods: "POST,GET,OPTIONS",
	AllowHeaders: "Origin, Content-Type, Accept, Referrer, User-Agent",
}

// MountAppRoutes mounts all application routes using cartridge's route API
func MountAppRoutes(srv *cartridge.Server) {
	cfg := config.GetConfig()

	// Helper to conditionally apply rate limiting (only in production)
	// In development/test, rate limiting would interfere with testing
	conditionalRateLimiter := func(limiter fiber.Handler) fiber.Handler {
		return func(c *fiber.Ctx) error {
			if cfg.IsProduction() {
				return limiter(c)
			}
			return c.Next()
		}
	}

	// Rate limiter for public beacon ingestion (70 requests per minute per IP)
	// 70/min handles legitimate tracking traffic while blunting abuse
	ingestRateLimiter := conditionalRateLimiter(cartridgemiddleware.RateLimiter(
		cartridgemiddleware.WithMax(70),
		cartridgemiddleware.WithDuration(time.Minute),
	))

	// Stricter rate limiter for the reporting endpoints, the enhanced stats
	// query fan-out is not free
	reportRateLimiter := conditionalRateLimiter(cartridgemiddleware.RateLimiter(
		cartridgemiddleware.WithMax(30),
		cartridgemiddleware.WithDuration(time.Minute),
	))

	ingestConfig := &cartridge.RouteConfig{
		EnableCORS:       true,
		WriteConcurrency: false,
		CustomMiddleware: []fiber.Handler{ingestRateLimiter},
		CORSConfig:       publicCORSConfig,
	}

	reportConfig := &cartridge.RouteConfig{
		EnableCORS:       true,
		CustomMiddleware: []fiber.Handler{reportRateLimiter},
		CORSConfig:       publicCORSConfig,
	}

	// === HEALTH ===
	srv.Get("/_health", http.HealthIndexAction)
	srv.Head("/_health", http.HealthIndexAction)

	// === INGESTION ===
	srv.Post("/api/v1/collect", v1.CollectHandler, ingestConfig)
	srv.Options("/api/v1/collect", func(ctx *cartridge.Context) error {
		return ctx.SendStatus(fiber.StatusNoContent)
	}, ingestConfig)

	// === REPORTING ===
	srv.Get("/api/v1/stats", v1.GetStatsHandler, reportConfig)
	srv.Get("/api/v1/stats/enhanced", v1.GetEnhancedStatsHandler, reportConfig)
	srv.Get("/api/v1/visitors", v1.ListVisitorsHandler, reportConfig)
	srv.Get("/api/v1/visitors/:visitorId", v1.GetVisitorHandler, reportConfig)
	srv.Get("/api/v1/active", v1.ActiveVisitorsHandler, reportConfig)
}
