// Package v1 is the public query surface: beacon ingestion plus the
// reporting and listing endpoints. Handlers stay thin; they forward
// parameters to the tracking and analytics packages and serialize results.
package v1

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gofiber/fiber/v2"
	"github.com/karloscodes/cartridge"

	"sitepulse/internal/beacons"
	"sitepulse/internal/config"
	"sitepulse/internal/tracking"
)

// CollectHandler ingests one tracking beacon.
// Responds {success:true} on acceptance; a missing required field is a 400
// with {success:false} and no rows written.
func CollectHandler(ctx *cartridge.Context) error {
	userAgent := ctx.Get("User-Agent")
	if forwardedUA := ctx.Get("X-Forwarded-User-Agent"); forwardedUA != "" {
		userAgent = forwardedUA
	}

	var payload beacons.Payload
	if err := ctx.BodyParser(&payload); err != nil {
		ctx.Logger.Debug("Failed to parse beacon payload", slog.Any("error", err))
		return ctx.Status(http.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   "invalid beacon payload",
		})
	}

	normalized, err := beacons.Normalize(ctx.Logger, &beacons.NormalizeInput{
		Payload:   &payload,
		IPAddress: getClientIP(ctx.Ctx),
		UserAgent: userAgent,
	})
	if err != nil {
		var validationErr *beacons.ValidationError
		if errors.As(err, &validationErr) {
			return ctx.Status(http.StatusBadRequest).JSON(fiber.Map{
				"success": false,
				"error":   validationErr.Error(),
			})
		}
		ctx.Logger.Error("Failed to normalize beacon", slog.Any("error", err))
		return ctx.Status(http.StatusUnprocessableEntity).JSON(fiber.Map{
			"success": false,
			"error":   "invalid beacon payload",
		})
	}

	if err := tracking.RecordBeacon(ctx.DBManager, ctx.Logger, normalized); err != nil {
		ctx.Logger.Error("Failed to record beacon",
			slog.String("visitor", normalized.VisitorID),
			slog.Any("error", err))
		return ctx.Status(http.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   storageErrorMessage(ctx, err),
		})
	}

	return ctx.Status(http.StatusOK).JSON(fiber.Map{
		"success": true,
	})
}

// storageErrorMessage hides storage detail in production responses
func storageErrorMessage(ctx *cartridge.Context, err error) string {
	cfg := ctx.Config.(*config.Config)
	if cfg.Environment == config.Production {
		return "failed to record beacon"
	}
	return err.Error()
}
