package v1

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/karloscodes/cartridge"

	"sitepulse/internal/config"
	"sitepulse/internal/timeframe"
	"sitepulse/internal/tracking"
)

// ListVisitorsHandler serves the raw visitor listing, newest first.
// The caller-supplied limit is clamped to the configured maximum.
func ListVisitorsHandler(ctx *cartridge.Context) error {
	cfg := ctx.Config.(*config.Config)

	limit := cfg.VisitorListingDefaultLimit
	if raw := ctx.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			return ctx.Status(http.StatusBadRequest).JSON(fiber.Map{
				"error": "limit must be a positive integer",
				"code":  "INVALID_LIMIT",
			})
		}
		limit = parsed
		if limit > cfg.VisitorListingDefaultLimit {
			limit = cfg.VisitorListingDefaultLimit
		}
	}

	visitors, err := tracking.ListVisitors(ctx.DBManager.GetConnection(), limit)
	if err != nil {
		ctx.Logger.Error("Failed to list visitors", slog.Any("error", err))
		return ctx.Status(http.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to list visitors",
			"code":  "LISTING_ERROR",
		})
	}

	return ctx.Status(http.StatusOK).JSON(fiber.Map{
		"visitors": visitors,
	})
}

// GetVisitorHandler serves one visitor's summary by ID
func GetVisitorHandler(ctx *cartridge.Context) error {
	visitorID := ctx.Params("visitorId")

	visitor, err := tracking.GetVisitor(ctx.DBManager.GetConnection(), visitorID)
	if err != nil {
		var notFound *tracking.VisitorNotFoundError
		if errors.As(err, &notFound) {
			return ctx.Status(http.StatusNotFound).JSON(fiber.Map{
				"error": notFound.Error(),
				"code":  "VISITOR_NOT_FOUND",
			})
		}
		ctx.Logger.Error("Failed to fetch visitor", slog.Any("error", err))
		return ctx.Status(http.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to fetch visitor",
			"code":  "LISTING_ERROR",
		})
	}

	return ctx.Status(http.StatusOK).JSON(visitor)
}

// ActiveVisitorsHandler serves the real-time listing: page views from the
// last five minutes joined with visitor metadata, newest first.
func ActiveVisitorsHandler(ctx *cartridge.Context) error {
	cfg := ctx.Config.(*config.Config)
	parser := timeframe.NewParser()
	window := parser.LastMinutes(timeframe.ActiveWindow)

	active, err := tracking.ActiveVisitors(ctx.DBManager.GetConnection(), window.From, cfg.ActiveVisitorsLimit)
	if err != nil {
		ctx.Logger.Error("Failed to list active visitors", slog.Any("error", err))
		return ctx.Status(http.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to list active visitors",
			"code":  "LISTING_ERROR",
		})
	}

	return ctx.Status(http.StatusOK).JSON(fiber.Map{
		"active": active,
	})
}
