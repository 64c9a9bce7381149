package v1

import (
	"log/slog"
	"net/http"

	"github.com/gofiber/fiber/v2"
	"github.com/karloscodes/cartridge"

	"sitepulse/internal/analytics"
	"sitepulse/internal/timeframe"
)

// parseWindow resolves the period/startDate/endDate query parameters into a
// reporting window. Malformed explicit dates are the caller's fault.
func parseWindow(ctx *cartridge.Context) (*timeframe.TimeFrame, error) {
	parser := timeframe.NewParser()
	return parser.Parse(timeframe.ParserParams{
		Period:    ctx.Query("period"),
		StartDate: ctx.Query("startDate"),
		EndDate:   ctx.Query("endDate"),
	})
}

// GetStatsHandler serves the compact reporting payload
func GetStatsHandler(ctx *cartridge.Context) error {
	tf, err := parseWindow(ctx)
	if err != nil {
		return ctx.Status(http.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
			"code":  "INVALID_WINDOW",
		})
	}

	stats, err := analytics.GetBasicStats(ctx.DBManager.GetConnection(), *tf, ctx.Logger)
	if err != nil {
		ctx.Logger.Error("Failed to assemble basic stats", slog.Any("error", err))
		return ctx.Status(http.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to compute stats",
			"code":  "STATS_ERROR",
		})
	}

	return ctx.Status(http.StatusOK).JSON(stats)
}

// GetEnhancedStatsHandler serves the full reporting payload
func GetEnhancedStatsHandler(ctx *cartridge.Context) error {
	tf, err := parseWindow(ctx)
	if err != nil {
		return ctx.Status(http.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
			"code":  "INVALID_WINDOW",
		})
	}

	stats, err := analytics.GetEnhancedStats(ctx.DBManager.GetConnection(), *tf, ctx.Logger)
	if err != nil {
		ctx.Logger.Error("Failed to assemble enhanced stats", slog.Any("error", err))
		return ctx.Status(http.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to compute stats",
			"code":  "STATS_ERROR",
		})
	}

	return ctx.Status(http.StatusOK).JSON(stats)
}
