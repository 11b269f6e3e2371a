package inspectionHandler

import (
	"RoadVision/internal/api/inspection"
	contextPkg "RoadVision/pkg/context"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

const defaultResultsLimit = 20

func (h *InspectionHandler) ListImageResults(c *fiber.Ctx) error {
	ctx := contextPkg.FromFiberCtx(c)
	requestID := h.middleware.GetRequestID(c)

	query, err := h.parseResultsQuery(c)
	if err != nil {
		return h.errorHandler.Handle(c, requestID, inspection.ErrBadRequest, c.Path(), "ListImageResults")
	}

	results, err := h.inspectionService.RecentImageResults(ctx, query.Limit)
	if err != nil {
		return h.errorHandler.Handle(c, requestID, err, c.Path(), "ListImageResults")
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{"data": results})
}

func (h *InspectionHandler) ListVideoResults(c *fiber.Ctx) error {
	ctx := contextPkg.FromFiberCtx(c)
	requestID := h.middleware.GetRequestID(c)

	query, err := h.parseResultsQuery(c)
	if err != nil {
		return h.errorHandler.Handle(c, requestID, inspection.ErrBadRequest, c.Path(), "ListVideoResults")
	}

	results, err := h.inspectionService.RecentVideoResults(ctx, query.Limit)
	if err != nil {
		return h.errorHandler.Handle(c, requestID, err, c.Path(), "ListVideoResults")
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{"data": results})
}

func (h *InspectionHandler) WorkerStats(c *fiber.Ctx) error {
	stats := h.stats.Stats()

	return c.Status(fiber.StatusOK).JSON(inspection.WorkerStatsResponse{
		Processed: stats.Processed,
		Failed:    stats.Failed,
		InFlight:  stats.InFlight,
	})
}

func (h *InspectionHandler) parseResultsQuery(c *fiber.Ctx) (inspection.ResultsQuery, error) {
	var query inspection.ResultsQuery
	if err := c.QueryParser(&query); err != nil {
		h.log.WithFields(logrus.Fields{
			"request_id": h.middleware.GetRequestID(c),
			"error":      err.Error(),
		}).Warn("Failed to parse results query")
		return query, err
	}

	if query.Limit == 0 {
		query.Limit = defaultResultsLimit
	}

	if err := h.validator.Struct(query); err != nil {
		return query, err
	}

	return query, nil
}
