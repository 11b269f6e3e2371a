package inspectionHandler

import (
	inspectionService "RoadVision/internal/api/inspection/service"
	"RoadVision/internal/middleware"
	"RoadVision/internal/worker"
	"RoadVision/pkg/handlerUtil"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

// StatsProvider is what the ops endpoints need from the running worker.
type StatsProvider interface {
	Stats() worker.Stats
}

type InspectionHandler struct {
	log               *logrus.Logger
	validator         *validator.Validate
	middleware        middleware.Middleware
	inspectionService inspectionService.IInspectionService
	stats             StatsProvider
	errorHandler      *handlerUtil.ErrorHandler
}

func New(
	log *logrus.Logger,
	validator *validator.Validate,
	middleware middleware.Middleware,
	is inspectionService.IInspectionService,
	stats StatsProvider,
) *InspectionHandler {
	return &InspectionHandler{
		log:               log,
		validator:         validator,
		middleware:        middleware,
		inspectionService: is,
		stats:             stats,
		errorHandler:      handlerUtil.New(log),
	}
}

func (h *InspectionHandler) Start(srv fiber.Router) {
	results := srv.Group("/results")
	results.Get("/images", h.middleware.NewRateLimiter, h.ListImageResults)
	results.Get("/videos", h.middleware.NewRateLimiter, h.ListVideoResults)

	srv.Get("/worker/stats", h.WorkerStats)
}
