package config

import (
	"RoadVision/database/postgres"
	inspectionHandler "RoadVision/internal/api/inspection/handler"
	inspectionRepository "RoadVision/internal/api/inspection/repository"
	inspectionService "RoadVision/internal/api/inspection/service"
	"RoadVision/internal/middleware"
	"RoadVision/internal/worker"
	"RoadVision/pkg/queue"
	"RoadVision/pkg/storage"
	"RoadVision/pkg/utils"
	"RoadVision/pkg/vision"
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
)

type ServerOption func(*Server) error

type Server struct {
	engine        *fiber.App
	db            *sqlx.DB
	log           *logrus.Logger
	middleware    middleware.Middleware
	validator     *validator.Validate
	utils         utils.IUtils
	handlers      []handler
	queueClient   queue.IQueue
	storageClient storage.ItfStorage
	detector      vision.DefectDetector
	worker        *worker.Worker
}

type handler interface {
	Start(srv fiber.Router)
}

func NewServer(options ...ServerOption) (*Server, error) {
	server := &Server{}

	for _, option := range options {
		if err := option(server); err != nil {
			return nil, fmt.Errorf("failed to apply option: %w", err)
		}
	}

	if server.engine == nil {
		return nil, fmt.Errorf("fiber app is required")
	}
	if server.log == nil {
		return nil, fmt.Errorf("logger is required")
	}

	return server, nil
}

func WithFiber(fiberApp *fiber.App) ServerOption {
	return func(s *Server) error {
		s.engine = fiberApp
		return nil
	}
}

func WithLogger(logger *logrus.Logger) ServerOption {
	return func(s *Server) error {
		s.log = logger
		return nil
	}
}

func WithValidator(validator *validator.Validate) ServerOption {
	return func(s *Server) error {
		s.validator = validator
		return nil
	}
}

func WithDatabase() ServerOption {
	return func(s *Server) error {
		db, err := postgres.New()
		if err != nil {
			if s.log != nil {
				s.log.Errorf("Failed to connect to database: %v", err)
			}
			return fmt.Errorf("failed to create database connection: %w", err)
		}
		s.db = db
		return nil
	}
}

func WithQueue() ServerOption {
	return func(s *Server) error {
		q, err := queue.New()
		if err != nil {
			if s.log != nil {
				s.log.Errorf("Failed to initialize queue client: %v", err)
			}
			return fmt.Errorf("failed to create queue client: %w", err)
		}
		s.queueClient = q
		return nil
	}
}

func WithStorage() ServerOption {
	return func(s *Server) error {
		client, err := storage.New()
		if err != nil {
			if s.log != nil {
				s.log.Errorf("Failed to initialize storage client: %v", err)
			}
			return fmt.Errorf("failed to create storage client: %w", err)
		}
		s.storageClient = client
		return nil
	}
}

func WithDetector() ServerOption {
	return func(s *Server) error {
		detector, err := vision.NewYOLODetector()
		if err != nil {
			if s.log != nil {
				s.log.Errorf("Failed to load detection model: %v", err)
			}
			return fmt.Errorf("failed to load detection model: %w", err)
		}
		s.detector = detector
		return nil
	}
}

func WithMiddleware() ServerOption {
	return func(s *Server) error {
		if s.log == nil {
			return fmt.Errorf("logger must be initialized before middleware")
		}
		s.middleware = middleware.New(s.log)
		return nil
	}
}

func WithUtils() ServerOption {
	return func(s *Server) error {
		s.utils = utils.New()
		return nil
	}
}

func (s *Server) RegisterHandler() {
	inspectionRepo := inspectionRepository.New(s.db, s.log)
	inspectionServices := inspectionService.NewInspectionService(s.log, inspectionRepo, s.detector)

	s.worker = worker.New(s.log, s.queueClient, s.storageClient, inspectionServices, s.validator, s.utils)

	inspectionHandlers := inspectionHandler.New(s.log, s.validator, s.middleware, inspectionServices, s.worker)

	s.setupHealthCheck()
	s.handlers = append(s.handlers, inspectionHandlers)
}

func (s *Server) Worker() *worker.Worker {
	return s.worker
}

func (s *Server) Run() error {
	router := s.engine.Group("/api/v1")
	s.engine.Use(s.middleware.NewRequestIDMiddleware())
	s.engine.Use(s.middleware.NewLoggingMiddleware())

	for _, h := range s.handlers {
		h.Start(router)
	}

	port := os.Getenv("APP_PORT")
	if port == "" {
		port = "3000"
	}

	return s.engine.Listen(fmt.Sprintf(":%s", port))
}

func (s *Server) Close() {
	if s.queueClient != nil {
		if err := s.queueClient.Close(); err != nil {
			s.log.Errorf("Failed to close queue client: %v", err)
		}
	}
	if s.db != nil {
		if err := s.db.Close(); err != nil {
			s.log.Errorf("Failed to close database: %v", err)
		}
	}
}

func (s *Server) setupHealthCheck() {
	s.engine.Get("/", func(ctx *fiber.Ctx) error {
		return ctx.JSON(fiber.Map{
			"message": "Server is Healthy!",
		})
	})
}
