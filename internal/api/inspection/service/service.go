package inspectionService

import (
	inspectionRepository "RoadVision/internal/api/inspection/repository"
	"RoadVision/internal/entity"
	"RoadVision/pkg/vision"
	"os"
	"strconv"

	"github.com/sirupsen/logrus"
	"golang.org/x/net/context"
)

type IInspectionService interface {
	ProcessImageFile(ctx context.Context, path string, metadata map[string]string) (entity.ImageResult, error)
	ProcessVideoFile(ctx context.Context, path string) (entity.VideoResult, error)
	SaveImageResult(ctx context.Context, result entity.ImageResult, trackingID string) error
	SaveVideoResult(ctx context.Context, result entity.VideoResult, trackingID string) error
	RecentImageResults(ctx context.Context, limit int) ([]inspectionRepository.StoredResult, error)
	RecentVideoResults(ctx context.Context, limit int) ([]inspectionRepository.StoredResult, error)
}

// FrameErrorPolicy decides what happens when inference fails on one video
// frame: record an empty frame and keep going, or abort the whole video.
type FrameErrorPolicy string

const (
	FramePolicySkip  FrameErrorPolicy = "skip"
	FramePolicyAbort FrameErrorPolicy = "abort"
)

// SeverityThresholds are the bucket boundaries in bbox area units. Lower
// bounds are inclusive, upper bounds exclusive, so every real area lands in
// exactly one bucket.
type SeverityThresholds struct {
	LowMax    float64
	MediumMax float64
	HighMax   float64
}

func DefaultSeverityThresholds() SeverityThresholds {
	return SeverityThresholds{
		LowMax:    1000,
		MediumMax: 5000,
		HighMax:   15000,
	}
}

type inspectionService struct {
	log         *logrus.Logger
	repo        inspectionRepository.Repository
	detector    vision.DefectDetector
	classes     map[int]string
	thresholds  SeverityThresholds
	framePolicy FrameErrorPolicy
}

func NewInspectionService(log *logrus.Logger, repo inspectionRepository.Repository, detector vision.DefectDetector) IInspectionService {
	thresholds := DefaultSeverityThresholds()
	if v, err := strconv.ParseFloat(os.Getenv("SEVERITY_LOW_MAX"), 64); err == nil {
		thresholds.LowMax = v
	}
	if v, err := strconv.ParseFloat(os.Getenv("SEVERITY_MEDIUM_MAX"), 64); err == nil {
		thresholds.MediumMax = v
	}
	if v, err := strconv.ParseFloat(os.Getenv("SEVERITY_HIGH_MAX"), 64); err == nil {
		thresholds.HighMax = v
	}

	framePolicy := FramePolicySkip
	if FrameErrorPolicy(os.Getenv("WORKER_FRAME_ERROR_POLICY")) == FramePolicyAbort {
		framePolicy = FramePolicyAbort
	}

	return &inspectionService{
		log:         log,
		repo:        repo,
		detector:    detector,
		classes:     vision.DefectClasses,
		thresholds:  thresholds,
		framePolicy: framePolicy,
	}
}
