package inspectionService

import (
	"RoadVision/internal/api/inspection"
	inspectionRepository "RoadVision/internal/api/inspection/repository"
	"RoadVision/internal/entity"
	contextPkg "RoadVision/pkg/context"
	"RoadVision/pkg/vision"
	"fmt"

	"github.com/sirupsen/logrus"
	"golang.org/x/net/context"
)

func (s *inspectionService) ProcessImageFile(ctx context.Context, path string, metadata map[string]string) (entity.ImageResult, error) {
	jobID := contextPkg.GetJobID(ctx)

	raws, err := s.detector.Detect(ctx, path)
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"job_id": jobID,
			"source": path,
			"error":  err.Error(),
		}).Error("Image inference failed")
		return entity.ImageResult{}, fmt.Errorf("%w: %v", inspection.ErrInferenceFailed, err)
	}

	result := s.composeImage(path, raws, metadata)

	s.log.WithFields(logrus.Fields{
		"job_id":        jobID,
		"source":        path,
		"total_defects": result.Summary.TotalDefects,
	}).Info("Image processed")

	return result, nil
}

// ProcessVideoFile streams frames through the detector and composes the
// result incrementally. The context is checked between frames by the
// detector, so cancellation does not wait for the whole video.
func (s *inspectionService) ProcessVideoFile(ctx context.Context, path string) (entity.VideoResult, error) {
	jobID := contextPkg.GetJobID(ctx)
	composer := newVideoComposer(path)

	err := s.detector.DetectVideo(ctx, path, func(frameIdx int, raws []vision.RawDetection, inferErr error) error {
		if inferErr != nil {
			if s.framePolicy == FramePolicyAbort {
				return fmt.Errorf("frame %d: %w: %v", frameIdx, inspection.ErrInferenceFailed, inferErr)
			}

			s.log.WithFields(logrus.Fields{
				"job_id": jobID,
				"source": path,
				"frame":  frameIdx,
				"error":  inferErr.Error(),
			}).Warn("Frame inference failed, recording empty frame")
			composer.AddFrame(nil)
			return nil
		}

		composer.AddFrame(s.normalizeAll(raws))
		return nil
	})
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"job_id": jobID,
			"source": path,
			"frames": composer.FrameCount(),
			"error":  err.Error(),
		}).Error("Video processing failed")
		return entity.VideoResult{}, err
	}

	result := composer.Result()

	s.log.WithFields(logrus.Fields{
		"job_id": jobID,
		"source": path,
		"frames": len(result.FramesResults),
	}).Info("Video processed")

	return result, nil
}

func (s *inspectionService) SaveImageResult(ctx context.Context, result entity.ImageResult, trackingID string) error {
	repo, err := s.repo.NewClient(false)
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"job_id": contextPkg.GetJobID(ctx),
			"error":  err.Error(),
		}).Error("Failed to create repository client")
		return err
	}

	result.TrackingID = trackingID
	return repo.Results.InsertImageResult(ctx, result)
}

func (s *inspectionService) SaveVideoResult(ctx context.Context, result entity.VideoResult, trackingID string) error {
	repo, err := s.repo.NewClient(false)
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"job_id": contextPkg.GetJobID(ctx),
			"error":  err.Error(),
		}).Error("Failed to create repository client")
		return err
	}

	result.TrackingID = trackingID
	return repo.Results.InsertVideoResult(ctx, result)
}

func (s *inspectionService) RecentImageResults(ctx context.Context, limit int) ([]inspectionRepository.StoredResult, error) {
	repo, err := s.repo.NewClient(false)
	if err != nil {
		return nil, err
	}
	return repo.Results.ListImageResults(ctx, limit)
}

func (s *inspectionService) RecentVideoResults(ctx context.Context, limit int) ([]inspectionRepository.StoredResult, error) {
	repo, err := s.repo.NewClient(false)
	if err != nil {
		return nil, err
	}
	return repo.Results.ListVideoResults(ctx, limit)
}
