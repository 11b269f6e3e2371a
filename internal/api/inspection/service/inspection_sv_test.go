package inspectionService

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"RoadVision/internal/api/inspection"
	inspectionRepository "RoadVision/internal/api/inspection/repository"
	"RoadVision/internal/entity"
	"RoadVision/pkg/vision"
)

type fakeDetector struct {
	detections []vision.RawDetection
	err        error
	frames     [][]vision.RawDetection
	frameErrs  map[int]error
}

func (f *fakeDetector) Detect(ctx context.Context, imagePath string) ([]vision.RawDetection, error) {
	return f.detections, f.err
}

func (f *fakeDetector) DetectVideo(ctx context.Context, videoPath string, fn vision.FrameFunc) error {
	for i, dets := range f.frames {
		if err := fn(i, dets, f.frameErrs[i]); err != nil {
			return err
		}
	}
	return nil
}

type fakeResultStore struct {
	images    []entity.ImageResult
	videos    []entity.VideoResult
	insertErr error
}

func (f *fakeResultStore) InsertImageResult(ctx context.Context, result entity.ImageResult) error {
	if f.insertErr != nil {
		return f.insertErr
	}
	f.images = append(f.images, result)
	return nil
}

func (f *fakeResultStore) InsertVideoResult(ctx context.Context, result entity.VideoResult) error {
	if f.insertErr != nil {
		return f.insertErr
	}
	f.videos = append(f.videos, result)
	return nil
}

func (f *fakeResultStore) ListImageResults(ctx context.Context, limit int) ([]inspectionRepository.StoredResult, error) {
	return nil, nil
}

func (f *fakeResultStore) ListVideoResults(ctx context.Context, limit int) ([]inspectionRepository.StoredResult, error) {
	return nil, nil
}

type fakeRepository struct {
	store *fakeResultStore
}

func (f *fakeRepository) NewClient(tx bool) (inspectionRepository.Client, error) {
	return inspectionRepository.Client{
		Results:  f.store,
		Commit:   func() error { return nil },
		Rollback: func() error { return nil },
	}, nil
}

func newServiceWith(detector *fakeDetector, store *fakeResultStore) *inspectionService {
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	return &inspectionService{
		log:         logger,
		repo:        &fakeRepository{store: store},
		detector:    detector,
		classes:     vision.DefectClasses,
		thresholds:  DefaultSeverityThresholds(),
		framePolicy: FramePolicySkip,
	}
}

func TestProcessImageFile(t *testing.T) {
	detector := &fakeDetector{
		detections: []vision.RawDetection{
			{ClassID: 0, Confidence: 0.8567, X1: 10, Y1: 10, X2: 60, Y2: 60},
		},
	}
	svc := newServiceWith(detector, &fakeResultStore{})

	result, err := svc.ProcessImageFile(context.Background(), "road.jpg", nil)
	require.NoError(t, err)
	require.Equal(t, 1, result.Summary.TotalDefects)
	require.Equal(t, entity.SeverityMedium, result.Detections[0].Severity)
}

func TestProcessImageFile_InferenceError(t *testing.T) {
	detector := &fakeDetector{err: errors.New("corrupt image")}
	svc := newServiceWith(detector, &fakeResultStore{})

	_, err := svc.ProcessImageFile(context.Background(), "road.jpg", nil)
	require.Error(t, err)
	require.ErrorIs(t, err, inspection.ErrInferenceFailed)
}

func TestProcessVideoFile_SkipPolicyRecordsEmptyFrame(t *testing.T) {
	detector := &fakeDetector{
		frames: [][]vision.RawDetection{
			{
				{ClassID: 0, Confidence: 0.9, X1: 0, Y1: 0, X2: 10, Y2: 10},
				{ClassID: 3, Confidence: 0.8, X1: 0, Y1: 0, X2: 100, Y2: 100},
			},
			nil,
			{
				{ClassID: 2, Confidence: 0.7, X1: 0, Y1: 0, X2: 30, Y2: 30},
			},
		},
		frameErrs: map[int]error{1: errors.New("decode failure")},
	}
	svc := newServiceWith(detector, &fakeResultStore{})

	result, err := svc.ProcessVideoFile(context.Background(), "road.mp4")
	require.NoError(t, err)
	require.Len(t, result.FramesResults, 3)
	require.Equal(t, 2, result.FramesResults[0].Summary.TotalDefects)
	require.Equal(t, 0, result.FramesResults[1].Summary.TotalDefects)
	require.Equal(t, 1, result.FramesResults[2].Summary.TotalDefects)
}

func TestProcessVideoFile_AbortPolicy(t *testing.T) {
	detector := &fakeDetector{
		frames:    [][]vision.RawDetection{{}, nil},
		frameErrs: map[int]error{1: errors.New("decode failure")},
	}
	svc := newServiceWith(detector, &fakeResultStore{})
	svc.framePolicy = FramePolicyAbort

	_, err := svc.ProcessVideoFile(context.Background(), "road.mp4")
	require.Error(t, err)
	require.ErrorIs(t, err, inspection.ErrInferenceFailed)
}

func TestSaveImageResult_SetsTrackingID(t *testing.T) {
	store := &fakeResultStore{}
	svc := newServiceWith(&fakeDetector{}, store)

	err := svc.SaveImageResult(context.Background(), entity.ImageResult{Source: "road.jpg", Type: "image"}, "abc123")
	require.NoError(t, err)
	require.Len(t, store.images, 1)
	require.Equal(t, "abc123", store.images[0].TrackingID)
}

func TestSaveVideoResult_SetsTrackingID(t *testing.T) {
	store := &fakeResultStore{}
	svc := newServiceWith(&fakeDetector{}, store)

	err := svc.SaveVideoResult(context.Background(), entity.VideoResult{Source: "road.mp4", Type: "video"}, "vid42")
	require.NoError(t, err)
	require.Len(t, store.videos, 1)
	require.Equal(t, "vid42", store.videos[0].TrackingID)
}
