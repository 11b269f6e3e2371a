package inspectionService

import (
	"testing"

	"github.com/stretchr/testify/require"

	"RoadVision/internal/entity"
	"RoadVision/pkg/vision"
)

func TestComposeImage_NoDetections(t *testing.T) {
	s := newTestService()

	result := s.composeImage("road.jpg", nil, nil)

	require.Equal(t, "road.jpg", result.Source)
	require.Equal(t, "image", result.Type)
	require.NotNil(t, result.Metadata)
	require.Empty(t, result.Detections)
	require.Equal(t, 0, result.Summary.TotalDefects)
	require.Len(t, result.Summary.SeverityDistribution, 4)
}

func TestComposeImage_PreservesEmissionOrder(t *testing.T) {
	s := newTestService()

	raws := []vision.RawDetection{
		{ClassID: 3, Confidence: 0.9, X1: 0, Y1: 0, X2: 100, Y2: 100},
		{ClassID: 0, Confidence: 0.8, X1: 0, Y1: 0, X2: 10, Y2: 10},
		{ClassID: 1, Confidence: 0.7, X1: 0, Y1: 0, X2: 50, Y2: 50},
	}

	result := s.composeImage("road.jpg", raws, map[string]string{"camera": "front"})

	require.Len(t, result.Detections, 3)
	require.Equal(t, "Potholes", result.Detections[0].DefectType)
	require.Equal(t, "Longitudinal Crack", result.Detections[1].DefectType)
	require.Equal(t, "Transverse Crack", result.Detections[2].DefectType)
	require.Equal(t, "front", result.Metadata["camera"])
}

func TestVideoComposer_FrameOrderAndEmptyFrames(t *testing.T) {
	s := newTestService()
	composer := newVideoComposer("road.mp4")

	two := []entity.Detection{
		s.normalizeDetection(vision.RawDetection{ClassID: 0, Confidence: 0.9, X1: 0, Y1: 0, X2: 10, Y2: 10}),
		s.normalizeDetection(vision.RawDetection{ClassID: 3, Confidence: 0.8, X1: 0, Y1: 0, X2: 100, Y2: 100}),
	}
	one := []entity.Detection{
		s.normalizeDetection(vision.RawDetection{ClassID: 2, Confidence: 0.7, X1: 0, Y1: 0, X2: 30, Y2: 30}),
	}

	composer.AddFrame(two)
	composer.AddFrame(nil)
	composer.AddFrame(one)

	result := composer.Result()
	require.Equal(t, "road.mp4", result.Source)
	require.Equal(t, "video", result.Type)
	require.False(t, result.Timestamp.IsZero())
	require.Len(t, result.FramesResults, 3)

	require.Equal(t, 2, result.FramesResults[0].Summary.TotalDefects)
	require.Equal(t, 0, result.FramesResults[1].Summary.TotalDefects)
	require.Equal(t, 1, result.FramesResults[2].Summary.TotalDefects)

	require.NotNil(t, result.FramesResults[1].Detections)
	require.Empty(t, result.FramesResults[1].Detections)
}

func TestVideoComposer_PartialResultIsConsistent(t *testing.T) {
	s := newTestService()
	composer := newVideoComposer("road.mp4")

	for i := 0; i < 5; i++ {
		composer.AddFrame([]entity.Detection{
			s.normalizeDetection(vision.RawDetection{ClassID: 0, Confidence: 0.9, X1: 0, Y1: 0, X2: 10, Y2: 10}),
		})

		partial := composer.Result()
		require.Len(t, partial.FramesResults, i+1)
		for _, frame := range partial.FramesResults {
			require.Equal(t, 1, frame.Summary.TotalDefects)
			require.Len(t, frame.Summary.SeverityDistribution, 4)
		}
	}
}
