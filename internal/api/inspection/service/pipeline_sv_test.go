package inspectionService

import (
	"io"
	"math/rand"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"RoadVision/internal/entity"
	"RoadVision/pkg/vision"
)

func newTestService() *inspectionService {
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	return &inspectionService{
		log:         logger,
		classes:     vision.DefectClasses,
		thresholds:  DefaultSeverityThresholds(),
		framePolicy: FramePolicySkip,
	}
}

func TestClassifySeverity_Buckets(t *testing.T) {
	s := newTestService()

	cases := []struct {
		area float64
		want entity.Severity
	}{
		{-2500, entity.SeverityLow},
		{0, entity.SeverityLow},
		{999.99, entity.SeverityLow},
		{1000, entity.SeverityMedium},
		{4999.99, entity.SeverityMedium},
		{5000, entity.SeverityHigh},
		{14999.99, entity.SeverityHigh},
		{15000, entity.SeverityCritical},
		{1e9, entity.SeverityCritical},
	}

	for _, tc := range cases {
		require.Equal(t, tc.want, s.classifySeverity(tc.area), "area %v", tc.area)
	}
}

func TestClassifySeverity_TotalOverReals(t *testing.T) {
	s := newTestService()

	valid := map[entity.Severity]bool{
		entity.SeverityLow:      true,
		entity.SeverityMedium:   true,
		entity.SeverityHigh:     true,
		entity.SeverityCritical: true,
	}

	r := rand.New(rand.NewSource(7))
	for i := 0; i < 1000; i++ {
		area := (r.Float64() - 0.5) * 1e6
		require.True(t, valid[s.classifySeverity(area)])
	}
}

func TestNormalizeDetection_KnownClass(t *testing.T) {
	s := newTestService()

	d := s.normalizeDetection(vision.RawDetection{
		ClassID:    0,
		Confidence: 0.8567,
		X1:         10, Y1: 10, X2: 60, Y2: 60,
	})

	require.Equal(t, "Longitudinal Crack", d.DefectType)
	require.Equal(t, 0.857, d.Confidence)
	require.Equal(t, entity.BoundingBox{
		X1: 10, Y1: 10, X2: 60, Y2: 60,
		Width: 50, Height: 50, Area: 2500,
	}, d.BoundingBox)
	require.Equal(t, entity.SeverityMedium, d.Severity)
}

func TestNormalizeDetection_UnknownClass(t *testing.T) {
	s := newTestService()

	d := s.normalizeDetection(vision.RawDetection{
		ClassID:    99,
		Confidence: 0.5,
		X1:         0, Y1: 0, X2: 10, Y2: 10,
	})

	require.Equal(t, "unknown_class_99", d.DefectType)
}

func TestNormalizeDetection_NegativeWidthPropagates(t *testing.T) {
	s := newTestService()

	// The model emitted x1 > x2; the derived fields stay negative and the
	// negative area lands in the low bucket.
	d := s.normalizeDetection(vision.RawDetection{
		ClassID:    3,
		Confidence: 0.9,
		X1:         60, Y1: 10, X2: 10, Y2: 60,
	})

	require.Equal(t, float64(-50), d.BoundingBox.Width)
	require.Equal(t, float64(50), d.BoundingBox.Height)
	require.Equal(t, float64(-2500), d.BoundingBox.Area)
	require.Equal(t, entity.SeverityLow, d.Severity)
}

func TestNormalizeDetection_Rounding(t *testing.T) {
	s := newTestService()

	d := s.normalizeDetection(vision.RawDetection{
		ClassID:    1,
		Confidence: 0.12345,
		X1:         1.014, Y1: 2.344, X2: 3.556, Y2: 4.001,
	})

	require.Equal(t, 0.123, d.Confidence)
	require.Equal(t, 1.01, d.BoundingBox.X1)
	require.Equal(t, 2.34, d.BoundingBox.Y1)
	require.Equal(t, 3.56, d.BoundingBox.X2)
	require.Equal(t, 4.0, d.BoundingBox.Y2)
}

func TestAggregate_CountsAddUp(t *testing.T) {
	s := newTestService()

	detections := []entity.Detection{
		s.normalizeDetection(vision.RawDetection{ClassID: 0, Confidence: 0.9, X1: 0, Y1: 0, X2: 10, Y2: 10}),
		s.normalizeDetection(vision.RawDetection{ClassID: 0, Confidence: 0.8, X1: 0, Y1: 0, X2: 40, Y2: 40}),
		s.normalizeDetection(vision.RawDetection{ClassID: 3, Confidence: 0.7, X1: 0, Y1: 0, X2: 100, Y2: 100}),
		s.normalizeDetection(vision.RawDetection{ClassID: 42, Confidence: 0.6, X1: 0, Y1: 0, X2: 200, Y2: 200}),
	}

	summary := aggregate(detections)

	require.Equal(t, len(detections), summary.TotalDefects)

	defectTotal := 0
	for _, n := range summary.DefectCounts {
		defectTotal += n
	}
	require.Equal(t, len(detections), defectTotal)

	severityTotal := 0
	for _, n := range summary.SeverityDistribution {
		severityTotal += n
	}
	require.Equal(t, len(detections), severityTotal)

	require.Equal(t, 2, summary.DefectCounts["Longitudinal Crack"])
	require.Equal(t, 1, summary.DefectCounts["Potholes"])
	require.Equal(t, 1, summary.DefectCounts["unknown_class_42"])
}

func TestAggregate_OrderIndependent(t *testing.T) {
	s := newTestService()

	detections := make([]entity.Detection, 0, 20)
	r := rand.New(rand.NewSource(11))
	for i := 0; i < 20; i++ {
		detections = append(detections, s.normalizeDetection(vision.RawDetection{
			ClassID:    r.Intn(6),
			Confidence: r.Float64(),
			X1:         0, Y1: 0,
			X2: r.Float64() * 200, Y2: r.Float64() * 200,
		}))
	}

	want := aggregate(detections)

	shuffled := make([]entity.Detection, len(detections))
	copy(shuffled, detections)
	r.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})

	require.Equal(t, want, aggregate(shuffled))
}

func TestAggregate_Empty(t *testing.T) {
	summary := aggregate(nil)

	require.Equal(t, 0, summary.TotalDefects)
	require.Empty(t, summary.DefectCounts)
	require.Len(t, summary.SeverityDistribution, 4)
	for _, n := range summary.SeverityDistribution {
		require.Equal(t, 0, n)
	}
}
