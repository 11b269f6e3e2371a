package inspectionService

import (
	"RoadVision/internal/entity"
	"RoadVision/pkg/vision"
	"fmt"
	"math"
)

// classifySeverity buckets a bbox area. Total over all reals: zero and
// negative areas from malformed boxes fall into the low bucket.
func (s *inspectionService) classifySeverity(area float64) entity.Severity {
	switch {
	case area < s.thresholds.LowMax:
		return entity.SeverityLow
	case area < s.thresholds.MediumMax:
		return entity.SeverityMedium
	case area < s.thresholds.HighMax:
		return entity.SeverityHigh
	default:
		return entity.SeverityCritical
	}
}

// normalizeDetection turns one raw model finding into a Detection. Width,
// height and area come straight from the raw coordinates; a box emitted with
// x1 > x2 keeps its negative width and that propagates into severity. The
// classifier sees the unrounded area.
func (s *inspectionService) normalizeDetection(raw vision.RawDetection) entity.Detection {
	defectType, ok := s.classes[raw.ClassID]
	if !ok {
		defectType = fmt.Sprintf("unknown_class_%d", raw.ClassID)
	}

	width := raw.X2 - raw.X1
	height := raw.Y2 - raw.Y1
	area := width * height

	return entity.Detection{
		DefectType: defectType,
		Confidence: roundTo(raw.Confidence, 3),
		BoundingBox: entity.BoundingBox{
			X1:     roundTo(raw.X1, 2),
			Y1:     roundTo(raw.Y1, 2),
			X2:     roundTo(raw.X2, 2),
			Y2:     roundTo(raw.Y2, 2),
			Width:  roundTo(width, 2),
			Height: roundTo(height, 2),
			Area:   roundTo(area, 2),
		},
		Severity: s.classifySeverity(area),
	}
}

// aggregate folds detections into a summary. The fold is commutative, so the
// summary does not depend on detection order. All four severity buckets are
// present even when zero.
func aggregate(detections []entity.Detection) entity.Summary {
	summary := entity.Summary{
		DefectCounts: map[string]int{},
		SeverityDistribution: map[entity.Severity]int{
			entity.SeverityLow:      0,
			entity.SeverityMedium:   0,
			entity.SeverityHigh:     0,
			entity.SeverityCritical: 0,
		},
	}

	for _, d := range detections {
		summary.TotalDefects++
		summary.DefectCounts[d.DefectType]++
		summary.SeverityDistribution[d.Severity]++
	}

	return summary
}

// roundTo rounds half away from zero to the given number of decimals.
func roundTo(v float64, decimals int) float64 {
	p := math.Pow(10, float64(decimals))
	return math.Round(v*p) / p
}
