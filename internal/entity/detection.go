package entity

type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// BoundingBox carries the raw model coordinates plus the derived fields.
// Width, height and area come straight from the coordinates: a box with
// x1 > x2 keeps its negative width, nothing is reordered or clamped.
type BoundingBox struct {
	X1     float64 `json:"x1"`
	Y1     float64 `json:"y1"`
	X2     float64 `json:"x2"`
	Y2     float64 `json:"y2"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
	Area   float64 `json:"area"`
}

type Detection struct {
	DefectType  string      `json:"defect_type"`
	Confidence  float64     `json:"confidence"`
	BoundingBox BoundingBox `json:"bounding_box"`
	Severity    Severity    `json:"severity"`
}

type Summary struct {
	TotalDefects         int              `json:"total_defects"`
	DefectCounts         map[string]int   `json:"defect_counts"`
	SeverityDistribution map[Severity]int `json:"severity_distribution"`
}
