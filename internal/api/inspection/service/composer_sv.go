package inspectionService

import (
	"RoadVision/internal/entity"
	"RoadVision/pkg/vision"
	"time"
)

func (s *inspectionService) composeImage(source string, raws []vision.RawDetection, metadata map[string]string) entity.ImageResult {
	detections := s.normalizeAll(raws)
	if metadata == nil {
		metadata = map[string]string{}
	}

	return entity.ImageResult{
		Source:     source,
		Type:       "image",
		Metadata:   metadata,
		Detections: detections,
		Summary:    aggregate(detections),
	}
}

func (s *inspectionService) normalizeAll(raws []vision.RawDetection) []entity.Detection {
	detections := make([]entity.Detection, 0, len(raws))
	for _, raw := range raws {
		detections = append(detections, s.normalizeDetection(raw))
	}
	return detections
}

// videoComposer builds a VideoResult one frame at a time. The partial result
// is consistent after every AddFrame, so frames can stream in from a decoder
// of unknown length.
type videoComposer struct {
	result entity.VideoResult
}

func newVideoComposer(source string) *videoComposer {
	return &videoComposer{
		result: entity.VideoResult{
			Timestamp:     time.Now(),
			Source:        source,
			Type:          "video",
			FramesResults: []entity.FrameResult{},
		},
	}
}

// AddFrame appends the next frame in arrival order. A frame with no
// detections still gets an entry with an all-zero summary.
func (c *videoComposer) AddFrame(detections []entity.Detection) {
	if detections == nil {
		detections = []entity.Detection{}
	}

	c.result.FramesResults = append(c.result.FramesResults, entity.FrameResult{
		Detections: detections,
		Summary:    aggregate(detections),
	})
}

func (c *videoComposer) FrameCount() int {
	return len(c.result.FramesResults)
}

func (c *videoComposer) Result() entity.VideoResult {
	return c.result
}
