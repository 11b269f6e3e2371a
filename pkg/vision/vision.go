package vision

import "context"

// RawDetection is one model finding before normalization. Coordinates come
// straight from the network output and are not guaranteed to be ordered.
type RawDetection struct {
	ClassID    int
	Confidence float64
	X1         float64
	Y1         float64
	X2         float64
	Y2         float64
}

// FrameFunc consumes one decoded frame's detections. inferErr is non-nil when
// inference failed on that frame; the consumer decides whether to skip it or
// abort. Returning an error stops the stream and releases the video handle.
type FrameFunc func(frameIndex int, detections []RawDetection, inferErr error) error

// DefectDetector is the inference contract the pipeline depends on. The gocv
// implementation is documented safe for concurrent Detect calls on a shared
// instance only when built with a thread-safe backend; the worker therefore
// holds a single instance and processes one job at a time.
type DefectDetector interface {
	Detect(ctx context.Context, imagePath string) ([]RawDetection, error)
	DetectVideo(ctx context.Context, videoPath string, fn FrameFunc) error
}

// DefectClasses maps the model's class ids to defect labels. Ids outside this
// map are synthesized as unknown_class_<id> by the normalizer.
var DefectClasses = map[int]string{
	0: "Longitudinal Crack",
	1: "Transverse Crack",
	2: "Alligator Crack",
	3: "Potholes",
}
