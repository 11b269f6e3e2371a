//go:build !gocv
// +build !gocv

package vision

import (
	"context"
	"errors"
)

type YOLODetector struct{}

// NewYOLODetector returns a stub when built without the gocv tag.
func NewYOLODetector() (*YOLODetector, error) {
	return &YOLODetector{}, nil
}

// Detect returns an error when the build lacks the gocv tag.
func (d *YOLODetector) Detect(ctx context.Context, imagePath string) ([]RawDetection, error) {
	_ = ctx
	_ = imagePath
	return nil, errors.New("gocv build tag is not enabled")
}

// DetectVideo returns an error when the build lacks the gocv tag.
func (d *YOLODetector) DetectVideo(ctx context.Context, videoPath string, fn FrameFunc) error {
	_ = ctx
	_ = videoPath
	_ = fn
	return errors.New("gocv build tag is not enabled")
}

func (d *YOLODetector) Close() error {
	return nil
}
