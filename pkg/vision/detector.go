//go:build gocv
// +build gocv

package vision

import (
	"context"
	"errors"
	"fmt"
	"image"
	"os"

	"gocv.io/x/gocv"
)

const (
	inputSize          = 640
	scoreThreshold     = 0.25
	nmsThreshold       = 0.45
	yoloRowBaseColumns = 5
)

type YOLODetector struct {
	net         gocv.Net
	outputNames []string
}

// NewYOLODetector loads the pavement-defect weights from the configured paths.
func NewYOLODetector() (*YOLODetector, error) {
	weightsPath := os.Getenv("MODEL_WEIGHTS_PATH")
	if weightsPath == "" {
		weightsPath = "yolo-pd.weights"
	}
	configPath := os.Getenv("MODEL_CONFIG_PATH")
	if configPath == "" {
		configPath = "yolo-pd.cfg"
	}

	net := gocv.ReadNet(weightsPath, configPath)
	if net.Empty() {
		return nil, fmt.Errorf("failed to load model from %s", weightsPath)
	}

	if err := net.SetPreferableBackend(gocv.NetBackendDefault); err != nil {
		net.Close()
		return nil, err
	}
	if err := net.SetPreferableTarget(gocv.NetTargetCPU); err != nil {
		net.Close()
		return nil, err
	}

	return &YOLODetector{
		net:         net,
		outputNames: outputLayerNames(&net),
	}, nil
}

// Detect runs one inference pass over the whole image.
func (d *YOLODetector) Detect(ctx context.Context, imagePath string) ([]RawDetection, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	img := gocv.IMRead(imagePath, gocv.IMReadColor)
	defer img.Close()

	if img.Empty() {
		return nil, errors.New("failed to decode image")
	}

	return d.detectMat(img)
}

// DetectVideo decodes frames one at a time and feeds each frame's detections
// to fn in frame order. Cancellation is checked between frames so a shutdown
// does not wait for the whole video. The capture handle is released on every
// exit path.
func (d *YOLODetector) DetectVideo(ctx context.Context, videoPath string, fn FrameFunc) error {
	cap, err := gocv.VideoCaptureFile(videoPath)
	if err != nil {
		return fmt.Errorf("failed to open video %s: %w", videoPath, err)
	}
	defer cap.Close()

	frame := gocv.NewMat()
	defer frame.Close()

	frameIdx := 0
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		if ok := cap.Read(&frame); !ok {
			return nil
		}
		if frame.Empty() {
			continue
		}

		detections, err := d.detectMat(frame)
		if ferr := fn(frameIdx, detections, err); ferr != nil {
			return ferr
		}
		frameIdx++
	}
}

func (d *YOLODetector) Close() error {
	return d.net.Close()
}

func (d *YOLODetector) detectMat(img gocv.Mat) ([]RawDetection, error) {
	blob := gocv.BlobFromImage(img, 1.0/255.0, image.Pt(inputSize, inputSize), gocv.NewScalar(0, 0, 0, 0), true, false)
	defer blob.Close()

	d.net.SetInput(blob, "")

	outputs := d.net.ForwardLayers(d.outputNames)
	defer func() {
		for i := range outputs {
			outputs[i].Close()
		}
	}()

	imgW := float64(img.Cols())
	imgH := float64(img.Rows())

	var boxes []image.Rectangle
	var scores []float32
	var classIDs []int
	var coords [][4]float64

	for _, out := range outputs {
		for r := 0; r < out.Rows(); r++ {
			objectness := out.GetFloatAt(r, 4)
			if objectness < scoreThreshold {
				continue
			}

			classID := 0
			classScore := float32(0)
			for c := yoloRowBaseColumns; c < out.Cols(); c++ {
				if s := out.GetFloatAt(r, c); s > classScore {
					classScore = s
					classID = c - yoloRowBaseColumns
				}
			}

			confidence := objectness * classScore
			if confidence < scoreThreshold {
				continue
			}

			cx := float64(out.GetFloatAt(r, 0)) * imgW
			cy := float64(out.GetFloatAt(r, 1)) * imgH
			w := float64(out.GetFloatAt(r, 2)) * imgW
			h := float64(out.GetFloatAt(r, 3)) * imgH

			x1 := cx - w/2
			y1 := cy - h/2
			x2 := cx + w/2
			y2 := cy + h/2

			boxes = append(boxes, image.Rect(int(x1), int(y1), int(x2), int(y2)))
			scores = append(scores, confidence)
			classIDs = append(classIDs, classID)
			coords = append(coords, [4]float64{x1, y1, x2, y2})
		}
	}

	if len(boxes) == 0 {
		return nil, nil
	}

	kept := gocv.NMSBoxes(boxes, scores, scoreThreshold, nmsThreshold)

	detections := make([]RawDetection, 0, len(kept))
	for _, i := range kept {
		detections = append(detections, RawDetection{
			ClassID:    classIDs[i],
			Confidence: float64(scores[i]),
			X1:         coords[i][0],
			Y1:         coords[i][1],
			X2:         coords[i][2],
			Y2:         coords[i][3],
		})
	}

	return detections, nil
}

func outputLayerNames(net *gocv.Net) []string {
	var names []string
	for _, i := range net.GetUnconnectedOutLayers() {
		layer := net.GetLayer(i)
		name := layer.GetName()
		if name != "" && name != "_input" {
			names = append(names, name)
		}
		layer.Close()
	}
	return names
}
