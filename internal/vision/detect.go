package vision

import (
	"fmt"
	"math"
	"sort"

	ort "github.com/yalue/onnxruntime_go"
)

// detection is a raw detector hit in original-image pixel coordinates.
type detection struct {
	bbox      [4]float32 // x1, y1, x2, y2
	score     float32
	landmarks [5][2]float32
}

// Detector runs YuNet face detection using ONNX Runtime.
type Detector struct {
	session       *ort.AdvancedSession
	inputTensor   *ort.Tensor[float32]
	outputTensors []*ort.Tensor[float32]
	threshold     float32
	inputW        int
	inputH        int
}

// stride configuration for YuNet's three feature-map levels
var strides = []int{8, 16, 32}

// NewDetector loads the YuNet ONNX model.
// opts may be nil (ORT defaults) or a pre-configured *ort.SessionOptions.
func NewDetector(modelPath string, threshold float32, opts *ort.SessionOptions) (*Detector, error) {
	inputW, inputH := 320, 320

	inputShape := ort.NewShape(1, 3, int64(inputH), int64(inputW))
	inputTensor, err := ort.NewEmptyTensor[float32](inputShape)
	if err != nil {
		return nil, fmt.Errorf("create input tensor: %w", err)
	}

	// YuNet outputs one cls/obj/bbox/kps quadruple per stride:
	//
	//	stride 8:  (320/8)^2  = 1600 anchors
	//	stride 16: (320/16)^2 = 400 anchors
	//	stride 32: (320/32)^2 = 100 anchors
	type outputSpec struct {
		name  string
		shape ort.Shape
	}

	outputs := []outputSpec{
		{"cls_8", ort.NewShape(1600, 1)},
		{"cls_16", ort.NewShape(400, 1)},
		{"cls_32", ort.NewShape(100, 1)},
		{"obj_8", ort.NewShape(1600, 1)},
		{"obj_16", ort.NewShape(400, 1)},
		{"obj_32", ort.NewShape(100, 1)},
		{"bbox_8", ort.NewShape(1600, 4)},
		{"bbox_16", ort.NewShape(400, 4)},
		{"bbox_32", ort.NewShape(100, 4)},
		{"kps_8", ort.NewShape(1600, 10)},
		{"kps_16", ort.NewShape(400, 10)},
		{"kps_32", ort.NewShape(100, 10)},
	}

	outputNames := make([]string, len(outputs))
	outputTensors := make([]*ort.Tensor[float32], len(outputs))
	outputValues := make([]ort.Value, len(outputs))

	for i, spec := range outputs {
		outputNames[i] = spec.name
		t, err := ort.NewEmptyTensor[float32](spec.shape)
		if err != nil {
			for j := 0; j < i; j++ {
				outputTensors[j].Destroy()
			}
			inputTensor.Destroy()
			return nil, fmt.Errorf("create output tensor %d (%s): %w", i, spec.name, err)
		}
		outputTensors[i] = t
		outputValues[i] = t
	}

	session, err := ort.NewAdvancedSession(modelPath,
		[]string{"input"},
		outputNames,
		[]ort.Value{inputTensor},
		outputValues,
		opts,
	)
	if err != nil {
		inputTensor.Destroy()
		for _, t := range outputTensors {
			t.Destroy()
		}
		return nil, fmt.Errorf("create detector session: %w", err)
	}

	return &Detector{
		session:       session,
		inputTensor:   inputTensor,
		outputTensors: outputTensors,
		threshold:     threshold,
		inputW:        inputW,
		inputH:        inputH,
	}, nil
}

// Detect runs face detection on a preprocessed image.
// imgData should be CHW format [3, inputH, inputW], normalized.
// origW/origH are the original image dimensions for coordinate scaling.
func (d *Detector) Detect(imgData []float32, origW, origH int) ([]detection, error) {
	inputSlice := d.inputTensor.GetData()
	copy(inputSlice, imgData)

	if err := d.session.Run(); err != nil {
		return nil, fmt.Errorf("run detection: %w", err)
	}

	detections := d.parseDetections(origW, origH)
	detections = nms(detections, 0.3)

	return detections, nil
}

// parseDetections decodes anchor-free YuNet outputs at strides 8, 16, 32.
// The combined score is the geometric mean of the face-class and objectness
// heads; box offsets are relative to the feature-map cell, sizes are
// log-encoded in stride units.
func (d *Detector) parseDetections(origW, origH int) []detection {
	var detections []detection

	scaleW := float32(origW) / float32(d.inputW)
	scaleH := float32(origH) / float32(d.inputH)

	for si, stride := range strides {
		cls := d.outputTensors[si].GetData()      // [N, 1]
		obj := d.outputTensors[si+3].GetData()    // [N, 1]
		bboxes := d.outputTensors[si+6].GetData() // [N, 4]
		kps := d.outputTensors[si+9].GetData()    // [N, 10]

		cols := d.inputW / stride
		rows := d.inputH / stride

		idx := 0
		for row := 0; row < rows; row++ {
			for col := 0; col < cols; col++ {
				score := float32(math.Sqrt(float64(clampF(cls[idx], 0, 1) * clampF(obj[idx], 0, 1))))

				if score >= d.threshold {
					st := float32(stride)
					cx := (float32(col) + bboxes[idx*4+0]) * st
					cy := (float32(row) + bboxes[idx*4+1]) * st
					w := float32(math.Exp(float64(bboxes[idx*4+2]))) * st
					h := float32(math.Exp(float64(bboxes[idx*4+3]))) * st

					x1 := (cx - w/2) * scaleW
					y1 := (cy - h/2) * scaleH
					x2 := (cx + w/2) * scaleW
					y2 := (cy + h/2) * scaleH

					x1 = clampF(x1, 0, float32(origW))
					y1 = clampF(y1, 0, float32(origH))
					x2 = clampF(x2, 0, float32(origW))
					y2 = clampF(y2, 0, float32(origH))

					var lm [5][2]float32
					for li := 0; li < 5; li++ {
						lm[li][0] = (float32(col) + kps[idx*10+li*2]) * st * scaleW
						lm[li][1] = (float32(row) + kps[idx*10+li*2+1]) * st * scaleH
					}

					detections = append(detections, detection{
						bbox:      [4]float32{x1, y1, x2, y2},
						score:     score,
						landmarks: lm,
					})
				}
				idx++
			}
		}
	}

	return detections
}

// InputSize returns the model's expected input dimensions.
func (d *Detector) InputSize() (int, int) {
	return d.inputW, d.inputH
}

func (d *Detector) Close() {
	if d.session != nil {
		d.session.Destroy()
	}
	if d.inputTensor != nil {
		d.inputTensor.Destroy()
	}
	for _, t := range d.outputTensors {
		if t != nil {
			t.Destroy()
		}
	}
}

// nms performs Non-Maximum Suppression on detections.
func nms(detections []detection, iouThreshold float32) []detection {
	if len(detections) == 0 {
		return detections
	}

	sort.Slice(detections, func(i, j int) bool {
		return detections[i].score > detections[j].score
	})

	keep := make([]bool, len(detections))
	for i := range keep {
		keep[i] = true
	}

	for i := 0; i < len(detections); i++ {
		if !keep[i] {
			continue
		}
		for j := i + 1; j < len(detections); j++ {
			if !keep[j] {
				continue
			}
			if iou(detections[i].bbox, detections[j].bbox) > iouThreshold {
				keep[j] = false
			}
		}
	}

	var result []detection
	for i, d := range detections {
		if keep[i] {
			result = append(result, d)
		}
	}
	return result
}

func iou(a, b [4]float32) float32 {
	x1 := float32(math.Max(float64(a[0]), float64(b[0])))
	y1 := float32(math.Max(float64(a[1]), float64(b[1])))
	x2 := float32(math.Min(float64(a[2]), float64(b[2])))
	y2 := float32(math.Min(float64(a[3]), float64(b[3])))

	intersection := float32(math.Max(0, float64(x2-x1))) * float32(math.Max(0, float64(y2-y1)))

	areaA := (a[2] - a[0]) * (a[3] - a[1])
	areaB := (b[2] - b[0]) * (b[3] - b[1])
	union := areaA + areaB - intersection

	if union <= 0 {
		return 0
	}
	return intersection / union
}

func clampF(v, min, max float32) float32 {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}
