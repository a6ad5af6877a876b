package vision

import (
	"fmt"
	"image"
	"math"

	ort "github.com/yalue/onnxruntime_go"
)

// Embedder extracts face embeddings using the SFace ONNX model.
type Embedder struct {
	session      *ort.AdvancedSession
	inputTensor  *ort.Tensor[float32]
	outputTensor *ort.Tensor[float32]
	inputW       int
	inputH       int
	embDim       int
}

// canonicalLandmarks are the reference 5-point positions (eyes, nose tip,
// mouth corners) on the 112x112 aligned face that SFace was trained on.
var canonicalLandmarks = [5][2]float32{
	{38.2946, 51.6963},
	{73.5318, 51.5014},
	{56.0252, 71.7366},
	{41.5493, 92.3655},
	{70.7299, 92.2041},
}

// NewEmbedder loads the SFace ONNX model for face embedding extraction.
func NewEmbedder(modelPath string, opts *ort.SessionOptions) (*Embedder, error) {
	// SFace expects a 112x112 aligned crop and emits 128 features
	inputW, inputH := 112, 112
	embDim := 128

	inputShape := ort.NewShape(1, 3, int64(inputH), int64(inputW))
	inputTensor, err := ort.NewEmptyTensor[float32](inputShape)
	if err != nil {
		return nil, fmt.Errorf("create input tensor: %w", err)
	}

	outputShape := ort.NewShape(1, int64(embDim))
	outputTensor, err := ort.NewEmptyTensor[float32](outputShape)
	if err != nil {
		inputTensor.Destroy()
		return nil, fmt.Errorf("create output tensor: %w", err)
	}

	session, err := ort.NewAdvancedSession(modelPath,
		[]string{"data"},
		[]string{"fc1"},
		[]ort.Value{inputTensor},
		[]ort.Value{outputTensor},
		opts,
	)
	if err != nil {
		inputTensor.Destroy()
		outputTensor.Destroy()
		return nil, fmt.Errorf("create embedder session: %w", err)
	}

	return &Embedder{
		session:      session,
		inputTensor:  inputTensor,
		outputTensor: outputTensor,
		inputW:       inputW,
		inputH:       inputH,
		embDim:       embDim,
	}, nil
}

// Extract runs embedding extraction on an aligned face crop.
// faceData should be CHW format [3, 112, 112], normalized.
// Returns an L2-normalized embedding vector.
func (e *Embedder) Extract(faceData []float32) ([]float32, error) {
	inputSlice := e.inputTensor.GetData()
	copy(inputSlice, faceData)

	if err := e.session.Run(); err != nil {
		return nil, fmt.Errorf("run embedding: %w", err)
	}

	outputData := e.outputTensor.GetData()

	embedding := make([]float32, e.embDim)
	copy(embedding, outputData)

	normalize(embedding)

	return embedding, nil
}

// InputSize returns the expected face crop dimensions.
func (e *Embedder) InputSize() (int, int) {
	return e.inputW, e.inputH
}

// EmbeddingDim returns the embedding vector dimension.
func (e *Embedder) EmbeddingDim() int {
	return e.embDim
}

func (e *Embedder) Close() {
	if e.session != nil {
		e.session.Destroy()
	}
	if e.inputTensor != nil {
		e.inputTensor.Destroy()
	}
	if e.outputTensor != nil {
		e.outputTensor.Destroy()
	}
}

// alignFace warps the face defined by the detected landmarks onto the
// canonical 112x112 template with a least-squares similarity transform
// (rotation, uniform scale, translation). Degenerate landmark sets return
// an error; the caller falls back to skipping the face.
func alignFace(img image.Image, landmarks [5][2]float32, targetW, targetH int) (image.Image, error) {
	a, b, tx, ty, err := similarityTransform(landmarks, canonicalLandmarks)
	if err != nil {
		return nil, err
	}

	det := a*a + b*b
	if det == 0 {
		return nil, fmt.Errorf("degenerate alignment transform")
	}

	bounds := img.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, targetW, targetH))

	// Inverse-map every output pixel back into the source image.
	for v := 0; v < targetH; v++ {
		for u := 0; u < targetW; u++ {
			du := float64(u) - tx
			dv := float64(v) - ty
			sx := (a*du + b*dv) / det
			sy := (-b*du + a*dv) / det

			px := bounds.Min.X + int(sx+0.5)
			py := bounds.Min.Y + int(sy+0.5)
			if px < bounds.Min.X || px >= bounds.Max.X || py < bounds.Min.Y || py >= bounds.Max.Y {
				continue // outside the frame stays black
			}
			dst.Set(u, v, img.At(px, py))
		}
	}

	return dst, nil
}

// similarityTransform solves for the transform
//
//	u = a*x - b*y + tx
//	v = b*x + a*y + ty
//
// minimizing the squared error over the point pairs (closed form via
// centered coordinates).
func similarityTransform(src, dst [5][2]float32) (a, b, tx, ty float64, err error) {
	var sxMean, syMean, dxMean, dyMean float64
	for i := 0; i < 5; i++ {
		sxMean += float64(src[i][0])
		syMean += float64(src[i][1])
		dxMean += float64(dst[i][0])
		dyMean += float64(dst[i][1])
	}
	sxMean /= 5
	syMean /= 5
	dxMean /= 5
	dyMean /= 5

	var num, numB, denom float64
	for i := 0; i < 5; i++ {
		x := float64(src[i][0]) - sxMean
		y := float64(src[i][1]) - syMean
		u := float64(dst[i][0]) - dxMean
		v := float64(dst[i][1]) - dyMean
		num += x*u + y*v
		numB += x*v - y*u
		denom += x*x + y*y
	}

	if denom == 0 {
		return 0, 0, 0, 0, fmt.Errorf("coincident landmarks")
	}

	a = num / denom
	b = numB / denom
	tx = dxMean - a*sxMean + b*syMean
	ty = dyMean - b*sxMean - a*syMean
	return a, b, tx, ty, nil
}

// normalize performs L2 normalization in-place.
func normalize(v []float32) {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	norm := float32(math.Sqrt(sum))
	if norm > 0 {
		for i := range v {
			v[i] /= norm
		}
	}
}
