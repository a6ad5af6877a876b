package vision

import (
	"fmt"
	"image"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	ort "github.com/yalue/onnxruntime_go"

	"github.com/your-org/faceguard/internal/config"
	"github.com/your-org/faceguard/internal/models"
	"github.com/your-org/faceguard/internal/observability"
)

// Pipeline bundles the detection and embedding models behind the two
// operations the recognition path needs: find faces in an image, and turn
// one face into an embedding.
//
// ONNX sessions use fixed input/output tensors, so a mutex serializes all
// inference calls.
type Pipeline struct {
	mu       sync.Mutex
	detector *Detector
	embedder *Embedder
	cfg      config.VisionConfig
}

// NewPipeline initialises both ONNX models and returns a ready pipeline.
// opts may be nil or shared session options (e.g. CUDA).
func NewPipeline(cfg config.VisionConfig, opts *ort.SessionOptions) (*Pipeline, error) {
	detPath := filepath.Join(cfg.ModelsDir, "face_detection_yunet.onnx")
	embPath := filepath.Join(cfg.ModelsDir, "face_recognition_sface.onnx")

	slog.Info("loading detection model", "path", detPath)
	det, err := NewDetector(detPath, float32(cfg.DetectionThreshold), opts)
	if err != nil {
		return nil, fmt.Errorf("load detector: %w", err)
	}

	slog.Info("loading embedding model", "path", embPath)
	emb, err := NewEmbedder(embPath, opts)
	if err != nil {
		det.Close()
		return nil, fmt.Errorf("load embedder: %w", err)
	}

	slog.Info("vision pipeline ready")

	return &Pipeline{
		detector: det,
		embedder: emb,
		cfg:      cfg,
	}, nil
}

// Detect finds all faces in an encoded image, ordered as the detector
// reported them. A decode failure is logged and yields zero faces.
func (p *Pipeline) Detect(imageData []byte) []Face {
	img, err := decodeImage(imageData)
	if err != nil {
		slog.Warn("image decode failed, treating as no faces", "error", err)
		return nil
	}

	bounds := img.Bounds()
	origW := bounds.Dx()
	origH := bounds.Dy()

	start := time.Now()
	detInput := preprocessForDetection(img, p.detector.inputW, p.detector.inputH)
	observability.InferenceDuration.WithLabelValues("preprocess").Observe(time.Since(start).Seconds())

	p.mu.Lock()
	start = time.Now()
	detections, err := p.detector.Detect(detInput, origW, origH)
	observability.InferenceDuration.WithLabelValues("detect").Observe(time.Since(start).Seconds())
	p.mu.Unlock()
	if err != nil {
		slog.Error("face detection failed", "error", err)
		return nil
	}

	faces := make([]Face, 0, len(detections))
	for _, d := range detections {
		bbox := models.BBox{
			int(d.bbox[0]),
			int(d.bbox[1]),
			int(d.bbox[2] - d.bbox[0]),
			int(d.bbox[3] - d.bbox[1]),
		}
		faces = append(faces, Face{
			BBox:      bbox,
			Landmarks: d.landmarks,
			Score:     d.score,
			Quality:   QualityScore(d.score, bbox, origW, origH),
		})
	}
	return faces
}

// Extract aligns the face by its landmarks and runs the embedding model.
func (p *Pipeline) Extract(imageData []byte, face Face) ([]float32, error) {
	img, err := decodeImage(imageData)
	if err != nil {
		return nil, err
	}

	aligned, err := alignFace(img, face.Landmarks, p.embedder.inputW, p.embedder.inputH)
	if err != nil {
		return nil, fmt.Errorf("align face: %w", err)
	}

	embInput := preprocessForEmbedding(aligned, p.embedder.inputW, p.embedder.inputH)

	p.mu.Lock()
	start := time.Now()
	embedding, err := p.embedder.Extract(embInput)
	observability.InferenceDuration.WithLabelValues("embed").Observe(time.Since(start).Seconds())
	p.mu.Unlock()
	if err != nil {
		return nil, err
	}

	return embedding, nil
}

// Crop returns a padded JPEG crop of the face region, used for person
// thumbnails.
func (p *Pipeline) Crop(imageData []byte, bbox models.BBox) ([]byte, error) {
	img, err := decodeImage(imageData)
	if err != nil {
		return nil, err
	}

	crop := cropFace(img, bbox)
	if crop == nil {
		return nil, fmt.Errorf("empty face region %v", bbox)
	}

	return encodeJPEG(crop, 85), nil
}

// Close releases all ONNX sessions.
func (p *Pipeline) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.detector != nil {
		p.detector.Close()
	}
	if p.embedder != nil {
		p.embedder.Close()
	}
}

func preprocessForDetection(img image.Image, targetW, targetH int) []float32 {
	// YuNet takes raw 0..255 pixel values.
	return imageToFloat32CHW(img, targetW, targetH, [3]float32{0, 0, 0}, [3]float32{1, 1, 1})
}

func preprocessForEmbedding(img image.Image, targetW, targetH int) []float32 {
	return imageToFloat32CHW(img, targetW, targetH, [3]float32{127.5, 127.5, 127.5}, [3]float32{127.5, 127.5, 127.5})
}
