package vision

import "github.com/your-org/faceguard/internal/models"

// Face is one detected face region with its alignment landmarks.
type Face struct {
	BBox      models.BBox   // x, y, w, h in original image pixels
	Landmarks [5][2]float32 // eyes, nose tip, mouth corners
	Score     float32       // raw detector confidence
	Quality   float32       // Score weighted up for larger faces in frame
}

// QualityScore weights detector confidence by how much of the frame the
// face occupies, so close-up faces outrank small background ones with the
// same raw confidence.
func QualityScore(score float32, bbox models.BBox, imageW, imageH int) float32 {
	imageArea := imageW * imageH
	if imageArea <= 0 {
		return score
	}
	sizeRatio := float32(bbox.Area()) / float32(imageArea)
	return score * (1 + sizeRatio*10)
}
