package vision

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"

	"github.com/your-org/faceguard/internal/models"
)

// decodeImage decodes JPEG directly, falling back to the generic decoder
// for other registered formats.
func decodeImage(data []byte) (image.Image, error) {
	img, err := jpeg.Decode(bytes.NewReader(data))
	if err != nil {
		img, _, err = image.Decode(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("decode image: %w", err)
		}
	}
	return img, nil
}

// imageToFloat32CHW converts an image to CHW float32 format with
// normalization:
//
//	pixel = (pixel - mean) / std
func imageToFloat32CHW(img image.Image, targetW, targetH int, mean, std [3]float32) []float32 {
	resized := resizeImage(img, targetW, targetH)
	bounds := resized.Bounds()
	w := bounds.Dx()
	h := bounds.Dy()

	data := make([]float32, 3*h*w)

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			r, g, b, _ := resized.At(x+bounds.Min.X, y+bounds.Min.Y).RGBA()

			rf := float32(r >> 8)
			gf := float32(g >> 8)
			bf := float32(b >> 8)

			// CHW layout: [C][H][W]
			idx := y*w + x
			data[0*h*w+idx] = (rf - mean[0]) / std[0]
			data[1*h*w+idx] = (gf - mean[1]) / std[1]
			data[2*h*w+idx] = (bf - mean[2]) / std[2]
		}
	}

	return data
}

// resizeImage performs nearest-neighbour resize (fast, good enough for ML input).
func resizeImage(img image.Image, targetW, targetH int) image.Image {
	bounds := img.Bounds()
	srcW := bounds.Dx()
	srcH := bounds.Dy()
	if srcW == targetW && srcH == targetH {
		return img
	}

	dst := image.NewRGBA(image.Rect(0, 0, targetW, targetH))

	for y := 0; y < targetH; y++ {
		for x := 0; x < targetW; x++ {
			srcX := bounds.Min.X + x*srcW/targetW
			srcY := bounds.Min.Y + y*srcH/targetH
			dst.Set(x, y, img.At(srcX, srcY))
		}
	}

	return dst
}

// cropFace extracts a face region with 20% padding per side, clamped to
// the image. Returns nil when the box degenerates to an empty region.
func cropFace(img image.Image, bbox models.BBox) image.Image {
	bounds := img.Bounds()

	x1 := bbox[0]
	y1 := bbox[1]
	x2 := bbox[0] + bbox[2]
	y2 := bbox[1] + bbox[3]

	padW := bbox[2] / 5
	padH := bbox[3] / 5
	x1 -= padW
	y1 -= padH
	x2 += padW
	y2 += padH

	if x1 < bounds.Min.X {
		x1 = bounds.Min.X
	}
	if y1 < bounds.Min.Y {
		y1 = bounds.Min.Y
	}
	if x2 > bounds.Max.X {
		x2 = bounds.Max.X
	}
	if y2 > bounds.Max.Y {
		y2 = bounds.Max.Y
	}

	if x2-x1 <= 0 || y2-y1 <= 0 {
		return nil
	}

	crop := image.NewRGBA(image.Rect(0, 0, x2-x1, y2-y1))
	for cy := y1; cy < y2; cy++ {
		for cx := x1; cx < x2; cx++ {
			crop.Set(cx-x1, cy-y1, img.At(cx, cy))
		}
	}

	return crop
}

// encodeJPEG encodes an image as JPEG with the given quality.
func encodeJPEG(img image.Image, quality int) []byte {
	var buf bytes.Buffer
	_ = jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality})
	return buf.Bytes()
}
