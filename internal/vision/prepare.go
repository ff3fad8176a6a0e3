package vision

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"

	"golang.org/x/image/draw"
)

// DecodeImage decodes PNG or JPEG bytes.
func DecodeImage(data []byte) (image.Image, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		// image.Decode relies on registered magic numbers; try both explicitly.
		img, err = jpeg.Decode(bytes.NewReader(data))
		if err != nil {
			img, err = png.Decode(bytes.NewReader(data))
			if err != nil {
				return nil, err
			}
		}
	}
	return img, nil
}

// Downscale halves both dimensions of img. Images smaller than 2px on a side
// keep at least one pixel.
func Downscale(img image.Image) *image.RGBA {
	b := img.Bounds()
	w, h := b.Dx()/2, b.Dy()/2
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.ApproxBiLinear.Scale(dst, dst.Bounds(), img, b, draw.Over, nil)
	return dst
}

// PrepareForOCR decodes data, halves it and re-encodes it as PNG for the OCR engine.
func PrepareForOCR(data []byte) ([]byte, error) {
	img, err := DecodeImage(data)
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, Downscale(img)); err != nil {
		return nil, fmt.Errorf("encode image: %w", err)
	}
	return buf.Bytes(), nil
}
