package hw

import (
	"image"
	"image/png"
	"os"
)

// FrameImage wraps an RGBA frame buffer of w x h pixels, without copying.
func FrameImage(video []byte, w, h int) *image.RGBA {
	return &image.RGBA{
		Pix:    video,
		Stride: 4 * w,
		Rect: image.Rectangle{
			Max: image.Point{X: w, Y: h},
		},
	}
}

// Screenshot returns a copy of the last complete frame.
func (s *Spectrum) Screenshot() *image.RGBA {
	w, h := s.ScreenSize()
	return FrameImage(append([]byte(nil), s.ScreenBuffer()...), w, h)
}

// SaveAsPNG writes img as a PNG file at path.
func SaveAsPNG(img image.Image, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
