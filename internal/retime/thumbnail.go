package retime

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/jpeg"

	"golang.org/x/image/draw"
)

const thumbnailJPEGQuality = 85

// Thumbnailer renders small preview images for the timeline editor. Scaling
// is deterministic and preserves the source aspect ratio from the configured
// target width.
type Thumbnailer struct {
	width int
}

func NewThumbnailer(width int) (*Thumbnailer, error) {
	if width < 1 {
		return nil, fmt.Errorf("%w: thumbnail width must be >= 1, got %d", ErrInvalidInput, width)
	}
	return &Thumbnailer{width: width}, nil
}

func (t *Thumbnailer) Width() int { return t.width }

// DataURI encodes f as a base64 JPEG data URI scaled to the configured width.
func (t *Thumbnailer) DataURI(f *Frame) (string, error) {
	if f.Width < 1 || f.Height < 1 || len(f.Pix) != f.Width*f.Height*4 {
		return "", fmt.Errorf("%w: malformed frame %d (%dx%d, %d bytes)",
			ErrInvalidInput, f.Index, f.Width, f.Height, len(f.Pix))
	}

	src := &image.RGBA{
		Pix:    f.Pix,
		Stride: f.Width * 4,
		Rect:   image.Rect(0, 0, f.Width, f.Height),
	}

	height := t.width * f.Height / f.Width
	if height < 1 {
		height = 1
	}
	dst := image.NewRGBA(image.Rect(0, 0, t.width, height))
	draw.ApproxBiLinear.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, dst, &jpeg.Options{Quality: thumbnailJPEGQuality}); err != nil {
		return "", fmt.Errorf("encode thumbnail for frame %d: %w", f.Index, err)
	}
	return "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}
