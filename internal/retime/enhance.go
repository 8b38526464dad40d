package retime

import "math"

// EnhanceContrast stretches each colour channel of f to the full 0-255 range,
// the crisp look applied to kept frames. It is a pure function of the pixel
// content and idempotent: once a channel spans the full range the stretch is
// the identity. The input frame is never mutated.
func EnhanceContrast(f *Frame) *Frame {
	out := &Frame{Index: f.Index, Width: f.Width, Height: f.Height, Pix: make([]byte, len(f.Pix))}
	copy(out.Pix, f.Pix)
	if len(out.Pix) < 4 {
		return out
	}

	for ch := 0; ch < 3; ch++ { // alpha untouched
		lo, hi := uint8(255), uint8(0)
		for i := ch; i < len(out.Pix); i += 4 {
			v := out.Pix[i]
			if v < lo {
				lo = v
			}
			if v > hi {
				hi = v
			}
		}
		if hi <= lo {
			continue // flat channel, nothing to stretch
		}
		scale := 255.0 / float64(hi-lo)
		for i := ch; i < len(out.Pix); i += 4 {
			out.Pix[i] = uint8(math.Round(float64(out.Pix[i]-lo) * scale))
		}
	}
	return out
}
