// Package retime is the stop-motion re-timing engine. It decides which source
// frames survive a reduction factor, how long each kept frame is held in the
// output stream, and how the output duration reconciles with the requested
// frame-rate semantics. Codec work is delegated to FrameSource/FrameSink
// implementations.
package retime

// Metadata describes a source video stream. It is derived once per source and
// never mutated afterwards.
type Metadata struct {
	FPS        float64
	FrameCount int
	Width      int
	Height     int
}

// Duration returns the stream length in seconds. An empty or unreadable
// stream (fps <= 0) reports zero rather than dividing by zero.
func (m Metadata) Duration() float64 {
	if m.FPS <= 0 {
		return 0
	}
	return float64(m.FrameCount) / m.FPS
}

// Frame is a single decoded frame, RGBA order, 4 bytes per pixel.
type Frame struct {
	Index  int
	Width  int
	Height int
	Pix    []byte
}

// SampledFrame identifies a kept frame without carrying its pixel data.
// Index is the position in the kept sequence, SourceIndex the position in the
// original stream.
type SampledFrame struct {
	Index       int     `json:"index"`
	SourceIndex int     `json:"original_frame"`
	Timestamp   float64 `json:"timestamp"`
}

// FrameSource is a positional cursor over a decoded frame stream. The cursor
// is stateful: Next advances it and Seek repositions it. A source must not be
// shared; concurrent renders need independent handles.
type FrameSource interface {
	Metadata() Metadata
	// Next returns the frame at the cursor and advances it. io.EOF signals
	// the end of the stream.
	Next() (*Frame, error)
	// Seek repositions the cursor so the next read returns the frame at
	// index. Implementations may restart the underlying decode for
	// backward seeks.
	Seek(index int) error
	Close() error
}

// FrameSink receives rendered frames in emission order.
type FrameSink interface {
	WriteFrame(pix []byte) error
	Close() error
}
