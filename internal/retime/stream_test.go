package retime

import (
	"fmt"
	"io"
)

// memSource is an in-memory FrameSource over synthetically generated frames.
// Frames whose index is in failAt return a read error.
type memSource struct {
	meta   Metadata
	pos    int
	closed bool
	failAt map[int]bool
}

func newMemSource(frameCount int, fps float64) *memSource {
	return &memSource{
		meta: Metadata{FPS: fps, FrameCount: frameCount, Width: 8, Height: 4},
	}
}

func (s *memSource) Metadata() Metadata { return s.meta }

func (s *memSource) Next() (*Frame, error) {
	if s.pos >= s.meta.FrameCount {
		return nil, io.EOF
	}
	idx := s.pos
	s.pos++
	if s.failAt[idx] {
		return nil, fmt.Errorf("corrupt frame %d", idx)
	}
	return testFrame(idx, s.meta.Width, s.meta.Height), nil
}

func (s *memSource) Seek(index int) error {
	if index < 0 {
		return fmt.Errorf("negative seek index %d", index)
	}
	s.pos = index
	return nil
}

func (s *memSource) Close() error {
	s.closed = true
	return nil
}

// testFrame builds a frame whose red channel encodes the source index.
func testFrame(index, w, h int) *Frame {
	pix := make([]byte, w*h*4)
	for i := 0; i < len(pix); i += 4 {
		pix[i] = byte(index)
		pix[i+1] = byte(i / 4)
		pix[i+2] = 128
		pix[i+3] = 255
	}
	return &Frame{Index: index, Width: w, Height: h, Pix: pix}
}

// memSink records emitted frames. Setting failAt >= 0 makes that write fail.
type memSink struct {
	frames [][]byte
	failAt int
	closed bool
}

func newMemSink() *memSink { return &memSink{failAt: -1} }

func (s *memSink) WriteFrame(pix []byte) error {
	if s.failAt >= 0 && len(s.frames) == s.failAt {
		return fmt.Errorf("output stream unwritable")
	}
	cp := make([]byte, len(pix))
	copy(cp, pix)
	s.frames = append(s.frames, cp)
	return nil
}

func (s *memSink) Close() error {
	s.closed = true
	return nil
}
