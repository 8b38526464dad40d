package retime

import (
	"errors"
	"fmt"
	"io"
)

// Sampler selects every Nth frame of a source stream, the classic
// "shooting on twos/threes/fours" reduction.
type Sampler struct {
	factor int
}

func NewSampler(reductionFactor int) (*Sampler, error) {
	if reductionFactor < 1 {
		return nil, fmt.Errorf("%w: reduction factor must be >= 1, got %d", ErrInvalidInput, reductionFactor)
	}
	return &Sampler{factor: reductionFactor}, nil
}

func (s *Sampler) Factor() int { return s.factor }

// KeptCount reports how many frames survive reduction of an n-frame stream:
// ceil(n / factor).
func (s *Sampler) KeptCount(n int) int {
	if n <= 0 {
		return 0
	}
	return (n + s.factor - 1) / s.factor
}

// Sample returns a single-pass iterator over the kept frames of src. The
// iterator takes over the source cursor; it is not restartable because
// decoding is assumed sequential-only.
func (s *Sampler) Sample(src FrameSource) *SampleIterator {
	return &SampleIterator{src: src, factor: s.factor}
}

// SampleIterator walks a source stream once, yielding each frame whose source
// index is a multiple of the reduction factor.
type SampleIterator struct {
	src    FrameSource
	factor int
	kept   int
	done   bool
}

// Next returns the next kept frame with its timing metadata, or io.EOF once
// the stream is exhausted. A mid-stream read failure wraps ErrDecode and ends
// the iteration.
func (it *SampleIterator) Next() (SampledFrame, *Frame, error) {
	if it.done {
		return SampledFrame{}, nil, io.EOF
	}
	for {
		frame, err := it.src.Next()
		if errors.Is(err, io.EOF) {
			it.done = true
			return SampledFrame{}, nil, io.EOF
		}
		if err != nil {
			it.done = true
			return SampledFrame{}, nil, fmt.Errorf("%w: read source frame: %v", ErrDecode, err)
		}
		if frame.Index%it.factor != 0 {
			continue
		}

		sf := SampledFrame{
			Index:       it.kept,
			SourceIndex: frame.Index,
		}
		if fps := it.src.Metadata().FPS; fps > 0 {
			sf.Timestamp = float64(frame.Index) / fps
		}
		it.kept++
		return sf, frame, nil
	}
}

// Kept reports how many frames the iterator has yielded so far.
func (it *SampleIterator) Kept() int { return it.kept }
