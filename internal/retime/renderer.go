package retime

import (
	"context"
	"errors"
	"fmt"
	"io"

	"go.uber.org/zap"
)

// RenderPolicy selects how hold durations translate into output timing.
type RenderPolicy string

const (
	// PolicyDurationPreserving keeps the source container frame rate and
	// emits each kept frame for its hold duration, so the output runtime
	// matches the source. This is the authentic stop-motion look.
	PolicyDurationPreserving RenderPolicy = "duration_preserving"

	// PolicyRateReducing emits each kept frame exactly once at a container
	// frame rate divided by the reduction factor. This is the compressed
	// fallback method.
	PolicyRateReducing RenderPolicy = "rate_reducing"
)

// HoldFrame is one unit of render input: which source frame to show and how
// many consecutive output frames it occupies.
type HoldFrame struct {
	SourceIndex  int
	HoldDuration int
}

// RenderResult reports what a render emitted. OutputFrameRate is the
// container rate; EffectiveFrameRate is the perceptual rate of distinct
// images per second.
type RenderResult struct {
	Policy                RenderPolicy `json:"policy"`
	InputFrameCount       int          `json:"input_frame_count"`
	KeptFrameCount        int          `json:"kept_frame_count"`
	OutputFrameCount      int          `json:"output_frame_count"`
	OutputFrameRate       float64      `json:"output_frame_rate"`
	EffectiveFrameRate    float64      `json:"effective_frame_rate"`
	OutputDurationSeconds float64      `json:"output_duration_seconds"`
}

// RenderOptions configures a render pass.
type RenderOptions struct {
	Policy          RenderPolicy
	ReductionFactor int
	// EnhanceContrast applies the stop-motion contrast stretch once per
	// distinct frame, before duplication, so every copy of a held frame is
	// byte-identical.
	EnhanceContrast bool
}

// OutputRate returns the container frame rate a render under these options
// produces for the given source rate. Callers use it to open the output
// stream before rendering starts.
func (o RenderOptions) OutputRate(sourceFPS float64) float64 {
	if o.Policy == PolicyRateReducing && o.ReductionFactor > 0 {
		return sourceFPS / float64(o.ReductionFactor)
	}
	return sourceFPS
}

func (o RenderOptions) validate() error {
	if o.ReductionFactor < 1 {
		return fmt.Errorf("%w: reduction factor must be >= 1, got %d", ErrInvalidInput, o.ReductionFactor)
	}
	switch o.Policy {
	case PolicyDurationPreserving, PolicyRateReducing:
		return nil
	default:
		return fmt.Errorf("%w: unknown render policy %q", ErrInvalidInput, o.Policy)
	}
}

// Renderer emits held frames to an output stream. It owns neither the source
// nor the sink; the caller releases both on all exit paths.
type Renderer struct {
	logger *zap.Logger
}

func NewRenderer(logger *zap.Logger) *Renderer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Renderer{logger: logger}
}

// Render reads each input frame from src and writes it to sink, duplicated
// according to the policy. Frames that cannot be decoded (typically an index
// past the end of the stream) are skipped; a sink failure aborts the render
// with ErrEncode. Single pass, no retries.
func (r *Renderer) Render(ctx context.Context, src FrameSource, frames []HoldFrame, sink FrameSink, opts RenderOptions) (*RenderResult, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}
	for _, hf := range frames {
		if hf.HoldDuration < 1 {
			return nil, fmt.Errorf("%w: hold duration for source frame %d must be >= 1, got %d",
				ErrInvalidInput, hf.SourceIndex, hf.HoldDuration)
		}
	}

	meta := src.Metadata()
	outputRate := opts.OutputRate(meta.FPS)

	var kept, emitted int
	for _, hf := range frames {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		frame, err := readFrameAt(src, hf.SourceIndex)
		if err != nil {
			r.logger.Warn("skipping unreadable frame",
				zap.Int("source_index", hf.SourceIndex),
				zap.Error(err),
			)
			continue
		}
		if opts.EnhanceContrast {
			frame = EnhanceContrast(frame)
		}
		kept++

		copies := 1
		if opts.Policy == PolicyDurationPreserving {
			copies = hf.HoldDuration
		}
		for i := 0; i < copies; i++ {
			if err := sink.WriteFrame(frame.Pix); err != nil {
				return nil, fmt.Errorf("%w: write output frame for source %d: %v", ErrEncode, hf.SourceIndex, err)
			}
			emitted++
		}
	}

	res := &RenderResult{
		Policy:           opts.Policy,
		InputFrameCount:  meta.FrameCount,
		KeptFrameCount:   kept,
		OutputFrameCount: emitted,
		OutputFrameRate:  outputRate,
	}
	if outputRate > 0 {
		res.OutputDurationSeconds = float64(emitted) / outputRate
	}
	if opts.Policy == PolicyRateReducing {
		res.EffectiveFrameRate = outputRate
	} else if res.OutputDurationSeconds > 0 {
		res.EffectiveFrameRate = float64(kept) / res.OutputDurationSeconds
	}
	return res, nil
}

func readFrameAt(src FrameSource, index int) (*Frame, error) {
	if index < 0 {
		return nil, fmt.Errorf("%w: negative frame index %d", ErrDecode, index)
	}
	if err := src.Seek(index); err != nil {
		return nil, fmt.Errorf("%w: seek to frame %d: %v", ErrDecode, index, err)
	}
	frame, err := src.Next()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: frame %d is past the end of the stream", ErrDecode, index)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: read frame %d: %v", ErrDecode, index, err)
	}
	return frame, nil
}

// DefaultHoldFrames builds the render input for a plain every-Nth reduction
// of a frameCount-long stream, each kept frame held for the factor.
func DefaultHoldFrames(frameCount, factor int) []HoldFrame {
	if factor < 1 {
		return nil
	}
	var frames []HoldFrame
	for i := 0; i < frameCount; i += factor {
		frames = append(frames, HoldFrame{SourceIndex: i, HoldDuration: factor})
	}
	return frames
}
