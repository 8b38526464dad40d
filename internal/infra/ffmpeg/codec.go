package ffmpeg

import (
	"context"

	"go.uber.org/zap"

	"github.com/watusiii/tool-stopmotion/internal/retime"
)

// Codec bundles probe, decode and encode into the port the use cases consume.
type Codec struct {
	logger *zap.Logger
}

func NewCodec(logger *zap.Logger) *Codec {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Codec{logger: logger}
}

func (c *Codec) Probe(ctx context.Context, path string) (retime.Metadata, error) {
	return Probe(ctx, path)
}

// OpenSource probes path and opens a frame cursor over it.
func (c *Codec) OpenSource(ctx context.Context, path string) (retime.FrameSource, error) {
	meta, err := Probe(ctx, path)
	if err != nil {
		return nil, err
	}
	return NewDecoder(ctx, path, meta, c.logger)
}

// CreateSink opens an output stream at path with the input's dimensions and
// the given container frame rate.
func (c *Codec) CreateSink(ctx context.Context, path string, meta retime.Metadata, frameRate float64) (retime.FrameSink, error) {
	return NewEncoder(ctx, path, meta, frameRate)
}
