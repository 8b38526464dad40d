package port

import (
	"context"

	"github.com/watusiii/tool-stopmotion/internal/retime"
)

// VideoCodec opens decode and encode streams over local video files. Each
// returned handle is owned by a single render; callers release handles on all
// exit paths.
type VideoCodec interface {
	Probe(ctx context.Context, path string) (retime.Metadata, error)
	OpenSource(ctx context.Context, path string) (retime.FrameSource, error)
	CreateSink(ctx context.Context, path string, meta retime.Metadata, frameRate float64) (retime.FrameSink, error)
}
