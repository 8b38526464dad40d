package port

import (
	"context"
	"io"
)

// VideoStorage moves source videos, rendered outputs and timeline documents
// between object storage and the worker's scratch directory.
type VideoStorage interface {
	DownloadVideo(ctx context.Context, objectKey string, destPath string) error
	UploadVideo(ctx context.Context, objectKey string, reader io.Reader, size int64) error
	UploadTimeline(ctx context.Context, objectKey string, data []byte) error
	DownloadTimeline(ctx context.Context, objectKey string) ([]byte, error)
}
