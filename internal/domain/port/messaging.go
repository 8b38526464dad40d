package port

import "context"

// StatusPublisher pushes job progress to the status queue so the upload
// service can notify the editor UI.
type StatusPublisher interface {
	PublishStatus(ctx context.Context, msg []byte) error
}

// DLQPublisher parks messages that can never succeed: malformed payloads,
// unknown operations and jobs past their retry budget.
type DLQPublisher interface {
	PublishToDLQ(ctx context.Context, msg []byte, reason string) error
}
