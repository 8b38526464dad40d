package port

import "context"

// FailureNotifier tells the uploader their re-timing job will not complete.
// Fired only on permanent failures, never on retryable ones.
type FailureNotifier interface {
	NotifyFailure(ctx context.Context, userEmail string, jobID string, videoKey string, errorMsg string) error
}
