package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"go.uber.org/zap"

	"github.com/watusiii/tool-stopmotion/internal/domain/entity"
	"github.com/watusiii/tool-stopmotion/internal/domain/port"
	"github.com/watusiii/tool-stopmotion/internal/infra/metrics"
	"github.com/watusiii/tool-stopmotion/internal/retime"
)

// jobFlow is the shared bookkeeping around a job: status publication, retry
// accounting and the dead-letter path. Both use cases embed it.
type jobFlow struct {
	repo      port.JobRepository
	publisher port.StatusPublisher
	dlq       port.DLQPublisher
	notifier  port.FailureNotifier
	logger    *zap.Logger
}

// fail classifies err and routes it: invalid input and missing resources are
// permanent (no retry can fix the message), everything else follows the
// retry budget.
func (f *jobFlow) fail(ctx context.Context, job *entity.Job, msg entity.RetimeRequestMessage, rawMsg []byte, stage string, err error, log *zap.Logger) error {
	errMsg := stage + ": " + err.Error()
	if errors.Is(err, retime.ErrInvalidInput) || errors.Is(err, retime.ErrNotFound) {
		log.Warn("permanent failure, not retrying", zap.String("stage", stage), zap.Error(err))
		return f.permanentFailure(ctx, job, msg, rawMsg, errMsg)
	}
	return f.retryableFailure(ctx, job, msg, rawMsg, errMsg, log)
}

func (f *jobFlow) retryableFailure(ctx context.Context, job *entity.Job, msg entity.RetimeRequestMessage, rawMsg []byte, errMsg string, log *zap.Logger) error {
	job.MarkFailed(errMsg)
	_ = f.repo.Update(ctx, job)

	if !job.CanRetry() {
		return f.permanentFailure(ctx, job, msg, rawMsg, errMsg)
	}

	metrics.RetryTotal.WithLabelValues(strconv.Itoa(job.Attempt)).Inc()
	f.publishStatus(ctx, job, log)

	return fmt.Errorf("retryable failure (attempt %d/%d): %s", job.Attempt, job.MaxAttempts, errMsg)
}

func (f *jobFlow) permanentFailure(ctx context.Context, job *entity.Job, msg entity.RetimeRequestMessage, rawMsg []byte, errMsg string) error {
	job.MarkFailed(errMsg)
	_ = f.repo.Update(ctx, job)

	_ = f.dlq.PublishToDLQ(ctx, rawMsg, errMsg)

	f.publishStatus(ctx, job, f.logger)

	metrics.JobsProcessedTotal.WithLabelValues(string(job.Operation), "dlq").Inc()

	if msg.UserEmail != "" {
		_ = f.notifier.NotifyFailure(ctx, msg.UserEmail, job.ID.String(), msg.VideoKey, errMsg)
	}

	return nil
}

func (f *jobFlow) publishStatus(ctx context.Context, job *entity.Job, log *zap.Logger) {
	statusMsg := entity.RetimeStatusMessage{
		JobID:          job.ID,
		UserID:         job.UserID,
		Status:         job.Status,
		Operation:      job.Operation,
		VideoKey:       job.VideoKey,
		OutputKey:      job.OutputKey,
		TimelineKey:    job.TimelineKey,
		InputFrames:    job.Stats.InputFrames,
		KeptFrames:     job.Stats.KeptFrames,
		OutputFrames:   job.Stats.OutputFrames,
		OutputFPS:      job.Stats.OutputFPS,
		EffectiveFPS:   job.Stats.EffectiveFPS,
		OutputDuration: job.Stats.OutputDuration,
		ErrorMessage:   job.ErrorMessage,
		Attempt:        job.Attempt,
		MaxAttempts:    job.MaxAttempts,
	}
	data, _ := json.Marshal(statusMsg)
	if err := f.publisher.PublishStatus(ctx, data); err != nil {
		log.Error("failed to publish status", zap.Error(err))
	}
}

// findOrCreateJob loads the job record for msg, creating one on first
// delivery.
func (f *jobFlow) findOrCreateJob(ctx context.Context, msg entity.RetimeRequestMessage, op entity.Operation, factor, maxRetry int) (*entity.Job, error) {
	job, err := f.repo.FindByID(ctx, msg.JobID)
	if err == nil {
		return job, nil
	}

	job = entity.NewJob(msg.UserID, msg.VideoKey, op, factor, msg.FileSize, maxRetry)
	job.ID = msg.JobID
	job.Method = msg.Method
	if err := f.repo.Create(ctx, job); err != nil {
		return nil, fmt.Errorf("create job: %w", err)
	}
	return job, nil
}
