package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/watusiii/tool-stopmotion/internal/domain/entity"
)

type JobRepository struct {
	pool *pgxpool.Pool
}

func NewJobRepository(pool *pgxpool.Pool) *JobRepository {
	return &JobRepository{pool: pool}
}

func (r *JobRepository) Create(ctx context.Context, job *entity.Job) error {
	query := `
		INSERT INTO retime_jobs (
			id, user_id, video_key, output_key, timeline_key, operation,
			method, status, reduction_factor, input_frames, kept_frames,
			output_frames, output_fps, effective_fps, output_duration,
			file_size, attempt, max_attempts, error_message,
			created_at, updated_at, completed_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21,$22)`

	_, err := r.pool.Exec(ctx, query,
		job.ID, job.UserID, job.VideoKey, job.OutputKey, job.TimelineKey,
		string(job.Operation), job.Method, string(job.Status), job.ReductionFactor,
		job.Stats.InputFrames, job.Stats.KeptFrames, job.Stats.OutputFrames,
		job.Stats.OutputFPS, job.Stats.EffectiveFPS, job.Stats.OutputDuration,
		job.FileSize, job.Attempt, job.MaxAttempts, job.ErrorMessage,
		job.CreatedAt, job.UpdatedAt, job.CompletedAt,
	)
	if err != nil {
		return fmt.Errorf("insert job: %w", err)
	}
	return nil
}

func (r *JobRepository) Update(ctx context.Context, job *entity.Job) error {
	query := `
		UPDATE retime_jobs SET
			status=$2, output_key=$3, timeline_key=$4, input_frames=$5,
			kept_frames=$6, output_frames=$7, output_fps=$8, effective_fps=$9,
			output_duration=$10, attempt=$11, error_message=$12,
			updated_at=$13, completed_at=$14
		WHERE id=$1`

	_, err := r.pool.Exec(ctx, query,
		job.ID, string(job.Status), job.OutputKey, job.TimelineKey,
		job.Stats.InputFrames, job.Stats.KeptFrames, job.Stats.OutputFrames,
		job.Stats.OutputFPS, job.Stats.EffectiveFPS, job.Stats.OutputDuration,
		job.Attempt, job.ErrorMessage, job.UpdatedAt, job.CompletedAt,
	)
	if err != nil {
		return fmt.Errorf("update job: %w", err)
	}
	return nil
}

func (r *JobRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Job, error) {
	query := `
		SELECT id, user_id, video_key, output_key, timeline_key, operation,
			method, status, reduction_factor, input_frames, kept_frames,
			output_frames, output_fps, effective_fps, output_duration,
			file_size, attempt, max_attempts, error_message,
			created_at, updated_at, completed_at
		FROM retime_jobs WHERE id=$1`

	job := &entity.Job{}
	var operation, status string
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&job.ID, &job.UserID, &job.VideoKey, &job.OutputKey, &job.TimelineKey,
		&operation, &job.Method, &status, &job.ReductionFactor,
		&job.Stats.InputFrames, &job.Stats.KeptFrames, &job.Stats.OutputFrames,
		&job.Stats.OutputFPS, &job.Stats.EffectiveFPS, &job.Stats.OutputDuration,
		&job.FileSize, &job.Attempt, &job.MaxAttempts, &job.ErrorMessage,
		&job.CreatedAt, &job.UpdatedAt, &job.CompletedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("find job by id: %w", err)
	}
	job.Operation = entity.Operation(operation)
	job.Status = entity.JobStatus(status)
	return job, nil
}
