package entity

import (
	"time"

	"github.com/google/uuid"
)

type JobStatus string

const (
	JobStatusPending    JobStatus = "PENDING"
	JobStatusProcessing JobStatus = "PROCESSING"
	JobStatusCompleted  JobStatus = "COMPLETED"
	JobStatusFailed     JobStatus = "FAILED"
)

// Operation names the kinds of work the worker performs on a source video.
type Operation string

const (
	// OperationRetime renders a re-timed stop-motion cut of the video.
	OperationRetime Operation = "retime"
	// OperationExtractTimeline samples the video into an editable timeline
	// with thumbnails for the editor UI.
	OperationExtractTimeline Operation = "extract_timeline"
)

// Method selects the re-timing semantics for OperationRetime.
const (
	// MethodAuthentic holds each kept frame so the output runtime matches
	// the source.
	MethodAuthentic = "authentic"
	// MethodClassic emits each kept frame once at a reduced container rate.
	MethodClassic = "classic"
)

// RenderStats is the per-job outcome of a render pass.
type RenderStats struct {
	InputFrames    int
	KeptFrames     int
	OutputFrames   int
	OutputFPS      float64
	EffectiveFPS   float64
	OutputDuration float64
}

type Job struct {
	ID              uuid.UUID
	UserID          string
	VideoKey        string
	OutputKey       string
	TimelineKey     string
	Operation       Operation
	Method          string
	Status          JobStatus
	ReductionFactor int
	Stats           RenderStats
	FileSize        int64
	Attempt         int
	MaxAttempts     int
	ErrorMessage    string
	CreatedAt       time.Time
	UpdatedAt       time.Time
	CompletedAt     *time.Time
}

func NewJob(userID, videoKey string, op Operation, reductionFactor int, fileSize int64, maxAttempts int) *Job {
	now := time.Now().UTC()
	return &Job{
		ID:              uuid.New(),
		UserID:          userID,
		VideoKey:        videoKey,
		Operation:       op,
		ReductionFactor: reductionFactor,
		FileSize:        fileSize,
		Status:          JobStatusPending,
		Attempt:         0,
		MaxAttempts:     maxAttempts,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

func (j *Job) MarkProcessing() {
	j.Status = JobStatusProcessing
	j.Attempt++
	j.UpdatedAt = time.Now().UTC()
}

func (j *Job) MarkCompleted(outputKey, timelineKey string, stats RenderStats) {
	now := time.Now().UTC()
	j.Status = JobStatusCompleted
	j.OutputKey = outputKey
	j.TimelineKey = timelineKey
	j.Stats = stats
	j.UpdatedAt = now
	j.CompletedAt = &now
}

func (j *Job) MarkFailed(errMsg string) {
	j.Status = JobStatusFailed
	j.ErrorMessage = errMsg
	j.UpdatedAt = time.Now().UTC()
}

func (j *Job) CanRetry() bool {
	return j.Attempt < j.MaxAttempts
}
