package entity

import "github.com/google/uuid"

// RetimeRequestMessage is the inbound message from the video.retime queue.
// ReductionFactor is ignored when Preset is set; TimelineKey points at a
// saved timeline configuration to render instead of the default sampling.
type RetimeRequestMessage struct {
	JobID           uuid.UUID `json:"job_id"`
	UserID          string    `json:"user_id"`
	VideoKey        string    `json:"video_key"`
	Operation       Operation `json:"operation"`
	Method          string    `json:"method,omitempty"`
	Preset          string    `json:"preset,omitempty"`
	ReductionFactor int       `json:"reduction_factor,omitempty"`
	TimelineKey     string    `json:"timeline_key,omitempty"`
	FileSize        int64     `json:"file_size"`
	UserEmail       string    `json:"user_email,omitempty"`
}

// RetimeStatusMessage is the outbound message published to the status queue.
type RetimeStatusMessage struct {
	JobID          uuid.UUID `json:"job_id"`
	UserID         string    `json:"user_id"`
	Status         JobStatus `json:"status"`
	Operation      Operation `json:"operation"`
	VideoKey       string    `json:"video_key"`
	OutputKey      string    `json:"output_key,omitempty"`
	TimelineKey    string    `json:"timeline_key,omitempty"`
	InputFrames    int       `json:"input_frames,omitempty"`
	KeptFrames     int       `json:"kept_frames,omitempty"`
	OutputFrames   int       `json:"output_frames,omitempty"`
	OutputFPS      float64   `json:"output_fps,omitempty"`
	EffectiveFPS   float64   `json:"effective_fps,omitempty"`
	OutputDuration float64   `json:"output_duration_seconds,omitempty"`
	ErrorMessage   string    `json:"error_message,omitempty"`
	Attempt        int       `json:"attempt"`
	MaxAttempts    int       `json:"max_attempts"`
}
