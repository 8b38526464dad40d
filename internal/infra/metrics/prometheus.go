package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	JobsProcessedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "stopmotion_jobs_processed_total",
		Help: "Total number of jobs processed, by operation and status",
	}, []string{"operation", "status"})

	JobStageDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "stopmotion_job_stage_duration_seconds",
		Help:    "Duration of re-timing pipeline stages",
		Buckets: []float64{0.5, 1, 5, 10, 30, 60, 120, 300, 600},
	}, []string{"stage"})

	FramesSampledTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "stopmotion_frames_sampled_total",
		Help: "Total number of source frames kept by the sampler across all jobs",
	})

	FramesEmittedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "stopmotion_frames_emitted_total",
		Help: "Total number of frames written to output streams across all jobs",
	})

	ThumbnailsGeneratedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "stopmotion_thumbnails_generated_total",
		Help: "Total number of timeline thumbnails generated",
	})

	ActiveWorkers = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "stopmotion_active_workers",
		Help: "Number of currently active workers processing jobs",
	})

	RetryTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "stopmotion_retry_total",
		Help: "Total number of retries",
	}, []string{"attempt"})
)
