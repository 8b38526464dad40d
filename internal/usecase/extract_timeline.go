package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/watusiii/tool-stopmotion/internal/domain/entity"
	"github.com/watusiii/tool-stopmotion/internal/domain/port"
	"github.com/watusiii/tool-stopmotion/internal/infra/metrics"
	"github.com/watusiii/tool-stopmotion/internal/retime"
)

// ExtractTimelineUseCase samples a source video into an editable timeline
// document plus per-frame thumbnails, and uploads both for the editor UI.
type ExtractTimelineUseCase struct {
	flow        jobFlow
	storage     port.VideoStorage
	codec       port.VideoCodec
	thumbnailer *retime.Thumbnailer
	logger      *zap.Logger
	cfg         RetimeConfig
}

// thumbnailEntry pairs a kept frame with its inline JPEG preview.
type thumbnailEntry struct {
	Index     int    `json:"index"`
	Thumbnail string `json:"thumbnail"`
}

type thumbnailDocument struct {
	Version string           `json:"version"`
	Frames  []thumbnailEntry `json:"frames"`
}

func NewExtractTimelineUseCase(
	repo port.JobRepository,
	storage port.VideoStorage,
	codec port.VideoCodec,
	thumbnailer *retime.Thumbnailer,
	publisher port.StatusPublisher,
	dlq port.DLQPublisher,
	notifier port.FailureNotifier,
	logger *zap.Logger,
	cfg RetimeConfig,
) *ExtractTimelineUseCase {
	return &ExtractTimelineUseCase{
		flow: jobFlow{
			repo:      repo,
			publisher: publisher,
			dlq:       dlq,
			notifier:  notifier,
			logger:    logger,
		},
		storage:     storage,
		codec:       codec,
		thumbnailer: thumbnailer,
		logger:      logger,
		cfg:         cfg,
	}
}

func (uc *ExtractTimelineUseCase) Execute(ctx context.Context, msg entity.RetimeRequestMessage, rawMsg []byte) error {
	tracer := otel.Tracer("usecase")
	ctx, span := tracer.Start(ctx, "ExtractTimelineUseCase.Execute")
	defer span.End()

	totalTimer := time.Now()

	span.SetAttributes(
		attribute.String("job.id", msg.JobID.String()),
		attribute.String("job.video_key", msg.VideoKey),
	)

	log := uc.logger.With(zap.String("job_id", msg.JobID.String()), zap.String("video_key", msg.VideoKey))

	factor := msg.ReductionFactor
	if msg.Preset != "" {
		f, err := retime.PresetFactor(msg.Preset)
		if err != nil {
			log.Error("invalid preset", zap.Error(err))
			job, jerr := uc.flow.findOrCreateJob(ctx, msg, entity.OperationExtractTimeline, 0, uc.cfg.MaxRetries)
			if jerr != nil {
				return jerr
			}
			return uc.flow.permanentFailure(ctx, job, msg, rawMsg, "resolve_factor: "+err.Error())
		}
		factor = f
	}
	if factor == 0 {
		factor = uc.cfg.DefaultReductionFactor
	}

	job, err := uc.flow.findOrCreateJob(ctx, msg, entity.OperationExtractTimeline, factor, uc.cfg.MaxRetries)
	if err != nil {
		log.Error("failed to create job record", zap.Error(err))
		return err
	}

	if !job.CanRetry() {
		log.Warn("job exhausted retries, sending to DLQ")
		_ = uc.flow.permanentFailure(ctx, job, msg, rawMsg, "max retries exceeded")
		return nil
	}

	job.MarkProcessing()
	if err := uc.flow.repo.Update(ctx, job); err != nil {
		log.Error("failed to update job to PROCESSING", zap.Error(err))
		return fmt.Errorf("update job: %w", err)
	}

	metrics.ActiveWorkers.Inc()
	defer metrics.ActiveWorkers.Dec()

	if err := uc.extractPipeline(ctx, job, msg, rawMsg, factor, log); err != nil {
		return err
	}

	metrics.JobsProcessedTotal.WithLabelValues(string(entity.OperationExtractTimeline), "completed").Inc()
	metrics.JobStageDuration.WithLabelValues("total").Observe(time.Since(totalTimer).Seconds())

	return nil
}

func (uc *ExtractTimelineUseCase) extractPipeline(
	ctx context.Context,
	job *entity.Job,
	msg entity.RetimeRequestMessage,
	rawMsg []byte,
	factor int,
	log *zap.Logger,
) error {
	tracer := otel.Tracer("usecase")

	sampler, err := retime.NewSampler(factor)
	if err != nil {
		return uc.flow.fail(ctx, job, msg, rawMsg, "resolve_factor", err, log)
	}

	workDir := filepath.Join(uc.cfg.TempDir, job.ID.String())
	if err := os.MkdirAll(workDir, 0755); err != nil {
		return fmt.Errorf("create workdir: %w", err)
	}
	defer os.RemoveAll(workDir)

	// Download video from MinIO
	dlStart := time.Now()
	ctx2, spanDl := tracer.Start(ctx, "download_video")
	videoPath := filepath.Join(workDir, "input.mp4")
	if err := uc.storage.DownloadVideo(ctx2, msg.VideoKey, videoPath); err != nil {
		spanDl.End()
		log.Error("failed to download video", zap.Error(err))
		return uc.flow.fail(ctx, job, msg, rawMsg, "download_video", err, log)
	}
	spanDl.End()
	metrics.JobStageDuration.WithLabelValues("download").Observe(time.Since(dlStart).Seconds())

	// Sample kept frames and render thumbnails in one decode pass
	sampleStart := time.Now()
	ctx3, spanSample := tracer.Start(ctx, "sample_frames")
	src, err := uc.codec.OpenSource(ctx3, videoPath)
	if err != nil {
		spanSample.End()
		log.Error("failed to open source video", zap.Error(err))
		return uc.flow.fail(ctx, job, msg, rawMsg, "open_source", err, log)
	}
	defer src.Close()

	meta := src.Metadata()
	samples := make([]retime.SampledFrame, 0, sampler.KeptCount(meta.FrameCount))
	thumbs := make([]thumbnailEntry, 0, cap(samples))

	it := sampler.Sample(src)
	for {
		sample, frame, err := it.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			spanSample.End()
			log.Error("decode failed mid-stream", zap.Error(err))
			return uc.flow.fail(ctx, job, msg, rawMsg, "sample_frames", err, log)
		}
		samples = append(samples, sample)

		uri, err := uc.thumbnailer.DataURI(frame)
		if err != nil {
			spanSample.End()
			return uc.flow.fail(ctx, job, msg, rawMsg, "thumbnail", err, log)
		}
		thumbs = append(thumbs, thumbnailEntry{Index: sample.Index, Thumbnail: uri})
	}
	spanSample.End()
	metrics.JobStageDuration.WithLabelValues("sample").Observe(time.Since(sampleStart).Seconds())
	metrics.FramesSampledTotal.Add(float64(len(samples)))
	metrics.ThumbnailsGeneratedTotal.Add(float64(len(thumbs)))

	entries, err := retime.BuildTimeline(samples, factor)
	if err != nil {
		log.Error("failed to build timeline", zap.Error(err))
		return uc.flow.fail(ctx, job, msg, rawMsg, "build_timeline", err, log)
	}
	timelineData, err := retime.EncodeTimeline(entries)
	if err != nil {
		return uc.flow.fail(ctx, job, msg, rawMsg, "encode_timeline", err, log)
	}
	thumbData, err := json.MarshalIndent(thumbnailDocument{Version: retime.TimelineVersion, Frames: thumbs}, "", "  ")
	if err != nil {
		return uc.flow.fail(ctx, job, msg, rawMsg, "encode_thumbnails", err, log)
	}

	// Upload both documents to MinIO
	upStart := time.Now()
	ctx4, spanUp := tracer.Start(ctx, "upload_timeline")
	timelineKey := fmt.Sprintf("%s/timeline_%s.json", msg.UserID, job.ID.String())
	if err := uc.storage.UploadTimeline(ctx4, timelineKey, timelineData); err != nil {
		spanUp.End()
		log.Error("timeline upload failed", zap.Error(err))
		return uc.flow.fail(ctx, job, msg, rawMsg, "upload_timeline", err, log)
	}
	thumbsKey := fmt.Sprintf("%s/thumbnails_%s.json", msg.UserID, job.ID.String())
	if err := uc.storage.UploadTimeline(ctx4, thumbsKey, thumbData); err != nil {
		spanUp.End()
		log.Error("thumbnail upload failed", zap.Error(err))
		return uc.flow.fail(ctx, job, msg, rawMsg, "upload_thumbnails", err, log)
	}
	spanUp.End()
	metrics.JobStageDuration.WithLabelValues("upload").Observe(time.Since(upStart).Seconds())

	job.MarkCompleted("", timelineKey, entity.RenderStats{
		InputFrames: meta.FrameCount,
		KeptFrames:  len(entries),
	})
	if err := uc.flow.repo.Update(ctx, job); err != nil {
		log.Error("failed to update job to COMPLETED", zap.Error(err))
		return fmt.Errorf("update job completed: %w", err)
	}

	uc.flow.publishStatus(ctx, job, log)

	log.Info("timeline extracted",
		zap.Int("input_frames", meta.FrameCount),
		zap.Int("kept_frames", len(entries)),
		zap.String("timeline_key", timelineKey),
		zap.String("thumbnails_key", thumbsKey),
	)

	return nil
}
