package usecase

import (
	"context"
	"fmt"
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

// RetimeVideoUseCase renders a re-timed stop-motion cut of a source video
// and uploads the result.
type RetimeVideoUseCase struct {
	flow     jobFlow
	storage  port.VideoStorage
	codec    port.VideoCodec
	renderer *retime.Renderer
	logger   *zap.Logger
	cfg      RetimeConfig
}

type RetimeConfig struct {
	TempDir                string
	MaxRetries             int
	DefaultReductionFactor int
	EnhanceContrast        bool
}

func NewRetimeVideoUseCase(
	repo port.JobRepository,
	storage port.VideoStorage,
	codec port.VideoCodec,
	publisher port.StatusPublisher,
	dlq port.DLQPublisher,
	notifier port.FailureNotifier,
	logger *zap.Logger,
	cfg RetimeConfig,
) *RetimeVideoUseCase {
	return &RetimeVideoUseCase{
		flow: jobFlow{
			repo:      repo,
			publisher: publisher,
			dlq:       dlq,
			notifier:  notifier,
			logger:    logger,
		},
		storage:  storage,
		codec:    codec,
		renderer: retime.NewRenderer(logger),
		logger:   logger,
		cfg:      cfg,
	}
}

func (uc *RetimeVideoUseCase) Execute(ctx context.Context, msg entity.RetimeRequestMessage, rawMsg []byte) error {
	tracer := otel.Tracer("usecase")
	ctx, span := tracer.Start(ctx, "RetimeVideoUseCase.Execute")
	defer span.End()

	totalTimer := time.Now()

	span.SetAttributes(
		attribute.String("job.id", msg.JobID.String()),
		attribute.String("job.video_key", msg.VideoKey),
		attribute.String("job.method", msg.Method),
	)

	log := uc.logger.With(zap.String("job_id", msg.JobID.String()), zap.String("video_key", msg.VideoKey))

	factor, err := uc.resolveFactor(msg)
	if err != nil {
		log.Error("invalid re-timing parameters", zap.Error(err))
		job, jerr := uc.flow.findOrCreateJob(ctx, msg, entity.OperationRetime, 0, uc.cfg.MaxRetries)
		if jerr != nil {
			return jerr
		}
		return uc.flow.permanentFailure(ctx, job, msg, rawMsg, "resolve_factor: "+err.Error())
	}

	job, err := uc.flow.findOrCreateJob(ctx, msg, entity.OperationRetime, factor, uc.cfg.MaxRetries)
	if err != nil {
		log.Error("failed to create job record", zap.Error(err))
		return err
	}
	job.ReductionFactor = factor

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

	if err := uc.retimePipeline(ctx, job, msg, rawMsg, factor, log); err != nil {
		return err
	}

	metrics.JobsProcessedTotal.WithLabelValues(string(entity.OperationRetime), "completed").Inc()
	metrics.JobStageDuration.WithLabelValues("total").Observe(time.Since(totalTimer).Seconds())

	return nil
}

// resolveFactor picks the reduction factor for the request: a named preset
// wins, then an explicit factor, then the worker default.
func (uc *RetimeVideoUseCase) resolveFactor(msg entity.RetimeRequestMessage) (int, error) {
	if msg.Preset != "" {
		return retime.PresetFactor(msg.Preset)
	}
	factor := msg.ReductionFactor
	if factor == 0 {
		factor = uc.cfg.DefaultReductionFactor
	}
	if factor < 1 {
		return 0, fmt.Errorf("%w: reduction factor %d, must be >= 1", retime.ErrInvalidInput, factor)
	}
	return factor, nil
}

func policyForMethod(method string) (retime.RenderPolicy, error) {
	switch method {
	case entity.MethodAuthentic, "":
		return retime.PolicyDurationPreserving, nil
	case entity.MethodClassic:
		return retime.PolicyRateReducing, nil
	default:
		return "", fmt.Errorf("%w: unknown method %q", retime.ErrInvalidInput, method)
	}
}

func (uc *RetimeVideoUseCase) retimePipeline(
	ctx context.Context,
	job *entity.Job,
	msg entity.RetimeRequestMessage,
	rawMsg []byte,
	factor int,
	log *zap.Logger,
) error {
	tracer := otel.Tracer("usecase")

	policy, err := policyForMethod(msg.Method)
	if err != nil {
		log.Error("invalid method", zap.Error(err))
		return uc.flow.fail(ctx, job, msg, rawMsg, "resolve_method", err, log)
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

	// Open the decode stream
	ctx3, spanOpen := tracer.Start(ctx, "open_source")
	src, err := uc.codec.OpenSource(ctx3, videoPath)
	if err != nil {
		spanOpen.End()
		log.Error("failed to open source video", zap.Error(err))
		return uc.flow.fail(ctx, job, msg, rawMsg, "open_source", err, log)
	}
	defer src.Close()
	spanOpen.End()

	meta := src.Metadata()
	log.Info("source opened",
		zap.Float64("fps", meta.FPS),
		zap.Int("frame_count", meta.FrameCount),
		zap.Int("width", meta.Width),
		zap.Int("height", meta.Height),
	)

	holdFrames, err := uc.resolveHoldFrames(ctx, msg, meta, factor)
	if err != nil {
		log.Error("failed to resolve hold frames", zap.Error(err))
		return uc.flow.fail(ctx, job, msg, rawMsg, "resolve_timeline", err, log)
	}

	opts := retime.RenderOptions{
		Policy:          policy,
		ReductionFactor: factor,
		EnhanceContrast: uc.cfg.EnhanceContrast,
	}

	// Render through the encode stream
	renderStart := time.Now()
	ctx4, spanRender := tracer.Start(ctx, "render")
	outputPath := filepath.Join(workDir, "output.mp4")
	sink, err := uc.codec.CreateSink(ctx4, outputPath, meta, opts.OutputRate(meta.FPS))
	if err != nil {
		spanRender.End()
		log.Error("failed to open output stream", zap.Error(err))
		return uc.flow.fail(ctx, job, msg, rawMsg, "create_sink", err, log)
	}

	result, err := uc.renderer.Render(ctx4, src, holdFrames, sink, opts)
	if err != nil {
		_ = sink.Close()
		spanRender.End()
		log.Error("render failed", zap.Error(err))
		return uc.flow.fail(ctx, job, msg, rawMsg, "render", err, log)
	}
	if err := sink.Close(); err != nil {
		spanRender.End()
		log.Error("failed to finalize output stream", zap.Error(err))
		return uc.flow.fail(ctx, job, msg, rawMsg, "close_sink", err, log)
	}
	spanRender.End()
	metrics.JobStageDuration.WithLabelValues("render").Observe(time.Since(renderStart).Seconds())
	metrics.FramesSampledTotal.Add(float64(result.KeptFrameCount))
	metrics.FramesEmittedTotal.Add(float64(result.OutputFrameCount))

	// Upload the rendered cut to MinIO
	upStart := time.Now()
	ctx5, spanUp := tracer.Start(ctx, "upload_video")
	outputKey := fmt.Sprintf("%s/retimed_%s.mp4", msg.UserID, job.ID.String())
	outFile, err := os.Open(outputPath)
	if err != nil {
		spanUp.End()
		return uc.flow.fail(ctx, job, msg, rawMsg, "open_output", err, log)
	}
	outStat, _ := outFile.Stat()
	if err := uc.storage.UploadVideo(ctx5, outputKey, outFile, outStat.Size()); err != nil {
		outFile.Close()
		spanUp.End()
		log.Error("output upload failed", zap.Error(err))
		return uc.flow.fail(ctx, job, msg, rawMsg, "upload_video", err, log)
	}
	outFile.Close()
	spanUp.End()
	metrics.JobStageDuration.WithLabelValues("upload").Observe(time.Since(upStart).Seconds())

	job.MarkCompleted(outputKey, msg.TimelineKey, entity.RenderStats{
		InputFrames:    result.InputFrameCount,
		KeptFrames:     result.KeptFrameCount,
		OutputFrames:   result.OutputFrameCount,
		OutputFPS:      result.OutputFrameRate,
		EffectiveFPS:   result.EffectiveFrameRate,
		OutputDuration: result.OutputDurationSeconds,
	})
	if err := uc.flow.repo.Update(ctx, job); err != nil {
		log.Error("failed to update job to COMPLETED", zap.Error(err))
		return fmt.Errorf("update job completed: %w", err)
	}

	uc.flow.publishStatus(ctx, job, log)

	log.Info("retime completed",
		zap.String("policy", string(result.Policy)),
		zap.Int("kept_frames", result.KeptFrameCount),
		zap.Int("output_frames", result.OutputFrameCount),
		zap.Float64("output_fps", result.OutputFrameRate),
		zap.Float64("effective_fps", result.EffectiveFrameRate),
		zap.Float64("duration_secs", result.OutputDurationSeconds),
		zap.String("output_key", outputKey),
	)

	return nil
}

// resolveHoldFrames loads the saved timeline when the request names one,
// otherwise samples the source uniformly at the reduction factor.
func (uc *RetimeVideoUseCase) resolveHoldFrames(ctx context.Context, msg entity.RetimeRequestMessage, meta retime.Metadata, factor int) ([]retime.HoldFrame, error) {
	if msg.TimelineKey == "" {
		return retime.DefaultHoldFrames(meta.FrameCount, factor), nil
	}

	data, err := uc.storage.DownloadTimeline(ctx, msg.TimelineKey)
	if err != nil {
		return nil, fmt.Errorf("%w: timeline %s: %v", retime.ErrNotFound, msg.TimelineKey, err)
	}
	cfg, err := retime.DecodeTimeline(data)
	if err != nil {
		return nil, err
	}
	frames := retime.ToRenderInput(cfg.Frames)
	if len(frames) == 0 {
		return nil, fmt.Errorf("%w: timeline %s selects no frames", retime.ErrInvalidInput, msg.TimelineKey)
	}
	return frames, nil
}
