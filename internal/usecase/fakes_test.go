package usecase

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/google/uuid"

	"github.com/watusiii/tool-stopmotion/internal/domain/entity"
	"github.com/watusiii/tool-stopmotion/internal/retime"
)

// fakeSource synthesizes a decode stream: every frame is blank except the
// first pixel, whose red channel carries the frame index.
type fakeSource struct {
	meta   retime.Metadata
	cursor int
}

func (s *fakeSource) Metadata() retime.Metadata { return s.meta }

func (s *fakeSource) Next() (*retime.Frame, error) {
	if s.cursor >= s.meta.FrameCount {
		return nil, io.EOF
	}
	f := &retime.Frame{
		Index:  s.cursor,
		Width:  s.meta.Width,
		Height: s.meta.Height,
		Pix:    make([]byte, s.meta.Width*s.meta.Height*4),
	}
	f.Pix[0] = byte(s.cursor)
	for i := 3; i < len(f.Pix); i += 4 {
		f.Pix[i] = 0xFF
	}
	s.cursor++
	return f, nil
}

func (s *fakeSource) Seek(index int) error {
	if index < 0 {
		return fmt.Errorf("negative index %d", index)
	}
	s.cursor = index
	return nil
}

func (s *fakeSource) Close() error { return nil }

// fakeSink writes raw frames to the output path so the upload stage has a
// real file to read back.
type fakeSink struct {
	file      *os.File
	frameSize int
	frames    int
}

func (k *fakeSink) WriteFrame(pix []byte) error {
	if len(pix) != k.frameSize {
		return fmt.Errorf("frame size %d, want %d", len(pix), k.frameSize)
	}
	if _, err := k.file.Write(pix); err != nil {
		return err
	}
	k.frames++
	return nil
}

func (k *fakeSink) Close() error { return k.file.Close() }

type fakeCodec struct {
	meta     retime.Metadata
	openErr  error
	lastRate float64
}

func (c *fakeCodec) Probe(ctx context.Context, path string) (retime.Metadata, error) {
	return c.meta, nil
}

func (c *fakeCodec) OpenSource(ctx context.Context, path string) (retime.FrameSource, error) {
	if c.openErr != nil {
		return nil, c.openErr
	}
	return &fakeSource{meta: c.meta}, nil
}

func (c *fakeCodec) CreateSink(ctx context.Context, path string, meta retime.Metadata, frameRate float64) (retime.FrameSink, error) {
	c.lastRate = frameRate
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	return &fakeSink{file: f, frameSize: meta.Width * meta.Height * 4}, nil
}

type fakeRepo struct {
	mu   sync.Mutex
	jobs map[uuid.UUID]*entity.Job
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{jobs: map[uuid.UUID]*entity.Job{}}
}

func (r *fakeRepo) Create(ctx context.Context, job *entity.Job) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *job
	r.jobs[job.ID] = &cp
	return nil
}

func (r *fakeRepo) Update(ctx context.Context, job *entity.Job) error {
	return r.Create(ctx, job)
}

func (r *fakeRepo) FindByID(ctx context.Context, id uuid.UUID) (*entity.Job, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	job, ok := r.jobs[id]
	if !ok {
		return nil, errors.New("job not found")
	}
	cp := *job
	return &cp, nil
}

type fakeStorage struct {
	videos    map[string][]byte
	timelines map[string][]byte
	uploaded  map[string][]byte
}

func newFakeStorage() *fakeStorage {
	return &fakeStorage{
		videos:    map[string][]byte{},
		timelines: map[string][]byte{},
		uploaded:  map[string][]byte{},
	}
}

func (s *fakeStorage) DownloadVideo(ctx context.Context, objectKey string, destPath string) error {
	content, ok := s.videos[objectKey]
	if !ok {
		return fmt.Errorf("object %s does not exist", objectKey)
	}
	return os.WriteFile(destPath, content, 0644)
}

func (s *fakeStorage) UploadVideo(ctx context.Context, objectKey string, reader io.Reader, size int64) error {
	data, err := io.ReadAll(reader)
	if err != nil {
		return err
	}
	s.uploaded[objectKey] = data
	return nil
}

func (s *fakeStorage) UploadTimeline(ctx context.Context, objectKey string, data []byte) error {
	s.timelines[objectKey] = data
	return nil
}

func (s *fakeStorage) DownloadTimeline(ctx context.Context, objectKey string) ([]byte, error) {
	data, ok := s.timelines[objectKey]
	if !ok {
		return nil, fmt.Errorf("object %s does not exist", objectKey)
	}
	return data, nil
}

type fakePublisher struct {
	mu   sync.Mutex
	msgs [][]byte
}

func (p *fakePublisher) PublishStatus(ctx context.Context, msg []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.msgs = append(p.msgs, msg)
	return nil
}

func (p *fakePublisher) last() []byte {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.msgs) == 0 {
		return nil
	}
	return p.msgs[len(p.msgs)-1]
}

type fakeDLQ struct {
	mu      sync.Mutex
	msgs    [][]byte
	reasons []string
}

func (d *fakeDLQ) PublishToDLQ(ctx context.Context, msg []byte, reason string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.msgs = append(d.msgs, msg)
	d.reasons = append(d.reasons, reason)
	return nil
}

type fakeNotifier struct {
	mu    sync.Mutex
	calls int
}

func (n *fakeNotifier) NotifyFailure(ctx context.Context, userEmail, jobID, videoKey, errorMsg string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.calls++
	return nil
}
