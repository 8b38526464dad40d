package usecase

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/watusiii/tool-stopmotion/internal/domain/entity"
	"github.com/watusiii/tool-stopmotion/internal/retime"
)

func newTestDispatcher(t *testing.T) (*Dispatcher, *testEnv) {
	t.Helper()
	meta := retime.Metadata{FPS: 30, FrameCount: 12, Width: 8, Height: 4}
	env := newTestEnv(t, meta, 5)
	return NewDispatcher(env.retimeUC, env.extractUC, env.dlq, zap.NewNop()), env
}

func TestDispatcherMalformedMessage(t *testing.T) {
	d, env := newTestDispatcher(t)

	err := d.Execute(context.Background(), []byte(`{invalid json`))
	require.NoError(t, err, "malformed messages are acked after DLQ")

	require.Len(t, env.dlq.msgs, 1)
	assert.Equal(t, `{invalid json`, string(env.dlq.msgs[0]))
	assert.Contains(t, env.dlq.reasons[0], "unmarshal_error")
}

func TestDispatcherUnknownOperation(t *testing.T) {
	d, env := newTestDispatcher(t)

	msg := retimeMsg("user1/src.mp4")
	msg.Operation = "transcode"

	err := d.Execute(context.Background(), mustMarshal(t, msg))
	require.NoError(t, err)

	require.Len(t, env.dlq.msgs, 1)
	assert.Contains(t, env.dlq.reasons[0], "unknown_operation")
}

func TestDispatcherRoutesRetime(t *testing.T) {
	d, env := newTestDispatcher(t)
	env.storage.videos["user1/src.mp4"] = []byte("fake video bytes")

	msg := retimeMsg("user1/src.mp4")
	msg.ReductionFactor = 3

	err := d.Execute(context.Background(), mustMarshal(t, msg))
	require.NoError(t, err)

	job, err := env.repo.FindByID(context.Background(), msg.JobID)
	require.NoError(t, err)
	assert.Equal(t, entity.OperationRetime, job.Operation)
	assert.Equal(t, entity.JobStatusCompleted, job.Status)
}

func TestDispatcherRoutesExtractTimeline(t *testing.T) {
	d, env := newTestDispatcher(t)
	env.storage.videos["user1/src.mp4"] = []byte("fake video bytes")

	msg := extractMsg("user1/src.mp4")
	msg.ReductionFactor = 3

	err := d.Execute(context.Background(), mustMarshal(t, msg))
	require.NoError(t, err)

	job, err := env.repo.FindByID(context.Background(), msg.JobID)
	require.NoError(t, err)
	assert.Equal(t, entity.OperationExtractTimeline, job.Operation)
	assert.Equal(t, entity.JobStatusCompleted, job.Status)
}
