package queue

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newQueue(t *testing.T) (*Queue, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	return NewQueue(redis.NewClient(&redis.Options{Addr: mr.Addr()}), nil), mr
}

func TestEnqueueDequeueFrame(t *testing.T) {
	q, _ := newQueue(t)
	ctx := context.Background()
	id := uuid.New()

	require.NoError(t, q.EnqueueFrameArchive(ctx, FrameArchivePayload{AuditID: id, EventID: "7", Username: "alice", Frame: []byte{0xff, 0xd8}}))

	job, err := q.Dequeue(ctx, time.Second)
	require.NoError(t, err)
	require.NotNil(t, job)
	assert.Equal(t, JobTypeFrameArchive, job.Type)

	var p FrameArchivePayload
	require.NoError(t, json.Unmarshal(job.Payload, &p))
	assert.Equal(t, id, p.AuditID)
	assert.Equal(t, []byte{0xff, 0xd8}, p.Frame)
}

func TestRetryMovesToDLQAfterMaxAttempts(t *testing.T) {
	q, mr := newQueue(t)
	ctx := context.Background()
	job := &Job{ID: "j1", Type: JobTypeFrameArchive, Attempt: MaxRetries - 2}

	require.NoError(t, q.Retry(ctx, job))
	list, err := mr.List(QueueFrames)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	require.NoError(t, q.Retry(ctx, job))
	dlq, err := mr.List(QueueDLQ)
	require.NoError(t, err)
	assert.Len(t, dlq, 1)
}
