package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/treeplant/web/pkg/queue"
	"github.com/treeplant/web/pkg/storage"
)

// Uploader stores archived frames.
type Uploader interface {
	UploadBytes(ctx context.Context, bucket, key, contentType string, data []byte) (string, error)
	CapturesBucket() string
}

// FrameRecorder remembers where a frame was archived.
type FrameRecorder interface {
	SetFrameKey(ctx context.Context, id uuid.UUID, key string) error
}

// Queue is the job source.
type Queue interface {
	Dequeue(ctx context.Context, timeout time.Duration) (*queue.Job, error)
	Retry(ctx context.Context, job *queue.Job) error
}

// FrameProcessor processes frame archive jobs: upload the JPEG to S3, then record the key on the audit row.
type FrameProcessor struct {
	audits  FrameRecorder
	s3      Uploader
	queue   Queue
	logger  *zap.Logger
	poll    time.Duration
	backoff time.Duration
}

// NewFrameProcessor creates a frame archive processor.
func NewFrameProcessor(audits FrameRecorder, s3 Uploader, q Queue, logger *zap.Logger) *FrameProcessor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FrameProcessor{audits: audits, s3: s3, queue: q, logger: logger, poll: 5 * time.Second, backoff: queue.RetryBackoff}
}

// Process executes one frame archive job.
func (p *FrameProcessor) Process(ctx context.Context, job *queue.Job) error {
	if job.Type != queue.JobTypeFrameArchive {
		return fmt.Errorf("unknown job type: %s", job.Type)
	}
	var payload queue.FrameArchivePayload
	if err := json.Unmarshal(job.Payload, &payload); err != nil {
		return fmt.Errorf("unmarshal payload: %w", err)
	}
	if len(payload.Frame) == 0 {
		p.logger.Warn("frame archive job without frame", zap.String("job_id", job.ID))
		return nil
	}

	key := storage.CaptureKey(payload.EventID, payload.AuditID.String())
	if _, err := p.s3.UploadBytes(ctx, p.s3.CapturesBucket(), key, "image/jpeg", payload.Frame); err != nil {
		return fmt.Errorf("s3 upload: %w", err)
	}
	if err := p.audits.SetFrameKey(ctx, payload.AuditID, key); err != nil {
		p.logger.Error("update capture audit failed", zap.Error(err), zap.String("audit_id", payload.AuditID.String()))
		return fmt.Errorf("update db: %w", err)
	}

	p.logger.Info("frame archived", zap.String("audit_id", payload.AuditID.String()), zap.String("s3_key", key))
	return nil
}

// Run starts the worker loop: dequeue, process, retry on error.
func (p *FrameProcessor) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			p.logger.Info("frame worker stopping")
			return
		default:
		}

		job, err := p.queue.Dequeue(ctx, p.poll)
		if err != nil {
			if ctx.Err() != nil {
				continue
			}
			p.logger.Warn("dequeue error", zap.Error(err))
			p.sleep(ctx)
			continue
		}
		if job == nil {
			continue
		}

		p.logger.Debug("processing job", zap.String("job_id", job.ID), zap.String("type", string(job.Type)))
		if err := p.Process(ctx, job); err != nil {
			p.logger.Error("job failed", zap.String("job_id", job.ID), zap.Int("attempt", job.Attempt), zap.Error(err))
			if reErr := p.queue.Retry(context.WithoutCancel(ctx), job); reErr != nil {
				p.logger.Error("retry enqueue failed", zap.Error(reErr))
			}
			p.sleep(ctx)
		}
	}
}

func (p *FrameProcessor) sleep(ctx context.Context) {
	t := time.NewTimer(p.backoff)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
