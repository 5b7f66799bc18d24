package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/DavidValenciaX/coffeetech-invitations-service/pkg/queue"
	"github.com/DavidValenciaX/coffeetech-invitations-service/pkg/storage"
)

// JobQueue is the queue side the archiver consumes.
type JobQueue interface {
	Dequeue(ctx context.Context) (*queue.Job, string, error)
	Retry(ctx context.Context, job *queue.Job) error
}

// ObjectWriter stores JSON documents.
type ObjectWriter interface {
	PutJSON(ctx context.Context, bucket, key string, v interface{}) error
}

// AuditArchiver processes invitation audit jobs: each resolution event becomes one S3 object.
type AuditArchiver struct {
	queue   JobQueue
	objects ObjectWriter
	bucket  string
	backoff time.Duration
	logger  *zap.Logger
}

// NewAuditArchiver creates an audit archive processor.
func NewAuditArchiver(q JobQueue, objects ObjectWriter, bucket string, logger *zap.Logger) *AuditArchiver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuditArchiver{queue: q, objects: objects, bucket: bucket, backoff: queue.RetryBackoff, logger: logger}
}

// Process executes one audit job.
func (a *AuditArchiver) Process(ctx context.Context, job *queue.Job) error {
	if job.Type != queue.JobTypeInvitationResolved {
		return fmt.Errorf("unknown job type: %s", job.Type)
	}
	var payload queue.InvitationResolvedPayload
	if err := json.Unmarshal(job.Payload, &payload); err != nil {
		return fmt.Errorf("unmarshal payload: %w", err)
	}

	key := storage.AuditKey(payload.InvitationID, payload.EventID.String())
	if err := a.objects.PutJSON(ctx, a.bucket, key, payload); err != nil {
		return fmt.Errorf("archive event: %w", err)
	}
	a.logger.Info("invitation audit archived",
		zap.Int64("invitation_id", payload.InvitationID),
		zap.String("action", payload.Action),
		zap.String("s3_key", key),
	)
	return nil
}

// Run starts the worker loop: dequeue, process, retry on error.
func (a *AuditArchiver) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			a.logger.Info("audit worker stopping")
			return
		default:
		}

		job, _, err := a.queue.Dequeue(ctx)
		if err != nil {
			if ctx.Err() != nil {
				continue
			}
			a.logger.Warn("dequeue error", zap.Error(err))
			a.sleep(ctx)
			continue
		}
		if job == nil {
			continue
		}

		a.logger.Debug("processing job", zap.String("job_id", job.ID), zap.String("type", string(job.Type)))
		if err := a.Process(ctx, job); err != nil {
			a.logger.Error("job failed", zap.String("job_id", job.ID), zap.Int("attempt", job.Attempt), zap.Error(err))
			if reErr := a.queue.Retry(ctx, job); reErr != nil {
				a.logger.Error("retry enqueue failed", zap.Error(reErr))
			}
			a.sleep(ctx)
		}
	}
}

func (a *AuditArchiver) sleep(ctx context.Context) {
	t := time.NewTimer(a.backoff)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
