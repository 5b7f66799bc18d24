package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	// QueueAudit is the Redis list key for invitation audit jobs.
	QueueAudit = "worker:audit"
	// QueueDLQ is the dead-letter queue for failed jobs after retries.
	QueueDLQ = "worker:dlq"
	// MaxRetries is the number of times a failed job is retried before moving to DLQ.
	MaxRetries = 3
	// RetryBackoff is the delay between retries.
	RetryBackoff = 10 * time.Second
	// BlockTimeout bounds a single BLPOP so workers notice cancellation.
	BlockTimeout = 5 * time.Second
)

// JobType identifies the job kind.
type JobType string

const (
	JobTypeInvitationResolved JobType = "invitation_resolved"
)

// InvitationResolvedPayload records an accepted or rejected invitation.
// The invitation row itself is deleted on resolution, so this is the only durable trace.
type InvitationResolvedPayload struct {
	EventID         uuid.UUID `json:"event_id"`
	InvitationID    int64     `json:"invitation_id"`
	Action          string    `json:"action"`
	FarmID          int64     `json:"farm_id"`
	InvitedUserID   int64     `json:"invited_user_id"`
	InviterUserID   int64     `json:"inviter_user_id"`
	SuggestedRoleID int64     `json:"suggested_role_id"`
	ResolvedAt      time.Time `json:"resolved_at"`
}

// Job is a generic job envelope.
type Job struct {
	ID        string          `json:"id"`
	Type      JobType         `json:"type"`
	Payload   json.RawMessage `json:"payload"`
	Attempt   int             `json:"attempt"`
	CreatedAt time.Time       `json:"created_at"`
}

// Backend is the subset of the go-redis client used by Queue.
type Backend interface {
	RPush(ctx context.Context, key string, values ...interface{}) *redis.IntCmd
	BLPop(ctx context.Context, timeout time.Duration, keys ...string) *redis.StringSliceCmd
}

// Queue enqueues and dequeues jobs via Redis.
type Queue struct {
	client Backend
	logger *zap.Logger
}

// NewQueue creates a new Redis-backed job queue.
func NewQueue(client Backend, logger *zap.Logger) *Queue {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Queue{client: client, logger: logger}
}

// EnqueueInvitationResolved enqueues an audit job for a resolved invitation.
// A zero EventID is replaced with a new random one.
func (q *Queue) EnqueueInvitationResolved(ctx context.Context, payload InvitationResolvedPayload) error {
	if payload.EventID == uuid.Nil {
		payload.EventID = uuid.New()
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}
	job := Job{
		ID:        uuid.New().String(),
		Type:      JobTypeInvitationResolved,
		Payload:   body,
		Attempt:   0,
		CreatedAt: time.Now(),
	}
	raw, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("marshal job: %w", err)
	}
	if err := q.client.RPush(ctx, QueueAudit, raw).Err(); err != nil {
		return fmt.Errorf("rpush: %w", err)
	}
	q.logger.Debug("enqueued audit job",
		zap.String("job_id", job.ID),
		zap.Int64("invitation_id", payload.InvitationID),
		zap.String("action", payload.Action),
	)
	return nil
}

// Dequeue blocks until a job is available, BlockTimeout passes or ctx is done.
// Returns job and key (queue name); a nil job with nil error means nothing was available.
func (q *Queue) Dequeue(ctx context.Context) (*Job, string, error) {
	result, err := q.client.BLPop(ctx, BlockTimeout, QueueAudit).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, "", nil
		}
		return nil, "", err
	}
	if len(result) < 2 {
		return nil, "", nil
	}
	var job Job
	if err := json.Unmarshal([]byte(result[1]), &job); err != nil {
		q.logger.Warn("invalid job payload", zap.String("raw", result[1]), zap.Error(err))
		return nil, "", nil
	}
	return &job, result[0], nil
}

// Retry re-enqueues a job with incremented attempt. Once the retries are spent it pushes to DLQ instead.
func (q *Queue) Retry(ctx context.Context, job *Job) error {
	job.Attempt++
	raw, err := json.Marshal(job)
	if err != nil {
		return err
	}
	if job.Attempt > MaxRetries {
		if err := q.client.RPush(ctx, QueueDLQ, raw).Err(); err != nil {
			q.logger.Error("dlq push failed", zap.Error(err), zap.String("job_id", job.ID))
			return err
		}
		q.logger.Warn("job moved to DLQ", zap.String("job_id", job.ID), zap.Int("attempt", job.Attempt))
		return nil
	}
	if err := q.client.RPush(ctx, QueueAudit, raw).Err(); err != nil {
		return err
	}
	q.logger.Info("job retried", zap.String("job_id", job.ID), zap.Int("attempt", job.Attempt))
	return nil
}
