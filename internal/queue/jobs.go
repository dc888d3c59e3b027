package queue

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"

	"github.com/dharsanguruparan/LinkSeal/internal/model"
)

const (
	// AccessTask is scheduled each time a signed URL is presented.
	AccessTask = "link:access"
)

// Enqueuer is the subset of *asynq.Client used here.
type Enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// NewAccessTask serializes ev into a task payload.
func NewAccessTask(ev model.AccessEvent) (*asynq.Task, error) {
	data, err := json.Marshal(ev)
	if err != nil {
		return nil, fmt.Errorf("marshal payload: %w", err)
	}
	return asynq.NewTask(AccessTask, data), nil
}

// EnqueueAccess enqueues an access event for the worker.
func EnqueueAccess(ctx context.Context, client Enqueuer, ev model.AccessEvent) error {
	task, err := NewAccessTask(ev)
	if err != nil {
		return err
	}
	if _, err := client.EnqueueContext(ctx, task, asynq.MaxRetry(5)); err != nil {
		return fmt.Errorf("enqueue access task: %w", err)
	}
	return nil
}

// Recorder hands access events to the asynq queue.
type Recorder struct {
	client Enqueuer
	logger *zap.Logger
}

// NewRecorder constructs a Recorder.
func NewRecorder(client Enqueuer, logger *zap.Logger) *Recorder {
	return &Recorder{client: client, logger: logger}
}

// Record enqueues ev. Failures are logged; the request is not failed because
// of the audit trail.
func (r *Recorder) Record(ctx context.Context, ev model.AccessEvent) {
	if err := EnqueueAccess(ctx, r.client, ev); err != nil {
		r.logger.Error("enqueue access event failed", zap.String("id", ev.ID), zap.Error(err))
	}
}
