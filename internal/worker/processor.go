package worker

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"

	"github.com/dharsanguruparan/LinkSeal/internal/model"
	"github.com/dharsanguruparan/LinkSeal/internal/queue"
	"github.com/dharsanguruparan/LinkSeal/internal/repository"
)

// Processor is plugged into the asynq worker loop.
type Processor struct {
	audit  repository.AuditLog
	logger *zap.Logger
}

// NewProcessor constructs a worker processor.
func NewProcessor(audit repository.AuditLog, logger *zap.Logger) *Processor {
	return &Processor{audit: audit, logger: logger}
}

// Handler registers the access task handler.
func (p *Processor) Handler() *asynq.ServeMux {
	mux := asynq.NewServeMux()
	mux.HandleFunc(queue.AccessTask, p.handleAccess)
	return mux
}

func (p *Processor) handleAccess(ctx context.Context, task *asynq.Task) error {
	var ev model.AccessEvent
	if err := json.Unmarshal(task.Payload(), &ev); err != nil {
		// A payload that cannot be decoded will never succeed.
		return fmt.Errorf("decode payload: %v: %w", err, asynq.SkipRetry)
	}
	if err := p.audit.RecordAccess(ctx, &ev); err != nil {
		p.logger.Error("record access failed", zap.String("id", ev.ID), zap.Error(err))
		return err
	}
	p.logger.Debug("access recorded",
		zap.String("target", ev.Target),
		zap.String("outcome", ev.Outcome))
	return nil
}
