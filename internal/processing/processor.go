// Package processing records access events on a pool of background
// goroutines so the request path never waits on the audit log. It is used
// when no Redis queue is configured.
package processing

import (
	"context"

	"go.uber.org/zap"

	"github.com/dharsanguruparan/LinkSeal/internal/model"
	"github.com/dharsanguruparan/LinkSeal/internal/repository"
)

// Processor consumes access events and writes them to the audit log.
type Processor struct {
	audit   repository.AuditLog
	queue   chan model.AccessEvent
	workers int
	logger  *zap.Logger
}

// New builds a Processor with queue capacity tied to worker count.
func New(audit repository.AuditLog, workers int, logger *zap.Logger) *Processor {
	if workers <= 0 {
		workers = 1
	}
	return &Processor{
		audit: audit,
		// A buffered channel keeps Record non-blocking under bursts.
		queue:   make(chan model.AccessEvent, workers*64),
		workers: workers,
		logger:  logger,
	}
}

// Start launches worker goroutines. They exit when ctx is cancelled.
func (p *Processor) Start(ctx context.Context) {
	for i := 0; i < p.workers; i++ {
		go p.worker(ctx)
	}
}

// Record queues ev for writing. When the buffer is full the event is dropped
// rather than slowing down the request that produced it.
func (p *Processor) Record(_ context.Context, ev model.AccessEvent) {
	select {
	case p.queue <- ev:
	default:
		p.logger.Warn("access queue full, dropping event",
			zap.String("target", ev.Target),
			zap.String("outcome", ev.Outcome))
	}
}

func (p *Processor) worker(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-p.queue:
			p.process(ctx, ev)
		}
	}
}

func (p *Processor) process(ctx context.Context, ev model.AccessEvent) {
	if err := p.audit.RecordAccess(ctx, &ev); err != nil {
		p.logger.Error("record access failed", zap.String("id", ev.ID), zap.Error(err))
	}
}
