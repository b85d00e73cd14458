// Package processor routes intake messages to per-namespace resolution
// engines. The resolution core has no internal locking, so every namespace
// gets exactly one owner goroutine that applies its mutations in arrival
// order; that goroutine is the namespace's single writer.
package processor

import (
	"context"
	"errors"
	"sync"

	"github.com/Gobusters/ectologger"

	"github.com/Ramsey-B/clover/pkg/appcontext"
	"github.com/Ramsey-B/clover/pkg/kafka"
	"github.com/Ramsey-B/clover/pkg/models"
	"github.com/Ramsey-B/clover/pkg/resolution"
	"github.com/Ramsey-B/clover/pkg/tracing"
)

type job struct {
	ctx       context.Context
	candidate models.CandidateLead
	done      chan error
}

// Processor dispatches candidate leads to per-namespace single-writer
// queues. HandleMessage must be called from one goroutine (the consumer
// loop); the per-namespace goroutines are spawned on demand.
type Processor struct {
	logger    ectologger.Logger
	registry  *resolution.Registry
	queueSize int

	queues map[string]chan job
	wg     sync.WaitGroup
	closed bool
}

// NewProcessor creates a new intake processor
func NewProcessor(logger ectologger.Logger, registry *resolution.Registry, queueSize int) *Processor {
	if queueSize <= 0 {
		queueSize = 256
	}
	return &Processor{
		logger:    logger,
		registry:  registry,
		queueSize: queueSize,
		queues:    make(map[string]chan job),
	}
}

// HandleMessage parses an intake message and hands it to the owning
// namespace's writer goroutine, waiting for the outcome so the consumer only
// commits messages that were actually applied. Malformed payloads are logged
// and dropped; redelivering them can never succeed.
func (p *Processor) HandleMessage(ctx context.Context, msg *kafka.IncomingMessage) error {
	ctx, span := tracing.StartSpan(ctx, "processor.Processor.HandleMessage")
	defer span.End()

	log := p.logger.WithContext(ctx).WithFields(map[string]any{
		"topic":  msg.Topic,
		"offset": msg.Offset,
	})

	parsed, err := msg.ParseCandidateMessage()
	if err != nil {
		log.WithError(err).Error("Dropping malformed intake message")
		return nil
	}

	ctx = appcontext.SetNamespace(ctx, parsed.Namespace)
	if parsed.Source != "" {
		ctx = appcontext.SetSource(ctx, parsed.Source)
	}

	j := job{ctx: ctx, candidate: parsed.Candidate, done: make(chan error, 1)}
	select {
	case p.queue(parsed.Namespace) <- j:
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case err := <-j.done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// queue returns the namespace's job channel, starting its writer goroutine
// on first use.
func (p *Processor) queue(namespace string) chan job {
	if q, ok := p.queues[namespace]; ok {
		return q
	}
	q := make(chan job, p.queueSize)
	p.queues[namespace] = q

	svc := p.registry.Namespace(namespace)
	p.wg.Add(1)
	go p.runNamespace(svc, q)
	return q
}

func (p *Processor) runNamespace(svc *resolution.Service, jobs chan job) {
	defer p.wg.Done()

	for j := range jobs {
		_, _, err := svc.Upsert(j.ctx, j.candidate)
		if err != nil {
			// Validation failures are terminal for this message; retrying an
			// identical payload cannot change the outcome.
			var verr *models.ValidationError
			if errors.As(err, &verr) {
				p.logger.WithContext(j.ctx).WithError(err).WithFields(map[string]any{
					"namespace": svc.Namespace(),
				}).Error("Rejected invalid candidate")
				j.done <- nil
				continue
			}
		}
		j.done <- err
	}
}

// Stop drains and stops every namespace writer. HandleMessage must not be
// called after Stop.
func (p *Processor) Stop() {
	if p.closed {
		return
	}
	p.closed = true
	for _, q := range p.queues {
		close(q)
	}
	p.wg.Wait()
}
