package events

import (
	"context"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/google/uuid"

	"github.com/Ramsey-B/clover/pkg/models"
	"github.com/Ramsey-B/clover/pkg/tracing"
)

// Listener receives lead lifecycle events. Listeners run synchronously on
// the mutating goroutine and must not block for long.
type Listener interface {
	HandleLeadEvent(ctx context.Context, event LeadEvent) error
}

// ListenerFunc adapts a function to the Listener interface.
type ListenerFunc func(ctx context.Context, event LeadEvent) error

func (f ListenerFunc) HandleLeadEvent(ctx context.Context, event LeadEvent) error {
	return f(ctx, event)
}

// Emitter fans lead events out to subscribed listeners. A listener that
// errors or panics is logged and skipped; it never fails the mutation or
// starves the other listeners.
type Emitter struct {
	logger    ectologger.Logger
	listeners []Listener
}

// NewEmitter creates a new event emitter
func NewEmitter(logger ectologger.Logger) *Emitter {
	return &Emitter{
		logger: logger,
	}
}

// Subscribe registers a listener for all subsequent events. Not safe to call
// concurrently with emission.
func (e *Emitter) Subscribe(listener Listener) {
	e.listeners = append(e.listeners, listener)
}

// EmitLeadCreated emits a lead.created event
func (e *Emitter) EmitLeadCreated(ctx context.Context, namespace string, lead *models.Lead) {
	e.dispatch(ctx, LeadEvent{
		EventType: EventTypeLeadCreated,
		Namespace: namespace,
		LeadID:    lead.ID,
		Lead:      lead,
	})
}

// EmitLeadUpdated emits a lead.updated event. The match result is set when
// the update came from folding a duplicate candidate into the record.
func (e *Emitter) EmitLeadUpdated(ctx context.Context, namespace string, lead *models.Lead, match *models.MatchResult) {
	event := LeadEvent{
		EventType: EventTypeLeadUpdated,
		Namespace: namespace,
		LeadID:    lead.ID,
		Lead:      lead,
	}
	if match != nil {
		event.MatchScore = match.Score
		event.MatchReasons = match.Reasons
	}
	e.dispatch(ctx, event)
}

// EmitLeadMerged emits a lead.merged event
func (e *Emitter) EmitLeadMerged(ctx context.Context, namespace string, winner *models.Lead, loserID string) {
	e.dispatch(ctx, LeadEvent{
		EventType:    EventTypeLeadMerged,
		Namespace:    namespace,
		LeadID:       winner.ID,
		Lead:         winner,
		MergedFromID: loserID,
	})
}

// EmitStageChanged emits a lead.stage_changed event
func (e *Emitter) EmitStageChanged(ctx context.Context, namespace string, lead *models.Lead, previous models.Stage) {
	e.dispatch(ctx, LeadEvent{
		EventType:     EventTypeLeadStageChanged,
		Namespace:     namespace,
		LeadID:        lead.ID,
		Lead:          lead,
		PreviousStage: previous,
		Stage:         lead.Stage,
	})
}

// EmitLeadDeleted emits a lead.deleted event
func (e *Emitter) EmitLeadDeleted(ctx context.Context, namespace string, leadID string) {
	e.dispatch(ctx, LeadEvent{
		EventType: EventTypeLeadDeleted,
		Namespace: namespace,
		LeadID:    leadID,
	})
}

func (e *Emitter) dispatch(ctx context.Context, event LeadEvent) {
	ctx, span := tracing.StartSpan(ctx, "events.Emitter.dispatch")
	defer span.End()

	event.EventID = uuid.NewString()
	event.SchemaVersion = SchemaVersion
	event.Timestamp = time.Now().UTC()

	for _, listener := range e.listeners {
		e.deliver(ctx, listener, event)
	}
}

func (e *Emitter) deliver(ctx context.Context, listener Listener, event LeadEvent) {
	log := e.logger.WithContext(ctx).WithFields(map[string]any{
		"event_type": event.EventType,
		"event_id":   event.EventID,
		"namespace":  event.Namespace,
		"lead_id":    event.LeadID,
	})

	defer func() {
		if r := recover(); r != nil {
			log.WithFields(map[string]any{"panic": r}).Error("Event listener panicked")
		}
	}()

	if err := listener.HandleLeadEvent(ctx, event); err != nil {
		log.WithError(err).Error("Event listener failed")
	}
}
