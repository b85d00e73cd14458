package integration

import (
	"context"
	"testing"

	"github.com/Gobusters/ectologger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ramsey-B/clover/pkg/events"
	"github.com/Ramsey-B/clover/pkg/kafka"
	"github.com/Ramsey-B/clover/pkg/models"
	"github.com/Ramsey-B/clover/pkg/processor"
	"github.com/Ramsey-B/clover/pkg/resolution"
)

// Exercises the full intake pipeline in memory: messages through the
// processor into per-namespace engines, duplicate folding, merge, lifecycle,
// events out, snapshot and restore.
func TestResolutionPipeline(t *testing.T) {
	ctx := context.Background()
	logger := ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {})

	var published []events.LeadEvent
	emitter := events.NewEmitter(logger)
	emitter.Subscribe(events.ListenerFunc(func(_ context.Context, event events.LeadEvent) error {
		published = append(published, event)
		return nil
	}))

	registry := resolution.NewRegistry(logger, resolution.DefaultConfig(), emitter)
	proc := processor.NewProcessor(logger, registry, 16)

	intake := func(payload string) error {
		return proc.HandleMessage(ctx, &kafka.IncomingMessage{Value: []byte(payload)})
	}

	// Three connectors report the same company in different shapes, plus one
	// unrelated company.
	require.NoError(t, intake(`{"namespace":"tenant-a","source":"crawler","candidate":{"company_name":"Acme Inc","domain":"acme.com"}}`))
	require.NoError(t, intake(`{"namespace":"tenant-a","source":"search","candidate":{"company_name":"ACME Incorporated","website":"https://www.acme.com/about","country":"US"}}`))
	require.NoError(t, intake(`{"namespace":"tenant-a","source":"manual","candidate":{"company_name":"Acme, Inc.","domain":"acme.com","emails":["sales@acme.com"]}}`))
	require.NoError(t, intake(`{"namespace":"tenant-a","candidate":{"company_name":"Blue Harbor Analytics","domain":"blueharbor.io"}}`))

	proc.Stop()

	svc := registry.Namespace("tenant-a")
	leads := svc.Query(ctx, models.QueryFilter{})
	require.Len(t, leads, 2, "three acme variants collapse into one record")

	var acme *models.Lead
	for _, l := range leads {
		if l.Domain == "acme.com" || l.CompanyName == "Acme Inc" {
			acme = l
		}
	}
	require.NotNil(t, acme)
	assert.Equal(t, "US", acme.Country)
	assert.Contains(t, acme.Emails, "sales@acme.com")

	// Lifecycle: qualify the lead, then snapshot and restore onto a fresh
	// engine.
	_, err := svc.UpdateStage(ctx, acme.ID, models.StageQualified)
	require.NoError(t, err)

	snapshot := svc.Snapshot(ctx)

	freshRegistry := resolution.NewRegistry(logger, resolution.DefaultConfig(), events.NewEmitter(logger))
	fresh := freshRegistry.Namespace("tenant-a")
	require.NoError(t, fresh.Restore(ctx, snapshot))

	restored, err := fresh.Get(ctx, acme.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StageQualified, restored.Stage)

	result, err := fresh.FindMatch(ctx, models.CandidateLead{CompanyName: "Acme Inc", Domain: "acme.com"}, 0)
	require.NoError(t, err)
	require.True(t, result.Matched)
	assert.Equal(t, acme.ID, result.LeadID)

	// Every mutation produced exactly one event, in order.
	var types []events.EventType
	for _, event := range published {
		types = append(types, event.EventType)
	}
	assert.Equal(t, []events.EventType{
		events.EventTypeLeadCreated,
		events.EventTypeLeadUpdated,
		events.EventTypeLeadUpdated,
		events.EventTypeLeadCreated,
		events.EventTypeLeadStageChanged,
	}, types)
}
