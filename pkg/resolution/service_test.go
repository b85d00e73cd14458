package resolution

import (
	"context"
	"testing"

	"github.com/Gobusters/ectologger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ramsey-B/clover/pkg/events"
	"github.com/Ramsey-B/clover/pkg/models"
)

type eventRecorder struct {
	events []events.LeadEvent
}

func (r *eventRecorder) HandleLeadEvent(_ context.Context, event events.LeadEvent) error {
	r.events = append(r.events, event)
	return nil
}

func (r *eventRecorder) types() []events.EventType {
	out := make([]events.EventType, len(r.events))
	for i, event := range r.events {
		out[i] = event.EventType
	}
	return out
}

func newTestService(t *testing.T) (*Service, *eventRecorder) {
	t.Helper()
	logger := ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {})
	emitter := events.NewEmitter(logger)
	recorder := &eventRecorder{}
	emitter.Subscribe(recorder)
	return NewService(logger, "default", DefaultConfig(), emitter), recorder
}

func TestService_CreateIsIdempotent(t *testing.T) {
	ctx := context.Background()
	svc, recorder := newTestService(t)

	first, err := svc.Create(ctx, models.CandidateLead{CompanyName: "Acme Inc", Domain: "acme.io"})
	require.NoError(t, err)
	assert.Equal(t, models.StageNew, first.Stage)

	// Same identity under different casing and punctuation lands on the
	// same record.
	second, err := svc.Create(ctx, models.CandidateLead{CompanyName: "ACME, Incorporated", Domain: "https://ACME.io"})
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	assert.Equal(t, []events.EventType{events.EventTypeLeadCreated}, recorder.types())
}

func TestService_CreateValidation(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	for _, name := range []string{"", "   "} {
		_, err := svc.Create(ctx, models.CandidateLead{CompanyName: name})
		var verr *models.ValidationError
		require.ErrorAs(t, err, &verr)
	}
}

func TestService_CreateUnionsNewFields(t *testing.T) {
	ctx := context.Background()
	svc, recorder := newTestService(t)

	_, err := svc.Create(ctx, models.CandidateLead{
		CompanyName: "Acme Inc",
		Domain:      "acme.io",
		Emails:      []string{"sales@acme.io"},
	})
	require.NoError(t, err)

	updated, err := svc.Create(ctx, models.CandidateLead{
		CompanyName: "Acme Inc",
		Domain:      "acme.io",
		Emails:      []string{"ops@acme.io"},
		Country:     "US",
	})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"sales@acme.io", "ops@acme.io"}, updated.Emails)
	assert.Equal(t, "US", updated.Country)

	assert.Equal(t, []events.EventType{events.EventTypeLeadCreated, events.EventTypeLeadUpdated}, recorder.types())
}

func TestService_UpsertMatchesOnSharedDomain(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	created, _, err := svc.Upsert(ctx, models.CandidateLead{CompanyName: "Acme Inc", Domain: "acme.com"})
	require.NoError(t, err)

	// Same domain under a differently-styled name matches at the insert
	// threshold.
	matched, result, err := svc.Upsert(ctx, models.CandidateLead{
		CompanyName: "ACME INCORPORATED",
		Domain:      "acme.com",
		Country:     "US",
	})
	require.NoError(t, err)
	require.True(t, result.Matched)
	assert.Equal(t, created.ID, matched.ID)
	assert.GreaterOrEqual(t, result.Score, 0.80)
	assert.Contains(t, result.Reasons, "domain:exact")
}

func TestService_UpsertEmailPlusNameClearsMergeThreshold(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	created, _, err := svc.Upsert(ctx, models.CandidateLead{
		CompanyName: "Stretch & Shrink Co",
		Emails:      []string{"info@stretchshrink.com"},
	})
	require.NoError(t, err)

	matched, result, err := svc.Upsert(ctx, models.CandidateLead{
		CompanyName: "Stretch and Shrink Company",
		Emails:      []string{"info@stretchshrink.com"},
		Phones:      []string{"555-010-2222"},
	})
	require.NoError(t, err)
	require.True(t, result.Matched)
	assert.Equal(t, created.ID, matched.ID)
	assert.GreaterOrEqual(t, result.Score, 0.92)
}

func TestService_UpsertUnrelatedRecordsDoNotMatch(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	first, _, err := svc.Upsert(ctx, models.CandidateLead{CompanyName: "Totally Different LLC", Country: "US"})
	require.NoError(t, err)

	second, result, err := svc.Upsert(ctx, models.CandidateLead{CompanyName: "Another Name Co", Country: "CA"})
	require.NoError(t, err)
	assert.False(t, result.Matched)
	assert.NotEqual(t, first.ID, second.ID)
}

func TestService_Patch(t *testing.T) {
	ctx := context.Background()
	svc, recorder := newTestService(t)

	created, err := svc.Create(ctx, models.CandidateLead{
		CompanyName: "Acme Inc",
		Domain:      "acme.io",
		Emails:      []string{"sales@acme.io"},
		Tags:        []string{"priority"},
	})
	require.NoError(t, err)

	t.Run("lists union and never shrink", func(t *testing.T) {
		patched, err := svc.Patch(ctx, created.ID, models.LeadPatch{
			Emails: []string{"ops@acme.io"},
			Tags:   []string{"eu-expansion"},
		})
		require.NoError(t, err)
		assert.ElementsMatch(t, []string{"sales@acme.io", "ops@acme.io"}, patched.Emails)
		assert.ElementsMatch(t, []string{"priority", "eu-expansion"}, patched.Tags)
	})

	t.Run("empty patch emits nothing", func(t *testing.T) {
		before := len(recorder.events)
		_, err := svc.Patch(ctx, created.ID, models.LeadPatch{})
		require.NoError(t, err)
		assert.Len(t, recorder.events, before)
	})

	t.Run("blank company name rejected", func(t *testing.T) {
		blank := "  "
		_, err := svc.Patch(ctx, created.ID, models.LeadPatch{CompanyName: &blank})
		var verr *models.ValidationError
		require.ErrorAs(t, err, &verr)
	})

	t.Run("unknown id", func(t *testing.T) {
		_, err := svc.Patch(ctx, "nope", models.LeadPatch{Emails: []string{"x@y.io"}})
		var unknown *models.UnknownIDError
		require.ErrorAs(t, err, &unknown)
	})

	t.Run("patched identity keys are re-indexed", func(t *testing.T) {
		website := "https://acme-portal.io"
		_, err := svc.Patch(ctx, created.ID, models.LeadPatch{Website: &website})
		require.NoError(t, err)

		result, err := svc.FindMatch(ctx, models.CandidateLead{CompanyName: "Unrelated", Website: website}, 0.15)
		require.NoError(t, err)
		assert.True(t, result.Matched)
		assert.Equal(t, created.ID, result.LeadID)
	})
}

func TestService_Merge(t *testing.T) {
	ctx := context.Background()
	svc, recorder := newTestService(t)

	winner, err := svc.Create(ctx, models.CandidateLead{
		CompanyName: "Acme Inc",
		Domain:      "acme.io",
		Emails:      []string{"sales@acme.io"},
	})
	require.NoError(t, err)
	loser, err := svc.Create(ctx, models.CandidateLead{
		CompanyName: "Acme Global Holdings",
		Domain:      "acme.io",
		Emails:      []string{"ops@acme.io"},
		Country:     "US",
	})
	require.NoError(t, err)
	require.NotEqual(t, winner.ID, loser.ID)

	merged, err := svc.Merge(ctx, winner.ID, loser.ID)
	require.NoError(t, err)

	t.Run("fields fold into the winner", func(t *testing.T) {
		assert.Equal(t, winner.ID, merged.ID)
		assert.ElementsMatch(t, []string{"sales@acme.io", "ops@acme.io"}, merged.Emails)
		assert.Equal(t, "US", merged.Country)
	})

	t.Run("loser id resolves to the winner in one hop", func(t *testing.T) {
		got, err := svc.Get(ctx, loser.ID)
		require.NoError(t, err)
		assert.Equal(t, winner.ID, got.ID)
	})

	t.Run("find match on the losers fields lands on the winner", func(t *testing.T) {
		result, err := svc.FindMatch(ctx, models.CandidateLead{
			CompanyName: "Acme Global Holdings",
			Domain:      "acme.io",
			Emails:      []string{"ops@acme.io"},
		}, 0)
		require.NoError(t, err)
		require.True(t, result.Matched)
		assert.Equal(t, winner.ID, result.LeadID)
	})

	t.Run("create against the losers identity folds into the winner", func(t *testing.T) {
		got, err := svc.Create(ctx, models.CandidateLead{
			CompanyName: "Acme Global Holdings",
			Domain:      "acme.io",
			Phones:      []string{"555-010-9999"},
		})
		require.NoError(t, err)
		assert.Equal(t, winner.ID, got.ID)
		assert.Contains(t, got.Phones, "555-010-9999")
	})

	assert.Contains(t, recorder.types(), events.EventTypeLeadMerged)
}

func TestService_MergeCollapsesChains(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	a, err := svc.Create(ctx, models.CandidateLead{CompanyName: "Acme Inc", Domain: "acme.io"})
	require.NoError(t, err)
	b, err := svc.Create(ctx, models.CandidateLead{CompanyName: "Acme Holdings", Domain: "acme.io"})
	require.NoError(t, err)
	c, err := svc.Create(ctx, models.CandidateLead{CompanyName: "Acme Worldwide", Domain: "acme.io"})
	require.NoError(t, err)

	_, err = svc.Merge(ctx, a.ID, b.ID)
	require.NoError(t, err)

	// The first winner now loses; the redirect from b must be re-pointed so
	// it never needs a second hop.
	_, err = svc.Merge(ctx, c.ID, a.ID)
	require.NoError(t, err)

	for _, id := range []string{a.ID, b.ID, c.ID} {
		got, err := svc.Get(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, c.ID, got.ID)
	}
}

func TestService_MergeErrors(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	created, err := svc.Create(ctx, models.CandidateLead{CompanyName: "Acme Inc", Domain: "acme.io"})
	require.NoError(t, err)

	_, err = svc.Merge(ctx, created.ID, "nope")
	var unknown *models.UnknownIDError
	require.ErrorAs(t, err, &unknown)

	// Merging a record with itself is a no-op.
	got, err := svc.Merge(ctx, created.ID, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)
}

func TestService_Remove(t *testing.T) {
	ctx := context.Background()
	svc, recorder := newTestService(t)

	created, err := svc.Create(ctx, models.CandidateLead{CompanyName: "Acme Inc", Domain: "acme.io"})
	require.NoError(t, err)

	require.NoError(t, svc.Remove(ctx, created.ID))

	t.Run("removed id no longer resolves", func(t *testing.T) {
		_, err := svc.Get(ctx, created.ID)
		var unknown *models.UnknownIDError
		require.ErrorAs(t, err, &unknown)
	})

	t.Run("removed record is out of every index map", func(t *testing.T) {
		result, err := svc.FindMatch(ctx, models.CandidateLead{CompanyName: "Acme Inc", Domain: "acme.io"}, 0)
		require.NoError(t, err)
		assert.False(t, result.Matched)
		assert.Zero(t, result.Candidates)
	})

	t.Run("mutations on a removed id fail", func(t *testing.T) {
		err := svc.Remove(ctx, created.ID)
		var unknown *models.UnknownIDError
		require.ErrorAs(t, err, &unknown)
	})

	assert.Contains(t, recorder.types(), events.EventTypeLeadDeleted)
}

func TestService_RemoveRequiresLiveID(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	winner, err := svc.Create(ctx, models.CandidateLead{CompanyName: "Acme Inc", Domain: "acme.io"})
	require.NoError(t, err)
	loser, err := svc.Create(ctx, models.CandidateLead{CompanyName: "Acme Holdings", Domain: "acme.io"})
	require.NoError(t, err)
	_, err = svc.Merge(ctx, winner.ID, loser.ID)
	require.NoError(t, err)

	// A stale loser id must not destroy the winner it redirects to.
	var redirected *models.RedirectedIDError
	err = svc.Remove(ctx, loser.ID)
	require.ErrorAs(t, err, &redirected)
	assert.Equal(t, winner.ID, redirected.WinnerID)

	got, err := svc.Get(ctx, winner.ID)
	require.NoError(t, err)
	assert.Nil(t, got.DeletedAt)

	require.NoError(t, svc.Remove(ctx, winner.ID))
}

func TestService_UpdateStage(t *testing.T) {
	ctx := context.Background()
	svc, recorder := newTestService(t)

	created, err := svc.Create(ctx, models.CandidateLead{CompanyName: "Acme Inc", Domain: "acme.io"})
	require.NoError(t, err)
	require.Equal(t, models.StageNew, created.Stage)

	t.Run("forward transitions allowed", func(t *testing.T) {
		got, err := svc.UpdateStage(ctx, created.ID, models.StageQualified)
		require.NoError(t, err)
		assert.Equal(t, models.StageQualified, got.Stage)

		got, err = svc.UpdateStage(ctx, created.ID, models.StageEngaged)
		require.NoError(t, err)
		assert.Equal(t, models.StageEngaged, got.Stage)
	})

	t.Run("backward transition rejected", func(t *testing.T) {
		_, err := svc.UpdateStage(ctx, created.ID, models.StageNew)
		var verr *models.ValidationError
		require.ErrorAs(t, err, &verr)
	})

	t.Run("terminal stages never reopen", func(t *testing.T) {
		_, err := svc.UpdateStage(ctx, created.ID, models.StageWon)
		require.NoError(t, err)

		_, err = svc.UpdateStage(ctx, created.ID, models.StageOutreach)
		var verr *models.ValidationError
		require.ErrorAs(t, err, &verr)

		_, err = svc.UpdateStage(ctx, created.ID, models.StageSpam)
		require.ErrorAs(t, err, &verr)
	})

	t.Run("unknown stage rejected", func(t *testing.T) {
		_, err := svc.UpdateStage(ctx, created.ID, models.Stage("bogus"))
		var verr *models.ValidationError
		require.ErrorAs(t, err, &verr)
	})

	assert.Contains(t, recorder.types(), events.EventTypeLeadStageChanged)
}

func TestService_Query(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	acme, err := svc.Create(ctx, models.CandidateLead{
		CompanyName: "Acme Inc",
		Domain:      "acme.io",
		Country:     "us",
		Tags:        []string{"Priority"},
	})
	require.NoError(t, err)
	_, err = svc.Create(ctx, models.CandidateLead{
		CompanyName: "Blue Harbor Analytics",
		Domain:      "blueharbor.io",
		Country:     "CA",
	})
	require.NoError(t, err)

	_, err = svc.UpdateStage(ctx, acme.ID, models.StageQualified)
	require.NoError(t, err)

	t.Run("no filter returns all live leads", func(t *testing.T) {
		assert.Len(t, svc.Query(ctx, models.QueryFilter{}), 2)
	})

	t.Run("by stage", func(t *testing.T) {
		got := svc.Query(ctx, models.QueryFilter{Stage: models.StageQualified})
		require.Len(t, got, 1)
		assert.Equal(t, acme.ID, got[0].ID)
	})

	t.Run("by country is case insensitive", func(t *testing.T) {
		got := svc.Query(ctx, models.QueryFilter{Country: "US"})
		require.Len(t, got, 1)
		assert.Equal(t, acme.ID, got[0].ID)
	})

	t.Run("by domain normalizes input", func(t *testing.T) {
		got := svc.Query(ctx, models.QueryFilter{Domain: "https://www.acme.io"})
		require.Len(t, got, 1)
		assert.Equal(t, acme.ID, got[0].ID)
	})

	t.Run("by tag", func(t *testing.T) {
		got := svc.Query(ctx, models.QueryFilter{Tag: "priority"})
		require.Len(t, got, 1)
		assert.Equal(t, acme.ID, got[0].ID)
	})

	t.Run("tombstones excluded", func(t *testing.T) {
		require.NoError(t, svc.Remove(ctx, acme.ID))
		assert.Len(t, svc.Query(ctx, models.QueryFilter{}), 1)
	})
}
