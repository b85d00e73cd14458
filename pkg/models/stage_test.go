package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStage_CanTransitionTo(t *testing.T) {
	tests := []struct {
		name    string
		from    Stage
		to      Stage
		allowed bool
	}{
		{name: "forward step", from: StageNew, to: StageQualified, allowed: true},
		{name: "forward skip", from: StageNew, to: StageEngaged, allowed: true},
		{name: "to won", from: StageEngaged, to: StageWon, allowed: true},
		{name: "to lost", from: StageQualified, to: StageLost, allowed: true},
		{name: "backward", from: StageOutreach, to: StageNew, allowed: false},
		{name: "self", from: StageNew, to: StageNew, allowed: false},
		{name: "spam from non terminal", from: StageEngaged, to: StageSpam, allowed: true},
		{name: "won never reopens", from: StageWon, to: StageOutreach, allowed: false},
		{name: "lost never reopens", from: StageLost, to: StageNew, allowed: false},
		{name: "spam never reopens", from: StageSpam, to: StageNew, allowed: false},
		{name: "unknown target", from: StageNew, to: Stage("bogus"), allowed: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.allowed, tt.from.CanTransitionTo(tt.to))
		})
	}
}

func TestStage_Promote(t *testing.T) {
	assert.Equal(t, StageQualified, Promote(StageNew, StageQualified))
	assert.Equal(t, StageQualified, Promote(StageQualified, StageSpam))
	assert.Equal(t, StageWon, Promote(StageWon, StageEngaged))
}

func TestLead_Clone(t *testing.T) {
	score := 0.7
	original := &Lead{
		ID:      "lead-1",
		Emails:  []string{"sales@acme.io"},
		Signals: map[string]float64{"traffic": 0.4},
		Score:   &score,
	}

	clone := original.Clone()
	clone.Emails[0] = "changed"
	clone.Signals["traffic"] = 1.0
	*clone.Score = 0.1

	assert.Equal(t, "sales@acme.io", original.Emails[0])
	assert.Equal(t, 0.4, original.Signals["traffic"])
	assert.Equal(t, 0.7, *original.Score)
}

func TestLead_Redirects(t *testing.T) {
	live := &Lead{ID: "a"}
	assert.False(t, live.IsTombstone())
	assert.False(t, live.Redirects())

	now := live.CreatedAt
	removed := &Lead{ID: "b", DeletedAt: &now}
	assert.True(t, removed.IsTombstone())
	assert.False(t, removed.Redirects())

	merged := &Lead{ID: "c", DeletedAt: &now, MergedInto: "a"}
	assert.True(t, merged.IsTombstone())
	assert.True(t, merged.Redirects())
}
