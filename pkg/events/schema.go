// Package events handles event emission for lead lifecycle changes
package events

import (
	"time"

	"github.com/Ramsey-B/clover/pkg/models"
)

// SchemaVersion is the current event schema version
const SchemaVersion = "1.0"

// EventType defines the type of event
type EventType string

const (
	EventTypeLeadCreated      EventType = "lead.created"
	EventTypeLeadUpdated      EventType = "lead.updated"
	EventTypeLeadMerged       EventType = "lead.merged"
	EventTypeLeadStageChanged EventType = "lead.stage_changed"
	EventTypeLeadDeleted      EventType = "lead.deleted"
)

// LeadEvent is emitted synchronously after every committed mutation. The
// Lead field carries the record as it stands after the mutation; deleted
// events carry no record.
type LeadEvent struct {
	EventID       string    `json:"event_id"`
	EventType     EventType `json:"event_type"`
	SchemaVersion string    `json:"schema_version"`
	Namespace     string    `json:"namespace"`
	LeadID        string    `json:"lead_id"`
	Timestamp     time.Time `json:"timestamp"`

	Lead *models.Lead `json:"lead,omitempty"`

	// Set on lead.merged: the tombstoned record folded into LeadID.
	MergedFromID string `json:"merged_from_id,omitempty"`

	// Set on lead.stage_changed.
	PreviousStage models.Stage `json:"previous_stage,omitempty"`
	Stage         models.Stage `json:"stage,omitempty"`

	// Set on lead.updated when the update was driven by a duplicate match.
	MatchScore   float64  `json:"match_score,omitempty"`
	MatchReasons []string `json:"match_reasons,omitempty"`
}
