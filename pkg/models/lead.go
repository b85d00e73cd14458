package models

import (
	"time"
)

// Lead is the canonical record for a company after duplicate resolution.
// Field order matches the snapshot schema: id, company_name, domain, website, ...
type Lead struct {
	ID          string             `json:"id"`
	CompanyName string             `json:"company_name"`
	Domain      string             `json:"domain,omitempty"`
	Website     string             `json:"website,omitempty"`
	Emails      []string           `json:"emails,omitempty"`
	Phones      []string           `json:"phones,omitempty"`
	Country     string             `json:"country,omitempty"`
	Tags        []string           `json:"tags,omitempty"`
	Stage       Stage              `json:"stage"`
	Score       *float64           `json:"score,omitempty"`
	Signals     map[string]float64 `json:"signals,omitempty"`

	// MergedInto points a tombstoned loser at its live merge winner. The
	// redirect chain is always exactly one hop deep.
	MergedInto string `json:"merged_into,omitempty"`

	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
	DeletedAt *time.Time `json:"deleted_at,omitempty"`
}

// IsTombstone reports whether the lead has been logically destroyed,
// either by a merge (with redirect) or a remove (without).
func (l *Lead) IsTombstone() bool {
	return l.DeletedAt != nil
}

// Redirects reports whether the tombstone still points at a merge winner.
func (l *Lead) Redirects() bool {
	return l.DeletedAt != nil && l.MergedInto != ""
}

// Clone returns a deep copy so callers can never mutate stored state.
func (l *Lead) Clone() *Lead {
	if l == nil {
		return nil
	}
	out := *l
	out.Emails = append([]string(nil), l.Emails...)
	out.Phones = append([]string(nil), l.Phones...)
	out.Tags = append([]string(nil), l.Tags...)
	if l.Signals != nil {
		out.Signals = make(map[string]float64, len(l.Signals))
		for k, v := range l.Signals {
			out.Signals[k] = v
		}
	}
	if l.Score != nil {
		score := *l.Score
		out.Score = &score
	}
	if l.DeletedAt != nil {
		deleted := *l.DeletedAt
		out.DeletedAt = &deleted
	}
	return &out
}
