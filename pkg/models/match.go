package models

// MatchScore is the result of scoring a pair of records: a value in [0,1]
// plus the signals that contributed to it.
type MatchScore struct {
	Value   float64  `json:"value"`
	Reasons []string `json:"reasons,omitempty"`
}

// MatchResult is the outcome of a find-match decision for a candidate record.
// Score is the best similarity observed across the scored candidates whether
// or not it cleared the threshold; Matched, LeadID and Reasons are only set
// when it did.
type MatchResult struct {
	Matched bool     `json:"matched"`
	LeadID  string   `json:"lead_id,omitempty"`
	Score   float64  `json:"score"`
	Reasons []string `json:"reasons,omitempty"`

	// Candidates is the number of entities retrieved from the blocking index
	// and pairwise-scored for this decision.
	Candidates int `json:"candidates"`
}
