package matching

import (
	"context"
	"sort"

	"github.com/Ramsey-B/clover/pkg/models"
	"github.com/Ramsey-B/clover/pkg/tracing"
)

// Config controls candidate retrieval and match thresholds.
type Config struct {
	// InsertMatchThreshold is the recall-favoring threshold used when deciding
	// whether an incoming candidate is the same company as an existing record.
	InsertMatchThreshold float64
	// AutoMergeThreshold is the precision-favoring threshold used when
	// deciding whether two existing records may be merged automatically.
	AutoMergeThreshold float64
	// MaxCandidates bounds how many candidates are scored per lookup.
	MaxCandidates int
}

func DefaultConfig() Config {
	return Config{
		InsertMatchThreshold: 0.80,
		AutoMergeThreshold:   0.92,
		MaxCandidates:        100,
	}
}

// RecordSource resolves candidate ids to live records. Tombstoned records
// must not be returned.
type RecordSource interface {
	GetLive(ctx context.Context, id string) (*models.Lead, bool)
}

// CandidateIndex returns the ids of records that share at least one blocking
// key with the given profile.
type CandidateIndex interface {
	CandidatesFor(profile Profile) []string
}

// Engine pairs a blocking index with a scorer to find the best match for a
// profile without comparing it against every record.
type Engine struct {
	config  Config
	scorer  *Scorer
	records RecordSource
	index   CandidateIndex
}

func NewEngine(config Config, records RecordSource, index CandidateIndex) *Engine {
	return &Engine{
		config:  config,
		scorer:  NewScorer(),
		records: records,
		index:   index,
	}
}

func (e *Engine) Scorer() *Scorer {
	return e.scorer
}

// FindMatch scores the profile against every candidate sharing a blocking key
// and returns the best match at or above the threshold. Ties on score resolve
// to the lexicographically smaller id so results are deterministic regardless
// of index iteration order. Score always carries the best similarity observed,
// even when it fell short of the threshold, so near-misses stay visible to
// threshold tuning.
func (e *Engine) FindMatch(ctx context.Context, profile Profile, threshold float64) *models.MatchResult {
	_, span := tracing.StartSpan(ctx, "matching.FindMatch")
	defer span.End()

	ids := e.index.CandidatesFor(profile)
	sort.Strings(ids)
	if e.config.MaxCandidates > 0 && len(ids) > e.config.MaxCandidates {
		ids = ids[:e.config.MaxCandidates]
	}

	result := &models.MatchResult{Candidates: len(ids)}
	var bestMatched float64
	for _, id := range ids {
		lead, ok := e.records.GetLive(ctx, id)
		if !ok {
			continue
		}
		score := e.scorer.Score(profile, ProfileOfLead(lead))
		result.Score = max(result.Score, score.Value)
		if score.Value < threshold {
			continue
		}
		if !result.Matched || score.Value > bestMatched || (score.Value == bestMatched && id < result.LeadID) {
			result.Matched = true
			bestMatched = score.Value
			result.LeadID = id
			result.Reasons = score.Reasons
		}
	}
	return result
}
