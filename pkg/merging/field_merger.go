package merging

import (
	"strings"

	"github.com/Ramsey-B/clover/pkg/models"
	"github.com/Ramsey-B/clover/pkg/normalizers"
)

// FieldMerger handles field-level merge logic for lead records. Scalars
// prefer the non-empty and, on conflict, the winner's value; list fields
// union with duplicates removed by normalized form; stages promote to the
// further pipeline position; signals keep the higher value per key.
type FieldMerger struct{}

// NewFieldMerger creates a new FieldMerger
func NewFieldMerger() *FieldMerger {
	return &FieldMerger{}
}

// MergeLeads folds the loser's fields into the winner and returns the
// winner. The loser is not modified.
func (m *FieldMerger) MergeLeads(winner, loser *models.Lead) *models.Lead {
	winner.CompanyName = preferNonEmpty(winner.CompanyName, loser.CompanyName)
	winner.Domain = preferNonEmpty(winner.Domain, loser.Domain)
	winner.Website = preferNonEmpty(winner.Website, loser.Website)
	winner.Country = preferNonEmpty(winner.Country, loser.Country)

	winner.Emails = unionBy(winner.Emails, loser.Emails, normalizers.NormalizeEmail)
	winner.Phones = unionBy(winner.Phones, loser.Phones, normalizers.NormalizePhone)
	winner.Tags = unionBy(winner.Tags, loser.Tags, tagKey)

	winner.Stage = models.Promote(winner.Stage, loser.Stage)
	winner.Signals = mergeSignals(winner.Signals, loser.Signals)
	winner.Score = maxScore(winner.Score, loser.Score)

	if !loser.CreatedAt.IsZero() && (winner.CreatedAt.IsZero() || loser.CreatedAt.Before(winner.CreatedAt)) {
		winner.CreatedAt = loser.CreatedAt
	}
	return winner
}

// ApplyCandidate unions a candidate's fields into an existing lead. Returns
// true if anything changed. Present scalar fields only fill gaps; lists
// union. Used when a create lands on an already known record.
func (m *FieldMerger) ApplyCandidate(lead *models.Lead, candidate models.CandidateLead) bool {
	changed := false

	changed = fillScalar(&lead.Domain, candidate.Domain) || changed
	changed = fillScalar(&lead.Website, candidate.Website) || changed
	changed = fillScalar(&lead.Country, candidate.Country) || changed

	changed = unionInto(&lead.Emails, candidate.Emails, normalizers.NormalizeEmail) || changed
	changed = unionInto(&lead.Phones, candidate.Phones, normalizers.NormalizePhone) || changed
	changed = unionInto(&lead.Tags, candidate.Tags, tagKey) || changed

	if len(candidate.Signals) > 0 {
		merged := mergeSignals(lead.Signals, candidate.Signals)
		if !signalsEqual(lead.Signals, merged) {
			lead.Signals = merged
			changed = true
		}
	}
	return changed
}

// ApplyPatch applies a partial update to a lead. Returns true if anything
// changed. Set scalar pointers replace; list fields union only, so a patch
// can never remove a previously seen email, phone or tag.
func (m *FieldMerger) ApplyPatch(lead *models.Lead, patch models.LeadPatch) bool {
	changed := false

	changed = setScalar(&lead.CompanyName, patch.CompanyName) || changed
	changed = setScalar(&lead.Domain, patch.Domain) || changed
	changed = setScalar(&lead.Website, patch.Website) || changed
	changed = setScalar(&lead.Country, patch.Country) || changed

	changed = unionInto(&lead.Emails, patch.Emails, normalizers.NormalizeEmail) || changed
	changed = unionInto(&lead.Phones, patch.Phones, normalizers.NormalizePhone) || changed
	changed = unionInto(&lead.Tags, patch.Tags, tagKey) || changed

	if patch.Score != nil {
		if lead.Score == nil || *lead.Score != *patch.Score {
			score := *patch.Score
			lead.Score = &score
			changed = true
		}
	}
	if len(patch.Signals) > 0 {
		merged := mergeSignals(lead.Signals, patch.Signals)
		if !signalsEqual(lead.Signals, merged) {
			lead.Signals = merged
			changed = true
		}
	}
	return changed
}

func preferNonEmpty(a, b string) string {
	if strings.TrimSpace(a) == "" {
		return b
	}
	return a
}

func fillScalar(target *string, value string) bool {
	if strings.TrimSpace(*target) != "" || strings.TrimSpace(value) == "" {
		return false
	}
	*target = value
	return true
}

func setScalar(target *string, value *string) bool {
	if value == nil || *target == *value {
		return false
	}
	*target = *value
	return true
}

// unionBy appends values from extra whose normalized form is not already
// present. Original (un-normalized) values are preserved.
func unionBy(base, extra []string, keyFn func(string) string) []string {
	out := base
	unionInto(&out, extra, keyFn)
	return out
}

func unionInto(target *[]string, extra []string, keyFn func(string) string) bool {
	if len(extra) == 0 {
		return false
	}
	seen := make(map[string]struct{}, len(*target))
	for _, v := range *target {
		seen[key(v, keyFn)] = struct{}{}
	}
	changed := false
	for _, v := range extra {
		k := key(v, keyFn)
		if k == "" {
			continue
		}
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		*target = append(*target, v)
		changed = true
	}
	return changed
}

func key(value string, keyFn func(string) string) string {
	k := keyFn(value)
	if k == "" {
		// Fall back so malformed values still dedupe exactly.
		k = strings.ToLower(strings.TrimSpace(value))
	}
	return k
}

func tagKey(tag string) string {
	return strings.ToLower(strings.TrimSpace(tag))
}

func mergeSignals(base, extra map[string]float64) map[string]float64 {
	if len(extra) == 0 {
		return base
	}
	merged := make(map[string]float64, len(base)+len(extra))
	for k, v := range base {
		merged[k] = v
	}
	for k, v := range extra {
		if current, ok := merged[k]; !ok || v > current {
			merged[k] = v
		}
	}
	return merged
}

func signalsEqual(a, b map[string]float64) bool {
	if len(a) != len(b) {
		return false
	}
	for k, v := range a {
		if bv, ok := b[k]; !ok || bv != v {
			return false
		}
	}
	return true
}

func maxScore(a, b *float64) *float64 {
	if a == nil {
		return b
	}
	if b == nil || *a >= *b {
		return a
	}
	return b
}
