package matching

import (
	"github.com/Ramsey-B/clover/pkg/models"
)

// Signal weights. Each signal is individually capped by its weight so no
// single signal can dominate beyond it; the sum is clamped to 1.0. The exact
// numbers are calibrated so that the insert threshold (recall) and merge
// threshold (precision) split cleanly: a shared domain plus a matching name
// clears insert, a shared email plus a near-identical name clears merge.
const (
	weightDomain  = 0.50
	weightURL     = 0.20
	weightEmail   = 0.60
	weightPhone   = 0.30
	weightName    = 0.35
	weightCountry = 0.05

	// nameOnlyFloor gates the Jaro-Winkler fallback for records with no
	// structured identifiers. Unrelated company names routinely score in the
	// 0.4-0.6 Jaro range, so anything below the floor reports zero.
	nameOnlyFloor = 0.80
)

// Reason labels reported with a score.
const (
	ReasonIdentityEqual = "identity:equal"
	ReasonDomainExact   = "domain:exact"
	ReasonURLExact      = "url:exact"
	ReasonEmailOverlap  = "email:overlap"
	ReasonPhoneOverlap  = "phone:overlap"
	ReasonNameSimilar   = "name:similar"
	ReasonCountryExact  = "country:exact"
	ReasonNameFallback  = "name:jaro-winkler"
)

// Score computes the similarity of two normalized profiles as a clamped
// weighted sum of independent signals. It is symmetric, and identity-equal
// profiles are pinned to 1.0 so Score(a,a) == 1.0 for any record with a
// non-empty identity. The contributing signal reasons are always reported,
// even on the identity-equal path.
func (s *Scorer) Score(a, b Profile) models.MatchScore {
	score := s.signalScore(a, b)
	if a.HasIdentity() && identityEqual(a, b) {
		score.Value = 1.0
		score.Reasons = append(score.Reasons, ReasonIdentityEqual)
	}
	return score
}

func (s *Scorer) signalScore(a, b Profile) models.MatchScore {
	var value float64
	var reasons []string

	domainScore := 0.0
	if a.Domain != "" && a.Domain == b.Domain {
		domainScore = weightDomain
		value += domainScore
		reasons = append(reasons, ReasonDomainExact)
	}

	urlScore := 0.0
	if a.URL != "" && a.URL == b.URL {
		urlScore = weightURL
		value += urlScore
		reasons = append(reasons, ReasonURLExact)
	}

	emailScore := s.Jaccard(a.Emails, b.Emails) * weightEmail
	if emailScore > 0 {
		value += emailScore
		reasons = append(reasons, ReasonEmailOverlap)
	}

	phoneScore := s.Jaccard(a.Phones, b.Phones) * weightPhone
	if phoneScore > 0 {
		value += phoneScore
		reasons = append(reasons, ReasonPhoneOverlap)
	}

	structured := domainScore > 0 || urlScore > 0 || emailScore > 0 || phoneScore > 0
	if !structured {
		// Pure name-only comparison: Jaro-Winkler (prefix-boosted) on the
		// canonical names is the sole signal, gated at a high floor.
		if a.CanonicalName == "" || b.CanonicalName == "" {
			return models.MatchScore{Value: 0}
		}
		jw := s.JaroWinkler(a.CanonicalName, b.CanonicalName)
		if jw < nameOnlyFloor {
			return models.MatchScore{Value: 0}
		}
		return models.MatchScore{Value: clamp(jw), Reasons: []string{ReasonNameFallback}}
	}

	nameScore := s.nameSimilarity(a, b) * weightName
	if nameScore > 0 {
		value += nameScore
		reasons = append(reasons, ReasonNameSimilar)
	}

	if a.Country != "" && a.Country == b.Country {
		value += weightCountry
		reasons = append(reasons, ReasonCountryExact)
	}

	return models.MatchScore{Value: clamp(value), Reasons: reasons}
}

// nameSimilarity blends token overlap with string similarity: token Jaccard
// handles reordered or partially overlapping names, Jaro-Winkler handles
// small edits.
func (s *Scorer) nameSimilarity(a, b Profile) float64 {
	if a.CanonicalName == "" || b.CanonicalName == "" {
		return 0
	}
	tokens := s.Jaccard(a.NameTokens, b.NameTokens)
	jw := s.JaroWinkler(a.CanonicalName, b.CanonicalName)
	return max(tokens, jw)
}

func identityEqual(a, b Profile) bool {
	return a.CanonicalName == b.CanonicalName &&
		a.Domain == b.Domain &&
		a.URL == b.URL &&
		a.Country == b.Country &&
		sameSet(a.Emails, b.Emails) &&
		sameSet(a.Phones, b.Phones)
}

func sameSet(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	seen := make(map[string]struct{}, len(a))
	for _, v := range a {
		seen[v] = struct{}{}
	}
	for _, v := range b {
		if _, ok := seen[v]; !ok {
			return false
		}
	}
	return true
}

func clamp(v float64) float64 {
	if v > 1.0 {
		return 1.0
	}
	if v < 0 {
		return 0
	}
	return v
}
