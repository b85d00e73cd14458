package matching

import (
	"strings"
)

// Scorer provides the string and set comparison algorithms used by the
// match engine.
type Scorer struct{}

// NewScorer creates a new Scorer
func NewScorer() *Scorer {
	return &Scorer{}
}

// ExactMatch returns 1.0 for exact match, 0.0 otherwise
func (s *Scorer) ExactMatch(a, b string, caseSensitive bool) float64 {
	if !caseSensitive {
		a = strings.ToLower(a)
		b = strings.ToLower(b)
	}
	if a == b {
		return 1.0
	}
	return 0.0
}

// JaroWinkler calculates the Jaro-Winkler similarity between two strings:
// the Jaro similarity boosted by 0.1 per matching leading character, up to
// four characters. Returns a value between 0.0 and 1.0.
func (s *Scorer) JaroWinkler(a, b string) float64 {
	if a == b {
		return 1.0
	}

	jaro := s.Jaro(a, b)

	// Winkler modification: boost for common prefix
	prefixLen := 0
	maxPrefix := 4
	for i := 0; i < len(a) && i < len(b) && i < maxPrefix; i++ {
		if a[i] == b[i] {
			prefixLen++
		} else {
			break
		}
	}

	scalingFactor := 0.1
	return jaro + float64(prefixLen)*scalingFactor*(1.0-jaro)
}

// Jaro calculates the Jaro similarity between two strings
func (s *Scorer) Jaro(a, b string) float64 {
	if a == b {
		return 1.0
	}
	if len(a) == 0 || len(b) == 0 {
		return 0.0
	}

	// Maximum distance for character matching
	matchDist := max(len(a), len(b))/2 - 1
	if matchDist < 0 {
		matchDist = 0
	}

	aMatches := make([]bool, len(a))
	bMatches := make([]bool, len(b))

	matches := 0
	transpositions := 0

	// Find matches
	for i := 0; i < len(a); i++ {
		start := max(0, i-matchDist)
		end := min(len(b), i+matchDist+1)

		for j := start; j < end; j++ {
			if bMatches[j] || a[i] != b[j] {
				continue
			}
			aMatches[i] = true
			bMatches[j] = true
			matches++
			break
		}
	}

	if matches == 0 {
		return 0.0
	}

	// Count transpositions
	k := 0
	for i := 0; i < len(a); i++ {
		if !aMatches[i] {
			continue
		}
		for !bMatches[k] {
			k++
		}
		if a[i] != b[k] {
			transpositions++
		}
		k++
	}

	m := float64(matches)
	t := float64(transpositions) / 2

	return (m/float64(len(a)) + m/float64(len(b)) + (m-t)/m) / 3
}

// Jaccard calculates set overlap between two string slices: the size of the
// intersection over the size of the union. Empty slices score 0.
func (s *Scorer) Jaccard(a, b []string) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0.0
	}

	setA := make(map[string]struct{}, len(a))
	for _, v := range a {
		setA[v] = struct{}{}
	}

	union := make(map[string]struct{}, len(a)+len(b))
	for v := range setA {
		union[v] = struct{}{}
	}

	intersection := 0
	for _, v := range b {
		if _, seen := union[v]; !seen {
			union[v] = struct{}{}
			continue
		}
		if _, inA := setA[v]; inA {
			// Count each shared value once even if b repeats it.
			delete(setA, v)
			intersection++
		}
	}

	return float64(intersection) / float64(len(union))
}
