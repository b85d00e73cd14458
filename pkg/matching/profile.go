package matching

import (
	"github.com/Ramsey-B/clover/pkg/fingerprint"
	"github.com/Ramsey-B/clover/pkg/models"
	"github.com/Ramsey-B/clover/pkg/normalizers"
)

// Profile is the normalized view of a record that matching and blocking work
// from. It is derived, never stored: rebuilding it from the record is always
// safe.
type Profile struct {
	CanonicalName string
	NameTokens    []string
	NameBucket    string
	Domain        string
	URL           string
	Emails        []string
	EmailHashes   []string
	Phones        []string
	Country       string
}

// ProfileOfLead derives the normalized profile of a stored lead.
func ProfileOfLead(lead *models.Lead) Profile {
	return buildProfile(lead.CompanyName, lead.Domain, lead.Website, lead.Emails, lead.Phones, lead.Country)
}

// ProfileOfCandidate derives the normalized profile of an incoming candidate.
func ProfileOfCandidate(candidate models.CandidateLead) Profile {
	return buildProfile(candidate.CompanyName, candidate.Domain, candidate.Website, candidate.Emails, candidate.Phones, candidate.Country)
}

func buildProfile(name, domain, website string, emails, phones []string, country string) Profile {
	p := Profile{
		CanonicalName: normalizers.CanonicalCompanyName(name),
		NameTokens:    normalizers.NameTokens(name),
		NameBucket:    normalizers.NameBucket(name),
		Domain:        normalizers.NormalizeDomain(domain),
		URL:           normalizers.NormalizeURL(website),
		Country:       normalizers.NormalizeCountry(country),
	}
	if p.Domain == "" {
		// A website implies a domain even when none was supplied directly.
		p.Domain = normalizers.NormalizeDomain(website)
	}
	for _, email := range emails {
		normalized := normalizers.NormalizeEmail(email)
		if normalized == "" {
			continue
		}
		p.Emails = appendUnique(p.Emails, normalized)
		p.EmailHashes = appendUnique(p.EmailHashes, fingerprint.EmailHash(normalized))
	}
	for _, phone := range phones {
		normalized := normalizers.NormalizePhone(phone)
		if normalized == "" {
			continue
		}
		p.Phones = appendUnique(p.Phones, normalized)
	}
	return p
}

// HasIdentity reports whether the profile carries at least one usable
// identity signal.
func (p Profile) HasIdentity() bool {
	return p.CanonicalName != "" || p.Domain != "" || p.URL != "" ||
		len(p.Emails) > 0 || len(p.Phones) > 0
}

func appendUnique(values []string, value string) []string {
	for _, v := range values {
		if v == value {
			return values
		}
	}
	return append(values, value)
}
