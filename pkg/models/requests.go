package models

// CandidateLead is a raw, partially-identified record from an acquisition
// channel (crawler, search connector, manual intake).
type CandidateLead struct {
	CompanyName string             `json:"company_name" validate:"required"`
	Domain      string             `json:"domain,omitempty"`
	Website     string             `json:"website,omitempty"`
	Emails      []string           `json:"emails,omitempty"`
	Phones      []string           `json:"phones,omitempty"`
	Country     string             `json:"country,omitempty"`
	Tags        []string           `json:"tags,omitempty"`
	Signals     map[string]float64 `json:"signals,omitempty"`
}

// LeadPatch is a strongly-typed partial update. Nil scalar pointers mean
// "leave unchanged"; list fields are unioned into the record, never replaced,
// so a caller omitting a field can never shrink it.
type LeadPatch struct {
	CompanyName *string            `json:"company_name,omitempty"`
	Domain      *string            `json:"domain,omitempty"`
	Website     *string            `json:"website,omitempty"`
	Emails      []string           `json:"emails,omitempty"`
	Phones      []string           `json:"phones,omitempty"`
	Country     *string            `json:"country,omitempty"`
	Tags        []string           `json:"tags,omitempty"`
	Score       *float64           `json:"score,omitempty"`
	Signals     map[string]float64 `json:"signals,omitempty"`
}

// IsEmpty reports whether the patch carries no changes at all.
func (p LeadPatch) IsEmpty() bool {
	return p.CompanyName == nil && p.Domain == nil && p.Website == nil &&
		p.Country == nil && p.Score == nil &&
		len(p.Emails) == 0 && len(p.Phones) == 0 && len(p.Tags) == 0 &&
		len(p.Signals) == 0
}

// QueryFilter selects live leads. Zero values match everything.
type QueryFilter struct {
	Stage   Stage  `json:"stage,omitempty"`
	Country string `json:"country,omitempty"`
	Domain  string `json:"domain,omitempty"`
	Tag     string `json:"tag,omitempty"`
}
