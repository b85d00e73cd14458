// Package fingerprint derives deterministic, content-addressed lead ids.
package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"

	"github.com/Ramsey-B/clover/pkg/normalizers"
)

// LeadID returns the canonical id for a company name and domain: a SHA256 of
// the normalized "companyName|domain" identity. The same input always yields
// the same id, which makes repeat ingestion of identical records idempotent.
func LeadID(companyName, domain string) string {
	identity := normalizers.CanonicalCompanyName(companyName) + "|" + normalizers.NormalizeDomain(domain)
	hash := sha256.Sum256([]byte(identity))
	return hex.EncodeToString(hash[:])
}

// EmailHash returns the index key for an email address. Emails are hashed
// rather than stored raw in the blocking index.
func EmailHash(email string) string {
	normalized := normalizers.NormalizeEmail(email)
	if normalized == "" {
		return ""
	}
	hash := sha256.Sum256([]byte(normalized))
	return hex.EncodeToString(hash[:])
}
