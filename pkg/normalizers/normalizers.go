// Package normalizers provides field normalization functions for match indexing
package normalizers

import (
	"net/url"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Normalizer is a function that normalizes a string value. Normalizers are
// total: unparsable input yields "", never an error.
type Normalizer func(string) string

// registry holds all registered normalizers
var registry = make(map[string]Normalizer)

func init() {
	// Register built-in normalizers
	Register("lowercase", Lowercase)
	Register("trim", Trim)
	Register("ndomain", NormalizeDomain)
	Register("nurl", NormalizeURL)
	Register("nemail", NormalizeEmail)
	Register("nphone", NormalizePhone)
	Register("ncompany", CanonicalCompanyName)
	Register("ncountry", NormalizeCountry)
	Register("digits_only", DigitsOnly)
}

// Register adds a normalizer to the registry
func Register(name string, fn Normalizer) {
	registry[name] = fn
}

// Get retrieves a normalizer by name
func Get(name string) (Normalizer, bool) {
	fn, ok := registry[name]
	return fn, ok
}

// Apply applies a named normalizer to a value
func Apply(value, normalizer string) string {
	fn, ok := registry[normalizer]
	if !ok {
		return value
	}
	return fn(value)
}

// legalStopwords are legal-entity suffixes and connectors stripped from
// company names so "Acme Inc" and "ACME Incorporated" canonicalize alike.
var legalStopwords = map[string]struct{}{
	"inc": {}, "incorporated": {}, "llc": {}, "ltd": {}, "limited": {},
	"co": {}, "corp": {}, "corporation": {}, "company": {}, "gmbh": {},
	"sa": {}, "srl": {}, "bv": {}, "ag": {}, "plc": {}, "llp": {},
	"and": {}, "the": {},
}

var stripAccents = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Built-in normalizers

// Lowercase converts string to lowercase
func Lowercase(s string) string {
	return strings.ToLower(s)
}

// Trim removes leading and trailing whitespace
func Trim(s string) string {
	return strings.TrimSpace(s)
}

// NormalizeDomain canonicalizes a bare domain or anything URL-shaped down to
// its registrable host: lowercase, scheme/port/path stripped, "www." dropped.
func NormalizeDomain(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return ""
	}
	if strings.Contains(s, "://") {
		if u, err := url.Parse(s); err == nil && u.Host != "" {
			s = u.Host
		} else {
			s = s[strings.Index(s, "://")+3:]
		}
	}
	// Strip path, query, fragment, credentials, port.
	for _, sep := range []string{"/", "?", "#"} {
		if i := strings.Index(s, sep); i >= 0 {
			s = s[:i]
		}
	}
	if i := strings.LastIndex(s, "@"); i >= 0 {
		s = s[i+1:]
	}
	if i := strings.Index(s, ":"); i >= 0 {
		s = s[:i]
	}
	s = strings.TrimPrefix(s, "www.")
	s = strings.Trim(s, ".")
	if !strings.Contains(s, ".") {
		return ""
	}
	return s
}

// NormalizeURL canonicalizes a website URL to host plus path: lowercase host,
// "www." dropped, trailing slash trimmed, scheme, query and fragment removed.
func NormalizeURL(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	if !strings.Contains(s, "://") {
		s = "https://" + s
	}
	u, err := url.Parse(s)
	if err != nil || u.Host == "" {
		return ""
	}
	host := strings.ToLower(u.Host)
	if i := strings.Index(host, ":"); i >= 0 {
		host = host[:i]
	}
	host = strings.TrimPrefix(host, "www.")
	if !strings.Contains(host, ".") {
		return ""
	}
	path := strings.TrimRight(strings.ToLower(u.Path), "/")
	return host + path
}

// NormalizeEmail normalizes an email address (lowercase, trim). Anything
// without a user part and a dotted domain is rejected as "".
func NormalizeEmail(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	at := strings.LastIndex(s, "@")
	if at <= 0 || at == len(s)-1 {
		return ""
	}
	if !strings.Contains(s[at+1:], ".") {
		return ""
	}
	return s
}

// NormalizePhone keeps digits only and strips a leading US/Canada country
// code, so "+1 (555) 010-2345" and "555-010-2345" normalize alike. Fewer than
// seven digits is not a phone number.
func NormalizePhone(s string) string {
	digits := DigitsOnly(s)
	if len(digits) == 11 && strings.HasPrefix(digits, "1") {
		digits = digits[1:]
	}
	if len(digits) < 7 {
		return ""
	}
	return digits
}

// CanonicalCompanyName canonicalizes a company name for matching:
// lowercase, accent-fold, punctuation stripped, legal-entity stopwords
// removed, whitespace collapsed.
func CanonicalCompanyName(s string) string {
	return strings.Join(NameTokens(s), " ")
}

// NameTokens returns the canonical name split into its significant tokens.
func NameTokens(s string) []string {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return nil
	}
	if folded, _, err := transform.String(stripAccents, s); err == nil {
		s = folded
	}

	var b strings.Builder
	for _, r := range s {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
		default:
			b.WriteRune(' ')
		}
	}

	var tokens []string
	for _, tok := range strings.Fields(b.String()) {
		if _, stop := legalStopwords[tok]; stop {
			continue
		}
		tokens = append(tokens, tok)
	}
	if len(tokens) == 0 {
		// Name was nothing but stopwords; keep them rather than erase the
		// identity entirely.
		tokens = strings.Fields(b.String())
	}
	return tokens
}

// NameBucket returns the blocking bucket key for a company name: the first
// rune of the canonical form.
func NameBucket(s string) string {
	canonical := CanonicalCompanyName(s)
	if canonical == "" {
		return ""
	}
	for _, r := range canonical {
		return string(r)
	}
	return ""
}

// NormalizeCountry uppercases and trims an ISO-ish country code.
func NormalizeCountry(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

// DigitsOnly keeps only digit characters
func DigitsOnly(s string) string {
	var result strings.Builder
	for _, r := range s {
		if unicode.IsDigit(r) {
			result.WriteRune(r)
		}
	}
	return result.String()
}
