package matchindex

import (
	"context"
	"strings"

	"github.com/Gobusters/ectologger"

	"github.com/Ramsey-B/clover/pkg/matching"
)

type bucket map[string]struct{}

// Repository is the in-memory blocking index for a single namespace. Each
// record is indexed under every blocking key its profile produces, so a
// candidate lookup only ever scores records that share at least one key. Not
// safe for concurrent use; callers serialize access per namespace.
type Repository struct {
	logger        ectologger.Logger
	maxBucketSize int

	domains     map[string]bucket
	urls        map[string]bucket
	emailHashes map[string]bucket
	phones      map[string]bucket

	// nameBuckets keys on the first rune of the canonical name. namePairs
	// keys on the leading token pair and is consulted instead whenever a
	// first-rune bucket outgrows maxBucketSize.
	nameBuckets map[string]bucket
	namePairs   map[string]bucket
}

// NewRepository creates a new blocking index repository
func NewRepository(logger ectologger.Logger, maxBucketSize int) *Repository {
	r := &Repository{
		logger:        logger,
		maxBucketSize: maxBucketSize,
	}
	r.reset()
	return r
}

func (r *Repository) reset() {
	r.domains = make(map[string]bucket)
	r.urls = make(map[string]bucket)
	r.emailHashes = make(map[string]bucket)
	r.phones = make(map[string]bucket)
	r.nameBuckets = make(map[string]bucket)
	r.namePairs = make(map[string]bucket)
}

// Index adds the record id under every blocking key in the profile.
func (r *Repository) Index(ctx context.Context, id string, profile matching.Profile) {
	add(r.domains, profile.Domain, id)
	add(r.urls, profile.URL, id)
	for _, hash := range profile.EmailHashes {
		add(r.emailHashes, hash, id)
	}
	for _, phone := range profile.Phones {
		add(r.phones, phone, id)
	}
	add(r.nameBuckets, profile.NameBucket, id)
	add(r.namePairs, pairKey(profile.NameTokens), id)
}

// Deindex removes the record id from every blocking key in the profile. The
// profile must be derived from the record as it was indexed.
func (r *Repository) Deindex(ctx context.Context, id string, profile matching.Profile) {
	remove(r.domains, profile.Domain, id)
	remove(r.urls, profile.URL, id)
	for _, hash := range profile.EmailHashes {
		remove(r.emailHashes, hash, id)
	}
	for _, phone := range profile.Phones {
		remove(r.phones, phone, id)
	}
	remove(r.nameBuckets, profile.NameBucket, id)
	remove(r.namePairs, pairKey(profile.NameTokens), id)
}

// Clear drops every bucket. Used before a rebuild.
func (r *Repository) Clear(ctx context.Context) {
	r.reset()
	r.logger.WithContext(ctx).Debug("Cleared blocking index")
}

// CandidatesFor returns the union of ids sharing any blocking key with the
// profile. When the profile's first-rune name bucket has outgrown the size
// cap, the tighter leading-token-pair bucket is used for the name signal.
func (r *Repository) CandidatesFor(profile matching.Profile) []string {
	seen := make(map[string]struct{})

	collect := func(b bucket) {
		for id := range b {
			seen[id] = struct{}{}
		}
	}

	collect(r.domains[profile.Domain])
	collect(r.urls[profile.URL])
	for _, hash := range profile.EmailHashes {
		collect(r.emailHashes[hash])
	}
	for _, phone := range profile.Phones {
		collect(r.phones[phone])
	}

	if profile.NameBucket != "" {
		nameBucket := r.nameBuckets[profile.NameBucket]
		if r.maxBucketSize > 0 && len(nameBucket) > r.maxBucketSize {
			collect(r.namePairs[pairKey(profile.NameTokens)])
		} else {
			collect(nameBucket)
		}
	}

	ids := make([]string, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	return ids
}

func pairKey(tokens []string) string {
	if len(tokens) == 0 {
		return ""
	}
	if len(tokens) == 1 {
		return tokens[0]
	}
	return tokens[0] + " " + tokens[1]
}

func add(buckets map[string]bucket, key, id string) {
	if strings.TrimSpace(key) == "" {
		return
	}
	b, ok := buckets[key]
	if !ok {
		b = make(bucket)
		buckets[key] = b
	}
	b[id] = struct{}{}
}

func remove(buckets map[string]bucket, key, id string) {
	if key == "" {
		return
	}
	b, ok := buckets[key]
	if !ok {
		return
	}
	delete(b, id)
	if len(b) == 0 {
		delete(buckets, key)
	}
}
