package lead

import (
	"context"
	"sort"

	"github.com/Gobusters/ectologger"

	"github.com/Ramsey-B/clover/pkg/models"
)

// Repository is the in-memory record store for a single namespace. It is not
// safe for concurrent use; callers serialize access per namespace.
type Repository struct {
	logger ectologger.Logger
	leads  map[string]*models.Lead
}

// NewRepository creates a new lead repository
func NewRepository(logger ectologger.Logger) *Repository {
	return &Repository{
		logger: logger,
		leads:  make(map[string]*models.Lead),
	}
}

// Save stores the lead, replacing any existing record with the same id.
func (r *Repository) Save(ctx context.Context, lead *models.Lead) {
	r.leads[lead.ID] = lead.Clone()
}

// Get returns the record with the given id, tombstoned or not. The returned
// lead is a copy; mutating it does not change the store.
func (r *Repository) Get(ctx context.Context, id string) (*models.Lead, bool) {
	lead, ok := r.leads[id]
	if !ok {
		return nil, false
	}
	return lead.Clone(), true
}

// GetLive returns the record with the given id only if it has not been
// tombstoned.
func (r *Repository) GetLive(ctx context.Context, id string) (*models.Lead, bool) {
	lead, ok := r.leads[id]
	if !ok || lead.IsTombstone() {
		return nil, false
	}
	return lead.Clone(), true
}

// Resolve returns the live record for the given id, following a merge
// redirect one hop. Unknown ids and removed records return UnknownIDError. A
// redirect whose target is itself merged away would need a second hop, which
// the merge invariant forbids; that returns MergeCycleError.
func (r *Repository) Resolve(ctx context.Context, id string) (*models.Lead, error) {
	lead, ok := r.leads[id]
	if !ok {
		return nil, models.NewUnknownIDError(id)
	}
	if lead.Redirects() {
		target, ok := r.leads[lead.MergedInto]
		if !ok {
			r.logger.WithContext(ctx).WithFields(map[string]any{
				"id":          id,
				"merged_into": lead.MergedInto,
			}).Error("Merge redirect points at a missing record")
			return nil, models.NewUnknownIDError(id)
		}
		if target.Redirects() {
			return nil, models.NewMergeCycleError(id, lead.MergedInto, "redirect target is itself merged away")
		}
		if target.IsTombstone() {
			return nil, models.NewUnknownIDError(id)
		}
		return target.Clone(), nil
	}
	if lead.IsTombstone() {
		return nil, models.NewUnknownIDError(id)
	}
	return lead.Clone(), nil
}

// Live returns every non-tombstoned record, ordered by id.
func (r *Repository) Live(ctx context.Context) []*models.Lead {
	leads := make([]*models.Lead, 0, len(r.leads))
	for _, lead := range r.leads {
		if lead.IsTombstone() {
			continue
		}
		leads = append(leads, lead.Clone())
	}
	sort.Slice(leads, func(i, j int) bool { return leads[i].ID < leads[j].ID })
	return leads
}

// All returns every record including tombstones, ordered by id.
func (r *Repository) All(ctx context.Context) []*models.Lead {
	leads := make([]*models.Lead, 0, len(r.leads))
	for _, lead := range r.leads {
		leads = append(leads, lead.Clone())
	}
	sort.Slice(leads, func(i, j int) bool { return leads[i].ID < leads[j].ID })
	return leads
}

// Count returns the number of records including tombstones.
func (r *Repository) Count(ctx context.Context) int {
	return len(r.leads)
}

// LiveCount returns the number of non-tombstoned records.
func (r *Repository) LiveCount(ctx context.Context) int {
	count := 0
	for _, lead := range r.leads {
		if !lead.IsTombstone() {
			count++
		}
	}
	return count
}

// Replace swaps the store's contents wholesale. Used by restore.
func (r *Repository) Replace(ctx context.Context, leads map[string]*models.Lead) {
	replacement := make(map[string]*models.Lead, len(leads))
	for id, lead := range leads {
		replacement[id] = lead.Clone()
	}
	r.leads = replacement
	r.logger.WithContext(ctx).WithFields(map[string]any{
		"records": len(replacement),
	}).Debug("Replaced lead store contents")
}

// Export copies the store's contents for snapshotting.
func (r *Repository) Export(ctx context.Context) map[string]*models.Lead {
	out := make(map[string]*models.Lead, len(r.leads))
	for id, lead := range r.leads {
		out[id] = lead.Clone()
	}
	return out
}
