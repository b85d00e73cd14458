package resolution

import (
	"context"
	"fmt"

	"github.com/Ramsey-B/clover/pkg/matching"
	"github.com/Ramsey-B/clover/pkg/metrics"
	"github.com/Ramsey-B/clover/pkg/models"
	"github.com/Ramsey-B/clover/pkg/tracing"
)

// Snapshot serializes the namespace's records. Live records are always
// included; tombstones that still redirect to a merge winner are included
// when the retention policy keeps them, so old ids keep resolving after a
// restore. Removed tombstones and the blocking index are never included: the
// index is a derived projection, rebuilt from records on restore.
func (s *Service) Snapshot(ctx context.Context) *models.Snapshot {
	ctx, span := tracing.StartSpan(ctx, "resolution.Service.Snapshot")
	defer span.End()

	records := make(map[string]*models.Lead)
	for _, l := range s.leads.All(ctx) {
		if l.IsTombstone() && !(s.cfg.SnapshotKeepRedirects && l.Redirects()) {
			continue
		}
		records[l.ID] = l
	}

	metrics.SnapshotsTotal.WithLabelValues(s.namespace, "snapshot", "ok").Inc()
	s.log.WithContext(ctx).WithFields(map[string]any{
		"namespace": s.namespace,
		"records":   len(records),
	}).Debug("Captured snapshot")

	return &models.Snapshot{
		Version: models.SnapshotVersion,
		Records: records,
	}
}

// Restore replaces all in-memory state with the snapshot's records and
// rebuilds the blocking index purely from them. Unknown snapshot versions
// are rejected; migration belongs to the persistence collaborator.
func (s *Service) Restore(ctx context.Context, snapshot *models.Snapshot) error {
	ctx, span := tracing.StartSpan(ctx, "resolution.Service.Restore")
	defer span.End()

	if snapshot == nil {
		metrics.SnapshotsTotal.WithLabelValues(s.namespace, "restore", "rejected").Inc()
		return models.NewValidationError("snapshot", "must not be nil")
	}
	if snapshot.Version != models.SnapshotVersion {
		metrics.SnapshotsTotal.WithLabelValues(s.namespace, "restore", "rejected").Inc()
		return models.NewValidationError("version", fmt.Sprintf("unsupported snapshot version %d, want %d", snapshot.Version, models.SnapshotVersion))
	}
	// A decodable snapshot can still carry garbage entries (null records,
	// blank or mismatched ids). Reject the whole snapshot rather than restore
	// a partial namespace.
	for id, l := range snapshot.Records {
		if l == nil {
			metrics.SnapshotsTotal.WithLabelValues(s.namespace, "restore", "rejected").Inc()
			return models.NewValidationError("records", fmt.Sprintf("record %q is null", id))
		}
		if id == "" || l.ID != id {
			metrics.SnapshotsTotal.WithLabelValues(s.namespace, "restore", "rejected").Inc()
			return models.NewValidationError("records", fmt.Sprintf("record id %q does not match its key %q", l.ID, id))
		}
	}

	s.leads.Replace(ctx, snapshot.Records)
	s.index.Clear(ctx)
	for _, l := range s.leads.Live(ctx) {
		s.index.Index(ctx, l.ID, matching.ProfileOfLead(l))
	}
	s.syncGauges()

	metrics.SnapshotsTotal.WithLabelValues(s.namespace, "restore", "ok").Inc()
	s.log.WithContext(ctx).WithFields(map[string]any{
		"namespace": s.namespace,
		"records":   len(snapshot.Records),
	}).Info("Restored snapshot")
	return nil
}
