// Package resolution implements the per-namespace entity resolution engine:
// candidate intake, duplicate matching, merge and lifecycle management, and
// snapshot/restore. A Service owns its record store and blocking index
// outright; nothing here is process-global.
//
// Concurrency contract: a Service has no internal locking. All mutating
// operations are synchronous and run to completion; callers serialize
// mutations per namespace (the intake processor does this with one dispatch
// goroutine per namespace).
package resolution

import (
	"context"
	"strings"
	"time"

	"github.com/Gobusters/ectologger"

	"github.com/Ramsey-B/clover/internal/repositories/lead"
	"github.com/Ramsey-B/clover/internal/repositories/matchindex"
	"github.com/Ramsey-B/clover/pkg/events"
	"github.com/Ramsey-B/clover/pkg/fingerprint"
	"github.com/Ramsey-B/clover/pkg/matching"
	"github.com/Ramsey-B/clover/pkg/merging"
	"github.com/Ramsey-B/clover/pkg/metrics"
	"github.com/Ramsey-B/clover/pkg/models"
	"github.com/Ramsey-B/clover/pkg/normalizers"
	"github.com/Ramsey-B/clover/pkg/tracing"
	"github.com/Ramsey-B/clover/pkg/utils"
)

// Config contains configuration for a resolution service.
type Config struct {
	InsertMatchThreshold  float64 // Recall-favoring threshold applied at intake (default: 0.80)
	AutoMergeThreshold    float64 // Precision-favoring threshold for automatic merges (default: 0.92)
	MaxCandidates         int     // Maximum candidates scored per lookup (default: 100)
	MaxBucketSize         int     // Name bucket size before sub-bucketing kicks in (default: 500)
	SnapshotKeepRedirects bool    // Include tombstones-with-redirect in snapshots
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		InsertMatchThreshold:  0.80,
		AutoMergeThreshold:    0.92,
		MaxCandidates:         100,
		MaxBucketSize:         500,
		SnapshotKeepRedirects: true,
	}
}

// Service is the single-writer resolution engine for one namespace.
type Service struct {
	log       ectologger.Logger
	namespace string
	cfg       Config
	leads     *lead.Repository
	index     *matchindex.Repository
	engine    *matching.Engine
	merger    *merging.FieldMerger
	emitter   *events.Emitter
}

// NewService creates a resolution service with a fresh store and index.
func NewService(log ectologger.Logger, namespace string, cfg Config, emitter *events.Emitter) *Service {
	leads := lead.NewRepository(log)
	index := matchindex.NewRepository(log, cfg.MaxBucketSize)
	return &Service{
		log:       log,
		namespace: namespace,
		cfg:       cfg,
		leads:     leads,
		index:     index,
		engine: matching.NewEngine(matching.Config{
			InsertMatchThreshold: cfg.InsertMatchThreshold,
			AutoMergeThreshold:   cfg.AutoMergeThreshold,
			MaxCandidates:        cfg.MaxCandidates,
		}, leads, index),
		merger:  merging.NewFieldMerger(),
		emitter: emitter,
	}
}

// Namespace returns the namespace this service owns.
func (s *Service) Namespace() string {
	return s.namespace
}

// Create ingests a candidate as a new canonical record. The id is a content
// hash of the normalized company name and domain, so creating the same
// identity twice lands on the same record: the second call unions the
// candidate's fields into it instead of raising a conflict.
func (s *Service) Create(ctx context.Context, candidate models.CandidateLead) (*models.Lead, error) {
	ctx, span := tracing.StartSpan(ctx, "resolution.Service.Create")
	defer span.End()

	if err := s.validateCandidate(candidate); err != nil {
		return nil, err
	}

	id := fingerprint.LeadID(candidate.CompanyName, candidate.Domain)
	log := s.log.WithContext(ctx).WithFields(map[string]any{
		"namespace": s.namespace,
		"lead_id":   id,
	})

	existing, ok := s.leads.Get(ctx, id)
	if ok && existing.Redirects() {
		// The identity was merged away; the candidate belongs to the winner.
		winner, err := s.leads.Resolve(ctx, id)
		if err != nil {
			return nil, err
		}
		return s.absorb(ctx, winner, candidate, nil)
	}
	if ok && !existing.IsTombstone() {
		return s.absorb(ctx, existing, candidate, nil)
	}
	// Unknown id, or a removed tombstone being recreated.

	now := time.Now().UTC()
	created := &models.Lead{
		ID:          id,
		CompanyName: candidate.CompanyName,
		Domain:      candidate.Domain,
		Website:     candidate.Website,
		Emails:      candidate.Emails,
		Phones:      candidate.Phones,
		Country:     candidate.Country,
		Tags:        candidate.Tags,
		Stage:       models.StageNew,
		Signals:     candidate.Signals,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	s.leads.Save(ctx, created)
	s.index.Index(ctx, id, matching.ProfileOfLead(created))
	s.syncGauges()

	log.Debug("Created lead")
	s.emitter.EmitLeadCreated(ctx, s.namespace, created.Clone())
	return created, nil
}

// Upsert is the intake path for acquisition connectors: find the best match
// at the insert threshold and fold the candidate into it, or create a new
// record when nothing matches.
func (s *Service) Upsert(ctx context.Context, candidate models.CandidateLead) (*models.Lead, *models.MatchResult, error) {
	ctx, span := tracing.StartSpan(ctx, "resolution.Service.Upsert")
	defer span.End()

	if err := s.validateCandidate(candidate); err != nil {
		return nil, nil, err
	}

	profile := matching.ProfileOfCandidate(candidate)
	result := s.engine.FindMatch(ctx, profile, s.cfg.InsertMatchThreshold)
	metrics.CandidatesScored.WithLabelValues(s.namespace).Observe(float64(result.Candidates))
	metrics.MatchScoreDistribution.WithLabelValues(s.namespace).Observe(result.Score)

	if !result.Matched {
		metrics.CandidatesProcessedTotal.WithLabelValues(s.namespace, "created").Inc()
		created, err := s.Create(ctx, candidate)
		return created, result, err
	}

	outcome := "matched"
	if result.Score >= s.cfg.AutoMergeThreshold {
		outcome = "auto_merged"
		metrics.MergesTotal.WithLabelValues(s.namespace, "auto").Inc()
	}
	metrics.CandidatesProcessedTotal.WithLabelValues(s.namespace, outcome).Inc()

	target, err := s.leads.Resolve(ctx, result.LeadID)
	if err != nil {
		return nil, nil, err
	}
	updated, err := s.absorb(ctx, target, candidate, result)
	return updated, result, err
}

// absorb unions a candidate's fields into an existing record, keeping the
// index consistent and emitting lead.updated when anything changed.
func (s *Service) absorb(ctx context.Context, target *models.Lead, candidate models.CandidateLead, match *models.MatchResult) (*models.Lead, error) {
	before := matching.ProfileOfLead(target)
	if !s.merger.ApplyCandidate(target, candidate) {
		return target, nil
	}
	target.UpdatedAt = time.Now().UTC()
	s.index.Deindex(ctx, target.ID, before)
	s.index.Index(ctx, target.ID, matching.ProfileOfLead(target))
	s.leads.Save(ctx, target)

	s.emitter.EmitLeadUpdated(ctx, s.namespace, target.Clone(), match)
	return target, nil
}

// Patch applies a typed partial update. Merged-away ids resolve one hop to
// the live winner; removed or unknown ids fail with UnknownIDError.
func (s *Service) Patch(ctx context.Context, id string, patch models.LeadPatch) (*models.Lead, error) {
	ctx, span := tracing.StartSpan(ctx, "resolution.Service.Patch")
	defer span.End()

	if patch.CompanyName != nil && strings.TrimSpace(*patch.CompanyName) == "" {
		return nil, models.NewValidationError("company_name", "must not be empty")
	}

	target, err := s.leads.Resolve(ctx, id)
	if err != nil {
		return nil, err
	}

	before := matching.ProfileOfLead(target)
	if !s.merger.ApplyPatch(target, patch) {
		return target, nil
	}
	target.UpdatedAt = time.Now().UTC()
	s.index.Deindex(ctx, target.ID, before)
	s.index.Index(ctx, target.ID, matching.ProfileOfLead(target))
	s.leads.Save(ctx, target)

	s.emitter.EmitLeadUpdated(ctx, s.namespace, target.Clone(), nil)
	return target, nil
}

// Merge folds the loser into the winner. The loser becomes a tombstone
// redirecting to the winner, its index entries move to the winner in the same
// step, and any older redirects that pointed at the loser are re-pointed so a
// chain never grows past one hop.
func (s *Service) Merge(ctx context.Context, winnerID, loserID string) (*models.Lead, error) {
	ctx, span := tracing.StartSpan(ctx, "resolution.Service.Merge")
	defer span.End()

	winner, err := s.leads.Resolve(ctx, winnerID)
	if err != nil {
		return nil, err
	}
	loser, err := s.leads.Resolve(ctx, loserID)
	if err != nil {
		return nil, err
	}
	if winner.ID == loser.ID {
		return winner, nil
	}

	log := s.log.WithContext(ctx).WithFields(map[string]any{
		"namespace": s.namespace,
		"winner_id": winner.ID,
		"loser_id":  loser.ID,
	})

	winnerBefore := matching.ProfileOfLead(winner)
	loserProfile := matching.ProfileOfLead(loser)

	s.merger.MergeLeads(winner, loser)
	now := time.Now().UTC()
	winner.UpdatedAt = now

	loser.DeletedAt = &now
	loser.MergedInto = winner.ID
	loser.UpdatedAt = now

	// Collapse any chain ending at the loser before it becomes a middle link.
	for _, other := range s.leads.All(ctx) {
		if other.Redirects() && other.MergedInto == loser.ID {
			other.MergedInto = winner.ID
			s.leads.Save(ctx, other)
		}
	}

	s.index.Deindex(ctx, loser.ID, loserProfile)
	s.index.Deindex(ctx, winner.ID, winnerBefore)
	s.index.Index(ctx, winner.ID, matching.ProfileOfLead(winner))
	s.leads.Save(ctx, loser)
	s.leads.Save(ctx, winner)
	s.syncGauges()

	metrics.MergesTotal.WithLabelValues(s.namespace, "explicit").Inc()
	log.Info("Merged leads")
	s.emitter.EmitLeadMerged(ctx, s.namespace, winner.Clone(), loser.ID)
	return winner, nil
}

// Remove tombstones the record and strips it from every index map in the
// same step. Unlike the other mutations, Remove does not follow merge
// redirects: destroying the winner because the caller held a stale loser id
// is the wrong blast radius, so a merged-away id fails with
// RedirectedIDError naming the live winner.
func (s *Service) Remove(ctx context.Context, id string) error {
	ctx, span := tracing.StartSpan(ctx, "resolution.Service.Remove")
	defer span.End()

	target, ok := s.leads.Get(ctx, id)
	if !ok || (target.IsTombstone() && !target.Redirects()) {
		return models.NewUnknownIDError(id)
	}
	if target.Redirects() {
		return models.NewRedirectedIDError(id, target.MergedInto)
	}

	now := time.Now().UTC()
	s.index.Deindex(ctx, target.ID, matching.ProfileOfLead(target))
	target.DeletedAt = &now
	target.UpdatedAt = now
	s.leads.Save(ctx, target)
	s.syncGauges()

	s.emitter.EmitLeadDeleted(ctx, s.namespace, target.ID)
	return nil
}

// UpdateStage moves the record through the lifecycle state machine: forward
// along spam < new < qualified < outreach < engaged < {won, lost} only, spam
// reachable from any non-terminal stage, terminal stages never reopened.
func (s *Service) UpdateStage(ctx context.Context, id string, stage models.Stage) (*models.Lead, error) {
	ctx, span := tracing.StartSpan(ctx, "resolution.Service.UpdateStage")
	defer span.End()

	if !stage.IsValid() {
		return nil, models.NewValidationError("stage", "unknown stage '"+string(stage)+"'")
	}

	target, err := s.leads.Resolve(ctx, id)
	if err != nil {
		return nil, err
	}
	if target.Stage == stage {
		return target, nil
	}
	if !target.Stage.CanTransitionTo(stage) {
		return nil, models.NewValidationError("stage", "cannot transition from '"+string(target.Stage)+"' to '"+string(stage)+"'")
	}

	previous := target.Stage
	target.Stage = stage
	target.UpdatedAt = time.Now().UTC()
	s.leads.Save(ctx, target)

	metrics.StageTransitionsTotal.WithLabelValues(s.namespace, string(previous), string(stage)).Inc()
	s.emitter.EmitStageChanged(ctx, s.namespace, target.Clone(), previous)
	return target, nil
}

// Get returns the live record for the id, following a merge redirect one hop.
func (s *Service) Get(ctx context.Context, id string) (*models.Lead, error) {
	ctx, span := tracing.StartSpan(ctx, "resolution.Service.Get")
	defer span.End()

	return s.leads.Resolve(ctx, id)
}

// FindMatch scores a candidate against the namespace's records at the given
// threshold. A zero threshold means the configured insert threshold.
func (s *Service) FindMatch(ctx context.Context, candidate models.CandidateLead, threshold float64) (*models.MatchResult, error) {
	ctx, span := tracing.StartSpan(ctx, "resolution.Service.FindMatch")
	defer span.End()

	if err := s.validateCandidate(candidate); err != nil {
		return nil, err
	}
	if threshold <= 0 {
		threshold = s.cfg.InsertMatchThreshold
	}
	return s.engine.FindMatch(ctx, matching.ProfileOfCandidate(candidate), threshold), nil
}

// Query returns live records matching the filter, ordered by id. Zero filter
// fields match everything.
func (s *Service) Query(ctx context.Context, filter models.QueryFilter) []*models.Lead {
	ctx, span := tracing.StartSpan(ctx, "resolution.Service.Query")
	defer span.End()

	domain := normalizers.NormalizeDomain(filter.Domain)
	country := normalizers.NormalizeCountry(filter.Country)
	tag := strings.ToLower(strings.TrimSpace(filter.Tag))

	var out []*models.Lead
	for _, candidate := range s.leads.Live(ctx) {
		if filter.Stage != "" && candidate.Stage != filter.Stage {
			continue
		}
		if country != "" && normalizers.NormalizeCountry(candidate.Country) != country {
			continue
		}
		if domain != "" && matching.ProfileOfLead(candidate).Domain != domain {
			continue
		}
		if tag != "" && !hasTag(candidate.Tags, tag) {
			continue
		}
		out = append(out, candidate)
	}
	return out
}

func (s *Service) validateCandidate(candidate models.CandidateLead) error {
	if err := utils.Validate(candidate); err != nil {
		return err
	}
	if strings.TrimSpace(candidate.CompanyName) == "" {
		return models.NewValidationError("company_name", "must not be empty")
	}
	return nil
}

func (s *Service) syncGauges() {
	metrics.LiveLeads.WithLabelValues(s.namespace).Set(float64(s.leads.LiveCount(context.Background())))
}

func hasTag(tags []string, tag string) bool {
	for _, t := range tags {
		if strings.ToLower(strings.TrimSpace(t)) == tag {
			return true
		}
	}
	return false
}
