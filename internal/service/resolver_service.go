package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/paper-track-api/internal/catalog"
	"github.com/noah-isme/paper-track-api/internal/models"
	appErrors "github.com/noah-isme/paper-track-api/pkg/errors"
)

type resolverPaperReader interface {
	FindByID(ctx context.Context, id string) (*models.Paper, error)
}

type resolverStudentReader interface {
	FindProfile(ctx context.Context, userID string) (*models.StudentProfile, error)
}

type resolverSessionReader interface {
	Get(ctx context.Context) (*models.SessionSettings, error)
}

type resolverVersionReader interface {
	ListActiveByPaper(ctx context.Context, paperID string) ([]models.DocumentVersion, error)
}

type resolverCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	DeleteByPattern(ctx context.Context, pattern string) error
}

// ResolvedSlot pairs a catalog entry with the versions currently on file.
type ResolvedSlot struct {
	Spec   catalog.DocumentSpec
	Active []models.DocumentVersion
}

// ResolverService evaluates the document catalog against a paper snapshot
// and returns the slots that apply, in declaration order. The catalog-index
// projection is cached per paper; version annotations are always fresh.
type ResolverService struct {
	papers   resolverPaperReader
	students resolverStudentReader
	sessions resolverSessionReader
	versions resolverVersionReader
	cache    resolverCache
	catalog  catalog.Catalog
	cacheTTL time.Duration
	metrics  resolverRecorder
	logger   *zap.Logger
}

type resolverRecorder interface {
	RecordCacheOperation(hit bool)
	ObserveDBQuery(label string, duration time.Duration)
}

// SetMetrics wires the optional metrics recorder. Called once at startup.
func (s *ResolverService) SetMetrics(m resolverRecorder) {
	s.metrics = m
}

// NewResolverService constructs the resolver.
func NewResolverService(papers resolverPaperReader, students resolverStudentReader, sessions resolverSessionReader, versions resolverVersionReader, cache resolverCache, cat catalog.Catalog, cacheTTL time.Duration, logger *zap.Logger) *ResolverService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cacheTTL <= 0 {
		cacheTTL = 10 * time.Minute
	}
	if len(cat) == 0 {
		cat = catalog.Default()
	}
	return &ResolverService{
		papers:   papers,
		students: students,
		sessions: sessions,
		versions: versions,
		cache:    cache,
		catalog:  cat,
		cacheTTL: cacheTTL,
		logger:   logger,
	}
}

func resolverCacheKey(paperID string) string {
	return "reqdocs:" + paperID
}

// Snapshot assembles the immutable view the catalog predicates run against.
func (s *ResolverService) Snapshot(ctx context.Context, paperID string) (*catalog.EligibilitySnapshot, error) {
	paper, err := s.papers.FindByID(ctx, paperID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "paper not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load paper")
	}

	student, err := s.students.FindProfile(ctx, paper.StudentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student profile not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student profile")
	}

	settings, err := s.sessions.Get(ctx)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load session settings")
	}

	return &catalog.EligibilitySnapshot{Paper: *paper, Student: *student, Settings: settings}, nil
}

// Resolve returns the applicable slots for a paper, annotated with the
// currently active versions.
func (s *ResolverService) Resolve(ctx context.Context, paperID string) ([]ResolvedSlot, error) {
	indices, err := s.resolveIndices(ctx, paperID)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	active, err := s.versions.ListActiveByPaper(ctx, paperID)
	if s.metrics != nil {
		s.metrics.ObserveDBQuery("list_active_versions", time.Since(start))
	}
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load document versions")
	}
	byName := make(map[string][]models.DocumentVersion)
	for _, v := range active {
		byName[v.Name] = append(byName[v.Name], v)
	}

	slots := make([]ResolvedSlot, 0, len(indices))
	for _, idx := range indices {
		spec := s.catalog[idx]
		slots = append(slots, ResolvedSlot{Spec: spec, Active: byName[spec.Name]})
	}
	return slots, nil
}

// ResolveSlot returns the single applicable slot with the given name, or a
// typed UNKNOWN_DOCUMENT error when the paper does not require it.
func (s *ResolverService) ResolveSlot(ctx context.Context, paperID, name string) (*ResolvedSlot, error) {
	slots, err := s.Resolve(ctx, paperID)
	if err != nil {
		return nil, err
	}
	for i := range slots {
		if slots[i].Spec.Name == name {
			return &slots[i], nil
		}
	}
	return nil, appErrors.Clone(appErrors.ErrUnknownDocument, fmt.Sprintf("document %q is not required for this paper", name))
}

// RequiredDocuments maps the resolved slots into the API representation.
func (s *ResolverService) RequiredDocuments(ctx context.Context, paperID string) ([]models.RequiredDocument, error) {
	slots, err := s.Resolve(ctx, paperID)
	if err != nil {
		return nil, err
	}
	docs := make([]models.RequiredDocument, 0, len(slots))
	for _, slot := range slots {
		docs = append(docs, models.RequiredDocument{
			Name:            slot.Spec.Name,
			Category:        slot.Spec.Category,
			Variants:        slot.Spec.Variants,
			MimeTypes:       slot.Spec.MimeTypes,
			ResponsibleRole: slot.Spec.ResponsibleRole,
			Uploaded:        slot.Active,
		})
	}
	return docs, nil
}

// Invalidate drops the cached projection for one paper. Called whenever the
// paper's student data, promotion or domain changes.
func (s *ResolverService) Invalidate(ctx context.Context, paperID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, resolverCacheKey(paperID)); err != nil {
		s.logger.Warn("failed to invalidate resolver cache", zap.String("paper_id", paperID), zap.Error(err))
	}
}

// InvalidateAll drops every cached projection. Called when session settings
// change, since the current promotion feeds the predicates.
func (s *ResolverService) InvalidateAll(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.DeleteByPattern(ctx, "reqdocs:*"); err != nil {
		s.logger.Warn("failed to invalidate resolver cache", zap.Error(err))
	}
}

func (s *ResolverService) resolveIndices(ctx context.Context, paperID string) ([]int, error) {
	if s.cache != nil {
		var cached []int
		err := s.cache.Get(ctx, resolverCacheKey(paperID), &cached)
		if s.metrics != nil {
			s.metrics.RecordCacheOperation(err == nil)
		}
		if err == nil {
			return cached, nil
		}
	}

	start := time.Now()
	snap, err := s.Snapshot(ctx, paperID)
	if s.metrics != nil {
		s.metrics.ObserveDBQuery("eligibility_snapshot", time.Since(start))
	}
	if err != nil {
		return nil, err
	}

	indices, err := s.evaluate(*snap)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, resolverCacheKey(paperID), indices, s.cacheTTL); err != nil {
			s.logger.Warn("failed to cache resolved documents", zap.String("paper_id", paperID), zap.Error(err))
		}
	}
	return indices, nil
}

// evaluate walks the catalog in declaration order. Names carried by several
// entries are mutually exclusive alternatives: exactly one must match, and
// zero or multiple matches indicate a catalog defect that must surface
// rather than be silently resolved.
func (s *ResolverService) evaluate(snap catalog.EligibilitySnapshot) ([]int, error) {
	nameCount := make(map[string]int)
	for _, spec := range s.catalog {
		nameCount[spec.Name]++
	}

	matched := make(map[string]int)
	var indices []int
	for i, spec := range s.catalog {
		if !spec.Applies(snap) {
			continue
		}
		if nameCount[spec.Name] > 1 {
			matched[spec.Name]++
			if matched[spec.Name] > 1 {
				return nil, appErrors.Wrap(
					fmt.Errorf("catalog entries for %q overlap for paper %s", spec.Name, snap.Paper.ID),
					appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "document catalog defect")
			}
		}
		indices = append(indices, i)
	}

	for name, count := range nameCount {
		if count > 1 && matched[name] == 0 {
			return nil, appErrors.Wrap(
				fmt.Errorf("no catalog entry for %q matches paper %s", name, snap.Paper.ID),
				appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "document catalog defect")
		}
	}
	return indices, nil
}
