package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/paper-track-api/internal/catalog"
	"github.com/noah-isme/paper-track-api/internal/models"
)

type paperReaderStub struct {
	papers map[string]*models.Paper
	err    error
}

func (s paperReaderStub) FindByID(ctx context.Context, id string) (*models.Paper, error) {
	if s.err != nil {
		return nil, s.err
	}
	if paper, ok := s.papers[id]; ok {
		return paper, nil
	}
	return nil, sql.ErrNoRows
}

type studentReaderStub struct {
	profile *models.StudentProfile
	err     error
}

func (s studentReaderStub) FindProfile(ctx context.Context, userID string) (*models.StudentProfile, error) {
	if s.err != nil {
		return nil, s.err
	}
	if s.profile == nil {
		return nil, sql.ErrNoRows
	}
	return s.profile, nil
}

type sessionReaderStub struct {
	settings *models.SessionSettings
	err      error
}

func (s sessionReaderStub) Get(ctx context.Context) (*models.SessionSettings, error) {
	if s.err != nil {
		return nil, s.err
	}
	if s.settings == nil {
		return nil, sql.ErrNoRows
	}
	return s.settings, nil
}

type versionReaderStub struct {
	versions []models.DocumentVersion
	err      error
}

func (s versionReaderStub) ListActiveByPaper(ctx context.Context, paperID string) ([]models.DocumentVersion, error) {
	return s.versions, s.err
}

func bachelorFixture() (paperReaderStub, studentReaderStub, sessionReaderStub) {
	papers := paperReaderStub{papers: map[string]*models.Paper{
		"paper-1": {ID: "paper-1", StudentID: "student-1", TeacherID: "teacher-1", Type: models.PaperTypeBachelor},
	}}
	students := studentReaderStub{profile: &models.StudentProfile{
		UserID:     "student-1",
		FullName:   "Ana Pop",
		Promotion:  "2026",
		DomainType: models.DomainTypeBachelor,
	}}
	sessions := sessionReaderStub{settings: &models.SessionSettings{
		SessionName:      "July 2026",
		CurrentPromotion: "2026",
	}}
	return papers, students, sessions
}

func slotNames(slots []ResolvedSlot) []string {
	names := make([]string, 0, len(slots))
	for _, slot := range slots {
		names = append(names, slot.Spec.Name)
	}
	return names
}

func TestResolveCurrentPromotionBachelor(t *testing.T) {
	papers, students, sessions := bachelorFixture()
	svc := NewResolverService(papers, students, sessions, versionReaderStub{}, nil, catalog.Default(), time.Minute, zap.NewNop())

	slots, err := svc.Resolve(context.Background(), "paper-1")
	require.NoError(t, err)

	// Not married, bachelor domain, current promotion: no marriage
	// certificate, no bachelor diploma, no language certificate.
	assert.Equal(t, []string{
		"sign_up_form",
		"statutory_declaration",
		"liquidation_form",
		"identity_card",
		"paper",
		"supervisor_review",
		"committee_report",
	}, slotNames(slots))
}

func TestResolveMarriedMasterPreviousPromotion(t *testing.T) {
	papers, students, sessions := bachelorFixture()
	papers.papers["paper-1"].Type = models.PaperTypeMaster
	students.profile.DomainType = models.DomainTypeMaster
	students.profile.Promotion = "2024"
	students.profile.ExtraData = &models.StudentExtraData{CivilState: models.CivilStateMarried}

	svc := NewResolverService(papers, students, sessions, versionReaderStub{}, nil, catalog.Default(), time.Minute, zap.NewNop())

	slots, err := svc.Resolve(context.Background(), "paper-1")
	require.NoError(t, err)
	names := slotNames(slots)
	assert.Contains(t, names, "marriage_certificate")
	assert.Contains(t, names, "bachelor_diploma")
	// Language certificate is a bachelor-domain requirement only.
	assert.NotContains(t, names, "language_certificate")
}

func TestResolvePreviousPromotionBachelorNeedsLanguageCertificate(t *testing.T) {
	papers, students, sessions := bachelorFixture()
	students.profile.Promotion = "2024"

	svc := NewResolverService(papers, students, sessions, versionReaderStub{}, nil, catalog.Default(), time.Minute, zap.NewNop())

	slots, err := svc.Resolve(context.Background(), "paper-1")
	require.NoError(t, err)
	assert.Contains(t, slotNames(slots), "language_certificate")
}

func TestResolvePaperSlotIsExclusiveByType(t *testing.T) {
	papers, students, sessions := bachelorFixture()
	svc := NewResolverService(papers, students, sessions, versionReaderStub{}, nil, catalog.Default(), time.Minute, zap.NewNop())

	slots, err := svc.Resolve(context.Background(), "paper-1")
	require.NoError(t, err)

	count := 0
	for _, name := range slotNames(slots) {
		if name == "paper" {
			count++
		}
	}
	assert.Equal(t, 1, count)
}

func TestResolveOverlappingCatalogEntriesFailLoudly(t *testing.T) {
	papers, students, sessions := bachelorFixture()
	broken := catalog.Catalog{
		{Name: "paper", Category: models.CategoryPaper, Variants: []models.DocumentVariant{models.VariantCopy}, MimeTypes: []string{"application/pdf"}, ResponsibleRole: models.ResponsibleStudent},
		{Name: "paper", Category: models.CategoryPaper, Variants: []models.DocumentVariant{models.VariantCopy}, MimeTypes: []string{"application/pdf"}, ResponsibleRole: models.ResponsibleStudent},
	}
	svc := NewResolverService(papers, students, sessions, versionReaderStub{}, nil, broken, time.Minute, zap.NewNop())

	_, err := svc.Resolve(context.Background(), "paper-1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "catalog defect")
}

func TestResolveAnnotatesActiveVersions(t *testing.T) {
	papers, students, sessions := bachelorFixture()
	versions := versionReaderStub{versions: []models.DocumentVersion{
		{ID: "v1", PaperID: "paper-1", Name: "identity_card", Variant: models.VariantCopy},
	}}
	svc := NewResolverService(papers, students, sessions, versions, nil, catalog.Default(), time.Minute, zap.NewNop())

	docs, err := svc.RequiredDocuments(context.Background(), "paper-1")
	require.NoError(t, err)

	var identity *models.RequiredDocument
	for i := range docs {
		if docs[i].Name == "identity_card" {
			identity = &docs[i]
		}
	}
	require.NotNil(t, identity)
	assert.True(t, identity.HasActive(models.VariantCopy))
}

type recorderStub struct {
	cacheOps int
	queries  []string
}

func (r *recorderStub) RecordCacheOperation(hit bool) {
	r.cacheOps++
}

func (r *recorderStub) ObserveDBQuery(label string, duration time.Duration) {
	r.queries = append(r.queries, label)
}

func TestResolveRecordsQueryTimings(t *testing.T) {
	papers, students, sessions := bachelorFixture()
	svc := NewResolverService(papers, students, sessions, versionReaderStub{}, nil, catalog.Default(), time.Minute, zap.NewNop())
	recorder := &recorderStub{}
	svc.SetMetrics(recorder)

	_, err := svc.Resolve(context.Background(), "paper-1")
	require.NoError(t, err)
	assert.Contains(t, recorder.queries, "eligibility_snapshot")
	assert.Contains(t, recorder.queries, "list_active_versions")
}

func TestResolveSlotUnknownDocument(t *testing.T) {
	papers, students, sessions := bachelorFixture()
	svc := NewResolverService(papers, students, sessions, versionReaderStub{}, nil, catalog.Default(), time.Minute, zap.NewNop())

	_, err := svc.ResolveSlot(context.Background(), "paper-1", "marriage_certificate")
	require.Error(t, err)
}
