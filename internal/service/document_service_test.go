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
	appErrors "github.com/noah-isme/paper-track-api/pkg/errors"
)

// versionLogStub implements both the resolver's version reader and the
// document service's version store so tests see a consistent log.
type versionLogStub struct {
	versions  []models.DocumentVersion
	createErr error
}

func (s *versionLogStub) CreateVersion(ctx context.Context, version *models.DocumentVersion, payload []byte, supersede bool) error {
	if s.createErr != nil {
		return s.createErr
	}
	if supersede {
		at := version.CreatedAt
		for i := range s.versions {
			v := &s.versions[i]
			if v.PaperID == version.PaperID && v.Name == version.Name && v.Variant == version.Variant && v.RetiredAt == nil {
				v.RetiredAt = &at
			}
		}
	}
	s.versions = append(s.versions, *version)
	return nil
}

func (s *versionLogStub) Retire(ctx context.Context, versionID string, at time.Time) error {
	for i := range s.versions {
		if s.versions[i].ID == versionID && s.versions[i].RetiredAt == nil {
			s.versions[i].RetiredAt = &at
			return nil
		}
	}
	return sql.ErrNoRows
}

func (s *versionLogStub) FindByID(ctx context.Context, id string) (*models.DocumentVersion, error) {
	for i := range s.versions {
		if s.versions[i].ID == id {
			v := s.versions[i]
			return &v, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (s *versionLogStub) GetHistory(ctx context.Context, paperID, name string) ([]models.DocumentVersion, error) {
	var out []models.DocumentVersion
	for i := len(s.versions) - 1; i >= 0; i-- {
		if s.versions[i].PaperID == paperID && s.versions[i].Name == name {
			out = append(out, s.versions[i])
		}
	}
	return out, nil
}

func (s *versionLogStub) ListActiveByPaper(ctx context.Context, paperID string) ([]models.DocumentVersion, error) {
	var out []models.DocumentVersion
	for _, v := range s.versions {
		if v.PaperID == paperID && v.RetiredAt == nil {
			out = append(out, v)
		}
	}
	return out, nil
}

type reuploadActiveStub struct{ active bool }

func (s *reuploadActiveStub) IsActive(ctx context.Context, paperID, documentName string) (bool, error) {
	return s.active, nil
}

type memberStub struct{ member bool }

func (s memberStub) IsMember(ctx context.Context, committeeID, teacherID string) (bool, error) {
	return s.member, nil
}

type rendererStub struct {
	payload []byte
	err     error
	calls   []string
}

func (s *rendererStub) Render(template string, data map[string]string) ([]byte, error) {
	s.calls = append(s.calls, template)
	if s.err != nil {
		return nil, s.err
	}
	if s.payload != nil {
		return s.payload, nil
	}
	return []byte("%PDF-stub"), nil
}

func openWindowSettings() *models.SessionSettings {
	now := time.Now().In(catalog.ReferenceZone)
	return &models.SessionSettings{
		SessionName:         "July 2026",
		CurrentPromotion:    "2026",
		FileSubmissionStart: now.AddDate(0, 0, -1),
		FileSubmissionEnd:   now.AddDate(0, 0, 1),
		PaperSubmissionEnd:  now.AddDate(0, 0, 1),
	}
}

func newDocumentFixture(t *testing.T) (*DocumentService, *versionLogStub, *reuploadActiveStub, sessionReaderStub) {
	t.Helper()
	papers, students, _ := bachelorFixture()
	sessions := sessionReaderStub{settings: openWindowSettings()}
	log := &versionLogStub{}
	reuploads := &reuploadActiveStub{}
	resolver := NewResolverService(papers, students, sessions, log, nil, catalog.Default(), time.Minute, zap.NewNop())
	svc := NewDocumentService(resolver, log, papers, sessions, reuploads, memberStub{}, nil, nil, &rendererStub{}, nil, zap.NewNop())
	return svc, log, reuploads, sessions
}

func TestUploadLifecycle(t *testing.T) {
	svc, log, reuploads, _ := newDocumentFixture(t)
	student := Actor{ID: "student-1", Role: models.RoleStudent}

	v1, err := svc.Upload(context.Background(), student, "paper-1", "identity_card", models.VariantCopy, "image/png", []byte("scan"))
	require.NoError(t, err)
	assert.Equal(t, models.CategorySecretary, v1.Category)
	require.NotNil(t, v1.UploaderID)
	assert.Equal(t, "student-1", *v1.UploaderID)

	// Second upload of the same slot is blocked until a reupload grant.
	_, err = svc.Upload(context.Background(), student, "paper-1", "identity_card", models.VariantCopy, "image/png", []byte("scan2"))
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrAlreadyUploaded))

	reuploads.active = true
	v2, err := svc.Upload(context.Background(), student, "paper-1", "identity_card", models.VariantCopy, "image/png", []byte("scan2"))
	require.NoError(t, err)

	history, err := svc.History(context.Background(), student, "paper-1", "identity_card")
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, v2.ID, history[0].ID)
	assert.Equal(t, v1.ID, history[1].ID)
	assert.True(t, history[0].Active())
	assert.NotNil(t, history[1].RetiredAt)

	// Exactly one active version remains.
	active, err := log.ListActiveByPaper(context.Background(), "paper-1")
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, v2.ID, active[0].ID)
}

func TestUploadUnknownDocument(t *testing.T) {
	svc, _, _, _ := newDocumentFixture(t)
	student := Actor{ID: "student-1", Role: models.RoleStudent}

	// Not married, so the marriage certificate slot does not resolve.
	_, err := svc.Upload(context.Background(), student, "paper-1", "marriage_certificate", models.VariantCopy, "image/png", []byte("scan"))
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrUnknownDocument))
}

func TestSignRequiresGeneratedVersion(t *testing.T) {
	svc, log, _, _ := newDocumentFixture(t)
	student := Actor{ID: "student-1", Role: models.RoleStudent}

	_, err := svc.Sign(context.Background(), student, "paper-1", "sign_up_form")
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrMissingGeneratedDocument))

	log.versions = append(log.versions, models.DocumentVersion{
		ID: "gen-1", PaperID: "paper-1", Name: "sign_up_form",
		Category: models.CategorySecretary, Variant: models.VariantGenerated,
		MimeType: "application/pdf",
	})

	signed, err := svc.Sign(context.Background(), student, "paper-1", "sign_up_form")
	require.NoError(t, err)
	assert.Equal(t, models.VariantSigned, signed.Variant)

	_, err = svc.Sign(context.Background(), student, "paper-1", "sign_up_form")
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrAlreadySigned))
}

func TestDeleteRetiresVersion(t *testing.T) {
	svc, log, _, _ := newDocumentFixture(t)
	student := Actor{ID: "student-1", Role: models.RoleStudent}

	v1, err := svc.Upload(context.Background(), student, "paper-1", "identity_card", models.VariantCopy, "image/png", []byte("scan"))
	require.NoError(t, err)

	require.NoError(t, svc.Delete(context.Background(), student, v1.ID))

	active, err := log.ListActiveByPaper(context.Background(), "paper-1")
	require.NoError(t, err)
	assert.Empty(t, active)

	err = svc.Delete(context.Background(), student, v1.ID)
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrConflict))
}

func TestListRequirementsAccess(t *testing.T) {
	svc, _, _, _ := newDocumentFixture(t)

	_, err := svc.ListRequirements(context.Background(), Actor{ID: "student-2", Role: models.RoleStudent}, "paper-1")
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrForbidden))

	docs, err := svc.ListRequirements(context.Background(), Actor{ID: "student-1", Role: models.RoleStudent}, "paper-1")
	require.NoError(t, err)
	assert.NotEmpty(t, docs)
}
