package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/noah-isme/paper-track-api/internal/models"
)

func snapshotFor(paperType models.PaperType, domain models.DomainType, extra *models.StudentExtraData) EligibilitySnapshot {
	return EligibilitySnapshot{
		Paper: models.Paper{ID: "p1", Type: paperType},
		Student: models.StudentProfile{
			UserID:     "s1",
			Promotion:  "2024",
			DomainType: domain,
			ExtraData:  extra,
		},
		Settings: &models.SessionSettings{CurrentPromotion: "2024"},
	}
}

func applicableNames(snap EligibilitySnapshot) []string {
	var names []string
	for _, spec := range Default() {
		if spec.Applies(snap) {
			names = append(names, spec.Name)
		}
	}
	return names
}

func TestBachelorStudentBaseline(t *testing.T) {
	snap := snapshotFor(models.PaperTypeBachelor, models.DomainTypeBachelor, nil)

	names := applicableNames(snap)
	assert.Contains(t, names, "sign_up_form")
	assert.Contains(t, names, "identity_card")
	assert.NotContains(t, names, "marriage_certificate")
	assert.NotContains(t, names, "bachelor_diploma")
	assert.NotContains(t, names, "language_certificate")
}

func TestAbsentExtraDataDefaultsToNotMarried(t *testing.T) {
	snap := snapshotFor(models.PaperTypeBachelor, models.DomainTypeBachelor, nil)
	assert.False(t, snap.IsMarried())

	snap.Student.ExtraData = &models.StudentExtraData{CivilState: models.CivilStateMarried}
	assert.True(t, snap.IsMarried())
	assert.Contains(t, applicableNames(snap), "marriage_certificate")
}

func TestMasterStudentNeedsBachelorDiploma(t *testing.T) {
	snap := snapshotFor(models.PaperTypeMaster, models.DomainTypeMaster, nil)
	assert.Contains(t, applicableNames(snap), "bachelor_diploma")
}

func TestPreviousPromotionBachelorNeedsLanguageCertificate(t *testing.T) {
	snap := snapshotFor(models.PaperTypeBachelor, models.DomainTypeBachelor, nil)
	snap.Student.Promotion = "2022"
	assert.Contains(t, applicableNames(snap), "language_certificate")
}

func TestPaperEntriesAreMutuallyExclusive(t *testing.T) {
	entries := 0
	for _, spec := range Default() {
		if spec.Name == "paper" {
			entries++
		}
	}
	assert.Equal(t, 3, entries)

	for _, pt := range []models.PaperType{models.PaperTypeBachelor, models.PaperTypeDiploma, models.PaperTypeMaster} {
		snap := snapshotFor(pt, models.DomainTypeBachelor, nil)
		matches := 0
		for _, spec := range Default() {
			if spec.Name == "paper" && spec.Applies(snap) {
				matches++
			}
		}
		assert.Equal(t, 1, matches, "paper type %s", pt)
	}
}

func TestSignedAlwaysPairedWithGenerated(t *testing.T) {
	for _, spec := range Default() {
		if spec.AllowsVariant(models.VariantSigned) {
			assert.True(t, spec.AllowsVariant(models.VariantGenerated), "slot %s", spec.Name)
		}
	}
}

func TestMimeTypeAllowList(t *testing.T) {
	for _, spec := range Default() {
		if spec.Name == "identity_card" {
			assert.True(t, spec.AcceptsMimeType("image/png"))
			assert.False(t, spec.AcceptsMimeType("image/gif"))
		}
		if spec.Name == "paper" {
			assert.True(t, spec.AcceptsMimeType("application/pdf"))
			assert.False(t, spec.AcceptsMimeType("image/png"))
		}
	}
}
