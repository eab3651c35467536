package catalog

import (
	"time"

	"github.com/noah-isme/paper-track-api/internal/models"
)

// ReferenceZone is the timezone in which submission windows are evaluated.
// Dates are compared at day granularity so client/server clock skew cannot
// move a deadline across midnight.
var ReferenceZone = time.UTC

// WindowOpen reports whether normal submission for the given document
// category is open on the given instant. The secretary window runs from the
// file-submission start to its end; the paper window runs from the same
// start to the paper-submission end. All bounds are inclusive. Missing
// settings mean the window is closed.
func WindowOpen(category models.DocumentCategory, settings *models.SessionSettings, now time.Time) bool {
	if settings == nil {
		return false
	}

	start := settings.FileSubmissionStart
	var end time.Time
	switch category {
	case models.CategorySecretary:
		end = settings.FileSubmissionEnd
	case models.CategoryPaper:
		end = settings.PaperSubmissionEnd
	default:
		return false
	}

	day := civilDate(now)
	return !day.Before(civilDate(start)) && !day.After(civilDate(end))
}

func civilDate(t time.Time) time.Time {
	y, m, d := t.In(ReferenceZone).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, ReferenceZone)
}
