package render

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderKnownTemplate(t *testing.T) {
	r := NewPDFRenderer()

	out, err := r.Render(string(TemplateSignUpForm), map[string]string{
		"student_name": "Ana Pop",
		"paper_title":  "Distributed Consensus",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, out)
	assert.Equal(t, "%PDF", string(out[:4]))
}

func TestRenderUnknownTemplate(t *testing.T) {
	r := NewPDFRenderer()

	_, err := r.Render("transcript", nil)
	require.Error(t, err)
}
