package render

import (
	"bytes"
	"fmt"
	"sort"
	"strings"

	"github.com/jung-kurt/gofpdf"
)

// Template identifies a renderable document layout.
type Template string

const (
	TemplateSignUpForm           Template = "sign_up_form"
	TemplateStatutoryDeclaration Template = "statutory_declaration"
	TemplateLiquidationForm      Template = "liquidation_form"
)

var titles = map[Template]string{
	TemplateSignUpForm:           "Examination Sign-Up Form",
	TemplateStatutoryDeclaration: "Statutory Declaration",
	TemplateLiquidationForm:      "Liquidation Form",
}

// PDFRenderer produces the system-generated document variants.
type PDFRenderer struct{}

// NewPDFRenderer constructs a PDF renderer.
func NewPDFRenderer() *PDFRenderer {
	return &PDFRenderer{}
}

// Render creates a PDF for the named template from a flat data projection.
// It is a pure function of its inputs: the same template and data always
// produce an equivalent document.
func (r *PDFRenderer) Render(template string, data map[string]string) ([]byte, error) {
	title, ok := titles[Template(template)]
	if !ok {
		return nil, fmt.Errorf("unknown document template %q", template)
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(15, 20, 15)
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 14)
	pdf.CellFormat(0, 10, strings.ToUpper(title), "", 1, "C", false, 0, "")
	pdf.Ln(6)

	keys := make([]string, 0, len(data))
	for k := range data {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pdf.SetFont("Arial", "", 10)
	for _, key := range keys {
		label := strings.ReplaceAll(key, "_", " ")
		pdf.SetFont("Arial", "B", 10)
		pdf.CellFormat(60, 7, label, "", 0, "", false, 0, "")
		pdf.SetFont("Arial", "", 10)
		pdf.MultiCell(0, 7, data[key], "", "", false)
	}

	pdf.Ln(12)
	pdf.SetFont("Arial", "I", 9)
	pdf.CellFormat(0, 6, "Signature: ______________________", "", 1, "R", false, 0, "")

	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render %s: %w", template, err)
	}
	return buf.Bytes(), nil
}
