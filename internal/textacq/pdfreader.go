package textacq

import (
	"context"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/rotisserie/eris"
)

// PdfReader extracts the digital text layer with a pure-Go PDF parser. It is
// less layout-faithful than pdftotext but has no external dependency, so it
// serves as the second backend when the primary misbehaves on a document.
type PdfReader struct{}

// NewPdfReader creates a PdfReader backend.
func NewPdfReader() *PdfReader {
	return &PdfReader{}
}

func (p *PdfReader) Name() string { return "pdfreader" }

// ExtractText parses the PDF and concatenates per-page plain text in
// document order. Unreadable pages are skipped.
func (p *PdfReader) ExtractText(ctx context.Context, pdfPath string) (string, error) {
	f, r, err := pdf.Open(pdfPath)
	if err != nil {
		return "", eris.Wrapf(err, "textacq: open pdf %s", pdfPath)
	}
	defer f.Close() //nolint:errcheck

	var sb strings.Builder
	for i := 1; i <= r.NumPage(); i++ {
		if ctx.Err() != nil {
			return "", eris.Wrap(ctx.Err(), "textacq: pdf read cancelled")
		}

		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}

		pageText, err := page.GetPlainText(nil)
		if err != nil || pageText == "" {
			continue
		}

		if sb.Len() > 0 {
			sb.WriteString(pageSeparator)
		}
		sb.WriteString(pageText)
	}

	if strings.TrimSpace(sb.String()) == "" {
		return "", errNoText
	}
	return sb.String(), nil
}
