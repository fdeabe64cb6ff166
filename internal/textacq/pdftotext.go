package textacq

import (
	"context"
	"strings"

	"github.com/rotisserie/eris"
)

// PdfToText extracts the digital text layer using the pdftotext CLI tool.
// The -layout flag preserves column alignment, which keeps label/value pairs
// on the same line in visura tables.
type PdfToText struct {
	binPath string
	runner  Runner
}

// NewPdfToText creates a PdfToText backend. If binPath is empty, "pdftotext"
// is used.
func NewPdfToText(binPath string, runner Runner) *PdfToText {
	if binPath == "" {
		binPath = "pdftotext"
	}
	if runner == nil {
		runner = execRunner{}
	}
	return &PdfToText{binPath: binPath, runner: runner}
}

func (p *PdfToText) Name() string { return "pdftotext" }

// ExtractText runs pdftotext -layout on the given PDF and returns stdout
// with form feeds replaced by the page separator.
func (p *PdfToText) ExtractText(ctx context.Context, pdfPath string) (string, error) {
	out, stderr, err := p.runner.Run(ctx, p.binPath, "-layout", "-enc", "UTF-8", "-eol", "unix", pdfPath, "-")
	if err != nil {
		return "", eris.Wrapf(err, "textacq: pdftotext failed for %s: %s", pdfPath, string(stderr))
	}

	text := strings.ReplaceAll(string(out), "\f", pageSeparator)
	if strings.TrimSpace(text) == "" {
		return "", errNoText
	}
	return text, nil
}
