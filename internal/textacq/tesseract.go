package textacq

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// TesseractOCR rasterizes PDF pages with pdftoppm and runs Tesseract on each
// image. It is the last-resort backend: reaching it means the document has no
// usable digital text layer, i.e. a scanned visura.
type TesseractOCR struct {
	pdftoppm  string
	tesseract string
	langs     string
	dpi       int
	runner    Runner
}

// TesseractConfig configures the rasterize+OCR backend.
type TesseractConfig struct {
	PdfToPpmPath  string // default "pdftoppm"
	TesseractPath string // default "tesseract"
	Langs         string // default "ita+eng"
	DPI           int    // default 300
}

// NewTesseractOCR creates a TesseractOCR backend.
func NewTesseractOCR(cfg TesseractConfig, runner Runner) *TesseractOCR {
	if cfg.PdfToPpmPath == "" {
		cfg.PdfToPpmPath = "pdftoppm"
	}
	if cfg.TesseractPath == "" {
		cfg.TesseractPath = "tesseract"
	}
	if cfg.Langs == "" {
		cfg.Langs = "ita+eng"
	}
	if cfg.DPI <= 0 {
		cfg.DPI = 300
	}
	if runner == nil {
		runner = execRunner{}
	}
	return &TesseractOCR{
		pdftoppm:  cfg.PdfToPpmPath,
		tesseract: cfg.TesseractPath,
		langs:     cfg.Langs,
		dpi:       cfg.DPI,
		runner:    runner,
	}
}

func (t *TesseractOCR) Name() string { return "tesseract-ocr" }

// ExtractText renders every page to PNG and OCRs them in document order.
// Pages that fail OCR are skipped; the run fails only if no page yields text.
func (t *TesseractOCR) ExtractText(ctx context.Context, pdfPath string) (string, error) {
	tmpDir, err := os.MkdirTemp("", "visura-ocr-*")
	if err != nil {
		return "", eris.Wrap(err, "textacq: create OCR temp dir")
	}
	defer func() {
		if rmErr := os.RemoveAll(tmpDir); rmErr != nil {
			zap.L().Warn("textacq: failed to remove OCR temp dir",
				zap.String("dir", tmpDir), zap.Error(rmErr))
		}
	}()

	prefix := filepath.Join(tmpDir, "page")
	_, stderr, err := t.runner.Run(ctx, t.pdftoppm, "-r", fmt.Sprintf("%d", t.dpi), "-png", pdfPath, prefix)
	if err != nil {
		return "", eris.Wrapf(err, "textacq: pdftoppm failed for %s: %s", pdfPath, string(stderr))
	}

	// pdftoppm names output page-1.png, page-2.png, ...
	pages, _ := filepath.Glob(prefix + "-*.png")
	sort.Strings(pages)
	if len(pages) == 0 {
		return "", eris.New("textacq: pdftoppm produced no images")
	}

	var sb strings.Builder
	for i, img := range pages {
		txt, ocrErr := t.ocrImage(ctx, img)
		if ocrErr != nil {
			zap.L().Warn("textacq: OCR failed on page",
				zap.Int("page", i+1), zap.Error(ocrErr))
			continue
		}
		if strings.TrimSpace(txt) == "" {
			continue
		}
		if sb.Len() > 0 {
			sb.WriteString(pageSeparator)
		}
		sb.WriteString(txt)
	}

	if strings.TrimSpace(sb.String()) == "" {
		return "", errNoText
	}
	return sb.String(), nil
}

func (t *TesseractOCR) ocrImage(ctx context.Context, imgPath string) (string, error) {
	out, stderr, err := t.runner.Run(ctx, t.tesseract, imgPath, "stdout", "-l", t.langs)
	if err != nil {
		return "", eris.Wrapf(err, "textacq: tesseract failed: %s", string(stderr))
	}
	return string(out), nil
}
