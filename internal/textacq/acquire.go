package textacq

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/celerya/visura-cli/internal/config"
	"github.com/celerya/visura-cli/internal/resilience"
)

// Acquirer walks an ordered backend chain until one yields text. Each backend
// gets a bounded number of attempts with a fixed pause; an exhausted backend
// is never revisited within one call.
type Acquirer struct {
	backends    []Backend
	maxAttempts int
	pause       time.Duration
}

// NewAcquirer builds the acquisition chain from config: pdftotext, then the
// pure-Go reader, then the configured OCR provider.
func NewAcquirer(cfg config.ExtractConfig, runner Runner) (*Acquirer, error) {
	var ocrBackend Backend
	switch cfg.OCRProvider {
	case "local", "":
		ocrBackend = NewTesseractOCR(TesseractConfig{
			PdfToPpmPath:  cfg.PdfToPpmPath,
			TesseractPath: cfg.TesseractPath,
			Langs:         cfg.TesseractLangs,
			DPI:           cfg.OCRDPI,
		}, runner)
	case "mistral":
		if cfg.MistralKey == "" {
			return nil, eris.New("textacq: mistral provider requires mistral_api_key")
		}
		ocrBackend = NewMistralOCR(cfg.MistralKey, cfg.MistralModel)
	default:
		return nil, eris.Errorf("textacq: unknown OCR provider %q", cfg.OCRProvider)
	}

	return &Acquirer{
		backends: []Backend{
			NewPdfToText(cfg.PdfToTextPath, runner),
			NewPdfReader(),
			ocrBackend,
		},
		maxAttempts: cfg.MaxAttempts,
		pause:       time.Duration(cfg.RetryPauseMs) * time.Millisecond,
	}, nil
}

// NewAcquirerWithBackends builds an Acquirer over an explicit chain; used by
// the pipeline tests to force backend failures.
func NewAcquirerWithBackends(maxAttempts int, pause time.Duration, backends ...Backend) *Acquirer {
	return &Acquirer{backends: backends, maxAttempts: maxAttempts, pause: pause}
}

// Acquire returns the extracted text and the name of the backend that
// produced it. When every backend exhausts its attempts the text is empty
// and method is ""; Acquire itself never fails.
func (a *Acquirer) Acquire(ctx context.Context, pdfPath string) (text, method string) {
	for _, backend := range a.backends {
		log := zap.L().With(zap.String("backend", backend.Name()))

		cfg := resilience.RetryConfig{
			MaxAttempts: a.maxAttempts,
			Pause:       a.pause,
			OnRetry:     resilience.RetryLogger("textacq", backend.Name()),
		}
		if rc, ok := backend.(RetryClassifier); ok {
			cfg.ShouldRetry = rc.ShouldRetry
		}

		out, err := resilience.DoVal(ctx, cfg, func(ctx context.Context) (string, error) {
			return safeExtract(ctx, backend, pdfPath)
		})

		if err == nil && out != "" {
			log.Info("textacq: backend succeeded", zap.Int("chars", len(out)))
			return out, backend.Name()
		}

		log.Warn("textacq: backend exhausted", zap.Error(err))

		if ctx.Err() != nil {
			break
		}
	}

	zap.L().Error("textacq: all backends failed", zap.String("path", pdfPath))
	return "", ""
}

// safeExtract contains panics from a backend attempt so they count as a
// failed attempt instead of tearing down the chain.
func safeExtract(ctx context.Context, b Backend, pdfPath string) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = eris.Errorf("textacq: backend %s panicked: %v", b.Name(), r)
		}
	}()
	return b.ExtractText(ctx, pdfPath)
}
