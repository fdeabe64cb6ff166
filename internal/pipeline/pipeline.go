// Package pipeline sequences the visura extraction stages: stage the raw
// bytes to a scratch file, acquire text, run the field extractors, resolve
// legacy activity codes, and score the result. The orchestrator is the only
// sanctioned place where internal failure turns into a degraded record: the
// external contract is "always returns a record, never fails".
package pipeline

import (
	"context"
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/celerya/visura-cli/internal/ateco"
	"github.com/celerya/visura-cli/internal/confidence"
	"github.com/celerya/visura-cli/internal/fields"
	"github.com/celerya/visura-cli/internal/model"
	"github.com/celerya/visura-cli/internal/textacq"
)

// stage tracks how far a run progressed; Done is reached on every path.
type stage int

const (
	stageIdle stage = iota
	stageStaged
	stageTextAcquired
	stageFieldsExtracted
	stageScored
	stageDone
)

func (s stage) String() string {
	switch s {
	case stageIdle:
		return "idle"
	case stageStaged:
		return "staged"
	case stageTextAcquired:
		return "text_acquired"
	case stageFieldsExtracted:
		return "fields_extracted"
	case stageScored:
		return "scored"
	case stageDone:
		return "done"
	}
	return "unknown"
}

// Pipeline runs one document through extraction. Safe for concurrent use:
// every call owns its own scratch file and text buffer.
type Pipeline struct {
	acquirer *textacq.Acquirer
	resolver *ateco.Resolver
	tempDir  string // "" means the system default
}

// New creates a Pipeline. resolver may be built over a nil lookup, in which
// case legacy activity codes are reported absent.
func New(acquirer *textacq.Acquirer, resolver *ateco.Resolver) *Pipeline {
	return &Pipeline{acquirer: acquirer, resolver: resolver}
}

// WithTempDir redirects scratch files; used by tests to assert cleanup.
func (p *Pipeline) WithTempDir(dir string) *Pipeline {
	p.tempDir = dir
	return p
}

// Extract turns raw PDF bytes into a business-identity record. It never
// fails: any internal error degrades to a structurally valid record with
// reduced confidence, and the report says what happened.
func (p *Pipeline) Extract(ctx context.Context, content []byte, filename string) (result *model.VisuraResult, report *model.ExtractionReport) {
	log := zap.L().With(zap.String("filename", filename))
	log.Info("pipeline: received document", zap.Int("bytes", len(content)))

	result = model.EmptyResult()
	report = &model.ExtractionReport{Filename: filename}
	current := stageIdle

	defer func() {
		if r := recover(); r != nil {
			log.Error("pipeline: stage panicked, returning degraded record",
				zap.String("stage", current.String()),
				zap.Any("panic", r),
			)
			result = model.EmptyResult()
			report.Failure = model.FailureInternal
		}
		// Degraded records still carry the full per-field status map.
		if len(result.Data.Confidence.Details) == 0 {
			result.Data.Confidence = confidence.Evaluate(&result.Data)
		}
		current = stageDone
		log.Info("pipeline: done",
			zap.Int("score", result.Data.Confidence.Score),
			zap.String("failure", string(report.Failure)),
		)
	}()

	if len(content) == 0 {
		log.Warn("pipeline: empty upload")
		report.Failure = model.FailureEmptyInput
		return result, report
	}

	// Stage the bytes to a scratch file; released on every exit path.
	path, cleanup, err := p.stage(content)
	if err != nil {
		log.Error("pipeline: staging failed", zap.Error(err))
		report.Failure = model.FailureInternal
		return result, report
	}
	defer cleanup()
	current = stageStaged

	text, method := p.acquirer.Acquire(ctx, path)
	if text == "" {
		log.Error("pipeline: no usable text from any backend")
		report.Failure = model.FailureAcquisition
		return result, report
	}
	current = stageTextAcquired
	report.TextMethod = method

	normalized := fields.Normalize(text)
	report.TextChars = len(normalized)
	log.Debug("pipeline: text acquired",
		zap.String("method", method), zap.Int("chars", len(normalized)))

	p.extractFields(normalized, &result.Data)
	current = stageFieldsExtracted

	result.Data.Confidence = confidence.Evaluate(&result.Data)
	current = stageScored

	return result, report
}

// extractFields runs the per-field extractors over the normalized text and
// fills the payload. The activity-code field routes legacy candidates through
// the version resolver; a resolution miss leaves the field absent.
func (p *Pipeline) extractFields(text string, data *model.VisuraData) {
	if piva, ok := fields.ExtractPartitaIVA(text); ok {
		data.PartitaIVA = &piva
	}

	if cand, ok := fields.ExtractAteco(text); ok {
		code := cand.Code
		resolved := true
		if cand.Legacy {
			code, resolved = p.resolver.Resolve(cand.Code)
		}
		if resolved {
			data.CodiceAteco = &code
			data.CodiciAteco = []model.AtecoEntry{{
				Codice:      code,
				Descrizione: p.resolver.Describe(code),
				Principale:  true,
			}}
		}
	}

	if oggetto, ok := fields.ExtractOggettoSociale(text); ok {
		data.OggettoSociale = &oggetto
	}
	if sede, ok := fields.ExtractSedeLegale(text); ok {
		data.SedeLegale = sede
	}
	if denom, ok := fields.ExtractDenominazione(text); ok {
		data.Denominazione = &denom
	}
	if forma, ok := fields.ExtractFormaGiuridica(text); ok {
		data.FormaGiuridica = &forma
	}
}

// stage writes the raw bytes to a scratch PDF and returns its path with a
// cleanup func that always removes it.
func (p *Pipeline) stage(content []byte) (string, func(), error) {
	tmp, err := os.CreateTemp(p.tempDir, "visura-*.pdf")
	if err != nil {
		return "", nil, eris.Wrap(err, "pipeline: create scratch file")
	}

	path := tmp.Name()
	cleanup := func() {
		if rmErr := os.Remove(path); rmErr != nil && !os.IsNotExist(rmErr) {
			zap.L().Warn("pipeline: failed to remove scratch file",
				zap.String("path", path), zap.Error(rmErr))
		}
	}

	if _, err := tmp.Write(content); err != nil {
		tmp.Close() //nolint:errcheck
		cleanup()
		return "", nil, eris.Wrapf(err, "pipeline: write scratch file %s", filepath.Base(path))
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return "", nil, eris.Wrap(err, "pipeline: close scratch file")
	}

	return path, cleanup, nil
}

// TestRecord returns the canned record served by the health-check endpoint.
func TestRecord() *model.VisuraResult {
	piva := "12345678901"
	code := "62.01"
	res := model.EmptyResult()
	res.Data.PartitaIVA = &piva
	res.Data.CodiceAteco = &code
	res.Data.CodiciAteco = []model.AtecoEntry{{Codice: code, Descrizione: "Produzione di software", Principale: true}}
	res.Data.SedeLegale = &model.SedeLegale{Comune: "Torino", Provincia: "TO"}
	res.Data.Confidence = confidence.Evaluate(&res.Data)
	return res
}
