// Package textacq turns a persisted PDF into plain text by walking an
// ordered list of backends: a layout-aware pdftotext pass, a pure-Go
// text-layer reader, and finally page rasterization plus OCR for scanned
// documents.
package textacq

import (
	"bytes"
	"context"
	"os/exec"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// Backend extracts text content from a PDF file. Implementations return an
// error (never empty text with a nil error) when nothing usable came out.
type Backend interface {
	Name() string
	ExtractText(ctx context.Context, pdfPath string) (string, error)
}

// RetryClassifier is implemented by backends that can tell which of their
// errors are worth another attempt. Backends without it have every failure
// retried until attempts run out.
type RetryClassifier interface {
	ShouldRetry(err error) bool
}

// pageSeparator joins per-page text in document order.
const pageSeparator = "\n\n"

// errNoText is returned by backends that ran fine but produced nothing.
var errNoText = eris.New("textacq: no text extracted")

// Runner executes external commands; stubbed in tests.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) (stdout, stderr []byte, err error)
}

type execRunner struct{}

func (execRunner) Run(ctx context.Context, name string, args ...string) ([]byte, []byte, error) {
	start := time.Now()

	cmd := exec.CommandContext(ctx, name, args...)
	var out, errb bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &errb

	err := cmd.Run()

	if err != nil {
		zap.L().Debug("textacq: exec failed",
			zap.String("cmd", name),
			zap.String("args", strings.Join(args, " ")),
			zap.Int64("duration_ms", time.Since(start).Milliseconds()),
			zap.Error(err),
		)
	}

	return out.Bytes(), errb.Bytes(), err
}
