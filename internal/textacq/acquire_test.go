package textacq

import (
	"context"
	"testing"
	"time"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/celerya/visura-cli/internal/config"
)

// stubBackend returns canned text or errors, counting attempts.
type stubBackend struct {
	name  string
	text  string
	err   error
	panic bool
	calls int
}

func (s *stubBackend) Name() string { return s.name }

func (s *stubBackend) ExtractText(_ context.Context, _ string) (string, error) {
	s.calls++
	if s.panic {
		panic("backend exploded")
	}
	if s.err != nil {
		return "", s.err
	}
	return s.text, nil
}

func TestNewAcquirer_LocalDefault(t *testing.T) {
	a, err := NewAcquirer(config.ExtractConfig{}, nil)
	require.NoError(t, err)
	require.Len(t, a.backends, 3)
	assert.Equal(t, "pdftotext", a.backends[0].Name())
	assert.Equal(t, "pdfreader", a.backends[1].Name())
	assert.Equal(t, "tesseract-ocr", a.backends[2].Name())
}

func TestNewAcquirer_MistralProvider(t *testing.T) {
	a, err := NewAcquirer(config.ExtractConfig{OCRProvider: "mistral", MistralKey: "test-key"}, nil)
	require.NoError(t, err)
	assert.Equal(t, "mistral-ocr", a.backends[2].Name())
}

func TestNewAcquirer_MistralMissingKey(t *testing.T) {
	_, err := NewAcquirer(config.ExtractConfig{OCRProvider: "mistral"}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "mistral provider requires mistral_api_key")
}

func TestNewAcquirer_UnknownProvider(t *testing.T) {
	_, err := NewAcquirer(config.ExtractConfig{OCRProvider: "sconosciuto"}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown OCR provider "sconosciuto"`)
}

func TestAcquire_FirstBackendWins(t *testing.T) {
	first := &stubBackend{name: "primo", text: "testo dal primo"}
	second := &stubBackend{name: "secondo", text: "testo dal secondo"}
	a := NewAcquirerWithBackends(2, time.Millisecond, first, second)

	text, method := a.Acquire(context.Background(), "doc.pdf")
	assert.Equal(t, "testo dal primo", text)
	assert.Equal(t, "primo", method)
	assert.Equal(t, 1, first.calls)
	assert.Equal(t, 0, second.calls)
}

func TestAcquire_FallsBackAfterExhaustion(t *testing.T) {
	first := &stubBackend{name: "primo", err: eris.New("niente testo")}
	second := &stubBackend{name: "secondo", text: "testo di riserva"}
	a := NewAcquirerWithBackends(2, time.Millisecond, first, second)

	text, method := a.Acquire(context.Background(), "doc.pdf")
	assert.Equal(t, "testo di riserva", text)
	assert.Equal(t, "secondo", method)
	assert.Equal(t, 2, first.calls, "exhausts both attempts before falling back")
	assert.Equal(t, 1, second.calls)
}

func TestAcquire_AllBackendsFail(t *testing.T) {
	first := &stubBackend{name: "primo", err: eris.New("rotto")}
	second := &stubBackend{name: "secondo", err: eris.New("rotto pure")}
	a := NewAcquirerWithBackends(2, time.Millisecond, first, second)

	text, method := a.Acquire(context.Background(), "doc.pdf")
	assert.Empty(t, text)
	assert.Empty(t, method)
	assert.Equal(t, 2, first.calls)
	assert.Equal(t, 2, second.calls)
}

// classifiedBackend marks every failure as not worth a retry.
type classifiedBackend struct {
	stubBackend
}

func (b *classifiedBackend) ShouldRetry(error) bool { return false }

func TestAcquire_ClassifierSkipsRetry(t *testing.T) {
	first := &classifiedBackend{stubBackend{name: "primo", err: eris.New("richiesta respinta")}}
	second := &stubBackend{name: "secondo", text: "testo di riserva"}
	a := NewAcquirerWithBackends(2, time.Millisecond, first, second)

	text, method := a.Acquire(context.Background(), "doc.pdf")
	assert.Equal(t, "testo di riserva", text)
	assert.Equal(t, "secondo", method)
	assert.Equal(t, 1, first.calls, "non-retryable failure burns a single attempt")
}

func TestAcquire_PanickingBackendIsContained(t *testing.T) {
	first := &stubBackend{name: "primo", panic: true}
	second := &stubBackend{name: "secondo", text: "sopravvissuto"}
	a := NewAcquirerWithBackends(1, time.Millisecond, first, second)

	text, method := a.Acquire(context.Background(), "doc.pdf")
	assert.Equal(t, "sopravvissuto", text)
	assert.Equal(t, "secondo", method)
}

func TestAcquire_ContextCancellationStopsChain(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	first := &stubBackend{name: "primo", err: eris.New("rotto")}
	second := &stubBackend{name: "secondo", text: "mai raggiunto"}
	a := NewAcquirerWithBackends(2, time.Millisecond, first, second)

	text, method := a.Acquire(ctx, "doc.pdf")
	assert.Empty(t, text)
	assert.Empty(t, method)
	assert.Equal(t, 0, second.calls)
}
