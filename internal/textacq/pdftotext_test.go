package textacq

import (
	"context"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// call records one Runner invocation.
type call struct {
	name string
	args []string
}

// stubRunner replays canned exec results and records invocations.
type stubRunner struct {
	outputs map[string][]byte // keyed by command name
	errs    map[string]error
	onRun   func(name string, args []string)
	calls   []call
}

func (r *stubRunner) Run(_ context.Context, name string, args ...string) ([]byte, []byte, error) {
	r.calls = append(r.calls, call{name: name, args: args})
	if r.onRun != nil {
		r.onRun(name, args)
	}
	if err := r.errs[name]; err != nil {
		return nil, []byte("stderr dettagli"), err
	}
	return r.outputs[name], nil, nil
}

func TestPdfToText_Defaults(t *testing.T) {
	p := NewPdfToText("", nil)
	assert.Equal(t, "pdftotext", p.binPath)

	p = NewPdfToText("/custom/pdftotext", nil)
	assert.Equal(t, "/custom/pdftotext", p.binPath)
}

func TestPdfToText_ExtractText(t *testing.T) {
	runner := &stubRunner{outputs: map[string][]byte{
		"pdftotext": []byte("pagina uno\fpagina due"),
	}}
	p := NewPdfToText("", runner)

	text, err := p.ExtractText(context.Background(), "doc.pdf")
	require.NoError(t, err)
	assert.Equal(t, "pagina uno"+pageSeparator+"pagina due", text)

	require.Len(t, runner.calls, 1)
	assert.Equal(t, []string{"-layout", "-enc", "UTF-8", "-eol", "unix", "doc.pdf", "-"}, runner.calls[0].args)
}

func TestPdfToText_EmptyOutput(t *testing.T) {
	runner := &stubRunner{outputs: map[string][]byte{"pdftotext": []byte("  \n ")}}
	p := NewPdfToText("", runner)

	_, err := p.ExtractText(context.Background(), "doc.pdf")
	assert.ErrorIs(t, err, errNoText)
}

func TestPdfToText_ExecFailure(t *testing.T) {
	runner := &stubRunner{errs: map[string]error{"pdftotext": eris.New("exit status 1")}}
	p := NewPdfToText("", runner)

	_, err := p.ExtractText(context.Background(), "doc.pdf")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "stderr dettagli")
}
