package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/celerya/visura-cli/internal/ateco"
	"github.com/celerya/visura-cli/internal/config"
	"github.com/celerya/visura-cli/internal/model"
	"github.com/celerya/visura-cli/internal/pipeline"
	"github.com/celerya/visura-cli/internal/seismic"
	"github.com/celerya/visura-cli/internal/store"
	"github.com/celerya/visura-cli/internal/textacq"
)

const testVisuraText = "Denominazione: ACME INDUSTRIE SRL Forma giuridica: SOCIETA' A RESPONSABILITA' LIMITATA " +
	"Partita IVA: 12345678901 Codice ATECO: 62.01.0 Sede legale: Torino (TO) " +
	"Oggetto sociale: produzione e commercio di software gestionale per aziende"

type textBackend struct{ text string }

func (b *textBackend) Name() string { return "stub" }

func (b *textBackend) ExtractText(context.Context, string) (string, error) {
	return b.text, nil
}

func testPipeline(t *testing.T, text string) *pipeline.Pipeline {
	t.Helper()
	acq := textacq.NewAcquirerWithBackends(1, time.Millisecond, &textBackend{text: text})
	return pipeline.New(acq, ateco.NewResolver(nil)).WithTempDir(t.TempDir())
}

func testLookupTable() *ateco.Table {
	return ateco.NewTable([]ateco.Row{
		{ateco.Col2022: "62.01", ateco.Col2025: "62.01.0", ateco.ColTitle2025: "Produzione di software"},
	})
}

func testSeismicDB(t *testing.T) *seismic.DB {
	t.Helper()
	path := filepath.Join(t.TempDir(), "zone.yaml")
	data := "comuni:\n  - comune: Torino\n    provincia: TO\n    zona_sismica: 3\n"
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))
	db, err := seismic.Load(path)
	require.NoError(t, err)
	return db
}

func testStore(t *testing.T) store.Store {
	t.Helper()
	st, err := store.New(context.Background(), config.StoreConfig{
		Driver:      "sqlite",
		DatabaseURL: filepath.Join(t.TempDir(), "test.db"),
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	require.NoError(t, st.Migrate(context.Background()))
	return st
}

func newTestServer(t *testing.T) *Server {
	t.Helper()
	return New(testPipeline(t, testVisuraText), testStore(t), testLookupTable(), testSeismicDB(t), config.ServerConfig{
		RatePerSecond: 1000,
		RateBurst:     1000,
	})
}

func multipartBody(t *testing.T, field, filename string, content []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	fw, err := w.CreateFormFile(field, filename)
	require.NoError(t, err)
	_, err = fw.Write(content)
	require.NoError(t, err)
	require.NoError(t, w.Close())
	return &buf, w.FormDataContentType()
}

func TestHealth(t *testing.T) {
	srv := httptest.NewServer(newTestServer(t).Router())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestVisuraTest(t *testing.T) {
	srv := httptest.NewServer(newTestServer(t).Router())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/visura/test")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var rec model.VisuraResult
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&rec))
	assert.True(t, rec.Success)
	require.NotNil(t, rec.Data.PartitaIVA)
}

func TestVisuraExtract(t *testing.T) {
	ts := newTestServer(t)
	srv := httptest.NewServer(ts.Router())
	defer srv.Close()

	body, contentType := multipartBody(t, "file", "visura.pdf", []byte("%PDF-1.4"))
	resp, err := http.Post(srv.URL+"/visura/extract", contentType, body)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var rec model.VisuraResult
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&rec))
	assert.True(t, rec.Success)
	require.NotNil(t, rec.Data.PartitaIVA)
	assert.Equal(t, "12345678901", *rec.Data.PartitaIVA)

	// The run must have been persisted.
	runs, err := ts.store.ListRuns(context.Background(), store.RunFilter{})
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, "visura.pdf", runs[0].Filename)
	assert.Equal(t, model.RunStatusComplete, runs[0].Status)
}

func TestVisuraExtract_MissingFileField(t *testing.T) {
	srv := httptest.NewServer(newTestServer(t).Router())
	defer srv.Close()

	body, contentType := multipartBody(t, "documento", "visura.pdf", []byte("%PDF"))
	resp, err := http.Post(srv.URL+"/visura/extract", contentType, body)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestVisuraExtract_EmptyUploadStillSucceeds(t *testing.T) {
	srv := httptest.NewServer(newTestServer(t).Router())
	defer srv.Close()

	body, contentType := multipartBody(t, "file", "vuoto.pdf", nil)
	resp, err := http.Post(srv.URL+"/visura/extract", contentType, body)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var rec model.VisuraResult
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&rec))
	assert.True(t, rec.Success)
	assert.Equal(t, 0, rec.Data.Confidence.Score)
}

func TestLookup(t *testing.T) {
	srv := httptest.NewServer(newTestServer(t).Router())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/lookup?code=62.01&prefer=2025")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out struct {
		Found int         `json:"found"`
		Items []ateco.Row `json:"items"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	require.Equal(t, 1, out.Found)
	assert.Equal(t, "62.01.0", out.Items[0][ateco.Col2025])
}

func TestLookup_MissingCode(t *testing.T) {
	srv := httptest.NewServer(newTestServer(t).Router())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/lookup")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestLookup_NoDataset(t *testing.T) {
	s := New(testPipeline(t, testVisuraText), nil, nil, nil, config.ServerConfig{})
	srv := httptest.NewServer(s.Router())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/lookup?code=62.01")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestSeismicZone(t *testing.T) {
	srv := httptest.NewServer(newTestServer(t).Router())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/seismic/zone?comune=Torino&provincia=TO")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.Equal(t, float64(3), out["zona_sismica"])
	assert.Contains(t, out["descrizione"], "Zona 3")
}

func TestSeismicZone_NotFound(t *testing.T) {
	srv := httptest.NewServer(newTestServer(t).Router())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/seismic/zone?comune=Atlantide")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestRunsEndpoints(t *testing.T) {
	ts := newTestServer(t)
	srv := httptest.NewServer(ts.Router())
	defer srv.Close()

	created, err := ts.store.CreateRun(context.Background(), "visura.pdf", pipeline.TestRecord(), model.RunStatusComplete)
	require.NoError(t, err)

	resp, err := http.Get(srv.URL + "/runs")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var runs []model.Run
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&runs))
	require.Len(t, runs, 1)

	resp2, err := http.Get(srv.URL + "/runs/" + created.ID)
	require.NoError(t, err)
	defer resp2.Body.Close()
	assert.Equal(t, http.StatusOK, resp2.StatusCode)

	resp3, err := http.Get(srv.URL + "/runs/inesistente")
	require.NoError(t, err)
	defer resp3.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp3.StatusCode)
}

func TestRuns_NoStore(t *testing.T) {
	s := New(testPipeline(t, testVisuraText), nil, nil, nil, config.ServerConfig{})
	srv := httptest.NewServer(s.Router())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/runs")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestRateLimit(t *testing.T) {
	s := New(testPipeline(t, testVisuraText), nil, nil, nil, config.ServerConfig{
		RatePerSecond: 0.001,
		RateBurst:     1,
	})
	srv := httptest.NewServer(s.Router())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	io.Copy(io.Discard, resp.Body) //nolint:errcheck
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp2, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	defer resp2.Body.Close()
	assert.Equal(t, http.StatusTooManyRequests, resp2.StatusCode)
}
