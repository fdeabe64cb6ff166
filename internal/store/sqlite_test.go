package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/celerya/visura-cli/internal/config"
	"github.com/celerya/visura-cli/internal/model"
)

func testStoreConfig(t *testing.T, driver string) config.StoreConfig {
	t.Helper()
	return config.StoreConfig{
		Driver:      driver,
		DatabaseURL: filepath.Join(t.TempDir(), "store.db"),
	}
}

func newTestSQLite(t *testing.T) *SQLiteStore {
	t.Helper()
	st, err := NewSQLite(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	require.NoError(t, st.Migrate(context.Background()))
	return st
}

func sampleResult(score int) *model.VisuraResult {
	piva := "12345678901"
	res := model.EmptyResult()
	res.Data.PartitaIVA = &piva
	res.Data.Confidence.Score = score
	return res
}

func TestSQLite_CreateAndGetRun(t *testing.T) {
	st := newTestSQLite(t)
	ctx := context.Background()

	created, err := st.CreateRun(ctx, "visura.pdf", sampleResult(75), model.RunStatusComplete)
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, 75, created.Score)

	got, err := st.GetRun(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "visura.pdf", got.Filename)
	assert.Equal(t, model.RunStatusComplete, got.Status)
	require.NotNil(t, got.Result)
	require.NotNil(t, got.Result.Data.PartitaIVA)
	assert.Equal(t, "12345678901", *got.Result.Data.PartitaIVA)
}

func TestSQLite_GetRunNotFound(t *testing.T) {
	st := newTestSQLite(t)

	_, err := st.GetRun(context.Background(), "00000000-0000-0000-0000-000000000000")
	assert.Error(t, err)
}

func TestSQLite_ListRunsFilterAndLimit(t *testing.T) {
	st := newTestSQLite(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := st.CreateRun(ctx, "ok.pdf", sampleResult(100), model.RunStatusComplete)
		require.NoError(t, err)
	}
	_, err := st.CreateRun(ctx, "scan.pdf", sampleResult(0), model.RunStatusDegraded)
	require.NoError(t, err)

	all, err := st.ListRuns(ctx, RunFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 4)

	degraded, err := st.ListRuns(ctx, RunFilter{Status: model.RunStatusDegraded})
	require.NoError(t, err)
	require.Len(t, degraded, 1)
	assert.Equal(t, "scan.pdf", degraded[0].Filename)

	limited, err := st.ListRuns(ctx, RunFilter{Limit: 2})
	require.NoError(t, err)
	assert.Len(t, limited, 2)
}

func TestNew_DriverSelection(t *testing.T) {
	ctx := context.Background()

	st, err := New(ctx, testStoreConfig(t, "sqlite"))
	require.NoError(t, err)
	assert.IsType(t, &SQLiteStore{}, st)
	_ = st.Close()

	st, err = New(ctx, testStoreConfig(t, ""))
	require.NoError(t, err)
	assert.IsType(t, &SQLiteStore{}, st)
	_ = st.Close()

	_, err = New(ctx, testStoreConfig(t, "oracle"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown driver "oracle"`)
}
