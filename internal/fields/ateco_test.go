package fields

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractAteco(t *testing.T) {
	tests := []struct {
		name   string
		text   string
		code   string
		legacy bool
		ok     bool
	}{
		{"labeled current form", "Codice ATECO: 64.99.1 attività finanziarie", "64.99.1", false, true},
		{"labeled with spaces", "ATECO 64 99 1", "64.99.1", false, true},
		{"attivita prevalente label", "Attività prevalente: 62.01.0", "62.01.0", false, true},
		{"code dash description", "Codice: 62.01.1 - Produzione di software", "62.01.1", false, true},
		{"generic current form", "classificata 64.99.1 dal registro", "64.99.1", false, true},
		{"labeled legacy form", "Codice ATECO: 64.99", "64.99", true, true},
		{"generic legacy form", "attività 64.99 registrata", "64.99", true, true},
		{"date rejected", "visura emessa il 19.12.2024", "", false, false},
		{"year 20 rejected", "in data 20.12 del corrente anno", "", false, false},
		{"year 21 rejected", "Codice ATECO: 21.10", "", false, false},
		{"digits inside words rejected", "pratica n. X64.99.1Y", "", false, false},
		{"no code", "nessuna attività dichiarata", "", false, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ExtractAteco(tt.text)
			require.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.code, got.Code)
			assert.Equal(t, tt.legacy, got.Legacy)
		})
	}
}

func TestExtractAteco_LegacyNotSplitFromCurrent(t *testing.T) {
	// "64.99" must not match when it is the head of "64.99.1".
	got, ok := ExtractAteco("Codice ATECO: 64.99.1")
	require.True(t, ok)
	assert.Equal(t, "64.99.1", got.Code)
	assert.False(t, got.Legacy)
}
