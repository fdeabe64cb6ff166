// Package ateco hosts the activity-code lookup engine: an in-memory table
// built from the ISTAT recode spreadsheet, a smart search across the 2022 and
// 2025 code columns, and the resolver that converts legacy codes to their
// current-taxonomy form.
package ateco

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
	"go.uber.org/zap"
)

// Canonical column names of the recode dataset.
const (
	Col2022              = "CODICE_ATECO_2022"
	ColTitle2022         = "TITOLO_ATECO_2022"
	ColHierarchy2022     = "GERARCHIA_ATECO_2022"
	Col2025              = "CODICE_ATECO_2025_RAPPRESENTATIVO"
	ColTitle2025         = "TITOLO_ATECO_2025_RAPPRESENTATIVO"
	Col2025Camerale      = "CODICE_ATECO_2025_RAPPRESENTATIVO_SISTEMA_CAMERALE"
	ColTitle2025Camerale = "TITOLO_ATECO_2025_RAPPRESENTATIVO_SISTEMA_CAMERALE"
)

// headerAliases tolerate the header variants seen across dataset editions.
var headerAliases = map[string][]string{
	Col2022:              {Col2022, "CODICE ATECO 2022", "CODICE_ATECO"},
	ColTitle2022:         {ColTitle2022, "TITOLO ATECO 2022", "TITOLO_2022", "TITOLO_ATECO"},
	ColHierarchy2022:     {ColHierarchy2022, "GERARCHIA_ATEC", "GERARCHIA"},
	Col2025:              {Col2025, "CODICE ATECO 2025 RAPPRESENTATIVO"},
	ColTitle2025:         {ColTitle2025, "TITOLO ATECO 2025 RAPPRESENTATIVO"},
	Col2025Camerale:      {Col2025Camerale, "CODICE 2025 SISTEMA CAMERALE"},
	ColTitle2025Camerale: {ColTitle2025Camerale, "TITOLO 2025 SISTEMA CAMERALE"},
}

var headerResolve = func() map[string]string {
	m := make(map[string]string)
	for canonical, variants := range headerAliases {
		for _, v := range variants {
			m[strings.ToLower(v)] = canonical
		}
	}
	return m
}()

// codeColumns are the columns the smart search indexes.
var codeColumns = []string{Col2022, Col2025, Col2025Camerale}

// preferredSheets are tried in order before falling back to the first sheet.
var preferredSheets = []string{"Tabella operativa", "tabella operativa", "Foglio1", "Sheet1"}

// Row is one dataset row keyed by canonical column name.
type Row map[string]string

// record pairs a row with its per-column normalized and stripped code forms.
type record struct {
	values Row
	norm   map[string]string
	strip  map[string]string
}

// Table is the loaded recode dataset.
type Table struct {
	rows []record
}

// NewTable builds a Table from already-parsed rows, indexing the code
// columns for search.
func NewTable(rows []Row) *Table {
	t := &Table{rows: make([]record, 0, len(rows))}
	for _, values := range rows {
		rec := record{
			values: values,
			norm:   make(map[string]string, len(codeColumns)),
			strip:  make(map[string]string, len(codeColumns)),
		}
		for _, col := range codeColumns {
			rec.norm[col] = NormalizeCode(values[col])
			rec.strip[col] = StripCode(values[col])
		}
		t.rows = append(t.rows, rec)
	}
	return t
}

// Len returns the number of data rows.
func (t *Table) Len() int { return len(t.rows) }

// LoadTable reads the recode spreadsheet. sheetName overrides the default
// sheet detection when non-empty.
func LoadTable(path, sheetName string) (*Table, error) {
	f, err := xlsx.OpenFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "ateco: open dataset %s", path)
	}

	sheet, err := pickSheet(f, sheetName)
	if err != nil {
		return nil, err
	}
	if len(sheet.Rows) < 2 {
		return nil, eris.Errorf("ateco: dataset sheet %q has no data rows", sheet.Name)
	}

	headers := make([]string, len(sheet.Rows[0].Cells))
	for i, cell := range sheet.Rows[0].Cells {
		h := strings.TrimSpace(cell.String())
		if canonical, ok := headerResolve[strings.ToLower(h)]; ok {
			h = canonical
		}
		headers[i] = h
	}

	rows := make([]Row, 0, len(sheet.Rows)-1)
	for _, row := range sheet.Rows[1:] {
		values := make(Row, len(headers))
		for i, cell := range row.Cells {
			if i >= len(headers) || headers[i] == "" {
				continue
			}
			values[headers[i]] = strings.TrimSpace(cell.String())
		}
		rows = append(rows, values)
	}
	t := NewTable(rows)

	zap.L().Info("ateco: dataset loaded",
		zap.String("path", path),
		zap.String("sheet", sheet.Name),
		zap.Int("rows", t.Len()),
	)
	return t, nil
}

func pickSheet(f *xlsx.File, sheetName string) (*xlsx.Sheet, error) {
	if sheetName != "" {
		sheet, ok := f.Sheet[sheetName]
		if !ok {
			return nil, eris.Errorf("ateco: sheet %q not found in dataset", sheetName)
		}
		return sheet, nil
	}
	for _, name := range preferredSheets {
		if sheet, ok := f.Sheet[name]; ok {
			return sheet, nil
		}
	}
	if len(f.Sheets) == 0 {
		return nil, eris.New("ateco: dataset has no sheets")
	}
	return f.Sheets[0], nil
}
