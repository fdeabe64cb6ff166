package model

// SedeLegale is the registered office of the company: municipality plus
// two-letter province code.
type SedeLegale struct {
	Comune    string `json:"comune"`
	Provincia string `json:"provincia"`
}

// AtecoEntry is one activity classification code attached to the record.
type AtecoEntry struct {
	Codice      string `json:"codice"`
	Descrizione string `json:"descrizione"`
	Principale  bool   `json:"principale"`
}

// Confidence carries the aggregate extraction score and the per-field
// status map ("valid" or "not_found").
type Confidence struct {
	Score   int               `json:"score"`
	Details map[string]string `json:"details"`
}

// VisuraData is the extracted business-identity payload. Nullable fields use
// pointers so absent values serialize as JSON null, matching the frontend
// contract of the original API.
type VisuraData struct {
	PartitaIVA     *string      `json:"partita_iva"`
	CodiceAteco    *string      `json:"codice_ateco"`
	OggettoSociale *string      `json:"oggetto_sociale"`
	CodiciAteco    []AtecoEntry `json:"codici_ateco"`
	SedeLegale     *SedeLegale  `json:"sede_legale,omitempty"`
	Denominazione  *string      `json:"denominazione,omitempty"`
	FormaGiuridica *string      `json:"forma_giuridica,omitempty"`
	Confidence     Confidence   `json:"confidence"`
}

// VisuraResult is the envelope returned for every extraction request.
// Success reports that the pipeline completed, not that extraction was
// complete: callers distinguish "not found" via Confidence, never via errors.
type VisuraResult struct {
	Success bool       `json:"success"`
	Data    VisuraData `json:"data"`
	Method  string     `json:"method"`
}

// FailureKind classifies why a pipeline run produced a degraded record.
type FailureKind string

const (
	FailureNone        FailureKind = ""
	FailureEmptyInput  FailureKind = "empty_input"
	FailureAcquisition FailureKind = "acquisition_failed"
	FailureInternal    FailureKind = "internal_error"
)

// ExtractionReport records how a run went, separately from the record
// itself, so acquisition failure stays distinguishable from field misses.
type ExtractionReport struct {
	Filename   string      `json:"filename"`
	TextMethod string      `json:"text_method,omitempty"`
	TextChars  int         `json:"text_chars"`
	Failure    FailureKind `json:"failure,omitempty"`
}

// EmptyResult returns a structurally valid record with no fields populated
// and zero confidence.
func EmptyResult() *VisuraResult {
	return &VisuraResult{
		Success: true,
		Data: VisuraData{
			CodiciAteco: []AtecoEntry{},
			Confidence:  Confidence{Score: 0, Details: map[string]string{}},
		},
		Method: "backend",
	}
}
