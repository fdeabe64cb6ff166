// Package confidence scores an extraction by summing fixed per-field weights.
package confidence

import "github.com/celerya/visura-cli/internal/model"

// Field weights sum to 100 when everything is present. The two fields that
// gate downstream risk logic (tax identifier and activity code) carry the
// largest individual weights.
const (
	WeightPartitaIVA     = 25
	WeightAteco          = 25
	WeightOggettoSociale = 15
	WeightSedeLegale     = 15
	WeightDenominazione  = 10
	WeightFormaGiuridica = 10
)

const (
	StatusValid    = "valid"
	StatusNotFound = "not_found"
)

// Evaluate computes the aggregate score and per-field status map for the
// extracted payload. The score is clamped to [0,100].
func Evaluate(data *model.VisuraData) model.Confidence {
	score := 0
	details := make(map[string]string, 6)

	mark := func(field string, present bool, weight int) {
		if present {
			score += weight
			details[field] = StatusValid
		} else {
			details[field] = StatusNotFound
		}
	}

	mark("partita_iva", data.PartitaIVA != nil, WeightPartitaIVA)
	mark("ateco", data.CodiceAteco != nil, WeightAteco)
	mark("oggetto_sociale", data.OggettoSociale != nil, WeightOggettoSociale)
	mark("sede_legale", data.SedeLegale != nil, WeightSedeLegale)
	mark("denominazione", data.Denominazione != nil, WeightDenominazione)
	mark("forma_giuridica", data.FormaGiuridica != nil, WeightFormaGiuridica)

	if score > 100 {
		score = 100
	}
	if score < 0 {
		score = 0
	}

	return model.Confidence{Score: score, Details: details}
}
