// Package seismic looks up the seismic classification (OPCM 3519/2006,
// zones 1-4) of Italian municipalities. The registered-office field of an
// extraction gates this lookup downstream.
package seismic

import (
	"os"
	"strings"
	"unicode"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
	"gopkg.in/yaml.v3"
)

// Zone is one municipality's seismic classification.
type Zone struct {
	Comune    string  `yaml:"comune" json:"comune"`
	Provincia string  `yaml:"provincia" json:"provincia"`
	ZonaInt   int     `yaml:"zona_sismica" json:"zona_sismica"`
	AgMax     float64 `yaml:"accelerazione_ag" json:"accelerazione_ag,omitempty"`
	Risk      string  `yaml:"risk_level" json:"risk_level,omitempty"`
}

// Description returns the official wording for the zone class.
func (z Zone) Description() string {
	switch z.ZonaInt {
	case 1:
		return "Zona 1 - Sismicità alta: possono verificarsi fortissimi terremoti"
	case 2:
		return "Zona 2 - Sismicità media: possono verificarsi forti terremoti"
	case 3:
		return "Zona 3 - Sismicità bassa: scuotimenti modesti"
	case 4:
		return "Zona 4 - Sismicità molto bassa: la zona meno pericolosa"
	}
	return ""
}

type datasetFile struct {
	Comuni []Zone `yaml:"comuni"`
}

// DB is the loaded zone dataset, indexed by normalized municipality name.
type DB struct {
	byName map[string][]Zone
	count  int
}

var accentStripper = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// normalizeName folds case, accents and spacing so "Forlì" matches "FORLI'".
func normalizeName(name string) string {
	s := strings.ToLower(strings.TrimSpace(name))
	s = strings.ReplaceAll(s, "'", "")
	s = strings.Join(strings.Fields(s), " ")
	if folded, _, err := transform.String(accentStripper, s); err == nil {
		s = folded
	}
	return s
}

// Load reads the YAML zone dataset.
func Load(path string) (*DB, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "seismic: read dataset %s", path)
	}

	var file datasetFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, eris.Wrap(err, "seismic: parse dataset")
	}

	db := &DB{byName: make(map[string][]Zone, len(file.Comuni)), count: len(file.Comuni)}
	for _, z := range file.Comuni {
		key := normalizeName(z.Comune)
		db.byName[key] = append(db.byName[key], z)
	}

	zap.L().Info("seismic: dataset loaded", zap.String("path", path), zap.Int("comuni", db.count))
	return db, nil
}

// Len returns the number of municipalities in the dataset.
func (db *DB) Len() int { return db.count }

// Lookup finds the zone for a municipality. When provincia is non-empty it
// disambiguates homonym municipalities; otherwise the first entry wins.
func (db *DB) Lookup(comune, provincia string) (Zone, bool) {
	zones, ok := db.byName[normalizeName(comune)]
	if !ok || len(zones) == 0 {
		return Zone{}, false
	}
	if provincia == "" {
		return zones[0], true
	}
	want := strings.ToUpper(strings.TrimSpace(provincia))
	for _, z := range zones {
		if strings.ToUpper(z.Provincia) == want {
			return z, true
		}
	}
	return Zone{}, false
}
