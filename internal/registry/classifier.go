package registry

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// pattern maps a phrase, matched on accent-folded lower-case text, to an
// outcome.
type pattern struct {
	phrase  string
	outcome Outcome
}

// Negative phrases are checked first: most of them contain a positive phrase
// ("no es valido" contains "es valido").
var negativePatterns = []pattern{
	{"no es valido", OutcomeInvalid},
	{"rfc invalido", OutcomeInvalid},
	{"formato incorrecto", OutcomeInvalid},
	{"no valido", OutcomeInvalid},
	{"no se encuentra registrado", OutcomeNotRegistered},
	{"no registrado", OutcomeNotRegistered},
	{"no existe", OutcomeNotRegistered},
	{"no se encontro", OutcomeNotRegistered},
	{"cancelado", OutcomeCancelled},
	{"cancelada", OutcomeCancelled},
	{"suspendido", OutcomeSuspended},
	{"suspendida", OutcomeSuspended},
	{"inactivo", OutcomeSuspended},
}

var positivePatterns = []pattern{
	{"registro activo", OutcomeActive},
	{"susceptible de recibir facturas", OutcomeActive},
	{"rfc valido", OutcomeActive},
	{"es valido", OutcomeActive},
	{"rfc registrado", OutcomeActive},
	{"estatus: activo", OutcomeActive},
}

// Classify maps registry text to an outcome. ok is false when no known
// phrase matches.
func Classify(text string) (o Outcome, ok bool) {
	folded := Fold(text)
	for _, p := range negativePatterns {
		if strings.Contains(folded, p.phrase) {
			return p.outcome, true
		}
	}
	for _, p := range positivePatterns {
		if strings.Contains(folded, p.phrase) {
			return p.outcome, true
		}
	}
	return "", false
}

// Fold lowercases s, strips diacritics and collapses whitespace runs.
func Fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		out = s
	}
	return strings.Join(strings.Fields(strings.ToLower(out)), " ")
}
