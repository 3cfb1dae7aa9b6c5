package production

import (
	"strings"
	"unicode"

	"github.com/jhoicas/obra-dashboard/internal/domain/entity"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// foldAccents elimina las marcas diacríticas ("Peón" → "Peon").
func foldAccents(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

// SanitizeID convierte un texto libre en un id de documento estable:
// minúsculas, sin tildes, y cualquier separador colapsado a un solo "_".
func SanitizeID(s string) string {
	s = strings.ToLower(foldAccents(strings.TrimSpace(s)))
	var b strings.Builder
	underscore := false
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			underscore = false
			continue
		}
		if !underscore && b.Len() > 0 {
			b.WriteByte('_')
			underscore = true
		}
	}
	return strings.TrimRight(b.String(), "_")
}

// ActivityKey id del resumen de actividad: el proceso saneado, o el id de la
// actividad cuando el proceso no deja caracteres útiles.
func ActivityKey(a entity.Activity) string {
	if key := SanitizeID(a.Proceso); key != "" {
		return key
	}
	return a.ID
}

// WorkerKey id del resumen de trabajador: el DNI saneado, o el nombre saneado
// si no hay DNI útil.
func WorkerKey(l entity.LaborEntry) string {
	if dni := SanitizeID(l.DNI); dni != "" {
		return dni
	}
	if key := SanitizeID(l.Nombre); key != "" {
		return key
	}
	return l.ID
}
