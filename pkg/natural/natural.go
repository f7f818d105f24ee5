// Package natural normaliza claves naturales visibles para humanos (SKU, número
// de lote, número de tanda): quita diacríticos (ç, ğ, ñ, ü...), colapsa espacios
// y deja solo mayúsculas, dígitos y guiones, para que la misma clave escrita de
// formas distintas resuelva al mismo registro.
package natural

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var stripMarks = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Key normaliza una clave natural: sin diacríticos, mayúsculas, espacios a guión.
func Key(s string) string {
	clean, _, err := transform.String(stripMarks, s)
	if err != nil {
		clean = s
	}
	clean = strings.ToUpper(strings.TrimSpace(clean))
	var b strings.Builder
	lastDash := false
	for _, r := range clean {
		switch {
		case r >= 'A' && r <= 'Z' || r >= '0' && r <= '9':
			b.WriteRune(r)
			lastDash = false
		case r == '-' || r == '_' || unicode.IsSpace(r):
			if !lastDash && b.Len() > 0 {
				b.WriteByte('-')
				lastDash = true
			}
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}
