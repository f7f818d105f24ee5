// Package sanitize centraliza la reparación de enums de entrada: una sola tabla
// de valores permitidos por campo aplicada en la frontera de cada máquina de
// estados, en lugar de defaults silenciosos repartidos por cada caller.
package sanitize

// Rule define los valores admitidos de un campo. Si Default es vacío, un valor
// inválido se descarta del patch; si no, se reemplaza por Default.
type Rule struct {
	Allowed []string
	Default string
}

// Table mapea campo -> regla.
type Table map[string]Rule

// Apply limpia un patch contra la tabla: los campos sin regla pasan intactos,
// los valores inválidos se descartan o se reemplazan según la regla. Devuelve el
// patch limpio y la lista de campos reparados (para log de auditoría).
func (t Table) Apply(patch map[string]string) (map[string]string, []string) {
	clean := make(map[string]string, len(patch))
	var repaired []string
	for field, value := range patch {
		rule, ok := t[field]
		if !ok {
			clean[field] = value
			continue
		}
		if contains(rule.Allowed, value) {
			clean[field] = value
			continue
		}
		repaired = append(repaired, field)
		if rule.Default != "" {
			clean[field] = rule.Default
		}
	}
	return clean, repaired
}

func contains(values []string, v string) bool {
	for _, candidate := range values {
		if candidate == v {
			return true
		}
	}
	return false
}
