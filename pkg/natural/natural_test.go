package natural_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jhoicas/produccion-api/pkg/natural"
)

func TestKey_Normaliza(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"lote-001", "LOTE-001"},
		{"  LOTE 001  ", "LOTE-001"},
		{"Çilek-Reçel_2024", "CILEK-RECEL-2024"},
		{"ñandú  123", "NANDU-123"},
		{"über--mix", "UBER-MIX"},
		{"trailing-", "TRAILING"},
		{"", ""},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, natural.Key(c.in), "entrada %q", c.in)
	}
}

func TestKey_MismaClaveDistintasGrafias(t *testing.T) {
	// La razón de ser del paquete: la misma clave escrita de formas distintas
	// debe resolver al mismo registro.
	variants := []string{"LOTE-001", "lote 001", " Lote_001 ", "LOTE--001"}
	for _, v := range variants {
		assert.Equal(t, "LOTE-001", natural.Key(v))
	}
}
