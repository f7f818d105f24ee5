package sanitize_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jhoicas/produccion-api/internal/application/sanitize"
)

var table = sanitize.Table{
	"status":               {Allowed: []string{"planned", "in_progress", "completed"}},
	"quality_check_result": {Allowed: []string{"pending", "passed", "failed"}},
	"fulfillment_method":   {Allowed: []string{"stock", "production", "mixed"}, Default: "stock"},
}

func TestApply_ValorValidoPasaIntacto(t *testing.T) {
	clean, repaired := table.Apply(map[string]string{"status": "in_progress"})
	assert.Equal(t, "in_progress", clean["status"])
	assert.Empty(t, repaired)
}

func TestApply_InvalidoSinDefaultSeDescarta(t *testing.T) {
	clean, repaired := table.Apply(map[string]string{"status": "volando"})
	_, ok := clean["status"]
	assert.False(t, ok, "un valor inválido sin default no debe quedar en el patch")
	assert.Equal(t, []string{"status"}, repaired)
}

func TestApply_InvalidoConDefaultSeRepara(t *testing.T) {
	clean, repaired := table.Apply(map[string]string{"fulfillment_method": "magia"})
	assert.Equal(t, "stock", clean["fulfillment_method"])
	assert.Equal(t, []string{"fulfillment_method"}, repaired)
}

func TestApply_CampoSinReglaPasaIntacto(t *testing.T) {
	clean, repaired := table.Apply(map[string]string{"notes": "lo que sea"})
	assert.Equal(t, "lo que sea", clean["notes"])
	assert.Empty(t, repaired)
}

func TestApply_MezclaDeCampos(t *testing.T) {
	clean, repaired := table.Apply(map[string]string{
		"status":               "completed",
		"quality_check_result": "quizás",
	})
	assert.Equal(t, "completed", clean["status"])
	_, ok := clean["quality_check_result"]
	assert.False(t, ok)
	assert.Equal(t, []string{"quality_check_result"}, repaired)
}
