// Package notify implementa el publicador de eventos fire-and-forget. La
// implementación actual escribe al log estructurado; el puerto permite cambiar
// a un broker sin tocar los casos de uso.
package notify

import (
	"github.com/jhoicas/produccion-api/internal/application/ports"
	"github.com/jhoicas/produccion-api/pkg/logger"
)

var _ ports.Notifier = (*LogNotifier)(nil)

// LogNotifier publica eventos como entradas de log. Nunca bloquea ni falla la
// operación que publica.
type LogNotifier struct {
	log *logger.Logger
}

// NewLogNotifier construye el notificador.
func NewLogNotifier(log *logger.Logger) *LogNotifier {
	return &LogNotifier{log: log}
}

// Publish emite el evento con su payload.
func (n *LogNotifier) Publish(event string, payload any) {
	n.log.Info().Str("event", event).Interface("payload", payload).Msg("evento publicado")
}
