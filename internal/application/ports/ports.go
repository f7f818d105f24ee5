// Package ports declara los colaboradores externos del núcleo: proveedor de
// tasas de cambio y publicador de notificaciones.
package ports

import (
	"context"

	"github.com/jhoicas/produccion-api/internal/domain/entity"
)

// RateProvider obtiene una foto de tasas de cambio relativas a la moneda ancla.
// Sin garantía de frescura: los callers aceptan una foto fallback como servicio
// degradado. La llamada tiene timeout acotado; nunca reintenta indefinidamente.
type RateProvider interface {
	GetRates(ctx context.Context) (entity.RateSnapshot, error)
}

// Notifier publica eventos fire-and-forget. El núcleo nunca espera la entrega
// ni falla una operación porque la publicación haya fallado.
type Notifier interface {
	Publish(event string, payload any)
}
