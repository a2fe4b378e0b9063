package repository

import (
	"context"

	"github.com/jhoicas/negocio-inventario/internal/domain/entity"
)

// SaleRepository puerto hacia las ventas (colaborador externo).
// El núcleo lee ventas, marca líneas procesadas y registra entradas de caja del turno.
type SaleRepository interface {
	// GetForUpdate devuelve la venta con sus líneas bloqueando la fila, o nil, nil.
	GetForUpdate(ctx context.Context, negocioID, id int64) (*entity.Sale, error)
	SetFolio(ctx context.Context, id int64, folio string) error
	MarkLineProcessed(ctx context.Context, lineID int64) error
	// Create inserta una entrada con forma de venta (fondo o retiro de caja).
	Create(ctx context.Context, sale *entity.Sale) error
	// CountOpenByShiftKey órdenes ABIERTAS que referencian la clave del turno.
	CountOpenByShiftKey(ctx context.Context, negocioID int64, shiftKey string) (int, error)
}
