package repository

import (
	"context"

	"github.com/jhoicas/negocio-inventario/internal/domain/entity"
)

// MovementRepository puerto del libro de movimientos (cabecera + líneas).
// Solo se insertan filas y se cambian estados; cantidades y costos escritos no se reescriben.
type MovementRepository interface {
	Create(ctx context.Context, movement *entity.Movement) error
	CreateLine(ctx context.Context, line *entity.MovementLine) error
	// SetReference asigna el folio a una cabecera recién creada, antes de escribir sus líneas.
	SetReference(ctx context.Context, movementID int64, referenceID string) error
	// GetByID devuelve la cabecera con sus líneas, o nil, nil si no existe.
	GetByID(ctx context.Context, negocioID, id int64) (*entity.Movement, error)
	ListByReference(ctx context.Context, negocioID int64, referenceID string) ([]*entity.Movement, error)
	// ListLinesByReference líneas de la referencia en el estado indicado, ordenadas por insumo.
	ListLinesByReference(ctx context.Context, negocioID int64, referenceID string, status entity.MovementStatus) ([]*entity.MovementLine, error)
	// SaleLineWritten indica si ya existe una línea no eliminada para (referencia, línea de venta, insumo).
	SaleLineWritten(ctx context.Context, negocioID int64, referenceID string, saleLineID, ingredientID int64) (bool, error)
	SetStatus(ctx context.Context, negocioID, movementID int64, status entity.MovementStatus) error
	SetLineStatus(ctx context.Context, lineID int64, status entity.MovementStatus) error
	CountLinesByStatus(ctx context.Context, movementID int64, status entity.MovementStatus) (int, error)
}
