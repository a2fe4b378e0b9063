package repository

import (
	"context"

	"github.com/jhoicas/negocio-inventario/internal/domain/entity"
)

// IngredientRepository puerto de lectura del catálogo de insumos.
// La escritura de existencia y costo promedio no está aquí: solo el conciliador
// recibe ese puerto (reconcile.StockStore).
type IngredientRepository interface {
	// GetByID devuelve nil, nil si el insumo no existe en el negocio.
	GetByID(ctx context.Context, negocioID, id int64) (*entity.Ingredient, error)
	ListByIDs(ctx context.Context, negocioID int64, ids []int64) ([]*entity.Ingredient, error)
	// ListBelowMinimum insumos activos e inventariables con existencia menor al mínimo.
	ListBelowMinimum(ctx context.Context, negocioID int64) ([]*entity.Ingredient, error)
}
