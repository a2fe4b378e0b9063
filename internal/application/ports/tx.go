package ports

import (
	"context"

	"github.com/jhoicas/negocio-inventario/internal/application/reconcile"
	"github.com/jhoicas/negocio-inventario/internal/domain/repository"
)

// Conciliador aplica las líneas pendientes de una referencia dentro de la transacción.
// Lo implementa *reconcile.Reconciler; es la única vía de escritura de existencias.
type Conciliador interface {
	Apply(ctx context.Context, negocioID int64, referenceID string) (*reconcile.Result, error)
}

// Tx repositorios atados a una misma transacción. Los repositorios del catálogo son
// de solo lectura: existencia y costo promedio se escriben únicamente vía Conciliador.
type Tx struct {
	Ingredients repository.IngredientRepository
	Recipes     repository.RecipeRepository
	Products    repository.ProductRepository
	Movements   repository.MovementRepository
	Sales       repository.SaleRepository
	Shifts      repository.ShiftRepository
	Conciliador Conciliador
}

// TxRunner ejecuta fn dentro de una transacción: Commit si fn devuelve nil, Rollback en otro caso.
// Un evento de negocio (venta, compra, ajuste, turno, receta) = una llamada a Run.
type TxRunner interface {
	Run(ctx context.Context, fn func(tx *Tx) error) error
}
