package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jhoicas/negocio-inventario/internal/application/reconcile"
	"github.com/jhoicas/negocio-inventario/internal/domain"
	"github.com/jhoicas/negocio-inventario/internal/domain/entity"
	"github.com/jhoicas/negocio-inventario/internal/domain/repository"
	"github.com/shopspring/decimal"
)

var (
	_ repository.IngredientRepository = (*IngredientRepo)(nil)
	_ reconcile.StockStore            = (*IngredientRepo)(nil)
)

// IngredientRepo catálogo de insumos sobre PostgreSQL (usable con pool o tx).
// Implementa además reconcile.StockStore; el TxRunner solo lo expone como tal al conciliador.
type IngredientRepo struct {
	q Querier
}

// NewIngredientRepository construye el adaptador. Pasar pool o tx (Querier).
func NewIngredientRepository(q Querier) *IngredientRepo {
	return &IngredientRepo{q: q}
}

const ingredientColumns = `id, negocio_id, nombre, unidad_medida, existencia, minimo, costo, precio,
	activo, inventariable, categoria_id, proveedor, updated_at`

func scanIngredient(row pgx.Row) (*entity.Ingredient, error) {
	var i entity.Ingredient
	err := row.Scan(
		&i.ID, &i.NegocioID, &i.Name, &i.UnitMeasure, &i.Quantity, &i.MinStock, &i.Cost, &i.Price,
		&i.Active, &i.Inventoriable, &i.CategoryID, &i.Supplier, &i.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &i, nil
}

// GetByID obtiene un insumo del negocio; nil, nil si no existe.
func (r *IngredientRepo) GetByID(ctx context.Context, negocioID, id int64) (*entity.Ingredient, error) {
	query := `SELECT ` + ingredientColumns + ` FROM insumos WHERE negocio_id = $1 AND id = $2`
	ing, err := scanIngredient(r.q.QueryRow(ctx, query, negocioID, id))
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get insumo: %w", err)
	}
	return ing, nil
}

// ListByIDs insumos del negocio con los ids dados, ordenados por id. Los inexistentes se omiten.
func (r *IngredientRepo) ListByIDs(ctx context.Context, negocioID int64, ids []int64) ([]*entity.Ingredient, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	query := `SELECT ` + ingredientColumns + ` FROM insumos WHERE negocio_id = $1 AND id = ANY($2) ORDER BY id`
	return r.list(ctx, query, negocioID, ids)
}

// ListBelowMinimum insumos activos e inventariables bajo su mínimo.
func (r *IngredientRepo) ListBelowMinimum(ctx context.Context, negocioID int64) ([]*entity.Ingredient, error) {
	query := `SELECT ` + ingredientColumns + `
		FROM insumos
		WHERE negocio_id = $1 AND activo AND inventariable AND minimo > 0 AND existencia < minimo
		ORDER BY id`
	return r.list(ctx, query, negocioID)
}

func (r *IngredientRepo) list(ctx context.Context, query string, args ...any) ([]*entity.Ingredient, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list insumos: %w", err)
	}
	defer rows.Close()
	var out []*entity.Ingredient
	for rows.Next() {
		ing, err := scanIngredient(rows)
		if err != nil {
			return nil, fmt.Errorf("scan insumo: %w", err)
		}
		out = append(out, ing)
	}
	return out, rows.Err()
}

// GetForUpdate obtiene el insumo y bloquea la fila (SELECT FOR UPDATE).
func (r *IngredientRepo) GetForUpdate(ctx context.Context, negocioID, id int64) (*entity.Ingredient, error) {
	query := `SELECT ` + ingredientColumns + ` FROM insumos WHERE negocio_id = $1 AND id = $2 FOR UPDATE`
	ing, err := scanIngredient(r.q.QueryRow(ctx, query, negocioID, id))
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get insumo for update: %w", err)
	}
	return ing, nil
}

// UpdateStock escribe existencia, costo promedio y proveedor.
func (r *IngredientRepo) UpdateStock(ctx context.Context, negocioID, id int64, quantity, cost decimal.Decimal, supplier string) error {
	query := `
		UPDATE insumos SET existencia = $3, costo = $4, proveedor = $5, updated_at = now()
		WHERE negocio_id = $1 AND id = $2`
	tag, err := r.q.Exec(ctx, query, negocioID, id, quantity, cost, supplier)
	if err != nil {
		return fmt.Errorf("update stock insumo %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("update stock insumo %d: %w", id, domain.ErrNotFound)
	}
	return nil
}
