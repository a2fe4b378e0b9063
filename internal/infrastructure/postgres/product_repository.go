package postgres

import (
	"context"
	"fmt"

	"github.com/jhoicas/negocio-inventario/internal/domain/entity"
	"github.com/jhoicas/negocio-inventario/internal/domain/repository"
)

var _ repository.ProductRepository = (*ProductRepo)(nil)

// ProductRepo productos de venta sobre PostgreSQL (solo lectura).
type ProductRepo struct {
	q Querier
}

// NewProductRepository construye el adaptador. Pasar pool o tx (Querier).
func NewProductRepository(q Querier) *ProductRepo {
	return &ProductRepo{q: q}
}

// GetByID obtiene un producto del negocio; nil, nil si no existe.
func (r *ProductRepo) GetByID(ctx context.Context, negocioID, id int64) (*entity.SaleProduct, error) {
	query := `
		SELECT id, negocio_id, nombre, tipo, referencia_id, precio, activo
		FROM productos WHERE negocio_id = $1 AND id = $2`
	var p entity.SaleProduct
	var kind string
	err := r.q.QueryRow(ctx, query, negocioID, id).Scan(
		&p.ID, &p.NegocioID, &p.Name, &kind, &p.ReferenceID, &p.Price, &p.Active,
	)
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get producto: %w", err)
	}
	// Un tipo fuera del catálogo se entrega tal cual: el resolver lo rechaza como validación.
	p.Kind = entity.ProductKind(kind)
	return &p, nil
}
