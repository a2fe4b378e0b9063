package repository

import (
	"context"

	"github.com/jhoicas/negocio-inventario/internal/domain/entity"
)

// ProductRepository puerto de lectura de productos de venta.
type ProductRepository interface {
	GetByID(ctx context.Context, negocioID, id int64) (*entity.SaleProduct, error)
}
