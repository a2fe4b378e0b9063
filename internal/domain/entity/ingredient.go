package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Ingredient insumo del catálogo (unidad de inventario) de un negocio.
// Quantity y Cost solo los modifica el conciliador de existencias.
type Ingredient struct {
	ID            int64
	NegocioID     int64
	Name          string
	UnitMeasure   string
	Quantity      decimal.Decimal // existencia, puede ser negativa
	MinStock      decimal.Decimal
	Cost          decimal.Decimal // costo promedio ponderado
	Price         decimal.Decimal
	Active        bool
	Inventoriable bool
	CategoryID    *int64 // categoría contable
	Supplier      string // proveedor por nombre (desnormalizado)
	UpdatedAt     time.Time
}

// BelowMinimum indica si la existencia está por debajo del mínimo configurado.
func (i *Ingredient) BelowMinimum() bool {
	return i.MinStock.GreaterThan(decimal.Zero) && i.Quantity.LessThan(i.MinStock)
}
