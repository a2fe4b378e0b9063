package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Recipe receta (lista de materiales) de un producto terminado.
// Cost = Σ(línea.Quantity × línea.UnitCost) con el costo capturado al guardar.
type Recipe struct {
	ID           int64
	NegocioID    int64
	Name         string
	Instructions string
	Cost         decimal.Decimal
	Lines        []*RecipeLine
	UpdatedAt    time.Time
}

// Subrecipe subreceta: misma forma un nivel abajo; su costo queda precalculado
// y no se expande al vender. IngredientID apunta al insumo que produce (opcional).
type Subrecipe struct {
	ID           int64
	NegocioID    int64
	Name         string
	Instructions string
	IngredientID *int64
	Cost         decimal.Decimal
	Lines        []*RecipeLine
	UpdatedAt    time.Time
}

// RecipeLine línea de receta o subreceta.
type RecipeLine struct {
	ID             int64
	ParentID       int64 // receta o subreceta dueña
	Position       int
	IngredientID   int64
	IngredientName string // nombre al momento de autoría
	UnitMeasure    string
	Quantity       decimal.Decimal // cantidad por lote
	UnitCost       decimal.Decimal // costo unitario capturado
}

// RecipeCost suma cantidad × costo capturado de cada línea.
func RecipeCost(lines []*RecipeLine) decimal.Decimal {
	total := decimal.Zero
	for _, l := range lines {
		total = total.Add(l.Quantity.Mul(l.UnitCost))
	}
	return total
}
