package inventory

import (
	"context"
	"sort"

	"github.com/jhoicas/negocio-inventario/internal/application/ports"
	"github.com/shopspring/decimal"
)

// LowStockItem insumo por debajo de su existencia mínima con la cantidad sugerida de compra.
type LowStockItem struct {
	IngredientID      int64
	Name              string
	UnitMeasure       string
	Supplier          string
	CurrentStock      decimal.Decimal
	MinStock          decimal.Decimal
	IdealStock        decimal.Decimal // MinStock * 1.5
	SuggestedOrderQty decimal.Decimal // IdealStock - CurrentStock
	UnitCost          decimal.Decimal
	EstimatedCost     decimal.Decimal
	Priority          int // 1 = más urgente
}

// ReplenishmentUseCase lista los insumos a reponer de un negocio.
type ReplenishmentUseCase struct {
	txRunner ports.TxRunner
}

// NewReplenishmentUseCase construye el caso de uso de reposición.
func NewReplenishmentUseCase(txRunner ports.TxRunner) *ReplenishmentUseCase {
	return &ReplenishmentUseCase{txRunner: txRunner}
}

var idealFactor = decimal.NewFromFloat(1.5)

// LowStock devuelve los insumos activos e inventariables bajo mínimo, ordenados por
// déficit relativo (existencias negativas primero).
func (uc *ReplenishmentUseCase) LowStock(ctx context.Context, negocioID int64) ([]LowStockItem, error) {
	items := []LowStockItem{}
	err := uc.txRunner.Run(ctx, func(tx *ports.Tx) error {
		ings, err := tx.Ingredients.ListBelowMinimum(ctx, negocioID)
		if err != nil {
			return err
		}
		for _, ing := range ings {
			ideal := ing.MinStock.Mul(idealFactor)
			suggested := ideal.Sub(ing.Quantity)
			if suggested.LessThan(decimal.Zero) {
				suggested = decimal.Zero
			}
			items = append(items, LowStockItem{
				IngredientID:      ing.ID,
				Name:              ing.Name,
				UnitMeasure:       ing.UnitMeasure,
				Supplier:          ing.Supplier,
				CurrentStock:      ing.Quantity,
				MinStock:          ing.MinStock,
				IdealStock:        ideal,
				SuggestedOrderQty: suggested,
				UnitCost:          ing.Cost,
				EstimatedCost:     suggested.Mul(ing.Cost),
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.SliceStable(items, func(i, j int) bool {
		a, b := items[i], items[j]
		ra, rb := a.CurrentStock.Div(a.MinStock), b.CurrentStock.Div(b.MinStock)
		if !ra.Equal(rb) {
			return ra.LessThan(rb)
		}
		return a.IngredientID < b.IngredientID
	})
	for i := range items {
		items[i].Priority = i + 1
	}
	return items, nil
}
