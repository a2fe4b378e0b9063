package dto

import "github.com/shopspring/decimal"

// RecipeLineRequest línea de receta. Sin costo se captura el costo vigente del insumo.
type RecipeLineRequest struct {
	IngredientID int64            `json:"insumo_id" validate:"required,gt=0"`
	Quantity     decimal.Decimal  `json:"cantidad"`
	UnitCost     *decimal.Decimal `json:"costo,omitempty"`
}

// RecipeRequest body para POST /api/recetas y PUT /api/recetas/:id (reemplazo completo).
type RecipeRequest struct {
	Name         string              `json:"nombre" validate:"required,max=120"`
	Instructions string              `json:"instrucciones,omitempty" validate:"max=2000"`
	Lines        []RecipeLineRequest `json:"lineas" validate:"required,min=1,dive"`
}

// SubrecipeRequest body para POST /api/subrecetas y PUT /api/subrecetas/:id.
type SubrecipeRequest struct {
	Name         string              `json:"nombre" validate:"required,max=120"`
	Instructions string              `json:"instrucciones,omitempty" validate:"max=2000"`
	IngredientID *int64              `json:"insumo_id,omitempty" validate:"omitempty,gt=0"`
	Lines        []RecipeLineRequest `json:"lineas" validate:"required,min=1,dive"`
}

// RecipeLineResponse línea con su costo capturado.
type RecipeLineResponse struct {
	IngredientID   int64           `json:"insumo_id"`
	IngredientName string          `json:"insumo"`
	UnitMeasure    string          `json:"unidad_medida"`
	Quantity       decimal.Decimal `json:"cantidad"`
	UnitCost       decimal.Decimal `json:"costo_unitario"`
}

// RecipeResponse receta o subreceta guardada con su costo recalculado.
type RecipeResponse struct {
	ID           int64                `json:"id"`
	Name         string               `json:"nombre"`
	Instructions string               `json:"instrucciones,omitempty"`
	IngredientID *int64               `json:"insumo_id,omitempty"`
	Cost         decimal.Decimal      `json:"costo"`
	Lines        []RecipeLineResponse `json:"lineas"`
}

// MarginResponse margen de un par costo/precio.
type MarginResponse struct {
	Pct  decimal.Decimal `json:"porcentaje"`
	Band string          `json:"banda"`
}

// LineCostResponse costo de una línea: capturado vs. vigente.
type LineCostResponse struct {
	IngredientID     int64           `json:"insumo_id"`
	IngredientName   string          `json:"insumo"`
	UnitMeasure      string          `json:"unidad_medida"`
	Quantity         decimal.Decimal `json:"cantidad"`
	CapturedUnitCost decimal.Decimal `json:"costo_capturado"`
	LiveUnitCost     decimal.Decimal `json:"costo_vigente"`
	Missing          bool            `json:"faltante,omitempty"`
}

// CostSummaryResponse respuesta de GET /api/recetas/:id/costo.
type CostSummaryResponse struct {
	RecipeID     int64              `json:"receta_id"`
	Name         string             `json:"nombre"`
	CapturedCost decimal.Decimal    `json:"costo_capturado"`
	LiveCost     decimal.Decimal    `json:"costo_vigente"`
	Price        decimal.Decimal    `json:"precio"`
	Margin       MarginResponse     `json:"margen"`
	LiveMargin   MarginResponse     `json:"margen_vigente"`
	Lines        []LineCostResponse `json:"lineas"`
}
