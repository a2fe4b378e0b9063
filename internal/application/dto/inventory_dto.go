package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// PurchaseLineRequest insumo recibido en una compra.
type PurchaseLineRequest struct {
	IngredientID int64           `json:"insumo_id" validate:"required,gt=0"`
	Quantity     decimal.Decimal `json:"cantidad"`
	UnitCost     decimal.Decimal `json:"costo"`
}

// PurchaseRequest body para POST /api/compras/inventario.
type PurchaseRequest struct {
	ReferenceID string                `json:"referencia,omitempty" validate:"max=64"`
	Supplier    string                `json:"proveedor,omitempty" validate:"max=120"`
	Notes       string                `json:"notas,omitempty" validate:"max=500"`
	Lines       []PurchaseLineRequest `json:"lineas" validate:"required,min=1,dive"`
}

// AdjustmentLineRequest efecto sobre un insumo. En AJUSTE_MANUAL e INV_INICIAL la cantidad es el conteo real.
type AdjustmentLineRequest struct {
	IngredientID int64            `json:"insumo_id" validate:"required,gt=0"`
	Quantity     decimal.Decimal  `json:"cantidad"`
	UnitCost     *decimal.Decimal `json:"costo,omitempty"`
	Supplier     string           `json:"proveedor,omitempty" validate:"max=120"`
}

// AdjustmentRequest body para POST /api/inventario/movimientos.
type AdjustmentRequest struct {
	Reason      string                  `json:"motivo" validate:"required,oneof=AJUSTE_MANUAL INV_INICIAL MERMA CONSUMO"`
	Direction   string                  `json:"sentido,omitempty" validate:"omitempty,oneof=ENTRADA SALIDA"`
	ReferenceID string                  `json:"referencia,omitempty" validate:"max=64"`
	Notes       string                  `json:"notas,omitempty" validate:"max=500"`
	Deferred    bool                    `json:"diferido,omitempty"`
	Lines       []AdjustmentLineRequest `json:"lineas" validate:"required,min=1,dive"`
}

// MovementLineResponse línea del libro.
type MovementLineResponse struct {
	ID             int64           `json:"id"`
	IngredientID   int64           `json:"insumo_id"`
	IngredientName string          `json:"insumo"`
	UnitMeasure    string          `json:"unidad_medida"`
	Direction      string          `json:"sentido"`
	Reason         string          `json:"motivo"`
	Quantity       decimal.Decimal `json:"cantidad"`
	ObservedStock  decimal.Decimal `json:"existencia_observada"`
	UnitCost       decimal.Decimal `json:"costo_unitario"`
	UnitPrice      decimal.Decimal `json:"precio_unitario"`
	Supplier       string          `json:"proveedor,omitempty"`
	SaleLineID     *int64          `json:"venta_detalle_id,omitempty"`
	Status         string          `json:"estatus"`
}

// MovementResponse cabecera del libro con sus líneas.
type MovementResponse struct {
	ID          int64                  `json:"id"`
	Direction   string                 `json:"sentido"`
	Reason      string                 `json:"motivo"`
	ReferenceID string                 `json:"referencia"`
	Date        time.Time              `json:"fecha"`
	Notes       string                 `json:"notas,omitempty"`
	UserID      int64                  `json:"usuario_id"`
	Status      string                 `json:"estatus"`
	Lines       []MovementLineResponse `json:"lineas"`
}

// AppliedLineResponse efecto de una línea conciliada.
type AppliedLineResponse struct {
	LineID       int64           `json:"linea_id"`
	MovementID   int64           `json:"movimiento_id"`
	IngredientID int64           `json:"insumo_id"`
	Reason       string          `json:"motivo"`
	Previous     decimal.Decimal `json:"existencia_anterior"`
	Quantity     decimal.Decimal `json:"existencia"`
	Absolute     bool            `json:"absoluto"`
}

// NegativeStockResponse alerta de existencia negativa (no bloquea la operación).
type NegativeStockResponse struct {
	IngredientID   int64           `json:"insumo_id"`
	IngredientName string          `json:"insumo"`
	Quantity       decimal.Decimal `json:"existencia"`
}

// ReconcileResponse resultado de conciliar una referencia.
type ReconcileResponse struct {
	ReferenceID      string                  `json:"referencia"`
	AlreadyProcessed bool                    `json:"ya_procesada"`
	Applied          []AppliedLineResponse   `json:"aplicadas"`
	SettledMovements []int64                 `json:"movimientos_procesados"`
	Warnings         []NegativeStockResponse `json:"alertas"`
}

// RegisterMovementResponse movimiento registrado y, si se concilió, su efecto.
type RegisterMovementResponse struct {
	Movement MovementResponse   `json:"movimiento"`
	Applied  *ReconcileResponse `json:"conciliacion,omitempty"`
}

// StockLevelResponse existencia resultante de un insumo tocado por la venta.
type StockLevelResponse struct {
	IngredientID int64           `json:"insumo_id"`
	Name         string          `json:"insumo"`
	UnitMeasure  string          `json:"unidad_medida"`
	Quantity     decimal.Decimal `json:"existencia"`
	Cost         decimal.Decimal `json:"costo"`
}

// SaleInventoryResponse respuesta de POST /api/ventas/:id/inventario.
type SaleInventoryResponse struct {
	ReferenceID      string                  `json:"referencia"`
	AlreadyProcessed bool                    `json:"ya_procesada"`
	MovementIDs      []int64                 `json:"movimientos"`
	Stock            []StockLevelResponse    `json:"existencias"`
	PendingSaleLines []int64                 `json:"lineas_pendientes"`
	Warnings         []NegativeStockResponse `json:"alertas"`
}

// LowStockItemDTO insumo por debajo de su mínimo con la cantidad sugerida de compra.
type LowStockItemDTO struct {
	IngredientID      int64           `json:"insumo_id"`
	Name              string          `json:"insumo"`
	UnitMeasure       string          `json:"unidad_medida"`
	Supplier          string          `json:"proveedor,omitempty"`
	CurrentStock      decimal.Decimal `json:"existencia"`
	MinStock          decimal.Decimal `json:"minimo"`
	IdealStock        decimal.Decimal `json:"existencia_ideal"`  // minimo * 1.5
	SuggestedOrderQty decimal.Decimal `json:"cantidad_sugerida"` // ideal - existencia
	UnitCost          decimal.Decimal `json:"costo_unitario"`    // costo promedio ponderado
	EstimatedCost     decimal.Decimal `json:"costo_estimado"`    // sugerida * costo
	Priority          int             `json:"prioridad"`         // 1 = más urgente
}
