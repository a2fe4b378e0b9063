package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// SaleKind distingue ventas reales de los registros de caja con forma de venta.
type SaleKind string

// Tipos de venta.
const (
	SaleKindVenta      SaleKind = "VENTA"
	SaleKindFondoCaja  SaleKind = "FONDO_CAJA"  // fondo inicial del turno
	SaleKindRetiroCaja SaleKind = "RETIRO_CAJA" // retiro de efectivo al cerrar
)

// SaleStatus estado de la venta/orden.
type SaleStatus string

// Estados de venta.
const (
	SaleStatusAbierta   SaleStatus = "ABIERTA"
	SaleStatusCerrada   SaleStatus = "CERRADA"
	SaleStatusCancelada SaleStatus = "CANCELADA"
)

// Sale venta u orden (colaborador externo; el núcleo solo la lee y marca sus líneas).
type Sale struct {
	ID        int64
	NegocioID int64
	Folio     string
	ShiftKey  string // clave del turno con que se registró
	Kind      SaleKind
	Status    SaleStatus
	Total     decimal.Decimal
	UserID    int64
	Notes     string
	CreatedAt time.Time
	Lines     []*SaleLine
}

// SaleLine línea de venta.
type SaleLine struct {
	ID                 int64
	SaleID             int64
	ProductID          int64
	Quantity           decimal.Decimal
	UnitPrice          decimal.Decimal
	UnitCost           decimal.Decimal
	InventoryProcessed bool
}
