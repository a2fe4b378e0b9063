package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// OpenShiftRequest body para POST /api/turnos/abrir.
type OpenShiftRequest struct {
	OpeningFloat decimal.Decimal  `json:"fondo"`
	SalesGoal    *decimal.Decimal `json:"meta_ventas,omitempty"`
}

// CloseShiftRequest body para POST /api/turnos/:id/cerrar.
type CloseShiftRequest struct {
	Withdrawal *decimal.Decimal `json:"retiro,omitempty"`
}

// ShiftResponse turno.
type ShiftResponse struct {
	ID        int64            `json:"id"`
	Number    int64            `json:"numero"`
	Key       string           `json:"clave"`
	Status    string           `json:"estatus"`
	UserID    int64            `json:"usuario_id"`
	StartedAt time.Time        `json:"inicio"`
	EndedAt   *time.Time       `json:"fin,omitempty"`
	SalesGoal *decimal.Decimal `json:"meta_ventas,omitempty"`
}

// CashEntryResponse fondo o retiro de caja registrado con forma de venta.
type CashEntryResponse struct {
	ID     int64           `json:"id"`
	Folio  string          `json:"folio"`
	Kind   string          `json:"tipo"`
	Amount decimal.Decimal `json:"monto"`
}

// OpenShiftResponse turno abierto y su fondo.
type OpenShiftResponse struct {
	Shift ShiftResponse     `json:"turno"`
	Float CashEntryResponse `json:"fondo"`
}

// CloseShiftResponse turno cerrado y su retiro, si hubo.
type CloseShiftResponse struct {
	Shift      ShiftResponse      `json:"turno"`
	Withdrawal *CashEntryResponse `json:"retiro,omitempty"`
}
