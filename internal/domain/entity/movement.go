package entity

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// MovementDirection sentido del movimiento de inventario.
type MovementDirection string

// Sentidos de movimiento.
const (
	DirectionEntrada MovementDirection = "ENTRADA"
	DirectionSalida  MovementDirection = "SALIDA"
)

// Valid indica si el sentido es uno de los conocidos.
func (d MovementDirection) Valid() bool {
	switch d {
	case DirectionEntrada, DirectionSalida:
		return true
	}
	return false
}

// MovementReason motivo de negocio del movimiento.
type MovementReason string

// Motivos de movimiento.
const (
	ReasonCompra       MovementReason = "COMPRA"
	ReasonVenta        MovementReason = "VENTA"
	ReasonAjusteManual MovementReason = "AJUSTE_MANUAL"
	ReasonMerma        MovementReason = "MERMA"
	ReasonInvInicial   MovementReason = "INV_INICIAL"
	ReasonConsumo      MovementReason = "CONSUMO"
)

// Valid indica si el motivo es uno de los conocidos.
func (r MovementReason) Valid() bool {
	switch r {
	case ReasonCompra, ReasonVenta, ReasonAjusteManual, ReasonMerma, ReasonInvInicial, ReasonConsumo:
		return true
	}
	return false
}

// IsAbsolute indica si el motivo declara el conteo real (no un delta):
// AJUSTE_MANUAL e INV_INICIAL fijan cantidad, costo y proveedor directamente.
func (r MovementReason) IsAbsolute() bool {
	switch r {
	case ReasonAjusteManual, ReasonInvInicial:
		return true
	case ReasonCompra, ReasonVenta, ReasonMerma, ReasonConsumo:
		return false
	}
	return false
}

// AllowsDirection indica si el motivo es compatible con el sentido.
func (r MovementReason) AllowsDirection(d MovementDirection) bool {
	switch r {
	case ReasonVenta, ReasonMerma, ReasonConsumo:
		return d == DirectionSalida
	case ReasonCompra, ReasonInvInicial:
		return d == DirectionEntrada
	case ReasonAjusteManual:
		return d.Valid()
	}
	return false
}

// ParseMovementDirection normaliza y valida un sentido recibido como texto.
func ParseMovementDirection(s string) (MovementDirection, error) {
	d := MovementDirection(strings.ToUpper(strings.TrimSpace(s)))
	if !d.Valid() {
		return "", fmt.Errorf("sentido de movimiento desconocido %q", s)
	}
	return d, nil
}

// ParseMovementReason normaliza y valida un motivo recibido como texto.
func ParseMovementReason(s string) (MovementReason, error) {
	r := MovementReason(strings.ToUpper(strings.TrimSpace(s)))
	if !r.Valid() {
		return "", fmt.Errorf("motivo de movimiento desconocido %q", s)
	}
	return r, nil
}

// MovementStatus estado de procesamiento de cabecera y líneas.
type MovementStatus string

// Estados del movimiento. Solo avanzan: PENDIENTE → PROCESADO | ELIMINADO.
const (
	StatusPendiente MovementStatus = "PENDIENTE"
	StatusProcesado MovementStatus = "PROCESADO"
	StatusEliminado MovementStatus = "ELIMINADO"
)

// Valid indica si el estado es uno de los conocidos.
func (s MovementStatus) Valid() bool {
	switch s {
	case StatusPendiente, StatusProcesado, StatusEliminado:
		return true
	}
	return false
}

// CanTransitionTo aplica la máquina de estados (sin retrocesos).
func (s MovementStatus) CanTransitionTo(next MovementStatus) bool {
	switch s {
	case StatusPendiente:
		return next == StatusProcesado || next == StatusEliminado
	case StatusProcesado, StatusEliminado:
		return false
	}
	return false
}

// Movement cabecera del libro de movimientos (un evento de negocio).
type Movement struct {
	ID          int64
	NegocioID   int64
	Direction   MovementDirection
	Reason      MovementReason
	ReferenceID string // folio de la venta/compra de origen
	Date        time.Time
	Notes       string
	UserID      int64
	Status      MovementStatus
	Lines       []*MovementLine
}

// MovementLine efecto del movimiento sobre un insumo.
type MovementLine struct {
	ID             int64
	MovementID     int64
	NegocioID      int64
	IngredientID   int64
	IngredientName string // capturado al escribir; el insumo puede renombrarse después
	UnitMeasure    string
	Direction      MovementDirection
	Reason         MovementReason
	// Quantity con signo fijado al crear la línea (negativo = salida). El conciliador
	// nunca lo re-deriva de Direction.
	Quantity      decimal.Decimal
	ObservedStock decimal.Decimal // existencia observada al escribir (auditoría)
	UnitCost      decimal.Decimal
	// CostStated falso: UnitCost es solo la foto del promedio al escribir y un conteo
	// absoluto conserva el costo vigente al conciliar.
	CostStated    bool
	UnitPrice     decimal.Decimal
	Supplier      string
	ReferenceID   string
	SaleLineID    *int64
	Status        MovementStatus
	CreatedAt     time.Time
}
