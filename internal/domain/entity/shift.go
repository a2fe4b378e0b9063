package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// ShiftStatus estado del turno.
type ShiftStatus string

// Estados de turno. cerrado es irreversible.
const (
	ShiftAbierto ShiftStatus = "abierto"
	ShiftCerrado ShiftStatus = "cerrado"
)

// Shift turno de trabajo de un usuario en un negocio.
type Shift struct {
	ID        int64
	NegocioID int64
	Number    int64 // igual al ID
	StartedAt time.Time
	EndedAt   *time.Time
	Status    ShiftStatus
	Key       string // clave de correlación para ventas y folios
	UserID    int64
	SalesGoal *decimal.Decimal
}

// IsOpen indica si el turno sigue abierto.
func (s *Shift) IsOpen() bool {
	return s.Status == ShiftAbierto
}
