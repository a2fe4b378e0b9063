package repository

import (
	"context"

	"github.com/jhoicas/negocio-inventario/internal/domain/entity"
)

// ShiftRepository puerto de persistencia de turnos.
type ShiftRepository interface {
	// LockUser serializa aperturas concurrentes del mismo (negocio, usuario) dentro de la tx.
	LockUser(ctx context.Context, negocioID, userID int64) error
	// GetOpen devuelve el turno abierto del usuario o nil, nil.
	GetOpen(ctx context.Context, negocioID, userID int64) (*entity.Shift, error)
	// Create inserta el turno; asigna ID y Number (= ID).
	Create(ctx context.Context, shift *entity.Shift) error
	GetForUpdate(ctx context.Context, negocioID, id int64) (*entity.Shift, error)
	Close(ctx context.Context, shift *entity.Shift) error
}
