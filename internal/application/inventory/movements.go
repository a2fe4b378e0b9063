package inventory

import (
	"context"

	"github.com/jhoicas/negocio-inventario/internal/application/ledger"
	"github.com/jhoicas/negocio-inventario/internal/application/ports"
	"github.com/jhoicas/negocio-inventario/internal/application/reconcile"
	"github.com/jhoicas/negocio-inventario/internal/domain"
	"github.com/jhoicas/negocio-inventario/internal/domain/entity"
	"github.com/jhoicas/negocio-inventario/internal/domain/folio"
	"github.com/rs/zerolog"
)

// MovementUseCase consultas, cancelación y conciliación manual del libro.
type MovementUseCase struct {
	txRunner ports.TxRunner
	folios   *folio.Generator
	log      zerolog.Logger
}

// NewMovementUseCase construye el caso de uso.
func NewMovementUseCase(txRunner ports.TxRunner, folios *folio.Generator, log zerolog.Logger) *MovementUseCase {
	return &MovementUseCase{txRunner: txRunner, folios: folios, log: log.With().Str("component", "movements").Logger()}
}

// Get movimiento con sus líneas.
func (uc *MovementUseCase) Get(ctx context.Context, negocioID, movementID int64) (*entity.Movement, error) {
	var out *entity.Movement
	err := uc.txRunner.Run(ctx, func(tx *ports.Tx) error {
		mov, err := uc.book(tx).Get(ctx, negocioID, movementID)
		out = mov
		return err
	})
	return out, err
}

// ListByReference movimientos de una referencia.
func (uc *MovementUseCase) ListByReference(ctx context.Context, negocioID int64, referenceID string) ([]*entity.Movement, error) {
	var out []*entity.Movement
	err := uc.txRunner.Run(ctx, func(tx *ports.Tx) error {
		list, err := uc.book(tx).ListByReference(ctx, negocioID, referenceID)
		out = list
		return err
	})
	return out, err
}

// Cancel elimina lógicamente un movimiento pendiente.
func (uc *MovementUseCase) Cancel(ctx context.Context, negocioID, movementID int64) (*entity.Movement, error) {
	var out *entity.Movement
	err := uc.txRunner.Run(ctx, func(tx *ports.Tx) error {
		mov, err := uc.book(tx).Cancel(ctx, negocioID, movementID)
		out = mov
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Apply concilia las líneas pendientes de una referencia.
// Una referencia ya conciliada devuelve domain.ErrAlreadyProcessed.
func (uc *MovementUseCase) Apply(ctx context.Context, negocioID int64, referenceID string) (*reconcile.Result, error) {
	if referenceID == "" {
		return nil, domain.NewValidationError("referencia", "requerida")
	}
	var out *reconcile.Result
	err := uc.txRunner.Run(ctx, func(tx *ports.Tx) error {
		res, err := tx.Conciliador.Apply(ctx, negocioID, referenceID)
		out = res
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (uc *MovementUseCase) book(tx *ports.Tx) *ledger.Store {
	return ledger.New(tx.Movements, tx.Ingredients, tx.Sales, uc.folios, uc.log)
}
