// Package shift administra el turno de trabajo de un usuario: a lo sumo un turno
// abierto por (negocio, usuario), con fondo inicial y retiro de caja registrados
// como entradas con forma de venta.
package shift

import (
	"context"

	"github.com/jhoicas/negocio-inventario/internal/application/ports"
	"github.com/jhoicas/negocio-inventario/internal/domain"
	"github.com/jhoicas/negocio-inventario/internal/domain/entity"
	"github.com/jhoicas/negocio-inventario/internal/domain/folio"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// UseCase abre, cierra y consulta turnos.
type UseCase struct {
	txRunner ports.TxRunner
	folios   *folio.Generator
	log      zerolog.Logger
}

// NewUseCase construye el caso de uso de turnos.
func NewUseCase(txRunner ports.TxRunner, folios *folio.Generator, log zerolog.Logger) *UseCase {
	return &UseCase{txRunner: txRunner, folios: folios, log: log.With().Str("component", "shift").Logger()}
}

// OpenInput apertura de turno. OpeningFloat puede ser cero.
type OpenInput struct {
	NegocioID    int64
	UserID       int64
	OpeningFloat decimal.Decimal
	SalesGoal    *decimal.Decimal
}

// OpenResult turno abierto y su fondo de caja.
type OpenResult struct {
	Shift *entity.Shift
	Float *entity.Sale
}

// Open abre un turno. La verificación de unicidad corre en la misma transacción que la
// inserción, serializada por un candado por (negocio, usuario).
func (uc *UseCase) Open(ctx context.Context, in OpenInput) (*OpenResult, error) {
	if in.OpeningFloat.LessThan(decimal.Zero) {
		return nil, domain.NewValidationError("fondo", "no puede ser negativo")
	}
	if in.SalesGoal != nil && in.SalesGoal.LessThan(decimal.Zero) {
		return nil, domain.NewValidationError("meta_ventas", "no puede ser negativa")
	}
	var out *OpenResult
	err := uc.txRunner.Run(ctx, func(tx *ports.Tx) error {
		if err := tx.Shifts.LockUser(ctx, in.NegocioID, in.UserID); err != nil {
			return err
		}
		current, err := tx.Shifts.GetOpen(ctx, in.NegocioID, in.UserID)
		if err != nil {
			return err
		}
		if current != nil {
			return domain.ErrShiftAlreadyOpen
		}

		sh := &entity.Shift{
			NegocioID: in.NegocioID,
			StartedAt: uc.folios.Now(),
			Status:    entity.ShiftAbierto,
			Key:       uc.folios.CorrelationKey(in.NegocioID, in.UserID),
			UserID:    in.UserID,
			SalesGoal: in.SalesGoal,
		}
		if err := tx.Shifts.Create(ctx, sh); err != nil {
			return err
		}
		float, err := uc.cashEntry(ctx, tx, sh, in.UserID, entity.SaleKindFondoCaja, folio.KindFondoCaja, in.OpeningFloat, "fondo inicial de caja")
		if err != nil {
			return err
		}
		out = &OpenResult{Shift: sh, Float: float}
		return nil
	})
	if err != nil {
		return nil, err
	}
	uc.log.Info().
		Int64("negocio_id", in.NegocioID).
		Int64("usuario_id", in.UserID).
		Int64("turno_id", out.Shift.ID).
		Str("clave", out.Shift.Key).
		Str("fondo", in.OpeningFloat.String()).
		Msg("turno abierto")
	return out, nil
}

// CloseInput cierre de turno; Withdrawal opcional registra un retiro de caja.
type CloseInput struct {
	NegocioID  int64
	UserID     int64
	ShiftID    int64
	Withdrawal *decimal.Decimal
}

// CloseResult turno cerrado y, si hubo, su retiro.
type CloseResult struct {
	Shift      *entity.Shift
	Withdrawal *entity.Sale
}

// Close cierra el turno una sola vez. Que no existan órdenes abiertas con la clave del
// turno es precondición del caller (ver OpenOrders).
func (uc *UseCase) Close(ctx context.Context, in CloseInput) (*CloseResult, error) {
	if in.Withdrawal != nil && in.Withdrawal.LessThan(decimal.Zero) {
		return nil, domain.NewValidationError("retiro", "no puede ser negativo")
	}
	var out *CloseResult
	err := uc.txRunner.Run(ctx, func(tx *ports.Tx) error {
		sh, err := tx.Shifts.GetForUpdate(ctx, in.NegocioID, in.ShiftID)
		if err != nil {
			return err
		}
		if sh == nil {
			return domain.ErrNotFound
		}
		if sh.UserID != in.UserID {
			return domain.ErrForbidden
		}
		if !sh.IsOpen() {
			return domain.ErrShiftClosed
		}
		res := &CloseResult{}
		if in.Withdrawal != nil {
			res.Withdrawal, err = uc.cashEntry(ctx, tx, sh, in.UserID, entity.SaleKindRetiroCaja, folio.KindRetiroCaja, *in.Withdrawal, "retiro de caja al cierre")
			if err != nil {
				return err
			}
		}
		ended := uc.folios.Now()
		sh.EndedAt = &ended
		sh.Status = entity.ShiftCerrado
		if err := tx.Shifts.Close(ctx, sh); err != nil {
			return err
		}
		res.Shift = sh
		out = res
		return nil
	})
	if err != nil {
		return nil, err
	}
	uc.log.Info().Int64("negocio_id", in.NegocioID).Int64("turno_id", in.ShiftID).Msg("turno cerrado")
	return out, nil
}

// Current turno abierto del usuario; domain.ErrNotFound si no tiene.
func (uc *UseCase) Current(ctx context.Context, negocioID, userID int64) (*entity.Shift, error) {
	var out *entity.Shift
	err := uc.txRunner.Run(ctx, func(tx *ports.Tx) error {
		sh, err := tx.Shifts.GetOpen(ctx, negocioID, userID)
		if err != nil {
			return err
		}
		if sh == nil {
			return domain.ErrNotFound
		}
		out = sh
		return nil
	})
	return out, err
}

// OpenOrders cuenta las órdenes abiertas que usan la clave del turno.
func (uc *UseCase) OpenOrders(ctx context.Context, negocioID int64, shiftKey string) (int, error) {
	if shiftKey == "" {
		return 0, domain.NewValidationError("clave", "requerida")
	}
	var n int
	err := uc.txRunner.Run(ctx, func(tx *ports.Tx) error {
		var err error
		n, err = tx.Sales.CountOpenByShiftKey(ctx, negocioID, shiftKey)
		return err
	})
	return n, err
}

// Get turno por id dentro del negocio.
func (uc *UseCase) Get(ctx context.Context, negocioID, shiftID int64) (*entity.Shift, error) {
	var out *entity.Shift
	err := uc.txRunner.Run(ctx, func(tx *ports.Tx) error {
		sh, err := tx.Shifts.GetForUpdate(ctx, negocioID, shiftID)
		if err != nil {
			return err
		}
		if sh == nil {
			return domain.ErrNotFound
		}
		out = sh
		return nil
	})
	return out, err
}

// cashEntry registra fondo o retiro de caja como una venta CERRADA con folio del turno.
func (uc *UseCase) cashEntry(ctx context.Context, tx *ports.Tx, sh *entity.Shift, userID int64, kind entity.SaleKind, letter folio.Kind, amount decimal.Decimal, notes string) (*entity.Sale, error) {
	sale := &entity.Sale{
		NegocioID: sh.NegocioID,
		ShiftKey:  sh.Key,
		Kind:      kind,
		Status:    entity.SaleStatusCerrada,
		Total:     amount,
		UserID:    userID,
		Notes:     notes,
		CreatedAt: uc.folios.Now(),
	}
	if err := tx.Sales.Create(ctx, sale); err != nil {
		return nil, err
	}
	sale.Folio = uc.folios.Generate(sh.Key, letter, sale.ID)
	if err := tx.Sales.SetFolio(ctx, sale.ID, sale.Folio); err != nil {
		return nil, err
	}
	return sale, nil
}
