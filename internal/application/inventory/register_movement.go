package inventory

import (
	"context"
	"fmt"

	"github.com/jhoicas/negocio-inventario/internal/application/ledger"
	"github.com/jhoicas/negocio-inventario/internal/application/ports"
	"github.com/jhoicas/negocio-inventario/internal/application/reconcile"
	"github.com/jhoicas/negocio-inventario/internal/domain"
	"github.com/jhoicas/negocio-inventario/internal/domain/entity"
	"github.com/jhoicas/negocio-inventario/internal/domain/folio"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// RegisterMovementUseCase registra compras y ajustes como un único evento:
// cabecera + líneas en el libro y, salvo que se difiera, conciliación inmediata.
type RegisterMovementUseCase struct {
	txRunner ports.TxRunner
	folios   *folio.Generator
	log      zerolog.Logger
}

// NewRegisterMovementUseCase construye el caso de uso.
func NewRegisterMovementUseCase(txRunner ports.TxRunner, folios *folio.Generator, log zerolog.Logger) *RegisterMovementUseCase {
	return &RegisterMovementUseCase{
		txRunner: txRunner,
		folios:   folios,
		log:      log.With().Str("component", "register_movement").Logger(),
	}
}

// PurchaseLine insumo recibido: cantidad positiva y costo unitario de la factura del proveedor.
type PurchaseLine struct {
	IngredientID int64
	Quantity     decimal.Decimal
	UnitCost     decimal.Decimal
}

// PurchaseInput recepción de una compra (ENTRADA/COMPRA).
type PurchaseInput struct {
	NegocioID   int64
	UserID      int64
	ReferenceID string // folio de la compra; vacío = se genera
	ShiftKey    string
	Supplier    string
	Notes       string
	Lines       []PurchaseLine
}

// AdjustmentInput ajuste manual, inventario inicial, merma o consumo interno.
// Direction vacío toma el sentido natural del motivo (AJUSTE_MANUAL lo exige).
// Deferred deja el movimiento PENDIENTE para conciliarlo o eliminarlo después.
type AdjustmentInput struct {
	NegocioID   int64
	UserID      int64
	Direction   entity.MovementDirection
	Reason      entity.MovementReason
	ReferenceID string
	ShiftKey    string
	Notes       string
	Deferred    bool
	Lines       []ledger.LineInput
}

// MovementResult movimiento registrado y, si se concilió, su efecto.
type MovementResult struct {
	Movement *entity.Movement
	Applied  *reconcile.Result
}

// ReceivePurchase registra la compra y actualiza existencia y costo promedio ponderado.
func (uc *RegisterMovementUseCase) ReceivePurchase(ctx context.Context, in PurchaseInput) (*MovementResult, error) {
	if len(in.Lines) == 0 {
		return nil, domain.NewValidationError("lineas", "al menos una línea")
	}
	lines := make([]ledger.LineInput, 0, len(in.Lines))
	for i, l := range in.Lines {
		if !l.Quantity.GreaterThan(decimal.Zero) {
			return nil, domain.NewValidationError(fmt.Sprintf("lineas[%d].cantidad", i), "debe ser mayor que cero")
		}
		if l.UnitCost.LessThan(decimal.Zero) {
			return nil, domain.NewValidationError(fmt.Sprintf("lineas[%d].costo", i), "no puede ser negativo")
		}
		cost := l.UnitCost
		lines = append(lines, ledger.LineInput{
			IngredientID: l.IngredientID,
			Quantity:     l.Quantity,
			UnitCost:     &cost,
			Supplier:     in.Supplier,
		})
	}
	return uc.register(ctx, ledger.MovementInput{
		NegocioID:   in.NegocioID,
		UserID:      in.UserID,
		Direction:   entity.DirectionEntrada,
		Reason:      entity.ReasonCompra,
		ReferenceID: in.ReferenceID,
		ShiftKey:    in.ShiftKey,
		Notes:       in.Notes,
		Lines:       lines,
	}, false)
}

// RegisterAdjustment registra un movimiento que no proviene de venta ni compra.
func (uc *RegisterMovementUseCase) RegisterAdjustment(ctx context.Context, in AdjustmentInput) (*MovementResult, error) {
	dir := in.Direction
	switch in.Reason {
	case entity.ReasonAjusteManual:
		if dir == "" {
			return nil, domain.NewValidationError("sentido", "requerido para AJUSTE_MANUAL")
		}
	case entity.ReasonInvInicial:
		if dir == "" {
			dir = entity.DirectionEntrada
		}
	case entity.ReasonMerma, entity.ReasonConsumo:
		if dir == "" {
			dir = entity.DirectionSalida
		}
	case entity.ReasonVenta, entity.ReasonCompra:
		return nil, domain.NewValidationError("motivo", fmt.Sprintf("%s se registra desde su propio flujo", in.Reason))
	default:
		return nil, domain.NewValidationError("motivo", fmt.Sprintf("desconocido %q", in.Reason))
	}
	return uc.register(ctx, ledger.MovementInput{
		NegocioID:   in.NegocioID,
		UserID:      in.UserID,
		Direction:   dir,
		Reason:      in.Reason,
		ReferenceID: in.ReferenceID,
		ShiftKey:    in.ShiftKey,
		Notes:       in.Notes,
		Lines:       in.Lines,
	}, in.Deferred)
}

func (uc *RegisterMovementUseCase) register(ctx context.Context, in ledger.MovementInput, deferred bool) (*MovementResult, error) {
	var out *MovementResult
	err := uc.txRunner.Run(ctx, func(tx *ports.Tx) error {
		book := ledger.New(tx.Movements, tx.Ingredients, tx.Sales, uc.folios, uc.log)
		mov, err := book.RecordMovement(ctx, in)
		if err != nil {
			return err
		}
		out = &MovementResult{Movement: mov}
		if deferred {
			return nil
		}
		applied, err := tx.Conciliador.Apply(ctx, in.NegocioID, mov.ReferenceID)
		if err != nil {
			return err
		}
		out.Applied = applied
		mov.Status = entity.StatusProcesado
		for _, l := range mov.Lines {
			l.Status = entity.StatusProcesado
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
