// Package ledger escribe el libro de movimientos de inventario: una cabecera por
// evento de negocio y una línea por insumo afectado, siempre en estado PENDIENTE.
// El signo de cada cantidad se fija aquí y el conciliador nunca lo re-deriva.
package ledger

import (
	"context"
	"errors"
	"fmt"

	"github.com/jhoicas/negocio-inventario/internal/application/recipe"
	"github.com/jhoicas/negocio-inventario/internal/domain"
	"github.com/jhoicas/negocio-inventario/internal/domain/entity"
	"github.com/jhoicas/negocio-inventario/internal/domain/folio"
	"github.com/jhoicas/negocio-inventario/internal/domain/inventory"
	"github.com/jhoicas/negocio-inventario/internal/domain/repository"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// Store opera sobre los repositorios de la transacción en curso.
type Store struct {
	movs        repository.MovementRepository
	ingredients repository.IngredientRepository
	sales       repository.SaleRepository
	folios      *folio.Generator
	log         zerolog.Logger
}

// New construye el libro atado a la transacción.
func New(
	movs repository.MovementRepository,
	ingredients repository.IngredientRepository,
	sales repository.SaleRepository,
	folios *folio.Generator,
	log zerolog.Logger,
) *Store {
	return &Store{
		movs:        movs,
		ingredients: ingredients,
		sales:       sales,
		folios:      folios,
		log:         log.With().Str("component", "ledger").Logger(),
	}
}

// LineInput efecto declarado sobre un insumo. Quantity es la magnitud (o el conteo
// real en AJUSTE_MANUAL/INV_INICIAL); el signo lo decide el libro.
type LineInput struct {
	IngredientID int64
	Quantity     decimal.Decimal
	UnitCost     *decimal.Decimal // nil = costo promedio vigente
	UnitPrice    *decimal.Decimal // nil = precio vigente
	Supplier     string
}

// MovementInput evento de inventario a registrar.
// ReferenceID vacío: se genera un folio con la letra del motivo y el id de la cabecera.
type MovementInput struct {
	NegocioID   int64
	UserID      int64
	Direction   entity.MovementDirection
	Reason      entity.MovementReason
	ReferenceID string
	ShiftKey    string // prefijo del folio generado
	Notes       string
	Lines       []LineInput
}

// RecordMovement valida todo antes de escribir; luego crea la cabecera y sus líneas en PENDIENTE.
func (s *Store) RecordMovement(ctx context.Context, in MovementInput) (*entity.Movement, error) {
	if err := validateMovement(in); err != nil {
		return nil, err
	}
	if in.ReferenceID != "" {
		if err := s.checkReference(ctx, in); err != nil {
			return nil, err
		}
	}
	ids := make([]int64, 0, len(in.Lines))
	for _, l := range in.Lines {
		ids = append(ids, l.IngredientID)
	}
	found, err := s.ingredients.ListByIDs(ctx, in.NegocioID, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[int64]*entity.Ingredient, len(found))
	for _, ing := range found {
		byID[ing.ID] = ing
	}
	for i, l := range in.Lines {
		if _, ok := byID[l.IngredientID]; !ok {
			return nil, domain.NewValidationError(fmt.Sprintf("lineas[%d].insumo_id", i), "no existe en el negocio")
		}
	}

	mov := &entity.Movement{
		NegocioID:   in.NegocioID,
		Direction:   in.Direction,
		Reason:      in.Reason,
		ReferenceID: in.ReferenceID,
		Date:        s.folios.Now(),
		Notes:       in.Notes,
		UserID:      in.UserID,
		Status:      entity.StatusPendiente,
	}
	if err := s.movs.Create(ctx, mov); err != nil {
		return nil, err
	}
	if mov.ReferenceID == "" {
		kind, err := folio.KindForReason(in.Reason)
		if err != nil {
			return nil, err
		}
		mov.ReferenceID = s.folios.Generate(in.ShiftKey, kind, mov.ID)
		if err := s.movs.SetReference(ctx, mov.ID, mov.ReferenceID); err != nil {
			return nil, err
		}
	}

	for _, l := range in.Lines {
		ing := byID[l.IngredientID]
		cost := ing.Cost
		if l.UnitCost != nil {
			cost = *l.UnitCost
		}
		price := ing.Price
		if l.UnitPrice != nil {
			price = *l.UnitPrice
		}
		line := &entity.MovementLine{
			MovementID:     mov.ID,
			NegocioID:      in.NegocioID,
			IngredientID:   ing.ID,
			IngredientName: ing.Name,
			UnitMeasure:    ing.UnitMeasure,
			Direction:      in.Direction,
			Reason:         in.Reason,
			Quantity:       inventory.SignedQuantity(in.Direction, in.Reason, l.Quantity),
			ObservedStock:  ing.Quantity,
			UnitCost:       cost,
			CostStated:     l.UnitCost != nil,
			UnitPrice:      price,
			Supplier:       l.Supplier,
			ReferenceID:    mov.ReferenceID,
			Status:         entity.StatusPendiente,
			CreatedAt:      mov.Date,
		}
		if err := s.movs.CreateLine(ctx, line); err != nil {
			return nil, err
		}
		mov.Lines = append(mov.Lines, line)
	}

	s.log.Info().
		Int64("negocio_id", in.NegocioID).
		Int64("movimiento_id", mov.ID).
		Str("motivo", string(in.Reason)).
		Str("referencia", mov.ReferenceID).
		Int("lineas", len(mov.Lines)).
		Msg("movimiento registrado")
	return mov, nil
}

// checkReference rechaza reutilizar el folio de otro evento. Un reintento del mismo
// motivo sobre una referencia ya conciliada devuelve domain.ErrAlreadyProcessed.
func (s *Store) checkReference(ctx context.Context, in MovementInput) error {
	existing, err := s.movs.ListByReference(ctx, in.NegocioID, in.ReferenceID)
	if err != nil {
		return err
	}
	for _, m := range existing {
		if m.Status == entity.StatusEliminado {
			continue
		}
		if m.Reason != in.Reason {
			return fmt.Errorf("referencia %s pertenece a un movimiento %s: %w", in.ReferenceID, m.Reason, domain.ErrConflict)
		}
		if m.Status == entity.StatusProcesado {
			return fmt.Errorf("referencia %s: %w", in.ReferenceID, domain.ErrAlreadyProcessed)
		}
		return fmt.Errorf("referencia %s tiene el movimiento %d pendiente: %w", in.ReferenceID, m.ID, domain.ErrConflict)
	}
	return nil
}

func validateMovement(in MovementInput) error {
	if !in.Direction.Valid() {
		return domain.NewValidationError("sentido", fmt.Sprintf("desconocido %q", in.Direction))
	}
	if !in.Reason.Valid() {
		return domain.NewValidationError("motivo", fmt.Sprintf("desconocido %q", in.Reason))
	}
	if !in.Reason.AllowsDirection(in.Direction) {
		return domain.NewValidationError("sentido", fmt.Sprintf("%s no admite %s", in.Reason, in.Direction))
	}
	if len(in.Lines) == 0 {
		return domain.NewValidationError("lineas", "al menos una línea")
	}
	for i, l := range in.Lines {
		if l.IngredientID <= 0 {
			return domain.NewValidationError(fmt.Sprintf("lineas[%d].insumo_id", i), "requerido")
		}
		if in.Reason.IsAbsolute() {
			if l.Quantity.LessThan(decimal.Zero) {
				return domain.NewValidationError(fmt.Sprintf("lineas[%d].cantidad", i), "el conteo no puede ser negativo")
			}
		} else if l.Quantity.IsZero() {
			return domain.NewValidationError(fmt.Sprintf("lineas[%d].cantidad", i), "debe ser distinta de cero")
		}
		if l.UnitCost != nil && l.UnitCost.LessThan(decimal.Zero) {
			return domain.NewValidationError(fmt.Sprintf("lineas[%d].costo", i), "no puede ser negativo")
		}
	}
	return nil
}

// SaleLineEffect expansión de una línea de venta producida por el resolvedor.
type SaleLineEffect struct {
	SaleLine   *entity.SaleLine
	Resolution *recipe.Resolution
}

// SaleRecord resultado de registrar los descuentos de una venta.
type SaleRecord struct {
	ReferenceID      string
	MovementID       int64 // 0 si no hubo nada nuevo que escribir
	LinesWritten     int
	ProcessedLines   []int64
	PendingSaleLines []int64
}

// RecordLinesForSale escribe una línea SALIDA/VENTA por insumo y línea de venta.
// Es idempotente por (referencia, línea de venta, insumo): las líneas de venta ya
// procesadas se saltan y los insumos ya escritos no se repiten. Una línea de venta
// se marca procesada solo cuando su expansión está completa.
func (s *Store) RecordLinesForSale(ctx context.Context, sale *entity.Sale, userID int64, effects []SaleLineEffect) (*SaleRecord, error) {
	if sale == nil {
		return nil, domain.NewValidationError("venta", "requerida")
	}
	if sale.Folio == "" {
		return nil, domain.NewValidationError("folio", "la venta no tiene folio")
	}
	rec := &SaleRecord{ReferenceID: sale.Folio}
	var mov *entity.Movement

	for _, eff := range effects {
		if eff.SaleLine == nil || eff.Resolution == nil {
			return nil, errors.New("ledger: efecto de venta incompleto")
		}
		if eff.SaleLine.InventoryProcessed {
			continue
		}
		for _, rl := range eff.Resolution.Lines {
			written, err := s.movs.SaleLineWritten(ctx, sale.NegocioID, sale.Folio, eff.SaleLine.ID, rl.IngredientID)
			if err != nil {
				return nil, err
			}
			if written {
				continue
			}
			if mov == nil {
				mov, err = s.openSaleMovement(ctx, sale, userID)
				if err != nil {
					return nil, err
				}
				rec.MovementID = mov.ID
			}
			saleLineID := eff.SaleLine.ID
			line := &entity.MovementLine{
				MovementID:     mov.ID,
				NegocioID:      sale.NegocioID,
				IngredientID:   rl.IngredientID,
				IngredientName: rl.IngredientName,
				UnitMeasure:    rl.UnitMeasure,
				Direction:      entity.DirectionSalida,
				Reason:         entity.ReasonVenta,
				Quantity:       inventory.SignedQuantity(entity.DirectionSalida, entity.ReasonVenta, rl.Quantity),
				ObservedStock:  rl.Stock,
				UnitCost:       rl.UnitCost,
				UnitPrice:      rl.UnitPrice,
				ReferenceID:    sale.Folio,
				SaleLineID:     &saleLineID,
				Status:         entity.StatusPendiente,
				CreatedAt:      mov.Date,
			}
			if err := s.movs.CreateLine(ctx, line); err != nil {
				return nil, err
			}
			rec.LinesWritten++
		}

		if !eff.Resolution.Complete {
			rec.PendingSaleLines = append(rec.PendingSaleLines, eff.SaleLine.ID)
			s.log.Warn().
				Int64("negocio_id", sale.NegocioID).
				Str("referencia", sale.Folio).
				Int64("venta_detalle_id", eff.SaleLine.ID).
				Ints64("insumos_omitidos", eff.Resolution.Skipped).
				Msg("línea de venta sin procesar por insumos faltantes")
			continue
		}
		if err := s.sales.MarkLineProcessed(ctx, eff.SaleLine.ID); err != nil {
			return nil, err
		}
		eff.SaleLine.InventoryProcessed = true
		rec.ProcessedLines = append(rec.ProcessedLines, eff.SaleLine.ID)
	}
	return rec, nil
}

func (s *Store) openSaleMovement(ctx context.Context, sale *entity.Sale, userID int64) (*entity.Movement, error) {
	mov := &entity.Movement{
		NegocioID:   sale.NegocioID,
		Direction:   entity.DirectionSalida,
		Reason:      entity.ReasonVenta,
		ReferenceID: sale.Folio,
		Date:        s.folios.Now(),
		Notes:       "venta " + sale.Folio,
		UserID:      userID,
		Status:      entity.StatusPendiente,
	}
	if err := s.movs.Create(ctx, mov); err != nil {
		return nil, err
	}
	return mov, nil
}

// Cancel elimina lógicamente un movimiento PENDIENTE: cabecera y líneas pasan a ELIMINADO.
// Un movimiento PROCESADO no se puede cancelar; uno ya ELIMINADO devuelve domain.ErrAlreadyCancelled.
func (s *Store) Cancel(ctx context.Context, negocioID, movementID int64) (*entity.Movement, error) {
	mov, err := s.movs.GetByID(ctx, negocioID, movementID)
	if err != nil {
		return nil, err
	}
	if mov == nil {
		return nil, domain.ErrNotFound
	}
	switch mov.Status {
	case entity.StatusEliminado:
		return nil, domain.ErrAlreadyCancelled
	case entity.StatusProcesado:
		return nil, fmt.Errorf("movimiento %d ya conciliado: %w", movementID, domain.ErrConflict)
	case entity.StatusPendiente:
	}
	for _, l := range mov.Lines {
		if !l.Status.CanTransitionTo(entity.StatusEliminado) {
			continue
		}
		if err := s.movs.SetLineStatus(ctx, l.ID, entity.StatusEliminado); err != nil {
			return nil, err
		}
		l.Status = entity.StatusEliminado
	}
	if err := s.movs.SetStatus(ctx, negocioID, mov.ID, entity.StatusEliminado); err != nil {
		return nil, err
	}
	mov.Status = entity.StatusEliminado
	s.log.Info().Int64("negocio_id", negocioID).Int64("movimiento_id", mov.ID).Msg("movimiento eliminado")
	return mov, nil
}

// Get cabecera con sus líneas.
func (s *Store) Get(ctx context.Context, negocioID, movementID int64) (*entity.Movement, error) {
	mov, err := s.movs.GetByID(ctx, negocioID, movementID)
	if err != nil {
		return nil, err
	}
	if mov == nil {
		return nil, domain.ErrNotFound
	}
	return mov, nil
}

// ListByReference movimientos de una referencia (venta, compra o ajuste).
func (s *Store) ListByReference(ctx context.Context, negocioID int64, referenceID string) ([]*entity.Movement, error) {
	if referenceID == "" {
		return nil, domain.NewValidationError("referencia", "requerida")
	}
	return s.movs.ListByReference(ctx, negocioID, referenceID)
}
