// Package reconcile aplica las líneas pendientes del libro de movimientos a las
// existencias del catálogo de insumos. Es el único escritor de existencia y costo
// promedio: el puerto StockStore solo se entrega a este paquete.
package reconcile

import (
	"context"
	"fmt"
	"sort"

	"github.com/jhoicas/negocio-inventario/internal/domain"
	"github.com/jhoicas/negocio-inventario/internal/domain/entity"
	"github.com/jhoicas/negocio-inventario/internal/domain/inventory"
	"github.com/jhoicas/negocio-inventario/internal/domain/repository"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// StockStore puerto de escritura del catálogo (existencia, costo promedio y proveedor).
type StockStore interface {
	// GetForUpdate bloquea la fila del insumo (SELECT FOR UPDATE); nil, nil si no existe.
	GetForUpdate(ctx context.Context, negocioID, id int64) (*entity.Ingredient, error)
	UpdateStock(ctx context.Context, negocioID, id int64, quantity, cost decimal.Decimal, supplier string) error
}

// Recorder señales operativas del conciliador (lo implementa *observability.Metrics).
type Recorder interface {
	NegativeStock(negocioID int64)
	LineApplied(reason string)
	ReconcileReplay()
}

type nopRecorder struct{}

func (nopRecorder) NegativeStock(int64) {}
func (nopRecorder) LineApplied(string) {}
func (nopRecorder) ReconcileReplay() {}

// Reconciler concilia una referencia dentro de la transacción del caller.
type Reconciler struct {
	stock   StockStore
	movs    repository.MovementRepository
	log     zerolog.Logger
	metrics Recorder
}

// New construye el conciliador con repositorios atados a la transacción.
func New(stock StockStore, movs repository.MovementRepository, log zerolog.Logger, metrics Recorder) *Reconciler {
	if metrics == nil {
		metrics = nopRecorder{}
	}
	return &Reconciler{
		stock:   stock,
		movs:    movs,
		log:     log.With().Str("component", "reconcile").Logger(),
		metrics: metrics,
	}
}

// AppliedLine efecto de una línea sobre su insumo.
type AppliedLine struct {
	LineID       int64
	MovementID   int64
	IngredientID int64
	Reason       entity.MovementReason
	Previous     decimal.Decimal
	Quantity     decimal.Decimal
	Absolute     bool
}

// NegativeStockWarning existencia negativa resultante (no bloquea la operación).
type NegativeStockWarning struct {
	IngredientID   int64           `json:"insumo_id"`
	IngredientName string          `json:"insumo"`
	Quantity       decimal.Decimal `json:"existencia"`
}

// Result resumen de una pasada de conciliación.
type Result struct {
	ReferenceID      string
	Applied          []AppliedLine
	Warnings         []NegativeStockWarning
	SettledMovements []int64
}

// Apply concilia todas las líneas PENDIENTE de la referencia:
// bloquea cada insumo, calcula la nueva existencia, la escribe y marca la línea PROCESADO.
// Cada cabecera pasa a PROCESADO cuando ya no le quedan líneas pendientes.
// Si la referencia ya estaba procesada devuelve domain.ErrAlreadyProcessed sin cambios.
func (r *Reconciler) Apply(ctx context.Context, negocioID int64, referenceID string) (*Result, error) {
	if referenceID == "" {
		return nil, domain.NewValidationError("referencia", "requerida")
	}
	lines, err := r.movs.ListLinesByReference(ctx, negocioID, referenceID, entity.StatusPendiente)
	if err != nil {
		return nil, err
	}
	res := &Result{ReferenceID: referenceID}
	if len(lines) == 0 {
		processed, err := r.movs.ListLinesByReference(ctx, negocioID, referenceID, entity.StatusProcesado)
		if err != nil {
			return nil, err
		}
		if len(processed) > 0 {
			r.metrics.ReconcileReplay()
			r.log.Debug().Int64("negocio_id", negocioID).Str("referencia", referenceID).Msg("referencia ya conciliada")
			return nil, domain.ErrAlreadyProcessed
		}
		return res, nil
	}

	// Orden estable de bloqueo por insumo para evitar interbloqueos entre ventas concurrentes.
	sort.SliceStable(lines, func(i, j int) bool {
		if lines[i].IngredientID != lines[j].IngredientID {
			return lines[i].IngredientID < lines[j].IngredientID
		}
		return lines[i].ID < lines[j].ID
	})

	touched := make(map[int64]struct{})
	for _, line := range lines {
		applied, err := r.applyLine(ctx, negocioID, line, res)
		if err != nil {
			return nil, err
		}
		res.Applied = append(res.Applied, applied)
		touched[line.MovementID] = struct{}{}
	}

	movementIDs := make([]int64, 0, len(touched))
	for id := range touched {
		movementIDs = append(movementIDs, id)
	}
	sort.Slice(movementIDs, func(i, j int) bool { return movementIDs[i] < movementIDs[j] })
	for _, id := range movementIDs {
		pending, err := r.movs.CountLinesByStatus(ctx, id, entity.StatusPendiente)
		if err != nil {
			return nil, err
		}
		if pending > 0 {
			continue
		}
		if err := r.movs.SetStatus(ctx, negocioID, id, entity.StatusProcesado); err != nil {
			return nil, err
		}
		res.SettledMovements = append(res.SettledMovements, id)
	}

	r.log.Info().
		Int64("negocio_id", negocioID).
		Str("referencia", referenceID).
		Int("lineas", len(res.Applied)).
		Int("movimientos_cerrados", len(res.SettledMovements)).
		Msg("referencia conciliada")
	return res, nil
}

func (r *Reconciler) applyLine(ctx context.Context, negocioID int64, line *entity.MovementLine, res *Result) (AppliedLine, error) {
	ing, err := r.stock.GetForUpdate(ctx, negocioID, line.IngredientID)
	if err != nil {
		return AppliedLine{}, err
	}
	if ing == nil {
		return AppliedLine{}, fmt.Errorf("conciliar línea %d: insumo %d: %w", line.ID, line.IngredientID, domain.ErrNotFound)
	}

	quantity, cost, supplier, err := nextState(ing, line)
	if err != nil {
		return AppliedLine{}, err
	}
	if err := r.stock.UpdateStock(ctx, negocioID, ing.ID, quantity, cost, supplier); err != nil {
		return AppliedLine{}, err
	}
	if err := r.movs.SetLineStatus(ctx, line.ID, entity.StatusProcesado); err != nil {
		return AppliedLine{}, err
	}
	r.metrics.LineApplied(string(line.Reason))

	if quantity.LessThan(decimal.Zero) {
		r.metrics.NegativeStock(negocioID)
		r.log.Warn().
			Str("alert", "stock_negativo").
			Int64("negocio_id", negocioID).
			Int64("insumo_id", ing.ID).
			Str("insumo", ing.Name).
			Str("existencia", quantity.String()).
			Str("referencia", line.ReferenceID).
			Msg("existencia negativa tras conciliar")
		res.Warnings = append(res.Warnings, NegativeStockWarning{
			IngredientID:   ing.ID,
			IngredientName: ing.Name,
			Quantity:       quantity,
		})
	}

	return AppliedLine{
		LineID:       line.ID,
		MovementID:   line.MovementID,
		IngredientID: ing.ID,
		Reason:       line.Reason,
		Previous:     ing.Quantity,
		Quantity:     quantity,
		Absolute:     line.Reason.IsAbsolute(),
	}, nil
}

// nextState calcula existencia, costo promedio y proveedor resultantes de una línea.
// AJUSTE_MANUAL e INV_INICIAL fijan los valores; el resto suma el delta con signo.
func nextState(ing *entity.Ingredient, line *entity.MovementLine) (decimal.Decimal, decimal.Decimal, string, error) {
	supplier := ing.Supplier
	if line.Supplier != "" {
		supplier = line.Supplier
	}
	switch line.Reason {
	case entity.ReasonAjusteManual, entity.ReasonInvInicial:
		cost := ing.Cost
		if line.CostStated {
			cost = line.UnitCost
		}
		return line.Quantity, cost, supplier, nil
	case entity.ReasonCompra:
		cost := ing.Cost
		if line.Quantity.GreaterThan(decimal.Zero) {
			cost = inventory.CostCalculator(ing.Quantity, ing.Cost, line.Quantity, line.UnitCost)
		}
		return inventory.NextQuantity(ing.Quantity, line.Quantity), cost, supplier, nil
	case entity.ReasonVenta, entity.ReasonMerma, entity.ReasonConsumo:
		return inventory.NextQuantity(ing.Quantity, line.Quantity), ing.Cost, ing.Supplier, nil
	}
	return decimal.Zero, decimal.Zero, "", fmt.Errorf("conciliar línea %d: motivo %q: %w", line.ID, line.Reason, domain.ErrInvalidInput)
}
