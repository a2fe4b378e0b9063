package inventory

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/jhoicas/negocio-inventario/internal/application/ledger"
	"github.com/jhoicas/negocio-inventario/internal/application/ports"
	"github.com/jhoicas/negocio-inventario/internal/application/recipe"
	"github.com/jhoicas/negocio-inventario/internal/application/reconcile"
	"github.com/jhoicas/negocio-inventario/internal/domain"
	"github.com/jhoicas/negocio-inventario/internal/domain/entity"
	"github.com/jhoicas/negocio-inventario/internal/domain/folio"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// SaleInventoryUseCase descuenta del inventario los insumos de una venta:
// resuelve cada línea, la registra en el libro y concilia la referencia, todo en una transacción.
type SaleInventoryUseCase struct {
	txRunner ports.TxRunner
	folios   *folio.Generator
	log      zerolog.Logger
	metrics  Recorder
}

// NewSaleInventoryUseCase construye el caso de uso.
func NewSaleInventoryUseCase(txRunner ports.TxRunner, folios *folio.Generator, log zerolog.Logger, metrics Recorder) *SaleInventoryUseCase {
	return &SaleInventoryUseCase{
		txRunner: txRunner,
		folios:   folios,
		log:      log.With().Str("component", "sale_inventory").Logger(),
		metrics:  recorderOrNop(metrics),
	}
}

// StockLevel existencia resultante de un insumo tocado por el evento.
type StockLevel struct {
	IngredientID int64
	Name         string
	UnitMeasure  string
	Quantity     decimal.Decimal
	Cost         decimal.Decimal
}

// SaleInventoryResult respuesta al flujo de venta.
type SaleInventoryResult struct {
	ReferenceID      string
	MovementIDs      []int64
	Stock            []StockLevel
	PendingSaleLines []int64
	Warnings         []reconcile.NegativeStockWarning
	AlreadyProcessed bool // la venta ya estaba conciliada; no hubo cambios
}

// ProcessSale procesa el inventario de una venta. Reintentar sobre la misma venta no
// duplica descuentos: solo se escriben los insumos que faltaban.
func (uc *SaleInventoryUseCase) ProcessSale(ctx context.Context, negocioID, userID, saleID int64) (*SaleInventoryResult, error) {
	var out *SaleInventoryResult
	err := uc.txRunner.Run(ctx, func(tx *ports.Tx) error {
		sale, err := tx.Sales.GetForUpdate(ctx, negocioID, saleID)
		if err != nil {
			return err
		}
		if sale == nil {
			return domain.ErrNotFound
		}
		switch sale.Kind {
		case entity.SaleKindVenta:
		case entity.SaleKindFondoCaja, entity.SaleKindRetiroCaja:
			return domain.NewValidationError("tipo", fmt.Sprintf("%s no afecta inventario", sale.Kind))
		default:
			return domain.NewValidationError("tipo", fmt.Sprintf("desconocido %q", sale.Kind))
		}
		if sale.Status == entity.SaleStatusCancelada {
			return fmt.Errorf("venta %d cancelada: %w", sale.ID, domain.ErrConflict)
		}
		if sale.Folio == "" {
			sale.Folio = uc.folios.Generate(sale.ShiftKey, folio.KindVenta, sale.ID)
			if err := tx.Sales.SetFolio(ctx, sale.ID, sale.Folio); err != nil {
				return err
			}
		}

		resolver := recipe.NewResolver(tx.Ingredients, tx.Recipes, uc.log)
		effects := make([]ledger.SaleLineEffect, 0, len(sale.Lines))
		for _, line := range sale.Lines {
			if line.InventoryProcessed {
				continue
			}
			res, err := uc.resolveLine(ctx, tx, resolver, negocioID, line)
			if err != nil {
				return err
			}
			effects = append(effects, ledger.SaleLineEffect{SaleLine: line, Resolution: res})
		}

		book := ledger.New(tx.Movements, tx.Ingredients, tx.Sales, uc.folios, uc.log)
		record, err := book.RecordLinesForSale(ctx, sale, userID, effects)
		if err != nil {
			return err
		}
		for range record.PendingSaleLines {
			uc.metrics.SaleLinePending()
		}

		result := &SaleInventoryResult{ReferenceID: sale.Folio, PendingSaleLines: record.PendingSaleLines}
		applied, err := tx.Conciliador.Apply(ctx, negocioID, sale.Folio)
		switch {
		case errors.Is(err, domain.ErrAlreadyProcessed):
			result.AlreadyProcessed = true
		case err != nil:
			return err
		default:
			result.Warnings = applied.Warnings
			result.MovementIDs = applied.SettledMovements
			result.Stock, err = stockLevels(ctx, tx, negocioID, applied)
			if err != nil {
				return err
			}
		}
		if record.MovementID != 0 && !containsID(result.MovementIDs, record.MovementID) {
			result.MovementIDs = append(result.MovementIDs, record.MovementID)
		}
		out = result
		return nil
	})
	if err != nil {
		return nil, err
	}
	uc.log.Info().
		Int64("negocio_id", negocioID).
		Int64("venta_id", saleID).
		Str("referencia", out.ReferenceID).
		Int("pendientes", len(out.PendingSaleLines)).
		Bool("ya_procesada", out.AlreadyProcessed).
		Msg("inventario de venta procesado")
	return out, nil
}

// resolveLine expande una línea de venta; un producto inexistente deja la línea pendiente.
func (uc *SaleInventoryUseCase) resolveLine(ctx context.Context, tx *ports.Tx, resolver *recipe.Resolver, negocioID int64, line *entity.SaleLine) (*recipe.Resolution, error) {
	product, err := tx.Products.GetByID(ctx, negocioID, line.ProductID)
	if err != nil {
		return nil, err
	}
	if product == nil {
		uc.log.Warn().
			Int64("negocio_id", negocioID).
			Int64("producto_id", line.ProductID).
			Int64("venta_detalle_id", line.ID).
			Msg("producto no encontrado; la línea de venta queda pendiente")
		return &recipe.Resolution{}, nil
	}
	return resolver.Resolve(ctx, product, line.Quantity)
}

// stockLevels lee la existencia final de los insumos conciliados (orden por id).
func stockLevels(ctx context.Context, tx *ports.Tx, negocioID int64, applied *reconcile.Result) ([]StockLevel, error) {
	if applied == nil || len(applied.Applied) == 0 {
		return nil, nil
	}
	seen := make(map[int64]struct{})
	ids := make([]int64, 0, len(applied.Applied))
	for _, a := range applied.Applied {
		if _, ok := seen[a.IngredientID]; ok {
			continue
		}
		seen[a.IngredientID] = struct{}{}
		ids = append(ids, a.IngredientID)
	}
	ings, err := tx.Ingredients.ListByIDs(ctx, negocioID, ids)
	if err != nil {
		return nil, err
	}
	levels := make([]StockLevel, 0, len(ings))
	for _, ing := range ings {
		levels = append(levels, StockLevel{
			IngredientID: ing.ID,
			Name:         ing.Name,
			UnitMeasure:  ing.UnitMeasure,
			Quantity:     ing.Quantity,
			Cost:         ing.Cost,
		})
	}
	sort.Slice(levels, func(i, j int) bool { return levels[i].IngredientID < levels[j].IngredientID })
	return levels, nil
}

func containsID(ids []int64, id int64) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
