package http

import (
	"github.com/jhoicas/negocio-inventario/internal/application/dto"
	"github.com/jhoicas/negocio-inventario/internal/application/inventory"
	"github.com/jhoicas/negocio-inventario/internal/application/recipe"
	"github.com/jhoicas/negocio-inventario/internal/application/reconcile"
	"github.com/jhoicas/negocio-inventario/internal/domain/entity"
	"github.com/jhoicas/negocio-inventario/internal/domain/margin"
)

func toMovementResponse(m *entity.Movement) dto.MovementResponse {
	out := dto.MovementResponse{
		ID:          m.ID,
		Direction:   string(m.Direction),
		Reason:      string(m.Reason),
		ReferenceID: m.ReferenceID,
		Date:        m.Date,
		Notes:       m.Notes,
		UserID:      m.UserID,
		Status:      string(m.Status),
		Lines:       make([]dto.MovementLineResponse, 0, len(m.Lines)),
	}
	for _, l := range m.Lines {
		out.Lines = append(out.Lines, dto.MovementLineResponse{
			ID:             l.ID,
			IngredientID:   l.IngredientID,
			IngredientName: l.IngredientName,
			UnitMeasure:    l.UnitMeasure,
			Direction:      string(l.Direction),
			Reason:         string(l.Reason),
			Quantity:       l.Quantity,
			ObservedStock:  l.ObservedStock,
			UnitCost:       l.UnitCost,
			UnitPrice:      l.UnitPrice,
			Supplier:       l.Supplier,
			SaleLineID:     l.SaleLineID,
			Status:         string(l.Status),
		})
	}
	return out
}

func toWarnings(ws []reconcile.NegativeStockWarning) []dto.NegativeStockResponse {
	out := make([]dto.NegativeStockResponse, 0, len(ws))
	for _, w := range ws {
		out = append(out, dto.NegativeStockResponse{IngredientID: w.IngredientID, IngredientName: w.IngredientName, Quantity: w.Quantity})
	}
	return out
}

func toReconcileResponse(r *reconcile.Result) *dto.ReconcileResponse {
	if r == nil {
		return nil
	}
	out := &dto.ReconcileResponse{
		ReferenceID:      r.ReferenceID,
		Applied:          make([]dto.AppliedLineResponse, 0, len(r.Applied)),
		SettledMovements: r.SettledMovements,
		Warnings:         toWarnings(r.Warnings),
	}
	if out.SettledMovements == nil {
		out.SettledMovements = []int64{}
	}
	for _, a := range r.Applied {
		out.Applied = append(out.Applied, dto.AppliedLineResponse{
			LineID:       a.LineID,
			MovementID:   a.MovementID,
			IngredientID: a.IngredientID,
			Reason:       string(a.Reason),
			Previous:     a.Previous,
			Quantity:     a.Quantity,
			Absolute:     a.Absolute,
		})
	}
	return out
}

func toSaleInventoryResponse(r *inventory.SaleInventoryResult) dto.SaleInventoryResponse {
	out := dto.SaleInventoryResponse{
		ReferenceID:      r.ReferenceID,
		AlreadyProcessed: r.AlreadyProcessed,
		MovementIDs:      r.MovementIDs,
		Stock:            make([]dto.StockLevelResponse, 0, len(r.Stock)),
		PendingSaleLines: r.PendingSaleLines,
		Warnings:         toWarnings(r.Warnings),
	}
	if out.MovementIDs == nil {
		out.MovementIDs = []int64{}
	}
	if out.PendingSaleLines == nil {
		out.PendingSaleLines = []int64{}
	}
	for _, s := range r.Stock {
		out.Stock = append(out.Stock, dto.StockLevelResponse{
			IngredientID: s.IngredientID,
			Name:         s.Name,
			UnitMeasure:  s.UnitMeasure,
			Quantity:     s.Quantity,
			Cost:         s.Cost,
		})
	}
	return out
}

func toLowStockDTO(items []inventory.LowStockItem) []dto.LowStockItemDTO {
	out := make([]dto.LowStockItemDTO, 0, len(items))
	for _, it := range items {
		out = append(out, dto.LowStockItemDTO{
			IngredientID:      it.IngredientID,
			Name:              it.Name,
			UnitMeasure:       it.UnitMeasure,
			Supplier:          it.Supplier,
			CurrentStock:      it.CurrentStock,
			MinStock:          it.MinStock,
			IdealStock:        it.IdealStock,
			SuggestedOrderQty: it.SuggestedOrderQty,
			UnitCost:          it.UnitCost,
			EstimatedCost:     it.EstimatedCost,
			Priority:          it.Priority,
		})
	}
	return out
}

func toRecipeLines(lines []*entity.RecipeLine) []dto.RecipeLineResponse {
	out := make([]dto.RecipeLineResponse, 0, len(lines))
	for _, l := range lines {
		out = append(out, dto.RecipeLineResponse{
			IngredientID:   l.IngredientID,
			IngredientName: l.IngredientName,
			UnitMeasure:    l.UnitMeasure,
			Quantity:       l.Quantity,
			UnitCost:       l.UnitCost,
		})
	}
	return out
}

func toLineInputs(in []dto.RecipeLineRequest) []recipe.LineInput {
	out := make([]recipe.LineInput, 0, len(in))
	for _, l := range in {
		out = append(out, recipe.LineInput{IngredientID: l.IngredientID, Quantity: l.Quantity, UnitCost: l.UnitCost})
	}
	return out
}

func toMargin(m margin.Classification) dto.MarginResponse {
	return dto.MarginResponse{Pct: m.Pct, Band: string(m.Band)}
}

func toCostSummaryResponse(s *recipe.CostSummary) dto.CostSummaryResponse {
	out := dto.CostSummaryResponse{
		RecipeID:     s.RecipeID,
		Name:         s.Name,
		CapturedCost: s.CapturedCost,
		LiveCost:     s.LiveCost,
		Price:        s.Price,
		Margin:       toMargin(s.Margin),
		LiveMargin:   toMargin(s.LiveMargin),
		Lines:        make([]dto.LineCostResponse, 0, len(s.Lines)),
	}
	for _, l := range s.Lines {
		out.Lines = append(out.Lines, dto.LineCostResponse{
			IngredientID:     l.IngredientID,
			IngredientName:   l.IngredientName,
			UnitMeasure:      l.UnitMeasure,
			Quantity:         l.Quantity,
			CapturedUnitCost: l.CapturedUnitCost,
			LiveUnitCost:     l.LiveUnitCost,
			Missing:          l.Missing,
		})
	}
	return out
}

func toShiftResponse(sh *entity.Shift) dto.ShiftResponse {
	return dto.ShiftResponse{
		ID:        sh.ID,
		Number:    sh.Number,
		Key:       sh.Key,
		Status:    string(sh.Status),
		UserID:    sh.UserID,
		StartedAt: sh.StartedAt,
		EndedAt:   sh.EndedAt,
		SalesGoal: sh.SalesGoal,
	}
}

func toCashEntry(s *entity.Sale) dto.CashEntryResponse {
	return dto.CashEntryResponse{ID: s.ID, Folio: s.Folio, Kind: string(s.Kind), Amount: s.Total}
}
