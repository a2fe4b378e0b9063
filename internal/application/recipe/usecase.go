package recipe

import (
	"context"
	"fmt"

	"github.com/jhoicas/negocio-inventario/internal/application/ports"
	"github.com/jhoicas/negocio-inventario/internal/domain"
	"github.com/jhoicas/negocio-inventario/internal/domain/entity"
	"github.com/jhoicas/negocio-inventario/internal/domain/folio"
	"github.com/jhoicas/negocio-inventario/internal/domain/margin"
	"github.com/jhoicas/negocio-inventario/internal/domain/repository"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// UseCase guarda recetas y subrecetas con su costo capturado y arma el resumen de costos.
type UseCase struct {
	txRunner ports.TxRunner
	folios   *folio.Generator // reloj del servidor para UpdatedAt
	log      zerolog.Logger
}

// NewUseCase construye el caso de uso de recetas.
func NewUseCase(txRunner ports.TxRunner, folios *folio.Generator, log zerolog.Logger) *UseCase {
	return &UseCase{txRunner: txRunner, folios: folios, log: log.With().Str("component", "recipe").Logger()}
}

// LineInput línea de receta recibida del caller. Sin UnitCost se captura el costo vigente del insumo.
type LineInput struct {
	IngredientID int64
	Quantity     decimal.Decimal
	UnitCost     *decimal.Decimal
}

// RecipeInput alta (ID = 0) o reemplazo completo de una receta.
type RecipeInput struct {
	NegocioID    int64
	ID           int64
	Name         string
	Instructions string
	Lines        []LineInput
}

// SubrecipeInput alta o reemplazo de una subreceta; IngredientID es el insumo que produce.
type SubrecipeInput struct {
	NegocioID    int64
	ID           int64
	Name         string
	Instructions string
	IngredientID *int64
	Lines        []LineInput
}

// SaveRecipe reemplaza las líneas y recalcula Cost = Σ(cantidad × costo capturado) en la misma transacción.
func (uc *UseCase) SaveRecipe(ctx context.Context, in RecipeInput) (*entity.Recipe, error) {
	if err := validateHeader(in.Name, in.Lines); err != nil {
		return nil, err
	}
	var saved *entity.Recipe
	err := uc.txRunner.Run(ctx, func(tx *ports.Tx) error {
		rec := &entity.Recipe{NegocioID: in.NegocioID, Name: in.Name, Instructions: in.Instructions}
		if in.ID != 0 {
			current, err := tx.Recipes.GetRecipe(ctx, in.NegocioID, in.ID)
			if err != nil {
				return err
			}
			if current == nil {
				return domain.ErrNotFound
			}
			rec.ID = current.ID
		}
		lines, err := captureLines(ctx, tx.Ingredients, in.NegocioID, rec.ID, in.Lines)
		if err != nil {
			return err
		}
		rec.Lines = lines
		rec.Cost = entity.RecipeCost(lines)
		rec.UpdatedAt = uc.folios.Now()
		if err := tx.Recipes.SaveRecipe(ctx, rec); err != nil {
			return err
		}
		saved = rec
		return nil
	})
	if err != nil {
		return nil, err
	}
	uc.log.Info().Int64("negocio_id", saved.NegocioID).Int64("receta_id", saved.ID).Str("costo", saved.Cost.String()).Msg("receta guardada")
	return saved, nil
}

// SaveSubrecipe igual que SaveRecipe un nivel abajo; el costo queda precalculado.
func (uc *UseCase) SaveSubrecipe(ctx context.Context, in SubrecipeInput) (*entity.Subrecipe, error) {
	if err := validateHeader(in.Name, in.Lines); err != nil {
		return nil, err
	}
	var saved *entity.Subrecipe
	err := uc.txRunner.Run(ctx, func(tx *ports.Tx) error {
		sub := &entity.Subrecipe{NegocioID: in.NegocioID, Name: in.Name, Instructions: in.Instructions}
		if in.ID != 0 {
			current, err := tx.Recipes.GetSubrecipe(ctx, in.NegocioID, in.ID)
			if err != nil {
				return err
			}
			if current == nil {
				return domain.ErrNotFound
			}
			sub.ID = current.ID
		}
		if in.IngredientID != nil {
			produced, err := tx.Ingredients.GetByID(ctx, in.NegocioID, *in.IngredientID)
			if err != nil {
				return err
			}
			if produced == nil {
				return domain.NewValidationError("insumo_id", "no existe en el negocio")
			}
			id := produced.ID
			sub.IngredientID = &id
		}
		lines, err := captureLines(ctx, tx.Ingredients, in.NegocioID, sub.ID, in.Lines)
		if err != nil {
			return err
		}
		sub.Lines = lines
		sub.Cost = entity.RecipeCost(lines)
		sub.UpdatedAt = uc.folios.Now()
		if err := tx.Recipes.SaveSubrecipe(ctx, sub); err != nil {
			return err
		}
		saved = sub
		return nil
	})
	if err != nil {
		return nil, err
	}
	uc.log.Info().Int64("negocio_id", saved.NegocioID).Int64("subreceta_id", saved.ID).Str("costo", saved.Cost.String()).Msg("subreceta guardada")
	return saved, nil
}

// LineCost costo de una línea de receta: capturado vs. vigente en el catálogo.
type LineCost struct {
	IngredientID     int64
	IngredientName   string
	UnitMeasure      string
	Quantity         decimal.Decimal
	CapturedUnitCost decimal.Decimal
	LiveUnitCost     decimal.Decimal
	Missing          bool // el insumo ya no existe
}

// CostSummary resumen de costos de una receta y, si se indica producto, su margen.
type CostSummary struct {
	RecipeID     int64
	Name         string
	CapturedCost decimal.Decimal
	LiveCost     decimal.Decimal
	Price        decimal.Decimal
	Margin       margin.Classification // costo capturado vs. precio de venta
	LiveMargin   margin.Classification // costo vigente vs. precio de venta
	Lines        []LineCost
}

// CostSummary compara el costo capturado de la receta con el vigente del catálogo.
// productID opcional: debe ser un producto RECETA que apunte a esta receta.
func (uc *UseCase) CostSummary(ctx context.Context, negocioID, recipeID int64, productID *int64) (*CostSummary, error) {
	var out *CostSummary
	err := uc.txRunner.Run(ctx, func(tx *ports.Tx) error {
		rec, err := tx.Recipes.GetRecipe(ctx, negocioID, recipeID)
		if err != nil {
			return err
		}
		if rec == nil {
			return domain.ErrNotFound
		}
		ids := make([]int64, 0, len(rec.Lines))
		for _, l := range rec.Lines {
			ids = append(ids, l.IngredientID)
		}
		found, err := tx.Ingredients.ListByIDs(ctx, negocioID, ids)
		if err != nil {
			return err
		}
		live := make(map[int64]*entity.Ingredient, len(found))
		for _, ing := range found {
			live[ing.ID] = ing
		}

		sum := &CostSummary{RecipeID: rec.ID, Name: rec.Name, CapturedCost: rec.Cost, LiveCost: decimal.Zero}
		for _, l := range rec.Lines {
			lc := LineCost{
				IngredientID:     l.IngredientID,
				IngredientName:   l.IngredientName,
				UnitMeasure:      l.UnitMeasure,
				Quantity:         l.Quantity,
				CapturedUnitCost: l.UnitCost,
			}
			if ing, ok := live[l.IngredientID]; ok {
				lc.LiveUnitCost = ing.Cost
				sum.LiveCost = sum.LiveCost.Add(l.Quantity.Mul(ing.Cost))
			} else {
				lc.Missing = true
			}
			sum.Lines = append(sum.Lines, lc)
		}

		if productID != nil {
			p, err := tx.Products.GetByID(ctx, negocioID, *productID)
			if err != nil {
				return err
			}
			if p == nil {
				return domain.ErrNotFound
			}
			if p.Kind != entity.ProductKindReceta || p.ReferenceID == nil || *p.ReferenceID != rec.ID {
				return domain.NewValidationError("producto_id", "el producto no usa esta receta")
			}
			sum.Price = p.Price
		}
		sum.Margin = margin.Classify(sum.CapturedCost, sum.Price)
		sum.LiveMargin = margin.Classify(sum.LiveCost, sum.Price)
		out = sum
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func validateHeader(name string, lines []LineInput) error {
	if name == "" {
		return domain.NewValidationError("nombre", "requerido")
	}
	if len(lines) == 0 {
		return domain.NewValidationError("lineas", "al menos una línea")
	}
	for i, l := range lines {
		if l.IngredientID <= 0 {
			return domain.NewValidationError(fmt.Sprintf("lineas[%d].insumo_id", i), "requerido")
		}
		if !l.Quantity.GreaterThan(decimal.Zero) {
			return domain.NewValidationError(fmt.Sprintf("lineas[%d].cantidad", i), "debe ser mayor que cero")
		}
		if l.UnitCost != nil && l.UnitCost.LessThan(decimal.Zero) {
			return domain.NewValidationError(fmt.Sprintf("lineas[%d].costo", i), "no puede ser negativo")
		}
	}
	return nil
}

// captureLines fija nombre, unidad y costo de cada insumo al momento de guardar.
func captureLines(ctx context.Context, ingredients repository.IngredientRepository, negocioID, parentID int64, in []LineInput) ([]*entity.RecipeLine, error) {
	ids := make([]int64, 0, len(in))
	for _, l := range in {
		ids = append(ids, l.IngredientID)
	}
	found, err := ingredients.ListByIDs(ctx, negocioID, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[int64]*entity.Ingredient, len(found))
	for _, ing := range found {
		byID[ing.ID] = ing
	}
	lines := make([]*entity.RecipeLine, 0, len(in))
	for i, l := range in {
		ing, ok := byID[l.IngredientID]
		if !ok {
			return nil, domain.NewValidationError(fmt.Sprintf("lineas[%d].insumo_id", i), "no existe en el negocio")
		}
		cost := ing.Cost
		if l.UnitCost != nil {
			cost = *l.UnitCost
		}
		lines = append(lines, &entity.RecipeLine{
			ParentID:       parentID,
			Position:       i + 1,
			IngredientID:   ing.ID,
			IngredientName: ing.Name,
			UnitMeasure:    ing.UnitMeasure,
			Quantity:       l.Quantity,
			UnitCost:       cost,
		})
	}
	return lines, nil
}
