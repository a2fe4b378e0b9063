// Package recipe expande productos vendidos en los insumos que consumen y mantiene
// el costo capturado de recetas y subrecetas.
package recipe

import (
	"context"
	"fmt"
	"sort"

	"github.com/jhoicas/negocio-inventario/internal/domain"
	"github.com/jhoicas/negocio-inventario/internal/domain/entity"
	"github.com/jhoicas/negocio-inventario/internal/domain/repository"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// ResolvedLine descuento de un insumo producido por la venta de un producto.
// Quantity ya lleva signo negativo; costo, precio y unidad son los vigentes del catálogo.
type ResolvedLine struct {
	IngredientID   int64
	IngredientName string
	UnitMeasure    string
	Quantity       decimal.Decimal
	UnitCost       decimal.Decimal
	UnitPrice      decimal.Decimal
	Stock          decimal.Decimal // existencia observada al resolver
}

// Resolution resultado de expandir una línea de venta.
// Complete es false cuando algún insumo referenciado no existe: la línea de venta
// debe quedar sin procesar para seguimiento manual.
type Resolution struct {
	Lines    []ResolvedLine
	Skipped  []int64
	Complete bool
}

// Resolver despacha por tipo de producto (DIRECTO, INVENTARIO, RECETA).
type Resolver struct {
	ingredients repository.IngredientRepository
	recipes     repository.RecipeRepository
	log         zerolog.Logger
}

// NewResolver construye el resolvedor sobre los repositorios de la transacción en curso.
func NewResolver(ingredients repository.IngredientRepository, recipes repository.RecipeRepository, log zerolog.Logger) *Resolver {
	return &Resolver{
		ingredients: ingredients,
		recipes:     recipes,
		log:         log.With().Str("component", "recipe_resolver").Logger(),
	}
}

// Resolve expande quantitySold unidades del producto en descuentos de insumos.
func (r *Resolver) Resolve(ctx context.Context, product *entity.SaleProduct, quantitySold decimal.Decimal) (*Resolution, error) {
	if product == nil {
		return nil, domain.NewValidationError("producto", "requerido")
	}
	if !quantitySold.GreaterThan(decimal.Zero) {
		return nil, domain.NewValidationError("cantidad", "debe ser mayor que cero")
	}

	switch product.Kind {
	case entity.ProductKindDirecto:
		return &Resolution{Complete: true}, nil
	case entity.ProductKindInventario:
		if product.ReferenceID == nil {
			return nil, domain.NewValidationError("referencia_id", "producto de inventario sin insumo")
		}
		return r.resolveIngredient(ctx, product, *product.ReferenceID, quantitySold)
	case entity.ProductKindReceta:
		if product.ReferenceID == nil {
			return nil, domain.NewValidationError("referencia_id", "producto de receta sin receta")
		}
		return r.resolveRecipe(ctx, product, *product.ReferenceID, quantitySold)
	}
	return nil, domain.NewValidationError("tipo_producto", fmt.Sprintf("desconocido %q", product.Kind))
}

func (r *Resolver) resolveIngredient(ctx context.Context, product *entity.SaleProduct, ingredientID int64, qty decimal.Decimal) (*Resolution, error) {
	ing, err := r.ingredients.GetByID(ctx, product.NegocioID, ingredientID)
	if err != nil {
		return nil, err
	}
	if ing == nil {
		r.warnMissing(product, ingredientID)
		return &Resolution{Skipped: []int64{ingredientID}}, nil
	}
	if !ing.Inventoriable {
		return &Resolution{Complete: true}, nil
	}
	return &Resolution{
		Lines:    []ResolvedLine{lineFor(ing, qty.Abs().Neg())},
		Complete: true,
	}, nil
}

func (r *Resolver) resolveRecipe(ctx context.Context, product *entity.SaleProduct, recipeID int64, qty decimal.Decimal) (*Resolution, error) {
	rec, err := r.recipes.GetRecipe(ctx, product.NegocioID, recipeID)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		r.log.Warn().
			Int64("negocio_id", product.NegocioID).
			Int64("producto_id", product.ID).
			Int64("receta_id", recipeID).
			Msg("receta no encontrada; la línea de venta queda pendiente")
		return &Resolution{}, nil
	}

	lines := make([]*entity.RecipeLine, len(rec.Lines))
	copy(lines, rec.Lines)
	sort.SliceStable(lines, func(i, j int) bool { return lines[i].Position < lines[j].Position })

	ids := make([]int64, 0, len(lines))
	for _, l := range lines {
		ids = append(ids, l.IngredientID)
	}
	found, err := r.ingredients.ListByIDs(ctx, product.NegocioID, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[int64]*entity.Ingredient, len(found))
	for _, ing := range found {
		byID[ing.ID] = ing
	}

	// Un insumo repetido en la receta se descuenta una sola vez con la suma de cantidades:
	// el libro admite una línea por (venta, línea de venta, insumo).
	res := &Resolution{Complete: true}
	index := make(map[int64]int)
	for _, l := range lines {
		ing, ok := byID[l.IngredientID]
		if !ok {
			r.warnMissing(product, l.IngredientID)
			res.Skipped = append(res.Skipped, l.IngredientID)
			res.Complete = false
			continue
		}
		if !ing.Inventoriable {
			continue
		}
		deduct := l.Quantity.Mul(qty).Abs().Neg()
		if i, seen := index[ing.ID]; seen {
			res.Lines[i].Quantity = res.Lines[i].Quantity.Add(deduct)
			continue
		}
		index[ing.ID] = len(res.Lines)
		res.Lines = append(res.Lines, lineFor(ing, deduct))
	}
	return res, nil
}

func (r *Resolver) warnMissing(product *entity.SaleProduct, ingredientID int64) {
	r.log.Warn().
		Int64("negocio_id", product.NegocioID).
		Int64("producto_id", product.ID).
		Int64("insumo_id", ingredientID).
		Msg("insumo no encontrado; se omite y la línea de venta queda pendiente")
}

func lineFor(ing *entity.Ingredient, qty decimal.Decimal) ResolvedLine {
	return ResolvedLine{
		IngredientID:   ing.ID,
		IngredientName: ing.Name,
		UnitMeasure:    ing.UnitMeasure,
		Quantity:       qty,
		UnitCost:       ing.Cost,
		UnitPrice:      ing.Price,
		Stock:          ing.Quantity,
	}
}
