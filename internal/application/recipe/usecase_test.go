package recipe_test

import (
	"context"
	"errors"
	"testing"

	"github.com/jhoicas/negocio-inventario/internal/application/recipe"
	"github.com/jhoicas/negocio-inventario/internal/domain"
	"github.com/jhoicas/negocio-inventario/internal/domain/entity"
	"github.com/jhoicas/negocio-inventario/internal/domain/margin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSaveRecipe_CostoEsSumaDeLineas(t *testing.T) {
	f := newFixture()
	rec := f.saveRecipe(t,
		recipe.LineInput{IngredientID: f.harina, Quantity: dec("2"), UnitCost: ptr(dec("3"))},
		recipe.LineInput{IngredientID: f.sal, Quantity: dec("1"), UnitCost: ptr(dec("5"))},
	)
	assert.True(t, rec.Cost.Equal(dec("11")), "got %s", rec.Cost)
	require.Len(t, rec.Lines, 2)
	assert.Equal(t, "Harina", rec.Lines[0].IngredientName)
	assert.Equal(t, 1, rec.Lines[0].Position)
	assert.Equal(t, rec.ID, rec.Lines[1].ParentID)
}

func TestSaveRecipe_ReemplazoRecalculaCosto(t *testing.T) {
	f := newFixture()
	rec := f.saveRecipe(t,
		recipe.LineInput{IngredientID: f.harina, Quantity: dec("2"), UnitCost: ptr(dec("3"))},
		recipe.LineInput{IngredientID: f.sal, Quantity: dec("1"), UnitCost: ptr(dec("5"))},
	)

	updated, err := f.uc.SaveRecipe(context.Background(), recipe.RecipeInput{
		NegocioID: negocio, ID: rec.ID, Name: "Pan",
		Lines: []recipe.LineInput{
			{IngredientID: f.harina, Quantity: dec("2"), UnitCost: ptr(dec("4"))},
			{IngredientID: f.sal, Quantity: dec("1"), UnitCost: ptr(dec("5"))},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, rec.ID, updated.ID)
	assert.True(t, updated.Cost.Equal(dec("13")), "got %s", updated.Cost)

	sum, err := f.uc.CostSummary(context.Background(), negocio, rec.ID, nil)
	require.NoError(t, err)
	assert.True(t, sum.CapturedCost.Equal(dec("13")), "el costo persistido se recalculó al guardar")
}

func TestSaveRecipe_FechaConRelojDelServidor(t *testing.T) {
	f := newFixture()
	rec := f.saveRecipe(t, recipe.LineInput{IngredientID: f.harina, Quantity: dec("1")})
	assert.True(t, rec.UpdatedAt.Equal(clock), "got %s", rec.UpdatedAt)

	sub, err := f.uc.SaveSubrecipe(context.Background(), recipe.SubrecipeInput{
		NegocioID: negocio, Name: "Masa madre",
		Lines: []recipe.LineInput{{IngredientID: f.harina, Quantity: dec("1")}},
	})
	require.NoError(t, err)
	assert.True(t, sub.UpdatedAt.Equal(clock))
}

func TestSaveRecipe_SinCostoCapturaElVigente(t *testing.T) {
	f := newFixture()
	rec := f.saveRecipe(t, recipe.LineInput{IngredientID: f.harina, Quantity: dec("0.5")})
	assert.True(t, rec.Lines[0].UnitCost.Equal(dec("3")))
	assert.True(t, rec.Cost.Equal(dec("1.5")))
}

func TestSaveRecipe_Validaciones(t *testing.T) {
	f := newFixture()
	cases := []struct {
		name  string
		in    recipe.RecipeInput
		field string
	}{
		{"sin nombre", recipe.RecipeInput{Lines: []recipe.LineInput{{IngredientID: f.harina, Quantity: dec("1")}}}, "nombre"},
		{"sin líneas", recipe.RecipeInput{Name: "Pan"}, "lineas"},
		{"cantidad cero", recipe.RecipeInput{Name: "Pan", Lines: []recipe.LineInput{{IngredientID: f.harina}}}, "lineas[0].cantidad"},
		{"insumo inexistente", recipe.RecipeInput{Name: "Pan", Lines: []recipe.LineInput{{IngredientID: 999, Quantity: dec("1")}}}, "lineas[0].insumo_id"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			tc.in.NegocioID = negocio
			_, err := f.uc.SaveRecipe(context.Background(), tc.in)
			var verr *domain.ValidationError
			require.True(t, errors.As(err, &verr), "got %v", err)
			assert.Equal(t, tc.field, verr.Field)
		})
	}

	_, err := f.uc.SaveRecipe(context.Background(), recipe.RecipeInput{
		NegocioID: negocio, ID: 404, Name: "Pan",
		Lines: []recipe.LineInput{{IngredientID: f.harina, Quantity: dec("1")}},
	})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestSaveSubrecipe_PrecalculaCostoYEnlazaInsumo(t *testing.T) {
	f := newFixture()
	masa := f.store.AddIngredient(&entity.Ingredient{NegocioID: negocio, Name: "Masa madre", UnitMeasure: "kg", Active: true, Inventoriable: true})

	sub, err := f.uc.SaveSubrecipe(context.Background(), recipe.SubrecipeInput{
		NegocioID: negocio, Name: "Masa madre", IngredientID: id(masa),
		Lines: []recipe.LineInput{
			{IngredientID: f.harina, Quantity: dec("1")},
			{IngredientID: f.sal, Quantity: dec("0.02")},
		},
	})
	require.NoError(t, err)
	require.NotNil(t, sub.IngredientID)
	assert.Equal(t, masa, *sub.IngredientID)
	assert.True(t, sub.Cost.Equal(dec("3.1")), "1×3 + 0.02×5, got %s", sub.Cost)

	_, err = f.uc.SaveSubrecipe(context.Background(), recipe.SubrecipeInput{
		NegocioID: negocio, Name: "x", IngredientID: id(12345),
		Lines: []recipe.LineInput{{IngredientID: f.harina, Quantity: dec("1")}},
	})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestCostSummary_ComparaCapturadoVigenteYMargen(t *testing.T) {
	f := newFixture()
	rec := f.saveRecipe(t,
		recipe.LineInput{IngredientID: f.harina, Quantity: dec("2"), UnitCost: ptr(dec("3"))},
		recipe.LineInput{IngredientID: f.sal, Quantity: dec("1"), UnitCost: ptr(dec("4"))},
	)
	prod := f.store.AddProduct(&entity.SaleProduct{
		NegocioID: negocio, Name: "Pan", Kind: entity.ProductKindReceta, ReferenceID: id(rec.ID), Price: dec("20"),
	})

	sum, err := f.uc.CostSummary(context.Background(), negocio, rec.ID, id(prod))
	require.NoError(t, err)
	assert.True(t, sum.CapturedCost.Equal(dec("10")))
	assert.True(t, sum.LiveCost.Equal(dec("11")))
	assert.True(t, sum.Margin.Pct.Equal(dec("50")))
	assert.Equal(t, margin.BandMedio, sum.Margin.Band)
	assert.True(t, sum.LiveMargin.Pct.Equal(dec("45")))
	require.Len(t, sum.Lines, 2)
	assert.True(t, sum.Lines[1].LiveUnitCost.Equal(dec("5")))

	otro := f.store.AddProduct(&entity.SaleProduct{NegocioID: negocio, Name: "Café", Kind: entity.ProductKindDirecto, Price: dec("2")})
	_, err = f.uc.CostSummary(context.Background(), negocio, rec.ID, id(otro))
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	sinPrecio, err := f.uc.CostSummary(context.Background(), negocio, rec.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, margin.BandSinPrecio, sinPrecio.Margin.Band)
}
