package recipe_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jhoicas/negocio-inventario/internal/application/ports"
	"github.com/jhoicas/negocio-inventario/internal/application/recipe"
	"github.com/jhoicas/negocio-inventario/internal/domain"
	"github.com/jhoicas/negocio-inventario/internal/domain/entity"
	"github.com/jhoicas/negocio-inventario/internal/domain/folio"
	"github.com/jhoicas/negocio-inventario/internal/infrastructure/memory"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const negocio = int64(1)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func ptr(d decimal.Decimal) *decimal.Decimal { return &d }

func id(v int64) *int64 { return &v }

var clock = time.Date(2026, 10, 16, 9, 30, 0, 0, time.UTC)

type fixture struct {
	store  *memory.Store
	harina int64
	sal    int64
	uc     *recipe.UseCase
}

func newFixture() *fixture {
	store := memory.NewStore(zerolog.Nop(), nil)
	gen := folio.NewGenerator(time.UTC).WithClock(func() time.Time { return clock })
	f := &fixture{store: store, uc: recipe.NewUseCase(store, gen, zerolog.Nop())}
	f.harina = store.AddIngredient(&entity.Ingredient{
		NegocioID: negocio, Name: "Harina", UnitMeasure: "kg",
		Quantity: dec("10"), Cost: dec("3"), Price: dec("5"), Active: true, Inventoriable: true,
	})
	f.sal = store.AddIngredient(&entity.Ingredient{
		NegocioID: negocio, Name: "Sal", UnitMeasure: "kg",
		Quantity: dec("1"), Cost: dec("5"), Active: true, Inventoriable: true,
	})
	return f
}

func (f *fixture) resolve(t *testing.T, p *entity.SaleProduct, qty decimal.Decimal) (*recipe.Resolution, error) {
	t.Helper()
	var res *recipe.Resolution
	err := f.store.Run(context.Background(), func(tx *ports.Tx) error {
		var err error
		res, err = recipe.NewResolver(tx.Ingredients, tx.Recipes, zerolog.Nop()).Resolve(context.Background(), p, qty)
		return err
	})
	return res, err
}

func (f *fixture) saveRecipe(t *testing.T, lines ...recipe.LineInput) *entity.Recipe {
	t.Helper()
	rec, err := f.uc.SaveRecipe(context.Background(), recipe.RecipeInput{NegocioID: negocio, Name: "Pan", Lines: lines})
	require.NoError(t, err)
	return rec
}

func TestResolve_ProductoDirectoNoAfectaInventario(t *testing.T) {
	f := newFixture()
	res, err := f.resolve(t, &entity.SaleProduct{NegocioID: negocio, Kind: entity.ProductKindDirecto}, dec("3"))
	require.NoError(t, err)
	assert.Empty(t, res.Lines)
	assert.True(t, res.Complete)
}

func TestResolve_ProductoDeInventarioDescuentaLaCantidadVendida(t *testing.T) {
	f := newFixture()
	res, err := f.resolve(t, &entity.SaleProduct{NegocioID: negocio, Kind: entity.ProductKindInventario, ReferenceID: id(f.harina)}, dec("3"))
	require.NoError(t, err)
	require.Len(t, res.Lines, 1)
	l := res.Lines[0]
	assert.Equal(t, f.harina, l.IngredientID)
	assert.True(t, l.Quantity.Equal(dec("-3")))
	assert.True(t, l.UnitCost.Equal(dec("3")))
	assert.True(t, l.UnitPrice.Equal(dec("5")))
	assert.Equal(t, "kg", l.UnitMeasure)
	assert.True(t, res.Complete)
}

func TestResolve_RecetaEscalaPorCantidadVendida(t *testing.T) {
	f := newFixture()
	rec := f.saveRecipe(t, recipe.LineInput{IngredientID: f.harina, Quantity: dec("2")})

	for _, n := range []string{"1", "3", "0.5"} {
		res, err := f.resolve(t, &entity.SaleProduct{NegocioID: negocio, Kind: entity.ProductKindReceta, ReferenceID: id(rec.ID)}, dec(n))
		require.NoError(t, err)
		require.Len(t, res.Lines, 1, "una sola línea por insumo")
		want := dec(n).Mul(dec("-2"))
		assert.True(t, res.Lines[0].Quantity.Equal(want), "n=%s: got %s want %s", n, res.Lines[0].Quantity, want)
		assert.True(t, res.Lines[0].Quantity.LessThanOrEqual(decimal.Zero))
	}
}

func TestResolve_RecetaUsaCostoVigenteNoElCapturado(t *testing.T) {
	f := newFixture()
	rec := f.saveRecipe(t, recipe.LineInput{IngredientID: f.harina, Quantity: dec("1"), UnitCost: ptr(dec("99"))})

	res, err := f.resolve(t, &entity.SaleProduct{NegocioID: negocio, Kind: entity.ProductKindReceta, ReferenceID: id(rec.ID)}, dec("1"))
	require.NoError(t, err)
	assert.True(t, res.Lines[0].UnitCost.Equal(dec("3")))
}

func TestResolve_InsumoRepetidoSeAgrupa(t *testing.T) {
	f := newFixture()
	rec := f.saveRecipe(t,
		recipe.LineInput{IngredientID: f.harina, Quantity: dec("1")},
		recipe.LineInput{IngredientID: f.sal, Quantity: dec("0.1")},
		recipe.LineInput{IngredientID: f.harina, Quantity: dec("0.5")},
	)
	res, err := f.resolve(t, &entity.SaleProduct{NegocioID: negocio, Kind: entity.ProductKindReceta, ReferenceID: id(rec.ID)}, dec("2"))
	require.NoError(t, err)
	require.Len(t, res.Lines, 2)
	assert.Equal(t, f.harina, res.Lines[0].IngredientID)
	assert.True(t, res.Lines[0].Quantity.Equal(dec("-3")))
	assert.Equal(t, f.sal, res.Lines[1].IngredientID)
	assert.True(t, res.Lines[1].Quantity.Equal(dec("-0.2")))
}

func TestResolve_InsumoFaltanteSeOmiteYMarcaIncompleto(t *testing.T) {
	f := newFixture()
	otro := f.store.AddIngredient(&entity.Ingredient{NegocioID: 2, Name: "Ajeno", Active: true, Inventoriable: true})

	res, err := f.resolve(t, &entity.SaleProduct{NegocioID: negocio, Kind: entity.ProductKindInventario, ReferenceID: id(otro)}, dec("1"))
	require.NoError(t, err)
	assert.Empty(t, res.Lines)
	assert.Equal(t, []int64{otro}, res.Skipped)
	assert.False(t, res.Complete, "un insumo de otro negocio cuenta como faltante")

	res, err = f.resolve(t, &entity.SaleProduct{NegocioID: negocio, Kind: entity.ProductKindReceta, ReferenceID: id(404)}, dec("1"))
	require.NoError(t, err)
	assert.False(t, res.Complete, "receta inexistente")
}

func TestResolve_InsumoNoInventariableNoDescuenta(t *testing.T) {
	f := newFixture()
	servicio := f.store.AddIngredient(&entity.Ingredient{NegocioID: negocio, Name: "Servicio", Active: true, Inventoriable: false})
	res, err := f.resolve(t, &entity.SaleProduct{NegocioID: negocio, Kind: entity.ProductKindInventario, ReferenceID: id(servicio)}, dec("1"))
	require.NoError(t, err)
	assert.Empty(t, res.Lines)
	assert.True(t, res.Complete)
}

func TestResolve_RechazaTipoDesconocidoYCantidadInvalida(t *testing.T) {
	f := newFixture()
	_, err := f.resolve(t, &entity.SaleProduct{NegocioID: negocio, Kind: "COMBO"}, dec("1"))
	var verr *domain.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "tipo_producto", verr.Field)

	_, err = f.resolve(t, &entity.SaleProduct{NegocioID: negocio, Kind: entity.ProductKindDirecto}, decimal.Zero)
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "cantidad", verr.Field)

	_, err = f.resolve(t, &entity.SaleProduct{NegocioID: negocio, Kind: entity.ProductKindReceta}, dec("1"))
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "referencia_id", verr.Field)
}
