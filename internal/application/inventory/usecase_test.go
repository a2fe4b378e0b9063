package inventory_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/jhoicas/negocio-inventario/internal/application/inventory"
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

const (
	negocio = int64(7)
	usuario = int64(3)
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func id(v int64) *int64 { return &v }

type pendingSpy struct{ n int }

func (p *pendingSpy) SaleLinePending() { p.n++ }

type panaderia struct {
	store   *memory.Store
	folios  *folio.Generator
	harina  int64
	pan     int64
	sales   *inventory.SaleInventoryUseCase
	pending *pendingSpy
}

// newPanaderia: Harina 10 kg; receta Pan = 0.5 kg de harina; producto Pan tipo RECETA.
func newPanaderia(t *testing.T) *panaderia {
	t.Helper()
	store := memory.NewStore(zerolog.Nop(), nil)
	gen := folio.NewGenerator(time.UTC).WithClock(func() time.Time {
		return time.Date(2026, 10, 16, 12, 0, 0, 0, time.UTC)
	})
	p := &panaderia{store: store, folios: gen, pending: &pendingSpy{}}
	p.harina = store.AddIngredient(&entity.Ingredient{
		NegocioID: negocio, Name: "Harina", UnitMeasure: "kg",
		Quantity: dec("10.0"), Cost: dec("2"), MinStock: dec("9"), Active: true, Inventoriable: true,
	})
	rec, err := recipe.NewUseCase(store, gen, zerolog.Nop()).SaveRecipe(context.Background(), recipe.RecipeInput{
		NegocioID: negocio, Name: "Pan",
		Lines: []recipe.LineInput{{IngredientID: p.harina, Quantity: dec("0.5")}},
	})
	require.NoError(t, err)
	p.pan = store.AddProduct(&entity.SaleProduct{
		NegocioID: negocio, Name: "Pan", Kind: entity.ProductKindReceta, ReferenceID: id(rec.ID), Price: dec("4"), Active: true,
	})
	p.sales = inventory.NewSaleInventoryUseCase(store, gen, zerolog.Nop(), p.pending)
	return p
}

func (p *panaderia) sell(lines ...*entity.SaleLine) *entity.Sale {
	sale := &entity.Sale{
		NegocioID: negocio, ShiftKey: "7-3-261016080000", Kind: entity.SaleKindVenta,
		Status: entity.SaleStatusCerrada, UserID: usuario, Lines: lines,
	}
	p.store.AddSale(sale)
	return sale
}

func TestProcessSale_PanDescuentaHarina(t *testing.T) {
	p := newPanaderia(t)
	sale := p.sell(&entity.SaleLine{ProductID: p.pan, Quantity: dec("4")})

	res, err := p.sales.ProcessSale(context.Background(), negocio, usuario, sale.ID)
	require.NoError(t, err)

	lines := p.store.Lines()
	require.Len(t, lines, 1, "una línea de movimiento por insumo y línea de venta")
	assert.True(t, lines[0].Quantity.Equal(dec("-2.0")), "got %s", lines[0].Quantity)
	assert.Equal(t, entity.ReasonVenta, lines[0].Reason)
	assert.Equal(t, entity.DirectionSalida, lines[0].Direction)
	assert.Equal(t, entity.StatusProcesado, lines[0].Status)

	assert.True(t, p.store.Ingredient(p.harina).Quantity.Equal(dec("8.0")))
	require.Len(t, res.Stock, 1)
	assert.True(t, res.Stock[0].Quantity.Equal(dec("8")))
	assert.Len(t, res.MovementIDs, 1)
	assert.Empty(t, res.PendingSaleLines)
	assert.False(t, res.AlreadyProcessed)

	stored := p.store.Sale(sale.ID)
	assert.True(t, strings.HasPrefix(stored.Folio, "7-3-261016080000"), "el folio de la venta lleva la clave del turno")
	assert.Equal(t, stored.Folio, res.ReferenceID)
	assert.True(t, stored.Lines[0].InventoryProcessed)
}

func TestProcessSale_ReintentoNoDuplicaDescuentos(t *testing.T) {
	p := newPanaderia(t)
	sale := p.sell(&entity.SaleLine{ProductID: p.pan, Quantity: dec("4")})

	_, err := p.sales.ProcessSale(context.Background(), negocio, usuario, sale.ID)
	require.NoError(t, err)
	again, err := p.sales.ProcessSale(context.Background(), negocio, usuario, sale.ID)
	require.NoError(t, err)

	assert.True(t, again.AlreadyProcessed)
	assert.Len(t, p.store.Lines(), 1)
	assert.True(t, p.store.Ingredient(p.harina).Quantity.Equal(dec("8")))
}

func TestProcessSale_InsumoFaltanteNoBloqueaLaVenta(t *testing.T) {
	p := newPanaderia(t)
	roto := p.store.AddProduct(&entity.SaleProduct{
		NegocioID: negocio, Name: "Refresco", Kind: entity.ProductKindInventario, ReferenceID: id(999),
	})
	sale := p.sell(
		&entity.SaleLine{ProductID: p.pan, Quantity: dec("2")},
		&entity.SaleLine{ProductID: roto, Quantity: dec("1")},
	)

	res, err := p.sales.ProcessSale(context.Background(), negocio, usuario, sale.ID)
	require.NoError(t, err)
	assert.Equal(t, []int64{sale.Lines[1].ID}, res.PendingSaleLines)
	assert.Equal(t, 1, p.pending.n)
	assert.True(t, p.store.Ingredient(p.harina).Quantity.Equal(dec("9")))

	stored := p.store.Sale(sale.ID)
	assert.True(t, stored.Lines[0].InventoryProcessed)
	assert.False(t, stored.Lines[1].InventoryProcessed, "queda para seguimiento manual")

	// El insumo aparece después: el reintento procesa solo lo que faltaba.
	p.store.AddIngredient(&entity.Ingredient{
		ID: 999, NegocioID: negocio, Name: "Refresco", UnitMeasure: "pz",
		Quantity: dec("5"), Active: true, Inventoriable: true,
	})
	res, err = p.sales.ProcessSale(context.Background(), negocio, usuario, sale.ID)
	require.NoError(t, err)
	assert.Empty(t, res.PendingSaleLines)
	assert.True(t, p.store.Ingredient(999).Quantity.Equal(dec("4")))
	assert.True(t, p.store.Ingredient(p.harina).Quantity.Equal(dec("9")), "la harina no se descuenta dos veces")
	assert.Len(t, p.store.Lines(), 2)
}

func TestProcessSale_ProductoDirectoSoloMarcaLaLinea(t *testing.T) {
	p := newPanaderia(t)
	cafe := p.store.AddProduct(&entity.SaleProduct{NegocioID: negocio, Name: "Café", Kind: entity.ProductKindDirecto})
	sale := p.sell(&entity.SaleLine{ProductID: cafe, Quantity: dec("1")})

	res, err := p.sales.ProcessSale(context.Background(), negocio, usuario, sale.ID)
	require.NoError(t, err)
	assert.Empty(t, p.store.Lines())
	assert.Empty(t, res.MovementIDs)
	assert.True(t, p.store.Sale(sale.ID).Lines[0].InventoryProcessed)
}

func TestProcessSale_FalloAlConciliarRevierteElEvento(t *testing.T) {
	p := newPanaderia(t)
	sale := p.sell(&entity.SaleLine{ProductID: p.pan, Quantity: dec("4")})

	p.store.InjectFault(func(op string) error {
		if op == "insumos.update_stock" {
			return errors.New("timeout")
		}
		return nil
	})
	_, err := p.sales.ProcessSale(context.Background(), negocio, usuario, sale.ID)
	require.Error(t, err)
	p.store.InjectFault(nil)

	assert.Empty(t, p.store.Lines(), "no quedan líneas huérfanas")
	assert.Empty(t, p.store.Movements())
	assert.True(t, p.store.Ingredient(p.harina).Quantity.Equal(dec("10")))
	stored := p.store.Sale(sale.ID)
	assert.False(t, stored.Lines[0].InventoryProcessed)
	assert.Empty(t, stored.Folio, "ni siquiera el folio se conserva")

	_, err = p.sales.ProcessSale(context.Background(), negocio, usuario, sale.ID)
	require.NoError(t, err)
	assert.True(t, p.store.Ingredient(p.harina).Quantity.Equal(dec("8")))
}

func TestProcessSale_ErroresDeEntrada(t *testing.T) {
	p := newPanaderia(t)

	_, err := p.sales.ProcessSale(context.Background(), negocio, usuario, 404)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	fondo := &entity.Sale{NegocioID: negocio, Kind: entity.SaleKindFondoCaja, Status: entity.SaleStatusCerrada}
	p.store.AddSale(fondo)
	_, err = p.sales.ProcessSale(context.Background(), negocio, usuario, fondo.ID)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	cancelada := &entity.Sale{NegocioID: negocio, Kind: entity.SaleKindVenta, Status: entity.SaleStatusCancelada}
	p.store.AddSale(cancelada)
	_, err = p.sales.ProcessSale(context.Background(), negocio, usuario, cancelada.ID)
	assert.ErrorIs(t, err, domain.ErrConflict)

	ajena := &entity.Sale{NegocioID: 99, Kind: entity.SaleKindVenta}
	p.store.AddSale(ajena)
	_, err = p.sales.ProcessSale(context.Background(), negocio, usuario, ajena.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound, "otro negocio no es visible")
}
