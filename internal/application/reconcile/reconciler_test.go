package reconcile_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jhoicas/negocio-inventario/internal/application/ledger"
	"github.com/jhoicas/negocio-inventario/internal/application/ports"
	"github.com/jhoicas/negocio-inventario/internal/application/reconcile"
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

type spyRecorder struct {
	negatives int
	applied   map[string]int
	replays   int
}

func (s *spyRecorder) NegativeStock(int64) { s.negatives++ }
func (s *spyRecorder) LineApplied(reason string) {
	if s.applied == nil {
		s.applied = map[string]int{}
	}
	s.applied[reason]++
}
func (s *spyRecorder) ReconcileReplay() { s.replays++ }

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func ptr(d decimal.Decimal) *decimal.Decimal { return &d }

func newStore(rec reconcile.Recorder) (*memory.Store, int64) {
	store := memory.NewStore(zerolog.Nop(), rec)
	id := store.AddIngredient(&entity.Ingredient{
		NegocioID:     negocio,
		Name:          "Harina",
		UnitMeasure:   "kg",
		Quantity:      dec("10"),
		Cost:          dec("2"),
		Supplier:      "Molinos del Sur",
		Active:        true,
		Inventoriable: true,
	})
	return store, id
}

func record(t *testing.T, store *memory.Store, in ledger.MovementInput) *entity.Movement {
	t.Helper()
	var mov *entity.Movement
	err := store.Run(context.Background(), func(tx *ports.Tx) error {
		book := ledger.New(tx.Movements, tx.Ingredients, tx.Sales, folio.NewGenerator(time.UTC), zerolog.Nop())
		var err error
		mov, err = book.RecordMovement(context.Background(), in)
		return err
	})
	require.NoError(t, err)
	return mov
}

func apply(store *memory.Store, ref string) (*reconcile.Result, error) {
	var res *reconcile.Result
	err := store.Run(context.Background(), func(tx *ports.Tx) error {
		var err error
		res, err = tx.Conciliador.Apply(context.Background(), negocio, ref)
		return err
	})
	return res, err
}

func TestApply_DeltaDeSalidaDescuentaYCierraCabecera(t *testing.T) {
	store, harina := newStore(nil)
	mov := record(t, store, ledger.MovementInput{
		NegocioID: negocio, UserID: 9,
		Direction: entity.DirectionSalida, Reason: entity.ReasonMerma,
		ReferenceID: "M-1",
		Lines:       []ledger.LineInput{{IngredientID: harina, Quantity: dec("2")}},
	})

	res, err := apply(store, "M-1")
	require.NoError(t, err)
	require.Len(t, res.Applied, 1)
	assert.Equal(t, []int64{mov.ID}, res.SettledMovements)
	assert.Empty(t, res.Warnings)

	assert.True(t, store.Ingredient(harina).Quantity.Equal(dec("8")))
	for _, l := range store.Lines() {
		assert.Equal(t, entity.StatusProcesado, l.Status)
	}
	assert.Equal(t, entity.StatusProcesado, store.Movements()[0].Status)
}

func TestApply_AjusteManualFijaValoresAbsolutos(t *testing.T) {
	store, harina := newStore(nil)
	record(t, store, ledger.MovementInput{
		NegocioID: negocio, UserID: 9,
		Direction: entity.DirectionEntrada, Reason: entity.ReasonAjusteManual,
		ReferenceID: "A-1",
		Lines: []ledger.LineInput{{
			IngredientID: harina, Quantity: dec("5"), UnitCost: ptr(dec("3")), Supplier: "Harinera Norte",
		}},
	})

	_, err := apply(store, "A-1")
	require.NoError(t, err)

	ing := store.Ingredient(harina)
	assert.True(t, ing.Quantity.Equal(dec("5")), "el conteo declarado reemplaza la existencia")
	assert.True(t, ing.Cost.Equal(dec("3")))
	assert.Equal(t, "Harinera Norte", ing.Supplier)
}

func TestApply_InventarioInicialSinProveedorConservaElActual(t *testing.T) {
	store, harina := newStore(nil)
	record(t, store, ledger.MovementInput{
		NegocioID: negocio, UserID: 9,
		Direction: entity.DirectionEntrada, Reason: entity.ReasonInvInicial,
		ReferenceID: "I-1",
		Lines:       []ledger.LineInput{{IngredientID: harina, Quantity: dec("0")}},
	})

	_, err := apply(store, "I-1")
	require.NoError(t, err)

	ing := store.Ingredient(harina)
	assert.True(t, ing.Quantity.IsZero())
	assert.True(t, ing.Cost.Equal(dec("2")), "sin costo explícito se conserva el promedio vigente")
	assert.Equal(t, "Molinos del Sur", ing.Supplier)
}

func TestApply_AjusteDiferidoSinCostoNoPisaElPromedioPosterior(t *testing.T) {
	store, harina := newStore(nil)
	record(t, store, ledger.MovementInput{
		NegocioID: negocio, UserID: 9,
		Direction: entity.DirectionEntrada, Reason: entity.ReasonAjusteManual,
		ReferenceID: "A-2",
		Lines:       []ledger.LineInput{{IngredientID: harina, Quantity: dec("5")}},
	})
	record(t, store, ledger.MovementInput{
		NegocioID: negocio, UserID: 9,
		Direction: entity.DirectionEntrada, Reason: entity.ReasonCompra,
		ReferenceID: "C-2",
		Lines:       []ledger.LineInput{{IngredientID: harina, Quantity: dec("10"), UnitCost: ptr(dec("4"))}},
	})

	_, err := apply(store, "C-2")
	require.NoError(t, err)
	require.True(t, store.Ingredient(harina).Cost.Equal(dec("3")))

	_, err = apply(store, "A-2")
	require.NoError(t, err)

	ing := store.Ingredient(harina)
	assert.True(t, ing.Quantity.Equal(dec("5")))
	assert.True(t, ing.Cost.Equal(dec("3")), "got %s", ing.Cost)
}

func TestApply_CompraRecalculaCostoPromedio(t *testing.T) {
	store, harina := newStore(nil)
	record(t, store, ledger.MovementInput{
		NegocioID: negocio, UserID: 9,
		Direction: entity.DirectionEntrada, Reason: entity.ReasonCompra,
		ReferenceID: "C-1",
		Lines:       []ledger.LineInput{{IngredientID: harina, Quantity: dec("10"), UnitCost: ptr(dec("4"))}},
	})

	_, err := apply(store, "C-1")
	require.NoError(t, err)

	ing := store.Ingredient(harina)
	assert.True(t, ing.Quantity.Equal(dec("20")))
	assert.True(t, ing.Cost.Equal(dec("3")), "(10×2 + 10×4) / 20 = 3, got %s", ing.Cost)
}

func TestApply_ExistenciaNegativaAdvierteSinBloquear(t *testing.T) {
	spy := &spyRecorder{}
	store, harina := newStore(spy)
	record(t, store, ledger.MovementInput{
		NegocioID: negocio, UserID: 9,
		Direction: entity.DirectionSalida, Reason: entity.ReasonConsumo,
		ReferenceID: "X-1",
		Lines:       []ledger.LineInput{{IngredientID: harina, Quantity: dec("15")}},
	})

	res, err := apply(store, "X-1")
	require.NoError(t, err)
	require.Len(t, res.Warnings, 1)
	assert.Equal(t, harina, res.Warnings[0].IngredientID)
	assert.True(t, res.Warnings[0].Quantity.Equal(dec("-5")))
	assert.True(t, store.Ingredient(harina).Quantity.Equal(dec("-5")))
	assert.Equal(t, 1, spy.negatives)
	assert.Equal(t, 1, spy.applied["CONSUMO"])
}

func TestApply_ReaplicarEsIdempotente(t *testing.T) {
	spy := &spyRecorder{}
	store, harina := newStore(spy)
	record(t, store, ledger.MovementInput{
		NegocioID: negocio, UserID: 9,
		Direction: entity.DirectionSalida, Reason: entity.ReasonMerma,
		ReferenceID: "M-2",
		Lines:       []ledger.LineInput{{IngredientID: harina, Quantity: dec("3")}},
	})

	_, err := apply(store, "M-2")
	require.NoError(t, err)
	after := store.Ingredient(harina).Quantity

	res, err := apply(store, "M-2")
	assert.Nil(t, res)
	assert.ErrorIs(t, err, domain.ErrAlreadyProcessed)
	assert.ErrorIs(t, err, domain.ErrConflict)
	assert.True(t, domain.IsAlreadyHandled(err))
	assert.True(t, store.Ingredient(harina).Quantity.Equal(after))
	assert.True(t, after.Equal(dec("7")))
	assert.Equal(t, 1, spy.replays)
}

func TestApply_ReferenciaSinLineasNoHaceNada(t *testing.T) {
	store, harina := newStore(nil)
	res, err := apply(store, "NO-EXISTE")
	require.NoError(t, err)
	assert.Empty(t, res.Applied)
	assert.True(t, store.Ingredient(harina).Quantity.Equal(dec("10")))
}

func TestApply_ReferenciaVaciaEsErrorDeValidacion(t *testing.T) {
	store, _ := newStore(nil)
	_, err := apply(store, "")
	var verr *domain.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "referencia", verr.Field)
}

func TestApply_FalloDeEscrituraRevierteTodo(t *testing.T) {
	store, harina := newStore(nil)
	otro := store.AddIngredient(&entity.Ingredient{
		NegocioID: negocio, Name: "Azúcar", UnitMeasure: "kg",
		Quantity: dec("4"), Active: true, Inventoriable: true,
	})
	record(t, store, ledger.MovementInput{
		NegocioID: negocio, UserID: 9,
		Direction: entity.DirectionSalida, Reason: entity.ReasonMerma,
		ReferenceID: "M-3",
		Lines: []ledger.LineInput{
			{IngredientID: harina, Quantity: dec("1")},
			{IngredientID: otro, Quantity: dec("1")},
		},
	})

	calls := 0
	store.InjectFault(func(op string) error {
		if op != "insumos.update_stock" {
			return nil
		}
		calls++
		if calls == 2 {
			return errors.New("conexión perdida")
		}
		return nil
	})
	_, err := apply(store, "M-3")
	require.Error(t, err)
	store.InjectFault(nil)

	assert.True(t, store.Ingredient(harina).Quantity.Equal(dec("10")))
	assert.True(t, store.Ingredient(otro).Quantity.Equal(dec("4")))
	for _, l := range store.Lines() {
		assert.Equal(t, entity.StatusPendiente, l.Status, "ninguna línea queda PROCESADO tras el rollback")
	}

	_, err = apply(store, "M-3")
	require.NoError(t, err)
	assert.True(t, store.Ingredient(harina).Quantity.Equal(dec("9")))
	assert.True(t, store.Ingredient(otro).Quantity.Equal(dec("3")))
}

func TestApply_LineasDeMovimientoEliminadoNoSeAplican(t *testing.T) {
	store, harina := newStore(nil)
	mov := record(t, store, ledger.MovementInput{
		NegocioID: negocio, UserID: 9,
		Direction: entity.DirectionSalida, Reason: entity.ReasonMerma,
		ReferenceID: "M-4",
		Lines:       []ledger.LineInput{{IngredientID: harina, Quantity: dec("2")}},
	})
	err := store.Run(context.Background(), func(tx *ports.Tx) error {
		_, err := ledger.New(tx.Movements, tx.Ingredients, tx.Sales, folio.NewGenerator(nil), zerolog.Nop()).
			Cancel(context.Background(), negocio, mov.ID)
		return err
	})
	require.NoError(t, err)

	res, err := apply(store, "M-4")
	require.NoError(t, err)
	assert.Empty(t, res.Applied)
	assert.True(t, store.Ingredient(harina).Quantity.Equal(dec("10")))
}
