package shift_test

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jhoicas/negocio-inventario/internal/application/shift"
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
	negocio = int64(1)
	cajero  = int64(4)
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func newUseCase() (*shift.UseCase, *memory.Store) {
	store := memory.NewStore(zerolog.Nop(), nil)
	gen := folio.NewGenerator(time.UTC).WithClock(func() time.Time {
		return time.Date(2026, 10, 16, 8, 0, 0, 0, time.UTC)
	})
	return shift.NewUseCase(store, gen, zerolog.Nop()), store
}

func TestOpen_CreaTurnoConClaveYFondo(t *testing.T) {
	uc, store := newUseCase()
	meta := dec("1500")

	res, err := uc.Open(context.Background(), shift.OpenInput{NegocioID: negocio, UserID: cajero, OpeningFloat: dec("500"), SalesGoal: &meta})
	require.NoError(t, err)

	sh := res.Shift
	assert.Equal(t, "1-4-261016080000", sh.Key)
	assert.Equal(t, entity.ShiftAbierto, sh.Status)
	assert.Equal(t, sh.ID, sh.Number)
	assert.Nil(t, sh.EndedAt)
	require.NotNil(t, sh.SalesGoal)
	assert.True(t, sh.SalesGoal.Equal(meta))

	require.NotNil(t, res.Float)
	assert.Equal(t, entity.SaleKindFondoCaja, res.Float.Kind)
	assert.True(t, res.Float.Total.Equal(dec("500")))
	assert.True(t, strings.HasPrefix(res.Float.Folio, sh.Key), "el folio comparte la clave del turno")
	assert.Equal(t, "1-4-261016080000080000F1", res.Float.Folio)
	assert.Equal(t, res.Float.Folio, store.Sale(res.Float.ID).Folio)
}

func TestOpen_SegundoTurnoAbiertoEsConflicto(t *testing.T) {
	uc, _ := newUseCase()
	_, err := uc.Open(context.Background(), shift.OpenInput{NegocioID: negocio, UserID: cajero})
	require.NoError(t, err)

	_, err = uc.Open(context.Background(), shift.OpenInput{NegocioID: negocio, UserID: cajero})
	assert.ErrorIs(t, err, domain.ErrShiftAlreadyOpen)
	assert.ErrorIs(t, err, domain.ErrConflict)

	_, err = uc.Open(context.Background(), shift.OpenInput{NegocioID: negocio, UserID: cajero + 1})
	assert.NoError(t, err, "otro usuario puede tener su propio turno")
}

func TestOpen_AperturasConcurrentesSoloUnaGana(t *testing.T) {
	uc, _ := newUseCase()
	const n = 8
	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := uc.Open(context.Background(), shift.OpenInput{NegocioID: negocio, UserID: cajero})
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	ok := 0
	for err := range errs {
		if err == nil {
			ok++
			continue
		}
		assert.ErrorIs(t, err, domain.ErrShiftAlreadyOpen)
	}
	assert.Equal(t, 1, ok)
}

func TestClose_CierraUnaSolaVezYPermiteReabrir(t *testing.T) {
	uc, _ := newUseCase()
	ctx := context.Background()
	opened, err := uc.Open(ctx, shift.OpenInput{NegocioID: negocio, UserID: cajero, OpeningFloat: dec("200")})
	require.NoError(t, err)

	retiro := dec("180")
	closed, err := uc.Close(ctx, shift.CloseInput{NegocioID: negocio, UserID: cajero, ShiftID: opened.Shift.ID, Withdrawal: &retiro})
	require.NoError(t, err)
	assert.Equal(t, entity.ShiftCerrado, closed.Shift.Status)
	require.NotNil(t, closed.Shift.EndedAt)
	require.NotNil(t, closed.Withdrawal)
	assert.Equal(t, entity.SaleKindRetiroCaja, closed.Withdrawal.Kind)
	assert.True(t, strings.HasPrefix(closed.Withdrawal.Folio, opened.Shift.Key))
	assert.Contains(t, closed.Withdrawal.Folio, "R")

	_, err = uc.Close(ctx, shift.CloseInput{NegocioID: negocio, UserID: cajero, ShiftID: opened.Shift.ID})
	assert.ErrorIs(t, err, domain.ErrShiftClosed)

	_, err = uc.Current(ctx, negocio, cajero)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	again, err := uc.Open(ctx, shift.OpenInput{NegocioID: negocio, UserID: cajero})
	require.NoError(t, err)
	assert.NotEqual(t, opened.Shift.ID, again.Shift.ID)

	current, err := uc.Current(ctx, negocio, cajero)
	require.NoError(t, err)
	assert.Equal(t, again.Shift.ID, current.ID)
}

func TestClose_ErroresDeAcceso(t *testing.T) {
	uc, _ := newUseCase()
	ctx := context.Background()
	opened, err := uc.Open(ctx, shift.OpenInput{NegocioID: negocio, UserID: cajero})
	require.NoError(t, err)

	_, err = uc.Close(ctx, shift.CloseInput{NegocioID: negocio, UserID: 99, ShiftID: opened.Shift.ID})
	assert.ErrorIs(t, err, domain.ErrForbidden)

	_, err = uc.Close(ctx, shift.CloseInput{NegocioID: 2, UserID: cajero, ShiftID: opened.Shift.ID})
	assert.ErrorIs(t, err, domain.ErrNotFound, "un turno de otro negocio no existe")

	negativo := dec("-1")
	_, err = uc.Close(ctx, shift.CloseInput{NegocioID: negocio, UserID: cajero, ShiftID: opened.Shift.ID, Withdrawal: &negativo})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	got, err := uc.Get(ctx, negocio, opened.Shift.ID)
	require.NoError(t, err)
	assert.True(t, got.IsOpen(), "los intentos fallidos no cierran el turno")
}

func TestOpenOrders_CuentaVentasAbiertasDelTurno(t *testing.T) {
	uc, store := newUseCase()
	ctx := context.Background()
	opened, err := uc.Open(ctx, shift.OpenInput{NegocioID: negocio, UserID: cajero})
	require.NoError(t, err)

	store.AddSale(&entity.Sale{NegocioID: negocio, ShiftKey: opened.Shift.Key, Kind: entity.SaleKindVenta, Status: entity.SaleStatusAbierta})
	store.AddSale(&entity.Sale{NegocioID: negocio, ShiftKey: opened.Shift.Key, Kind: entity.SaleKindVenta, Status: entity.SaleStatusCerrada})
	store.AddSale(&entity.Sale{NegocioID: negocio, ShiftKey: "otra", Kind: entity.SaleKindVenta, Status: entity.SaleStatusAbierta})

	n, err := uc.OpenOrders(ctx, negocio, opened.Shift.Key)
	require.NoError(t, err)
	assert.Equal(t, 1, n, "el fondo de caja no cuenta como orden")

	_, err = uc.OpenOrders(ctx, negocio, "")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestOpen_ValidaMontos(t *testing.T) {
	uc, _ := newUseCase()
	_, err := uc.Open(context.Background(), shift.OpenInput{NegocioID: negocio, UserID: cajero, OpeningFloat: dec("-10")})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}
