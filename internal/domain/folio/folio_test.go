package folio_test

import (
	"strings"
	"testing"
	"time"

	"github.com/jhoicas/negocio-inventario/internal/domain/entity"
	"github.com/jhoicas/negocio-inventario/internal/domain/folio"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestGenerate_ConClaveDeTurno(t *testing.T) {
	at := time.Date(2026, 10, 16, 14, 30, 5, 0, time.UTC)
	g := folio.NewGenerator(time.UTC).WithClock(fixedClock(at))

	key := g.CorrelationKey(3, 7)
	assert.Equal(t, "3-7-261016143005", key)

	f := g.Generate(key, folio.KindVenta, 42)
	assert.Equal(t, "3-7-261016143005143005V42", f)
	assert.True(t, strings.HasPrefix(f, key), "los folios del turno comparten la clave como prefijo")
}

func TestGenerate_SinTurno(t *testing.T) {
	at := time.Date(2026, 1, 2, 9, 4, 0, 0, time.UTC)
	g := folio.NewGenerator(nil).WithClock(fixedClock(at))

	assert.Equal(t, "090400C7", g.Generate("", folio.KindCompra, 7))
}

func TestGenerate_SecuenciaGrandeSinPerdidaDePrecision(t *testing.T) {
	at := time.Date(2026, 1, 2, 23, 59, 59, 0, time.UTC)
	g := folio.NewGenerator(time.UTC).WithClock(fixedClock(at))

	f := g.Generate("1-1-260102235959", folio.KindVenta, 9007199254740993)
	assert.True(t, strings.HasSuffix(f, "V9007199254740993"))
}

func TestGenerate_FoliosDistintosPorSecuenciaYHora(t *testing.T) {
	at := time.Date(2026, 5, 5, 10, 0, 0, 0, time.UTC)
	g1 := folio.NewGenerator(time.UTC).WithClock(fixedClock(at))
	g2 := folio.NewGenerator(time.UTC).WithClock(fixedClock(at.Add(time.Second)))

	a := g1.Generate("", folio.KindVenta, 1)
	b := g1.Generate("", folio.KindVenta, 2)
	c := g2.Generate("", folio.KindVenta, 1)
	assert.NotEqual(t, a, b)
	assert.NotEqual(t, a, c)
}

func TestGenerate_UsaZonaHorariaDelServidor(t *testing.T) {
	loc := time.FixedZone("CST", -6*60*60)
	at := time.Date(2026, 3, 1, 18, 0, 0, 0, time.UTC)
	g := folio.NewGenerator(loc).WithClock(fixedClock(at))

	assert.Equal(t, "120000V1", g.Generate("", folio.KindVenta, 1))
}

func TestKindForReason(t *testing.T) {
	cases := map[entity.MovementReason]folio.Kind{
		entity.ReasonVenta:        folio.KindVenta,
		entity.ReasonCompra:       folio.KindCompra,
		entity.ReasonAjusteManual: folio.KindAjuste,
		entity.ReasonInvInicial:   folio.KindInvInicial,
		entity.ReasonMerma:        folio.KindMerma,
		entity.ReasonConsumo:      folio.KindConsumo,
	}
	for reason, want := range cases {
		got, err := folio.KindForReason(reason)
		require.NoError(t, err)
		assert.Equal(t, want, got, string(reason))
	}

	_, err := folio.KindForReason("DEVOLUCION")
	assert.Error(t, err)
}
