// Package folio genera referencias legibles y ordenables que correlacionan un
// movimiento del libro con la venta o compra que lo originó.
//
// Formato: <claveTurno><HHMMSS><letra><secuencia>, o <HHMMSS><letra><secuencia>
// sin turno. Siempre se calcula con la hora del servidor y se maneja como texto:
// un folio numérico pierde precisión cuando la secuencia crece.
package folio

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jhoicas/negocio-inventario/internal/domain/entity"
)

// Kind letra que identifica el tipo de documento dentro del folio.
type Kind string

// Tipos de folio.
const (
	KindVenta      Kind = "V"
	KindCompra     Kind = "C"
	KindAjuste     Kind = "A"
	KindInvInicial Kind = "I"
	KindMerma      Kind = "M"
	KindConsumo    Kind = "X"
	KindFondoCaja  Kind = "F"
	KindRetiroCaja Kind = "R"
)

// KindForReason letra de folio para un motivo de movimiento.
func KindForReason(r entity.MovementReason) (Kind, error) {
	switch r {
	case entity.ReasonVenta:
		return KindVenta, nil
	case entity.ReasonCompra:
		return KindCompra, nil
	case entity.ReasonAjusteManual:
		return KindAjuste, nil
	case entity.ReasonInvInicial:
		return KindInvInicial, nil
	case entity.ReasonMerma:
		return KindMerma, nil
	case entity.ReasonConsumo:
		return KindConsumo, nil
	}
	return "", fmt.Errorf("folio: motivo sin letra asignada %q", r)
}

// Generator produce folios y claves de turno a partir del reloj del servidor.
type Generator struct {
	now func() time.Time
	loc *time.Location
}

// NewGenerator construye el generador en la zona horaria indicada (nil = UTC).
func NewGenerator(loc *time.Location) *Generator {
	if loc == nil {
		loc = time.UTC
	}
	return &Generator{now: time.Now, loc: loc}
}

// WithClock reemplaza el reloj (pruebas).
func (g *Generator) WithClock(now func() time.Time) *Generator {
	return &Generator{now: now, loc: g.loc}
}

// Now hora actual del servidor en la zona del generador.
func (g *Generator) Now() time.Time {
	return g.now().In(g.loc)
}

// Generate construye el folio; key puede ir vacío cuando no hay turno abierto.
func (g *Generator) Generate(key string, kind Kind, sequenceID int64) string {
	var b strings.Builder
	b.WriteString(key)
	b.WriteString(g.Now().Format("150405"))
	b.WriteString(string(kind))
	b.WriteString(strconv.FormatInt(sequenceID, 10))
	return b.String()
}

// CorrelationKey clave del turno: negocio, usuario y fecha-hora del servidor.
// Los separadores evitan ambigüedad entre ids (1,23 vs 12,3).
func (g *Generator) CorrelationKey(negocioID, userID int64) string {
	return fmt.Sprintf("%d-%d-%s", negocioID, userID, g.Now().Format("060102150405"))
}
