package inventory

import (
	"github.com/jhoicas/negocio-inventario/internal/domain/entity"
	"github.com/shopspring/decimal"
)

// SignedQuantity fija el signo de una línea al momento de escribirla.
// SALIDA → -|q|, ENTRADA → +|q|. Los motivos absolutos (AJUSTE_MANUAL, INV_INICIAL)
// guardan el conteo declarado tal cual.
func SignedQuantity(dir entity.MovementDirection, reason entity.MovementReason, q decimal.Decimal) decimal.Decimal {
	if reason.IsAbsolute() {
		return q
	}
	switch dir {
	case entity.DirectionSalida:
		return q.Abs().Neg()
	case entity.DirectionEntrada:
		return q.Abs()
	}
	return q
}

// NextQuantity existencia resultante de aplicar un delta. Ambos operandos son
// decimales: nunca se concatenan como texto.
func NextQuantity(current, delta decimal.Decimal) decimal.Decimal {
	return current.Add(delta)
}
