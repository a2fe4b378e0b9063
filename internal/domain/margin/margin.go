package margin

import "github.com/shopspring/decimal"

// Band franja de margen bruto.
type Band string

// Franjas de margen.
const (
	BandSinPrecio Band = "SIN_PRECIO"
	BandNegativo  Band = "NEGATIVO"
	BandBajo      Band = "BAJO"
	BandMedio     Band = "MEDIO"
	BandAlto      Band = "ALTO"
)

var (
	hundred    = decimal.NewFromInt(100)
	limitBajo  = decimal.NewFromInt(30)
	limitMedio = decimal.NewFromInt(60)
)

// Classification resultado de clasificar un par costo/precio.
type Classification struct {
	Pct  decimal.Decimal // (precio - costo) / precio * 100, 2 decimales
	Band Band
}

// Classify calcula el margen porcentual sobre el precio y su franja.
func Classify(cost, price decimal.Decimal) Classification {
	if price.LessThanOrEqual(decimal.Zero) {
		return Classification{Pct: decimal.Zero, Band: BandSinPrecio}
	}
	pct := price.Sub(cost).Div(price).Mul(hundred).Round(2)
	switch {
	case pct.LessThan(decimal.Zero):
		return Classification{Pct: pct, Band: BandNegativo}
	case pct.LessThan(limitBajo):
		return Classification{Pct: pct, Band: BandBajo}
	case pct.LessThan(limitMedio):
		return Classification{Pct: pct, Band: BandMedio}
	default:
		return Classification{Pct: pct, Band: BandAlto}
	}
}
