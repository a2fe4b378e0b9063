package entity

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// ProductKind tipo de producto de venta; clave de despacho del resolvedor de recetas.
type ProductKind string

// Tipos de producto.
const (
	ProductKindDirecto    ProductKind = "DIRECTO"    // sin impacto en inventario
	ProductKindInventario ProductKind = "INVENTARIO" // ReferenceID = insumo
	ProductKindReceta     ProductKind = "RECETA"     // ReferenceID = receta
)

// Valid indica si el tipo es uno de los conocidos.
func (k ProductKind) Valid() bool {
	switch k {
	case ProductKindDirecto, ProductKindInventario, ProductKindReceta:
		return true
	}
	return false
}

// ParseProductKind normaliza y valida el tipo; nunca adivina valores desconocidos.
func ParseProductKind(s string) (ProductKind, error) {
	k := ProductKind(strings.ToUpper(strings.TrimSpace(s)))
	if !k.Valid() {
		return "", fmt.Errorf("tipo de producto desconocido %q", s)
	}
	return k, nil
}

// SaleProduct producto del lado de venta.
type SaleProduct struct {
	ID          int64
	NegocioID   int64
	Name        string
	Kind        ProductKind
	ReferenceID *int64
	Price       decimal.Decimal
	Active      bool
}
