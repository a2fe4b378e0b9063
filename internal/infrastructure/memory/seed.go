package memory

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/jhoicas/negocio-inventario/internal/domain/entity"
	"github.com/shopspring/decimal"
)

// Seed catálogo inicial para arrancar con STORE_DRIVER=memory.
type Seed struct {
	Insumos []struct {
		ID            int64           `json:"id"`
		NegocioID     int64           `json:"negocio_id"`
		Nombre        string          `json:"nombre"`
		Unidad        string          `json:"unidad"`
		Existencia    decimal.Decimal `json:"existencia"`
		Minimo        decimal.Decimal `json:"minimo"`
		Costo         decimal.Decimal `json:"costo"`
		Precio        decimal.Decimal `json:"precio"`
		Proveedor     string          `json:"proveedor"`
		Inventariable *bool           `json:"inventariable"`
	} `json:"insumos"`
	Productos []struct {
		ID           int64           `json:"id"`
		NegocioID    int64           `json:"negocio_id"`
		Nombre       string          `json:"nombre"`
		Tipo         string          `json:"tipo"`
		ReferenciaID *int64          `json:"referencia_id"`
		Precio       decimal.Decimal `json:"precio"`
	} `json:"productos"`
}

// LoadSeed lee un catálogo JSON y lo inserta en el almacén.
func (s *Store) LoadSeed(r io.Reader) error {
	var seed Seed
	if err := json.NewDecoder(r).Decode(&seed); err != nil {
		return fmt.Errorf("leer semilla: %w", err)
	}
	for _, in := range seed.Insumos {
		inventoriable := true
		if in.Inventariable != nil {
			inventoriable = *in.Inventariable
		}
		s.AddIngredient(&entity.Ingredient{
			ID:            in.ID,
			NegocioID:     in.NegocioID,
			Name:          in.Nombre,
			UnitMeasure:   in.Unidad,
			Quantity:      in.Existencia,
			MinStock:      in.Minimo,
			Cost:          in.Costo,
			Price:         in.Precio,
			Supplier:      in.Proveedor,
			Active:        true,
			Inventoriable: inventoriable,
		})
	}
	for _, in := range seed.Productos {
		kind, err := entity.ParseProductKind(in.Tipo)
		if err != nil {
			return fmt.Errorf("producto %q: %w", in.Nombre, err)
		}
		s.AddProduct(&entity.SaleProduct{
			ID:          in.ID,
			NegocioID:   in.NegocioID,
			Name:        in.Nombre,
			Kind:        kind,
			ReferenceID: in.ReferenciaID,
			Price:       in.Precio,
			Active:      true,
		})
	}
	return nil
}
