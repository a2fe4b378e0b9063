// Package memory implementa todos los puertos de persistencia en memoria con
// transacciones por snapshot: Run serializa las transacciones y, si fn falla,
// restaura el estado previo completo.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/jhoicas/negocio-inventario/internal/application/ports"
	"github.com/jhoicas/negocio-inventario/internal/application/reconcile"
	"github.com/jhoicas/negocio-inventario/internal/domain/entity"
	"github.com/rs/zerolog"
)

var _ ports.TxRunner = (*Store)(nil)

// FaultFunc permite simular fallos de persistencia: recibe el nombre de la operación
// (p. ej. "insumos.update_stock") y, si devuelve error, la operación falla.
type FaultFunc func(op string) error

// Store base de datos en memoria.
type Store struct {
	mu      sync.Mutex
	st      *state
	fault   FaultFunc
	log     zerolog.Logger
	metrics reconcile.Recorder
}

// NewStore crea un almacén vacío.
func NewStore(log zerolog.Logger, metrics reconcile.Recorder) *Store {
	return &Store{st: newState(), log: log, metrics: metrics}
}

// InjectFault instala (o con nil quita) el simulador de fallos.
func (s *Store) InjectFault(f FaultFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fault = f
}

// Run ejecuta fn con repositorios atados a una transacción; cualquier error o panic
// descarta todos los cambios.
func (s *Store) Run(ctx context.Context, fn func(tx *ports.Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	snapshot := s.st.clone()
	committed := false
	defer func() {
		if !committed {
			s.st = snapshot
		}
	}()

	ingredients := &ingredientRepo{s: s}
	movements := &movementRepo{s: s}
	tx := &ports.Tx{
		Ingredients: ingredients,
		Recipes:     &recipeRepo{s: s},
		Products:    &productRepo{s: s},
		Movements:   movements,
		Sales:       &saleRepo{s: s},
		Shifts:      &shiftRepo{s: s},
		Conciliador: reconcile.New(ingredients, movements, s.log, s.metrics),
	}
	if err := fn(tx); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	committed = true
	return nil
}

func (s *Store) check(op string) error {
	if s.fault == nil {
		return nil
	}
	if err := s.fault(op); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

type state struct {
	seq         map[string]int64
	ingredients map[int64]*entity.Ingredient
	recipes     map[int64]*entity.Recipe
	subrecipes  map[int64]*entity.Subrecipe
	products    map[int64]*entity.SaleProduct
	movements   map[int64]*entity.Movement // cabeceras sin líneas
	lines       map[int64]*entity.MovementLine
	sales       map[int64]*entity.Sale
	shifts      map[int64]*entity.Shift
}

func newState() *state {
	return &state{
		seq:         map[string]int64{},
		ingredients: map[int64]*entity.Ingredient{},
		recipes:     map[int64]*entity.Recipe{},
		subrecipes:  map[int64]*entity.Subrecipe{},
		products:    map[int64]*entity.SaleProduct{},
		movements:   map[int64]*entity.Movement{},
		lines:       map[int64]*entity.MovementLine{},
		sales:       map[int64]*entity.Sale{},
		shifts:      map[int64]*entity.Shift{},
	}
}

func (st *state) next(table string) int64 {
	st.seq[table]++
	return st.seq[table]
}

func (st *state) clone() *state {
	c := newState()
	for k, v := range st.seq {
		c.seq[k] = v
	}
	for k, v := range st.ingredients {
		c.ingredients[k] = copyIngredient(v)
	}
	for k, v := range st.recipes {
		c.recipes[k] = copyRecipe(v)
	}
	for k, v := range st.subrecipes {
		c.subrecipes[k] = copySubrecipe(v)
	}
	for k, v := range st.products {
		p := *v
		c.products[k] = &p
	}
	for k, v := range st.movements {
		m := *v
		m.Lines = nil
		c.movements[k] = &m
	}
	for k, v := range st.lines {
		l := *v
		c.lines[k] = &l
	}
	for k, v := range st.sales {
		c.sales[k] = copySale(v)
	}
	for k, v := range st.shifts {
		sh := *v
		c.shifts[k] = &sh
	}
	return c
}

func copyIngredient(v *entity.Ingredient) *entity.Ingredient {
	c := *v
	return &c
}

func copyLines(in []*entity.RecipeLine) []*entity.RecipeLine {
	out := make([]*entity.RecipeLine, 0, len(in))
	for _, l := range in {
		c := *l
		out = append(out, &c)
	}
	return out
}

func copyRecipe(v *entity.Recipe) *entity.Recipe {
	c := *v
	c.Lines = copyLines(v.Lines)
	return &c
}

func copySubrecipe(v *entity.Subrecipe) *entity.Subrecipe {
	c := *v
	c.Lines = copyLines(v.Lines)
	return &c
}

func copySale(v *entity.Sale) *entity.Sale {
	c := *v
	c.Lines = make([]*entity.SaleLine, 0, len(v.Lines))
	for _, l := range v.Lines {
		lc := *l
		c.Lines = append(c.Lines, &lc)
	}
	return &c
}

// --- carga y lectura directa (semillas, pruebas) ---

// AddIngredient inserta un insumo y devuelve su id.
func (s *Store) AddIngredient(ing *entity.Ingredient) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := copyIngredient(ing)
	if c.ID == 0 {
		c.ID = s.st.next("insumos")
	} else if c.ID > s.st.seq["insumos"] {
		s.st.seq["insumos"] = c.ID
	}
	s.st.ingredients[c.ID] = c
	ing.ID = c.ID
	return c.ID
}

// AddProduct inserta un producto de venta y devuelve su id.
func (s *Store) AddProduct(p *entity.SaleProduct) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := *p
	if c.ID == 0 {
		c.ID = s.st.next("productos")
	} else if c.ID > s.st.seq["productos"] {
		s.st.seq["productos"] = c.ID
	}
	s.st.products[c.ID] = &c
	p.ID = c.ID
	return c.ID
}

// AddSale inserta una venta con sus líneas y devuelve su id.
func (s *Store) AddSale(sale *entity.Sale) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := copySale(sale)
	c.ID = s.st.next("ventas")
	for i, l := range c.Lines {
		l.ID = s.st.next("ventas_detalle")
		l.SaleID = c.ID
		sale.Lines[i].ID = l.ID
		sale.Lines[i].SaleID = c.ID
	}
	s.st.sales[c.ID] = c
	sale.ID = c.ID
	return c.ID
}

// Ingredient copia del insumo (nil si no existe).
func (s *Store) Ingredient(id int64) *entity.Ingredient {
	s.mu.Lock()
	defer s.mu.Unlock()
	if v, ok := s.st.ingredients[id]; ok {
		return copyIngredient(v)
	}
	return nil
}

// Sale copia de la venta (nil si no existe).
func (s *Store) Sale(id int64) *entity.Sale {
	s.mu.Lock()
	defer s.mu.Unlock()
	if v, ok := s.st.sales[id]; ok {
		return copySale(v)
	}
	return nil
}

// Lines copia de todas las líneas del libro ordenadas por id.
func (s *Store) Lines() []*entity.MovementLine {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*entity.MovementLine, 0, len(s.st.lines))
	for _, l := range s.st.lines {
		c := *l
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Movements copia de todas las cabeceras ordenadas por id.
func (s *Store) Movements() []*entity.Movement {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*entity.Movement, 0, len(s.st.movements))
	for _, m := range s.st.movements {
		c := *m
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
