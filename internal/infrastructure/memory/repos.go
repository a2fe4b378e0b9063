package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/jhoicas/negocio-inventario/internal/application/reconcile"
	"github.com/jhoicas/negocio-inventario/internal/domain"
	"github.com/jhoicas/negocio-inventario/internal/domain/entity"
	"github.com/jhoicas/negocio-inventario/internal/domain/repository"
	"github.com/shopspring/decimal"
)

var (
	_ repository.IngredientRepository = (*ingredientRepo)(nil)
	_ reconcile.StockStore            = (*ingredientRepo)(nil)
	_ repository.RecipeRepository     = (*recipeRepo)(nil)
	_ repository.ProductRepository    = (*productRepo)(nil)
	_ repository.MovementRepository   = (*movementRepo)(nil)
	_ repository.SaleRepository       = (*saleRepo)(nil)
	_ repository.ShiftRepository      = (*shiftRepo)(nil)
)

// Los repositorios solo se usan dentro de Store.Run, que ya tiene el candado.

type ingredientRepo struct{ s *Store }

func (r *ingredientRepo) GetByID(_ context.Context, negocioID, id int64) (*entity.Ingredient, error) {
	if err := r.s.check("insumos.get"); err != nil {
		return nil, err
	}
	v, ok := r.s.st.ingredients[id]
	if !ok || v.NegocioID != negocioID {
		return nil, nil
	}
	return copyIngredient(v), nil
}

func (r *ingredientRepo) ListByIDs(_ context.Context, negocioID int64, ids []int64) ([]*entity.Ingredient, error) {
	if err := r.s.check("insumos.list"); err != nil {
		return nil, err
	}
	seen := make(map[int64]struct{}, len(ids))
	var out []*entity.Ingredient
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		if v, ok := r.s.st.ingredients[id]; ok && v.NegocioID == negocioID {
			out = append(out, copyIngredient(v))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *ingredientRepo) ListBelowMinimum(_ context.Context, negocioID int64) ([]*entity.Ingredient, error) {
	if err := r.s.check("insumos.below_min"); err != nil {
		return nil, err
	}
	var out []*entity.Ingredient
	for _, v := range r.s.st.ingredients {
		if v.NegocioID == negocioID && v.Active && v.Inventoriable && v.BelowMinimum() {
			out = append(out, copyIngredient(v))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *ingredientRepo) GetForUpdate(ctx context.Context, negocioID, id int64) (*entity.Ingredient, error) {
	if err := r.s.check("insumos.get_for_update"); err != nil {
		return nil, err
	}
	return r.GetByID(ctx, negocioID, id)
}

func (r *ingredientRepo) UpdateStock(_ context.Context, negocioID, id int64, quantity, cost decimal.Decimal, supplier string) error {
	if err := r.s.check("insumos.update_stock"); err != nil {
		return err
	}
	v, ok := r.s.st.ingredients[id]
	if !ok || v.NegocioID != negocioID {
		return fmt.Errorf("update stock insumo %d: %w", id, domain.ErrNotFound)
	}
	v.Quantity = quantity
	v.Cost = cost
	v.Supplier = supplier
	v.UpdatedAt = time.Now()
	return nil
}

type recipeRepo struct{ s *Store }

func (r *recipeRepo) GetRecipe(_ context.Context, negocioID, id int64) (*entity.Recipe, error) {
	if err := r.s.check("recetas.get"); err != nil {
		return nil, err
	}
	v, ok := r.s.st.recipes[id]
	if !ok || v.NegocioID != negocioID {
		return nil, nil
	}
	return copyRecipe(v), nil
}

func (r *recipeRepo) SaveRecipe(_ context.Context, rec *entity.Recipe) error {
	if err := r.s.check("recetas.save"); err != nil {
		return err
	}
	if rec.ID == 0 {
		rec.ID = r.s.st.next("recetas")
	}
	r.numberLines(rec.ID, rec.Lines)
	r.s.st.recipes[rec.ID] = copyRecipe(rec)
	return nil
}

func (r *recipeRepo) GetSubrecipe(_ context.Context, negocioID, id int64) (*entity.Subrecipe, error) {
	if err := r.s.check("subrecetas.get"); err != nil {
		return nil, err
	}
	v, ok := r.s.st.subrecipes[id]
	if !ok || v.NegocioID != negocioID {
		return nil, nil
	}
	return copySubrecipe(v), nil
}

func (r *recipeRepo) SaveSubrecipe(_ context.Context, sub *entity.Subrecipe) error {
	if err := r.s.check("subrecetas.save"); err != nil {
		return err
	}
	if sub.ID == 0 {
		sub.ID = r.s.st.next("subrecetas")
	}
	r.numberLines(sub.ID, sub.Lines)
	r.s.st.subrecipes[sub.ID] = copySubrecipe(sub)
	return nil
}

// numberLines reemplaza la colección completa: ids nuevos para todas las líneas.
func (r *recipeRepo) numberLines(parentID int64, lines []*entity.RecipeLine) {
	for i, l := range lines {
		l.ID = r.s.st.next("recetas_detalle")
		l.ParentID = parentID
		l.Position = i + 1
	}
}

type productRepo struct{ s *Store }

func (r *productRepo) GetByID(_ context.Context, negocioID, id int64) (*entity.SaleProduct, error) {
	if err := r.s.check("productos.get"); err != nil {
		return nil, err
	}
	v, ok := r.s.st.products[id]
	if !ok || v.NegocioID != negocioID {
		return nil, nil
	}
	c := *v
	return &c, nil
}

type movementRepo struct{ s *Store }

func (r *movementRepo) Create(_ context.Context, m *entity.Movement) error {
	if err := r.s.check("movimientos.create"); err != nil {
		return err
	}
	m.ID = r.s.st.next("movimientos")
	c := *m
	c.Lines = nil
	r.s.st.movements[m.ID] = &c
	return nil
}

func (r *movementRepo) SetReference(_ context.Context, movementID int64, referenceID string) error {
	if err := r.s.check("movimientos.set_reference"); err != nil {
		return err
	}
	m, ok := r.s.st.movements[movementID]
	if !ok {
		return fmt.Errorf("set reference movimiento %d: %w", movementID, domain.ErrNotFound)
	}
	for _, l := range r.s.st.lines {
		if l.MovementID == movementID {
			return fmt.Errorf("set reference movimiento %d con líneas: %w", movementID, domain.ErrConflict)
		}
	}
	m.ReferenceID = referenceID
	return nil
}

func (r *movementRepo) CreateLine(_ context.Context, l *entity.MovementLine) error {
	if err := r.s.check("movimientos_detalle.create"); err != nil {
		return err
	}
	if _, ok := r.s.st.movements[l.MovementID]; !ok {
		return fmt.Errorf("create line movimiento %d: %w", l.MovementID, domain.ErrNotFound)
	}
	l.ID = r.s.st.next("movimientos_detalle")
	c := *l
	r.s.st.lines[l.ID] = &c
	return nil
}

func (r *movementRepo) linesOf(movementID int64) []*entity.MovementLine {
	var out []*entity.MovementLine
	for _, l := range r.s.st.lines {
		if l.MovementID == movementID {
			c := *l
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (r *movementRepo) GetByID(_ context.Context, negocioID, id int64) (*entity.Movement, error) {
	if err := r.s.check("movimientos.get"); err != nil {
		return nil, err
	}
	m, ok := r.s.st.movements[id]
	if !ok || m.NegocioID != negocioID {
		return nil, nil
	}
	c := *m
	c.Lines = r.linesOf(id)
	return &c, nil
}

func (r *movementRepo) ListByReference(_ context.Context, negocioID int64, referenceID string) ([]*entity.Movement, error) {
	if err := r.s.check("movimientos.list"); err != nil {
		return nil, err
	}
	var out []*entity.Movement
	for _, m := range r.s.st.movements {
		if m.NegocioID == negocioID && m.ReferenceID == referenceID {
			c := *m
			c.Lines = r.linesOf(m.ID)
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *movementRepo) ListLinesByReference(_ context.Context, negocioID int64, referenceID string, status entity.MovementStatus) ([]*entity.MovementLine, error) {
	if err := r.s.check("movimientos_detalle.list"); err != nil {
		return nil, err
	}
	var out []*entity.MovementLine
	for _, l := range r.s.st.lines {
		if l.NegocioID != negocioID || l.ReferenceID != referenceID || l.Status != status {
			continue
		}
		if h, ok := r.s.st.movements[l.MovementID]; !ok || h.Status == entity.StatusEliminado {
			continue
		}
		c := *l
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].IngredientID != out[j].IngredientID {
			return out[i].IngredientID < out[j].IngredientID
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (r *movementRepo) SaleLineWritten(_ context.Context, negocioID int64, referenceID string, saleLineID, ingredientID int64) (bool, error) {
	if err := r.s.check("movimientos_detalle.sale_line_written"); err != nil {
		return false, err
	}
	for _, l := range r.s.st.lines {
		if l.NegocioID == negocioID && l.ReferenceID == referenceID && l.IngredientID == ingredientID &&
			l.SaleLineID != nil && *l.SaleLineID == saleLineID && l.Status != entity.StatusEliminado {
			return true, nil
		}
	}
	return false, nil
}

func (r *movementRepo) SetStatus(_ context.Context, negocioID, movementID int64, status entity.MovementStatus) error {
	if err := r.s.check("movimientos.set_status"); err != nil {
		return err
	}
	m, ok := r.s.st.movements[movementID]
	if !ok || m.NegocioID != negocioID {
		return fmt.Errorf("set status movimiento %d: %w", movementID, domain.ErrNotFound)
	}
	if !m.Status.CanTransitionTo(status) {
		return fmt.Errorf("movimiento %d %s → %s: %w", movementID, m.Status, status, domain.ErrConflict)
	}
	m.Status = status
	return nil
}

func (r *movementRepo) SetLineStatus(_ context.Context, lineID int64, status entity.MovementStatus) error {
	if err := r.s.check("movimientos_detalle.set_status"); err != nil {
		return err
	}
	l, ok := r.s.st.lines[lineID]
	if !ok {
		return fmt.Errorf("set status línea %d: %w", lineID, domain.ErrNotFound)
	}
	if !l.Status.CanTransitionTo(status) {
		return fmt.Errorf("línea %d %s → %s: %w", lineID, l.Status, status, domain.ErrConflict)
	}
	l.Status = status
	return nil
}

func (r *movementRepo) CountLinesByStatus(_ context.Context, movementID int64, status entity.MovementStatus) (int, error) {
	if err := r.s.check("movimientos_detalle.count"); err != nil {
		return 0, err
	}
	n := 0
	for _, l := range r.s.st.lines {
		if l.MovementID == movementID && l.Status == status {
			n++
		}
	}
	return n, nil
}

type saleRepo struct{ s *Store }

func (r *saleRepo) GetForUpdate(_ context.Context, negocioID, id int64) (*entity.Sale, error) {
	if err := r.s.check("ventas.get_for_update"); err != nil {
		return nil, err
	}
	v, ok := r.s.st.sales[id]
	if !ok || v.NegocioID != negocioID {
		return nil, nil
	}
	return copySale(v), nil
}

func (r *saleRepo) SetFolio(_ context.Context, id int64, folio string) error {
	if err := r.s.check("ventas.set_folio"); err != nil {
		return err
	}
	v, ok := r.s.st.sales[id]
	if !ok {
		return fmt.Errorf("set folio venta %d: %w", id, domain.ErrNotFound)
	}
	v.Folio = folio
	return nil
}

func (r *saleRepo) MarkLineProcessed(_ context.Context, lineID int64) error {
	if err := r.s.check("ventas_detalle.mark_processed"); err != nil {
		return err
	}
	for _, sale := range r.s.st.sales {
		for _, l := range sale.Lines {
			if l.ID == lineID {
				l.InventoryProcessed = true
				return nil
			}
		}
	}
	return fmt.Errorf("marcar línea de venta %d: %w", lineID, domain.ErrNotFound)
}

func (r *saleRepo) Create(_ context.Context, sale *entity.Sale) error {
	if err := r.s.check("ventas.create"); err != nil {
		return err
	}
	sale.ID = r.s.st.next("ventas")
	for _, l := range sale.Lines {
		l.ID = r.s.st.next("ventas_detalle")
		l.SaleID = sale.ID
	}
	r.s.st.sales[sale.ID] = copySale(sale)
	return nil
}

func (r *saleRepo) CountOpenByShiftKey(_ context.Context, negocioID int64, shiftKey string) (int, error) {
	if err := r.s.check("ventas.count_open"); err != nil {
		return 0, err
	}
	n := 0
	for _, v := range r.s.st.sales {
		if v.NegocioID == negocioID && v.ShiftKey == shiftKey && v.Kind == entity.SaleKindVenta && v.Status == entity.SaleStatusAbierta {
			n++
		}
	}
	return n, nil
}

type shiftRepo struct{ s *Store }

// LockUser no necesita hacer nada: Store.Run ya serializa las transacciones.
func (r *shiftRepo) LockUser(_ context.Context, _, _ int64) error {
	return r.s.check("turnos.lock_user")
}

func (r *shiftRepo) GetOpen(_ context.Context, negocioID, userID int64) (*entity.Shift, error) {
	if err := r.s.check("turnos.get_open"); err != nil {
		return nil, err
	}
	for _, v := range r.s.st.shifts {
		if v.NegocioID == negocioID && v.UserID == userID && v.IsOpen() {
			c := *v
			return &c, nil
		}
	}
	return nil, nil
}

// Create reproduce el índice único parcial (negocio, usuario) WHERE estatus = 'abierto'.
func (r *shiftRepo) Create(_ context.Context, sh *entity.Shift) error {
	if err := r.s.check("turnos.create"); err != nil {
		return err
	}
	if sh.IsOpen() {
		for _, v := range r.s.st.shifts {
			if v.NegocioID == sh.NegocioID && v.UserID == sh.UserID && v.IsOpen() {
				return domain.ErrShiftAlreadyOpen
			}
		}
	}
	sh.ID = r.s.st.next("turnos")
	sh.Number = sh.ID
	c := *sh
	r.s.st.shifts[sh.ID] = &c
	return nil
}

func (r *shiftRepo) GetForUpdate(_ context.Context, negocioID, id int64) (*entity.Shift, error) {
	if err := r.s.check("turnos.get_for_update"); err != nil {
		return nil, err
	}
	v, ok := r.s.st.shifts[id]
	if !ok || v.NegocioID != negocioID {
		return nil, nil
	}
	c := *v
	return &c, nil
}

func (r *shiftRepo) Close(_ context.Context, sh *entity.Shift) error {
	if err := r.s.check("turnos.close"); err != nil {
		return err
	}
	v, ok := r.s.st.shifts[sh.ID]
	if !ok || v.NegocioID != sh.NegocioID {
		return fmt.Errorf("cerrar turno %d: %w", sh.ID, domain.ErrNotFound)
	}
	if !v.IsOpen() {
		return domain.ErrShiftClosed
	}
	v.Status = entity.ShiftCerrado
	v.EndedAt = sh.EndedAt
	return nil
}
