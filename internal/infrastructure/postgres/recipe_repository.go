package postgres

import (
	"context"
	"fmt"

	"github.com/jhoicas/negocio-inventario/internal/domain"
	"github.com/jhoicas/negocio-inventario/internal/domain/entity"
	"github.com/jhoicas/negocio-inventario/internal/domain/repository"
)

var _ repository.RecipeRepository = (*RecipeRepo)(nil)

// RecipeRepo recetas y subrecetas sobre PostgreSQL.
type RecipeRepo struct {
	q Querier
}

// NewRecipeRepository construye el adaptador. Pasar pool o tx (Querier).
func NewRecipeRepository(q Querier) *RecipeRepo {
	return &RecipeRepo{q: q}
}

// detalle tabla de líneas y su columna padre.
type detalle struct {
	table  string
	parent string
}

var (
	recetaDetalle    = detalle{table: "recetas_detalle", parent: "receta_id"}
	subrecetaDetalle = detalle{table: "subrecetas_detalle", parent: "subreceta_id"}
)

// GetRecipe receta con sus líneas en orden; nil, nil si no existe.
func (r *RecipeRepo) GetRecipe(ctx context.Context, negocioID, id int64) (*entity.Recipe, error) {
	query := `
		SELECT id, negocio_id, nombre, instrucciones, costo, updated_at
		FROM recetas WHERE negocio_id = $1 AND id = $2`
	var rec entity.Recipe
	err := r.q.QueryRow(ctx, query, negocioID, id).Scan(
		&rec.ID, &rec.NegocioID, &rec.Name, &rec.Instructions, &rec.Cost, &rec.UpdatedAt,
	)
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get receta: %w", err)
	}
	rec.Lines, err = r.lines(ctx, recetaDetalle, rec.ID)
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// SaveRecipe inserta (ID == 0) o actualiza la cabecera y reemplaza todas sus líneas.
func (r *RecipeRepo) SaveRecipe(ctx context.Context, rec *entity.Recipe) error {
	if rec.ID == 0 {
		query := `
			INSERT INTO recetas (negocio_id, nombre, instrucciones, costo, updated_at)
			VALUES ($1, $2, $3, $4, $5)
			RETURNING id`
		if err := r.q.QueryRow(ctx, query, rec.NegocioID, rec.Name, rec.Instructions, rec.Cost, rec.UpdatedAt).Scan(&rec.ID); err != nil {
			return fmt.Errorf("insert receta: %w", err)
		}
	} else {
		query := `
			UPDATE recetas SET nombre = $3, instrucciones = $4, costo = $5, updated_at = $6
			WHERE negocio_id = $1 AND id = $2
			RETURNING id`
		if err := r.q.QueryRow(ctx, query, rec.NegocioID, rec.ID, rec.Name, rec.Instructions, rec.Cost, rec.UpdatedAt).Scan(&rec.ID); err != nil {
			if isNoRows(err) {
				return fmt.Errorf("update receta %d: %w", rec.ID, domain.ErrNotFound)
			}
			return fmt.Errorf("update receta: %w", err)
		}
	}
	return r.replaceLines(ctx, recetaDetalle, rec.ID, rec.Lines)
}

// GetSubrecipe subreceta con sus líneas en orden; nil, nil si no existe.
func (r *RecipeRepo) GetSubrecipe(ctx context.Context, negocioID, id int64) (*entity.Subrecipe, error) {
	query := `
		SELECT id, negocio_id, nombre, instrucciones, insumo_id, costo, updated_at
		FROM subrecetas WHERE negocio_id = $1 AND id = $2`
	var sub entity.Subrecipe
	err := r.q.QueryRow(ctx, query, negocioID, id).Scan(
		&sub.ID, &sub.NegocioID, &sub.Name, &sub.Instructions, &sub.IngredientID, &sub.Cost, &sub.UpdatedAt,
	)
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get subreceta: %w", err)
	}
	sub.Lines, err = r.lines(ctx, subrecetaDetalle, sub.ID)
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

// SaveSubrecipe inserta o actualiza la subreceta y reemplaza todas sus líneas.
func (r *RecipeRepo) SaveSubrecipe(ctx context.Context, sub *entity.Subrecipe) error {
	if sub.ID == 0 {
		query := `
			INSERT INTO subrecetas (negocio_id, nombre, instrucciones, insumo_id, costo, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6)
			RETURNING id`
		if err := r.q.QueryRow(ctx, query, sub.NegocioID, sub.Name, sub.Instructions, sub.IngredientID, sub.Cost, sub.UpdatedAt).Scan(&sub.ID); err != nil {
			return fmt.Errorf("insert subreceta: %w", err)
		}
	} else {
		query := `
			UPDATE subrecetas SET nombre = $3, instrucciones = $4, insumo_id = $5, costo = $6, updated_at = $7
			WHERE negocio_id = $1 AND id = $2
			RETURNING id`
		err := r.q.QueryRow(ctx, query, sub.NegocioID, sub.ID, sub.Name, sub.Instructions, sub.IngredientID, sub.Cost, sub.UpdatedAt).Scan(&sub.ID)
		if err != nil {
			if isNoRows(err) {
				return fmt.Errorf("update subreceta %d: %w", sub.ID, domain.ErrNotFound)
			}
			return fmt.Errorf("update subreceta: %w", err)
		}
	}
	return r.replaceLines(ctx, subrecetaDetalle, sub.ID, sub.Lines)
}

func (r *RecipeRepo) lines(ctx context.Context, d detalle, parentID int64) ([]*entity.RecipeLine, error) {
	query := fmt.Sprintf(`
		SELECT id, %[2]s, posicion, insumo_id, insumo_nombre, unidad_medida, cantidad, costo_unitario
		FROM %[1]s WHERE %[2]s = $1 ORDER BY posicion, id`, d.table, d.parent)
	rows, err := r.q.Query(ctx, query, parentID)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", d.table, err)
	}
	defer rows.Close()
	var out []*entity.RecipeLine
	for rows.Next() {
		var l entity.RecipeLine
		if err := rows.Scan(&l.ID, &l.ParentID, &l.Position, &l.IngredientID, &l.IngredientName, &l.UnitMeasure, &l.Quantity, &l.UnitCost); err != nil {
			return nil, fmt.Errorf("scan %s: %w", d.table, err)
		}
		out = append(out, &l)
	}
	return out, rows.Err()
}

// replaceLines borra las líneas previas e inserta la colección completa con posiciones 1..n.
func (r *RecipeRepo) replaceLines(ctx context.Context, d detalle, parentID int64, lines []*entity.RecipeLine) error {
	if _, err := r.q.Exec(ctx, fmt.Sprintf(`DELETE FROM %s WHERE %s = $1`, d.table, d.parent), parentID); err != nil {
		return fmt.Errorf("delete %s: %w", d.table, err)
	}
	insert := fmt.Sprintf(`
		INSERT INTO %s (%s, posicion, insumo_id, insumo_nombre, unidad_medida, cantidad, costo_unitario)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id`, d.table, d.parent)
	for i, l := range lines {
		l.ParentID = parentID
		l.Position = i + 1
		if err := r.q.QueryRow(ctx, insert, parentID, l.Position, l.IngredientID, l.IngredientName, l.UnitMeasure, l.Quantity, l.UnitCost).Scan(&l.ID); err != nil {
			return fmt.Errorf("insert %s: %w", d.table, err)
		}
	}
	return nil
}
