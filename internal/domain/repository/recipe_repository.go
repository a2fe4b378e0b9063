package repository

import (
	"context"

	"github.com/jhoicas/negocio-inventario/internal/domain/entity"
)

// RecipeRepository puerto de persistencia de recetas y subrecetas.
// Save reemplaza la colección completa de líneas y persiste el costo recibido.
type RecipeRepository interface {
	GetRecipe(ctx context.Context, negocioID, id int64) (*entity.Recipe, error)
	SaveRecipe(ctx context.Context, recipe *entity.Recipe) error
	GetSubrecipe(ctx context.Context, negocioID, id int64) (*entity.Subrecipe, error)
	SaveSubrecipe(ctx context.Context, sub *entity.Subrecipe) error
}
