package http

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/jhoicas/negocio-inventario/internal/application/dto"
	"github.com/jhoicas/negocio-inventario/internal/application/recipe"
	"github.com/jhoicas/negocio-inventario/internal/domain"
	"github.com/rs/zerolog"
)

// RecipeHandler recetas y subrecetas (guardado con recálculo de costo).
type RecipeHandler struct {
	uc  *recipe.UseCase
	log zerolog.Logger
}

// NewRecipeHandler construye el handler.
func NewRecipeHandler(uc *recipe.UseCase, log zerolog.Logger) *RecipeHandler {
	return &RecipeHandler{uc: uc, log: log.With().Str("component", "http_recipe").Logger()}
}

// Create godoc
// @Summary      Crear receta
// @Tags         recetas
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body      dto.RecipeRequest  true  "nombre y lineas"
// @Success      201   {object}  dto.RecipeResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Router       /api/recetas [post]
func (h *RecipeHandler) Create(c *fiber.Ctx) error {
	return h.saveRecipe(c, 0, fiber.StatusCreated)
}

// Update godoc
// @Summary      Reemplazar receta
// @Description  Reemplaza todas las líneas y recalcula el costo.
// @Tags         recetas
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path      int                true  "ID de la receta"
// @Param        body  body      dto.RecipeRequest  true  "nombre y lineas"
// @Success      200   {object}  dto.RecipeResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Router       /api/recetas/{id} [put]
func (h *RecipeHandler) Update(c *fiber.Ctx) error {
	id, err := paramID(c, "id", "receta_id")
	if err != nil {
		return writeError(c, h.log, err)
	}
	return h.saveRecipe(c, id, fiber.StatusOK)
}

func (h *RecipeHandler) saveRecipe(c *fiber.Ctx, id int64, status int) error {
	negocioID := GetNegocioID(c)
	if negocioID == 0 {
		return unauthorized(c)
	}
	var in dto.RecipeRequest
	if err := c.BodyParser(&in); err != nil {
		return invalidBody(c)
	}
	if err := dto.Validate(in); err != nil {
		return writeError(c, h.log, err)
	}
	rec, err := h.uc.SaveRecipe(c.UserContext(), recipe.RecipeInput{
		NegocioID:    negocioID,
		ID:           id,
		Name:         in.Name,
		Instructions: in.Instructions,
		Lines:        toLineInputs(in.Lines),
	})
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.Status(status).JSON(dto.RecipeResponse{
		ID:           rec.ID,
		Name:         rec.Name,
		Instructions: rec.Instructions,
		Cost:         rec.Cost,
		Lines:        toRecipeLines(rec.Lines),
	})
}

// CreateSubrecipe godoc
// @Summary      Crear subreceta
// @Tags         recetas
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body      dto.SubrecipeRequest  true  "nombre, insumo producido y lineas"
// @Success      201   {object}  dto.RecipeResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Router       /api/subrecetas [post]
func (h *RecipeHandler) CreateSubrecipe(c *fiber.Ctx) error {
	return h.saveSubrecipe(c, 0, fiber.StatusCreated)
}

// UpdateSubrecipe godoc
// @Summary      Reemplazar subreceta
// @Tags         recetas
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path      int                   true  "ID de la subreceta"
// @Param        body  body      dto.SubrecipeRequest  true  "nombre, insumo producido y lineas"
// @Success      200   {object}  dto.RecipeResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Router       /api/subrecetas/{id} [put]
func (h *RecipeHandler) UpdateSubrecipe(c *fiber.Ctx) error {
	id, err := paramID(c, "id", "subreceta_id")
	if err != nil {
		return writeError(c, h.log, err)
	}
	return h.saveSubrecipe(c, id, fiber.StatusOK)
}

func (h *RecipeHandler) saveSubrecipe(c *fiber.Ctx, id int64, status int) error {
	negocioID := GetNegocioID(c)
	if negocioID == 0 {
		return unauthorized(c)
	}
	var in dto.SubrecipeRequest
	if err := c.BodyParser(&in); err != nil {
		return invalidBody(c)
	}
	if err := dto.Validate(in); err != nil {
		return writeError(c, h.log, err)
	}
	sub, err := h.uc.SaveSubrecipe(c.UserContext(), recipe.SubrecipeInput{
		NegocioID:    negocioID,
		ID:           id,
		Name:         in.Name,
		Instructions: in.Instructions,
		IngredientID: in.IngredientID,
		Lines:        toLineInputs(in.Lines),
	})
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.Status(status).JSON(dto.RecipeResponse{
		ID:           sub.ID,
		Name:         sub.Name,
		Instructions: sub.Instructions,
		IngredientID: sub.IngredientID,
		Cost:         sub.Cost,
		Lines:        toRecipeLines(sub.Lines),
	})
}

// Cost godoc
// @Summary      Costo de una receta
// @Description  Costo capturado vs. vigente y, con producto_id, el margen contra su precio.
// @Tags         recetas
// @Security     Bearer
// @Produce      json
// @Param        id           path      int  true   "ID de la receta"
// @Param        producto_id  query     int  false  "producto RECETA que apunta a la receta"
// @Success      200          {object}  dto.CostSummaryResponse
// @Failure      400          {object}  dto.ErrorResponse
// @Failure      404          {object}  dto.ErrorResponse
// @Router       /api/recetas/{id}/costo [get]
func (h *RecipeHandler) Cost(c *fiber.Ctx) error {
	negocioID := GetNegocioID(c)
	if negocioID == 0 {
		return unauthorized(c)
	}
	id, err := paramID(c, "id", "receta_id")
	if err != nil {
		return writeError(c, h.log, err)
	}
	var productID *int64
	if raw := c.Query("producto_id"); raw != "" {
		pid, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || pid <= 0 {
			return writeError(c, h.log, domain.NewValidationError("producto_id", "debe ser un id numérico positivo"))
		}
		productID = &pid
	}
	sum, err := h.uc.CostSummary(c.UserContext(), negocioID, id, productID)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(toCostSummaryResponse(sum))
}
