package http

import (
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/jhoicas/negocio-inventario/internal/application/dto"
	"github.com/jhoicas/negocio-inventario/internal/application/shift"
	"github.com/rs/zerolog"
)

// ShiftHandler apertura y cierre de turnos.
type ShiftHandler struct {
	uc  *shift.UseCase
	log zerolog.Logger
}

// NewShiftHandler construye el handler.
func NewShiftHandler(uc *shift.UseCase, log zerolog.Logger) *ShiftHandler {
	return &ShiftHandler{uc: uc, log: log.With().Str("component", "http_shift").Logger()}
}

// Open godoc
// @Summary      Abrir turno
// @Description  Un usuario tiene a lo sumo un turno abierto por negocio. Registra el fondo de caja.
// @Tags         turnos
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body      dto.OpenShiftRequest  true  "fondo (puede ser 0) y meta_ventas opcional"
// @Success      201   {object}  dto.OpenShiftResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/turnos/abrir [post]
func (h *ShiftHandler) Open(c *fiber.Ctx) error {
	negocioID, userID := GetNegocioID(c), GetUserID(c)
	if negocioID == 0 || userID == 0 {
		return unauthorized(c)
	}
	var in dto.OpenShiftRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&in); err != nil {
			return invalidBody(c)
		}
	}
	res, err := h.uc.Open(c.UserContext(), shift.OpenInput{
		NegocioID:    negocioID,
		UserID:       userID,
		OpeningFloat: in.OpeningFloat,
		SalesGoal:    in.SalesGoal,
	})
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.OpenShiftResponse{
		Shift: toShiftResponse(res.Shift),
		Float: toCashEntry(res.Float),
	})
}

// Current godoc
// @Summary      Turno abierto del usuario
// @Tags         turnos
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  dto.ShiftResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/turnos/actual [get]
func (h *ShiftHandler) Current(c *fiber.Ctx) error {
	negocioID, userID := GetNegocioID(c), GetUserID(c)
	if negocioID == 0 || userID == 0 {
		return unauthorized(c)
	}
	sh, err := h.uc.Current(c.UserContext(), negocioID, userID)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(toShiftResponse(sh))
}

// Close godoc
// @Summary      Cerrar turno
// @Description  Rechaza con 409 OPEN_ORDERS si quedan ventas abiertas con la clave del turno.
// @Tags         turnos
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path      int                    true   "ID del turno"
// @Param        body  body      dto.CloseShiftRequest  false  "retiro opcional"
// @Success      200   {object}  dto.CloseShiftResponse
// @Failure      403   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/turnos/{id}/cerrar [post]
func (h *ShiftHandler) Close(c *fiber.Ctx) error {
	negocioID, userID := GetNegocioID(c), GetUserID(c)
	if negocioID == 0 || userID == 0 {
		return unauthorized(c)
	}
	id, err := paramID(c, "id", "turno_id")
	if err != nil {
		return writeError(c, h.log, err)
	}
	var in dto.CloseShiftRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&in); err != nil {
			return invalidBody(c)
		}
	}

	sh, err := h.uc.Get(c.UserContext(), negocioID, id)
	if err != nil {
		return writeError(c, h.log, err)
	}
	if sh.IsOpen() {
		open, err := h.uc.OpenOrders(c.UserContext(), negocioID, sh.Key)
		if err != nil {
			return writeError(c, h.log, err)
		}
		if open > 0 {
			return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{
				Code:    "OPEN_ORDERS",
				Message: fmt.Sprintf("el turno tiene %d venta(s) abierta(s)", open),
			})
		}
	}

	res, err := h.uc.Close(c.UserContext(), shift.CloseInput{
		NegocioID:  negocioID,
		UserID:     userID,
		ShiftID:    id,
		Withdrawal: in.Withdrawal,
	})
	if err != nil {
		return writeError(c, h.log, err)
	}
	out := dto.CloseShiftResponse{Shift: toShiftResponse(res.Shift)}
	if res.Withdrawal != nil {
		w := toCashEntry(res.Withdrawal)
		out.Withdrawal = &w
	}
	return c.JSON(out)
}
