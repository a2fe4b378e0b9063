package http

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/jhoicas/negocio-inventario/internal/application/dto"
	"github.com/jhoicas/negocio-inventario/internal/application/inventory"
	"github.com/jhoicas/negocio-inventario/internal/application/ledger"
	"github.com/jhoicas/negocio-inventario/internal/application/shift"
	"github.com/jhoicas/negocio-inventario/internal/domain"
	"github.com/jhoicas/negocio-inventario/internal/domain/entity"
	"github.com/rs/zerolog"
)

// InventoryHandler maneja las peticiones HTTP del libro de movimientos (protegido).
type InventoryHandler struct {
	sales         *inventory.SaleInventoryUseCase
	register      *inventory.RegisterMovementUseCase
	movements     *inventory.MovementUseCase
	replenishment *inventory.ReplenishmentUseCase
	shifts        *shift.UseCase
	log           zerolog.Logger
}

// NewInventoryHandler construye el handler.
func NewInventoryHandler(
	sales *inventory.SaleInventoryUseCase,
	register *inventory.RegisterMovementUseCase,
	movements *inventory.MovementUseCase,
	replenishment *inventory.ReplenishmentUseCase,
	shifts *shift.UseCase,
	log zerolog.Logger,
) *InventoryHandler {
	return &InventoryHandler{
		sales:         sales,
		register:      register,
		movements:     movements,
		replenishment: replenishment,
		shifts:        shifts,
		log:           log.With().Str("component", "http_inventory").Logger(),
	}
}

// ProcessSale godoc
// @Summary      Descontar inventario de una venta
// @Description  Expande cada línea (directa, insumo o receta), la registra en el libro y concilia
//
//	el folio de la venta. Reintentar no duplica descuentos.
//
// @Tags         inventario
// @Security     Bearer
// @Produce      json
// @Param        id   path      int  true  "ID de la venta"
// @Success      200  {object}  dto.SaleInventoryResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/ventas/{id}/inventario [post]
func (h *InventoryHandler) ProcessSale(c *fiber.Ctx) error {
	negocioID, userID := GetNegocioID(c), GetUserID(c)
	if negocioID == 0 || userID == 0 {
		return unauthorized(c)
	}
	saleID, err := paramID(c, "id", "venta_id")
	if err != nil {
		return writeError(c, h.log, err)
	}
	res, err := h.sales.ProcessSale(c.UserContext(), negocioID, userID, saleID)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(toSaleInventoryResponse(res))
}

// ReceivePurchase godoc
// @Summary      Recibir compra
// @Description  Registra ENTRADA/COMPRA y actualiza existencia y costo promedio ponderado.
// @Tags         inventario
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body      dto.PurchaseRequest  true  "lineas con insumo_id, cantidad y costo"
// @Success      201   {object}  dto.RegisterMovementResponse
// @Success      200   {object}  dto.RegisterMovementResponse  "referencia ya conciliada"
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/compras/inventario [post]
func (h *InventoryHandler) ReceivePurchase(c *fiber.Ctx) error {
	negocioID, userID := GetNegocioID(c), GetUserID(c)
	if negocioID == 0 || userID == 0 {
		return unauthorized(c)
	}
	var in dto.PurchaseRequest
	if err := c.BodyParser(&in); err != nil {
		return invalidBody(c)
	}
	if err := dto.Validate(in); err != nil {
		return writeError(c, h.log, err)
	}
	lines := make([]inventory.PurchaseLine, 0, len(in.Lines))
	for _, l := range in.Lines {
		lines = append(lines, inventory.PurchaseLine{IngredientID: l.IngredientID, Quantity: l.Quantity, UnitCost: l.UnitCost})
	}
	res, err := h.register.ReceivePurchase(c.UserContext(), inventory.PurchaseInput{
		NegocioID:   negocioID,
		UserID:      userID,
		ReferenceID: in.ReferenceID,
		ShiftKey:    h.shiftKey(c),
		Supplier:    in.Supplier,
		Notes:       in.Notes,
		Lines:       lines,
	})
	if errors.Is(err, domain.ErrAlreadyProcessed) {
		return h.alreadyRegistered(c, negocioID, in.ReferenceID)
	}
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.RegisterMovementResponse{
		Movement: toMovementResponse(res.Movement),
		Applied:  toReconcileResponse(res.Applied),
	})
}

// RegisterAdjustment godoc
// @Summary      Registrar ajuste, merma, consumo o inventario inicial
// @Description  AJUSTE_MANUAL e INV_INICIAL fijan el conteo real; MERMA y CONSUMO descuentan.
//
//	diferido=true deja el movimiento PENDIENTE para conciliarlo o eliminarlo después.
//
// @Tags         inventario
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body      dto.AdjustmentRequest  true  "motivo, sentido (AJUSTE_MANUAL), lineas"
// @Success      201   {object}  dto.RegisterMovementResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Router       /api/inventario/movimientos [post]
func (h *InventoryHandler) RegisterAdjustment(c *fiber.Ctx) error {
	negocioID, userID := GetNegocioID(c), GetUserID(c)
	if negocioID == 0 || userID == 0 {
		return unauthorized(c)
	}
	var in dto.AdjustmentRequest
	if err := c.BodyParser(&in); err != nil {
		return invalidBody(c)
	}
	in.Reason = strings.ToUpper(strings.TrimSpace(in.Reason))
	in.Direction = strings.ToUpper(strings.TrimSpace(in.Direction))
	if err := dto.Validate(in); err != nil {
		return writeError(c, h.log, err)
	}
	lines := make([]ledger.LineInput, 0, len(in.Lines))
	for _, l := range in.Lines {
		lines = append(lines, ledger.LineInput{IngredientID: l.IngredientID, Quantity: l.Quantity, UnitCost: l.UnitCost, Supplier: l.Supplier})
	}
	res, err := h.register.RegisterAdjustment(c.UserContext(), inventory.AdjustmentInput{
		NegocioID:   negocioID,
		UserID:      userID,
		Direction:   entity.MovementDirection(in.Direction),
		Reason:      entity.MovementReason(in.Reason),
		ReferenceID: in.ReferenceID,
		ShiftKey:    h.shiftKey(c),
		Notes:       in.Notes,
		Deferred:    in.Deferred,
		Lines:       lines,
	})
	if errors.Is(err, domain.ErrAlreadyProcessed) {
		return h.alreadyRegistered(c, negocioID, in.ReferenceID)
	}
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.RegisterMovementResponse{
		Movement: toMovementResponse(res.Movement),
		Applied:  toReconcileResponse(res.Applied),
	})
}

// ListMovements godoc
// @Summary      Movimientos de una referencia
// @Tags         inventario
// @Security     Bearer
// @Produce      json
// @Param        referencia  query     string  true  "folio de la venta, compra o ajuste"
// @Success      200         {array}   dto.MovementResponse
// @Failure      400         {object}  dto.ErrorResponse
// @Router       /api/inventario/movimientos [get]
func (h *InventoryHandler) ListMovements(c *fiber.Ctx) error {
	negocioID := GetNegocioID(c)
	if negocioID == 0 {
		return unauthorized(c)
	}
	ref := strings.TrimSpace(c.Query("referencia"))
	if ref == "" {
		return writeError(c, h.log, domain.NewValidationError("referencia", "requerida"))
	}
	movs, err := h.movements.ListByReference(c.UserContext(), negocioID, ref)
	if err != nil {
		return writeError(c, h.log, err)
	}
	out := make([]dto.MovementResponse, 0, len(movs))
	for _, m := range movs {
		out = append(out, toMovementResponse(m))
	}
	return c.JSON(out)
}

// GetMovement godoc
// @Summary      Movimiento por ID con sus líneas
// @Tags         inventario
// @Security     Bearer
// @Produce      json
// @Param        id   path      int  true  "ID del movimiento"
// @Success      200  {object}  dto.MovementResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/inventario/movimientos/{id} [get]
func (h *InventoryHandler) GetMovement(c *fiber.Ctx) error {
	negocioID := GetNegocioID(c)
	if negocioID == 0 {
		return unauthorized(c)
	}
	id, err := paramID(c, "id", "movimiento_id")
	if err != nil {
		return writeError(c, h.log, err)
	}
	m, err := h.movements.Get(c.UserContext(), negocioID, id)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(toMovementResponse(m))
}

// CancelMovement godoc
// @Summary      Eliminar (lógicamente) un movimiento pendiente
// @Description  Cabecera y líneas pasan a ELIMINADO. Un movimiento PROCESADO no se puede eliminar.
// @Tags         inventario
// @Security     Bearer
// @Produce      json
// @Param        id   path      int  true  "ID del movimiento"
// @Success      200  {object}  dto.MovementResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/inventario/movimientos/{id} [delete]
func (h *InventoryHandler) CancelMovement(c *fiber.Ctx) error {
	negocioID := GetNegocioID(c)
	if negocioID == 0 {
		return unauthorized(c)
	}
	id, err := paramID(c, "id", "movimiento_id")
	if err != nil {
		return writeError(c, h.log, err)
	}
	m, err := h.movements.Cancel(c.UserContext(), negocioID, id)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(toMovementResponse(m))
}

// Reconcile godoc
// @Summary      Conciliar una referencia
// @Description  Aplica las líneas PENDIENTE de la referencia. Una referencia ya procesada responde
//
//	200 con ya_procesada=true.
//
// @Tags         inventario
// @Security     Bearer
// @Produce      json
// @Param        referencia  path      string  true  "folio"
// @Success      200         {object}  dto.ReconcileResponse
// @Failure      400         {object}  dto.ErrorResponse
// @Router       /api/inventario/conciliar/{referencia} [post]
func (h *InventoryHandler) Reconcile(c *fiber.Ctx) error {
	negocioID := GetNegocioID(c)
	if negocioID == 0 {
		return unauthorized(c)
	}
	ref := strings.TrimSpace(c.Params("referencia"))
	res, err := h.movements.Apply(c.UserContext(), negocioID, ref)
	if errors.Is(err, domain.ErrAlreadyProcessed) {
		return c.JSON(replayResponse(ref))
	}
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(toReconcileResponse(res))
}

// alreadyRegistered responde 200 con el movimiento conciliado de la referencia reintentada.
func (h *InventoryHandler) alreadyRegistered(c *fiber.Ctx, negocioID int64, ref string) error {
	movs, err := h.movements.ListByReference(c.UserContext(), negocioID, ref)
	if err != nil {
		return writeError(c, h.log, err)
	}
	for _, m := range movs {
		if m.Status == entity.StatusProcesado {
			return c.JSON(dto.RegisterMovementResponse{
				Movement: toMovementResponse(m),
				Applied:  replayResponse(ref),
			})
		}
	}
	return writeError(c, h.log, domain.ErrNotFound)
}

func replayResponse(ref string) *dto.ReconcileResponse {
	return &dto.ReconcileResponse{
		ReferenceID:      ref,
		AlreadyProcessed: true,
		Applied:          []dto.AppliedLineResponse{},
		SettledMovements: []int64{},
		Warnings:         []dto.NegativeStockResponse{},
	}
}

// LowStock godoc
// @Summary      Insumos bajo mínimo
// @Description  Insumos activos e inventariables por debajo de su existencia mínima con la
//
//	cantidad sugerida de compra, los más urgentes primero.
//
// @Tags         inventario
// @Security     Bearer
// @Produce      json
// @Success      200  {array}   dto.LowStockItemDTO
// @Failure      401  {object}  dto.ErrorResponse
// @Router       /api/inventario/stock-bajo [get]
func (h *InventoryHandler) LowStock(c *fiber.Ctx) error {
	negocioID := GetNegocioID(c)
	if negocioID == 0 {
		return unauthorized(c)
	}
	items, err := h.replenishment.LowStock(c.UserContext(), negocioID)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(toLowStockDTO(items))
}

// shiftKey clave del turno abierto del usuario; sin turno el folio se genera sin prefijo.
func (h *InventoryHandler) shiftKey(c *fiber.Ctx) string {
	sh, err := h.shifts.Current(c.UserContext(), GetNegocioID(c), GetUserID(c))
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			h.log.Warn().Err(err).Str("request_id", GetRequestID(c)).Msg("no se pudo leer el turno actual")
		}
		return ""
	}
	return sh.Key
}
