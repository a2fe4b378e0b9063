package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/jhoicas/negocio-inventario/internal/application/inventory"
	"github.com/jhoicas/negocio-inventario/internal/application/recipe"
	"github.com/jhoicas/negocio-inventario/internal/application/shift"
	"github.com/jhoicas/negocio-inventario/internal/observability"
	"github.com/rs/zerolog"
)

// Roles reconocidos en el token.
const (
	RoleAdmin   = "admin"
	RoleGerente = "gerente"
	RoleCajero  = "cajero"
	RoleAlmacen = "almacen"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	SaleInventory    *inventory.SaleInventoryUseCase
	RegisterMovement *inventory.RegisterMovementUseCase
	Movements        *inventory.MovementUseCase
	Replenishment    *inventory.ReplenishmentUseCase
	Recipes          *recipe.UseCase
	Shifts           *shift.UseCase
	Metrics          *observability.Metrics // nil = sin /metrics
	JWTSecret        string
	ServiceName      string
	Log              zerolog.Logger
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": deps.ServiceName})
	})
	if deps.Metrics != nil {
		app.Get("/metrics", adaptor.HTTPHandler(deps.Metrics.Handler()))
	}

	// Rutas protegidas (requieren Bearer Token)
	api := app.Group("/api", AuthMiddleware(deps.JWTSecret))
	anyRole := RequireRole(RoleAdmin, RoleGerente, RoleCajero, RoleAlmacen)
	stockRoles := RequireRole(RoleAdmin, RoleGerente, RoleAlmacen)

	inv := NewInventoryHandler(deps.SaleInventory, deps.RegisterMovement, deps.Movements, deps.Replenishment, deps.Shifts, deps.Log)

	// Ventas: el flujo de venta descuenta inventario
	api.Post("/ventas/:id/inventario", anyRole, inv.ProcessSale)

	// Compras
	api.Post("/compras/inventario", stockRoles, inv.ReceivePurchase)

	// Libro de movimientos
	movs := api.Group("/inventario")
	movs.Post("/movimientos", stockRoles, inv.RegisterAdjustment)
	movs.Get("/movimientos", anyRole, inv.ListMovements)
	movs.Get("/movimientos/:id", anyRole, inv.GetMovement)
	movs.Delete("/movimientos/:id", stockRoles, inv.CancelMovement)
	movs.Post("/conciliar/:referencia", stockRoles, inv.Reconcile)
	movs.Get("/stock-bajo", stockRoles, inv.LowStock)

	// Recetas y subrecetas
	rec := NewRecipeHandler(deps.Recipes, deps.Log)
	api.Post("/recetas", stockRoles, rec.Create)
	api.Put("/recetas/:id", stockRoles, rec.Update)
	api.Get("/recetas/:id/costo", stockRoles, rec.Cost)
	api.Post("/subrecetas", stockRoles, rec.CreateSubrecipe)
	api.Put("/subrecetas/:id", stockRoles, rec.UpdateSubrecipe)

	// Turnos
	sh := NewShiftHandler(deps.Shifts, deps.Log)
	turnos := api.Group("/turnos", anyRole)
	turnos.Post("/abrir", sh.Open)
	turnos.Get("/actual", sh.Current)
	turnos.Post("/:id/cerrar", sh.Close)
}
