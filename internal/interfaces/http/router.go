package http

import (
	"context"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"

	"github.com/jhoicas/invorya-transformaciones/internal/application/dto"
	"github.com/jhoicas/invorya-transformaciones/internal/application/inventory"
	"github.com/jhoicas/invorya-transformaciones/internal/application/transformation"
	"github.com/jhoicas/invorya-transformaciones/internal/application/usecase"
	"github.com/jhoicas/invorya-transformaciones/pkg/jwt"
)

// RouterDeps dependencias para el router. Metrics y Ping son opcionales.
type RouterDeps struct {
	TemplateUC   *transformation.TemplateUseCase
	OrderUC      *transformation.OrderUseCase
	Orchestrator *transformation.Orchestrator
	StockQuery   *inventory.StockQueryUseCase
	AdjustStock  *inventory.AdjustStockUseCase
	WarehouseUC  *usecase.WarehouseUseCase
	ItemUC       *usecase.ItemUseCase
	JWTSecret    string
	Metrics      http.Handler
	Ping         func(ctx context.Context) error
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	app.Get("/health", healthHandler(deps.Ping))
	if deps.Metrics != nil {
		app.Get("/metrics", adaptor.HTTPHandler(deps.Metrics))
	}

	api := app.Group("/api")

	// Rutas protegidas (requieren Bearer Token)
	protected := api.Group("/", AuthMiddleware(deps.JWTSecret))
	anyRole := RequireRole(jwt.RoleAdmin, jwt.RoleSupervisor, jwt.RoleOperator)
	managers := RequireRole(jwt.RoleAdmin, jwt.RoleSupervisor)

	// Plantillas
	templates := protected.Group("/transformation-templates")
	templateHandler := NewTemplateHandler(deps.TemplateUC)
	templates.Get("/", anyRole, templateHandler.List)
	templates.Post("/", managers, templateHandler.Create)
	templates.Get("/:id", anyRole, templateHandler.GetByID)
	templates.Put("/:id", managers, templateHandler.Update)
	templates.Delete("/:id", managers, templateHandler.Deactivate)
	templates.Get("/:id/validate", anyRole, templateHandler.Validate)

	// Órdenes y ejecución
	orders := protected.Group("/transformation-orders")
	orderHandler := NewOrderHandler(deps.OrderUC, deps.Orchestrator)
	orders.Get("/", anyRole, orderHandler.List)
	orders.Post("/", anyRole, orderHandler.Create)
	orders.Get("/:id", anyRole, orderHandler.GetByID)
	orders.Delete("/:id", managers, orderHandler.Retire)
	orders.Post("/:id/transition", anyRole, orderHandler.Transition)
	orders.Get("/:id/validate-transition", anyRole, orderHandler.ValidateTransition)
	orders.Get("/:id/validate-stock", anyRole, orderHandler.ValidateStock)
	orders.Post("/:id/execute", managers, orderHandler.Execute)
	orders.Get("/:id/lineage", anyRole, orderHandler.Lineage)
	orders.Get("/:id/report.pdf", anyRole, orderHandler.Report)

	// Catálogo
	warehouses := protected.Group("/warehouses")
	warehouseHandler := NewWarehouseHandler(deps.WarehouseUC)
	warehouses.Post("/", managers, warehouseHandler.Create)
	warehouses.Get("/:id", anyRole, warehouseHandler.GetByID)

	items := protected.Group("/items")
	itemHandler := NewItemHandler(deps.ItemUC)
	items.Post("/", managers, itemHandler.Create)
	items.Get("/:id", anyRole, itemHandler.GetByID)

	// Stock
	stockHandler := NewStockHandler(deps.StockQuery)
	inventoryHandler := NewInventoryHandler(deps.AdjustStock)
	protected.Post("/stock/adjustments", managers, inventoryHandler.Adjust)
	protected.Get("/stock/:itemId", anyRole, stockHandler.GetBalance)
	protected.Get("/stock-transactions", anyRole, stockHandler.ListTransactions)
}

// healthHandler responde 200 si la base de datos (cuando hay) responde al ping.
func healthHandler(ping func(ctx context.Context) error) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if ping != nil {
			ctx, cancel := context.WithTimeout(c.Context(), 2*time.Second)
			defer cancel()
			if err := ping(ctx); err != nil {
				return c.Status(fiber.StatusServiceUnavailable).JSON(dto.ErrorResponse{Code: "UNAVAILABLE", Message: err.Error()})
			}
		}
		return c.JSON(fiber.Map{"status": "ok"})
	}
}
