package server

import (
	"backoffice/internal/authz"
	"backoffice/internal/config"
	"backoffice/internal/handler"
	"backoffice/internal/middleware"
	"backoffice/internal/repository"

	"github.com/labstack/echo/v4"
)

type Deps struct {
	Users    repository.UserRepository
	Resolver middleware.CapabilityChecker

	Auth       *handler.AuthHandler
	Health     *handler.HealthHandler
	Orders     *handler.AdminOrderHandler
	Products   *handler.AdminProductHandler
	Categories *handler.CategoryHandler
	Invoices   *handler.InvoiceHandler
	Reviews    *handler.ReviewHandler
	UsersAdmin *handler.AdminUserHandler
	Addresses  *handler.AddressHandler
	Dashboard  *handler.DashboardHandler
	AuditLogs  *handler.AuditLogHandler
}

func RegisterRoutes(e *echo.Echo, cfg config.Config, d Deps) {
	requireAuth := middleware.AuthSession(cfg, d.Users)

	d.Health.RegisterRoutes(e)
	d.Auth.RegisterRoutes(e, requireAuth)

	// /admin 配下は全部「ログイン必須 + 何らかの権限あり」
	admin := e.Group("/admin", requireAuth, middleware.RequireBackoffice(d.Resolver))
	guard := func(c authz.Capability) echo.MiddlewareFunc {
		return middleware.RequireCapability(d.Resolver, c)
	}

	d.Orders.RegisterRoutes(admin, guard)
	d.Products.RegisterRoutes(admin, guard)
	d.Categories.RegisterRoutes(admin, guard)
	d.Invoices.RegisterRoutes(admin, guard)
	d.Reviews.RegisterRoutes(admin, guard)
	d.UsersAdmin.RegisterRoutes(admin, guard)
	d.Addresses.RegisterRoutes(admin, guard)
	d.Dashboard.RegisterRoutes(admin, guard)
	d.AuditLogs.RegisterRoutes(admin, guard)
}
