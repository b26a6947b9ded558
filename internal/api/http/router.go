package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/edgepredict/simulation-service/internal/api/http/handlers"
	"github.com/edgepredict/simulation-service/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Auth           *handlers.AuthHandler
	Simulations    *handlers.SimulationsHandler
	Tools          *handlers.ToolsHandler
	Materials      *handlers.MaterialsHandler
	Admin          *handlers.AdminHandler
	AccessRequests *handlers.AccessRequestsHandler
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	authGroup := app.Group("/auth")
	authGroup.Post("/register", cfg.Auth.Register)
	authGroup.Post("/login", cfg.Auth.Login)
	authGroup.Post("/password/reset/request", cfg.Auth.RequestPasswordReset)
	authGroup.Post("/password/reset/confirm", cfg.Auth.ConfirmPasswordReset)

	app.Post("/access-requests", cfg.AccessRequests.Submit)

	protected := app.Group("", cfg.AuthMiddleware.Handle, auth.RequireActiveSubscription())

	simulations := protected.Group("/simulations")
	simulations.Post("", cfg.Simulations.Submit)
	simulations.Get("", cfg.Simulations.List)
	simulations.Get("/:id", cfg.Simulations.Get)
	simulations.Delete("/:id", cfg.Simulations.Delete)
	simulations.Get("/:id/progress", cfg.Simulations.Progress)
	simulations.Post("/:id/analyze", cfg.Simulations.Analyze)

	tools := protected.Group("/tools")
	tools.Post("", cfg.Tools.Create)
	tools.Get("", cfg.Tools.List)
	tools.Get("/:id", cfg.Tools.Get)
	tools.Get("/:id/file", cfg.Tools.Download)
	tools.Delete("/:id", cfg.Tools.Delete)

	materials := protected.Group("/materials")
	materials.Post("", cfg.Materials.Create)
	materials.Get("", cfg.Materials.List)
	materials.Delete("/:id", cfg.Materials.Delete)

	admin := app.Group("/admin", cfg.AuthMiddleware.Handle, auth.RequireAdmin())
	admin.Get("/users", cfg.Admin.ListUsers)
	admin.Post("/users", cfg.Admin.CreateUser)
	admin.Patch("/users/:id", cfg.Admin.UpdateUser)
	admin.Delete("/users/:id", cfg.Admin.DeleteUser)
	admin.Post("/users/:id/password-reset", cfg.Admin.ResetUserPassword)
	admin.Get("/access-requests", cfg.Admin.ListAccessRequests)
	admin.Post("/access-requests/:id/approve", cfg.Admin.ApproveAccessRequest)
	admin.Post("/access-requests/:id/reject", cfg.Admin.RejectAccessRequest)
}
