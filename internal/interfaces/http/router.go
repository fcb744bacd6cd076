package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/ims-tenancy/internal/application/auth"
	"github.com/jhoicas/ims-tenancy/internal/application/tenant"
	"github.com/jhoicas/ims-tenancy/internal/application/usecase"
	"github.com/jhoicas/ims-tenancy/internal/domain/entity"
	"github.com/jhoicas/ims-tenancy/internal/domain/tenancy"
	"github.com/jhoicas/ims-tenancy/pkg/logger"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	TenantSvc *tenant.Service
	ProductUC *usecase.ProductUseCase
	StaffUC   *usecase.StaffUseCase
	ReportUC  *usecase.ReportUseCase
	AuthUC    *auth.AuthUseCase
	Resolver  *tenancy.Resolver
	Logger    *logger.Logger
	JWTSecret string
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	api := app.Group("/api")

	// Auth (público)
	authHandler := NewAuthHandler(deps.AuthUC)
	api.Post("/auth/login", authHandler.Login)

	// Rutas protegidas: Bearer Token + tenant resuelto
	protected := api.Group("/", AuthMiddleware(deps.JWTSecret, deps.Resolver, deps.Logger))
	protected.Put("/auth/password", authHandler.ChangeCredential)

	// Tenants: alta y baja solo superusuario; lectura y edición filtradas por tenant
	tenants := protected.Group("/tenants")
	tenantHandler := NewTenantHandler(deps.TenantSvc)
	tenants.Get("/", tenantHandler.List)
	tenants.Post("/", RequireSuperuser(), tenantHandler.Create)
	tenants.Get("/by-domain/:domain", tenantHandler.GetByDomain)
	tenants.Get("/:id", tenantHandler.GetByID)
	tenants.Put("/:id", RequireRole(entity.RoleAdmin), tenantHandler.Update)
	tenants.Delete("/:id", RequireSuperuser(), tenantHandler.Delete)

	// Products
	products := protected.Group("/products")
	productHandler := NewProductHandler(deps.ProductUC, deps.ReportUC)
	products.Get("/report.pdf", productHandler.Report)
	products.Post("/", productHandler.Create)
	products.Get("/", productHandler.List)
	products.Get("/:id", productHandler.GetByID)
	products.Put("/:id", productHandler.Update)
	products.Delete("/:id", productHandler.Delete)

	// Staff: gestión reservada al Admin del tenant
	staff := protected.Group("/staff", RequireRole(entity.RoleAdmin))
	staffHandler := NewStaffHandler(deps.StaffUC)
	staff.Post("/", staffHandler.Create)
	staff.Get("/", staffHandler.List)
	staff.Get("/:id", staffHandler.GetByID)
	staff.Put("/:id", staffHandler.Update)
	staff.Delete("/:id", staffHandler.Delete)
}
