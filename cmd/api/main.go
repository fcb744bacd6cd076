package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/jhoicas/ims-tenancy/internal/application/auth"
	"github.com/jhoicas/ims-tenancy/internal/application/tenant"
	"github.com/jhoicas/ims-tenancy/internal/application/usecase"
	"github.com/jhoicas/ims-tenancy/internal/bootstrap"
	"github.com/jhoicas/ims-tenancy/internal/domain/tenancy"
	"github.com/jhoicas/ims-tenancy/internal/infrastructure/cache"
	infrapdf "github.com/jhoicas/ims-tenancy/internal/infrastructure/pdf"
	"github.com/jhoicas/ims-tenancy/internal/infrastructure/security"
	httpRouter "github.com/jhoicas/ims-tenancy/internal/interfaces/http"
	"github.com/jhoicas/ims-tenancy/pkg/config"
	"github.com/jhoicas/ims-tenancy/pkg/logger"
	"github.com/jhoicas/ims-tenancy/pkg/metrics"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: cfg.App.LogLevel,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Str("store", cfg.App.StoreDriver).
		Msg("iniciando aplicación")

	if cfg.JWT.Secret == "" {
		log.Fatal().Msg("JWT_SECRET es requerido")
	}

	ctx := context.Background()
	m := metrics.New(cfg.Metrics.Namespace)
	hasher := security.NewBcryptHasher(0)

	store, err := bootstrap.OpenStore(ctx, cfg, hasher, m, true, log)
	if err != nil {
		log.Fatal().Err(err).Msg("abrir almacén")
	}
	defer store.Close()
	db := store.DB

	// Directorio de tenants activos: Redis delante del almacén si está configurado
	var directory cache.Directory = cache.NewStoreDirectory(db)
	if cfg.Redis.Enabled() {
		rdb := cache.NewRedisClient(cfg.Redis)
		defer rdb.Close()
		if err := cache.Ping(ctx, rdb); err != nil {
			log.Warn().Err(err).Str("addr", cfg.Redis.Addr).Msg("Redis no disponible; se consultará el almacén")
		}
		directory = cache.NewRedisDirectory(rdb, directory, cfg.Redis.TenantTTL, log)
	}

	resolver := tenancy.NewResolver(
		tenancy.WithDirectory(directory),
		tenancy.WithResolutionObserver(m),
	)
	tenantSvc := tenant.NewService(db,
		tenant.WithDirectory(directory),
		tenant.WithObserver(m),
		tenant.WithLogger(log),
	)
	productUC := usecase.NewProductUseCase(db)
	staffUC := usecase.NewStaffUseCase(db, log)

	// PDF: reporte de inventario del tenant
	pdfGenerator := infrapdf.NewMarotoPDFGenerator()
	reportUC := usecase.NewReportUseCase(db, pdfGenerator)
	authUC := auth.NewAuthUseCase(db, hasher, auth.JWTConfig{
		Secret:     cfg.JWT.Secret,
		ExpMinutes: cfg.JWT.Expiration,
		Issuer:     cfg.JWT.Issuer,
	})

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 10,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())
	app.Use(m.Middleware())

	// Swagger UI en local: http://localhost:<port>/docs
	app.Use(swagger.New(swagger.Config{
		BasePath: "/",
		FilePath: "./docs/swagger.json",
		Path:     "docs",
		Title:    "IMS Tenancy API",
	}))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": cfg.App.Name})
	})
	app.Get("/metrics", m.Handler())

	httpRouter.Router(app, httpRouter.RouterDeps{
		TenantSvc: tenantSvc,
		ProductUC: productUC,
		StaffUC:   staffUC,
		ReportUC:  reportUC,
		AuthUC:    authUC,
		Resolver:  resolver,
		Logger:    log,
		JWTSecret: cfg.JWT.Secret,
	})

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("señal de apagado recibida, cerrando servidor...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}

	log.Info().Msg("aplicación detenida")
}
