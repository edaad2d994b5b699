package http

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/jhoicas/marketplace-accounts/internal/application/accounts"
	"github.com/jhoicas/marketplace-accounts/internal/infrastructure/metrics"
	"github.com/jhoicas/marketplace-accounts/pkg/logger"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	Gate          *accounts.AuthorizationGate
	Provisioner   *accounts.Provisioner
	Deprovisioner *accounts.Deprovisioner
	Store         pinger              // readiness; nil = siempre listo
	Metrics       *metrics.Metrics    // nil = sin métricas HTTP
	Gatherer      prometheus.Gatherer // nil = sin /metrics
	Logger        *logger.Logger
	CORSOrigins   string // lista separada por comas; vacío = sin CORS
	RatePerSecond float64
	RateBurst     int
}

// NewApp crea la app Fiber con el manejador de errores JSON del servicio.
func NewApp(name string, bodyLimit int) *fiber.App {
	return fiber.New(fiber.Config{
		AppName:      name,
		BodyLimit:    bodyLimit,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
		ErrorHandler: ErrorHandler,
	})
}

// Router registra middlewares globales y las rutas del servicio.
func Router(app *fiber.App, deps RouterDeps) {
	log := deps.Logger
	if log == nil {
		log = logger.Nop()
	}
	var obs httpObserver
	if deps.Metrics != nil {
		obs = deps.Metrics
	}

	app.Use(recover.New())
	app.Use(RequestID())
	app.Use(AccessLog(log, obs))
	if deps.CORSOrigins != "" {
		app.Use(cors.New(cors.Config{
			AllowOrigins:  deps.CORSOrigins,
			AllowMethods:  "GET,POST,OPTIONS",
			AllowHeaders:  "Authorization, Content-Type, Idempotency-Key, X-Request-ID",
			ExposeHeaders: HeaderRequestID,
		}))
	}

	health := NewHealthHandler(deps.Store, log)
	app.Get("/health", health.Health)
	app.Get("/ready", health.Ready)
	if deps.Gatherer != nil {
		app.Get("/metrics", adaptor.HTTPHandler(metrics.Handler(deps.Gatherer)))
	}

	// Admin: método → rate limit → gate, en ese orden.
	admin := app.Group("/api/admin",
		RequireMethod(fiber.MethodPost),
		RateLimit(deps.RatePerSecond, deps.RateBurst),
		AdminGate(deps.Gate),
	)
	accountHandler := NewAccountHandler(deps.Provisioner, deps.Deprovisioner)
	admin.Post("/users/create", accountHandler.Create)
	admin.Post("/users/delete", accountHandler.Delete)
}
