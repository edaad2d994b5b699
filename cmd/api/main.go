package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/redis/go-redis/v9"

	"github.com/jhoicas/marketplace-accounts/internal/application/accounts"
	"github.com/jhoicas/marketplace-accounts/internal/application/ports"
	"github.com/jhoicas/marketplace-accounts/internal/infrastructure/cache"
	"github.com/jhoicas/marketplace-accounts/internal/infrastructure/events"
	"github.com/jhoicas/marketplace-accounts/internal/infrastructure/identity"
	"github.com/jhoicas/marketplace-accounts/internal/infrastructure/metrics"
	"github.com/jhoicas/marketplace-accounts/internal/infrastructure/postgres"
	httpRouter "github.com/jhoicas/marketplace-accounts/internal/interfaces/http"
	"github.com/jhoicas/marketplace-accounts/pkg/config"
	"github.com/jhoicas/marketplace-accounts/pkg/logger"

	_ "github.com/jhoicas/marketplace-accounts/docs"
)

// @title                       Marketplace Accounts API
// @version                     1.0
// @description                 Alta y baja administrativa de cuentas (identidad + perfil).
// @BasePath                    /
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
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
		Msg("iniciando aplicación")

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a PostgreSQL")
	}
	defer pool.Close()

	profileRepo := postgres.NewProfileRepository(pool)
	idClient := identity.NewClient(cfg.Identity.URL, cfg.Identity.ServiceKey, cfg.Identity.Timeout)

	// Verificación de tokens: local con el secreto compartido si está configurado,
	// si no contra GET /user del Identity Service.
	var verifier ports.TokenVerifier = idClient
	if cfg.Identity.LocalVerification() {
		verifier = identity.NewJWTVerifier(cfg.Identity.JWTSecret)
		log.Info().Msg("verificación local de tokens (HS256)")
	}

	// Idempotencia opcional sobre Redis.
	var idem ports.IdempotencyStore
	var redisClient *redis.Client
	if cfg.Redis.URL != "" {
		redisClient, err = cache.Connect(ctx, cfg.Redis.URL)
		if err != nil {
			log.Warn().Err(err).Msg("Redis no disponible; idempotencia desactivada")
		} else {
			idem = cache.NewIdempotencyStore(redisClient, cfg.Redis.IdempotencyTTL)
		}
	}

	// Eventos de cuenta: Kafka si hay brokers, si no solo log.
	var publisher ports.AccountEventPublisher = events.NewLogPublisher(log.Named("events"))
	var kafkaPublisher *events.KafkaPublisher
	if len(cfg.Kafka.Brokers) > 0 {
		kafkaPublisher, err = events.NewKafkaPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		if err != nil {
			log.Fatal().Err(err).Msg("publicador Kafka")
		}
		publisher = kafkaPublisher
	}

	reg := metrics.NewRegistry()
	m := metrics.New(reg)

	admins := accounts.NewAdminPredicate(profileRepo)
	gate := accounts.NewAuthorizationGate(verifier, admins, log.Named("gate"))
	provisioner := accounts.NewProvisioner(idClient, profileRepo, idem, publisher, m, log.Named("provisioner"))
	deprovisioner := accounts.NewDeprovisioner(idClient, profileRepo, admins, publisher, m, log.Named("deprovisioner"))

	app := httpRouter.NewApp(cfg.App.Name, cfg.HTTP.BodyLimit)

	// Swagger UI en local: http://localhost:<port>/docs
	app.Use(swagger.New(swagger.Config{
		BasePath: "/",
		FilePath: "./docs/swagger.json",
		Path:     "docs",
		Title:    "Marketplace Accounts API",
	}))

	httpRouter.Router(app, httpRouter.RouterDeps{
		Gate:          gate,
		Provisioner:   provisioner,
		Deprovisioner: deprovisioner,
		Store:         profileRepo,
		Metrics:       m,
		Gatherer:      reg,
		Logger:        log.Named("http"),
		CORSOrigins:   cfg.HTTP.CORSOrigins,
		RatePerSecond: cfg.RateLimit.PerSecond,
		RateBurst:     cfg.RateLimit.Burst,
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
	if kafkaPublisher != nil {
		if err := kafkaPublisher.Close(); err != nil {
			log.Error().Err(err).Msg("cierre del publicador Kafka")
		}
	}
	if redisClient != nil {
		if err := redisClient.Close(); err != nil {
			log.Error().Err(err).Msg("cierre de Redis")
		}
	}

	log.Info().Msg("aplicación detenida")
}
