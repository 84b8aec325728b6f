// Command worker procesa la cola de correos y ejecuta el escaneo periódico de stock y vencimientos.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/bsm/redislock"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/hibiken/asynq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jhoicas/Apothecary-api/internal/application/inventory"
	"github.com/jhoicas/Apothecary-api/internal/application/usecase"
	"github.com/jhoicas/Apothecary-api/internal/infrastructure/cache"
	"github.com/jhoicas/Apothecary-api/internal/infrastructure/mail"
	"github.com/jhoicas/Apothecary-api/internal/infrastructure/metrics"
	"github.com/jhoicas/Apothecary-api/internal/infrastructure/postgres"
	"github.com/jhoicas/Apothecary-api/internal/infrastructure/queue"
	"github.com/jhoicas/Apothecary-api/pkg/config"
	"github.com/jhoicas/Apothecary-api/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: cfg.App.LogLevel,
	}).Named("worker")

	if cfg.Redis.Addr == "" {
		log.Fatal().Msg("REDIS_ADDR es obligatorio para el worker")
	}
	if cfg.App.StorageDriver == "memory" {
		log.Fatal().Msg("el worker necesita PostgreSQL; STORAGE_DRIVER=memory no comparte datos con la API")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a PostgreSQL")
	}
	defer pool.Close()

	rdb, err := cache.NewRedis(ctx, cfg.Redis)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a Redis")
	}
	defer rdb.Close()

	redisOpt := asynq.RedisClientOpt{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB}
	client := queue.NewClient(redisOpt)
	defer client.Close()

	productRepo := postgres.NewProductRepository(pool)
	notifRepo := postgres.NewNotificationRepository(pool)
	userRepo := postgres.NewUserRepository(pool)

	scanner := inventory.NewStockScanUseCase(
		productRepo, notifRepo, userRepo,
		usecase.NewNotificationUseCase(notifRepo, log),
		client,
		inventory.NewReplenishmentUseCase(productRepo, cfg.Jobs.ExpiryWarningDays),
		log.Named("stock-scan"),
	)
	if !cfg.Email.Enabled() {
		log.Warn().Msg("SMTP sin configurar: los correos solo se registran en el log")
	}
	handlers := queue.NewHandlers(
		mail.New(cfg.Email, log.Named("mail")),
		scanner,
		redislock.New(rdb),
		metrics.NewJobs(prometheus.DefaultRegisterer),
		log,
	)

	w, err := queue.NewWorker(queue.WorkerConfig{
		Redis:         redisOpt,
		Concurrency:   cfg.Jobs.Concurrency,
		StockScanCron: cfg.Jobs.StockScanCron,
		Handlers:      handlers,
		Log:           log,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("crear worker")
	}

	if cfg.Jobs.MetricsAddr != "" {
		metricsApp := fiber.New(fiber.Config{DisableStartupMessage: true})
		metricsApp.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))
		go func() {
			if err := metricsApp.Listen(cfg.Jobs.MetricsAddr); err != nil {
				log.Error().Err(err).Msg("endpoint de métricas finalizado")
			}
		}()
		defer func() { _ = metricsApp.Shutdown() }()
	}

	log.Info().
		Str("cron", cfg.Jobs.StockScanCron).
		Int("concurrency", cfg.Jobs.Concurrency).
		Msg("worker iniciado")
	if err := w.Run(ctx); err != nil {
		log.Error().Err(err).Msg("worker finalizado con error")
		return
	}
	log.Info().Msg("worker detenido")
}
