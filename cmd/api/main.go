package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"github.com/jhoicas/Apothecary-api/internal/application/auth"
	"github.com/jhoicas/Apothecary-api/internal/application/distribution"
	"github.com/jhoicas/Apothecary-api/internal/application/inventory"
	"github.com/jhoicas/Apothecary-api/internal/application/ports"
	"github.com/jhoicas/Apothecary-api/internal/application/procurement"
	"github.com/jhoicas/Apothecary-api/internal/application/usecase"
	infraai "github.com/jhoicas/Apothecary-api/internal/infrastructure/ai"
	"github.com/jhoicas/Apothecary-api/internal/infrastructure/cache"
	"github.com/jhoicas/Apothecary-api/internal/infrastructure/janaushadhi"
	"github.com/jhoicas/Apothecary-api/internal/infrastructure/metrics"
	"github.com/jhoicas/Apothecary-api/internal/infrastructure/oauth"
	"github.com/jhoicas/Apothecary-api/internal/infrastructure/queue"
	httpRouter "github.com/jhoicas/Apothecary-api/internal/interfaces/http"
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
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Str("storage", cfg.App.StorageDriver).
		Msg("iniciando aplicación")

	ctx := context.Background()
	store, err := openStorage(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("almacenamiento")
	}
	defer store.close()

	// Redis es opcional: sin él no hay cola de correos ni caché del catálogo.
	var (
		rdb      *redis.Client
		enqueuer ports.TaskEnqueuer = ports.NopEnqueuer{}
	)
	if cfg.Redis.Addr != "" {
		rdb, err = cache.NewRedis(ctx, cfg.Redis)
		if err != nil {
			log.Warn().Err(err).Msg("redis no disponible; correos y caché desactivados")
		} else {
			defer rdb.Close()
			client := queue.NewClient(asynq.RedisClientOpt{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
			defer client.Close()
			enqueuer = client
		}
	}

	var catalog ports.CatalogService = janaushadhi.NewClient(cfg.JanAushadhi.BaseURL)
	if rdb != nil {
		ttl := time.Duration(cfg.JanAushadhi.CacheTTLMinutes) * time.Minute
		catalog = janaushadhi.NewCachedCatalog(catalog, rdb, ttl, log.Named("janaushadhi"))
	}

	assistant, err := infraai.NewAssistant(cfg.AI)
	if err != nil {
		log.Fatal().Err(err).Msg("asistente IA")
	}

	workflow := metrics.NewWorkflow(nil)
	notificationUC := usecase.NewNotificationUseCase(store.notifications, log.Named("notifications"))
	productUC := usecase.NewProductUseCase(store.products, store.suppliers, store.tx, workflow)
	authUC := auth.NewAuthUseCase(store.users, auth.JWTConfig{
		Secret:     cfg.JWT.Secret,
		ExpMinutes: cfg.JWT.Expiration,
		Issuer:     cfg.JWT.Issuer,
	}, enqueuer, log.Named("auth"))

	providers := make(map[string]httpRouter.OAuthProvider)
	for name, p := range oauth.NewProviders(cfg.OAuth) {
		providers[name] = p
		log.Info().Str("provider", name).Msg("OAuth habilitado")
	}

	app := httpRouter.NewApp(httpRouter.AppConfig{
		Name:        cfg.App.Name,
		SwaggerFile: "./docs/swagger.json",
	}, httpRouter.RouterDeps{
		AuthUC:          authUC,
		ProductUC:       productUC,
		SupplierUC:      usecase.NewSupplierUseCase(store.suppliers),
		PurchaseOrderUC: procurement.NewPurchaseOrderUseCase(store.tx, store.orders, store.suppliers, store.products, notificationUC, workflow, log.Named("procurement")),
		ReceiptUC:       procurement.NewReceiptUseCase(store.tx, store.orders, store.receipts, notificationUC, workflow, log.Named("procurement")),
		DistributionUC:  distribution.NewUseCase(store.tx, store.distributions, notificationUC, workflow, log.Named("distribution")),
		MovementUC:      inventory.NewMovementUseCase(store.tx, store.movements, store.products, notificationUC, workflow, log.Named("inventory")),
		Replenishment:   inventory.NewReplenishmentUseCase(store.products, cfg.Jobs.ExpiryWarningDays),
		NotificationUC:  notificationUC,
		UserUC:          usecase.NewUserUseCase(store.users),
		JanAushadhiUC:   usecase.NewJanAushadhiUseCase(catalog, productUC),
		AIUC:            usecase.NewAIUseCase(assistant),
		OAuthProviders:  providers,
		NewOAuthState:   oauth.NewState,
		JWTSecret:       cfg.JWT.Secret,
		FrontendURL:     cfg.App.FrontendURL,
		Log:             log,
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
