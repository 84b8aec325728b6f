package http

import (
	"os"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jhoicas/Apothecary-api/internal/application/auth"
	"github.com/jhoicas/Apothecary-api/internal/application/distribution"
	"github.com/jhoicas/Apothecary-api/internal/application/dto"
	"github.com/jhoicas/Apothecary-api/internal/application/inventory"
	"github.com/jhoicas/Apothecary-api/internal/application/procurement"
	"github.com/jhoicas/Apothecary-api/internal/application/usecase"
	"github.com/jhoicas/Apothecary-api/internal/domain/entity"
	"github.com/jhoicas/Apothecary-api/pkg/logger"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	AuthUC          *auth.AuthUseCase
	ProductUC       *usecase.ProductUseCase
	SupplierUC      *usecase.SupplierUseCase
	PurchaseOrderUC *procurement.PurchaseOrderUseCase
	ReceiptUC       *procurement.ReceiptUseCase
	DistributionUC  *distribution.UseCase
	MovementUC      *inventory.MovementUseCase
	Replenishment   *inventory.ReplenishmentUseCase
	NotificationUC  *usecase.NotificationUseCase
	UserUC          *usecase.UserUseCase
	JanAushadhiUC   *usecase.JanAushadhiUseCase
	AIUC            *usecase.AIUseCase

	OAuthProviders map[string]OAuthProvider
	NewOAuthState  func() (string, error)

	JWTSecret     string
	FrontendURL   string
	AuthRateLimit int // peticiones por minuto e IP en /api/auth; 0 usa 20
	Log           *logger.Logger
}

// AppConfig parámetros del servidor fiber.
type AppConfig struct {
	Name        string
	SwaggerFile string              // se monta /docs solo si el archivo existe
	Gatherer    prometheus.Gatherer // nil usa el registro por defecto
}

// NewApp crea la aplicación fiber con middlewares, /health, /metrics, /docs y las rutas /api.
func NewApp(cfg AppConfig, deps RouterDeps) *fiber.App {
	if deps.Log == nil {
		deps.Log = logger.Nop()
	}
	app := fiber.New(fiber.Config{
		AppName:      cfg.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 60,
		IdleTimeout:  time.Second * 60,
		BodyLimit:    8 << 20,
		ErrorHandler: fiberErrorHandler,
	})
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(RequestLogger(deps.Log.Named("http")))
	origins := deps.FrontendURL
	if origins == "" {
		origins = "*"
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins: origins,
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET,POST,PUT,PATCH,DELETE,OPTIONS",
	}))

	if cfg.SwaggerFile != "" {
		if _, err := os.Stat(cfg.SwaggerFile); err == nil {
			app.Use(swagger.New(swagger.Config{
				BasePath: "/",
				FilePath: cfg.SwaggerFile,
				Path:     "docs",
				Title:    "Apothecary API",
			}))
		}
	}

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": cfg.Name})
	})
	gatherer := cfg.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))

	Router(app, deps)
	return app
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	api := app.Group("/api")
	authn := AuthMiddleware(deps.JWTSecret)
	adminOnly := RequireRole(entity.RoleAdmin)

	// Auth: registro y login públicos con límite por IP.
	rate := deps.AuthRateLimit
	if rate <= 0 {
		rate = 20
	}
	authGroup := api.Group("/auth", limiter.New(limiter.Config{
		Max:        rate,
		Expiration: time.Minute,
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(dto.ErrorResponse{Code: "RATE_LIMITED", Message: "demasiadas peticiones, intente en un minuto"})
		},
	}))
	authHandler := NewAuthHandler(deps.AuthUC, deps.OAuthProviders, deps.NewOAuthState, deps.FrontendURL)
	authGroup.Post("/register", authHandler.Register)
	authGroup.Post("/login", authHandler.Login)
	authGroup.Get("/me", authn, authHandler.Me)
	authGroup.Get("/:provider", authHandler.OAuthBegin)
	authGroup.Get("/:provider/callback", authHandler.OAuthCallback)

	products := api.Group("/products", authn)
	productHandler := NewProductHandler(deps.ProductUC, deps.Replenishment)
	products.Get("/low-stock", productHandler.LowStock)
	products.Get("/expiring", productHandler.Expiring)
	products.Post("/", productHandler.Create)
	products.Get("/", productHandler.List)
	products.Get("/:id", productHandler.GetByID)
	products.Put("/:id", productHandler.Update)
	products.Delete("/:id", adminOnly, productHandler.Delete)

	suppliers := api.Group("/suppliers", authn)
	supplierHandler := NewSupplierHandler(deps.SupplierUC)
	suppliers.Post("/", supplierHandler.Create)
	suppliers.Get("/", supplierHandler.List)
	suppliers.Get("/:id", supplierHandler.GetByID)
	suppliers.Put("/:id", supplierHandler.Update)
	suppliers.Delete("/:id", adminOnly, supplierHandler.Delete)

	poHandler := NewPurchaseOrderHandler(deps.PurchaseOrderUC, deps.ReceiptUC)
	orders := api.Group("/purchase-orders", authn)
	orders.Post("/", poHandler.Create)
	orders.Get("/", poHandler.List)
	orders.Get("/:id", poHandler.GetByID)
	orders.Put("/:id", poHandler.Update)
	orders.Delete("/:id", poHandler.Delete)
	orders.Patch("/:id/status", poHandler.UpdateStatus)
	orders.Get("/:id/receipts", poHandler.Receipts)

	receipts := api.Group("/purchase-receipts", authn)
	receipts.Post("/", poHandler.CreateReceipt)
	receipts.Get("/", poHandler.ListReceipts)
	receipts.Get("/:id", poHandler.GetReceipt)

	distributions := api.Group("/distributions", authn)
	distHandler := NewDistributionHandler(deps.DistributionUC)
	distributions.Post("/", distHandler.Create)
	distributions.Get("/", distHandler.List)
	distributions.Get("/:id", distHandler.GetByID)
	distributions.Patch("/:id/status", distHandler.UpdateStatus)

	movements := api.Group("/stock-movements", authn)
	invHandler := NewInventoryHandler(deps.MovementUC)
	movements.Post("/", invHandler.Adjust)
	movements.Get("/", invHandler.List)
	movements.Get("/products/:id/reconcile", invHandler.Reconcile)
	movements.Get("/:id", invHandler.GetByID)

	notifications := api.Group("/notifications", authn)
	notifHandler := NewNotificationHandler(deps.NotificationUC)
	notifications.Get("/", notifHandler.List)
	notifications.Patch("/read-all", notifHandler.MarkAllRead)
	notifications.Patch("/:id/read", notifHandler.MarkRead)
	notifications.Delete("/:id", notifHandler.Delete)

	catalog := api.Group("/janaushadhi", authn)
	jaHandler := NewJanAushadhiHandler(deps.JanAushadhiUC)
	catalog.Get("/products", jaHandler.Search)
	catalog.Post("/import", jaHandler.Import)

	ai := api.Group("/ai", authn)
	aiHandler := NewAIHandler(deps.AIUC)
	ai.Post("/chat", aiHandler.Chat)
	ai.Post("/analyze-image", aiHandler.AnalyzeImage)

	users := api.Group("/users", authn, adminOnly)
	userHandler := NewUserHandler(deps.UserUC)
	users.Get("/", userHandler.List)
	users.Patch("/:id/role", userHandler.UpdateRole)
}
