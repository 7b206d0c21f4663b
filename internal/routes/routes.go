package routes

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/linkvault/linkvault/internal/config"
	"github.com/linkvault/linkvault/internal/identity"
	"github.com/linkvault/linkvault/internal/middleware"
	"github.com/linkvault/linkvault/internal/notification"
	"github.com/linkvault/linkvault/internal/wallet"
)

// Deps aggregates shared dependencies required to wire routes.
type Deps struct {
	Cfg    config.Config
	DB     *pgxpool.Pool
	Cache  *redis.Client
	Logger *slog.Logger
}

// Setup configures middlewares and all application routes.
func Setup(app *fiber.App, d Deps) error {
	// Enforce DB/Redis presence outside of dev, even though main also checks.
	if !d.Cfg.IsDev() {
		if d.DB == nil {
			return fmt.Errorf("database is required when APP_ENV=%s", d.Cfg.AppEnv)
		}
		if d.Cache == nil {
			return fmt.Errorf("redis is required when APP_ENV=%s", d.Cfg.AppEnv)
		}
	}

	// Middlewares
	app.Use(recover.New())
	app.Use(middleware.RequestID())
	app.Use(logger.New(logger.Config{
		Format:     "[${time}] ${status} -  ${latency} ${method} ${path}\n",
		TimeFormat: "15:04:05",
		TimeZone:   "Local",
	}))

	// Health
	RegisterHealthRoutes(app, d)

	// Services and handlers
	var userStore identity.Store
	if d.DB != nil {
		userStore = identity.NewPostgresStore(d.DB)
	} else {
		userStore = identity.NewMemoryStore()
	}
	identitySvc := identity.NewService(userStore)
	notifier := notification.NewLoggerNotifier(d.Logger)
	walletSvc := wallet.NewService(userStore, notifier)

	identityHandler := identity.NewHandler(identitySvc)
	walletHandler := wallet.NewHandler(identitySvc, walletSvc)

	// API routes
	api := app.Group("/api/v1")
	api.Get("/ping", func(c *fiber.Ctx) error {
		reqID, _ := c.Locals("X-Request-ID").(string)
		return c.Status(http.StatusOK).JSON(fiber.Map{
			"status":     "ok",
			"request_id": reqID,
			"timestamp":  time.Now().UTC().Format(time.RFC3339Nano),
		})
	})

	// Every application route requires an externally authenticated principal.
	protected := api.Group("", middleware.Auth(d.Cfg), middleware.Audit(d.Logger))

	// Binds get replay and rate guards; reads and unconditional clears are
	// already idempotent and stay unguarded.
	var linkGuards []fiber.Handler
	if d.Cache != nil {
		linkGuards = append(linkGuards, middleware.Idempotency(d.Cache, d.Cfg.IdempotencyTTL, d.Logger))
	}
	linkGuards = append(linkGuards, middleware.LinkRateLimit(d.Cache, d.Cfg.LinkRatePerMin))

	RegisterUserRoutes(protected, identityHandler)
	RegisterWalletRoutes(protected, walletHandler, linkGuards...)

	return nil
}
