package api

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	echoswagger "github.com/swaggo/echo-swagger"
	"github.com/uptrace/bun"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/stockroom/inventory-api/internal/api/handler"
	"github.com/stockroom/inventory-api/internal/api/middleware"
	"github.com/stockroom/inventory-api/internal/core/domain"
	"github.com/stockroom/inventory-api/internal/core/ports"
	"github.com/stockroom/inventory-api/internal/core/service"
	"github.com/stockroom/inventory-api/internal/infrastructure/config"
	mongorepo "github.com/stockroom/inventory-api/internal/infrastructure/db/mongo"
	"github.com/stockroom/inventory-api/internal/infrastructure/db/postgres"
	redisrepo "github.com/stockroom/inventory-api/internal/infrastructure/db/redis"
)

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(pg *bun.DB, mdb *mongo.Database, rdb *redis.Client, mailer ports.Mailer, cfg *config.Config, log zerolog.Logger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(log)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(echoprometheus.NewMiddleware("inventory"))

	// --- Dependencies ---
	userRepo := postgres.NewUserRepository(pg)
	categoryRepo := postgres.NewCategoryRepository(pg)
	productRepo := mongorepo.NewProductRepository(mdb)
	cache := redisrepo.NewCache(rdb)

	tokens := service.NewTokenIssuer(cfg.JWTSecret)
	userService := service.NewUserService(userRepo, tokens, mailer, cfg.BaseURL, log)
	productService := service.NewProductService(productRepo, cache, log)
	categoryService := service.NewCategoryService(categoryRepo, log)

	userHandler := handler.NewUserHandler(userService)
	productHandler := handler.NewProductHandler(productService)
	categoryHandler := handler.NewCategoryHandler(categoryService)

	auth := middleware.Auth(cfg.JWTSecret)
	readAccess := middleware.RBAC(domain.RoleAdmin, domain.RoleManager, domain.RoleViewer)
	manageAccess := middleware.RBAC(domain.RoleAdmin, domain.RoleManager)
	adminAccess := middleware.RBAC(domain.RoleAdmin)

	// --- Auth routes ---
	e.POST("/auth/register", userHandler.Register, middleware.OptionalAuth(cfg.JWTSecret))
	e.POST("/auth/login", userHandler.Login)
	e.GET("/auth/confirm-email", userHandler.ConfirmEmail)

	// --- User administration (admin only) ---
	users := e.Group("/users", auth, adminAccess)
	users.GET("", userHandler.List)
	users.GET("/:id", userHandler.Get)
	users.PUT("/role", userHandler.UpdateRole)
	users.PUT("/:id", userHandler.Update)
	users.DELETE("/:id", userHandler.Delete)

	// --- Products ---
	products := e.Group("/products", auth)
	products.GET("", productHandler.List, readAccess)
	products.GET("/:id", productHandler.Get, readAccess)
	products.POST("", productHandler.Create, manageAccess)
	products.PUT("/:id", productHandler.Update, manageAccess)
	products.DELETE("/:id", productHandler.Delete, manageAccess)

	// --- Categories ---
	categories := e.Group("/categories", auth)
	categories.GET("", categoryHandler.List, readAccess)
	categories.GET("/:id", categoryHandler.Get, readAccess)
	categories.POST("", categoryHandler.Create, adminAccess)
	categories.PUT("/:id", categoryHandler.Update, adminAccess)
	categories.DELETE("/:id", categoryHandler.Delete, adminAccess)

	// --- Health probes (no auth required) ---
	healthHandler := handler.NewHealthHandler()
	readinessHandler := handler.NewReadinessHandler(pg, mdb, rdb)

	e.GET("/health", healthHandler.Liveness)          // liveness: is the process alive?
	e.GET("/health/ready", readinessHandler.Readiness) // readiness: are dependencies up?

	// --- Observability and docs ---
	e.GET("/metrics", echoprometheus.NewHandler())
	e.GET("/swagger/*", echoswagger.WrapHandler)

	return e
}
