// Package v1 provides HTTP API version 1.
package v1

import (
	"github.com/gin-gonic/gin"

	"fornada/internal/domain/auth"
	"fornada/internal/domain/catalogs/client"
	"fornada/internal/domain/catalogs/ingredient"
	"fornada/internal/domain/catalogs/product"
	"fornada/internal/domain/catalogs/recipe"
	"fornada/internal/domain/orders"
	"fornada/internal/domain/planning"
	"fornada/internal/domain/settings"
	"fornada/internal/domain/stock"
	"fornada/internal/infrastructure/http/v1/handlers"
	"fornada/internal/infrastructure/http/v1/middleware"
	"fornada/internal/infrastructure/storage/postgres"
	"fornada/internal/infrastructure/storage/postgres/catalog_repo"
	"fornada/internal/infrastructure/storage/postgres/order_repo"
	"fornada/internal/infrastructure/storage/postgres/stock_repo"
	"fornada/pkg/logger"
)

// RouterConfig holds router configuration.
type RouterConfig struct {
	// Pool is the database connection pool (health checks)
	Pool *postgres.Pool

	// TxManager runs repository calls and transactions
	TxManager *postgres.TxManager

	// Logger for request logging
	Logger *logger.Logger

	// JWTValidator for token validation
	JWTValidator middleware.JWTValidator

	// AuthService for authentication endpoints
	AuthService *auth.Service

	// Numberer hands out order numbers
	Numberer orders.Numberer
}

// NewRouter creates and configures the Gin router.
func NewRouter(cfg RouterConfig) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()

	// Global middleware (order matters!)
	router.Use(middleware.Recovery())
	router.Use(middleware.Trace())
	router.Use(middleware.Logger(cfg.Logger))
	router.Use(middleware.ErrorHandler())

	// Health endpoints (no auth required)
	healthHandler := handlers.NewHealthHandler(cfg.Pool)
	health := router.Group("/health")
	{
		health.GET("/live", healthHandler.Live)
		health.GET("/ready", healthHandler.Ready)
		health.GET("/info", healthHandler.Info)
	}

	// API v1
	v1 := router.Group("/api/v1")
	{
		registerAuthRoutes(v1, cfg)

		protected := v1.Group("")
		protected.Use(middleware.Auth(cfg.JWTValidator))

		registerAppRoutes(protected, cfg)
	}

	return router
}

// registerAuthRoutes registers authentication endpoints.
func registerAuthRoutes(rg *gin.RouterGroup, cfg RouterConfig) {
	if cfg.AuthService == nil {
		return
	}

	baseHandler := handlers.NewBaseHandler()
	authHandler := handlers.NewAuthHandler(baseHandler, cfg.AuthService)

	// Public auth endpoints (no JWT required)
	publicAuth := rg.Group("/auth")

	// Protected auth endpoints (JWT required)
	protectedAuth := rg.Group("/auth")
	protectedAuth.Use(middleware.Auth(cfg.JWTValidator))

	authHandler.RegisterRoutes(publicAuth, protectedAuth)
}

// registerAppRoutes builds the domain services and registers all
// business endpoints.
func registerAppRoutes(rg *gin.RouterGroup, cfg RouterConfig) {
	baseHandler := handlers.NewBaseHandler()
	txm := cfg.TxManager

	// Audit trail for orders and stock mutations. Failure to build the
	// compressor is not fatal; the API runs without audit.
	auditService, err := postgres.NewAuditService(txm)
	if err != nil {
		cfg.Logger.Warnw("audit service disabled", "error", err)
		auditService = nil
	}

	// Repositories
	ingredientRepo := catalog_repo.NewIngredientRepo(txm)
	recipeRepo := catalog_repo.NewRecipeRepo(txm)
	productRepo := catalog_repo.NewProductRepo(txm)
	clientRepo := catalog_repo.NewClientRepo(txm)
	stockRepo := stock_repo.NewStockRepo(txm)
	orderRepo := order_repo.NewOrderRepo(txm)
	settingsRepo := postgres.NewSettingsRepo(txm)

	// Services
	ingredientService := ingredient.NewService(ingredientRepo, txm)
	recipeService := recipe.NewService(recipeRepo, txm)
	productService := product.NewService(productRepo, txm)
	clientService := client.NewService(clientRepo, txm)
	stockService := stock.NewService(ingredientRepo, stockRepo, txm)
	planningService := planning.NewService(
		recipeRepo, productRepo, ingredientRepo, stockService, stockService, txm)
	settingsService := settings.NewService(settingsRepo)
	orderService := orders.NewService(
		orderRepo, productRepo, planningService, settingsService, cfg.Numberer, txm)

	// --- Catalogs ---
	catalogs := rg.Group("/catalog")
	{
		g := catalogs.Group("/ingredients")
		g.Use(requireForWrites(auth.PermManageIngredients))
		handlers.NewIngredientHandler(baseHandler, ingredientService).RegisterRoutes(g)
	}
	{
		g := catalogs.Group("/recipes")
		g.Use(requireForWrites(auth.PermManageRecipes))
		handlers.NewRecipeHandler(baseHandler, recipeService).RegisterRoutes(g)
	}
	{
		g := catalogs.Group("/products")
		g.Use(requireForWrites(auth.PermManageProducts))
		handlers.NewProductHandler(baseHandler, productService).RegisterRoutes(g)
	}
	{
		g := catalogs.Group("/clients")
		g.Use(requireForWrites(auth.PermManageClients))
		handlers.NewClientHandler(baseHandler, clientService).RegisterRoutes(g)
	}

	// --- Stock ---
	{
		g := rg.Group("/stock")
		g.Use(requireForWrites(auth.PermManageStock))
		handlers.NewStockHandler(baseHandler, stockService, auditService).RegisterRoutes(g)
	}

	// --- Orders ---
	{
		g := rg.Group("/orders")
		g.Use(requireForWrites(auth.PermManageOrders))
		handlers.NewOrderHandler(baseHandler, orderService, auditService).RegisterRoutes(g)
	}

	// --- Planning (read-only previews) ---
	{
		g := rg.Group("/planning")
		g.Use(middleware.RequireAnyPermission(
			auth.PermViewReports, auth.PermManageOrders, auth.PermManageStock))
		handlers.NewPlanningHandler(baseHandler, planningService).RegisterRoutes(g)
	}

	// --- Settings ---
	{
		g := rg.Group("/settings")
		g.Use(requireForWrites(auth.PermManageSettings))
		handlers.NewSettingsHandler(baseHandler, settingsService).RegisterRoutes(g)
	}
}

// requireForWrites checks the permission on mutating methods only;
// authenticated users may read everything.
func requireForWrites(permission string) gin.HandlerFunc {
	check := middleware.RequirePermission(permission)
	return func(c *gin.Context) {
		switch c.Request.Method {
		case "GET", "HEAD", "OPTIONS":
			c.Next()
		default:
			check(c)
		}
	}
}
