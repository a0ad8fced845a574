package router

import (
	"database/sql"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"dinehub_backend/internal/handlers"
	"dinehub_backend/internal/middleware"
	"dinehub_backend/internal/realtime"
	"dinehub_backend/internal/repositories"
	"dinehub_backend/internal/services"
)

// Setup wires repositories, services, and handlers onto the engine.
func Setup(engine *gin.Engine, db *sql.DB, hub *realtime.Hub) {
	// Initialize Repositories
	authRepo := repositories.NewAuthRepository(db)
	staffRepo := repositories.NewStaffRepository(db)
	restaurantRepo := repositories.NewRestaurantRepository(db)
	catalogRepo := repositories.NewCatalogRepository(db)
	customerRepo := repositories.NewCustomerRepository(db)
	orderRepo := repositories.NewOrderRepository(db)

	// Initialize Services
	authService := services.NewAuthService(authRepo, staffRepo, db)
	staffService := services.NewStaffService(staffRepo, authRepo, db)
	restaurantService := services.NewRestaurantService(restaurantRepo, staffRepo, db)
	catalogService := services.NewCatalogService(catalogRepo, db)
	orderService := services.NewOrderService(orderRepo, catalogRepo, customerRepo, restaurantRepo, hub, db)

	// Initialize Handlers
	authHandler := handlers.NewAuthHandler(authService)
	staffHandler := handlers.NewStaffHandler(staffService)
	restaurantHandler := handlers.NewRestaurantHandler(restaurantService)
	catalogHandler := handlers.NewCatalogHandler(catalogService)
	orderHandler := handlers.NewOrderHandler(orderService)
	realtimeHandler := handlers.NewRealtimeHandler(hub)

	engine.GET("/healthz", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})
	engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	apiV1 := engine.Group("/api/v1")

	// Public authentication routes.
	SetupAuthRoutes(apiV1, authHandler)

	// Routes that need a valid user but no restaurant scope yet.
	authenticated := apiV1.Group("")
	authenticated.Use(middleware.AuthMiddleware())
	{
		authenticated.POST("/restaurants", restaurantHandler.CreateRestaurant)
		authenticated.POST("/invitations/:token/accept", staffHandler.AcceptInvitation)
	}

	// Tenant-scoped routes.
	tenant := apiV1.Group("")
	tenant.Use(middleware.AuthMiddleware(), middleware.RequireRestaurant())
	{
		SetupRestaurantRoutes(tenant, restaurantHandler)
		SetupCatalogRoutes(tenant, catalogHandler)
		SetupOrderRoutes(tenant, orderHandler)
		SetupStaffRoutes(tenant, staffHandler)
		SetupRealtimeRoutes(tenant, realtimeHandler)
	}
}
