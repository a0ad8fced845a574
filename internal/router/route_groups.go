package router

import (
	"github.com/gin-gonic/gin"

	"dinehub_backend/internal/handlers"
	"dinehub_backend/internal/middleware"
)

// Roles used in route guards. Kept as strings because gin middleware
// compares against JWT claim values.
const (
	roleOwner   = "owner"
	roleManager = "manager"
	roleStaff   = "staff"
)

// SetupAuthRoutes sets up the public authentication routes.
func SetupAuthRoutes(apiGroup *gin.RouterGroup, authHandler *handlers.AuthHandler) {
	authRoutes := apiGroup.Group("/auth")
	{
		authRoutes.POST("/register", authHandler.Register)
		authRoutes.POST("/login", authHandler.Login)
		authRoutes.POST("/refresh", authHandler.Refresh)

		authRequiredRoutes := authRoutes.Group("")
		authRequiredRoutes.Use(middleware.AuthMiddleware())
		{
			authRequiredRoutes.GET("/me", authHandler.Me)
		}
	}
}

// SetupRestaurantRoutes sets up restaurant profile, settings, onboarding,
// and agent channel routes.
func SetupRestaurantRoutes(tenantGroup *gin.RouterGroup, restaurantHandler *handlers.RestaurantHandler) {
	restaurantRoutes := tenantGroup.Group("/restaurant")
	{
		restaurantRoutes.GET("", restaurantHandler.GetRestaurant)
		restaurantRoutes.PUT("", middleware.RoleAuthMiddleware(roleOwner), restaurantHandler.UpdateRestaurant)

		settingsRoutes := restaurantRoutes.Group("/settings")
		{
			settingsRoutes.GET("", restaurantHandler.GetSettings)
			settingsRoutes.PUT("", middleware.RoleAuthMiddleware(roleOwner, roleManager), restaurantHandler.UpdateSettings)
			settingsRoutes.DELETE("/:key", middleware.RoleAuthMiddleware(roleOwner, roleManager), restaurantHandler.DeleteSetting)
		}

		onboardingRoutes := restaurantRoutes.Group("/onboarding")
		onboardingRoutes.Use(middleware.RoleAuthMiddleware(roleOwner, roleManager))
		{
			onboardingRoutes.GET("", restaurantHandler.GetOnboardingState)
			onboardingRoutes.PUT("", restaurantHandler.UpdateOnboardingState)
		}

		agentRoutes := restaurantRoutes.Group("/agent-channels")
		agentRoutes.Use(middleware.RoleAuthMiddleware(roleOwner, roleManager))
		{
			agentRoutes.POST("", restaurantHandler.CreateAgentChannel)
			agentRoutes.GET("", restaurantHandler.GetAgentChannels)
			agentRoutes.PUT("/:id", restaurantHandler.UpdateAgentChannel)
			agentRoutes.DELETE("/:id", restaurantHandler.DeleteAgentChannel)
		}
	}
}

// SetupCatalogRoutes sets up menu catalog routes. Reads are open to all
// staff; writes need manager or owner.
func SetupCatalogRoutes(tenantGroup *gin.RouterGroup, catalogHandler *handlers.CatalogHandler) {
	manage := middleware.RoleAuthMiddleware(roleOwner, roleManager)

	categoryRoutes := tenantGroup.Group("/categories")
	{
		categoryRoutes.GET("", catalogHandler.GetCategories)
		categoryRoutes.POST("", manage, catalogHandler.CreateCategory)
		categoryRoutes.PUT("/:id", manage, catalogHandler.UpdateCategory)
		categoryRoutes.DELETE("/:id", manage, catalogHandler.DeleteCategory)
	}

	menuItemRoutes := tenantGroup.Group("/menu-items")
	{
		menuItemRoutes.GET("", catalogHandler.GetMenuItems)
		menuItemRoutes.GET("/:id", catalogHandler.GetMenuItemByID)
		menuItemRoutes.POST("", manage, catalogHandler.CreateMenuItem)
		menuItemRoutes.PUT("/:id", manage, catalogHandler.UpdateMenuItem)
		menuItemRoutes.DELETE("/:id", manage, catalogHandler.DeleteMenuItem)
		menuItemRoutes.POST("/:id/option-groups", manage, catalogHandler.AttachOptionGroup)
		menuItemRoutes.DELETE("/:id/option-groups/:group_id", manage, catalogHandler.DetachOptionGroup)
	}

	optionGroupRoutes := tenantGroup.Group("/option-groups")
	{
		optionGroupRoutes.GET("", catalogHandler.GetOptionGroups)
		optionGroupRoutes.POST("", manage, catalogHandler.CreateOptionGroup)
		optionGroupRoutes.PUT("/:id", manage, catalogHandler.UpdateOptionGroup)
		optionGroupRoutes.DELETE("/:id", manage, catalogHandler.DeleteOptionGroup)
	}
}

// SetupOrderRoutes sets up the order lifecycle routes. Every staff role
// works the board.
func SetupOrderRoutes(tenantGroup *gin.RouterGroup, orderHandler *handlers.OrderHandler) {
	orderRoutes := tenantGroup.Group("/orders")
	orderRoutes.Use(middleware.RoleAuthMiddleware(roleOwner, roleManager, roleStaff))
	{
		orderRoutes.POST("", orderHandler.CreateOrder)
		orderRoutes.GET("", orderHandler.GetOrders)
		orderRoutes.GET("/board", orderHandler.GetOrderBoard)
		orderRoutes.GET("/:id", orderHandler.GetOrderByID)
		orderRoutes.POST("/:id/advance", orderHandler.AdvanceOrderStatus)
		orderRoutes.POST("/:id/cancel", orderHandler.CancelOrder)
		orderRoutes.GET("/:id/events", orderHandler.GetOrderEvents)
		orderRoutes.DELETE("/:id", middleware.RoleAuthMiddleware(roleOwner, roleManager), orderHandler.DeleteOrder)
	}
}

// SetupStaffRoutes sets up staff and invitation management routes.
func SetupStaffRoutes(tenantGroup *gin.RouterGroup, staffHandler *handlers.StaffHandler) {
	staffRoutes := tenantGroup.Group("/staff")
	staffRoutes.Use(middleware.RoleAuthMiddleware(roleOwner, roleManager))
	{
		staffRoutes.GET("", staffHandler.GetStaff)
		staffRoutes.PUT("/:id/role", staffHandler.UpdateStaffRole)
		staffRoutes.DELETE("/:id", staffHandler.DeactivateStaff)
	}

	invitationRoutes := tenantGroup.Group("/invitations")
	invitationRoutes.Use(middleware.RoleAuthMiddleware(roleOwner, roleManager))
	{
		invitationRoutes.POST("", staffHandler.InviteStaff)
		invitationRoutes.GET("", staffHandler.GetInvitations)
	}
}

// SetupRealtimeRoutes exposes the order event stream.
func SetupRealtimeRoutes(tenantGroup *gin.RouterGroup, realtimeHandler *handlers.RealtimeHandler) {
	tenantGroup.GET("/ws/orders", realtimeHandler.StreamOrders)
}
