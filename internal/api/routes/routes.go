package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/sensei-service/sensei_service/internal/api/handlers"
	"github.com/sensei-service/sensei_service/internal/api/middleware"
	"github.com/sensei-service/sensei_service/internal/infrastructure/di"
	"github.com/sensei-service/sensei_service/pkg/tracing"
)

// SetupRoutes configures all application routes
func SetupRoutes(container *di.Container) *gin.Engine {
	router := gin.New()

	// Global middleware - order matters
	router.Use(tracing.HTTPMiddleware())
	router.Use(middleware.RequestID())
	router.Use(middleware.Metrics())
	router.Use(middleware.Logger(container.Logger))
	router.Use(middleware.Recovery(container.Logger))
	router.Use(middleware.CORS(container.Config.Server.AllowedOrigins))
	router.Use(middleware.RateLimit(container.Config.Server.RateLimitPerMin))
	router.Use(middleware.SecurityHeaders())

	healthHandlers := handlers.NewHealthHandlers(container.DB, container.Cache, container.Logger)
	authHandlers := handlers.NewAuthHandlers(container.UserService, container.Logger)
	userHandlers := handlers.NewUserHandlers(container.UserService, container.ProgressionService, container.Logger)
	portfolioHandlers := handlers.NewPortfolioHandlers(container.PortfolioService, container.Logger)
	tradeHandlers := handlers.NewTradeHandlers(container.TradingService, container.Logger)
	achievementHandlers := handlers.NewAchievementHandlers(container.ProgressionService, container.Logger)
	marketHandlers := handlers.NewMarketHandlers(container.MarketData, container.Logger)

	// Health checks and metrics (no auth required)
	router.GET("/health", healthHandlers.Health)
	router.GET("/ready", healthHandlers.Ready)
	router.GET("/live", healthHandlers.Live)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := router.Group("/api/v1")

	// Public routes
	auth := v1.Group("/auth")
	{
		auth.POST("/register", authHandlers.Register)
		auth.POST("/login", authHandlers.Login)
	}

	market := v1.Group("/market")
	{
		market.GET("/coins", marketHandlers.Markets)
		market.GET("/price", marketHandlers.Price)
		market.GET("/history/:coin_id", marketHandlers.History)
		market.GET("/search", marketHandlers.Search)
	}

	// Authenticated routes
	authenticated := v1.Group("")
	authenticated.Use(middleware.Authentication(container.Config.JWT.Secret, container.Logger))
	{
		user := authenticated.Group("/user")
		{
			user.GET("/profile", userHandlers.GetProfile)
			user.PUT("/profile", userHandlers.UpdateProfile)
			user.GET("/stats", userHandlers.GetStats)
			user.GET("/transactions", portfolioHandlers.History)
		}

		portfolios := authenticated.Group("/portfolios")
		{
			portfolios.POST("", portfolioHandlers.Create)
			portfolios.GET("", portfolioHandlers.List)
			portfolios.GET("/:id", portfolioHandlers.Get)
			portfolios.PUT("/:id", portfolioHandlers.Update)
			portfolios.DELETE("/:id", portfolioHandlers.Delete)
			portfolios.GET("/:id/performance", portfolioHandlers.Performance)
			portfolios.GET("/:id/transactions", portfolioHandlers.Transactions)
			portfolios.POST("/:id/trades", tradeHandlers.Execute)
		}

		achievements := authenticated.Group("/achievements")
		{
			achievements.GET("", achievementHandlers.GetCatalog)
			achievements.GET("/user-progress", achievementHandlers.GetProgress)
			achievements.POST("/sweep", achievementHandlers.Sweep)
		}
	}

	return router
}
