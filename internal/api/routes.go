package api

import (
	"fitformula/api/internal/service"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// NewRouter builds the gin engine. Only the listed proxies may set the client
// address through X-Forwarded-For; with none, ClientIP is the TCP peer.
// The anonymous free trial is keyed on ClientIP.
func NewRouter(trustedProxies []string) (*gin.Engine, error) {
	router := gin.New()
	router.Use(gin.Recovery())
	if err := router.SetTrustedProxies(trustedProxies); err != nil {
		return nil, fmt.Errorf("invalid trusted proxies: %w", err)
	}
	return router, nil
}

func SetupRoutes(
	router *gin.Engine,
	logger *zap.Logger,
	allowedOrigins []string,
	authService service.AuthService,
	historyService service.PlanHistoryService,
	generationService service.PlanGenerationService,
	exportService service.ExportService,
) {
	authHandler := NewAuthHandler(authService)
	historyHandler := NewHistoryHandler(historyService, exportService)
	plannerHandler := NewPlannerHandler(generationService)

	router.Use(RequestLogger(logger))
	if len(allowedOrigins) > 0 {
		router.Use(CORS(allowedOrigins))
	}

	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	apiV1 := router.Group("/api/v1")
	{
		apiV1.GET("/ping", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"message": "pong"})
		})

		authGroup := apiV1.Group("/auth")
		{
			authGroup.POST("/signup", authHandler.Signup)
			authGroup.POST("/login", authHandler.Login)
			authGroup.POST("/google", authHandler.GoogleSignIn)
			authGroup.POST("/logout", AuthMiddleware(authService), authHandler.Logout)
		}

		// Plan generation works without an account; a token only adds history
		plans := apiV1.Group("/plans")
		plans.Use(OptionalAuthMiddleware(authService))
		{
			plans.POST("/meal", plannerHandler.GenerateMealPlan)
			plans.POST("/workout", plannerHandler.GenerateWorkoutPlan)
		}
	}

	protected := apiV1.Group("")
	protected.Use(AuthMiddleware(authService))
	{
		protected.GET("/me", authHandler.Me)

		historyGroup := protected.Group("/history")
		{
			historyGroup.GET("", historyHandler.ListHistory)
			historyGroup.POST("", historyHandler.SavePlan)
			historyGroup.GET("/:id", historyHandler.GetPlan)
			historyGroup.GET("/:id/export", historyHandler.ExportPlan)
		}
	}
}
