package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/tutorlog/sessionlog/internal/app/controllers"
	"github.com/tutorlog/sessionlog/internal/middleware"
)

// SetupRouter configures all application routes
func SetupRouter(
	router *gin.Engine,
	authController *controllers.AuthController,
	sessionController *controllers.SessionController,
	customerController *controllers.CustomerController,
	studentController *controllers.StudentController,
	systemController *controllers.SystemController,
	authMiddleware *middleware.AuthMiddleware,
	loginLimiter *middleware.IPRateLimiter,
	metricsHandler http.Handler,
) {
	router.GET("/healthz", systemController.Health)
	if metricsHandler != nil {
		router.GET("/metrics", gin.WrapH(metricsHandler))
	}

	// --- Public Auth routes ---
	auth := router.Group("/auth")
	{
		auth.POST("/login", loginLimiter.Middleware(), authController.Login)
		auth.POST("/logout", authController.Logout)
		auth.GET("/me", authMiddleware.RequireSession(), authController.Me)
	}

	api := router.Group("/api")
	api.GET("/csrf", systemController.CSRFToken)

	// --- Authenticated Routes ---
	protectedAPI := api.Group("")
	protectedAPI.Use(authMiddleware.RequireSession())
	{
		protectedAPI.GET("/customers", customerController.ListCustomers)
		protectedAPI.POST("/customers", customerController.CreateCustomer)
		protectedAPI.POST("/customers/sync", customerController.SyncCustomers)

		protectedAPI.GET("/students", studentController.ListStudents)
		protectedAPI.POST("/students", studentController.CreateStudent)
	}

	sessions := router.Group("/sessions")
	sessions.Use(authMiddleware.RequireSession())
	{
		sessions.POST("/log_session", sessionController.LogSession)
		sessions.GET("", sessionController.ListSessions)
		sessions.GET("/:id", sessionController.GetSession)
		sessions.GET("/:id/proof", sessionController.GetProof)
	}
}
