package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	"clinic-procedure-scheduling/internal/config"
	"clinic-procedure-scheduling/internal/database"
	"clinic-procedure-scheduling/internal/handler"
	"clinic-procedure-scheduling/internal/middleware"
	"clinic-procedure-scheduling/internal/repository"
	"clinic-procedure-scheduling/internal/service"
	"clinic-procedure-scheduling/pkg/utils"

	"github.com/gin-gonic/gin"
)

func main() {
	// 1. Load configuration
	cfg := config.LoadConfig()
	log.Println("Configuration loaded successfully")

	// 2. Initialize JWT utilities with config
	utils.InitJWT(
		cfg.JWT.AccessSecret,
		cfg.JWT.RefreshSecret,
		cfg.JWT.AccessTokenExpiry,
		cfg.JWT.RefreshTokenExpiry,
	)

	// 3. Initialize database connection and schema
	db := database.Connect(cfg)
	database.Migrate(db)

	// 4. Initialize repositories
	userRepo := repository.NewUserRepo(db)
	auditRepo := repository.NewAuditRepo(db)
	roomRepo := repository.NewRoomRepo(db)
	procedureRepo := repository.NewProcedureRepo(db)
	admissionRepo := repository.NewAdmissionRepo(db)

	// 5. Initialize services
	authService := service.NewAuthService(userRepo, auditRepo)
	availabilityService := service.NewAvailabilityService(procedureRepo, roomRepo)
	roomService := service.NewRoomService(roomRepo, procedureRepo, auditRepo)
	procedureService := service.NewProcedureService(procedureRepo, admissionRepo, auditRepo, availabilityService)

	// 6. Setup Gin mode
	gin.SetMode(cfg.Server.GinMode)

	// 7. Setup Gin router
	r := gin.Default()

	// Apply CORS middleware
	r.Use(middleware.CORS(cfg))

	// 8. Register handlers
	authHandler := handler.NewAuthHandler(authService)
	roomHandler := handler.NewRoomHandler(roomService, availabilityService)
	procedureHandler := handler.NewProcedureHandler(procedureService)

	// 9. Define routes
	// Health check endpoint
	r.GET("/health", func(c *gin.Context) {
		utils.SuccessResponse(c, gin.H{
			"status":  "healthy",
			"service": "clinic-procedure-scheduling",
		})
	})

	// Auth routes (public)
	auth := r.Group("/auth")
	{
		auth.POST("/register", authHandler.Register)
		auth.POST("/login", authHandler.Login)
		auth.POST("/refresh", authHandler.Refresh)
		auth.POST("/logout", authHandler.Logout)
	}

	// API routes (authenticated)
	api := r.Group("/api/v1")
	api.Use(middleware.AuthMiddleware())
	{
		// Room registry
		api.POST("/rooms", middleware.RequireAdmin(), roomHandler.CreateRoom)
		api.GET("/rooms", roomHandler.ListRooms)
		api.GET("/rooms/:id", roomHandler.GetRoom)
		api.PUT("/rooms/:id", middleware.RequireAdmin(), roomHandler.UpdateRoom)
		api.DELETE("/rooms/:id", middleware.RequireAdmin(), roomHandler.DeactivateRoom)
		api.GET("/rooms/:id/availability", roomHandler.CheckAvailability)

		// Procedure lifecycle
		api.POST("/procedures", procedureHandler.CreateProcedure)
		api.GET("/procedures", procedureHandler.ListProcedures)
		api.GET("/procedures/stats", procedureHandler.GetStats)
		api.GET("/procedures/:id", procedureHandler.GetProcedure)
		api.PUT("/procedures/:id", procedureHandler.UpdateProcedure)
		api.POST("/procedures/:id/start", procedureHandler.StartProcedure)
		api.POST("/procedures/:id/complete", procedureHandler.CompleteProcedure)
		api.POST("/procedures/:id/cancel", procedureHandler.CancelProcedure)
		api.POST("/procedures/:id/defer", procedureHandler.DeferProcedure)
		api.POST("/procedures/:id/reprogram", procedureHandler.ReprogramProcedure)
	}

	// 10. Setup graceful shutdown
	go func() {
		log.Printf("Server starting on port %s", cfg.Server.Port)
		if err := r.Run(":" + cfg.Server.Port); err != nil {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")
	log.Println("Server exited")
}
