package main

import (
	"fmt"
	"gastos/internal/config"
	"gastos/internal/database"
	"gastos/internal/handlers"
	"gastos/internal/logger"
	"gastos/internal/middleware"
	"gastos/internal/realtime"
	"gastos/internal/services"
	"gastos/internal/submit"
	"gastos/internal/validator"
	"net/http"
	"os"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "gastos/internal/docs" // Import swagger docs
)

// @title           Gastos API
// @version         1.0
// @description     Gastos is a personal budgeting service: users record budgets and expenses, read derived ledgers, and receive live full-snapshot updates as the store changes.

// @host      localhost:8080
// @BasePath  /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

func main() {
	// Initialize logger (use ENV var if available, default to development)
	logger.Init(os.Getenv("ENV"))
	defer logger.Sync()

	if err := run(); err != nil {
		logger.Get().Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	log := logger.Get()

	// Load configuration
	appConfig, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	// Register custom request validators
	validator.Register()

	// Initialize database configuration
	dbConfig, err := database.NewConfig()
	if err != nil {
		return fmt.Errorf("failed to load database configuration: %w", err)
	}

	// Create database manager
	dbManager, err := database.NewManager(dbConfig)
	if err != nil {
		return fmt.Errorf("failed to create database manager: %w", err)
	}

	// Run migrations
	if err := dbManager.Migrate(); err != nil {
		return fmt.Errorf("failed to run database migrations: %w", err)
	}

	// Initialize realtime delivery
	db := dbManager.DB()
	hub := realtime.NewHub(realtime.NewStoreLoader(db))
	sessions := realtime.NewSessionBroadcaster()
	guard := submit.NewGuard()

	// Initialize services
	userService := services.NewUserService(db, sessions)
	budgetService := services.NewBudgetService(db, hub)
	expenseService := services.NewExpenseService(db, hub, budgetService)

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(userService)
	userHandler := handlers.NewUserHandler(userService)
	budgetHandler := handlers.NewBudgetHandler(budgetService, guard)
	expenseHandler := handlers.NewExpenseHandler(expenseService, guard)
	streamHandler := handlers.NewStreamHandler(hub, sessions)

	// Initialize Gin router
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogging())
	router.Use(middleware.ErrorHandler())

	// CORS middleware
	router.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PATCH, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Submission-Id")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	})

	// Swagger documentation
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Health check endpoint
	router.GET("/api/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// API v1 group
	v1 := router.Group("/api/v1")

	// Public routes
	auth := v1.Group("/auth")
	auth.POST("/register", authHandler.Register)
	auth.POST("/login", authHandler.Login)

	// Protected routes
	protected := v1.Group("/")
	protected.Use(middleware.AuthMiddleware(userService))

	// Session management
	protected.POST("/auth/change-password", authHandler.ChangePassword)
	protected.POST("/auth/logout", authHandler.Logout)

	// User profile
	protected.GET("/users/:id", userHandler.GetUser)

	// Budget routes
	budgets := protected.Group("/budgets")
	budgets.POST("", budgetHandler.CreateBudget)
	budgets.GET("", budgetHandler.ListBudgets)
	budgets.GET("/:id", budgetHandler.GetBudget)
	budgets.PATCH("/:id", budgetHandler.UpdateBudget)
	budgets.DELETE("/:id", budgetHandler.DeleteBudget)

	// Expense routes
	budgets.POST("/:id/expenses", expenseHandler.AddExpense)
	budgets.GET("/:id/expenses", expenseHandler.ListExpenses)
	budgets.GET("/:id/totals", expenseHandler.Totals)
	protected.GET("/expenses/orphaned", budgetHandler.OrphanedExpenses)

	// Snapshot streams
	stream := protected.Group("/stream")
	stream.GET("/budgets", streamHandler.StreamBudgets)
	stream.GET("/budgets/:id", streamHandler.StreamBudget)
	stream.GET("/budgets/:id/expenses", streamHandler.StreamExpenses)
	stream.GET("/session", streamHandler.StreamSession)

	log.Infof("Starting Gastos backend server on port %s", appConfig.Port)
	log.Infof("Swagger documentation available at http://localhost:%s/swagger/index.html", appConfig.Port)
	return router.Run(":" + appConfig.Port)
}
