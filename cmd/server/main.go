package main

import (
	"log"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/mkowalczyk-dev/task-tracker-api/internal/config"
	"github.com/mkowalczyk-dev/task-tracker-api/internal/constants"
	"github.com/mkowalczyk-dev/task-tracker-api/internal/database"
	"github.com/mkowalczyk-dev/task-tracker-api/internal/handlers"
	"github.com/mkowalczyk-dev/task-tracker-api/internal/logger"
	"github.com/mkowalczyk-dev/task-tracker-api/internal/middleware"
	"github.com/mkowalczyk-dev/task-tracker-api/internal/repository"
	"github.com/mkowalczyk-dev/task-tracker-api/internal/services"
	"github.com/mkowalczyk-dev/task-tracker-api/internal/storage"
)

func main() {
	// Load configuration
	cfg, err := config.Load(".")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	appLog := logger.New(cfg.IsProduction())
	defer appLog.Sync()

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	// Connect to database (retries a fixed number of times, then fatal)
	db, err := database.Connect(cfg, appLog)
	if err != nil {
		appLog.Fatalf("Failed to connect to database: %v", err)
	}

	// Run migrations and seed the default accounts
	if err := database.Migrate(db); err != nil {
		appLog.Fatalf("Failed to run migrations: %v", err)
	}
	if err := database.Seed(db, appLog); err != nil {
		appLog.Fatalf("Failed to seed users: %v", err)
	}

	// Upload store
	store, err := storage.NewLocalStore(cfg.UploadDir)
	if err != nil {
		appLog.Fatalf("Failed to initialize upload store: %v", err)
	}

	// Repositories
	userRepo := repository.NewUserRepository(db)
	taskRepo := repository.NewTaskRepository(db)

	// Services
	authService := services.NewAuthService(userRepo, cfg.JWTSecret)
	taskService := services.NewTaskService(taskRepo, userRepo, store, appLog)
	userService := services.NewUserService(userRepo, store, appLog)

	// Handlers
	production := cfg.IsProduction()
	authHandler := handlers.NewAuthHandler(authService, appLog, production)
	taskHandler := handlers.NewTaskHandler(taskService, appLog, production)
	docHandler := handlers.NewDocumentHandler(taskService, appLog, production)
	userHandler := handlers.NewUserHandler(userService, appLog, production)

	// Router
	r := gin.New()
	r.MaxMultipartMemory = constants.MaxDocumentSize
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger(appLog))
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{cfg.CORSOrigin},
		AllowMethods:     []string{"GET", "POST", "PATCH", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		AllowCredentials: cfg.CORSOrigin != "*",
	}))

	requireAuth := middleware.RequireAuth(authService)

	// API routes
	api := r.Group("/api")
	{
		api.GET("/health", handlers.Health(cfg.Environment))

		auth := api.Group("/auth")
		{
			auth.POST("/register", authHandler.Register)
			auth.POST("/login", authHandler.Login)
			auth.GET("/me", requireAuth, authHandler.GetCurrentUser)
		}

		users := api.Group("/users")
		users.Use(requireAuth)
		{
			users.GET("", middleware.RequireAdmin(), userHandler.ListUsers)
			users.PATCH("/:id", userHandler.UpdateUser)
			users.DELETE("/:id", middleware.RequireAdmin(), userHandler.DeleteUser)
		}

		tasks := api.Group("/tasks")
		tasks.Use(requireAuth)
		{
			tasks.GET("", taskHandler.ListTasks)
			tasks.POST("", taskHandler.CreateTask)

			view := middleware.RequireTaskAccess(taskService, middleware.TaskCapabilityView, production)
			manage := middleware.RequireTaskAccess(taskService, middleware.TaskCapabilityManage, production)

			tasks.GET("/:id", view, taskHandler.GetTask)
			tasks.PATCH("/:id", manage, taskHandler.UpdateTask)
			tasks.DELETE("/:id", manage, taskHandler.DeleteTask)

			tasks.POST("/:id/documents", manage, docHandler.Upload)
			tasks.GET("/:id/documents/:docID/download", view, docHandler.Download)
			tasks.DELETE("/:id/documents/:docID", manage, docHandler.Delete)
		}
	}

	appLog.Infow("server starting", "port", cfg.ServerPort, "environment", cfg.Environment)
	if err := r.Run(":" + cfg.ServerPort); err != nil {
		appLog.Fatalf("Failed to start server: %v", err)
	}
}
