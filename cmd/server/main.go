package main

import (
	"log"

	"github.com/gin-contrib/sessions"
	redisStore "github.com/gin-contrib/sessions/redis"
	"github.com/gin-gonic/gin"
	"github.com/yukikurage/stashbox-api/internal/config"
	"github.com/yukikurage/stashbox-api/internal/constants"
	"github.com/yukikurage/stashbox-api/internal/database"
	"github.com/yukikurage/stashbox-api/internal/handlers"
	"github.com/yukikurage/stashbox-api/internal/middleware"
	"github.com/yukikurage/stashbox-api/internal/repository"
	"github.com/yukikurage/stashbox-api/internal/services"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Set Gin mode
	gin.SetMode(cfg.GinMode)

	// Connect to database
	if err := database.Connect(cfg); err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	// Run migrations
	if err := database.Migrate(); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}
	if err := database.MigrateDatabase(database.GetDB()); err != nil {
		log.Fatalf("Failed to add indexes: %v", err)
	}

	// Initialize Gin router
	r := gin.Default()

	// Setup session middleware with Redis
	redisAddr := cfg.RedisHost + ":" + cfg.RedisPort
	store, err := redisStore.NewStore(
		10,        // Redis pool size
		"tcp",     // network type
		redisAddr, // Redis address from config
		"",        // username (empty for default user)
		"",        // password (empty = no password)
		[]byte(cfg.SessionSecret), // authentication key
	)
	if err != nil {
		log.Fatalf("Failed to create Redis store: %v", err)
	}
	// Configure session options based on environment
	isProduction := cfg.GinMode == "release"
	store.Options(sessions.Options{
		Path:     "/",
		MaxAge:   86400 * 7, // 7 days
		HttpOnly: true,
		Secure:   isProduction,
		SameSite: 2, // SameSite=Lax (1=Strict, 2=Lax, 3=None)
	})
	r.Use(sessions.Sessions(constants.SessionCookieName, store))

	// Initialize repositories
	db := database.GetDB()
	userRepo := repository.NewUserRepository(db)
	wsRepo := repository.NewWorkspaceRepository(db)
	locRepo := repository.NewLocationRepository(db)
	boxRepo := repository.NewBoxRepository(db)

	// Initialize AI service
	var aiService *services.AIService
	if cfg.OpenAIAPIKey != "" {
		aiService = services.NewAIService(cfg.OpenAIAPIKey)
	}

	// Initialize services
	authzService := services.NewAuthorizationService(wsRepo)
	authService := services.NewAuthService(userRepo)
	wsService := services.NewWorkspaceService(wsRepo, userRepo, authzService)
	locService := services.NewLocationService(locRepo, authzService)
	boxService := services.NewBoxService(boxRepo, locRepo, authzService, aiService)

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(authService)
	wsHandler := handlers.NewWorkspaceHandler(wsService)
	locHandler := handlers.NewLocationHandler(locService)
	boxHandler := handlers.NewBoxHandler(boxService)
	qrHandler := handlers.NewQrCodeHandler(boxService)

	// Health check endpoint
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "ok",
			"message": "StashBox API is running",
		})
	})

	// API routes
	api := r.Group("/api")
	{
		// Auth routes (public)
		auth := api.Group("/auth")
		{
			auth.POST("/signup", authHandler.Signup)
			auth.POST("/login", authHandler.Login)
			auth.POST("/logout", authHandler.Logout)
			auth.GET("/me", middleware.RequireAuth(), authHandler.GetCurrentUser)
		}

		// Workspace routes (protected)
		workspaces := api.Group("/workspaces")
		workspaces.Use(middleware.RequireAuth())
		{
			workspaces.POST("", wsHandler.CreateWorkspace)
			workspaces.GET("", wsHandler.ListWorkspaces)

			scoped := workspaces.Group("/:id")
			scoped.Use(middleware.RequireWorkspaceAccess(authzService, wsRepo))
			{
				scoped.GET("", wsHandler.GetWorkspace)
				scoped.PUT("", wsHandler.UpdateWorkspace)
				scoped.DELETE("", wsHandler.DeleteWorkspace)

				scoped.GET("/members", wsHandler.ListMembers)
				scoped.POST("/members", wsHandler.InviteMember)
				scoped.PATCH("/members/:user_id", wsHandler.ChangeMemberRole)
				scoped.DELETE("/members/:user_id", wsHandler.RemoveMember)

				scoped.GET("/locations", locHandler.ListLocations)
				scoped.POST("/locations", locHandler.CreateLocation)
				scoped.PATCH("/locations/:location_id", locHandler.RenameLocation)
				scoped.DELETE("/locations/:location_id", locHandler.DeleteLocation)

				scoped.GET("/boxes", boxHandler.ListBoxes)
				scoped.POST("/boxes", boxHandler.CreateBox)
				scoped.POST("/boxes/suggest-tags", boxHandler.SuggestTags)
				scoped.GET("/boxes/:box_id", boxHandler.GetBox)
				scoped.PATCH("/boxes/:box_id", boxHandler.UpdateBox)
				scoped.DELETE("/boxes/:box_id", boxHandler.DeleteBox)

				scoped.GET("/qr-codes", qrHandler.ListQrCodes)
				scoped.POST("/qr-codes", qrHandler.GenerateBatch)
				scoped.POST("/qr-codes/:qr_id/print", qrHandler.MarkPrinted)
			}
		}
	}

	// Start server
	log.Println("Server starting on :8080")
	if err := r.Run(":8080"); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
