package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/formcraft/backend/internal/application/services"
	"github.com/formcraft/backend/internal/bootstrap"
	"github.com/formcraft/backend/internal/infrastructure/database"
	"github.com/formcraft/backend/internal/interfaces/middleware"
	"github.com/formcraft/backend/internal/interfaces/rest"
	"github.com/formcraft/backend/pkg/constants"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = constants.DefaultPort
	}

	// Initialize database connection
	db, err := database.GetInstance()
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	log.Println("✅ Database connection established")

	if err := bootstrap.InitializeSchema(db.DB()); err != nil {
		log.Fatalf("Failed to initialize schema: %v", err)
	}

	if err := bootstrap.InitializeFieldTypes(); err != nil {
		log.Fatalf("Failed to register field types: %v", err)
	}

	// Initialize service manager
	svcMgr := services.NewServiceManager(db.DB())
	log.Println("🔧 Service manager initialized")

	if err := svcMgr.Initialize(context.Background()); err != nil {
		log.Printf("⚠️  Warning: Failed to load field group definitions: %v", err)
	}

	// Create Gin router
	router := gin.Default()
	router.Use(middleware.Cors())

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status": "ok",
			"server": "golang",
		})
	})

	// Initialize handlers
	fieldsHandler := rest.NewFieldsHandler(svcMgr)
	valuesHandler := rest.NewValuesHandler(svcMgr)
	rowsHandler := rest.NewRowsHandler(svcMgr)

	// API routes
	api := router.Group("/api")
	{
		groups := api.Group("/field-groups")
		{
			groups.GET("", fieldsHandler.GetFieldGroups)
			groups.POST("", fieldsHandler.SaveFieldGroup)
			groups.GET("/clone-selectors", fieldsHandler.GetCloneSelectors)
			groups.GET("/:key", fieldsHandler.GetFieldGroup)
			groups.DELETE("/:key", fieldsHandler.DeleteFieldGroup)
		}

		subjects := api.Group("/subjects/:subject/fields/:field")
		{
			subjects.GET("", valuesHandler.GetValue)
			subjects.PUT("", valuesHandler.UpdateValue)
			subjects.DELETE("", valuesHandler.DeleteValue)
		}

		rows := api.Group("/rows")
		{
			rows.POST("/page", rowsHandler.FetchPage)
			rows.POST("/title", rowsHandler.FetchTitle)
		}
	}

	log.Println("🚀 FormCraft backend started")
	log.Printf("📍 Server:       http://localhost:%s", port)
	log.Printf("🧩 Fields API:   http://localhost:%s/api/field-groups", port)
	log.Printf("💾 Values API:   http://localhost:%s/api/subjects/:subject/fields/:field", port)
	log.Printf("💚 Health check: http://localhost:%s/health", port)

	srv := &http.Server{
		Addr:    "0.0.0.0:" + port,
		Handler: router,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Graceful shutdown with a 5 second drain window
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown: ", err)
	}

	log.Println("Server exiting")
}
