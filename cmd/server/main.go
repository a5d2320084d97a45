package main

import (
	"context"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/joho/godotenv"

	"github.com/equiptrack/defect-registry/internal/config"
	"github.com/equiptrack/defect-registry/internal/database"
	"github.com/equiptrack/defect-registry/internal/handlers"
	"github.com/equiptrack/defect-registry/internal/middleware"
	"github.com/equiptrack/defect-registry/internal/routes"
	"github.com/equiptrack/defect-registry/internal/services"
)

func main() {
	// Load env
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}
	cfg := config.Load()

	// Connect to MongoDB
	log.Printf("Connecting to MongoDB...")
	mongoClient, db, err := database.ConnectMongo(cfg.MongoURI)
	if err != nil {
		log.Fatal("Failed to connect to MongoDB:", err)
	}
	defer database.DisconnectMongo(mongoClient)

	// Connect to Redis
	log.Printf("Connecting to Redis...")
	redisClient, err := database.ConnectRedis(cfg.RedisURI)
	if err != nil {
		log.Fatal("Failed to connect to Redis:", err)
	}
	defer redisClient.Close()

	// Stores
	users := services.NewUserStore(db)
	defects := services.NewDefectStore(db)
	sessions := services.NewRedisSessionStore(redisClient, cfg.SessionTTL)

	// Unique email index backs duplicate-registration detection
	if err := users.EnsureIndexes(context.Background()); err != nil {
		log.Fatal("Failed to ensure user indexes:", err)
	}
	log.Println("✅ MongoDB user indexes ensured")

	// Handlers
	authHandler := handlers.NewAuthHandler(users, sessions, cfg.SessionTTL, cfg.StaticDir, cfg.IsProduction())
	defectHandler := handlers.NewDefectHandler(defects)

	// Setup router
	r := chi.NewRouter()
	r.Use(middleware.CORS(cfg.AllowedOrigins))
	if cfg.IsProduction() {
		r.Use(middleware.SecurityHeaders)
		log.Println("✅ Production security headers enabled")
	}

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("OK"))
	})

	routes.SetupRoutes(r, authHandler, defectHandler, sessions, cfg.StaticDir)

	log.Printf("🚀 Server running on http://localhost:%s", cfg.Port)
	if err := http.ListenAndServe(":"+cfg.Port, r); err != nil {
		log.Fatal("Failed to start server:", err)
	}
}
