package main

import (
	"flag"
	"log"
	"log/slog"
	"os"

	"github.com/Yev-ux/newsggl/db"
	"github.com/Yev-ux/newsggl/internal/config"
	"github.com/Yev-ux/newsggl/internal/handler"
	"github.com/Yev-ux/newsggl/internal/repository"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

func main() {
	godotenv.Load()

	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	configPath := flag.String("config", "config.yaml", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	if err := db.Connect(os.Getenv("DATABASE_URL")); err != nil {
		log.Fatalf("error connecting to DB: %v", err)
	}
	defer db.Close()

	if err := db.Migrate(); err != nil {
		log.Fatalf("error applying schema: %v", err)
	}

	summaryRepo := repository.NewSummaryRepository(db.DB)
	digestHandler := handler.NewDigestHandler(summaryRepo, cfg.Location())

	r := gin.Default()

	allowedOrigins := []string{"http://localhost:3000"}
	if frontendURL := os.Getenv("FRONTEND_URL"); frontendURL != "" {
		allowedOrigins = append(allowedOrigins, frontendURL)
	}

	r.Use(cors.New(cors.Config{
		AllowOrigins: allowedOrigins,
		AllowMethods: []string{"GET", "OPTIONS"},
		AllowHeaders: []string{"Origin", "Content-Type"},
	}))

	r.GET("/digest", digestHandler.GetDigest)
	r.GET("/health", digestHandler.GetHealth)

	if err := r.Run(":8080"); err != nil {
		log.Fatalf("error starting server: %v", err)
	}
}
