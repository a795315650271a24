package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"booktribe/internal/catalog"
	"booktribe/internal/covers"
	"booktribe/internal/handlers"
	"booktribe/internal/repositories"
	"booktribe/internal/services"
)

func main() {
	// Local development convenience; a missing .env is fine.
	_ = godotenv.Load()

	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		log.Fatal("DATABASE_URL environment variable is required")
	}

	bucket := os.Getenv("COVERS_BUCKET")
	if bucket == "" {
		log.Fatal("COVERS_BUCKET environment variable is required")
	}
	publicURL := os.Getenv("COVERS_PUBLIC_URL")
	if publicURL == "" {
		log.Fatal("COVERS_PUBLIC_URL environment variable is required")
	}

	catalogEndpoint := os.Getenv("CATALOG_URL")
	if catalogEndpoint == "" {
		catalogEndpoint = catalog.DefaultEndpoint
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatalf("failed to connect database: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		log.Fatalf("failed to get generic DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(20)
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetConnMaxLifetime(time.Hour)

	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background())
	if err != nil {
		log.Fatalf("failed to load AWS config: %v", err)
	}

	userRepo := repositories.NewUserRepository(db)
	bookRepo := repositories.NewBookRepository(db)
	coverStore := covers.NewStore(s3.NewFromConfig(awsCfg), bucket, publicURL)
	catalogClient := catalog.NewClient(catalogEndpoint)

	bookService := services.NewBookService(userRepo, bookRepo, coverStore, catalogClient)

	router := gin.Default()

	handlers.RegisterRoutes(router, bookService)

	serverAddr := os.Getenv("SERVER_ADDR")
	if serverAddr == "" {
		serverAddr = ":8080"
	}

	srv := &http.Server{
		Addr:         serverAddr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	log.Printf("Starting server on %s", serverAddr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("server error: %v", err)
	}
}
