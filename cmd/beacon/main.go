package main

import (
	"log"
	"os"

	"github.com/beacon-dev/beacon/db"
	"github.com/beacon-dev/beacon/internal/auth"
	"github.com/beacon-dev/beacon/internal/fanout"
	"github.com/beacon-dev/beacon/internal/retention"
	"github.com/beacon-dev/beacon/internal/router"
	"github.com/beacon-dev/beacon/internal/status"
	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	if err := auth.InitJWTSecret(); err != nil {
		log.Fatalf("Failed to initialize JWT secret: %v", err)
	}

	dsn := os.Getenv("DATABASE_URL")

	if dsn == "" {
		log.Fatal("DATABASE_URL is not set")
	}

	if err := db.ConnectDatabase(dsn); err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	if err := db.MigrateDatabase(); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}

	// Effective statuses are pure functions of store state, so recomputing on
	// boot heals anything a crash left behind.
	if err := status.RecomputeAll(db.DB); err != nil {
		log.Fatalf("Failed to recompute service statuses: %v", err)
	}

	hub := fanout.Initialize()
	status.Initialize(hub)

	if err := status.PrimeAll(db.DB); err != nil {
		log.Fatalf("Failed to prime status notifier: %v", err)
	}

	retention.Initialize()
	defer retention.Shutdown()

	r := router.NewRouter()

	var port string

	if port = os.Getenv("PORT"); port == "" {
		port = "3000"
		log.Println("PORT not set, defaulting to 3000")
	}

	if err := r.Run(":" + port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
