// Command seed populates the portal database with demo provisioning requests.
package main

import (
	"flag"
	"log"

	"nidhi/internal/config"
	"nidhi/internal/database"
	"nidhi/internal/seed"
)

func main() {
	count := flag.Int("n", 20, "number of provisioning requests to create")
	dryRun := flag.Bool("dry-run", false, "log what would be created without writing")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if cfg.Env == "production" || cfg.Env == "prod" {
		log.Fatal("Refusing to seed a production database")
	}

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Database connection failed: %v", err)
	}

	if err := seed.Run(db, seed.Options{Requests: *count, DryRun: *dryRun}); err != nil {
		log.Fatalf("Seeding failed: %v", err)
	}
}
