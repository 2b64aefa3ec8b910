package main

// Run database migrations:
//   go run ./cmd/migrate
// Roll back the latest migration:
//   go run ./cmd/migrate -down
// Load a catalog fixture after migrating (built-in sample when the path is "default"):
//   go run ./cmd/migrate -seed default

import (
	"context"
	"flag"
	"log"
	"os"

	"teambuilder-backend/internal/catalog"
	"teambuilder-backend/internal/shared/config"
	"teambuilder-backend/internal/shared/storage/db"
)

func main() {
	down := flag.Bool("down", false, "roll back the latest migration")
	seed := flag.String("seed", "", "catalog fixture to load after migrating")
	flag.Parse()

	cfg := config.Load()
	ctx := context.Background()

	opts := db.OptionsFromEnv(db.DefaultMigrateOptions())
	sqlDB, err := db.Connect(ctx, cfg.DatabaseURL, opts)
	if err != nil {
		log.Printf("failed to connect database: %v", err)
		os.Exit(1)
	}
	defer sqlDB.Close()

	if *down {
		if err := db.RollbackMigration(ctx, sqlDB); err != nil {
			log.Printf("failed to roll back migration: %v", err)
			os.Exit(1)
		}
	} else if err := db.RunMigrations(ctx, sqlDB); err != nil {
		log.Printf("failed to run migrations: %v", err)
		os.Exit(1)
	}

	version, err := db.MigrationVersion(ctx, sqlDB)
	if err != nil {
		log.Printf("failed to read migration version: %v", err)
		os.Exit(1)
	}
	log.Printf("schema version %d", version)

	if *seed == "" || *down {
		return
	}
	var src *catalog.MemoryRepo
	if *seed == "default" {
		src, err = catalog.DefaultFixture()
	} else {
		src, err = catalog.LoadFixture(*seed)
	}
	if err != nil {
		log.Printf("failed to load fixture: %v", err)
		os.Exit(1)
	}
	stats, err := catalog.Seed(ctx, sqlDB, src)
	if err != nil {
		log.Printf("failed to seed catalog: %v", err)
		os.Exit(1)
	}
	log.Printf("seeded %d bundles, %d activities, %d occupations, %d care settings, %d permissions",
		stats.Bundles, stats.Activities, stats.Occupations, stats.CareSettings, stats.Permissions)
}
