package main

import (
	"flag"
	"fmt"

	"incoin_webapp/internal/config"
	"incoin_webapp/internal/db"
	"incoin_webapp/internal/logger"
)

func main() {
	apply := flag.Bool("apply", false, "apply pending migrations")
	down := flag.Int("down", 0, "roll back this many migrations")
	flag.Parse()

	cfg := config.MustLoad()
	logger.Init(cfg.LogLevel, cfg.LogJSON)

	switch {
	case *down > 0:
		if cfg.DatabaseURL == "" {
			logger.Fatal("DATABASE_URL not set")
		}
		if err := db.RollbackMigrations(cfg.DatabaseURL, *down); err != nil {
			logger.Fatal("rollback failed", "error", err)
		}
		fmt.Printf("rolled back %d migration(s)\n", *down)
	case *apply:
		if cfg.DatabaseURL == "" {
			logger.Fatal("DATABASE_URL not set")
		}
		if err := db.RunMigrations(cfg.DatabaseURL); err != nil {
			logger.Fatal("migrate failed", "error", err)
		}
		fmt.Println("migrations applied")
	default:
		names, err := db.MigrationNames()
		if err != nil {
			logger.Fatal("list migrations", "error", err)
		}
		for _, name := range names {
			fmt.Println(name)
		}
	}
}
