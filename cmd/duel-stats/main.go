package main

import (
	"flag"

	"github.com/Garsondee/jab/internal/api"
	"github.com/Garsondee/jab/internal/config"
	"github.com/Garsondee/jab/internal/logging"
	"github.com/Garsondee/jab/internal/storage"
)

func main() {
	envFile := flag.String("env", ".env", "optional env file with JAB_* settings")
	flag.Parse()

	settings, err := config.Load(*envFile)
	if err != nil {
		logging.Fatal("Invalid configuration", err, logging.Fields{"env_file": *envFile})
	}
	if settings.DBPath == "" {
		logging.Fatal("Match history is disabled", nil, logging.Fields{"var": config.EnvDBPath})
	}

	db, err := storage.OpenAndMigrate(settings.DBPath)
	if err != nil {
		logging.Fatal("Failed to initialize database", err, logging.Fields{"db_path": settings.DBPath})
	}
	router := api.NewRouter(storage.NewSQLiteRepository(db))

	logging.Info("Server started", logging.Fields{"addr": settings.StatsAddr, "db_path": settings.DBPath})
	if err := router.Run(settings.StatsAddr); err != nil {
		logging.Fatal("Failed to start server", err, nil)
	}
}
