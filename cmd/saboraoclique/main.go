package main

import (
	"os"

	"go.uber.org/zap"

	"saboraoclique/internal/config"
	"saboraoclique/internal/http/handlers"
	applog "saboraoclique/internal/log"
	"saboraoclique/internal/repos"
)

func main() {
	cfg := config.Load()

	if err := applog.Init(applog.Config{Level: cfg.LogLevel, Environment: cfg.Env, File: cfg.LogFile}); err != nil {
		panic(err)
	}
	defer applog.Sync()
	logger := applog.L()
	logger.Info("starting saboraoclique", cfg.Fields()...)

	db, err := repos.OpenDB(cfg.DBDSN)
	if err != nil {
		logger.Fatal("open database", zap.Error(err))
	}
	defer db.Close()

	if cfg.DBReset {
		if err := repos.ResetSchema(db); err != nil {
			logger.Fatal("reset schema", zap.Error(err))
		}
		logger.Warn("database tables dropped and recreated")
	}
	if cfg.SeedDemo {
		seeded, err := repos.SeedIfEmpty(db)
		if err != nil {
			logger.Fatal("seed demo data", zap.Error(err))
		}
		if seeded {
			logger.Info("seeded demo catalog")
		}
	}

	deps := handlers.NewDeps(db, cfg)
	app := handlers.NewApp(cfg, deps)

	if err := app.Listen(":" + cfg.Port); err != nil {
		logger.Error("server stopped", zap.Error(err))
		applog.Sync()
		os.Exit(1)
	}
}
