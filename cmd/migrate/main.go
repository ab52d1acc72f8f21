package main

import (
	"context"
	"flag"
	"os"
	"time"

	"github.com/bitfitpro/bitfit/internal/config"
	"github.com/bitfitpro/bitfit/internal/db"
	"github.com/bitfitpro/bitfit/internal/logging"

	log "github.com/sirupsen/logrus"
)

func main() {
	env := flag.String("env", "development", "environment [prod | production | dev | development | ddev | dockerdev ]")
	configPath := flag.String("config", "./config.toml", "path for the TOML config file")
	timeout := flag.Duration("timeout", 30*time.Second, "migration timeout")
	flag.Parse()

	cfg, err := config.Load(*env, *configPath)
	if err != nil {
		panic(err)
	}

	logging.Setup(logging.LoggerSetupParams{
		LogToStdout: true,
		LogLevel:    cfg.LogLevel,
		Environment: cfg.Environment,
	})

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	dbPool, err := db.NewDBPool(ctx, db.NewDBPoolParams{
		DBHost:     cfg.PostgresHost,
		DBPort:     cfg.PostgresPort,
		DBName:     cfg.PostgresDBName,
		DBUser:     cfg.PostgresUser,
		DBPassword: os.Getenv("BITFIT_POSTGRES_PASS"),
	})
	if err != nil {
		log.Fatalf("new db pool: %s", err)
	}
	defer dbPool.Close()

	if err := db.Migrate(ctx, dbPool); err != nil {
		dbPool.Close()
		log.Fatalf("migrate: %s", err)
	}

	log.Infof("schema of [%s] on [%s] is up to date", cfg.PostgresDBName, cfg.PostgresHost)
}
