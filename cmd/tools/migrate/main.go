package main

import (
	"errors"
	"flag"
	"os"

	migrate "github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"

	"github.com/noah-isme/backend-salon/internal/config"
	"github.com/noah-isme/backend-salon/internal/obs"
)

func main() {
	var (
		dir      = flag.String("dir", "db/migrations", "migrations directory")
		down     = flag.Bool("down", false, "roll back one migration instead of migrating up")
		logLevel = flag.String("log-level", "info", "log level")
	)
	flag.Parse()

	logger := obs.NewLogger("console", *logLevel).With().Str("component", "migrate").Logger()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("load config")
	}

	m, err := migrate.New("file://"+*dir, cfg.DatabaseURL)
	if err != nil {
		logger.Fatal().Err(err).Str("dir", *dir).Msg("open migrations")
	}
	defer func() {
		srcErr, dbErr := m.Close()
		if srcErr != nil {
			logger.Error().Err(srcErr).Msg("close migration source")
		}
		if dbErr != nil {
			logger.Error().Err(dbErr).Msg("close migration database")
		}
	}()

	if *down {
		if err := m.Steps(-1); err != nil {
			logger.Fatal().Err(err).Msg("roll back migration")
		}
		logger.Info().Msg("rolled back one migration")
		return
	}

	if err := m.Up(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			logger.Info().Msg("database already up to date")
			return
		}
		logger.Fatal().Err(err).Msg("apply migrations")
	}

	version, dirty, err := m.Version()
	if err != nil {
		logger.Fatal().Err(err).Msg("read migration version")
	}
	if dirty {
		logger.Error().Uint("version", version).Msg("database is dirty")
		os.Exit(1)
	}
	logger.Info().Uint("version", version).Msg("migrations applied")
}
