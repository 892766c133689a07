// cmd/dbtools/migrate/main.go
package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/sqlite3"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/codr1/sethouse/internal/config"
)

func main() {
	var (
		configPath     = flag.String("config", "", "Path to config.yaml (database filename is read from it)")
		dbPath         = flag.String("db", "", "Path to SQLite database (overrides -config)")
		migrationsPath = flag.String("migrations", "internal/db/migrations", "Path to migrations directory")
		command        = flag.String("command", "", "Command to run (up, down, version, force)")
		steps          = flag.Int("steps", 0, "Number of migrations to roll back with down (0 = all)")
		forceVersion   = flag.Int("version", -1, "Version to record with force")
	)
	flag.Parse()

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	database, err := resolveDatabase(*configPath, *dbPath)
	if err != nil || *command == "" {
		if err != nil {
			log.Error().Err(err).Msg("Cannot determine database")
		}
		flag.Usage()
		os.Exit(1)
	}

	absMigrations, err := filepath.Abs(*migrationsPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid migrations path")
	}
	if _, err := os.Stat(absMigrations); os.IsNotExist(err) {
		log.Fatal().Str("path", absMigrations).Msg("Migrations directory does not exist")
	}
	if err := os.MkdirAll(filepath.Dir(database), 0755); err != nil {
		log.Fatal().Err(err).Msg("Failed to create database directory")
	}

	m, err := migrate.New(
		fmt.Sprintf("file://%s", absMigrations),
		fmt.Sprintf("sqlite3://%s?_fk=1", database),
	)
	if err != nil {
		log.Fatal().Err(err).Msg("Migration init failed")
	}
	defer m.Close()

	logger := log.With().Str("db", database).Str("command", *command).Logger()

	switch *command {
	case "up":
		err = ignoreNoChange(m.Up())
	case "down":
		if *steps > 0 {
			err = ignoreNoChange(m.Steps(-*steps))
		} else {
			err = ignoreNoChange(m.Down())
		}
	case "force":
		if *forceVersion < 0 {
			logger.Fatal().Msg("force requires -version")
		}
		err = m.Force(*forceVersion)
	case "version":
	default:
		logger.Fatal().Msg("Unknown command")
	}
	if err != nil {
		logger.Fatal().Err(err).Msg("Migration failed")
	}

	version, dirty, err := m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		logger.Info().Msg("No migrations applied")
		return
	}
	if err != nil {
		logger.Fatal().Err(err).Msg("Get version failed")
	}
	logger.Info().Uint("version", version).Bool("dirty", dirty).Msg("Migration state")
}

func resolveDatabase(configPath, dbPath string) (string, error) {
	if dbPath != "" {
		return filepath.Abs(dbPath)
	}
	if configPath == "" {
		return "", errors.New("either -db or -config is required")
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		return "", err
	}
	return filepath.Abs(cfg.Database.Filename)
}

func ignoreNoChange(err error) error {
	if errors.Is(err, migrate.ErrNoChange) {
		return nil
	}
	return err
}
