// cmd/dbtools/importrates/main.go
package main

import (
	"context"
	"flag"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/codr1/sethouse/internal/catalog"
	"github.com/codr1/sethouse/internal/config"
	"github.com/codr1/sethouse/internal/db"
)

func main() {
	var (
		configPath = flag.String("config", "config.yaml", "Path to config.yaml")
		file       = flag.String("file", "", "Rate card YAML to import")
		dryRun     = flag.Bool("dry-run", false, "Validate the rate card without writing it")
	)
	flag.Parse()

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	if *file == "" {
		flag.Usage()
		os.Exit(1)
	}

	card, err := catalog.LoadRateCardFile(*file)
	if err != nil {
		log.Fatal().Err(err).Str("file", *file).Msg("Invalid rate card")
	}
	logger := log.With().
		Str("file", *file).
		Int("spaces", len(card.Spaces)).
		Int("packages", len(card.Packages)).
		Logger()

	if *dryRun {
		logger.Info().Msg("Rate card is valid")
		return
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	database, err := db.NewFromConfig(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open database")
	}
	defer database.Close()

	if err := catalog.NewStore(database).Import(context.Background(), card); err != nil {
		logger.Error().Err(err).Msg("Import failed")
		database.Close()
		os.Exit(1)
	}
	logger.Info().Str("db", cfg.Database.Filename).Msg("Rate card imported")
}
