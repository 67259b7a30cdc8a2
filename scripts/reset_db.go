package main

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/poolside-labs/yieldvault/internal/logger"
	"github.com/poolside-labs/yieldvault/internal/state"
)

// Drops the journal tables and recreates them empty. Development only.
func main() {
	logLevel := os.Getenv("LOG_LEVEL")
	if logLevel == "" {
		logLevel = "info"
	}
	logger.Initialize(logLevel)

	if err := godotenv.Load(); err != nil {
		log.Warn().Msg("No .env file found, relying on OS environment variables")
	}

	cfg := journalDBConfig()
	log.Info().
		Str("host", cfg.Host).
		Int("port", cfg.Port).
		Str("dbname", cfg.DBName).
		Msg("Resetting journal database")

	if err := state.InitDB(cfg); err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer state.CloseDB()

	if _, err := state.DB.Exec(`
		DROP TABLE IF EXISTS operation_receipts CASCADE;
		DROP TABLE IF EXISTS accrual_snapshots CASCADE;
		DROP TABLE IF EXISTS sweep_counter CASCADE;
	`); err != nil {
		log.Fatal().Err(err).Msg("Failed to drop journal tables")
	}

	if err := state.EnsureSchema(); err != nil {
		log.Fatal().Err(err).Msg("Failed to recreate journal schema")
	}
	log.Info().Msg("Journal database reset complete")
}

func journalDBConfig() state.DBConfig {
	cfg := state.DBConfig{
		Host:     envOr("DB_HOST", "localhost"),
		Port:     5432,
		User:     os.Getenv("DB_USER"),
		Password: os.Getenv("DB_PASSWORD"),
		DBName:   os.Getenv("DB_NAME"),
		SSLMode:  envOr("DB_SSLMODE", "disable"),
	}
	if cfg.User == "" {
		log.Fatal().Msg("DB_USER environment variable not set")
	}
	if cfg.DBName == "" {
		log.Fatal().Msg("DB_NAME environment variable not set")
	}
	if raw := os.Getenv("DB_PORT"); raw != "" {
		port, err := strconv.Atoi(raw)
		if err != nil {
			log.Fatal().Str("value", raw).Msg("DB_PORT is not a number")
		}
		cfg.Port = port
	}
	return cfg
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
