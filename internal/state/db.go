// ./internal/state/db.go
package state

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq" // PostgreSQL driver
	"github.com/rs/zerolog/log"
)

// DB is a global database connection pool.
var DB *sql.DB

// DBConfig holds database connection parameters.
type DBConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string // "disable", "require", "verify-full", etc.
}

// InitDB initializes the database connection pool.
func InitDB(cfg DBConfig) error {
	psqlInfo := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.DBName, cfg.SSLMode)

	var err error
	DB, err = sql.Open("postgres", psqlInfo)
	if err != nil {
		return fmt.Errorf("failed to open database connection: %w", err)
	}

	DB.SetMaxOpenConns(25)
	DB.SetMaxIdleConns(25)
	DB.SetConnMaxLifetime(5 * time.Minute)

	err = DB.Ping()
	if err != nil {
		DB.Close()
		return fmt.Errorf("failed to ping database: %w", err)
	}

	log.Info().Msg("Successfully connected to the PostgreSQL database!")
	return nil
}

// CloseDB closes the database connection pool.
func CloseDB() {
	if DB != nil {
		log.Info().Msg("Closing database connection...")
		if err := DB.Close(); err != nil {
			log.Error().Err(err).Msg("Error closing database connection")
		}
	}
}

// EnsureSchema applies the necessary DDL to create tables if they don't exist.
func EnsureSchema() error {
	if DB == nil {
		return fmt.Errorf("database not initialized")
	}

	schemaSQL := `
		CREATE TABLE IF NOT EXISTS operation_receipts (
			receipt_id SERIAL PRIMARY KEY,
			operation_id UUID NOT NULL,
			kind VARCHAR(50) NOT NULL,
			account VARCHAR(255),
			counterpart VARCHAR(255),
			asset_denom VARCHAR(128) NOT NULL,
			assets NUMERIC(78, 0) NOT NULL,
			shares NUMERIC(78, 0) NOT NULL,
			success BOOLEAN NOT NULL,
			message TEXT,
			operation_timestamp TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_operation_receipts_timestamp ON operation_receipts(operation_timestamp DESC);
		CREATE INDEX IF NOT EXISTS idx_operation_receipts_account ON operation_receipts(account);
		CREATE INDEX IF NOT EXISTS idx_operation_receipts_kind ON operation_receipts(kind);

		CREATE TABLE IF NOT EXISTS accrual_snapshots (
			snapshot_id SERIAL PRIMARY KEY,
			operation_id UUID NOT NULL,
			snapshot_timestamp TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
			asset_denom VARCHAR(128) NOT NULL,
			active_assets NUMERIC(78, 0) NOT NULL,
			yield_index DECIMAL(40, 18) NOT NULL,
			platform_fee_shares NUMERIC(78, 0) NOT NULL,
			performance_fee_shares NUMERIC(78, 0) NOT NULL,
			minted_platform_shares NUMERIC(78, 0) NOT NULL,
			minted_perf_shares NUMERIC(78, 0) NOT NULL,
			burned_insurance_shares NUMERIC(78, 0) NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_accrual_snapshots_timestamp ON accrual_snapshots(snapshot_timestamp DESC);

		-- Sweep counter table for persistent cycle tracking across restarts
		CREATE TABLE IF NOT EXISTS sweep_counter (
			id INTEGER PRIMARY KEY DEFAULT 1,
			current_sweep INTEGER NOT NULL DEFAULT 0,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
			CONSTRAINT single_row_check CHECK (id = 1)
		);

		-- Insert initial row if it doesn't exist
		INSERT INTO sweep_counter (id, current_sweep)
		VALUES (1, 0)
		ON CONFLICT (id) DO NOTHING;
	`
	_, err := DB.Exec(schemaSQL)
	if err != nil {
		return fmt.Errorf("failed to execute schema DDL: %w", err)
	}
	log.Info().Msg("Database schema ensured.")
	return nil
}

// TestDBConnection tests if the database connection is healthy
func TestDBConnection() error {
	if DB == nil {
		return fmt.Errorf("database connection is nil")
	}

	// Use a short timeout context for health checks
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err := DB.PingContext(ctx)
	if err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}

	return nil
}
