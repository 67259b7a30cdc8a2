package main

import (
	"context"
	"os"
	"strconv"
	"time"

	"github.com/poolside-labs/yieldvault/internal/config"
	"github.com/poolside-labs/yieldvault/internal/logger"
	"github.com/poolside-labs/yieldvault/internal/sim"
	"github.com/poolside-labs/yieldvault/internal/state"
	"github.com/poolside-labs/yieldvault/internal/steward"
	"github.com/poolside-labs/yieldvault/internal/types"
	"github.com/poolside-labs/yieldvault/internal/vault"
	"github.com/poolside-labs/yieldvault/internal/web"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

// main is the entry point for the pool service.
func main() {
	// --- 1. Initialization Phase ---
	if err := godotenv.Load(); err != nil {
		log.Warn().Msg("Warning: .env file not found. Relying on OS environment variables.")
	}

	// Load configuration from environment variables
	if err := config.LoadConfig(); err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logger.Initialize(os.Getenv("LOG_LEVEL"))
	log.Info().Msg("Yield pool service starting...")

	// Initialize Database Connection (operation receipts and accrual snapshots)
	dbCfg := state.DBConfig{
		Host: os.Getenv("DB_HOST"), Port: mustAtoi(os.Getenv("DB_PORT"), 5432),
		User: os.Getenv("DB_USER"), Password: os.Getenv("DB_PASSWORD"),
		DBName: os.Getenv("DB_NAME"), SSLMode: os.Getenv("DB_SSLMODE"),
	}
	if err := state.InitDB(dbCfg); err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize database")
	}
	defer state.CloseDB()
	if err := state.EnsureSchema(); err != nil {
		log.Fatal().Err(err).Msg("Failed to ensure database schema")
	}

	// --- 2. Collaborator Initialization (with Safety Switch) ---
	mode := os.Getenv("POOL_MODE")
	if mode != "sim" {
		log.Fatal().Msg("POOL_MODE is not set to 'sim'. Live collaborators are not wired in this build; set POOL_MODE=sim to run against the in-memory backend.")
	}
	log.Warn().Msg("Initializing pool in SIM mode. All collaborators are in-memory.")

	position := sim.NewYieldPosition()
	exchange := sim.NewExchange()
	bank := sim.NewBank()
	staker := sim.NewStaker(config.RewardDenom)
	feeSink := sim.NewFeeSink()

	rewardAsset := types.Asset{Denom: config.RewardDenom, Symbol: config.RewardDenom, Decimals: config.Asset.Decimals}

	// --- 3. Create Pool Instance with Dependency Injection ---
	log.Info().Msg("Creating pool instance with dependency injection...")

	pool, err := vault.New(vault.Config{
		Name:                config.PoolName,
		Symbol:              config.PoolSymbol,
		Asset:               config.Asset,
		PlatformRate:        config.PlatformRate,
		PerformanceRate:     config.PerformanceRate,
		DepositCapPerWallet: config.DepositCapPerWallet,
		LiquidityCapGlobal:  config.LiquidityCapGlobal,
		RewardRoute:         []types.Asset{rewardAsset},
		FeeDestination:      config.FeeDestination,
		Yield:               position,
		Exchange:            exchange,
		Staker:              staker,
		FeeTo:               feeSink,
		Bank:                bank,
		Authority:           vault.NewStewardAuthority(config.StewardAddress),
		Journal:             state.NewDBJournal(),
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create pool instance")
	}

	log.Info().Msg("Pool instance created successfully")

	// --- Start Web Server ---
	webPort := strconv.FormatUint(config.WebServerPort, 10)
	webServer := web.NewWebServer(webPort, pool)
	go func() {
		log.Info().Str("port", webPort).Str("url", "http://localhost:"+webPort).Msg("Starting pool status API")
		if err := webServer.Start(); err != nil {
			log.Error().Err(err).Msg("Web server failed to start")
		}
	}()

	// --- 4. Start Steward Main Loop ---
	stewardInstance, err := steward.New(steward.Config{
		Pool:           pool,
		Address:        config.StewardAddress,
		PersistCounter: true,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create steward instance")
	}

	interval := time.Duration(config.SweepIntervalSeconds) * time.Second
	log.Info().Str("interval", interval.String()).Msg("Starting steward main loop")

	// Create context for graceful shutdown
	ctx := context.Background()

	// Start the steward loop (this will run indefinitely)
	stewardInstance.RunLoop(ctx, interval)
}

// Helper to convert string to int with a default value
func mustAtoi(s string, defaultValue int) int {
	i, err := strconv.Atoi(s)
	if err != nil {
		return defaultValue
	}
	return i
}
