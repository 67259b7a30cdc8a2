package config

import (
	"errors"
	"os"
	"strconv"

	sdkmath "cosmossdk.io/math"
	"github.com/rs/zerolog/log"

	"github.com/poolside-labs/yieldvault/internal/types"
)

// Application configuration loaded from environment variables.
// These are populated at startup by the LoadConfig function.
var (
	// PoolName and PoolSymbol describe the share token.
	PoolName   string
	PoolSymbol string

	// StewardAddress is the sole caller allowed to run privileged operations.
	StewardAddress string

	// Asset is the initially managed asset.
	Asset types.Asset

	// PlatformRate is the yearly platform fee fraction, e.g. "0.01".
	PlatformRate sdkmath.LegacyDec
	// PerformanceRate is the performance fee fraction, e.g. "0.10".
	PerformanceRate sdkmath.LegacyDec

	// DepositCapPerWallet and LiquidityCapGlobal are in the asset's native
	// precision. Zero or unset means uncapped from the start.
	DepositCapPerWallet sdkmath.Int
	LiquidityCapGlobal  sdkmath.Int

	// FeeDestination is handed to the fee recipient on every sweep.
	FeeDestination string

	// RewardDenom is the denom external staking rewards arrive in.
	RewardDenom string

	// SweepIntervalSeconds is how often the steward loop runs.
	SweepIntervalSeconds uint64

	// WebServerPort is the port for the status API.
	WebServerPort uint64
)

// LoadConfig loads configuration from environment variables and sets the global config vars.
// All environment variables are required and must be set unless noted otherwise.
func LoadConfig() error {
	log.Info().Msg("Loading application configuration from environment variables...")

	var err error

	PoolName, err = getEnv("POOL_NAME")
	if err != nil {
		return err
	}

	PoolSymbol, err = getEnv("POOL_SYMBOL")
	if err != nil {
		return err
	}

	StewardAddress, err = getEnv("STEWARD_ADDRESS")
	if err != nil {
		return err
	}

	denom, err := getEnv("ASSET_DENOM")
	if err != nil {
		return err
	}
	symbol, err := getEnv("ASSET_SYMBOL")
	if err != nil {
		return err
	}
	decimals, err := getEnvAsUint64("ASSET_DECIMALS")
	if err != nil {
		return err
	}
	Asset = types.Asset{Denom: denom, Symbol: symbol, Decimals: uint8(decimals)}

	PlatformRate, err = getEnvAsDec("PLATFORM_FEE_RATE")
	if err != nil {
		return err
	}

	PerformanceRate, err = getEnvAsDec("PERFORMANCE_FEE_RATE")
	if err != nil {
		return err
	}

	DepositCapPerWallet, err = getEnvAsInt("DEPOSIT_CAP_PER_WALLET")
	if err != nil {
		return err
	}

	LiquidityCapGlobal, err = getEnvAsInt("LIQUIDITY_CAP_GLOBAL")
	if err != nil {
		return err
	}

	FeeDestination, err = getEnv("FEE_DESTINATION")
	if err != nil {
		return err
	}

	RewardDenom, err = getEnv("REWARD_DENOM")
	if err != nil {
		return err
	}

	SweepIntervalSeconds, err = getEnvAsUint64("SWEEP_INTERVAL_SECONDS")
	if err != nil {
		return err
	}

	WebServerPort, err = getEnvAsUint64("WEB_SERVER_PORT")
	if err != nil {
		return err
	}

	log.Debug().
		Str("Steward", StewardAddress).
		Str("Asset", Asset.Denom).
		Str("PlatformRate", PlatformRate.String()).
		Str("PerformanceRate", PerformanceRate.String()).
		Msg("Configuration loaded successfully.")

	return nil
}

// getEnv retrieves a string environment variable. Returns error if not set.
func getEnv(key string) (string, error) {
	if value, exists := os.LookupEnv(key); exists {
		return value, nil
	}
	return "", errors.New("environment variable " + key + " is required but not set")
}

// getEnvAsUint64 retrieves an environment variable as a uint64. Returns error if not set or invalid.
func getEnvAsUint64(key string) (uint64, error) {
	valueStr, err := getEnv(key)
	if err != nil {
		return 0, err
	}
	value, err := strconv.ParseUint(valueStr, 10, 64)
	if err != nil {
		return 0, errors.New("environment variable " + key + " must be a valid uint64, got: " + valueStr)
	}
	return value, nil
}

// getEnvAsDec retrieves an environment variable as a decimal fraction. Returns error if not set or invalid.
func getEnvAsDec(key string) (sdkmath.LegacyDec, error) {
	valueStr, err := getEnv(key)
	if err != nil {
		return sdkmath.LegacyDec{}, err
	}
	value, err := sdkmath.LegacyNewDecFromStr(valueStr)
	if err != nil {
		return sdkmath.LegacyDec{}, errors.New("environment variable " + key + " must be a valid decimal, got: " + valueStr)
	}
	return value, nil
}

// getEnvAsInt retrieves an environment variable as an arbitrary-precision integer.
// An unset or empty variable returns a nil Int, meaning "no cap".
func getEnvAsInt(key string) (sdkmath.Int, error) {
	valueStr, exists := os.LookupEnv(key)
	if !exists || valueStr == "" {
		return sdkmath.Int{}, nil
	}
	value, ok := sdkmath.NewIntFromString(valueStr)
	if !ok {
		return sdkmath.Int{}, errors.New("environment variable " + key + " must be a valid integer, got: " + valueStr)
	}
	return value, nil
}
