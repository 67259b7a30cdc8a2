package steward

import (
	"context"
	"fmt"
	"time"

	sdkmath "cosmossdk.io/math"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/poolside-labs/yieldvault/internal/logger"
	"github.com/poolside-labs/yieldvault/internal/state"
	"github.com/poolside-labs/yieldvault/internal/vault"
)

// Steward is the autonomous operator driving the pool on a fixed cadence:
// fee accrual, reward claiming and reinvestment, and sweeping buffered
// deposits into the yield position.
type Steward struct {
	logger zerolog.Logger
	pool   *vault.Pool

	// address is the identity the pool's authority recognizes.
	address string

	// persistCounter controls whether cycle numbers survive restarts via
	// the database.
	persistCounter bool

	cycleCount int
}

// Config holds the configuration for creating a new Steward instance
type Config struct {
	Pool    *vault.Pool
	Address string

	// PersistCounter enables the database-backed sweep counter.
	PersistCounter bool
}

// New creates a new Steward instance with dependency injection
func New(cfg Config) (*Steward, error) {
	if err := validateStewardConfig(cfg); err != nil {
		return nil, fmt.Errorf("steward configuration validation failed: %w", err)
	}

	s := &Steward{
		logger:         logger.GetForComponent("steward"),
		pool:           cfg.Pool,
		address:        cfg.Address,
		persistCounter: cfg.PersistCounter,
	}

	s.logger.Info().
		Str("address", s.address).
		Msg("Steward instance created successfully with dependency injection")

	return s, nil
}

func validateStewardConfig(cfg Config) error {
	if cfg.Pool == nil {
		return fmt.Errorf("pool cannot be nil")
	}
	if cfg.Address == "" {
		return fmt.Errorf("steward address cannot be empty")
	}
	return nil
}

// RunLoop starts the main steward loop with the specified interval
func (s *Steward) RunLoop(ctx context.Context, interval time.Duration) {
	s.logger.Info().
		Dur("interval", interval).
		Msg("Starting steward main loop")

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	// Run first cycle immediately
	s.cycleCount++
	s.logger.Info().Int("cycle", s.cycleCount).Msg("Initiating steward cycle")
	s.RunCycle(ctx)
	s.logger.Info().Int("cycle", s.cycleCount).Msg("Steward cycle completed")

	// Continue with ticker
	for {
		select {
		case <-ctx.Done():
			s.logger.Info().Msg("Steward loop stopped due to context cancellation")
			return
		case <-ticker.C:
			s.cycleCount++
			s.logger.Info().Int("cycle", s.cycleCount).Msg("Initiating steward cycle")
			s.RunCycle(ctx)
			s.logger.Info().Int("cycle", s.cycleCount).Msg("Steward cycle completed")
		}
	}
}

// RunCycle executes one complete steward cycle
func (s *Steward) RunCycle(ctx context.Context) {
	cycleStartTime := time.Now()

	// Unique cycle ID for tracing logs across the entire cycle
	cycleID := uuid.New().String()
	cycleLogger := s.logger.With().Str("cycle_id", cycleID).Logger()

	cycleLogger.Info().Msg("--- Starting Steward Cycle ---")

	if s.pool.IsShutdown() {
		cycleLogger.Warn().Msg("Cycle skipped: pool is shut down.")
		return
	}
	if ctx.Err() != nil {
		cycleLogger.Info().Msg("Cycle aborted: context cancelled.")
		return
	}

	// --- Step 1: Fee accrual ---
	cycleLogger.Info().Msg("Step 1: Accruing fees...")
	if err := s.pool.Accrue(); err != nil {
		cycleLogger.Error().Err(err).Msg("Cycle aborted: fee accrual failed.")
		return
	}

	// --- Step 2: Reward claim and cooldown ---
	cycleLogger.Info().Msg("Step 2: Claiming rewards and starting cooldown...")
	claimed, err := s.pool.ClaimAndUnstake(s.address)
	if err != nil {
		cycleLogger.Error().Err(err).Msg("Reward claim failed, continuing cycle.")
	} else if claimed.IsPositive() {
		cycleLogger.Info().Str("claimed", claimed.String()).Msg("Rewards claimed.")
	}

	// --- Step 3: Reinvest cooled-down rewards ---
	cycleLogger.Info().Msg("Step 3: Reinvesting redeemable rewards...")
	reinvested, err := s.pool.Reinvest(s.address, sdkmath.ZeroInt())
	if err != nil {
		cycleLogger.Error().Err(err).Msg("Reinvest failed, continuing cycle.")
	} else if reinvested.IsPositive() {
		cycleLogger.Info().Str("reinvested", reinvested.String()).Msg("Rewards reinvested.")
	}

	// --- Step 4: Sweep buffered deposits into the position ---
	cycleLogger.Info().Msg("Step 4: Sweeping holding buffer into position...")
	swept, err := s.pool.EnterPosition(s.address)
	if err != nil {
		cycleLogger.Error().Err(err).Msg("Cycle aborted: position entry failed.")
		return
	}
	cycleLogger.Info().Str("swept", swept.String()).Msg("Buffer swept into position.")

	if s.persistCounter {
		if n, err := state.IncrementSweepCounter(); err != nil {
			cycleLogger.Error().Err(err).Msg("Failed to persist sweep counter.")
		} else {
			cycleLogger.Debug().Int("sweep", n).Msg("Sweep counter persisted.")
		}
	}

	cycleLogger.Info().
		Dur("duration", time.Since(cycleStartTime)).
		Msg("--- Steward Cycle Finished ---")
}
