package steward

import (
	"context"
	"os"
	"testing"
	"time"

	sdkmath "cosmossdk.io/math"
	"github.com/stretchr/testify/require"

	"github.com/poolside-labs/yieldvault/internal/logger"
	"github.com/poolside-labs/yieldvault/internal/sim"
	"github.com/poolside-labs/yieldvault/internal/types"
	"github.com/poolside-labs/yieldvault/internal/vault"
)

func TestMain(m *testing.M) {
	logger.Initialize("error")
	os.Exit(m.Run())
}

var usdc = types.Asset{Denom: "uusdc", Symbol: "USDC", Decimals: 6}

func newTestPool(t *testing.T) (*vault.Pool, *sim.Bank, *sim.YieldPosition) {
	t.Helper()
	position := sim.NewYieldPosition()
	bank := sim.NewBank()
	pool, err := vault.New(vault.Config{
		Name:            "Yield Pool USDC",
		Symbol:          "ypUSDC",
		Asset:           usdc,
		PlatformRate:    sdkmath.LegacyZeroDec(),
		PerformanceRate: sdkmath.LegacyZeroDec(),
		RewardRoute:     []types.Asset{usdc},
		FeeDestination:  "treasury",
		Yield:           position,
		Exchange:        sim.NewExchange(),
		Staker:          sim.NewStaker("ureward"),
		FeeTo:           sim.NewFeeSink(),
		Bank:            bank,
		Authority:       vault.NewStewardAuthority("steward"),
	})
	require.NoError(t, err)
	return pool, bank, position
}

func TestNewValidatesConfig(t *testing.T) {
	pool, _, _ := newTestPool(t)

	_, err := New(Config{Address: "steward"})
	require.Error(t, err)

	_, err = New(Config{Pool: pool})
	require.Error(t, err)

	s, err := New(Config{Pool: pool, Address: "steward"})
	require.NoError(t, err)
	require.NotNil(t, s)
}

func TestRunCycleSweepsBufferedDeposits(t *testing.T) {
	pool, bank, position := newTestPool(t)
	s, err := New(Config{Pool: pool, Address: "steward"})
	require.NoError(t, err)

	bank.Fund("alice", usdc.Denom, sdkmath.NewInt(1_000_000_000))
	_, err = pool.Deposit("alice", "alice", sdkmath.NewInt(1_000_000_000))
	require.NoError(t, err)

	s.RunCycle(context.Background())

	require.True(t, pool.InactiveAssets().IsZero())
	held, err := position.Balance(usdc)
	require.NoError(t, err)
	require.Equal(t, sdkmath.NewInt(1_000_000_000), held)

	bal, err := pool.GetUserBalances("alice")
	require.NoError(t, err)
	require.True(t, bal.InactiveShares.IsZero())
	require.True(t, bal.ActiveShares.IsPositive())
}

func TestRunCycleSkipsShutdownPool(t *testing.T) {
	pool, bank, position := newTestPool(t)
	s, err := New(Config{Pool: pool, Address: "steward"})
	require.NoError(t, err)

	bank.Fund("alice", usdc.Denom, sdkmath.NewInt(500))
	_, err = pool.Deposit("alice", "alice", sdkmath.NewInt(500))
	require.NoError(t, err)
	require.NoError(t, pool.Shutdown("steward"))

	s.RunCycle(context.Background())

	held, err := position.Balance(usdc)
	require.NoError(t, err)
	require.True(t, held.IsZero())
}

func TestRunLoopStopsOnContextCancel(t *testing.T) {
	pool, _, _ := newTestPool(t)
	s, err := New(Config{Pool: pool, Address: "steward"})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.RunLoop(ctx, time.Hour)
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("loop did not stop after context cancellation")
	}
}
