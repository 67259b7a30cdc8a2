package vault

import (
	"testing"
	"time"

	sdkmath "cosmossdk.io/math"
	"github.com/stretchr/testify/require"

	"github.com/poolside-labs/yieldvault/internal/types"
)

func TestPlatformFeeAccruesOverTime(t *testing.T) {
	f := newFixture(t, withRates("0.01", "0"))
	f.deposit(t, "alice", usd(1000))
	f.sweep(t)

	// First pass only arms the clock.
	require.NoError(t, f.pool.Accrue())
	platform, _ := f.pool.FeeShares()
	require.True(t, platform.IsZero())

	f.advance(365 * 24 * time.Hour)
	require.NoError(t, f.pool.Accrue())

	// One year at 1% on 1000 active: 10 worth of shares at the 1:1 rate.
	platform, _ = f.pool.FeeShares()
	require.Equal(t, shares(10), platform)
	require.Equal(t, platform, f.pool.BalanceOf("pool:fees"))
}

func TestPlatformFeeIgnoresIdleBuffer(t *testing.T) {
	f := newFixture(t, withRates("0.01", "0"))
	f.deposit(t, "alice", usd(1000))
	// No sweep: everything sits in the buffer.

	require.NoError(t, f.pool.Accrue())
	f.advance(365 * 24 * time.Hour)
	require.NoError(t, f.pool.Accrue())

	platform, _ := f.pool.FeeShares()
	require.True(t, platform.IsZero())
}

func TestPlatformFeeDilutesHolders(t *testing.T) {
	f := newFixture(t, withRates("0.01", "0"))
	f.deposit(t, "alice", usd(1000))
	f.sweep(t)
	require.NoError(t, f.pool.Accrue())
	f.advance(365 * 24 * time.Hour)
	require.NoError(t, f.pool.Accrue())

	// Alice's shares are unchanged but now buy slightly less.
	require.Equal(t, shares(1000), f.pool.BalanceOf("alice"))
	max, err := f.pool.MaxWithdraw("alice")
	require.NoError(t, err)
	require.True(t, max.LT(usd(1000)))
}

func TestPerformanceFeeFirstAccrualOnlyArmsBaseline(t *testing.T) {
	f := newFixture(t, withRates("0", "0.10"))
	f.deposit(t, "alice", usd(1000))
	f.sweep(t)
	f.position.Grow(usdc.Denom, sdkmath.LegacyMustNewDecFromStr("2"))

	// Growth before the baseline exists is never charged.
	require.NoError(t, f.pool.Accrue())
	_, perf := f.pool.FeeShares()
	require.True(t, perf.IsZero())
}

func TestPerformanceFeeOnGain(t *testing.T) {
	f := newFixture(t, withRates("0", "0.10"))
	f.deposit(t, "alice", usd(1000))
	f.sweep(t)
	require.NoError(t, f.pool.Accrue()) // arm baseline at 1000 / index 1.0

	f.position.Grow(usdc.Denom, sdkmath.LegacyMustNewDecFromStr("1.25"))
	require.NoError(t, f.pool.Accrue())

	// Gain 250, fee 25 worth of assets, minted at the post-growth rate:
	// 25 * 1000 / 1250 = 20 shares.
	_, perf := f.pool.FeeShares()
	require.Equal(t, shares(20), perf)
}

func TestPerformanceFeeFlatIndexChargesNothing(t *testing.T) {
	f := newFixture(t, withRates("0", "0.10"))
	f.deposit(t, "alice", usd(1000))
	f.sweep(t)
	require.NoError(t, f.pool.Accrue())
	require.NoError(t, f.pool.Accrue())

	_, perf := f.pool.FeeShares()
	require.True(t, perf.IsZero())
}

func TestPerformanceFeeLossBurnsAccruedShares(t *testing.T) {
	f := newFixture(t, withRates("0", "0.10"))
	f.deposit(t, "alice", usd(1000))
	f.sweep(t)
	require.NoError(t, f.pool.Accrue())

	f.position.Grow(usdc.Denom, sdkmath.LegacyMustNewDecFromStr("1.25"))
	require.NoError(t, f.pool.Accrue())
	_, perfAfterGain := f.pool.FeeShares()
	require.True(t, perfAfterGain.IsPositive())

	f.position.Grow(usdc.Denom, sdkmath.LegacyMustNewDecFromStr("0.8"))
	require.NoError(t, f.pool.Accrue())

	_, perfAfterLoss := f.pool.FeeShares()
	require.True(t, perfAfterLoss.LT(perfAfterGain))
	require.False(t, perfAfterLoss.IsNegative())
}

func TestPerformanceFeeLossNeverBurnsBelowZero(t *testing.T) {
	f := newFixture(t, withRates("0", "0.10"))
	f.deposit(t, "alice", usd(1000))
	f.sweep(t)
	require.NoError(t, f.pool.Accrue())

	// A loss with no accrued performance shares burns nothing.
	f.position.Grow(usdc.Denom, sdkmath.LegacyMustNewDecFromStr("0.5"))
	require.NoError(t, f.pool.Accrue())

	_, perf := f.pool.FeeShares()
	require.True(t, perf.IsZero())
	require.True(t, f.pool.BalanceOf("pool:fees").IsZero())
}

func TestSweepFeesTransmitsAndResets(t *testing.T) {
	f := newFixture(t, withRates("0.01", "0"))
	f.deposit(t, "alice", usd(1000))
	f.sweep(t)
	require.NoError(t, f.pool.Accrue())
	f.advance(365 * 24 * time.Hour)
	require.NoError(t, f.pool.Accrue())

	_, err := f.pool.SweepFees("mallory")
	require.ErrorIs(t, err, types.ErrUnauthorized)

	paid, err := f.pool.SweepFees(stewardAddr)
	require.NoError(t, err)
	require.True(t, paid.IsPositive())

	require.Equal(t, paid, f.feeSink.Total("treasury", usdc.Denom))
	platform, perf := f.pool.FeeShares()
	require.True(t, platform.IsZero())
	require.True(t, perf.IsZero())
	require.True(t, f.pool.BalanceOf("pool:fees").IsZero())
}

func TestSweepFeesFailedTransmitKeepsAccrual(t *testing.T) {
	f := newFixture(t, withRates("0.01", "0"))
	f.deposit(t, "alice", usd(1000))
	f.sweep(t)
	require.NoError(t, f.pool.Accrue())
	f.advance(365 * 24 * time.Hour)
	require.NoError(t, f.pool.Accrue())
	platformBefore, _ := f.pool.FeeShares()
	require.True(t, platformBefore.IsPositive())

	f.feeSink.FailNext = true
	_, err := f.pool.SweepFees(stewardAddr)
	require.Error(t, err)

	// The accrued shares survive the failure, so a retry can pay them.
	platform, _ := f.pool.FeeShares()
	require.Equal(t, platformBefore, platform)
	require.Equal(t, platform, f.pool.BalanceOf("pool:fees"))
	require.True(t, f.feeSink.Total("treasury", usdc.Denom).IsZero())

	paid, err := f.pool.SweepFees(stewardAddr)
	require.NoError(t, err)
	require.True(t, paid.IsPositive())
	require.Equal(t, paid, f.feeSink.Total("treasury", usdc.Denom))
	platform, _ = f.pool.FeeShares()
	require.True(t, platform.IsZero())
}

func TestSweepFeesWithNothingAccruedIsNoop(t *testing.T) {
	f := newFixture(t, withRates("0", "0"))
	f.deposit(t, "alice", usd(1000))

	paid, err := f.pool.SweepFees(stewardAddr)
	require.NoError(t, err)
	require.True(t, paid.IsZero())
}

func TestRebalanceDefersBaselineRefresh(t *testing.T) {
	f := newFixture(t, withRates("0", "0.10"))
	f.deposit(t, "alice", usd(1000))
	f.sweep(t)
	require.NoError(t, f.pool.Accrue())
	f.position.Grow(usdc.Denom, sdkmath.LegacyMustNewDecFromStr("1.25"))

	// The rebalance itself settles the pending gain against the old
	// position before switching assets.
	require.NoError(t, f.pool.SetTrust(stewardAddr, dai, true))
	f.exchange.SetPrice(usdc.Denom, dai.Denom, sdkmath.LegacyOneDec())
	_, err := f.pool.Rebalance(stewardAddr, dai, sdkmath.ZeroInt())
	require.NoError(t, err)

	_, perf := f.pool.FeeShares()
	require.Equal(t, shares(20), perf)

	// Nothing further accrues from the asset switch itself.
	require.NoError(t, f.pool.Accrue())
	_, perfAfter := f.pool.FeeShares()
	require.Equal(t, perf, perfAfter)
}
