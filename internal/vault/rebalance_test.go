package vault

import (
	"testing"
	"time"

	sdkmath "cosmossdk.io/math"
	"github.com/stretchr/testify/require"

	"github.com/poolside-labs/yieldvault/internal/types"
)

func TestEnterPositionSweepsBuffer(t *testing.T) {
	f := newFixture(t)
	f.deposit(t, "alice", usd(1000))
	require.Equal(t, usd(1000), f.pool.InactiveAssets())

	_, err := f.pool.EnterPosition("mallory")
	require.ErrorIs(t, err, types.ErrUnauthorized)

	swept, err := f.pool.EnterPosition(stewardAddr)
	require.NoError(t, err)
	require.Equal(t, usd(1000), swept)
	require.True(t, f.pool.InactiveAssets().IsZero())

	active, err := f.pool.ActiveAssets()
	require.NoError(t, err)
	require.Equal(t, usd(1000), active)
}

func TestSecondSweepActivatesLaterDeposits(t *testing.T) {
	f := newFixture(t)
	f.deposit(t, "alice", usd(100))
	f.sweep(t)
	f.advance(time.Hour)
	f.deposit(t, "alice", usd(50))

	f.sweep(t)
	bal, err := f.pool.GetUserBalances("alice")
	require.NoError(t, err)
	require.Equal(t, shares(150), bal.ActiveShares)
}

func TestRebalanceRequiresTrustedTarget(t *testing.T) {
	f := newFixture(t)
	f.deposit(t, "alice", usd(1000))
	f.sweep(t)

	_, err := f.pool.Rebalance(stewardAddr, dai, sdkmath.ZeroInt())
	require.ErrorIs(t, err, types.ErrUntrustedAsset)
}

func TestRebalanceIntoSameAssetFails(t *testing.T) {
	f := newFixture(t)
	f.deposit(t, "alice", usd(1000))
	f.sweep(t)

	_, err := f.pool.Rebalance(stewardAddr, usdc, sdkmath.ZeroInt())
	require.ErrorIs(t, err, types.ErrSameAsset)
}

func TestRebalanceSwitchesAssetAndPreservesValue(t *testing.T) {
	f := newFixture(t)
	f.deposit(t, "alice", usd(1000))
	f.sweep(t)

	require.NoError(t, f.pool.SetTrust(stewardAddr, dai, true))
	f.exchange.SetPrice(usdc.Denom, dai.Denom, sdkmath.LegacyOneDec())

	out, err := f.pool.Rebalance(stewardAddr, dai, sdkmath.ZeroInt())
	require.NoError(t, err)
	require.Equal(t, dai, f.pool.Asset())

	// 1000 USDC at price 1.0 into the 12-decimal asset.
	require.Equal(t, sdkmath.NewIntWithDecimal(1000, 12), out)

	active, err := f.pool.ActiveAssets()
	require.NoError(t, err)
	require.Equal(t, out, active)
	require.True(t, f.pool.InactiveAssets().IsZero())

	// Share balances are untouched by the asset switch.
	require.Equal(t, shares(1000), f.pool.BalanceOf("alice"))
	max, err := f.pool.MaxWithdraw("alice")
	require.NoError(t, err)
	require.Equal(t, sdkmath.NewIntWithDecimal(1000, 12), max)
}

func TestRebalanceEnforcesMinOut(t *testing.T) {
	f := newFixture(t)
	f.deposit(t, "alice", usd(1000))
	f.sweep(t)

	require.NoError(t, f.pool.SetTrust(stewardAddr, dai, true))
	f.exchange.SetPrice(usdc.Denom, dai.Denom, sdkmath.LegacyMustNewDecFromStr("0.5"))

	_, err := f.pool.Rebalance(stewardAddr, dai, sdkmath.NewIntWithDecimal(900, 12))
	require.ErrorIs(t, err, types.ErrSwapOutputTooLow)
}

func TestRebalanceRescalesCaps(t *testing.T) {
	f := newFixture(t, withCaps(usd(500), usd(10_000)))
	f.deposit(t, "alice", usd(500))
	f.sweep(t)

	require.NoError(t, f.pool.SetTrust(stewardAddr, dai, true))
	f.exchange.SetPrice(usdc.Denom, dai.Denom, sdkmath.LegacyOneDec())
	_, err := f.pool.Rebalance(stewardAddr, dai, sdkmath.ZeroInt())
	require.NoError(t, err)

	// Alice already sits at the rescaled wallet cap.
	room, err := f.pool.MaxDeposit("alice")
	require.NoError(t, err)
	require.True(t, room.IsZero())

	// A fresh wallet gets the cap expressed in the new precision.
	room, err = f.pool.MaxDeposit("bob")
	require.NoError(t, err)
	require.Equal(t, sdkmath.NewIntWithDecimal(500, 12), room)
}

func TestRebalanceUnauthorized(t *testing.T) {
	f := newFixture(t)
	_, err := f.pool.Rebalance("mallory", dai, sdkmath.ZeroInt())
	require.ErrorIs(t, err, types.ErrUnauthorized)
}

func TestClaimAndUnstake(t *testing.T) {
	f := newFixture(t)
	f.staker.AddPending(usd(100))

	_, err := f.pool.ClaimAndUnstake("mallory")
	require.ErrorIs(t, err, types.ErrUnauthorized)

	claimed, err := f.pool.ClaimAndUnstake(stewardAddr)
	require.NoError(t, err)
	require.Equal(t, usd(100), claimed)
}

func TestReinvestSwapsRewardsIntoPosition(t *testing.T) {
	f := newFixture(t, withRates("0", "0.10"))
	f.deposit(t, "alice", usd(1000))
	f.sweep(t)

	f.staker.AddPending(usd(100))
	_, err := f.pool.ClaimAndUnstake(stewardAddr)
	require.NoError(t, err)
	f.exchange.SetPrice(reward.Denom, usdc.Denom, sdkmath.LegacyOneDec())

	out, err := f.pool.Reinvest(stewardAddr, sdkmath.ZeroInt())
	require.NoError(t, err)
	require.Equal(t, usd(100), out)

	// Proceeds went straight into the position.
	active, err := f.pool.ActiveAssets()
	require.NoError(t, err)
	require.Equal(t, usd(1100), active)
	require.True(t, f.pool.InactiveAssets().IsZero())

	// The performance cut on the reinvested yield: 10 worth of assets at
	// the pre-add rate of 1:1.
	_, perf := f.pool.FeeShares()
	require.Equal(t, shares(10), perf)
}

func TestReinvestLeavesBufferedDepositsInactive(t *testing.T) {
	f := newFixture(t)
	f.deposit(t, "alice", usd(1000))
	f.sweep(t)
	f.advance(time.Hour)
	// Bob's deposit sits in the buffer when the reinvest runs.
	f.deposit(t, "bob", usd(500))

	f.staker.AddPending(usd(100))
	_, err := f.pool.ClaimAndUnstake(stewardAddr)
	require.NoError(t, err)
	f.exchange.SetPrice(reward.Denom, usdc.Denom, sdkmath.LegacyOneDec())

	out, err := f.pool.Reinvest(stewardAddr, sdkmath.ZeroInt())
	require.NoError(t, err)
	require.Equal(t, usd(100), out)

	// Only the proceeds entered the position; bob stays buffered and
	// inactive until the next sweep.
	active, err := f.pool.ActiveAssets()
	require.NoError(t, err)
	require.Equal(t, usd(1100), active)
	require.Equal(t, usd(500), f.pool.InactiveAssets())

	bal, err := f.pool.GetUserBalances("bob")
	require.NoError(t, err)
	require.True(t, bal.ActiveShares.IsZero())
	require.Equal(t, usd(500), bal.InactiveAssets)
}

func TestReinvestWithNothingRedeemableIsNoop(t *testing.T) {
	f := newFixture(t)
	f.deposit(t, "alice", usd(1000))

	out, err := f.pool.Reinvest(stewardAddr, sdkmath.ZeroInt())
	require.NoError(t, err)
	require.True(t, out.IsZero())
}
