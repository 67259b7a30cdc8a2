package vault

import (
	"testing"
	"time"

	sdkmath "cosmossdk.io/math"
	"github.com/stretchr/testify/require"

	"github.com/poolside-labs/yieldvault/internal/types"
)

func TestWithdrawRoundTrip(t *testing.T) {
	f := newFixture(t)
	f.deposit(t, "alice", usd(1000))

	out, burned, err := f.pool.Withdraw("alice", "alice", "alice", usd(1000))
	require.NoError(t, err)
	require.Equal(t, usd(1000), out)
	require.Equal(t, shares(1000), burned)
	require.True(t, f.pool.BalanceOf("alice").IsZero())
	require.True(t, f.pool.TotalSupply().IsZero())

	// The wallet got everything back.
	held, err := f.bank.AccountBalance("alice", usdc.Denom)
	require.NoError(t, err)
	require.Equal(t, usd(1000), held)
}

func TestWithdrawClampsToHoldings(t *testing.T) {
	f := newFixture(t)
	f.deposit(t, "alice", usd(300))

	// Asking for more than the account holds withdraws the whole holding.
	out, _, err := f.pool.Withdraw("alice", "alice", "alice", usd(10_000))
	require.NoError(t, err)
	require.Equal(t, usd(300), out)
}

func TestWithdrawFromEmptyAccountFails(t *testing.T) {
	f := newFixture(t)
	f.deposit(t, "alice", usd(100))

	_, _, err := f.pool.Withdraw("bob", "bob", "bob", usd(50))
	require.ErrorIs(t, err, types.ErrNoBalance)

	_, _, err = f.pool.Withdraw("alice", "alice", "alice", sdkmath.ZeroInt())
	require.ErrorIs(t, err, types.ErrZeroAssets)
}

func TestWithdrawAfterYieldPaysProRata(t *testing.T) {
	f := newFixture(t)
	f.deposit(t, "alice", usd(2000))
	f.deposit(t, "bob", usd(4000))
	f.sweep(t)

	// Position grows from 6000 to 9000.
	f.position.Grow(usdc.Denom, sdkmath.LegacyMustNewDecFromStr("1.5"))

	aliceMax, err := f.pool.MaxWithdraw("alice")
	require.NoError(t, err)
	require.Equal(t, usd(3000), aliceMax)

	out, burned, err := f.pool.Withdraw("alice", "alice", "alice", usd(3000))
	require.NoError(t, err)
	require.Equal(t, usd(3000), out)
	require.Equal(t, shares(2000), burned)

	bobMax, err := f.pool.MaxWithdraw("bob")
	require.NoError(t, err)
	require.Equal(t, usd(6000), bobMax)

	total, err := f.pool.TotalAssets()
	require.NoError(t, err)
	require.Equal(t, usd(6000), total)
}

func TestWithdrawConsumesOldestDepositsFirst(t *testing.T) {
	f := newFixture(t)
	f.deposit(t, "alice", usd(100))
	f.sweep(t)
	f.advance(time.Hour)
	f.deposit(t, "alice", usd(200))

	// Withdraw 150: drains the swept 100 first, then 50 of the buffered 200.
	out, _, err := f.pool.Withdraw("alice", "alice", "alice", usd(150))
	require.NoError(t, err)
	require.Equal(t, usd(150), out)

	bal, err := f.pool.GetUserBalances("alice")
	require.NoError(t, err)
	require.True(t, bal.ActiveShares.IsZero())
	require.Equal(t, usd(150), bal.InactiveAssets)
}

func TestWithdrawPullsShortfallFromPosition(t *testing.T) {
	f := newFixture(t)
	f.deposit(t, "alice", usd(1000))
	f.sweep(t)
	require.True(t, f.pool.InactiveAssets().IsZero())

	out, _, err := f.pool.Withdraw("alice", "alice", "alice", usd(400))
	require.NoError(t, err)
	require.Equal(t, usd(400), out)

	// Only the shortfall was pulled; the rest stays in the position.
	active, err := f.pool.ActiveAssets()
	require.NoError(t, err)
	require.Equal(t, usd(600), active)
}

func TestRepeatedYieldAndStaggeredExitsLeaveNoDust(t *testing.T) {
	f := newFixture(t)
	f.deposit(t, "alice", usd(2000))
	f.deposit(t, "bob", usd(4000))
	f.sweep(t)

	// Two yield events: 6000 -> 9000 -> 12000, ending at 2 assets per share.
	// The earned tokens land in pool custody when the position pays out.
	f.position.SetBalance(usdc.Denom, usd(9000))
	f.position.SetBalance(usdc.Denom, usd(12_000))
	f.bank.Fund("pool", usdc.Denom, usd(6000))

	out, burned, err := f.pool.Withdraw("alice", "alice", "alice", usd(2000))
	require.NoError(t, err)
	require.Equal(t, usd(2000), out)
	require.Equal(t, shares(1000), burned)

	out, burned, err = f.pool.Withdraw("bob", "bob", "bob", usd(4000))
	require.NoError(t, err)
	require.Equal(t, usd(4000), out)
	require.Equal(t, shares(2000), burned)

	// Alice asks for more than she holds and exits with the remainder.
	out, burned, err = f.pool.Withdraw("alice", "alice", "alice", usd(7000))
	require.NoError(t, err)
	require.Equal(t, usd(2000), out)
	require.Equal(t, shares(1000), burned)
	require.True(t, f.pool.BalanceOf("alice").IsZero())

	out, burned, err = f.pool.Redeem("bob", "bob", "bob", shares(2000))
	require.NoError(t, err)
	require.Equal(t, usd(4000), out)
	require.Equal(t, shares(2000), burned)
	require.True(t, f.pool.BalanceOf("bob").IsZero())

	// Everyone is out, everything is paid, nothing is stranded.
	require.True(t, f.pool.TotalSupply().IsZero())
	total, err := f.pool.TotalAssets()
	require.NoError(t, err)
	require.True(t, total.IsZero())

	aliceHeld, err := f.bank.AccountBalance("alice", usdc.Denom)
	require.NoError(t, err)
	require.Equal(t, usd(4000), aliceHeld)
	bobHeld, err := f.bank.AccountBalance("bob", usdc.Denom)
	require.NoError(t, err)
	require.Equal(t, usd(8000), bobHeld)
}

func TestWithdrawAbortsCleanlyOnAdapterFailure(t *testing.T) {
	f := newFixture(t)
	f.deposit(t, "alice", usd(1000))
	f.sweep(t)

	f.position.FailNext = true
	_, _, err := f.pool.Withdraw("alice", "alice", "alice", usd(500))
	require.Error(t, err)

	// Nothing changed: shares intact, ledger intact.
	require.Equal(t, shares(1000), f.pool.BalanceOf("alice"))
	max, err := f.pool.MaxWithdraw("alice")
	require.NoError(t, err)
	require.Equal(t, usd(1000), max)
}

func TestWithdrawFailedPayoutLeavesStateIntact(t *testing.T) {
	f := newFixture(t)
	f.deposit(t, "alice", usd(1000))
	f.sweep(t)

	f.bank.FailNext = true
	_, _, err := f.pool.Withdraw("alice", "alice", "alice", usd(500))
	require.Error(t, err)

	// Shares, ledger and totals are exactly as before the attempt.
	require.Equal(t, shares(1000), f.pool.BalanceOf("alice"))
	max, err := f.pool.MaxWithdraw("alice")
	require.NoError(t, err)
	require.Equal(t, usd(1000), max)
	total, err := f.pool.TotalAssets()
	require.NoError(t, err)
	require.Equal(t, usd(1000), total)

	// A retry pays out normally.
	out, _, err := f.pool.Withdraw("alice", "alice", "alice", usd(500))
	require.NoError(t, err)
	require.Equal(t, usd(500), out)
}

func TestWithdrawFailsWhenPositionPaysShort(t *testing.T) {
	f := newFixture(t)
	f.deposit(t, "alice", usd(1000))
	f.sweep(t)

	f.position.ShortNext = true
	_, _, err := f.pool.Withdraw("alice", "alice", "alice", usd(400))
	require.ErrorIs(t, err, types.ErrInsufficientLiquidity)

	// The short pull stays in the buffer; no value left the pool.
	require.Equal(t, shares(1000), f.pool.BalanceOf("alice"))
	total, err := f.pool.TotalAssets()
	require.NoError(t, err)
	require.Equal(t, usd(1000), total)

	// A retry pulls the missing unit and succeeds.
	out, _, err := f.pool.Withdraw("alice", "alice", "alice", usd(400))
	require.NoError(t, err)
	require.Equal(t, usd(400), out)
}

func TestRedeemClampsToShareBalance(t *testing.T) {
	f := newFixture(t)
	f.deposit(t, "alice", usd(500))

	out, burned, err := f.pool.Redeem("alice", "alice", "alice", shares(9999))
	require.NoError(t, err)
	require.Equal(t, usd(500), out)
	require.Equal(t, shares(500), burned)
}

func TestRedeemZeroSharesFails(t *testing.T) {
	f := newFixture(t)
	f.deposit(t, "alice", usd(500))

	_, _, err := f.pool.Redeem("alice", "alice", "alice", sdkmath.ZeroInt())
	require.ErrorIs(t, err, types.ErrZeroShares)
}

func TestThirdPartyWithdrawRequiresAllowance(t *testing.T) {
	f := newFixture(t)
	f.deposit(t, "alice", usd(1000))

	_, _, err := f.pool.Withdraw("carol", "alice", "carol", usd(100))
	require.ErrorIs(t, err, types.ErrInsufficientAllowance)

	f.pool.Approve("alice", "carol", shares(100))
	out, burned, err := f.pool.Withdraw("carol", "alice", "carol", usd(100))
	require.NoError(t, err)
	require.Equal(t, usd(100), out)

	// Allowance is spent by the shares actually burned.
	require.Equal(t, shares(100).Sub(burned), f.pool.Allowance("alice", "carol"))

	held, err := f.bank.AccountBalance("carol", usdc.Denom)
	require.NoError(t, err)
	require.Equal(t, usd(100), held)
}

func TestUnlimitedAllowanceIsNeverSpent(t *testing.T) {
	f := newFixture(t)
	f.deposit(t, "alice", usd(1000))

	f.pool.Approve("alice", "carol", UnlimitedAllowance)
	_, _, err := f.pool.Withdraw("carol", "alice", "carol", usd(600))
	require.NoError(t, err)
	require.Equal(t, UnlimitedAllowance, f.pool.Allowance("alice", "carol"))
}

func TestWithdrawWhilePausedStillWorks(t *testing.T) {
	f := newFixture(t)
	f.deposit(t, "alice", usd(1000))
	require.NoError(t, f.pool.SetPause(stewardAddr, true))

	out, _, err := f.pool.Withdraw("alice", "alice", "alice", usd(1000))
	require.NoError(t, err)
	require.Equal(t, usd(1000), out)
}
