/*
This file contains the withdraw and redeem entry points: the FIFO ledger walk
that consumes deposit records oldest first, burning shares and settling assets
from the holding buffer (pulling from the yield position only when the buffer
is short).
*/

package vault

import (
	"fmt"

	sdkmath "cosmossdk.io/math"
	"github.com/google/uuid"

	"github.com/poolside-labs/yieldvault/internal/mathutil"
	"github.com/poolside-labs/yieldvault/internal/types"
)

// Withdraw sends up to assets (native precision) from owner's holdings to the
// receiver, burning the proportional shares rounded up. Requests beyond the
// owner's withdrawable value are clamped rather than failed; only zero-amount
// requests and empty accounts fail.
func (p *Pool) Withdraw(caller, owner, receiver string, assets sdkmath.Int) (sdkmath.Int, sdkmath.Int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if assets.IsNil() || !assets.IsPositive() {
		return sdkmath.ZeroInt(), sdkmath.ZeroInt(), types.ErrZeroAssets
	}
	norm, err := mathutil.Normalize(assets, p.asset.Decimals)
	if err != nil {
		return sdkmath.ZeroInt(), sdkmath.ZeroInt(), err
	}
	return p.withdrawLocked(caller, owner, receiver, norm)
}

// Redeem burns up to shares of owner's balance and sends the corresponding
// assets (rounded down) to the receiver. The request is clamped to the
// owner's share balance.
func (p *Pool) Redeem(caller, owner, receiver string, shares sdkmath.Int) (sdkmath.Int, sdkmath.Int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if shares.IsNil() || !shares.IsPositive() {
		return sdkmath.ZeroInt(), sdkmath.ZeroInt(), types.ErrZeroShares
	}
	held := p.balanceOf(owner)
	if held.IsZero() {
		return sdkmath.ZeroInt(), sdkmath.ZeroInt(), types.ErrNoBalance
	}
	shares = mathutil.MinInt(shares, held)
	t, err := p.snapshotTotals()
	if err != nil {
		return sdkmath.ZeroInt(), sdkmath.ZeroInt(), err
	}
	norm := t.sharesToAssets(shares, mathutil.RoundDown)
	if norm.IsZero() {
		return sdkmath.ZeroInt(), sdkmath.ZeroInt(), types.ErrZeroAssets
	}
	return p.withdrawLocked(caller, owner, receiver, norm)
}

// withdrawLocked runs the ledger walk for wantNorm (normalized) and settles.
// Returns the native assets paid out and the shares burned.
func (p *Pool) withdrawLocked(caller, owner, receiver string, wantNorm sdkmath.Int) (sdkmath.Int, sdkmath.Int, error) {
	t, err := p.snapshotTotals()
	if err != nil {
		return sdkmath.ZeroInt(), sdkmath.ZeroInt(), err
	}
	valuer := t.activeValuer()
	available := p.book.Balances(owner, p.lastSweep, valuer).TotalAssets()
	if available.IsZero() {
		return sdkmath.ZeroInt(), sdkmath.ZeroInt(), types.ErrNoBalance
	}
	wantNorm = mathutil.MinInt(wantNorm, available)

	// Third-party callers need allowance for the shares about to burn.
	// Check against the rounded-up estimate before touching the ledger.
	if caller != owner {
		estimate := t.assetsToShares(wantNorm, mathutil.RoundUp)
		if err := p.checkAllowance(owner, caller, estimate); err != nil {
			return sdkmath.ZeroInt(), sdkmath.ZeroInt(), err
		}
	}

	// Pull any shortfall from the position before mutating the ledger so a
	// failing adapter aborts the whole operation with no state change.
	needNative, err := mathutil.Denormalize(wantNorm, p.asset.Decimals, mathutil.RoundDown)
	if err != nil {
		return sdkmath.ZeroInt(), sdkmath.ZeroInt(), err
	}
	if err := p.ensureBuffer(needNative); err != nil {
		return sdkmath.ZeroInt(), sdkmath.ZeroInt(), err
	}

	// The ledger walk is the one mutation that cannot be re-derived, so it
	// is checkpointed: a failing payout rewinds it and leaves shares,
	// allowances and the buffer untouched.
	cp := p.book.Checkpoint(owner)
	_, takenAssets, takenShares := p.book.ConsumeValue(owner, wantNorm, p.lastSweep, valuer)
	if takenShares.IsZero() {
		return sdkmath.ZeroInt(), sdkmath.ZeroInt(), types.ErrZeroShares
	}
	outNative, err := mathutil.Denormalize(takenAssets, p.asset.Decimals, mathutil.RoundDown)
	if err != nil {
		p.book.Restore(owner, cp)
		return sdkmath.ZeroInt(), sdkmath.ZeroInt(), err
	}
	if outNative.IsZero() {
		p.book.Restore(owner, cp)
		return sdkmath.ZeroInt(), sdkmath.ZeroInt(), types.ErrZeroAssets
	}
	if err := p.bank.TransferOut(receiver, p.coin(outNative)); err != nil {
		p.book.Restore(owner, cp)
		return sdkmath.ZeroInt(), sdkmath.ZeroInt(), fmt.Errorf("failed to pay out withdrawal: %w", err)
	}
	if caller != owner {
		p.spendAllowance(owner, caller, takenShares)
	}
	p.burn(owner, takenShares)
	p.buffer = p.buffer.Sub(outNative)
	p.log.Debug().
		Str("owner", owner).
		Str("receiver", receiver).
		Str("assets", outNative.String()).
		Str("shares", takenShares.String()).
		Msg("Withdrawal settled")
	p.recordOperation(types.OperationReceipt{
		OperationID: uuid.New().String(),
		Kind:        "withdraw",
		Account:     owner,
		Counterpart: receiver,
		AssetDenom:  p.asset.Denom,
		Assets:      outNative.String(),
		Shares:      takenShares.String(),
		Success:     true,
		Timestamp:   p.now(),
	})
	return outNative, takenShares, nil
}

// ensureBuffer tops the holding buffer up to at least need by pulling the
// shortfall, and only the shortfall, from the yield position. A position that
// pays out less than asked fails the operation; whatever was received stays
// in the buffer so no value is lost.
func (p *Pool) ensureBuffer(need sdkmath.Int) error {
	if p.buffer.GTE(need) {
		return nil
	}
	shortfall := need.Sub(p.buffer)
	actual, err := p.yield.Withdraw(p.asset, shortfall)
	if err != nil {
		return fmt.Errorf("failed to pull shortfall from position: %w", err)
	}
	p.buffer = p.buffer.Add(actual)
	if p.buffer.LT(need) {
		return fmt.Errorf("pulled %s of a %s shortfall: %w", actual, shortfall, types.ErrInsufficientLiquidity)
	}
	return nil
}

// Approve sets the spender's allowance over the owner's shares.
func (p *Pool) Approve(owner, spender string, shares sdkmath.Int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.allowances[owner] == nil {
		p.allowances[owner] = make(map[string]sdkmath.Int)
	}
	p.allowances[owner][spender] = shares
}

// Allowance returns the spender's remaining allowance over the owner's shares.
func (p *Pool) Allowance(owner, spender string) sdkmath.Int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.allowance(owner, spender)
}

func (p *Pool) allowance(owner, spender string) sdkmath.Int {
	if m, ok := p.allowances[owner]; ok {
		if al, ok := m[spender]; ok {
			return al
		}
	}
	return sdkmath.ZeroInt()
}

func (p *Pool) checkAllowance(owner, spender string, shares sdkmath.Int) error {
	al := p.allowance(owner, spender)
	if al.Equal(UnlimitedAllowance) {
		return nil
	}
	if al.LT(shares) {
		return types.ErrInsufficientAllowance
	}
	return nil
}

// spendAllowance decrements the allowance by the shares actually burned,
// saturating at zero. Unlimited allowances are never decremented.
func (p *Pool) spendAllowance(owner, spender string, shares sdkmath.Int) {
	al := p.allowance(owner, spender)
	if al.Equal(UnlimitedAllowance) {
		return
	}
	spent := mathutil.MinInt(al, shares)
	p.allowances[owner][spender] = al.Sub(spent)
}
