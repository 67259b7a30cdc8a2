/*
This file contains the deposit and mint entry points. Both append a fresh
deposit record to the receiver's sequence; the record stays inactive (pinned
to its deposited value) until the next sweep.
*/

package vault

import (
	sdkmath "cosmossdk.io/math"
	"github.com/google/uuid"

	"github.com/poolside-labs/yieldvault/internal/mathutil"
	"github.com/poolside-labs/yieldvault/internal/types"
)

// Deposit pulls assets (native precision) from the caller and mints shares to
// the receiver, rounding the share amount down. The requested amount is
// clamped to the caller's remaining deposit headroom under the caps.
func (p *Pool) Deposit(caller, receiver string, assets sdkmath.Int) (sdkmath.Int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.checkOpen(); err != nil {
		return sdkmath.ZeroInt(), err
	}
	if assets.IsNil() || !assets.IsPositive() {
		return sdkmath.ZeroInt(), types.ErrZeroAssets
	}
	assets, err := p.clampToWallet(caller, assets)
	if err != nil {
		return sdkmath.ZeroInt(), err
	}
	assets, err = p.clampToCaps(receiver, assets)
	if err != nil {
		return sdkmath.ZeroInt(), err
	}
	t, err := p.snapshotTotals()
	if err != nil {
		return sdkmath.ZeroInt(), err
	}
	norm, err := mathutil.Normalize(assets, p.asset.Decimals)
	if err != nil {
		return sdkmath.ZeroInt(), err
	}
	shares := t.assetsToShares(norm, mathutil.RoundDown)
	if shares.IsZero() {
		return sdkmath.ZeroInt(), types.ErrZeroShares
	}
	if err := p.settleDeposit(caller, receiver, assets, norm, shares); err != nil {
		return sdkmath.ZeroInt(), err
	}
	return shares, nil
}

// Mint mints up to shares to the receiver, pulling the asset amount required
// at the current rate (rounded up) from the caller. A request whose cost
// exceeds the caller's wallet or the receiver's cap headroom is clamped to
// what the clamped amount affords.
func (p *Pool) Mint(caller, receiver string, shares sdkmath.Int) (sdkmath.Int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.checkOpen(); err != nil {
		return sdkmath.ZeroInt(), err
	}
	if shares.IsNil() || !shares.IsPositive() {
		return sdkmath.ZeroInt(), types.ErrZeroShares
	}
	t, err := p.snapshotTotals()
	if err != nil {
		return sdkmath.ZeroInt(), err
	}
	want, err := mathutil.Denormalize(t.sharesToAssets(shares, mathutil.RoundUp), p.asset.Decimals, mathutil.RoundUp)
	if err != nil {
		return sdkmath.ZeroInt(), err
	}
	if want.IsZero() {
		return sdkmath.ZeroInt(), types.ErrZeroAssets
	}
	assets, err := p.clampToWallet(caller, want)
	if err != nil {
		return sdkmath.ZeroInt(), err
	}
	assets, err = p.clampToCaps(receiver, assets)
	if err != nil {
		return sdkmath.ZeroInt(), err
	}
	if assets.LT(want) {
		// Clamped: mint what the reduced amount affords. Its rounded-up
		// cost never exceeds the clamped amount itself.
		norm, err := mathutil.Normalize(assets, p.asset.Decimals)
		if err != nil {
			return sdkmath.ZeroInt(), err
		}
		shares = t.assetsToShares(norm, mathutil.RoundDown)
		if shares.IsZero() {
			return sdkmath.ZeroInt(), types.ErrZeroShares
		}
		assets, err = mathutil.Denormalize(t.sharesToAssets(shares, mathutil.RoundUp), p.asset.Decimals, mathutil.RoundUp)
		if err != nil {
			return sdkmath.ZeroInt(), err
		}
	}
	// Record the rounded-up native amount so the pinned value matches what
	// actually entered the buffer.
	renorm, err := mathutil.Normalize(assets, p.asset.Decimals)
	if err != nil {
		return sdkmath.ZeroInt(), err
	}
	if err := p.settleDeposit(caller, receiver, assets, renorm, shares); err != nil {
		return sdkmath.ZeroInt(), err
	}
	return assets, nil
}

func (p *Pool) checkOpen() error {
	if p.shutdown {
		return types.ErrShutdown
	}
	if p.paused {
		return types.ErrPaused
	}
	return nil
}

// clampToWallet reduces the requested deposit to what the caller's wallet
// actually holds. Depositing more than the wallet balance deposits the whole
// balance; an empty wallet is a zero-asset request.
func (p *Pool) clampToWallet(caller string, assets sdkmath.Int) (sdkmath.Int, error) {
	held, err := p.bank.AccountBalance(caller, p.asset.Denom)
	if err != nil {
		return sdkmath.ZeroInt(), err
	}
	if held.IsZero() {
		return sdkmath.ZeroInt(), types.ErrZeroAssets
	}
	return mathutil.MinInt(assets, held), nil
}

// uncapped reports whether no deposit limit is in force at all.
func (p *Pool) uncapped() bool {
	return !p.depositCapped && !p.liquidityCapped
}

// clampToCaps reduces the requested deposit to the account's remaining
// headroom. Depositing "more than allowed" silently does as much as possible;
// an account with no headroom at all gets the cap error so it can retry at
// the boundary.
func (p *Pool) clampToCaps(receiver string, assets sdkmath.Int) (sdkmath.Int, error) {
	if p.uncapped() {
		return assets, nil
	}
	room, err := p.maxDepositLocked(receiver)
	if err != nil {
		return sdkmath.ZeroInt(), err
	}
	if room.IsZero() {
		_, err := p.checkCaps(receiver, assets)
		return sdkmath.ZeroInt(), err
	}
	return mathutil.MinInt(assets, room), nil
}

// checkCaps enforces whichever caps are configured without clamping,
// reporting the violated cap value.
func (p *Pool) checkCaps(receiver string, assets sdkmath.Int) (sdkmath.Int, error) {
	if p.liquidityCapped {
		active, err := p.yield.Balance(p.asset)
		if err != nil {
			return sdkmath.ZeroInt(), err
		}
		if p.buffer.Add(active).Add(assets).GT(p.liquidityCap) {
			return sdkmath.ZeroInt(), &types.LiquidityCapError{Cap: p.liquidityCap}
		}
	}
	if p.depositCapped {
		balances, err := p.userBalancesNative(receiver)
		if err != nil {
			return sdkmath.ZeroInt(), err
		}
		if balances.TotalAssets().Add(assets).GT(p.depositCap) {
			return sdkmath.ZeroInt(), &types.DepositCapError{Cap: p.depositCap}
		}
	}
	return assets, nil
}

// settleDeposit moves the tokens in, appends the deposit record, and mints.
func (p *Pool) settleDeposit(caller, receiver string, assets, norm, shares sdkmath.Int) error {
	if err := p.bank.TransferIn(caller, p.coin(assets)); err != nil {
		return err
	}
	now := p.now()
	p.book.Append(receiver, types.DepositRecord{Assets: norm, Shares: shares, Time: now})
	p.mint(receiver, shares)
	p.buffer = p.buffer.Add(assets)
	p.log.Debug().
		Str("caller", caller).
		Str("receiver", receiver).
		Str("assets", assets.String()).
		Str("shares", shares.String()).
		Msg("Deposit settled")
	p.recordOperation(types.OperationReceipt{
		OperationID: uuid.New().String(),
		Kind:        "deposit",
		Account:     receiver,
		Counterpart: caller,
		AssetDenom:  p.asset.Denom,
		Assets:      assets.String(),
		Shares:      shares.String(),
		Success:     true,
		Timestamp:   now,
	})
	return nil
}
