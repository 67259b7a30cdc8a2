/*
This file contains the position-management operations: sweeping the idle
buffer into the yield position, rebalancing the whole pool into a different
asset, and the reward claim/reinvest cycle. All of them are steward gated.
*/

package vault

import (
	"fmt"

	sdkmath "cosmossdk.io/math"
	"github.com/google/uuid"

	"github.com/poolside-labs/yieldvault/internal/mathutil"
	"github.com/poolside-labs/yieldvault/internal/types"
)

// EnterPosition sweeps the entire holding buffer into the yield position and
// marks every buffered deposit record active. Steward only.
func (p *Pool) EnterPosition(caller string) (sdkmath.Int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.auth.IsAuthorized(caller) {
		return sdkmath.ZeroInt(), types.ErrUnauthorized
	}
	if p.shutdown {
		return sdkmath.ZeroInt(), types.ErrShutdown
	}
	swept := p.buffer
	if swept.IsPositive() {
		if err := p.yield.Deposit(p.asset, swept); err != nil {
			return sdkmath.ZeroInt(), fmt.Errorf("failed to enter position: %w", err)
		}
		p.buffer = sdkmath.ZeroInt()
	}
	p.lastSweep = p.now()
	p.log.Info().
		Str("asset", p.asset.Denom).
		Str("amount", swept.String()).
		Msg("Entered yield position")
	p.recordOperation(types.OperationReceipt{
		OperationID: uuid.New().String(),
		Kind:        "enter_position",
		AssetDenom:  p.asset.Denom,
		Assets:      swept.String(),
		Shares:      "0",
		Success:     true,
		Timestamp:   p.lastSweep,
	})
	return swept, nil
}

// Rebalance exits the current position entirely, swaps the proceeds into the
// target asset, and re-enters. Fees accrue against the old position first;
// the performance baseline is re-armed only once the new position exists, so
// the asset switch itself never reads as yield. Caps are rescaled to the
// target's precision. Steward only.
func (p *Pool) Rebalance(caller string, target types.Asset, minOut sdkmath.Int) (sdkmath.Int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.auth.IsAuthorized(caller) {
		return sdkmath.ZeroInt(), types.ErrUnauthorized
	}
	if p.shutdown {
		return sdkmath.ZeroInt(), types.ErrShutdown
	}
	if _, ok := p.trusted[target.Denom]; !ok {
		return sdkmath.ZeroInt(), types.ErrUntrustedAsset
	}
	if err := p.accrueLocked(false); err != nil {
		return sdkmath.ZeroInt(), err
	}

	active, err := p.yield.Balance(p.asset)
	if err != nil {
		return sdkmath.ZeroInt(), fmt.Errorf("failed to read position balance: %w", err)
	}
	if active.IsPositive() {
		got, err := p.yield.Withdraw(p.asset, active)
		if err != nil {
			return sdkmath.ZeroInt(), fmt.Errorf("failed to exit position: %w", err)
		}
		p.buffer = p.buffer.Add(got)
	}
	if target.Denom == p.asset.Denom {
		return sdkmath.ZeroInt(), types.ErrSameAsset
	}

	out := p.buffer
	if p.buffer.IsPositive() {
		out, err = p.exchange.Swap([]types.Asset{p.asset, target}, p.buffer, minOut)
		if err != nil {
			return sdkmath.ZeroInt(), fmt.Errorf("rebalance swap failed: %w", err)
		}
	}

	if p.depositCapped {
		p.depositCap, err = mathutil.Rescale(p.depositCap, p.asset.Decimals, target.Decimals, mathutil.RoundDown)
		if err != nil {
			return sdkmath.ZeroInt(), err
		}
	}
	if p.liquidityCapped {
		p.liquidityCap, err = mathutil.Rescale(p.liquidityCap, p.asset.Decimals, target.Decimals, mathutil.RoundDown)
		if err != nil {
			return sdkmath.ZeroInt(), err
		}
	}
	previous := p.asset
	p.asset = target
	p.buffer = out

	if out.IsPositive() {
		if err := p.yield.Deposit(p.asset, out); err != nil {
			return sdkmath.ZeroInt(), fmt.Errorf("failed to enter position: %w", err)
		}
		p.buffer = sdkmath.ZeroInt()
	}
	p.lastSweep = p.now()
	if err := p.refreshBaseline(); err != nil {
		return sdkmath.ZeroInt(), err
	}

	p.log.Info().
		Str("from", previous.Denom).
		Str("to", target.Denom).
		Str("received", out.String()).
		Msg("Rebalanced into new asset")
	p.recordOperation(types.OperationReceipt{
		OperationID: uuid.New().String(),
		Kind:        "rebalance",
		Account:     previous.Denom,
		Counterpart: target.Denom,
		AssetDenom:  target.Denom,
		Assets:      out.String(),
		Shares:      "0",
		Success:     true,
		Timestamp:   p.lastSweep,
	})
	return out, nil
}

// ClaimAndUnstake collects pending external rewards and immediately starts
// their unstake cooldown. Steward only.
func (p *Pool) ClaimAndUnstake(caller string) (sdkmath.Int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.auth.IsAuthorized(caller) {
		return sdkmath.ZeroInt(), types.ErrUnauthorized
	}
	claimed, err := p.staker.Claim()
	if err != nil {
		return sdkmath.ZeroInt(), fmt.Errorf("reward claim failed: %w", err)
	}
	if err := p.staker.BeginCooldown(); err != nil {
		return sdkmath.ZeroInt(), fmt.Errorf("failed to begin cooldown: %w", err)
	}
	p.log.Info().
		Str("reward", claimed.String()).
		Msg("Claimed rewards and started cooldown")
	p.recordOperation(types.OperationReceipt{
		OperationID: uuid.New().String(),
		Kind:        "claim_unstake",
		AssetDenom:  claimed.Denom,
		Assets:      claimed.Amount.String(),
		Shares:      "0",
		Success:     true,
		Timestamp:   p.now(),
	})
	return claimed.Amount, nil
}

// Reinvest redeems cooled-down rewards, swaps them along the reward route
// into the current asset, takes the performance fee on the proceeds, and
// deposits the proceeds into the yield position. Steward only.
func (p *Pool) Reinvest(caller string, minOut sdkmath.Int) (sdkmath.Int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.auth.IsAuthorized(caller) {
		return sdkmath.ZeroInt(), types.ErrUnauthorized
	}
	if p.shutdown {
		return sdkmath.ZeroInt(), types.ErrShutdown
	}
	redeemed, err := p.staker.Redeem()
	if err != nil {
		return sdkmath.ZeroInt(), fmt.Errorf("reward redemption failed: %w", err)
	}
	if !redeemed.Amount.IsPositive() {
		return sdkmath.ZeroInt(), nil
	}

	path := append(append([]types.Asset{}, p.rewardRoute...), p.asset)
	out, err := p.exchange.Swap(path, redeemed.Amount, minOut)
	if err != nil {
		return sdkmath.ZeroInt(), fmt.Errorf("reinvest swap failed: %w", err)
	}

	// The proceeds are pure yield; the performance fee applies before they
	// join the position. Only the proceeds are deposited: buffered user
	// deposits stay where they are, inactive until the next sweep.
	t, err := p.snapshotTotals()
	if err != nil {
		return sdkmath.ZeroInt(), err
	}
	outNorm, err := mathutil.Normalize(out, p.asset.Decimals)
	if err != nil {
		return sdkmath.ZeroInt(), err
	}
	feeAssets := p.performanceRate.MulInt(outNorm).TruncateInt()
	feeShares := t.assetsToShares(feeAssets, mathutil.RoundDown)

	if err := p.yield.Deposit(p.asset, out); err != nil {
		return sdkmath.ZeroInt(), fmt.Errorf("failed to enter position: %w", err)
	}
	if feeShares.IsPositive() {
		p.mint(feeAccount, feeShares)
		p.perfFeeShares = p.perfFeeShares.Add(feeShares)
	}
	if err := p.refreshBaseline(); err != nil {
		return sdkmath.ZeroInt(), err
	}

	p.log.Info().
		Str("reward", redeemed.String()).
		Str("reinvested", out.String()).
		Str("feeShares", feeShares.String()).
		Msg("Reinvested rewards")
	p.recordOperation(types.OperationReceipt{
		OperationID: uuid.New().String(),
		Kind:        "reinvest",
		AssetDenom:  p.asset.Denom,
		Assets:      out.String(),
		Shares:      feeShares.String(),
		Success:     true,
		Timestamp:   p.now(),
	})
	return out, nil
}
