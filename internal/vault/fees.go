/*
This file contains the fee accrual engine. Both charges are realized as newly
minted shares credited to the pool's own fee account, diluting all other
holders proportionally; that dilution is how fees are actually paid.
*/

package vault

import (
	"fmt"

	sdkmath "cosmossdk.io/math"
	"github.com/google/uuid"

	"github.com/poolside-labs/yieldvault/internal/mathutil"
	"github.com/poolside-labs/yieldvault/internal/types"
)

// Accrue runs a standalone fee accrual pass: platform fees pro-rata over
// elapsed time, performance fees over the yield-index ratio, with the
// baseline snapshots refreshed to current values. Open to any caller.
func (p *Pool) Accrue() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.accrueLocked(true)
}

// accrueLocked is the shared accrual pass. refreshBaseline is deferred during
// rebalancing until the new position's baseline is known.
func (p *Pool) accrueLocked(refreshBaseline bool) error {
	now := p.now()
	active, err := p.yield.Balance(p.asset)
	if err != nil {
		return fmt.Errorf("failed to read position balance: %w", err)
	}
	index, err := p.yield.Index(p.asset)
	if err != nil {
		return fmt.Errorf("failed to read yield index: %w", err)
	}
	activeNorm, err := mathutil.Normalize(active, p.asset.Decimals)
	if err != nil {
		return err
	}
	bufferNorm, err := mathutil.Normalize(p.buffer, p.asset.Decimals)
	if err != nil {
		return err
	}
	t := totals{assets: activeNorm.Add(bufferNorm), supply: p.totalSupply}

	mintedPlatform := sdkmath.ZeroInt()
	mintedPerf := sdkmath.ZeroInt()
	burnedInsurance := sdkmath.ZeroInt()

	// Platform fee: activeAssets * elapsed * rate / secondsPerYear, minted
	// as shares at the pre-mint rate. The timestamp snapshot always moves.
	if !p.lastPlatformAccrual.IsZero() && p.platformRate.IsPositive() {
		elapsed := int64(now.Sub(p.lastPlatformAccrual).Seconds())
		if elapsed > 0 && activeNorm.IsPositive() {
			feeAssets := p.platformRate.
				MulInt(activeNorm).
				MulInt64(elapsed).
				QuoInt64(secondsPerYear).
				TruncateInt()
			if feeAssets.IsPositive() {
				shares := t.assetsToShares(feeAssets, mathutil.RoundDown)
				if shares.IsPositive() {
					p.mint(feeAccount, shares)
					p.platformFeeShares = p.platformFeeShares.Add(shares)
					mintedPlatform = shares
				}
			}
		}
	}
	p.lastPlatformAccrual = now

	// Performance fee: the first pass only arms the baseline. Afterwards,
	// a gain mints gain * rate as shares; a loss burns previously accrued
	// performance shares as insurance, never below zero.
	if p.lastYieldIndex.IsZero() {
		p.lastActiveAssets = activeNorm
		p.lastYieldIndex = index
	} else if index.IsPositive() {
		ratio := index.Quo(p.lastYieldIndex)
		updated := ratio.MulInt(p.lastActiveAssets).Ceil().TruncateInt()
		if ratio.GTE(sdkmath.LegacyOneDec()) {
			gain := updated.Sub(p.lastActiveAssets)
			feeAssets := p.performanceRate.MulInt(gain).TruncateInt()
			if feeAssets.IsPositive() {
				shares := t.assetsToShares(feeAssets, mathutil.RoundDown)
				if shares.IsPositive() {
					p.mint(feeAccount, shares)
					p.perfFeeShares = p.perfFeeShares.Add(shares)
					mintedPerf = shares
				}
			}
		} else {
			loss := p.lastActiveAssets.Sub(updated)
			insuranceAssets := p.performanceRate.MulInt(loss).TruncateInt()
			insuranceShares := t.assetsToShares(insuranceAssets, mathutil.RoundDown)
			burn := mathutil.MinInt(insuranceShares, p.perfFeeShares)
			if burn.IsPositive() {
				p.burn(feeAccount, burn)
				p.perfFeeShares = p.perfFeeShares.Sub(burn)
				burnedInsurance = burn
			}
		}
		if refreshBaseline {
			p.lastActiveAssets = activeNorm
			p.lastYieldIndex = index
		}
	}

	p.log.Debug().
		Str("activeAssets", active.String()).
		Str("yieldIndex", index.String()).
		Str("mintedPlatform", mintedPlatform.String()).
		Str("mintedPerf", mintedPerf.String()).
		Str("burnedInsurance", burnedInsurance.String()).
		Msg("Fee accrual pass complete")
	p.recordAccrual(types.AccrualSnapshot{
		OperationID:           uuid.New().String(),
		Timestamp:             now,
		AssetDenom:            p.asset.Denom,
		ActiveAssets:          active.String(),
		YieldIndex:            index.String(),
		PlatformFeeShares:     p.platformFeeShares.String(),
		PerformanceFeeShares:  p.perfFeeShares.String(),
		MintedPlatformShares:  mintedPlatform.String(),
		MintedPerfShares:      mintedPerf.String(),
		BurnedInsuranceShares: burnedInsurance.String(),
	})
	return nil
}

// refreshBaseline re-arms the performance-fee snapshots from the current
// position, used after a rebalance establishes the new asset.
func (p *Pool) refreshBaseline() error {
	active, err := p.yield.Balance(p.asset)
	if err != nil {
		return err
	}
	index, err := p.yield.Index(p.asset)
	if err != nil {
		return err
	}
	activeNorm, err := mathutil.Normalize(active, p.asset.Decimals)
	if err != nil {
		return err
	}
	p.lastActiveAssets = activeNorm
	p.lastYieldIndex = index
	return nil
}

// SweepFees redeems the pool's entire fee-share balance for assets and
// transmits them to the fee recipient, resetting both accrued counters.
// Steward only.
func (p *Pool) SweepFees(caller string) (sdkmath.Int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.auth.IsAuthorized(caller) {
		return sdkmath.ZeroInt(), types.ErrUnauthorized
	}
	if err := p.accrueLocked(true); err != nil {
		return sdkmath.ZeroInt(), err
	}
	total := p.platformFeeShares.Add(p.perfFeeShares)
	if total.IsZero() {
		return sdkmath.ZeroInt(), nil
	}
	t, err := p.snapshotTotals()
	if err != nil {
		return sdkmath.ZeroInt(), err
	}
	norm := t.sharesToAssets(total, mathutil.RoundDown)
	native, err := mathutil.Denormalize(norm, p.asset.Decimals, mathutil.RoundDown)
	if err != nil {
		return sdkmath.ZeroInt(), err
	}
	if err := p.ensureBuffer(native); err != nil {
		return sdkmath.ZeroInt(), err
	}
	// Transmit before touching the share register so a failing recipient
	// leaves the accrued fees intact for a retry.
	if err := p.feeTo.Receive(p.coin(native), p.feeDestination); err != nil {
		return sdkmath.ZeroInt(), fmt.Errorf("failed to transmit fees: %w", err)
	}
	p.burn(feeAccount, total)
	p.platformFeeShares = sdkmath.ZeroInt()
	p.perfFeeShares = sdkmath.ZeroInt()
	p.buffer = p.buffer.Sub(native)
	p.log.Info().
		Str("shares", total.String()).
		Str("assets", native.String()).
		Str("destination", p.feeDestination).
		Msg("Fees swept")
	p.recordOperation(types.OperationReceipt{
		OperationID: uuid.New().String(),
		Kind:        "fee_sweep",
		Account:     feeAccount,
		Counterpart: p.feeDestination,
		AssetDenom:  p.asset.Denom,
		Assets:      native.String(),
		Shares:      total.String(),
		Success:     true,
		Timestamp:   p.now(),
	})
	return native, nil
}
