/*
This file contains the administrative lifecycle controls: pausing deposits,
the terminal shutdown, cap removal, the trusted-asset list and recovery of
stray tokens. Every operation here is steward gated.
*/

package vault

import (
	"fmt"

	sdkmath "cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/google/uuid"

	"github.com/poolside-labs/yieldvault/internal/types"
)

// SetPause toggles the deposit pause. Withdrawals and transfers keep working
// while paused. Steward only.
func (p *Pool) SetPause(caller string, paused bool) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.auth.IsAuthorized(caller) {
		return types.ErrUnauthorized
	}
	p.paused = paused
	p.log.Info().Bool("paused", paused).Msg("Pause state changed")
	return nil
}

// Shutdown permanently closes the pool to new deposits and pulls the entire
// yield position back into the holding buffer so every holder can exit.
// There is no way back. Steward only.
func (p *Pool) Shutdown(caller string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.auth.IsAuthorized(caller) {
		return types.ErrUnauthorized
	}
	if p.shutdown {
		return types.ErrAlreadyShutdown
	}
	active, err := p.yield.Balance(p.asset)
	if err != nil {
		return fmt.Errorf("failed to read position balance: %w", err)
	}
	if active.IsPositive() {
		got, err := p.yield.Withdraw(p.asset, active)
		if err != nil {
			return fmt.Errorf("failed to exit position: %w", err)
		}
		p.buffer = p.buffer.Add(got)
	}
	p.shutdown = true
	p.log.Warn().
		Str("asset", p.asset.Denom).
		Str("recovered", active.String()).
		Msg("Pool shut down")
	p.recordOperation(types.OperationReceipt{
		OperationID: uuid.New().String(),
		Kind:        "shutdown",
		AssetDenom:  p.asset.Denom,
		Assets:      active.String(),
		Shares:      "0",
		Success:     true,
		Timestamp:   p.now(),
	})
	return nil
}

// RemoveLiquidityRestriction irreversibly lifts the per-wallet and global
// deposit caps. Steward only.
func (p *Pool) RemoveLiquidityRestriction(caller string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.auth.IsAuthorized(caller) {
		return types.ErrUnauthorized
	}
	p.depositCapped = false
	p.liquidityCapped = false
	p.depositCap = sdkmath.ZeroInt()
	p.liquidityCap = sdkmath.ZeroInt()
	p.log.Info().Msg("Liquidity restrictions removed")
	return nil
}

// SetTrust adds or removes an asset from the trusted list. The currently
// managed asset cannot be untrusted. Steward only.
func (p *Pool) SetTrust(caller string, asset types.Asset, trusted bool) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.auth.IsAuthorized(caller) {
		return types.ErrUnauthorized
	}
	if !trusted && asset.Denom == p.asset.Denom {
		return types.ErrManagedAsset
	}
	if trusted {
		p.trusted[asset.Denom] = asset
	} else {
		delete(p.trusted, asset.Denom)
	}
	p.log.Info().
		Str("asset", asset.Denom).
		Bool("trusted", trusted).
		Msg("Trusted-asset list updated")
	return nil
}

// SweepStray recovers tokens that ended up in the pool's custody without
// belonging to the accounting: anything except the managed asset can be sent
// to an arbitrary destination. Steward only.
func (p *Pool) SweepStray(caller, denom, destination string) (sdkmath.Int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.auth.IsAuthorized(caller) {
		return sdkmath.ZeroInt(), types.ErrUnauthorized
	}
	if denom == p.asset.Denom {
		return sdkmath.ZeroInt(), types.ErrManagedAsset
	}
	held, err := p.bank.Balance(denom)
	if err != nil {
		return sdkmath.ZeroInt(), fmt.Errorf("failed to read stray balance: %w", err)
	}
	if !held.IsPositive() {
		return sdkmath.ZeroInt(), nil
	}
	if err := p.bank.TransferOut(destination, sdk.Coin{Denom: denom, Amount: held}); err != nil {
		return sdkmath.ZeroInt(), fmt.Errorf("failed to transfer stray tokens: %w", err)
	}
	p.log.Info().
		Str("denom", denom).
		Str("amount", held.String()).
		Str("destination", destination).
		Msg("Swept stray tokens")
	p.recordOperation(types.OperationReceipt{
		OperationID: uuid.New().String(),
		Kind:        "sweep_stray",
		Counterpart: destination,
		AssetDenom:  denom,
		Assets:      held.String(),
		Shares:      "0",
		Success:     true,
		Timestamp:   p.now(),
	})
	return held, nil
}
