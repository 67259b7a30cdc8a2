/*
This file contains the read-only views: totals, conversions, previews, and
per-account limits. All asset amounts at this boundary are in the current
asset's native precision.
*/

package vault

import (
	sdkmath "cosmossdk.io/math"

	"github.com/poolside-labs/yieldvault/internal/mathutil"
	"github.com/poolside-labs/yieldvault/internal/types"
)

// TotalAssets returns idle buffer plus position holdings, native precision.
func (p *Pool) TotalAssets() (sdkmath.Int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	active, err := p.yield.Balance(p.asset)
	if err != nil {
		return sdkmath.ZeroInt(), err
	}
	return p.buffer.Add(active), nil
}

// ActiveAssets returns the position holdings, native precision.
func (p *Pool) ActiveAssets() (sdkmath.Int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.yield.Balance(p.asset)
}

// InactiveAssets returns the idle holding buffer, native precision.
func (p *Pool) InactiveAssets() sdkmath.Int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.buffer
}

// ConvertToShares converts a native asset amount to shares at the current
// exchange rate, rounding down.
func (p *Pool) ConvertToShares(assets sdkmath.Int) (sdkmath.Int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	t, err := p.snapshotTotals()
	if err != nil {
		return sdkmath.ZeroInt(), err
	}
	norm, err := mathutil.Normalize(assets, p.asset.Decimals)
	if err != nil {
		return sdkmath.ZeroInt(), err
	}
	return t.assetsToShares(norm, mathutil.RoundDown), nil
}

// ConvertToAssets converts shares to a native asset amount at the current
// exchange rate, rounding down.
func (p *Pool) ConvertToAssets(shares sdkmath.Int) (sdkmath.Int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	t, err := p.snapshotTotals()
	if err != nil {
		return sdkmath.ZeroInt(), err
	}
	return mathutil.Denormalize(t.sharesToAssets(shares, mathutil.RoundDown), p.asset.Decimals, mathutil.RoundDown)
}

// PreviewDeposit simulates the shares minted for a native asset deposit.
func (p *Pool) PreviewDeposit(assets sdkmath.Int) (sdkmath.Int, error) {
	return p.ConvertToShares(assets)
}

// PreviewMint simulates the native assets required for a share mint,
// rounding up.
func (p *Pool) PreviewMint(shares sdkmath.Int) (sdkmath.Int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	t, err := p.snapshotTotals()
	if err != nil {
		return sdkmath.ZeroInt(), err
	}
	return mathutil.Denormalize(t.sharesToAssets(shares, mathutil.RoundUp), p.asset.Decimals, mathutil.RoundUp)
}

// PreviewWithdraw simulates the shares burned for a native asset withdrawal,
// rounding up.
func (p *Pool) PreviewWithdraw(assets sdkmath.Int) (sdkmath.Int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	t, err := p.snapshotTotals()
	if err != nil {
		return sdkmath.ZeroInt(), err
	}
	norm, err := mathutil.Normalize(assets, p.asset.Decimals)
	if err != nil {
		return sdkmath.ZeroInt(), err
	}
	return t.assetsToShares(norm, mathutil.RoundUp), nil
}

// PreviewRedeem simulates the native assets returned for a share redemption,
// rounding down.
func (p *Pool) PreviewRedeem(shares sdkmath.Int) (sdkmath.Int, error) {
	return p.ConvertToAssets(shares)
}

// GetUserBalances returns the account's active/inactive share and asset
// split. Asset amounts are native precision.
func (p *Pool) GetUserBalances(account string) (types.UserBalances, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.userBalancesNative(account)
}

func (p *Pool) userBalancesNative(account string) (types.UserBalances, error) {
	t, err := p.snapshotTotals()
	if err != nil {
		return types.UserBalances{}, err
	}
	bal := p.book.Balances(account, p.lastSweep, t.activeValuer())
	activeNative, err := mathutil.Denormalize(bal.ActiveAssets, p.asset.Decimals, mathutil.RoundDown)
	if err != nil {
		return types.UserBalances{}, err
	}
	inactiveNative, err := mathutil.Denormalize(bal.InactiveAssets, p.asset.Decimals, mathutil.RoundDown)
	if err != nil {
		return types.UserBalances{}, err
	}
	bal.ActiveAssets = activeNative
	bal.InactiveAssets = inactiveNative
	return bal, nil
}

// MaxDeposit returns the largest native deposit the account can currently
// make, zero when paused or shut down.
func (p *Pool) MaxDeposit(account string) (sdkmath.Int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.maxDepositLocked(account)
}

func (p *Pool) maxDepositLocked(account string) (sdkmath.Int, error) {
	if p.paused || p.shutdown {
		return sdkmath.ZeroInt(), nil
	}
	if p.uncapped() {
		return UnlimitedAllowance, nil
	}
	room := UnlimitedAllowance
	if p.liquidityCapped {
		active, err := p.yield.Balance(p.asset)
		if err != nil {
			return sdkmath.ZeroInt(), err
		}
		globalRoom := p.liquidityCap.Sub(p.buffer.Add(active))
		if globalRoom.IsNegative() {
			globalRoom = sdkmath.ZeroInt()
		}
		room = mathutil.MinInt(room, globalRoom)
	}
	if p.depositCapped {
		balances, err := p.userBalancesNative(account)
		if err != nil {
			return sdkmath.ZeroInt(), err
		}
		walletRoom := p.depositCap.Sub(balances.TotalAssets())
		if walletRoom.IsNegative() {
			walletRoom = sdkmath.ZeroInt()
		}
		room = mathutil.MinInt(room, walletRoom)
	}
	return room, nil
}

// MaxMint returns the largest share mint the account can currently request.
func (p *Pool) MaxMint(account string) (sdkmath.Int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	room, err := p.maxDepositLocked(account)
	if err != nil {
		return sdkmath.ZeroInt(), err
	}
	if room.Equal(UnlimitedAllowance) {
		return UnlimitedAllowance, nil
	}
	t, err := p.snapshotTotals()
	if err != nil {
		return sdkmath.ZeroInt(), err
	}
	norm, err := mathutil.Normalize(room, p.asset.Decimals)
	if err != nil {
		return sdkmath.ZeroInt(), err
	}
	return t.assetsToShares(norm, mathutil.RoundDown), nil
}

// MaxWithdraw returns the account's currently withdrawable native assets.
func (p *Pool) MaxWithdraw(account string) (sdkmath.Int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	balances, err := p.userBalancesNative(account)
	if err != nil {
		return sdkmath.ZeroInt(), err
	}
	return balances.TotalAssets(), nil
}

// MaxRedeem returns the account's redeemable share balance.
func (p *Pool) MaxRedeem(account string) sdkmath.Int {
	return p.BalanceOf(account)
}
