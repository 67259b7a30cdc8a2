/*
Package sim provides in-memory implementations of the pool's collaborators:
a yield position, a swap venue, a token bank, a reward staker and a fee
recipient. They back dry-run mode and the test suites; nothing here touches
a network.
*/

package sim

import (
	"fmt"
	"sync"

	sdkmath "cosmossdk.io/math"

	"github.com/poolside-labs/yieldvault/internal/types"
)

// YieldPosition simulates an external yield-bearing position. Yield is
// injected with Grow, which scales both the holding and the cumulative index
// by the same factor.
type YieldPosition struct {
	mu       sync.Mutex
	balances map[string]sdkmath.Int
	indexes  map[string]sdkmath.LegacyDec

	// FailNext forces the next mutating call to fail, then clears itself.
	FailNext bool
	// ShortNext makes the next Withdraw pay out one unit less than asked,
	// then clears itself.
	ShortNext bool
}

// NewYieldPosition returns an empty position with all indexes at 1.0.
func NewYieldPosition() *YieldPosition {
	return &YieldPosition{
		balances: make(map[string]sdkmath.Int),
		indexes:  make(map[string]sdkmath.LegacyDec),
	}
}

func (y *YieldPosition) failNext() bool {
	if y.FailNext {
		y.FailNext = false
		return true
	}
	return false
}

func (y *YieldPosition) balance(denom string) sdkmath.Int {
	if bal, ok := y.balances[denom]; ok {
		return bal
	}
	return sdkmath.ZeroInt()
}

func (y *YieldPosition) index(denom string) sdkmath.LegacyDec {
	if idx, ok := y.indexes[denom]; ok {
		return idx
	}
	return sdkmath.LegacyOneDec()
}

func (y *YieldPosition) Deposit(asset types.Asset, amount sdkmath.Int) error {
	y.mu.Lock()
	defer y.mu.Unlock()
	if y.failNext() {
		return fmt.Errorf("simulated position deposit failure")
	}
	y.balances[asset.Denom] = y.balance(asset.Denom).Add(amount)
	return nil
}

func (y *YieldPosition) Withdraw(asset types.Asset, amount sdkmath.Int) (sdkmath.Int, error) {
	y.mu.Lock()
	defer y.mu.Unlock()
	if y.failNext() {
		return sdkmath.ZeroInt(), fmt.Errorf("simulated position withdraw failure")
	}
	held := y.balance(asset.Denom)
	if amount.GT(held) {
		amount = held
	}
	if y.ShortNext && amount.IsPositive() {
		y.ShortNext = false
		amount = amount.Sub(sdkmath.OneInt())
	}
	y.balances[asset.Denom] = held.Sub(amount)
	return amount, nil
}

func (y *YieldPosition) Balance(asset types.Asset) (sdkmath.Int, error) {
	y.mu.Lock()
	defer y.mu.Unlock()
	return y.balance(asset.Denom), nil
}

func (y *YieldPosition) Index(asset types.Asset) (sdkmath.LegacyDec, error) {
	y.mu.Lock()
	defer y.mu.Unlock()
	return y.index(asset.Denom), nil
}

// Grow applies a yield factor to the position: factor 1.25 turns 4000 held
// into 5000 and scales the index identically.
func (y *YieldPosition) Grow(denom string, factor sdkmath.LegacyDec) {
	y.mu.Lock()
	defer y.mu.Unlock()
	y.balances[denom] = factor.MulInt(y.balance(denom)).TruncateInt()
	y.indexes[denom] = y.index(denom).Mul(factor)
}

// SetBalance overwrites the held amount without touching the index, useful
// for constructing loss scenarios where the index alone moves.
func (y *YieldPosition) SetBalance(denom string, amount sdkmath.Int) {
	y.mu.Lock()
	defer y.mu.Unlock()
	y.balances[denom] = amount
}
