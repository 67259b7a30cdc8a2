package sim

import (
	"fmt"
	"sync"

	sdkmath "cosmossdk.io/math"

	"github.com/poolside-labs/yieldvault/internal/mathutil"
	"github.com/poolside-labs/yieldvault/internal/types"
)

// Exchange simulates a swap venue with fixed pairwise prices. Prices are set
// per normalized unit; precision differences between the two assets are
// handled by normalizing in and denormalizing out.
type Exchange struct {
	mu     sync.Mutex
	prices map[string]sdkmath.LegacyDec
}

// NewExchange returns an exchange with no prices configured; swapping an
// unpriced pair fails.
func NewExchange() *Exchange {
	return &Exchange{prices: make(map[string]sdkmath.LegacyDec)}
}

// SetPrice fixes the output-per-input price for a directed pair.
func (e *Exchange) SetPrice(from, to string, price sdkmath.LegacyDec) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.prices[from+"/"+to] = price
}

func (e *Exchange) Swap(path []types.Asset, amountIn, minOut sdkmath.Int) (sdkmath.Int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if len(path) < 2 {
		return sdkmath.ZeroInt(), fmt.Errorf("swap path must contain at least two assets")
	}
	amount, err := mathutil.Normalize(amountIn, path[0].Decimals)
	if err != nil {
		return sdkmath.ZeroInt(), err
	}
	for i := 0; i < len(path)-1; i++ {
		key := path[i].Denom + "/" + path[i+1].Denom
		price, ok := e.prices[key]
		if !ok {
			return sdkmath.ZeroInt(), fmt.Errorf("no price configured for %s", key)
		}
		amount = price.MulInt(amount).TruncateInt()
	}
	out, err := mathutil.Denormalize(amount, path[len(path)-1].Decimals, mathutil.RoundDown)
	if err != nil {
		return sdkmath.ZeroInt(), err
	}
	if !minOut.IsNil() && out.LT(minOut) {
		return sdkmath.ZeroInt(), types.ErrSwapOutputTooLow
	}
	return out, nil
}
