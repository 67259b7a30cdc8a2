/*
This file contains the asset and balance types shared across the engine.
*/

package types

import (
	sdkmath "cosmossdk.io/math"
)

// Asset identifies a fungible token the pool can hold, together with its
// native decimal precision.
type Asset struct {
	Denom    string `json:"denom"`    // e.g., "uusdc"
	Symbol   string `json:"symbol"`   // e.g., "USDC"
	Decimals uint8  `json:"decimals"` // native fractional digits, e.g. 6
}

// Equal reports whether two assets refer to the same token.
func (a Asset) Equal(other Asset) bool {
	return a.Denom == other.Denom
}

// UserBalances is the per-account view split by deployment status. Share
// amounts are in the normalized share scale; asset amounts are in the current
// asset's native precision.
type UserBalances struct {
	ActiveShares   sdkmath.Int `json:"active_shares"`
	InactiveShares sdkmath.Int `json:"inactive_shares"`
	ActiveAssets   sdkmath.Int `json:"active_assets"`
	InactiveAssets sdkmath.Int `json:"inactive_assets"`
}

// TotalShares returns active plus inactive shares.
func (b UserBalances) TotalShares() sdkmath.Int {
	return b.ActiveShares.Add(b.InactiveShares)
}

// TotalAssets returns active plus inactive asset value.
func (b UserBalances) TotalAssets() sdkmath.Int {
	return b.ActiveAssets.Add(b.InactiveAssets)
}
