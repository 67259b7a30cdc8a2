package types

import (
	"errors"
	"fmt"

	sdkmath "cosmossdk.io/math"
)

// User input errors: recoverable, the caller asked for something impossible.
var (
	ErrZeroShares            = errors.New("operation would mint or burn zero shares")
	ErrZeroAssets            = errors.New("operation would move zero assets")
	ErrNoBalance             = errors.New("account has no redeemable balance")
	ErrInsufficientAllowance = errors.New("spender allowance is insufficient")
	ErrSameAsset             = errors.New("target asset equals the current asset")
	ErrUntrustedAsset        = errors.New("asset is not on the trusted list")
	ErrManagedAsset          = errors.New("asset is currently managed by the pool")
)

// Policy errors: recoverable, expected during normal operation.
var (
	ErrPaused          = errors.New("pool is paused")
	ErrShutdown        = errors.New("pool is shut down")
	ErrAlreadyShutdown = errors.New("pool is already shut down")
	ErrUnauthorized    = errors.New("caller is not the steward")
)

// Collaborator errors: surfaced as-is, never retried internally.
var (
	ErrSwapOutputTooLow      = errors.New("swap output below the requested minimum")
	ErrInsufficientLiquidity = errors.New("yield position returned less than the required amount")
)

// DepositCapError reports a deposit that would push a wallet past the
// per-wallet cap. Cap is in the current asset's native precision so the
// caller can retry at the boundary.
type DepositCapError struct {
	Cap sdkmath.Int
}

func (e *DepositCapError) Error() string {
	return fmt.Sprintf("deposit exceeds per-wallet cap of %s", e.Cap)
}

// LiquidityCapError reports a deposit that would push the pool past the
// global liquidity cap.
type LiquidityCapError struct {
	Cap sdkmath.Int
}

func (e *LiquidityCapError) Error() string {
	return fmt.Sprintf("deposit exceeds global liquidity cap of %s", e.Cap)
}
