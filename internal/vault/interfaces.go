/*
This file defines the external collaborators the pool depends on. Every
collaborator is synchronous: a call either fully succeeds or the enclosing
pool operation is abandoned.
*/

package vault

import (
	sdkmath "cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/poolside-labs/yieldvault/internal/types"
)

// YieldAdapter is the external yield-bearing position the pool sweeps idle
// funds into. All amounts are in the asset's native precision.
type YieldAdapter interface {
	// Deposit moves amount of asset from the pool into the position.
	Deposit(asset types.Asset, amount sdkmath.Int) error

	// Withdraw pulls up to amount of asset back out of the position and
	// returns the amount actually received.
	Withdraw(asset types.Asset, amount sdkmath.Int) (sdkmath.Int, error)

	// Balance reports the pool's current holding inside the position,
	// yield included.
	Balance(asset types.Asset) (sdkmath.Int, error)

	// Index reports the position's cumulative yield index for the asset.
	// The pool only ever consumes ratios of successive index readings.
	Index(asset types.Asset) (sdkmath.LegacyDec, error)
}

// Exchange is the swap venue used for rebalancing and reward liquidation.
// It supports direct and multi-hop paths.
type Exchange interface {
	// Swap trades amountIn of path[0] along the path into path[len-1] and
	// returns the output amount. Implementations must fail when the output
	// would be below minOut.
	Swap(path []types.Asset, amountIn, minOut sdkmath.Int) (sdkmath.Int, error)
}

// RewardStaker is the staking/cooldown collaborator for external rewards.
type RewardStaker interface {
	// Claim collects pending rewards into the staking position.
	Claim() (sdk.Coin, error)

	// BeginCooldown starts the unstake cooldown on the claimed rewards.
	BeginCooldown() error

	// Redeem releases rewards whose cooldown has elapsed to the pool.
	Redeem() (sdk.Coin, error)
}

// FeeRecipient receives skimmed platform and performance fees.
type FeeRecipient interface {
	Receive(coin sdk.Coin, destination string) error
}

// TokenMover is the token-transfer plumbing between user wallets and the
// pool's holding buffer.
type TokenMover interface {
	// TransferIn pulls coin from the account into the pool.
	TransferIn(from string, coin sdk.Coin) error

	// TransferOut pays coin out of the pool to the account.
	TransferOut(to string, coin sdk.Coin) error

	// Balance reports how much of denom the pool itself holds.
	Balance(denom string) (sdkmath.Int, error)

	// AccountBalance reports how much of denom an external account holds.
	AccountBalance(account, denom string) (sdkmath.Int, error)
}

// Authority decides whether a caller may perform privileged operations.
// Injecting the policy keeps the core testable without the access-control
// collaborator.
type Authority interface {
	IsAuthorized(caller string) bool
}

// Journal records operation receipts and accrual snapshots. Journal failures
// must never fail the accounting path; implementations log and move on.
type Journal interface {
	RecordOperation(receipt types.OperationReceipt)
	RecordAccrual(snapshot types.AccrualSnapshot)
}

// StewardAuthority authorizes exactly one caller, fixed at construction.
type StewardAuthority struct {
	steward string
}

// NewStewardAuthority returns an Authority recognizing only the given caller.
func NewStewardAuthority(steward string) *StewardAuthority {
	return &StewardAuthority{steward: steward}
}

func (a *StewardAuthority) IsAuthorized(caller string) bool {
	return caller == a.steward
}
