package types

import (
	"time"

	sdkmath "cosmossdk.io/math"
)

// DepositRecord is one entry in a user's time-ordered deposit sequence.
// Assets is stored in the normalized 18-digit scale and is meaningful only
// while the record is inactive; once the record becomes active its value
// floats with the pool's exchange rate and is derived from Shares.
//
// A fully consumed record is zeroed in place (tombstoned), never removed, so
// indices held by the per-user cursor stay stable.
type DepositRecord struct {
	Assets sdkmath.Int `json:"assets"`
	Shares sdkmath.Int `json:"shares"`
	Time   time.Time   `json:"time"`
}

// Active reports whether the record predates the most recent sweep and is
// therefore deployed in the yield position. Classification is a pure
// predicate on timestamps; records are never eagerly promoted.
func (d DepositRecord) Active(lastSweep time.Time) bool {
	return !d.Time.After(lastSweep)
}

// Drained reports whether the record has been fully consumed.
func (d DepositRecord) Drained() bool {
	return d.Shares.IsZero()
}
