/*
This file contains the per-user deposit ledger: an append-only sequence of
deposit records per account with a first-live-index cursor, consumed oldest
first by withdrawals and transfers.
*/

package ledger

import (
	"time"

	sdkmath "cosmossdk.io/math"

	"github.com/poolside-labs/yieldvault/internal/mathutil"
	"github.com/poolside-labs/yieldvault/internal/types"
)

// ValueFunc maps a share amount to its current asset value in the normalized
// scale, rounded down. The book uses it to price active records, whose value
// floats with the pool's exchange rate.
type ValueFunc func(shares sdkmath.Int) sdkmath.Int

// Slice is one piece taken out of a single record during a consumption pass.
// Assets is in the normalized scale: for an active slice it is the current
// floating value taken, for an inactive slice the pinned stored amount.
type Slice struct {
	Assets sdkmath.Int
	Shares sdkmath.Int
	Active bool
	Time   time.Time
}

// Book holds every account's deposit sequence and cursor. It is not safe for
// concurrent use; the pool serializes access.
type Book struct {
	records map[string][]types.DepositRecord
	cursor  map[string]int
}

// NewBook returns an empty deposit book.
func NewBook() *Book {
	return &Book{
		records: make(map[string][]types.DepositRecord),
		cursor:  make(map[string]int),
	}
}

// Append adds a new record to the tail of an account's sequence.
func (b *Book) Append(account string, rec types.DepositRecord) {
	b.records[account] = append(b.records[account], rec)
}

// Records returns a copy of an account's full record sequence, tombstones
// included.
func (b *Book) Records(account string) []types.DepositRecord {
	recs := b.records[account]
	out := make([]types.DepositRecord, len(recs))
	copy(out, recs)
	return out
}

// Cursor returns the account's first-live-index.
func (b *Book) Cursor(account string) int {
	return b.cursor[account]
}

// Checkpoint is a copy of one account's records and cursor, taken before a
// consumption pass whose settlement might still fail.
type Checkpoint struct {
	records []types.DepositRecord
	cursor  int
}

// Checkpoint captures the account's current state so a failed settlement can
// put the walk back with Restore.
func (b *Book) Checkpoint(account string) Checkpoint {
	recs := b.records[account]
	cp := Checkpoint{
		records: make([]types.DepositRecord, len(recs)),
		cursor:  b.cursor[account],
	}
	copy(cp.records, recs)
	return cp
}

// Restore rewinds the account to a previously taken checkpoint.
func (b *Book) Restore(account string, cp Checkpoint) {
	b.records[account] = cp.records
	b.cursor[account] = cp.cursor
}

// Balances computes the active/inactive split for an account. All amounts are
// in the normalized scale.
func (b *Book) Balances(account string, lastSweep time.Time, activeValue ValueFunc) types.UserBalances {
	out := types.UserBalances{
		ActiveShares:   sdkmath.ZeroInt(),
		InactiveShares: sdkmath.ZeroInt(),
		ActiveAssets:   sdkmath.ZeroInt(),
		InactiveAssets: sdkmath.ZeroInt(),
	}
	recs := b.records[account]
	for i := b.cursor[account]; i < len(recs); i++ {
		d := recs[i]
		if d.Drained() {
			continue
		}
		if d.Active(lastSweep) {
			out.ActiveShares = out.ActiveShares.Add(d.Shares)
			out.ActiveAssets = out.ActiveAssets.Add(activeValue(d.Shares))
		} else {
			out.InactiveShares = out.InactiveShares.Add(d.Shares)
			out.InactiveAssets = out.InactiveAssets.Add(d.Assets)
		}
	}
	return out
}

// ConsumeValue walks the account's records oldest first, taking up to
// wantAssets of value regardless of whether records are active or inactive.
// The proportional share amount removed from each record rounds up, so the
// owner slightly over-burns rather than the pool under-collecting. Active
// records lose their stored amount entirely on first touch; inactive records
// are decremented by exactly what was taken.
//
// Returns the slices taken plus the value and share totals consumed, which
// may be less than requested if the account runs dry.
func (b *Book) ConsumeValue(account string, wantAssets sdkmath.Int, lastSweep time.Time, activeValue ValueFunc) ([]Slice, sdkmath.Int, sdkmath.Int) {
	var (
		slices      []Slice
		takenAssets = sdkmath.ZeroInt()
		takenShares = sdkmath.ZeroInt()
		remaining   = wantAssets
		recs        = b.records[account]
		last        = -1
	)
	for i := b.cursor[account]; i < len(recs) && remaining.IsPositive(); i++ {
		d := &recs[i]
		if d.Drained() {
			continue
		}
		active := d.Active(lastSweep)
		var value sdkmath.Int
		if active {
			value = activeValue(d.Shares)
		} else {
			value = d.Assets
		}
		if value.IsZero() {
			// Dust record whose value rounds to nothing; leave it alone.
			continue
		}
		take := mathutil.MinInt(remaining, value)
		shares, err := mathutil.MulDiv(d.Shares, take, value, mathutil.RoundUp)
		if err != nil {
			// Inputs are non-negative and value is nonzero; unreachable.
			continue
		}
		shares = mathutil.MinInt(shares, d.Shares)
		if active {
			d.Assets = sdkmath.ZeroInt()
		} else {
			d.Assets = d.Assets.Sub(take)
		}
		d.Shares = d.Shares.Sub(shares)
		if d.Shares.IsZero() {
			d.Assets = sdkmath.ZeroInt()
		}
		slices = append(slices, Slice{Assets: take, Shares: shares, Active: active, Time: d.Time})
		takenAssets = takenAssets.Add(take)
		takenShares = takenShares.Add(shares)
		remaining = remaining.Sub(take)
		last = i
	}
	b.advance(account, last, false)
	return slices, takenAssets, takenShares
}

// ConsumeShares walks the account's records oldest first, taking up to
// wantShares of shares. Inactive slices carry their pro-rata stored amount
// (rounded down, the remainder stays behind); active slices carry no stored
// amount. When activeOnly is set, inactive records are skipped rather than
// consumed and the pass silently takes less than requested.
func (b *Book) ConsumeShares(account string, wantShares sdkmath.Int, lastSweep time.Time, activeOnly bool) ([]Slice, sdkmath.Int) {
	var (
		slices      []Slice
		takenShares = sdkmath.ZeroInt()
		remaining   = wantShares
		recs        = b.records[account]
		last        = -1
		skipped     bool
	)
	for i := b.cursor[account]; i < len(recs) && remaining.IsPositive(); i++ {
		d := &recs[i]
		if d.Drained() {
			continue
		}
		active := d.Active(lastSweep)
		if activeOnly && !active {
			skipped = true
			continue
		}
		take := mathutil.MinInt(remaining, d.Shares)
		assets := sdkmath.ZeroInt()
		if !active {
			out, err := mathutil.MulDiv(d.Assets, take, d.Shares, mathutil.RoundDown)
			if err == nil {
				assets = out
			}
			d.Assets = d.Assets.Sub(assets)
		}
		d.Shares = d.Shares.Sub(take)
		if d.Shares.IsZero() {
			d.Assets = sdkmath.ZeroInt()
		}
		slices = append(slices, Slice{Assets: assets, Shares: take, Active: active, Time: d.Time})
		takenShares = takenShares.Add(take)
		remaining = remaining.Sub(take)
		last = i
	}
	b.advance(account, last, skipped)
	return slices, takenShares
}

// advance moves the cursor past fully drained records at the tail of a
// consumption pass. It never moves past a record with nonzero shares, and it
// does not move at all when the pass skipped an inactive record, so a
// partially filled record earlier in the sequence is never orphaned.
func (b *Book) advance(account string, last int, skipped bool) {
	if last < 0 || skipped {
		return
	}
	recs := b.records[account]
	i := b.cursor[account]
	for i < len(recs) && recs[i].Drained() {
		i++
	}
	b.cursor[account] = i
}
