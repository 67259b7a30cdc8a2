/*
This file contains share transfers. A transfer runs the same oldest-first
ledger walk as a withdrawal but re-homes the consumed slices as fresh records
on the recipient's sequence instead of burning them.
*/

package vault

import (
	"time"

	sdkmath "cosmossdk.io/math"
	"github.com/google/uuid"

	"github.com/poolside-labs/yieldvault/internal/types"
)

// Transfer moves shares from the caller to another account. Active slices
// arrive with no stored amount and a reset timestamp (their value floats);
// inactive slices carry their pro-rata pinned amount and original timestamp.
func (p *Pool) Transfer(caller, to string, shares sdkmath.Int) (sdkmath.Int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.transferLocked(caller, to, shares, false)
}

// TransferActive is the variant restricted to active records: inactive
// records are skipped, and the transfer silently moves less than requested
// when active value runs out.
func (p *Pool) TransferActive(caller, to string, shares sdkmath.Int) (sdkmath.Int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.transferLocked(caller, to, shares, true)
}

// TransferFrom moves shares on behalf of the owner, spending the caller's
// allowance by the shares actually moved.
func (p *Pool) TransferFrom(caller, from, to string, shares sdkmath.Int, activeOnly bool) (sdkmath.Int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.checkAllowance(from, caller, shares); err != nil {
		return sdkmath.ZeroInt(), err
	}
	moved, err := p.transferLocked(from, to, shares, activeOnly)
	if err != nil {
		return sdkmath.ZeroInt(), err
	}
	p.spendAllowance(from, caller, moved)
	return moved, nil
}

func (p *Pool) transferLocked(from, to string, shares sdkmath.Int, activeOnly bool) (sdkmath.Int, error) {
	if shares.IsNil() || !shares.IsPositive() {
		return sdkmath.ZeroInt(), types.ErrZeroShares
	}
	held := p.balanceOf(from)
	if held.IsZero() {
		return sdkmath.ZeroInt(), types.ErrNoBalance
	}
	if !activeOnly && shares.GT(held) {
		return sdkmath.ZeroInt(), types.ErrNoBalance
	}
	slices, moved := p.book.ConsumeShares(from, shares, p.lastSweep, activeOnly)
	if moved.IsZero() {
		// Nothing available in active-only mode moves nothing.
		return sdkmath.ZeroInt(), nil
	}
	for _, s := range slices {
		rec := types.DepositRecord{Assets: s.Assets, Shares: s.Shares, Time: s.Time}
		if s.Active {
			// The slice's value is derived dynamically from its shares;
			// a zero timestamp keeps it classified active for the
			// recipient.
			rec.Assets = sdkmath.ZeroInt()
			rec.Time = time.Time{}
		}
		p.book.Append(to, rec)
	}
	p.balances[from] = p.balanceOf(from).Sub(moved)
	p.balances[to] = p.balanceOf(to).Add(moved)
	p.log.Debug().
		Str("from", from).
		Str("to", to).
		Str("shares", moved.String()).
		Bool("activeOnly", activeOnly).
		Msg("Shares transferred")
	p.recordOperation(types.OperationReceipt{
		OperationID: uuid.New().String(),
		Kind:        "transfer",
		Account:     from,
		Counterpart: to,
		AssetDenom:  p.asset.Denom,
		Assets:      "0",
		Shares:      moved.String(),
		Success:     true,
		Timestamp:   p.now(),
	})
	return moved, nil
}
