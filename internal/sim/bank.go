package sim

import (
	"fmt"
	"sync"

	sdkmath "cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"
)

// poolAccount is the bank account holding the pool's own custody.
const poolAccount = "pool"

// Bank simulates the token plumbing between user wallets and the pool. Each
// account holds per-denom balances; transfers fail on insufficient funds the
// way a real bank module would.
type Bank struct {
	mu       sync.Mutex
	accounts map[string]map[string]sdkmath.Int

	// FailNext forces the next outbound transfer to fail, then clears itself.
	FailNext bool
}

// NewBank returns an empty bank.
func NewBank() *Bank {
	return &Bank{accounts: make(map[string]map[string]sdkmath.Int)}
}

// Fund credits an account out of thin air, test setup only.
func (b *Bank) Fund(account, denom string, amount sdkmath.Int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.credit(account, denom, amount)
}

func (b *Bank) balance(account, denom string) sdkmath.Int {
	if denoms, ok := b.accounts[account]; ok {
		if bal, ok := denoms[denom]; ok {
			return bal
		}
	}
	return sdkmath.ZeroInt()
}

func (b *Bank) credit(account, denom string, amount sdkmath.Int) {
	if _, ok := b.accounts[account]; !ok {
		b.accounts[account] = make(map[string]sdkmath.Int)
	}
	b.accounts[account][denom] = b.balance(account, denom).Add(amount)
}

func (b *Bank) debit(account, denom string, amount sdkmath.Int) error {
	held := b.balance(account, denom)
	if amount.GT(held) {
		return fmt.Errorf("account %s holds %s %s, cannot send %s", account, held, denom, amount)
	}
	b.accounts[account][denom] = held.Sub(amount)
	return nil
}

func (b *Bank) TransferIn(from string, coin sdk.Coin) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.debit(from, coin.Denom, coin.Amount); err != nil {
		return err
	}
	b.credit(poolAccount, coin.Denom, coin.Amount)
	return nil
}

func (b *Bank) TransferOut(to string, coin sdk.Coin) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.FailNext {
		b.FailNext = false
		return fmt.Errorf("simulated outbound transfer failure")
	}
	if err := b.debit(poolAccount, coin.Denom, coin.Amount); err != nil {
		return err
	}
	b.credit(to, coin.Denom, coin.Amount)
	return nil
}

func (b *Bank) Balance(denom string) (sdkmath.Int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.balance(poolAccount, denom), nil
}

func (b *Bank) AccountBalance(account, denom string) (sdkmath.Int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.balance(account, denom), nil
}
