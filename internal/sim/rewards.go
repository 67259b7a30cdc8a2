package sim

import (
	"fmt"
	"sync"

	sdkmath "cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"
)

// Staker simulates the reward claim/cooldown/redeem cycle. Pending rewards
// are queued with AddPending; Claim moves them into cooldown, BeginCooldown
// arms it, Redeem releases whatever has been armed.
type Staker struct {
	mu       sync.Mutex
	denom    string
	pending  sdkmath.Int
	cooling  sdkmath.Int
	redeemed sdkmath.Int
	armed    bool
}

// NewStaker returns a staker paying rewards in the given denom.
func NewStaker(denom string) *Staker {
	return &Staker{
		denom:   denom,
		pending: sdkmath.ZeroInt(),
		cooling: sdkmath.ZeroInt(),
	}
}

// AddPending queues reward tokens for the next claim.
func (s *Staker) AddPending(amount sdkmath.Int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending = s.pending.Add(amount)
}

func (s *Staker) Claim() (sdk.Coin, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	claimed := s.pending
	s.cooling = s.cooling.Add(claimed)
	s.pending = sdkmath.ZeroInt()
	return sdk.Coin{Denom: s.denom, Amount: claimed}, nil
}

func (s *Staker) BeginCooldown() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.armed = true
	return nil
}

func (s *Staker) Redeem() (sdk.Coin, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.armed {
		return sdk.Coin{Denom: s.denom, Amount: sdkmath.ZeroInt()}, nil
	}
	out := s.cooling
	s.cooling = sdkmath.ZeroInt()
	s.armed = false
	return sdk.Coin{Denom: s.denom, Amount: out}, nil
}

// FeeSink records every fee payment it receives, keyed by destination.
type FeeSink struct {
	mu       sync.Mutex
	Received map[string][]sdk.Coin

	// FailNext forces the next Receive to fail, then clears itself.
	FailNext bool
}

// NewFeeSink returns an empty recording fee recipient.
func NewFeeSink() *FeeSink {
	return &FeeSink{Received: make(map[string][]sdk.Coin)}
}

func (f *FeeSink) Receive(coin sdk.Coin, destination string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.FailNext {
		f.FailNext = false
		return fmt.Errorf("simulated fee recipient failure")
	}
	f.Received[destination] = append(f.Received[destination], coin)
	return nil
}

// Total sums everything received for a destination in one denom.
func (f *FeeSink) Total(destination, denom string) sdkmath.Int {
	f.mu.Lock()
	defer f.mu.Unlock()
	total := sdkmath.ZeroInt()
	for _, coin := range f.Received[destination] {
		if coin.Denom == denom {
			total = total.Add(coin.Amount)
		}
	}
	return total
}
