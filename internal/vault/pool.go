/*
This file contains the Pool singleton: construction, the share register, and
the conversion engine between asset amounts and share amounts.
*/

package vault

import (
	"fmt"
	"math/big"
	"sync"
	"time"

	sdkmath "cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/rs/zerolog"

	"github.com/poolside-labs/yieldvault/internal/ledger"
	"github.com/poolside-labs/yieldvault/internal/logger"
	"github.com/poolside-labs/yieldvault/internal/mathutil"
	"github.com/poolside-labs/yieldvault/internal/types"
)

const (
	// ShareDecimals is the precision of the share token.
	ShareDecimals = mathutil.NormalizedDecimals

	// feeAccount holds the shares minted as platform and performance fees.
	// They are ordinary pool shares; only the running counters tell them
	// apart from user shares.
	feeAccount = "pool:fees"

	secondsPerYear = 365 * 24 * 60 * 60
)

// UnlimitedAllowance never decrements when spent.
var UnlimitedAllowance = sdkmath.NewIntFromBigInt(new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 256), big.NewInt(1)))

// Config holds everything needed to construct a Pool.
type Config struct {
	Name   string
	Symbol string
	Asset  types.Asset

	// PlatformRate is the yearly platform fee as a fraction, e.g. 0.01.
	PlatformRate sdkmath.LegacyDec
	// PerformanceRate is the performance fee as a fraction, e.g. 0.10.
	PerformanceRate sdkmath.LegacyDec

	// DepositCapPerWallet and LiquidityCapGlobal are in the asset's native
	// precision. They are rescaled whenever the pool rebalances into an
	// asset with a different precision.
	DepositCapPerWallet sdkmath.Int
	LiquidityCapGlobal  sdkmath.Int

	// RewardRoute is the swap path prefix from the reward asset toward the
	// current asset; the current asset is appended at reinvest time.
	RewardRoute []types.Asset

	// FeeDestination is the identifier passed to the fee recipient.
	FeeDestination string

	Yield     YieldAdapter
	Exchange  Exchange
	Staker    RewardStaker
	FeeTo     FeeRecipient
	Bank      TokenMover
	Authority Authority

	// Journal is optional; nil disables journaling.
	Journal Journal

	// Now is the clock; nil means time.Now.
	Now func() time.Time
}

func validatePoolConfig(cfg Config) error {
	if cfg.Asset.Denom == "" {
		return fmt.Errorf("asset denom cannot be empty")
	}
	if cfg.Asset.Decimals > mathutil.NormalizedDecimals {
		return fmt.Errorf("asset decimals cannot exceed %d", mathutil.NormalizedDecimals)
	}
	if cfg.Yield == nil {
		return fmt.Errorf("yield adapter cannot be nil")
	}
	if cfg.Exchange == nil {
		return fmt.Errorf("exchange cannot be nil")
	}
	if cfg.Bank == nil {
		return fmt.Errorf("token mover cannot be nil")
	}
	if cfg.Authority == nil {
		return fmt.Errorf("authority cannot be nil")
	}
	if cfg.PlatformRate.IsNil() || cfg.PlatformRate.IsNegative() {
		return fmt.Errorf("platform rate must be a non-negative decimal")
	}
	if cfg.PerformanceRate.IsNil() || cfg.PerformanceRate.IsNegative() {
		return fmt.Errorf("performance rate must be a non-negative decimal")
	}
	return nil
}

// Pool is the share/asset ledger and fee-accrual engine. One mutex guards all
// state: every operation runs to completion before the next is observed, and
// the FIFO ledger walk is never interleaved.
type Pool struct {
	mu  sync.Mutex
	log zerolog.Logger

	name   string
	symbol string

	asset   types.Asset
	trusted map[string]types.Asset

	balances    map[string]sdkmath.Int
	allowances  map[string]map[string]sdkmath.Int
	totalSupply sdkmath.Int
	book        *ledger.Book

	// buffer is the idle holding in the current asset's native precision.
	buffer sdkmath.Int

	lastSweep time.Time

	// Each cap is tracked independently: an unconfigured cap leaves the
	// other one enforced.
	depositCap      sdkmath.Int
	depositCapped   bool
	liquidityCap    sdkmath.Int
	liquidityCapped bool

	paused   bool
	shutdown bool

	platformRate        sdkmath.LegacyDec
	performanceRate     sdkmath.LegacyDec
	lastPlatformAccrual time.Time
	lastActiveAssets    sdkmath.Int
	lastYieldIndex      sdkmath.LegacyDec
	platformFeeShares   sdkmath.Int
	perfFeeShares       sdkmath.Int

	rewardRoute    []types.Asset
	feeDestination string

	yield    YieldAdapter
	exchange Exchange
	staker   RewardStaker
	feeTo    FeeRecipient
	bank     TokenMover
	auth     Authority
	journal  Journal
	now      func() time.Time
}

// New constructs a Pool from the given configuration.
func New(cfg Config) (*Pool, error) {
	if err := validatePoolConfig(cfg); err != nil {
		return nil, fmt.Errorf("pool configuration validation failed: %w", err)
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	p := &Pool{
		log:               logger.GetForComponent("pool"),
		name:              cfg.Name,
		symbol:            cfg.Symbol,
		asset:             cfg.Asset,
		trusted:           map[string]types.Asset{cfg.Asset.Denom: cfg.Asset},
		balances:          make(map[string]sdkmath.Int),
		allowances:        make(map[string]map[string]sdkmath.Int),
		totalSupply:       sdkmath.ZeroInt(),
		book:              ledger.NewBook(),
		buffer:            sdkmath.ZeroInt(),
		depositCap:        cfg.DepositCapPerWallet,
		liquidityCap:      cfg.LiquidityCapGlobal,
		platformRate:      cfg.PlatformRate,
		performanceRate:   cfg.PerformanceRate,
		lastActiveAssets:  sdkmath.ZeroInt(),
		lastYieldIndex:    sdkmath.LegacyZeroDec(),
		platformFeeShares: sdkmath.ZeroInt(),
		perfFeeShares:     sdkmath.ZeroInt(),
		rewardRoute:       cfg.RewardRoute,
		feeDestination:    cfg.FeeDestination,
		yield:             cfg.Yield,
		exchange:          cfg.Exchange,
		staker:            cfg.Staker,
		feeTo:             cfg.FeeTo,
		bank:              cfg.Bank,
		auth:              cfg.Authority,
		journal:           cfg.Journal,
		now:               now,
	}
	if p.depositCap.IsNil() {
		p.depositCap = sdkmath.ZeroInt()
	} else {
		p.depositCapped = true
	}
	if p.liquidityCap.IsNil() {
		p.liquidityCap = sdkmath.ZeroInt()
	} else {
		p.liquidityCapped = true
	}
	p.log.Info().
		Str("asset", cfg.Asset.Denom).
		Str("platformRate", cfg.PlatformRate.String()).
		Str("performanceRate", cfg.PerformanceRate.String()).
		Msg("Pool created")
	return p, nil
}

// Name returns the share token name.
func (p *Pool) Name() string { return p.name }

// Symbol returns the share token symbol.
func (p *Pool) Symbol() string { return p.symbol }

// Decimals returns the share token precision.
func (p *Pool) Decimals() uint8 { return ShareDecimals }

// Asset returns the current managed asset.
func (p *Pool) Asset() types.Asset {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.asset
}

// Paused reports whether new deposits are blocked.
func (p *Pool) Paused() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.paused
}

// IsShutdown reports whether the pool has been terminally shut down.
func (p *Pool) IsShutdown() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.shutdown
}

// TotalSupply returns the total share supply, fee shares included.
func (p *Pool) TotalSupply() sdkmath.Int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.totalSupply
}

// BalanceOf returns the account's share balance.
func (p *Pool) BalanceOf(account string) sdkmath.Int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.balanceOf(account)
}

// FeeShares returns the accrued platform and performance fee share counters.
func (p *Pool) FeeShares() (platform, performance sdkmath.Int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.platformFeeShares, p.perfFeeShares
}

func (p *Pool) balanceOf(account string) sdkmath.Int {
	if bal, ok := p.balances[account]; ok {
		return bal
	}
	return sdkmath.ZeroInt()
}

func (p *Pool) mint(account string, shares sdkmath.Int) {
	p.balances[account] = p.balanceOf(account).Add(shares)
	p.totalSupply = p.totalSupply.Add(shares)
}

func (p *Pool) burn(account string, shares sdkmath.Int) {
	p.balances[account] = p.balanceOf(account).Sub(shares)
	p.totalSupply = p.totalSupply.Sub(shares)
}

// totals is the conversion-engine snapshot taken once at the start of an
// operation: total managed assets and share supply, both normalized.
type totals struct {
	assets sdkmath.Int
	supply sdkmath.Int
}

// snapshotTotals reads the holding buffer and the position balance and
// normalizes them. totalManagedAssets = idle buffer + active position value.
func (p *Pool) snapshotTotals() (totals, error) {
	active, err := p.yield.Balance(p.asset)
	if err != nil {
		return totals{}, fmt.Errorf("failed to read position balance: %w", err)
	}
	activeNorm, err := mathutil.Normalize(active, p.asset.Decimals)
	if err != nil {
		return totals{}, err
	}
	bufferNorm, err := mathutil.Normalize(p.buffer, p.asset.Decimals)
	if err != nil {
		return totals{}, err
	}
	return totals{assets: activeNorm.Add(bufferNorm), supply: p.totalSupply}, nil
}

// assetsToShares converts a normalized asset amount to shares. With zero
// supply (or a wiped pool) conversion bootstraps 1:1. Rounding direction is
// chosen per operation and never favors the caller.
func (t totals) assetsToShares(assets sdkmath.Int, round mathutil.Rounding) sdkmath.Int {
	if t.supply.IsZero() || t.assets.IsZero() {
		return assets
	}
	out, err := mathutil.MulDiv(assets, t.supply, t.assets, round)
	if err != nil {
		return sdkmath.ZeroInt()
	}
	return out
}

// sharesToAssets converts shares to a normalized asset amount, symmetric to
// assetsToShares.
func (t totals) sharesToAssets(shares sdkmath.Int, round mathutil.Rounding) sdkmath.Int {
	if t.supply.IsZero() || t.assets.IsZero() {
		return shares
	}
	out, err := mathutil.MulDiv(shares, t.assets, t.supply, round)
	if err != nil {
		return sdkmath.ZeroInt()
	}
	return out
}

// activeValuer returns the ledger's pricing function for active records under
// the snapshot exchange rate, rounding down.
func (t totals) activeValuer() ledger.ValueFunc {
	return func(shares sdkmath.Int) sdkmath.Int {
		return t.sharesToAssets(shares, mathutil.RoundDown)
	}
}

func (p *Pool) coin(amount sdkmath.Int) sdk.Coin {
	return sdk.Coin{Denom: p.asset.Denom, Amount: amount}
}

func (p *Pool) recordOperation(receipt types.OperationReceipt) {
	if p.journal == nil {
		return
	}
	p.journal.RecordOperation(receipt)
}

func (p *Pool) recordAccrual(snapshot types.AccrualSnapshot) {
	if p.journal == nil {
		return
	}
	p.journal.RecordAccrual(snapshot)
}
