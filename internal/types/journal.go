package types

import (
	"time"
)

// OperationReceipt is the journal row written after every state-mutating
// pool operation. Amount columns are decimal strings so the journal does not
// lose precision on 18-digit values.
type OperationReceipt struct {
	ReceiptID   int64     `json:"receipt_id,omitempty"` // Auto-incremented by DB
	OperationID string    `json:"operation_id"`
	Kind        string    `json:"kind"` // deposit, withdraw, transfer, rebalance, ...
	Account     string    `json:"account,omitempty"`
	Counterpart string    `json:"counterpart,omitempty"`
	AssetDenom  string    `json:"asset_denom"`
	Assets      string    `json:"assets"`
	Shares      string    `json:"shares"`
	Success     bool      `json:"success"`
	Message     string    `json:"message,omitempty"`
	Timestamp   time.Time `json:"timestamp"`
}

// AccrualSnapshot captures the fee-engine state after an accrual pass.
type AccrualSnapshot struct {
	SnapshotID            int64     `json:"snapshot_id,omitempty"`
	OperationID           string    `json:"operation_id"`
	Timestamp             time.Time `json:"timestamp"`
	AssetDenom            string    `json:"asset_denom"`
	ActiveAssets          string    `json:"active_assets"`
	YieldIndex            string    `json:"yield_index"`
	PlatformFeeShares     string    `json:"platform_fee_shares"`
	PerformanceFeeShares  string    `json:"performance_fee_shares"`
	MintedPlatformShares  string    `json:"minted_platform_shares"`
	MintedPerfShares      string    `json:"minted_perf_shares"`
	BurnedInsuranceShares string    `json:"burned_insurance_shares"`
}
