// ./internal/state/journal.go
package state

import (
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/poolside-labs/yieldvault/internal/types"
)

// SaveOperationReceipt persists a single operation receipt.
func SaveOperationReceipt(r types.OperationReceipt) error {
	if DB == nil {
		return fmt.Errorf("database not initialized")
	}
	query := `
		INSERT INTO operation_receipts
			(operation_id, kind, account, counterpart, asset_denom, assets, shares, success, message, operation_timestamp)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING receipt_id`
	err := DB.QueryRow(query,
		r.OperationID, r.Kind, r.Account, r.Counterpart, r.AssetDenom,
		r.Assets, r.Shares, r.Success, r.Message, r.Timestamp,
	).Scan(&r.ReceiptID)
	if err != nil {
		return fmt.Errorf("failed to insert operation receipt: %w", err)
	}
	return nil
}

// SaveAccrualSnapshot persists a fee accrual snapshot.
func SaveAccrualSnapshot(s types.AccrualSnapshot) error {
	if DB == nil {
		return fmt.Errorf("database not initialized")
	}
	query := `
		INSERT INTO accrual_snapshots
			(operation_id, snapshot_timestamp, asset_denom, active_assets, yield_index,
			 platform_fee_shares, performance_fee_shares, minted_platform_shares, minted_perf_shares, burned_insurance_shares)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING snapshot_id`
	err := DB.QueryRow(query,
		s.OperationID, s.Timestamp, s.AssetDenom, s.ActiveAssets, s.YieldIndex,
		s.PlatformFeeShares, s.PerformanceFeeShares,
		s.MintedPlatformShares, s.MintedPerfShares, s.BurnedInsuranceShares,
	).Scan(&s.SnapshotID)
	if err != nil {
		return fmt.Errorf("failed to insert accrual snapshot: %w", err)
	}
	return nil
}

// GetRecentReceipts returns the most recent operation receipts, newest first.
func GetRecentReceipts(limit int) ([]types.OperationReceipt, error) {
	if DB == nil {
		return nil, fmt.Errorf("database not initialized")
	}
	query := `
		SELECT receipt_id, operation_id, kind, COALESCE(account, ''), COALESCE(counterpart, ''),
		       asset_denom, assets, shares, success, COALESCE(message, ''), operation_timestamp
		FROM operation_receipts
		ORDER BY operation_timestamp DESC
		LIMIT $1`
	rows, err := DB.Query(query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query operation receipts: %w", err)
	}
	defer rows.Close()

	var receipts []types.OperationReceipt
	for rows.Next() {
		var r types.OperationReceipt
		if err := rows.Scan(&r.ReceiptID, &r.OperationID, &r.Kind, &r.Account, &r.Counterpart,
			&r.AssetDenom, &r.Assets, &r.Shares, &r.Success, &r.Message, &r.Timestamp); err != nil {
			return nil, fmt.Errorf("failed to scan operation receipt: %w", err)
		}
		receipts = append(receipts, r)
	}
	return receipts, rows.Err()
}

// GetRecentAccruals returns the most recent accrual snapshots, newest first.
func GetRecentAccruals(limit int) ([]types.AccrualSnapshot, error) {
	if DB == nil {
		return nil, fmt.Errorf("database not initialized")
	}
	query := `
		SELECT snapshot_id, operation_id, snapshot_timestamp, asset_denom, active_assets, yield_index,
		       platform_fee_shares, performance_fee_shares, minted_platform_shares, minted_perf_shares, burned_insurance_shares
		FROM accrual_snapshots
		ORDER BY snapshot_timestamp DESC
		LIMIT $1`
	rows, err := DB.Query(query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query accrual snapshots: %w", err)
	}
	defer rows.Close()

	var snapshots []types.AccrualSnapshot
	for rows.Next() {
		var s types.AccrualSnapshot
		if err := rows.Scan(&s.SnapshotID, &s.OperationID, &s.Timestamp, &s.AssetDenom, &s.ActiveAssets,
			&s.YieldIndex, &s.PlatformFeeShares, &s.PerformanceFeeShares,
			&s.MintedPlatformShares, &s.MintedPerfShares, &s.BurnedInsuranceShares); err != nil {
			return nil, fmt.Errorf("failed to scan accrual snapshot: %w", err)
		}
		snapshots = append(snapshots, s)
	}
	return snapshots, rows.Err()
}

// IncrementSweepCounter bumps the persistent sweep counter and returns the
// new value.
func IncrementSweepCounter() (int, error) {
	if DB == nil {
		return 0, fmt.Errorf("database not initialized")
	}
	var current int
	query := `
		UPDATE sweep_counter
		SET current_sweep = current_sweep + 1, updated_at = CURRENT_TIMESTAMP
		WHERE id = 1
		RETURNING current_sweep`
	if err := DB.QueryRow(query).Scan(&current); err != nil {
		return 0, fmt.Errorf("failed to increment sweep counter: %w", err)
	}
	return current, nil
}

// GetSweepCounter reads the persistent sweep counter.
func GetSweepCounter() (int, error) {
	if DB == nil {
		return 0, fmt.Errorf("database not initialized")
	}
	var current int
	if err := DB.QueryRow(`SELECT current_sweep FROM sweep_counter WHERE id = 1`).Scan(&current); err != nil {
		return 0, fmt.Errorf("failed to read sweep counter: %w", err)
	}
	return current, nil
}

// DBJournal persists pool receipts and accrual snapshots through the global
// connection. Persistence failures are logged and swallowed so the accounting
// path never depends on the database being up.
type DBJournal struct{}

// NewDBJournal returns a journal backed by the global database.
func NewDBJournal() *DBJournal { return &DBJournal{} }

func (j *DBJournal) RecordOperation(receipt types.OperationReceipt) {
	if err := SaveOperationReceipt(receipt); err != nil {
		log.Error().Err(err).Str("operation_id", receipt.OperationID).Msg("Failed to persist operation receipt")
	}
}

func (j *DBJournal) RecordAccrual(snapshot types.AccrualSnapshot) {
	if err := SaveAccrualSnapshot(snapshot); err != nil {
		log.Error().Err(err).Str("operation_id", snapshot.OperationID).Msg("Failed to persist accrual snapshot")
	}
}
