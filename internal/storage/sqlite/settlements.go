package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mmynk/warikan/internal/models"
	"github.com/mmynk/warikan/internal/storage"
)

const settlementColumns = "id, group_id, from_id, to_id, amount, status, created_at"

// ListSettlements retrieves all settlements for a group in plan order.
func (s *SQLiteStore) ListSettlements(ctx context.Context, groupID string) ([]*models.Settlement, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+settlementColumns+" FROM settlements WHERE group_id = ? ORDER BY ordinal, created_at, rowid",
		groupID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list settlements by group: %w", err)
	}
	defer rows.Close()

	var settlements []*models.Settlement
	for rows.Next() {
		settlement, err := scanSettlement(rows)
		if err != nil {
			return nil, err
		}
		settlements = append(settlements, settlement)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate settlements: %w", err)
	}
	return settlements, nil
}

// ApplySettlementPlan removes and inserts settlements in a single transaction.
// Settlements not named in the plan are left untouched.
func (s *SQLiteStore) ApplySettlementPlan(ctx context.Context, groupID string, plan storage.SettlementPlan) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if plan.Current != nil {
		if err := checkCurrent(ctx, tx, groupID, plan.Current); err != nil {
			return err
		}
	}

	for _, id := range plan.Delete {
		if _, err := tx.ExecContext(ctx,
			"DELETE FROM settlements WHERE id = ? AND group_id = ?", id, groupID,
		); err != nil {
			return fmt.Errorf("failed to delete settlement: %w", err)
		}
	}

	now := time.Now().Unix()
	for _, settlement := range plan.Insert {
		if settlement.ID == "" {
			settlement.ID = uuid.New().String()
		}
		if settlement.CreatedAt == 0 {
			settlement.CreatedAt = now
		}
		if settlement.Status == "" {
			settlement.Status = models.StatusPending
		}
		settlement.GroupID = groupID

		_, err := tx.ExecContext(ctx,
			"INSERT INTO settlements ("+settlementColumns+") VALUES (?, ?, ?, ?, ?, ?, ?)",
			settlement.ID, settlement.GroupID, settlement.FromID, settlement.ToID,
			settlement.Amount, string(settlement.Status), settlement.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to insert settlement: %w", err)
		}
	}

	for i, settlement := range plan.Order {
		if _, err := tx.ExecContext(ctx,
			"UPDATE settlements SET ordinal = ? WHERE id = ? AND group_id = ?", i, settlement.ID, groupID,
		); err != nil {
			return fmt.Errorf("failed to order settlements: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// SetSettlementStatus updates the status of a settlement and returns the updated row.
func (s *SQLiteStore) SetSettlementStatus(ctx context.Context, settlementID string, status models.SettlementStatus) (*models.Settlement, error) {
	result, err := s.db.ExecContext(ctx,
		"UPDATE settlements SET status = ? WHERE id = ?", string(status), settlementID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to update settlement status: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to check updated rows: %w", err)
	}
	if n == 0 {
		return nil, fmt.Errorf("settlement %s: %w", settlementID, storage.ErrNotFound)
	}

	row := s.db.QueryRowContext(ctx,
		"SELECT "+settlementColumns+" FROM settlements WHERE id = ?", settlementID,
	)
	settlement, err := scanSettlement(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("settlement %s: %w", settlementID, storage.ErrNotFound)
	}
	return settlement, err
}

// checkCurrent fails with storage.ErrStalePlan unless the group's persisted
// settlement IDs equal want.
func checkCurrent(ctx context.Context, tx *sql.Tx, groupID string, want []string) error {
	rows, err := tx.QueryContext(ctx, "SELECT id FROM settlements WHERE group_id = ?", groupID)
	if err != nil {
		return fmt.Errorf("failed to read current settlements: %w", err)
	}
	defer rows.Close()

	var have []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return fmt.Errorf("failed to scan settlement id: %w", err)
		}
		have = append(have, id)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("failed to iterate settlement ids: %w", err)
	}
	if !storage.SameIDs(have, want) {
		return storage.ErrStalePlan
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSettlement(row scanner) (*models.Settlement, error) {
	settlement := &models.Settlement{}
	var status string
	err := row.Scan(&settlement.ID, &settlement.GroupID, &settlement.FromID, &settlement.ToID,
		&settlement.Amount, &status, &settlement.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan settlement: %w", err)
	}
	settlement.Status = models.SettlementStatus(status)
	return settlement, nil
}
