package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/mmynk/warikan/internal/models"
	"github.com/mmynk/warikan/internal/storage"
)

// ListSettlements retrieves all settlements for a group in plan order.
func (s *Store) ListSettlements(ctx context.Context, groupID string) ([]*models.Settlement, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, group_id, from_id, to_id, amount, status, created_at
		 FROM settlements WHERE group_id = $1 ORDER BY ordinal, seq`,
		groupID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list settlements by group: %w", err)
	}
	defer rows.Close()

	var settlements []*models.Settlement
	for rows.Next() {
		settlement := &models.Settlement{}
		var status string
		if err := rows.Scan(&settlement.ID, &settlement.GroupID, &settlement.FromID, &settlement.ToID,
			&settlement.Amount, &status, &settlement.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan settlement: %w", err)
		}
		settlement.Status = models.SettlementStatus(status)
		settlements = append(settlements, settlement)
	}
	return settlements, rows.Err()
}

// ApplySettlementPlan deletes and inserts settlements in one transaction.
// The advisory lock serialises writers for the group but not the reads a
// plan was computed from; plan.Current is checked under the lock so a plan
// built on rows another process has since replaced fails with
// storage.ErrStalePlan instead of inserting duplicates.
func (s *Store) ApplySettlementPlan(ctx context.Context, groupID string, plan storage.SettlementPlan) error {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return fmt.Errorf("tx begin failed: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, "SELECT pg_advisory_xact_lock(hashtext($1))", groupID); err != nil {
		return fmt.Errorf("advisory lock failed: %w", err)
	}

	if plan.Current != nil {
		rows, err := tx.Query(ctx, "SELECT id FROM settlements WHERE group_id = $1", groupID)
		if err != nil {
			return fmt.Errorf("failed to read current settlements: %w", err)
		}
		have, err := pgx.CollectRows(rows, pgx.RowTo[string])
		if err != nil {
			return fmt.Errorf("failed to read current settlements: %w", err)
		}
		if !storage.SameIDs(have, plan.Current) {
			return storage.ErrStalePlan
		}
	}

	if len(plan.Delete) > 0 {
		if _, err := tx.Exec(ctx,
			"DELETE FROM settlements WHERE group_id = $1 AND id = ANY($2)", groupID, plan.Delete,
		); err != nil {
			return fmt.Errorf("failed to delete settlements: %w", err)
		}
	}

	now := time.Now().Unix()
	batch := &pgx.Batch{}
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
		batch.Queue(
			`INSERT INTO settlements (id, group_id, from_id, to_id, amount, status, created_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			settlement.ID, settlement.GroupID, settlement.FromID, settlement.ToID,
			settlement.Amount, string(settlement.Status), settlement.CreatedAt,
		)
	}
	for i, settlement := range plan.Order {
		batch.Queue("UPDATE settlements SET ordinal = $1 WHERE id = $2 AND group_id = $3", i, settlement.ID, groupID)
	}
	if batch.Len() > 0 {
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return fmt.Errorf("failed to insert settlements: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("tx commit failed: %w", err)
	}
	return nil
}

// SetSettlementStatus updates and returns a settlement.
func (s *Store) SetSettlementStatus(ctx context.Context, settlementID string, status models.SettlementStatus) (*models.Settlement, error) {
	settlement := &models.Settlement{}
	var stored string
	err := s.pool.QueryRow(ctx,
		`UPDATE settlements SET status = $1 WHERE id = $2
		 RETURNING id, group_id, from_id, to_id, amount, status, created_at`,
		string(status), settlementID,
	).Scan(&settlement.ID, &settlement.GroupID, &settlement.FromID, &settlement.ToID,
		&settlement.Amount, &stored, &settlement.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("settlement %s: %w", settlementID, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update settlement status: %w", err)
	}
	settlement.Status = models.SettlementStatus(stored)
	return settlement, nil
}
