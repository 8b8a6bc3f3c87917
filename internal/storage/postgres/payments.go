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

// CreatePayment inserts a payment and its beneficiaries.
func (s *Store) CreatePayment(ctx context.Context, payment *models.Payment) error {
	if payment.ID == "" {
		payment.ID = uuid.New().String()
	}
	if payment.CreatedAt == 0 {
		payment.CreatedAt = time.Now().Unix()
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("tx begin failed: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	_, err = tx.Exec(ctx,
		"INSERT INTO payments (id, group_id, title, amount, payer_id, created_at) VALUES ($1, $2, $3, $4, $5, $6)",
		payment.ID, payment.GroupID, payment.Title, payment.Amount, payment.PayerID, payment.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert payment: %w", err)
	}
	if err := insertBeneficiaries(ctx, tx, payment); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("tx commit failed: %w", err)
	}
	return nil
}

// GetPayment retrieves a payment with its beneficiaries.
func (s *Store) GetPayment(ctx context.Context, paymentID string) (*models.Payment, error) {
	payment := &models.Payment{}
	err := s.pool.QueryRow(ctx,
		"SELECT id, group_id, title, amount, payer_id, created_at FROM payments WHERE id = $1",
		paymentID,
	).Scan(&payment.ID, &payment.GroupID, &payment.Title, &payment.Amount, &payment.PayerID, &payment.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("payment %s: %w", paymentID, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get payment: %w", err)
	}

	beneficiaries, err := s.listBeneficiaries(ctx, "payment_id = $1", paymentID)
	if err != nil {
		return nil, err
	}
	payment.BeneficiaryIDs = beneficiaries[payment.ID]
	return payment, nil
}

// UpdatePayment replaces the mutable fields of a payment.
func (s *Store) UpdatePayment(ctx context.Context, payment *models.Payment) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("tx begin failed: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	ct, err := tx.Exec(ctx,
		"UPDATE payments SET title = $1, amount = $2, payer_id = $3 WHERE id = $4",
		payment.Title, payment.Amount, payment.PayerID, payment.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update payment: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return fmt.Errorf("payment %s: %w", payment.ID, storage.ErrNotFound)
	}

	if _, err := tx.Exec(ctx, "DELETE FROM payment_beneficiaries WHERE payment_id = $1", payment.ID); err != nil {
		return fmt.Errorf("failed to clear beneficiaries: %w", err)
	}
	if err := insertBeneficiaries(ctx, tx, payment); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("tx commit failed: %w", err)
	}
	return nil
}

// DeletePayment removes a payment.
func (s *Store) DeletePayment(ctx context.Context, paymentID string) error {
	ct, err := s.pool.Exec(ctx, "DELETE FROM payments WHERE id = $1", paymentID)
	if err != nil {
		return fmt.Errorf("failed to delete payment: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return fmt.Errorf("payment %s: %w", paymentID, storage.ErrNotFound)
	}
	return nil
}

// ListPayments returns a group's payments, newest first.
func (s *Store) ListPayments(ctx context.Context, groupID string) ([]*models.Payment, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, group_id, title, amount, payer_id, created_at
		 FROM payments WHERE group_id = $1 ORDER BY created_at DESC, seq DESC`,
		groupID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list payments: %w", err)
	}
	defer rows.Close()

	var payments []*models.Payment
	for rows.Next() {
		p := &models.Payment{}
		if err := rows.Scan(&p.ID, &p.GroupID, &p.Title, &p.Amount, &p.PayerID, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan payment: %w", err)
		}
		payments = append(payments, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate payments: %w", err)
	}

	beneficiaries, err := s.listBeneficiaries(ctx,
		"payment_id IN (SELECT id FROM payments WHERE group_id = $1)", groupID)
	if err != nil {
		return nil, err
	}
	for _, p := range payments {
		p.BeneficiaryIDs = beneficiaries[p.ID]
	}
	return payments, nil
}

func insertBeneficiaries(ctx context.Context, tx pgx.Tx, payment *models.Payment) error {
	position := 0
	for _, id := range payment.BeneficiaryIDs {
		if id == "" {
			continue
		}
		ct, err := tx.Exec(ctx,
			`INSERT INTO payment_beneficiaries (payment_id, participant_id, position)
			 VALUES ($1, $2, $3) ON CONFLICT DO NOTHING`,
			payment.ID, id, position,
		)
		if err != nil {
			return fmt.Errorf("failed to insert beneficiary: %w", err)
		}
		if ct.RowsAffected() > 0 {
			position++
		}
	}
	return nil
}

func (s *Store) listBeneficiaries(ctx context.Context, where string, args ...any) (map[string][]string, error) {
	rows, err := s.pool.Query(ctx,
		"SELECT payment_id, participant_id FROM payment_beneficiaries WHERE "+where+" ORDER BY payment_id, position",
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get beneficiaries: %w", err)
	}
	defer rows.Close()

	out := make(map[string][]string)
	for rows.Next() {
		var paymentID, participantID string
		if err := rows.Scan(&paymentID, &participantID); err != nil {
			return nil, fmt.Errorf("failed to scan beneficiary: %w", err)
		}
		out[paymentID] = append(out[paymentID], participantID)
	}
	return out, rows.Err()
}
