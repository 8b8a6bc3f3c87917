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

// CreatePayment persists a new payment and its beneficiaries.
func (s *SQLiteStore) CreatePayment(ctx context.Context, payment *models.Payment) error {
	if payment.ID == "" {
		payment.ID = uuid.New().String()
	}
	if payment.CreatedAt == 0 {
		payment.CreatedAt = time.Now().Unix()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		"INSERT INTO payments (id, group_id, title, amount, payer_id, created_at) VALUES (?, ?, ?, ?, ?, ?)",
		payment.ID, payment.GroupID, payment.Title, payment.Amount, payment.PayerID, payment.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert payment: %w", err)
	}

	if err := insertBeneficiaries(ctx, tx, payment); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// GetPayment retrieves a payment by ID, including its beneficiaries.
func (s *SQLiteStore) GetPayment(ctx context.Context, paymentID string) (*models.Payment, error) {
	payment := &models.Payment{}
	err := s.db.QueryRowContext(ctx,
		"SELECT id, group_id, title, amount, payer_id, created_at FROM payments WHERE id = ?",
		paymentID,
	).Scan(&payment.ID, &payment.GroupID, &payment.Title, &payment.Amount, &payment.PayerID, &payment.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("payment %s: %w", paymentID, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get payment: %w", err)
	}

	beneficiaries, err := s.listBeneficiaries(ctx, "payment_id = ?", paymentID)
	if err != nil {
		return nil, err
	}
	payment.BeneficiaryIDs = beneficiaries[payment.ID]
	return payment, nil
}

// UpdatePayment replaces the mutable fields of a payment.
func (s *SQLiteStore) UpdatePayment(ctx context.Context, payment *models.Payment) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx,
		"UPDATE payments SET title = ?, amount = ?, payer_id = ? WHERE id = ?",
		payment.Title, payment.Amount, payment.PayerID, payment.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update payment: %w", err)
	}
	if n, err := result.RowsAffected(); err != nil {
		return fmt.Errorf("failed to check updated rows: %w", err)
	} else if n == 0 {
		return fmt.Errorf("payment %s: %w", payment.ID, storage.ErrNotFound)
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM payment_beneficiaries WHERE payment_id = ?", payment.ID); err != nil {
		return fmt.Errorf("failed to clear beneficiaries: %w", err)
	}
	if err := insertBeneficiaries(ctx, tx, payment); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// DeletePayment removes a payment. Beneficiaries cascade.
func (s *SQLiteStore) DeletePayment(ctx context.Context, paymentID string) error {
	result, err := s.db.ExecContext(ctx, "DELETE FROM payments WHERE id = ?", paymentID)
	if err != nil {
		return fmt.Errorf("failed to delete payment: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check deleted rows: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("payment %s: %w", paymentID, storage.ErrNotFound)
	}
	return nil
}

// ListPayments returns a group's payments, newest first.
func (s *SQLiteStore) ListPayments(ctx context.Context, groupID string) ([]*models.Payment, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, group_id, title, amount, payer_id, created_at
		 FROM payments WHERE group_id = ? ORDER BY created_at DESC, rowid DESC`,
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
		"payment_id IN (SELECT id FROM payments WHERE group_id = ?)", groupID)
	if err != nil {
		return nil, err
	}
	for _, p := range payments {
		p.BeneficiaryIDs = beneficiaries[p.ID]
	}
	return payments, nil
}

func insertBeneficiaries(ctx context.Context, tx *sql.Tx, payment *models.Payment) error {
	seen := make(map[string]bool, len(payment.BeneficiaryIDs))
	position := 0
	for _, id := range payment.BeneficiaryIDs {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		_, err := tx.ExecContext(ctx,
			"INSERT INTO payment_beneficiaries (payment_id, participant_id, position) VALUES (?, ?, ?)",
			payment.ID, id, position,
		)
		if err != nil {
			return fmt.Errorf("failed to insert beneficiary: %w", err)
		}
		position++
	}
	return nil
}

// listBeneficiaries returns beneficiary IDs keyed by payment ID for the rows matching where.
func (s *SQLiteStore) listBeneficiaries(ctx context.Context, where string, args ...any) (map[string][]string, error) {
	rows, err := s.db.QueryContext(ctx,
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
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate beneficiaries: %w", err)
	}
	return out, nil
}
