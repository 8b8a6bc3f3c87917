// Package storage provides abstractions for persistent data storage.
package storage

import (
	"context"
	"errors"
	"slices"

	"github.com/mmynk/warikan/internal/models"
)

var (
	// ErrNotFound is returned when a requested row does not exist.
	ErrNotFound = errors.New("not found")

	// ErrDuplicateName is returned when a participant name collides with an
	// existing participant of the same group.
	ErrDuplicateName = errors.New("participant name already exists in group")

	// ErrStalePlan is returned when a group's settlements changed between
	// computing a plan and applying it.
	ErrStalePlan = errors.New("settlements changed since plan was computed")
)

// SettlementPlan is the set of writes that moves a group's persisted
// settlements to a freshly computed state.
type SettlementPlan struct {
	// Current holds the IDs of the settlements the plan was computed from.
	// When non-nil the store applies the plan only if the group's persisted
	// IDs still equal this set, and returns ErrStalePlan otherwise.
	Current []string

	// Delete holds IDs of persisted settlements to remove.
	Delete []string

	// Insert holds new settlements. IDs and CreatedAt are assigned by the store.
	Insert []*models.Settlement

	// Order is the full settlement list after the plan, in listing order.
	// Entries of Insert get their IDs before the order is written. Empty
	// leaves existing positions alone.
	Order []*models.Settlement
}

// Store defines the interface for group, payment, and settlement storage.
// This abstraction allows swapping storage backends (SQLite, PostgreSQL)
// without changing the service layer.
type Store interface {
	// CreateGroup persists a new group. ID and CreatedAt are populated by the store.
	CreateGroup(ctx context.Context, group *models.Group) error

	// GetGroup retrieves a group by ID. Returns ErrNotFound if missing.
	GetGroup(ctx context.Context, groupID string) (*models.Group, error)

	// AddParticipant adds a participant to a group. Returns ErrDuplicateName if
	// the normalised name is taken.
	AddParticipant(ctx context.Context, participant *models.Participant) error

	// ListParticipants returns a group's participants in creation order.
	ListParticipants(ctx context.Context, groupID string) ([]*models.Participant, error)

	// CreatePayment persists a new payment with its beneficiaries.
	CreatePayment(ctx context.Context, payment *models.Payment) error

	// GetPayment retrieves a payment by ID. Returns ErrNotFound if missing.
	GetPayment(ctx context.Context, paymentID string) (*models.Payment, error)

	// UpdatePayment replaces title, amount, payer, and beneficiaries of a payment.
	UpdatePayment(ctx context.Context, payment *models.Payment) error

	// DeletePayment removes a payment. Returns ErrNotFound if missing.
	DeletePayment(ctx context.Context, paymentID string) error

	// ListPayments returns a group's payments, newest first.
	ListPayments(ctx context.Context, groupID string) ([]*models.Payment, error)

	// ListSettlements returns a group's persisted settlements in the order
	// last written by ApplySettlementPlan.
	ListSettlements(ctx context.Context, groupID string) ([]*models.Settlement, error)

	// ApplySettlementPlan deletes then inserts settlements for a group as one
	// unit. Returns ErrStalePlan if plan.Current no longer matches.
	ApplySettlementPlan(ctx context.Context, groupID string, plan SettlementPlan) error

	// SetSettlementStatus marks a settlement pending or completed.
	SetSettlementStatus(ctx context.Context, settlementID string, status models.SettlementStatus) (*models.Settlement, error)

	// Close releases any resources held by the store.
	Close() error
}

// SameIDs reports whether a and b hold the same IDs, ignoring order.
func SameIDs(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	a, b = slices.Clone(a), slices.Clone(b)
	slices.Sort(a)
	slices.Sort(b)
	return slices.Equal(a, b)
}
