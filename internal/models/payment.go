package models

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidPayment is the parent of every payment validation error.
	ErrInvalidPayment = errors.New("invalid payment")

	ErrEmptyTitle   = fmt.Errorf("%w: title is required", ErrInvalidPayment)
	ErrEmptyPayer   = fmt.Errorf("%w: payer is required", ErrInvalidPayment)
	ErrBadAmount    = fmt.Errorf("%w: amount must be positive", ErrInvalidPayment)
	ErrEmptyTargets = fmt.Errorf("%w: at least one beneficiary is required", ErrInvalidPayment)
)

// Payment represents an amount paid by one participant for a set of beneficiaries.
// The amount is split evenly across the beneficiaries and the payer.
type Payment struct {
	// ID is the unique identifier for the payment (UUID format).
	ID string

	// GroupID is the group this payment belongs to.
	GroupID string

	// Title is a short note describing the payment (e.g., "Dinner", "Taxi").
	Title string

	// Amount is the paid amount in yen.
	Amount int64

	// PayerID is the participant who paid.
	PayerID string

	// BeneficiaryIDs are the participants sharing the cost. The payer is
	// always included in the split even when absent here.
	BeneficiaryIDs []string

	// CreatedAt is the Unix timestamp when the payment was recorded.
	CreatedAt int64
}

// Targets returns the deduplicated beneficiaries with the payer included,
// preserving first-seen order. Empty IDs are ignored.
func (p *Payment) Targets() []string {
	seen := make(map[string]struct{}, len(p.BeneficiaryIDs)+1)
	targets := make([]string, 0, len(p.BeneficiaryIDs)+1)
	add := func(id string) {
		if id == "" {
			return
		}
		if _, ok := seen[id]; ok {
			return
		}
		seen[id] = struct{}{}
		targets = append(targets, id)
	}
	for _, id := range p.BeneficiaryIDs {
		add(id)
	}
	add(p.PayerID)
	return targets
}

// Validate checks the fields a user must supply before a payment can be stored.
func (p *Payment) Validate() error {
	if p.Title == "" {
		return ErrEmptyTitle
	}
	if p.Amount <= 0 {
		return ErrBadAmount
	}
	if p.PayerID == "" {
		return ErrEmptyPayer
	}
	if len(p.Targets()) == 0 {
		return ErrEmptyTargets
	}
	return nil
}
