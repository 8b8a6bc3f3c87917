// Package models defines the core domain models for Warikan.
//
// # Models
//
//   - Group: a set of participants sharing expenses
//   - Participant: a member of a group, identified by a stable ID
//   - Payment: an amount paid by one participant on behalf of a set of beneficiaries
//   - Settlement: a transfer instruction from a debtor to a creditor
//
// # Identity
//
// Participants are referenced everywhere by ID. Names are for display only and
// may be renamed without touching payments or settlements. Two participants of
// the same group cannot share a name once normalised (see NormalizeName).
//
// # Amounts
//
// All persisted amounts are integral yen. Balances are derived and carry
// fractional yen until a settlement is emitted.
package models
