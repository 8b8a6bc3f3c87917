// Package reconcile keeps a group's persisted settlements in step with its payments.
//
// Settlements are always recomputed from raw payments. The persisted set is
// then merged with the fresh result by (from, to) pair: a persisted settlement
// whose pair and amount are unchanged keeps its ID and status, so a
// "completed" marking survives unrelated edits. Anything else is replaced by a
// pending settlement. Completed settlements whose amount changed are dropped,
// never carried forward with a stale amount.
//
// Reconciles for one group are serialised with an in-process lock; a reconcile
// is one store transaction and is safe to retry.
package reconcile
