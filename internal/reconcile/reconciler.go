package reconcile

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/mmynk/warikan/internal/calculator"
	"github.com/mmynk/warikan/internal/metrics"
	"github.com/mmynk/warikan/internal/models"
	"github.com/mmynk/warikan/internal/storage"
)

// ErrReconcileFailed is returned when every attempt to persist a recomputed
// settlement set failed. Payments are untouched; the caller may retry.
var ErrReconcileFailed = errors.New("settlement recalculation failed, please retry")

// DefaultRetries is the number of attempts per Reconcile call.
const DefaultRetries = 3

// Result is the outcome of a reconcile.
type Result struct {
	// Settlements is the persisted set after the reconcile, in computed order.
	Settlements []*models.Settlement

	Kept     int
	Inserted int
	Deleted  int
}

// Reconciler recomputes and persists settlements for groups.
type Reconciler struct {
	store   storage.Store
	retries int
	backoff time.Duration

	mu    sync.Mutex
	locks map[string]*groupLock
}

type groupLock struct {
	mu   sync.Mutex
	refs int
}

// Option configures a Reconciler.
type Option func(*Reconciler)

// WithRetries sets the number of attempts per Reconcile call (minimum 1).
func WithRetries(n int) Option {
	return func(r *Reconciler) {
		if n < 1 {
			n = 1
		}
		r.retries = n
	}
}

// WithBackoff sets the pause between failed attempts.
func WithBackoff(d time.Duration) Option {
	return func(r *Reconciler) { r.backoff = d }
}

// New creates a Reconciler over store.
func New(store storage.Store, opts ...Option) *Reconciler {
	r := &Reconciler{
		store:   store,
		retries: DefaultRetries,
		backoff: 50 * time.Millisecond,
		locks:   make(map[string]*groupLock),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Reconcile recomputes a group's settlements from its payments and persists
// the merged result. Calls for the same group are serialised.
func (r *Reconciler) Reconcile(ctx context.Context, groupID string) (*Result, error) {
	unlock := r.lock(groupID)
	defer unlock()
	return r.reconcileLocked(ctx, groupID)
}

// Ensure returns the persisted settlements of a group, computing them first
// when none exist yet. The boolean reports whether a computation ran.
func (r *Reconciler) Ensure(ctx context.Context, groupID string) ([]*models.Settlement, bool, error) {
	settlements, err := r.store.ListSettlements(ctx, groupID)
	if err != nil {
		return nil, false, fmt.Errorf("failed to list settlements: %w", err)
	}
	if len(settlements) > 0 {
		return settlements, false, nil
	}

	unlock := r.lock(groupID)
	defer unlock()

	// Another caller may have finished the initial computation while we waited.
	settlements, err = r.store.ListSettlements(ctx, groupID)
	if err != nil {
		return nil, false, fmt.Errorf("failed to list settlements: %w", err)
	}
	if len(settlements) > 0 {
		return settlements, false, nil
	}

	result, err := r.reconcileLocked(ctx, groupID)
	if err != nil {
		return nil, false, err
	}
	return result.Settlements, true, nil
}

// InFlight reports whether a reconcile for the group is running or queued.
// Readers seeing an empty settlement list should treat it as provisional
// while this is true.
func (r *Reconciler) InFlight(groupID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.locks[groupID]
	return ok
}

func (r *Reconciler) reconcileLocked(ctx context.Context, groupID string) (*Result, error) {
	timer := time.Now()
	defer func() { metrics.ReconcileDuration.Observe(time.Since(timer).Seconds()) }()

	var lastErr error
	for attempt := 1; attempt <= r.retries; attempt++ {
		result, err := r.reconcileOnce(ctx, groupID)
		if err == nil {
			metrics.ReconcileTotal.WithLabelValues("ok").Inc()
			metrics.SettlementChanges.WithLabelValues("kept").Add(float64(result.Kept))
			metrics.SettlementChanges.WithLabelValues("inserted").Add(float64(result.Inserted))
			metrics.SettlementChanges.WithLabelValues("deleted").Add(float64(result.Deleted))
			slog.Info("Settlements reconciled",
				"group_id", groupID,
				"attempt", attempt,
				"kept", result.Kept,
				"inserted", result.Inserted,
				"deleted", result.Deleted,
			)
			return result, nil
		}

		lastErr = err
		slog.Warn("Reconcile attempt failed", "group_id", groupID, "attempt", attempt, "error", err)
		if attempt == r.retries {
			break
		}
		if err := sleep(ctx, r.backoff); err != nil {
			lastErr = err
			break
		}
	}

	metrics.ReconcileTotal.WithLabelValues("error").Inc()
	slog.Error("Reconcile failed", "group_id", groupID, "error", lastErr)
	return nil, fmt.Errorf("%w: %w", ErrReconcileFailed, lastErr)
}

func (r *Reconciler) reconcileOnce(ctx context.Context, groupID string) (*Result, error) {
	var (
		participants []*models.Participant
		payments     []*models.Payment
		current      []*models.Settlement
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		participants, err = r.store.ListParticipants(gctx, groupID)
		return err
	})
	g.Go(func() error {
		var err error
		payments, err = r.store.ListPayments(gctx, groupID)
		return err
	})
	g.Go(func() error {
		var err error
		current, err = r.store.ListSettlements(gctx, groupID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("failed to load group data: %w", err)
	}

	values := make([]models.Payment, len(payments))
	for i, p := range payments {
		values[i] = *p
	}
	computed := calculator.Settle(models.ParticipantIDs(participants), values)

	plan := Diff(groupID, current, computed)
	if plan.HasWrites() {
		if err := r.store.ApplySettlementPlan(ctx, groupID, plan.StoragePlan()); err != nil {
			return nil, err
		}
	}

	return &Result{
		Settlements: plan.Settlements(),
		Kept:        len(plan.Keep),
		Inserted:    len(plan.Insert),
		Deleted:     len(plan.Delete),
	}, nil
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// lock acquires the group's mutex and returns its release function. Entries
// are removed from the map once no caller holds or waits on them.
func (r *Reconciler) lock(groupID string) func() {
	r.mu.Lock()
	l, ok := r.locks[groupID]
	if !ok {
		l = &groupLock{}
		r.locks[groupID] = l
	}
	l.refs++
	r.mu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		r.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(r.locks, groupID)
		}
		r.mu.Unlock()
	}
}
