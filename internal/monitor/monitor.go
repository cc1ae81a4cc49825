package monitor

import (
	"context"
	"fmt"

	"github.com/capmon/capmon/internal/fetcher"
	"github.com/capmon/capmon/internal/store"
	"github.com/capmon/capmon/pkg/models"
)

// Notifier delivers an alert about a newly observed usage reading
type Notifier interface {
	Notify(ctx context.Context, current, previous models.Observation) error
}

// Result describes the outcome of one pipeline run
type Result struct {
	Current  models.Observation
	Previous models.Observation
	Stored   bool
	RecordID int64
}

// Monitor runs the fetch-compare-persist-notify pipeline. One Run is one
// sequential pass; overlap protection is the scheduler's job.
type Monitor struct {
	store     *store.Store
	fetcher   fetcher.Fetcher
	notifiers []Notifier
}

// New creates a monitor around the given store, fetcher and notifiers
func New(st *store.Store, f fetcher.Fetcher, notifiers ...Notifier) *Monitor {
	return &Monitor{
		store:     st,
		fetcher:   f,
		notifiers: notifiers,
	}
}

// IsNew reports whether current carries new information relative to
// previous. Only the provider's refresh timestamp matters: the counters
// update on the provider's own cadence, so re-polling before the next
// refresh must be a no-op regardless of the quantity fields.
func IsNew(current, previous models.Observation) bool {
	return !current.ObservedAt.Equal(previous.ObservedAt)
}

// Run executes one pipeline pass. Fetch and store failures abort before
// any persistence; a notification failure is reported but never unwinds
// the already-committed append.
func (m *Monitor) Run(ctx context.Context) (Result, error) {
	current, err := m.fetcher.Fetch(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("fetching usage: %w", err)
	}

	previous, err := m.store.Latest(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("reading latest observation: %w", err)
	}

	res := Result{Current: current, Previous: previous}

	if !IsNew(current, previous) {
		// Stale fetch: the provider has not refreshed its counters
		return res, nil
	}

	id, err := m.store.Append(ctx, current)
	if err != nil {
		return res, fmt.Errorf("storing observation: %w", err)
	}
	res.Stored = true
	res.RecordID = id

	for _, n := range m.notifiers {
		if err := n.Notify(ctx, current, previous); err != nil {
			fmt.Printf("⚠ Notification failed: %v\n", err)
		}
	}

	return res, nil
}
