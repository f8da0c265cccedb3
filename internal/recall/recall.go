package recall

import (
	"context"
	"fmt"

	"github.com/glxcee/storm-tape/internal/probe"
	"github.com/glxcee/storm-tape/internal/store"
)

const (
	// MinTakeOver and MaxTakeOver bound the n parameter of TakeOver
	// (spec.md section 4.5: "1 ≤ n ≤ 1_000_000").
	MinTakeOver = 1
	MaxTakeOver = 1_000_000
)

// ErrOutOfRange is returned by TakeOver when n falls outside
// [MinTakeOver, MaxTakeOver].
var ErrOutOfRange = fmt.Errorf("take-over count must be between %d and %d", MinTakeOver, MaxTakeOver)

// Handoff is the Recall Handoff component.
type Handoff struct {
	store  store.Store
	prober probe.Prober
	marker probe.Marker
}

// New returns a Handoff backed by st (for candidate selection), prober
// (for the precise re-check in InProgress) and marker (for stamping the
// in-progress sentinel on selected paths).
func New(st store.Store, prober probe.Prober, marker probe.Marker) *Handoff {
	return &Handoff{store: st, prober: prober, marker: marker}
}

// ReadyTakeOver returns the number of files the external recaller could
// pick up right now.
func (h *Handoff) ReadyTakeOver(ctx context.Context) (int, error) {
	return h.store.CountRecallable(ctx)
}

// TakeOver selects up to n eligible files, marks each with the
// in-progress sentinel attribute, and returns the physical paths that
// were successfully marked. A marking failure for one file only drops
// that file from the batch; it remains eligible for the next round
// (spec.md section 4.5, "Failure semantics").
func (h *Handoff) TakeOver(ctx context.Context, n int) ([]string, error) {
	if n < MinTakeOver || n > MaxTakeOver {
		return nil, ErrOutOfRange
	}

	candidates, err := h.store.TakeRecallable(ctx, n)
	if err != nil {
		return nil, err
	}

	marked := make([]string, 0, len(candidates))
	for _, path := range candidates {
		if err := h.marker.MarkInProgress(path); err != nil {
			// The error is dropped, not logged; the file stays eligible
			// next round.
			continue
		}
		marked = append(marked, path)
	}
	return marked, nil
}

// InProgress enumerates up to n physical paths currently marked
// in-progress. When precise is true, each is re-checked against the
// filesystem and dropped if the sentinel attribute has already been
// cleared (the recall finished between calls).
func (h *Handoff) InProgress(ctx context.Context, n int, precise bool) ([]string, error) {
	paths, err := h.store.ListInProgress(ctx, n)
	if err != nil {
		return nil, err
	}
	if !precise {
		return paths, nil
	}

	fresh := make([]string, 0, len(paths))
	for _, p := range paths {
		inProgress, err := h.prober.IsInProgress(p)
		if err != nil || !inProgress {
			continue
		}
		fresh = append(fresh, p)
	}
	return fresh, nil
}
