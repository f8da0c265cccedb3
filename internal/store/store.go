package store

import (
	"context"
	"errors"

	"github.com/glxcee/storm-tape/internal/model"
)

// ErrNotFound is returned by Find, Erase and UpdateStageTimes when the
// requested stage id does not exist. UpdateFiles reports a missing row
// with its own error, not ErrNotFound.
var ErrNotFound = errors.New("stage not found")

// FileDiff is one row of the diff list the Lifecycle Engine produces on
// every observation pass: a file whose state (and possibly timestamps)
// changed and must be written back.
type FileDiff struct {
	PhysicalPath string
	State        model.State
	StartedAt    int64
	FinishedAt   int64
}

// Store is the Request Store's abstract interface (spec.md section 4.3).
// SQLiteStore is its only production implementation.
type Store interface {
	// Insert persists a fresh Stage with all of its files in their given
	// initial state (normally submitted, or failed for files that could
	// not be resolved at submission time).
	Insert(ctx context.Context, stage *model.Stage) error

	// Find returns the Stage with the given id, or ErrNotFound.
	Find(ctx context.Context, id string) (*model.Stage, error)

	// UpdateFiles applies diffs to the files of stage id atomically: all
	// of diffs land, or none do.
	UpdateFiles(ctx context.Context, id string, diffs []FileDiff) error

	// UpdateStageTimes rewrites a Stage's derived started_at/completed_at
	// columns.
	UpdateStageTimes(ctx context.Context, id string, startedAt, completedAt int64) error

	// Erase deletes a Stage and its files. ErrNotFound if id is unknown.
	Erase(ctx context.Context, id string) error

	// CountRecallable returns the number of file rows, across all
	// non-terminated stages, in state submitted or started whose
	// physical path is not yet in-progress on disk.
	CountRecallable(ctx context.Context) (int, error)

	// TakeRecallable returns up to n physical paths, oldest stage first,
	// that are eligible for take-over right now: Locality tape or lost
	// and not already in-progress. Runs through the single writer so
	// that concurrent calls never return overlapping paths.
	TakeRecallable(ctx context.Context, n int) ([]string, error)

	// ListInProgress returns up to limit physical paths whose stored file
	// state is started, oldest stage first. It does not probe the
	// filesystem; a caller wanting only paths whose sentinel is still set
	// re-checks each one itself.
	ListInProgress(ctx context.Context, limit int) ([]string, error)

	// Close releases the reader pool and stops the writer goroutine,
	// flushing any queued writes first.
	Close() error
}
