package model

import "golang.org/x/exp/slices"

// State is the per-file position in the recall state machine.
//
// Valid transitions are enumerated in spec.md section 4.4; this type only
// carries the label, the lifecycle engine owns the transition logic.
type State string

const (
	StateSubmitted State = "submitted"
	StateStarted   State = "started"
	StateCompleted State = "completed"
	StateCancelled State = "cancelled"
	StateFailed    State = "failed"
)

// Terminal reports whether a file in this state will never transition again
// on its own (only delete/erase removes it from the store).
func (s State) Terminal() bool {
	switch s {
	case StateCompleted, StateCancelled, StateFailed:
		return true
	default:
		return false
	}
}

// Locality is the externally visible summary of where a file currently
// resides, derived from the three Storage Probe facts by
// internal/probe.Status.Locality. It is never itself persisted: the store
// keeps File.State, and Locality is recomputed from live probe results on
// every observation.
type Locality int

const (
	// LocalityUnavailable covers both "we could not determine locality"
	// (a probe error) and the client-facing rewrite of LocalityLost.
	LocalityUnavailable Locality = iota
	LocalityDisk
	LocalityTape
	LocalityDiskAndTape
	LocalityLost
	LocalityNone
)

func (l Locality) String() string {
	switch l {
	case LocalityDisk:
		return "DISK"
	case LocalityTape:
		return "TAPE"
	case LocalityDiskAndTape:
		return "DISK_AND_TAPE"
	case LocalityLost:
		return "LOST"
	case LocalityNone:
		return "NONE"
	default:
		return "UNAVAILABLE"
	}
}

// ClientLocality collapses LocalityLost into LocalityUnavailable, the one
// rewrite spec.md section 4.2 and section 9 (Open Question ii) require at
// the API boundary. LocalityLost itself must keep flowing through
// internal/store and internal/recall unmodified so take-over can still
// select lost files as candidates; only responses leaving internal/api go
// through this function.
func (l Locality) ClientLocality() Locality {
	if l == LocalityLost {
		return LocalityUnavailable
	}
	return l
}

// File is one logical-path row of a Stage. StartedAt and FinishedAt are
// seconds since the epoch; zero means "not yet happened."
//
// Invariants (spec.md section 3):
//   - State == StateSubmitted  => StartedAt == 0 && FinishedAt == 0
//   - State == StateStarted    => StartedAt > 0 && FinishedAt == 0
//   - State.Terminal()         => FinishedAt >= StartedAt > 0, except a
//     Cancelled/Failed file that never passed through Started may carry
//     StartedAt == FinishedAt as a mark rather than a real duration.
type File struct {
	LogicalPath  string
	PhysicalPath string
	State        State
	StartedAt    int64
	FinishedAt   int64
}

// Stage is a client's atomic batch of logical paths together with the
// derived request-level timestamps. The zero value is not meaningful; use
// NewStage.
type Stage struct {
	ID          string
	CreatedAt   int64
	StartedAt   int64
	CompletedAt int64
	Files       []File
}

// NewStage builds a fresh Stage holding files exactly as given; it does
// not set any file's state. Callers pass files in StateSubmitted, except
// files whose PhysicalPath could not be resolved (see
// internal/pathresolver), which they mark StateFailed with
// StartedAt == FinishedAt == now, per spec.md section 4.4's "edge cases"
// paragraph.
func NewStage(id string, createdAt int64, files []File) *Stage {
	return &Stage{
		ID:        id,
		CreatedAt: createdAt,
		Files:     files,
	}
}

// Recompute derives StartedAt and CompletedAt from the current file rows,
// per spec.md section 4.4 step 5:
//
//	StartedAt   = min(StartedAt over started/terminal files), 0 if none yet
//	CompletedAt = max(FinishedAt) iff every file is terminal, else 0
//
// It returns whether either value changed, so callers can decide whether to
// enqueue an UpdateStageTimes write.
func (s *Stage) Recompute() bool {
	var minStarted int64
	var maxFinished int64
	allTerminal := len(s.Files) > 0

	for _, f := range s.Files {
		if f.State != StateSubmitted && f.StartedAt > 0 {
			if minStarted == 0 || f.StartedAt < minStarted {
				minStarted = f.StartedAt
			}
		}
		if !f.State.Terminal() {
			allTerminal = false
		}
		if f.FinishedAt > maxFinished {
			maxFinished = f.FinishedAt
		}
	}

	newCompleted := int64(0)
	if allTerminal {
		newCompleted = maxFinished
	}

	changed := s.StartedAt != minStarted || s.CompletedAt != newCompleted
	s.StartedAt = minStarted
	s.CompletedAt = newCompleted
	return changed
}

// FileByPhysicalPath returns a pointer into s.Files matching the given
// physical path, or nil. Used by the lifecycle engine to apply diffs
// in-place before recomputing stage timestamps.
func (s *Stage) FileByPhysicalPath(p string) *File {
	i := slices.IndexFunc(s.Files, func(f File) bool { return f.PhysicalPath == p })
	if i < 0 {
		return nil
	}
	return &s.Files[i]
}

// FileByLogicalPath returns a pointer into s.Files matching the given
// logical path, or nil. Used by cancel/release to validate the requested
// paths belong to the stage.
func (s *Stage) FileByLogicalPath(p string) *File {
	i := slices.IndexFunc(s.Files, func(f File) bool { return f.LogicalPath == p })
	if i < 0 {
		return nil
	}
	return &s.Files[i]
}
