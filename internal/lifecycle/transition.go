package lifecycle

import "github.com/glxcee/storm-tape/internal/model"

// transition decides the next state for one file given its current state,
// its current started_at, the probe facts observed for it, and the
// observation timestamp now. It returns the new state and timestamps, and
// whether anything changed at all.
func transition(cur model.State, curStartedAt int64, r probeResult, now int64) (next model.State, startedAt, finishedAt int64, changed bool) {
	if cur.Terminal() {
		return cur, curStartedAt, 0, false
	}

	if r.inProgressErr != nil {
		return failFrom(cur, curStartedAt, now)
	}

	if r.inProgress {
		if cur == model.StateSubmitted {
			return model.StateStarted, now, 0, true
		}
		return cur, curStartedAt, 0, false
	}

	if r.stubErr != nil {
		return failFrom(cur, curStartedAt, now)
	}

	if !r.stub {
		return completeFrom(cur, curStartedAt, now)
	}

	// Stub, no error: the file is still on tape, waiting to be recalled.
	return cur, curStartedAt, 0, false
}

func failFrom(cur model.State, curStartedAt, now int64) (model.State, int64, int64, bool) {
	switch cur {
	case model.StateSubmitted:
		return model.StateFailed, now, now, true
	case model.StateStarted:
		return model.StateFailed, curStartedAt, now, true
	default:
		return cur, curStartedAt, 0, false
	}
}

func completeFrom(cur model.State, curStartedAt, now int64) (model.State, int64, int64, bool) {
	switch cur {
	case model.StateSubmitted:
		return model.StateCompleted, now, now, true
	case model.StateStarted:
		return model.StateCompleted, curStartedAt, now, true
	default:
		return cur, curStartedAt, 0, false
	}
}
