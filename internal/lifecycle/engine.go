package lifecycle

import (
	"context"
	"strconv"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/glxcee/storm-tape/internal/model"
	"github.com/glxcee/storm-tape/internal/probe"
	"github.com/glxcee/storm-tape/internal/store"
	"github.com/glxcee/storm-tape/internal/telemetry"
)

// Engine is the Lifecycle Engine: given a Stage, it probes every file,
// applies the transition table (which leaves terminal files unchanged),
// and persists the diff and any resulting Stage-level timestamp change.
type Engine struct {
	store    store.Store
	prober   probe.Prober
	executor Executor
	tracer   trace.Tracer
	now      func() int64
}

// New returns an Engine backed by st and prober, probing with executor
// (SequentialExecutor{} if nil). tracer may be nil, in which case Observe
// opens no-op spans (used by unit tests that do not care about the ambient
// stack).
func New(st store.Store, prober probe.Prober, executor Executor, tracer trace.Tracer) *Engine {
	if executor == nil {
		executor = SequentialExecutor{}
	}
	if tracer == nil {
		tracer = trace.NewNoopTracerProvider().Tracer("storm-tape")
	}
	return &Engine{
		store:    st,
		prober:   prober,
		executor: executor,
		tracer:   tracer,
		now:      func() int64 { return time.Now().Unix() },
	}
}

// Observe brings stage into agreement with the filesystem and returns it.
// stage is mutated in place; the returned pointer is the same value for
// convenience at call sites.
func (e *Engine) Observe(ctx context.Context, stage *model.Stage) (*model.Stage, error) {
	ctx, span := e.tracer.Start(ctx, "lifecycle.Observe",
		trace.WithAttributes(
			attribute.String(telemetry.OperationNameAttr, "observe"),
			attribute.String(telemetry.StageIDAttr, stage.ID),
			attribute.String(telemetry.OperationSizeAttr, strconv.Itoa(len(stage.Files))),
		),
	)
	defer span.End()

	now := e.now()
	results := e.executor.Probe(stage.Files, e.prober)

	var diffs []store.FileDiff
	for i := range stage.Files {
		f := &stage.Files[i]
		next, startedAt, finishedAt, changed := transition(f.State, f.StartedAt, results[i], now)
		if !changed {
			continue
		}
		f.State = next
		f.StartedAt = startedAt
		f.FinishedAt = finishedAt
		diffs = append(diffs, store.FileDiff{
			PhysicalPath: f.PhysicalPath,
			State:        next,
			StartedAt:    startedAt,
			FinishedAt:   finishedAt,
		})
	}

	if len(diffs) > 0 {
		if err := e.store.UpdateFiles(ctx, stage.ID, diffs); err != nil {
			return nil, err
		}
	}

	if stage.Recompute() {
		if err := e.store.UpdateStageTimes(ctx, stage.ID, stage.StartedAt, stage.CompletedAt); err != nil {
			return nil, err
		}
	}

	return stage, nil
}

// Cancel drives every listed logical path currently in submitted or
// started to cancelled. Paths that do not name a file in stage, or that
// are already terminal, are returned in invalid; when any path is
// invalid, no file of the stage is modified at all —
// release() calls this too, as a semantic alias (spec.md section 9, open
// question i).
func (e *Engine) Cancel(ctx context.Context, stage *model.Stage, logicalPaths []string) ([]string, error) {
	now := e.now()

	var invalid []string
	for _, lp := range logicalPaths {
		f := stage.FileByLogicalPath(lp)
		if f == nil || f.State.Terminal() {
			invalid = append(invalid, lp)
		}
	}
	if len(invalid) > 0 {
		return invalid, nil
	}

	var diffs []store.FileDiff
	for _, lp := range logicalPaths {
		f := stage.FileByLogicalPath(lp)
		if f.State.Terminal() {
			continue
		}

		startedAt := f.StartedAt
		if startedAt == 0 {
			startedAt = now
		}
		f.State = model.StateCancelled
		f.StartedAt = startedAt
		f.FinishedAt = now

		diffs = append(diffs, store.FileDiff{
			PhysicalPath: f.PhysicalPath,
			State:        model.StateCancelled,
			StartedAt:    startedAt,
			FinishedAt:   now,
		})
	}

	if len(diffs) == 0 {
		return invalid, nil
	}

	if err := e.store.UpdateFiles(ctx, stage.ID, diffs); err != nil {
		return nil, err
	}
	if stage.Recompute() {
		if err := e.store.UpdateStageTimes(ctx, stage.ID, stage.StartedAt, stage.CompletedAt); err != nil {
			return nil, err
		}
	}

	return invalid, nil
}
