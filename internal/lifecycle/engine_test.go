package lifecycle

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/glxcee/storm-tape/internal/model"
	"github.com/glxcee/storm-tape/internal/probe"
	"github.com/glxcee/storm-tape/internal/store"
)

func newTestEngine(t *testing.T, fp *probe.FakeProber, executor Executor) (*Engine, store.Store) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "storm-tape.sqlite")
	s, err := store.NewSQLiteStore(path, fp, 4)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return New(s, fp, executor, nil), s
}

func TestEngine_Observe_MixedStubAndDisk(t *testing.T) {
	fp := probe.NewFakeProber()
	fp.Sizes["/tmp/root/A"] = probe.FileSizeInfo{Size: 100, IsStub: true}
	fp.Sizes["/tmp/root/B"] = probe.FileSizeInfo{Size: 100, IsStub: false}

	engine, st := newTestEngine(t, fp, nil)
	ctx := context.Background()

	stage := model.NewStage("stage-1", 1000, []model.File{
		{LogicalPath: "/atlas/A", PhysicalPath: "/tmp/root/A", State: model.StateSubmitted},
		{LogicalPath: "/atlas/B", PhysicalPath: "/tmp/root/B", State: model.StateSubmitted},
	})
	require.NoError(t, st.Insert(ctx, stage))

	got, err := engine.Observe(ctx, stage)
	require.NoError(t, err)
	assert.Equal(t, model.StateSubmitted, got.Files[0].State)
	assert.Equal(t, model.StateCompleted, got.Files[1].State)

	persisted, err := st.Find(ctx, "stage-1")
	require.NoError(t, err)
	assert.Equal(t, model.StateSubmitted, persisted.Files[0].State)
	assert.Equal(t, model.StateCompleted, persisted.Files[1].State)
}

func TestEngine_Observe_TakeOverThenComplete(t *testing.T) {
	fp := probe.NewFakeProber()
	fp.Sizes["/tmp/root/A"] = probe.FileSizeInfo{Size: 100, IsStub: true}

	engine, st := newTestEngine(t, fp, nil)
	ctx := context.Background()

	stage := model.NewStage("stage-2", 1000, []model.File{
		{LogicalPath: "/atlas/A", PhysicalPath: "/tmp/root/A", State: model.StateSubmitted},
	})
	require.NoError(t, st.Insert(ctx, stage))

	_, err := engine.Observe(ctx, stage)
	require.NoError(t, err)
	assert.Equal(t, model.StateSubmitted, stage.Files[0].State)

	fp.InProgress["/tmp/root/A"] = true
	got, err := engine.Observe(ctx, stage)
	require.NoError(t, err)
	assert.Equal(t, model.StateStarted, got.Files[0].State)
	assert.Greater(t, got.Files[0].StartedAt, int64(0))

	fp.InProgress["/tmp/root/A"] = false
	fp.Sizes["/tmp/root/A"] = probe.FileSizeInfo{Size: 100, IsStub: false}
	got, err = engine.Observe(ctx, stage)
	require.NoError(t, err)
	assert.Equal(t, model.StateCompleted, got.Files[0].State)
	assert.GreaterOrEqual(t, got.Files[0].FinishedAt, got.Files[0].StartedAt)
}

func TestEngine_Observe_RecomputesStageTimes(t *testing.T) {
	fp := probe.NewFakeProber()
	fp.Sizes["/tmp/root/A"] = probe.FileSizeInfo{Size: 100, IsStub: false}
	fp.Sizes["/tmp/root/B"] = probe.FileSizeInfo{Size: 100, IsStub: false}

	engine, st := newTestEngine(t, fp, nil)
	ctx := context.Background()

	stage := model.NewStage("stage-3", 1000, []model.File{
		{LogicalPath: "/atlas/A", PhysicalPath: "/tmp/root/A", State: model.StateSubmitted},
		{LogicalPath: "/atlas/B", PhysicalPath: "/tmp/root/B", State: model.StateSubmitted},
	})
	require.NoError(t, st.Insert(ctx, stage))

	got, err := engine.Observe(ctx, stage)
	require.NoError(t, err)
	assert.Greater(t, got.StartedAt, int64(0))
	assert.Greater(t, got.CompletedAt, int64(0))

	persisted, err := st.Find(ctx, "stage-3")
	require.NoError(t, err)
	assert.Equal(t, got.StartedAt, persisted.StartedAt)
	assert.Equal(t, got.CompletedAt, persisted.CompletedAt)
}

func TestEngine_Cancel(t *testing.T) {
	fp := probe.NewFakeProber()
	fp.Sizes["/tmp/root/A"] = probe.FileSizeInfo{Size: 100, IsStub: true}
	fp.Sizes["/tmp/root/B"] = probe.FileSizeInfo{Size: 100, IsStub: false}

	engine, st := newTestEngine(t, fp, nil)
	ctx := context.Background()

	stage := model.NewStage("stage-4", 1000, []model.File{
		{LogicalPath: "/atlas/A", PhysicalPath: "/tmp/root/A", State: model.StateSubmitted},
		{LogicalPath: "/atlas/B", PhysicalPath: "/tmp/root/B", State: model.StateSubmitted},
	})
	require.NoError(t, st.Insert(ctx, stage))

	// Complete B first so it is terminal by the time we cancel.
	_, err := engine.Observe(ctx, stage)
	require.NoError(t, err)
	require.Equal(t, model.StateCompleted, stage.Files[1].State)

	invalid, err := engine.Cancel(ctx, stage, []string{"/atlas/A", "/atlas/B", "/atlas/nope"})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"/atlas/B", "/atlas/nope"}, invalid)
	// The request names invalid paths, so nothing is modified: A stays
	// submitted.
	assert.Equal(t, model.StateSubmitted, stage.Files[0].State)
	assert.Equal(t, model.StateCompleted, stage.Files[1].State)
}
