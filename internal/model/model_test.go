package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocality_ClientLocality(t *testing.T) {
	assert.Equal(t, LocalityUnavailable, LocalityLost.ClientLocality())
	assert.Equal(t, LocalityDisk, LocalityDisk.ClientLocality())
	assert.Equal(t, LocalityUnavailable, LocalityUnavailable.ClientLocality())
	assert.Equal(t, LocalityTape, LocalityTape.ClientLocality())
}

func TestState_Terminal(t *testing.T) {
	cases := map[State]bool{
		StateSubmitted: false,
		StateStarted:   false,
		StateCompleted: true,
		StateCancelled: true,
		StateFailed:    true,
	}
	for state, want := range cases {
		assert.Equal(t, want, state.Terminal(), "state %s", state)
	}
}

func TestStage_Recompute_NoFilesStartedYet(t *testing.T) {
	s := NewStage("stage-1", 100, []File{
		{LogicalPath: "/a", State: StateSubmitted},
		{LogicalPath: "/b", State: StateSubmitted},
	})

	changed := s.Recompute()
	assert.False(t, changed)
	assert.Zero(t, s.StartedAt)
	assert.Zero(t, s.CompletedAt)
}

func TestStage_Recompute_PartialProgress(t *testing.T) {
	s := NewStage("stage-1", 100, []File{
		{LogicalPath: "/a", State: StateStarted, StartedAt: 150},
		{LogicalPath: "/b", State: StateSubmitted},
	})

	changed := s.Recompute()
	require.True(t, changed)
	assert.Equal(t, int64(150), s.StartedAt)
	assert.Zero(t, s.CompletedAt, "completed_at must stay 0 while any file is non-terminal")
}

func TestStage_Recompute_AllTerminal(t *testing.T) {
	s := NewStage("stage-1", 100, []File{
		{LogicalPath: "/a", State: StateCompleted, StartedAt: 150, FinishedAt: 160},
		{LogicalPath: "/b", State: StateFailed, StartedAt: 140, FinishedAt: 145},
	})

	s.Recompute()
	assert.Equal(t, int64(140), s.StartedAt)
	assert.Equal(t, int64(160), s.CompletedAt)
}

func TestStage_FileLookups(t *testing.T) {
	s := NewStage("stage-1", 100, []File{
		{LogicalPath: "/atlas/A", PhysicalPath: "/tmp/root/A", State: StateSubmitted},
	})

	require.NotNil(t, s.FileByLogicalPath("/atlas/A"))
	assert.Nil(t, s.FileByLogicalPath("/atlas/missing"))

	require.NotNil(t, s.FileByPhysicalPath("/tmp/root/A"))
	assert.Nil(t, s.FileByPhysicalPath("/tmp/root/missing"))
}
