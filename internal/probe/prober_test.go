package probe

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/pkg/xattr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// requireXattrSupport skips the test when the temp filesystem does not
// support user extended attributes (common on some CI tmpfs mounts),
// matching the startup probe internal/config performs for real
// storage-area roots.
func requireXattrSupport(t *testing.T, dir string) {
	t.Helper()
	probe := filepath.Join(dir, ".xattr-probe")
	require.NoError(t, os.WriteFile(probe, nil, 0o644))
	defer os.Remove(probe)
	if err := xattr.Set(probe, XattrTSMRecT, []byte{}); err != nil {
		t.Skipf("filesystem does not support user extended attributes: %v", err)
	}
}

func TestXattrProber_IsInProgress(t *testing.T) {
	dir := t.TempDir()
	requireXattrSupport(t, dir)

	p := filepath.Join(dir, "A")
	require.NoError(t, os.WriteFile(p, []byte("data"), 0o644))

	prober := NewXattrProber()

	inProgress, err := prober.IsInProgress(p)
	require.NoError(t, err)
	assert.False(t, inProgress)

	require.NoError(t, prober.MarkInProgress(p))

	inProgress, err = prober.IsInProgress(p)
	require.NoError(t, err)
	assert.True(t, inProgress)
}

func TestXattrProber_IsOnTape(t *testing.T) {
	dir := t.TempDir()
	requireXattrSupport(t, dir)

	p := filepath.Join(dir, "A")
	require.NoError(t, os.WriteFile(p, []byte("data"), 0o644))

	prober := NewXattrProber()

	onTape, err := prober.IsOnTape(p)
	require.NoError(t, err)
	assert.False(t, onTape)

	require.NoError(t, xattr.Set(p, XattrMigrated, []byte{}))

	onTape, err = prober.IsOnTape(p)
	require.NoError(t, err)
	assert.True(t, onTape)
}

func TestXattrProber_FileSizeInfo_FullyAllocated(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "B")
	content := make([]byte, 8192)
	require.NoError(t, os.WriteFile(p, content, 0o644))

	prober := NewXattrProber()
	info, err := prober.FileSizeInfo(p)
	require.NoError(t, err)
	assert.Equal(t, int64(len(content)), info.Size)
	assert.False(t, info.IsStub)
}

func TestXattrProber_FileSizeInfo_Stub(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "stub")

	f, err := os.Create(p)
	require.NoError(t, err)
	// A sparse file: seek past the end and write one byte, so the logical
	// size is large but no blocks are allocated for most of it.
	_, err = f.Seek(10*1024*1024, 0)
	require.NoError(t, err)
	_, err = f.Write([]byte{1})
	require.NoError(t, err)
	require.NoError(t, f.Close())

	prober := NewXattrProber()
	info, err := prober.FileSizeInfo(p)
	require.NoError(t, err)
	assert.True(t, info.IsStub, "sparse file must be reported as a stub")
}
