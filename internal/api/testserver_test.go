package api

import (
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/glxcee/storm-tape/internal/lifecycle"
	"github.com/glxcee/storm-tape/internal/pathresolver"
	"github.com/glxcee/storm-tape/internal/probe"
	"github.com/glxcee/storm-tape/internal/recall"
	"github.com/glxcee/storm-tape/internal/store"
)

// testEnv bundles everything a handler test needs: a real temporary
// filesystem root under the "/atlas" access point, a FakeProber the test
// drives directly instead of real extended attributes, and a running
// httptest.Server in front of the full router.
type testEnv struct {
	root   string
	prober *probe.FakeProber
	store  *store.SQLiteStore
	srv    *httptest.Server
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	root := t.TempDir()
	prober := probe.NewFakeProber()

	resolver := pathresolver.New([]pathresolver.StorageArea{
		{Name: "sa1", Root: root, AccessPoints: []string{"/atlas"}},
	})

	st, err := store.NewSQLiteStore(filepath.Join(t.TempDir(), "storm-tape.sqlite"), prober, 4)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	engine := lifecycle.New(st, prober, nil, nil)
	handoff := recall.New(st, prober, prober)

	s := NewServer(resolver, st, engine, handoff, prober, nil, nil)
	srv := httptest.NewServer(s.NewRouter())
	t.Cleanup(srv.Close)

	return &testEnv{root: root, prober: prober, store: st, srv: srv}
}

// physical returns the on-disk path backing logical path "/atlas/<name>".
func (e *testEnv) physical(name string) string {
	return filepath.Join(e.root, name)
}

// writeFile creates a real regular file at "/atlas/<name>" and marks it as
// a stub or fully allocated via the FakeProber fixture (stub detection
// itself is XattrProber's concern, already covered in internal/probe).
func (e *testEnv) writeFile(t *testing.T, name string, stub, onTape bool) {
	t.Helper()
	p := e.physical(name)
	require.NoError(t, os.WriteFile(p, []byte("data"), 0o644))
	e.prober.Sizes[p] = probe.FileSizeInfo{Size: 4, IsStub: stub}
	e.prober.OnTape[p] = onTape
}

// mkdirAtlas creates a real directory at "/atlas/<name>", for the
// is-a-directory edge case.
func mkdirAtlas(e *testEnv, name string) error {
	return os.Mkdir(e.physical(name), 0o755)
}
