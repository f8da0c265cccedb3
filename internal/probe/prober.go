package probe

import (
	"os"

	"github.com/pkg/xattr"
	"golang.org/x/sys/unix"
)

// XattrTSMRecT is the sentinel extended attribute the core sets to hand a
// file to the external recaller and the recaller clears once recall
// finishes. Its presence means "a recall is in progress."
const XattrTSMRecT = "user.TSMRecT"

// XattrMigrated is the extended attribute the tape system sets once a file
// has a tape copy. The core only ever reads it.
const XattrMigrated = "user.storm.migrated"

// blockSize is the traditional stat(2) block size used to detect sparse
// files: a file is a stub iff its allocated block count times this size is
// smaller than its logical size.
const blockSize = 512

// FileSizeInfo is the result of stat-ing a physical path: its logical size
// and whether it is sparsely allocated (a tape stub).
type FileSizeInfo struct {
	Size   int64
	IsStub bool
}

// Prober exposes the three independent Storage Probe facts over a physical
// path. The lifecycle engine never calls these directly; it goes through
// Status, which memoises results for one observation pass. There is exactly
// one production implementation (XattrProber) and one test double
// (FakeProber); no class hierarchy is needed (spec.md section 9).
type Prober interface {
	IsInProgress(path string) (bool, error)
	FileSizeInfo(path string) (FileSizeInfo, error)
	IsOnTape(path string) (bool, error)
}

// Marker is the subset of filesystem operations the Recall Handoff needs to
// reserve a file for the external recaller: creating the sentinel
// attribute. It is kept separate from Prober because it is a write, not an
// observation (spec.md section 9, "External recaller coupling").
type Marker interface {
	MarkInProgress(path string) error
}

// XattrProber is the production Prober/Marker implementation, built on
// extended attributes (github.com/pkg/xattr) and raw stat(2) block counts
// (golang.org/x/sys/unix.Stat, to read allocated block count directly
// rather than through the indirection of os.FileInfo.Sys()).
type XattrProber struct{}

// NewXattrProber returns the local-filesystem Prober/Marker.
func NewXattrProber() XattrProber { return XattrProber{} }

// IsInProgress reports whether the TSMRecT sentinel attribute is present.
func (XattrProber) IsInProgress(path string) (bool, error) {
	return hasXattr(path, XattrTSMRecT)
}

// IsOnTape reports whether the tape-migrated attribute is present.
func (XattrProber) IsOnTape(path string) (bool, error) {
	return hasXattr(path, XattrMigrated)
}

// FileSizeInfo stats path and derives IsStub from allocated-block count.
func (XattrProber) FileSizeInfo(path string) (FileSizeInfo, error) {
	var st unix.Stat_t
	if err := unix.Stat(path, &st); err != nil {
		return FileSizeInfo{}, &os.PathError{Op: "stat", Path: path, Err: err}
	}
	size := st.Size
	allocated := st.Blocks * blockSize
	return FileSizeInfo{Size: size, IsStub: allocated < size}, nil
}

// MarkInProgress creates the TSMRecT sentinel attribute on path, handing it
// to the external recaller. It is idempotent: creating an attribute that
// already exists is not an error.
func (XattrProber) MarkInProgress(path string) error {
	return xattr.Set(path, XattrTSMRecT, []byte{})
}

func hasXattr(path, name string) (bool, error) {
	_, err := xattr.Get(path, name)
	if err == nil {
		return true, nil
	}
	if xattr.IsNotExist(err) {
		return false, nil
	}
	return false, err
}
