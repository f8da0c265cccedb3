package pathresolver

import (
	"errors"
	"fmt"
	"path"
	"path/filepath"
	"sort"
	"strings"
)

// LogicalPath is a normalised absolute path as named by a client. It is kept
// lexically distinct from PhysicalPath so the two are never accidentally
// interchanged; construct one with NewLogicalPath.
type LogicalPath string

// NewLogicalPath normalises p (lexically, posix-style) into a LogicalPath.
func NewLogicalPath(p string) LogicalPath {
	return LogicalPath(path.Clean("/" + strings.TrimPrefix(p, "/")))
}

func (p LogicalPath) String() string { return string(p) }

// PhysicalPath is a normalised absolute filesystem path. See LogicalPath.
type PhysicalPath string

func (p PhysicalPath) String() string { return string(p) }

// StorageArea binds a filesystem root to one or more logical access-point
// prefixes. See spec.md section 3 for the field invariants (name format,
// root absoluteness, access-point non-emptiness and uniqueness); those are
// enforced by internal/config, not by this package.
type StorageArea struct {
	Name         string
	Root         string
	AccessPoints []string
}

// ErrNoStorageArea is returned by Resolve when no configured access point
// is a prefix of the given logical path.
var ErrNoStorageArea = errors.New("no storage area matches this path")

// accessPointEntry pairs one access point with the storage area that owns
// it, pre-sorted so the longest (most specific) prefix is tried first.
type accessPointEntry struct {
	prefix string
	area   *StorageArea
}

// Resolver resolves LogicalPath values to PhysicalPath values against a
// fixed, immutable storage-area table. Build one with New; it is then safe
// to share across goroutines without further synchronization.
type Resolver struct {
	entries []accessPointEntry
}

// New builds a Resolver from a storage-area table. The table is assumed to
// have already passed internal/config's validation (unique names, disjoint
// access points); New only sorts access points by descending length so
// nested access points resolve to the most specific storage area, per
// spec.md section 4.1 ("prefer the longest matching access point").
func New(areas []StorageArea) *Resolver {
	var entries []accessPointEntry
	for i := range areas {
		area := &areas[i]
		for _, ap := range area.AccessPoints {
			entries = append(entries, accessPointEntry{prefix: path.Clean(ap), area: area})
		}
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return len(entries[i].prefix) > len(entries[j].prefix)
	})
	return &Resolver{entries: entries}
}

// Resolve computes the PhysicalPath for a LogicalPath: root ⊕ (P − A), where
// A is the longest matching access point and ⊕ is a path join, normalised.
// Resolve never checks that the result exists on disk — that is the
// caller's concern (the stage operation stats the result; the Storage Probe
// interprets it once it is known to exist).
func (r *Resolver) Resolve(p LogicalPath) (PhysicalPath, error) {
	logical := string(p)
	for _, e := range r.entries {
		if !isPrefix(e.prefix, logical) {
			continue
		}
		rest := strings.TrimPrefix(logical, e.prefix)
		physical := filepath.Join(e.area.Root, rest)
		return PhysicalPath(filepath.Clean(physical)), nil
	}
	return "", fmt.Errorf("%w: %s", ErrNoStorageArea, logical)
}

// isPrefix reports whether prefix is a path-component-aligned prefix of p
// (so "/atlas" matches "/atlas/A" but not "/atlasfoo").
func isPrefix(prefix, p string) bool {
	if prefix == "/" {
		return true
	}
	if p == prefix {
		return true
	}
	return strings.HasPrefix(p, prefix+"/")
}
