package probe

import "fmt"

// FakeProber is the one test double named in spec.md section 9
// ("Polymorphism over Storage"): an in-memory stand-in for XattrProber that
// lets lifecycle and recall tests drive specific probe outcomes without
// touching a real filesystem or real extended attributes.
type FakeProber struct {
	InProgress map[string]bool
	OnTape     map[string]bool
	Sizes      map[string]FileSizeInfo
	// Errors, keyed by path, force the corresponding probe call to fail.
	Errors map[string]error
}

// NewFakeProber returns an empty FakeProber ready for per-test population.
func NewFakeProber() *FakeProber {
	return &FakeProber{
		InProgress: map[string]bool{},
		OnTape:     map[string]bool{},
		Sizes:      map[string]FileSizeInfo{},
		Errors:     map[string]error{},
	}
}

func (f *FakeProber) IsInProgress(path string) (bool, error) {
	if err, ok := f.Errors[path]; ok {
		return false, err
	}
	return f.InProgress[path], nil
}

func (f *FakeProber) FileSizeInfo(path string) (FileSizeInfo, error) {
	if err, ok := f.Errors[path]; ok {
		return FileSizeInfo{}, err
	}
	info, ok := f.Sizes[path]
	if !ok {
		return FileSizeInfo{}, fmt.Errorf("fake probe: no size fixture for %s", path)
	}
	return info, nil
}

func (f *FakeProber) IsOnTape(path string) (bool, error) {
	if err, ok := f.Errors[path]; ok {
		return false, err
	}
	return f.OnTape[path], nil
}

// MarkInProgress sets the in-memory in-progress flag, mirroring
// XattrProber.MarkInProgress without touching real extended attributes.
func (f *FakeProber) MarkInProgress(path string) error {
	if err, ok := f.Errors[path]; ok {
		return err
	}
	f.InProgress[path] = true
	return nil
}
