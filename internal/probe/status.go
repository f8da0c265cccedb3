package probe

import (
	"sync"

	"github.com/glxcee/storm-tape/internal/model"
)

// Status is the per-file, per-observation-pass caching façade the lifecycle
// engine consults instead of calling a Prober directly
// (ExtendedFileStatus in the reference implementation). Construct a fresh
// Status for every file of every pass; never reuse one across passes, or
// stale reads will leak across observations (spec.md section 9, "Caching
// probe").
type Status struct {
	prober Prober
	path   string

	inProgressOnce sync.Once
	inProgress     bool
	inProgressErr  error

	sizeOnce sync.Once
	size     FileSizeInfo
	sizeErr  error

	onTapeOnce sync.Once
	onTape     bool
	onTapeErr  error
}

// NewStatus builds a Status for one physical path, backed by prober.
func NewStatus(prober Prober, path string) *Status {
	return &Status{prober: prober, path: path}
}

// IsInProgress memoises and returns Prober.IsInProgress for this path.
func (s *Status) IsInProgress() (bool, error) {
	s.inProgressOnce.Do(func() {
		s.inProgress, s.inProgressErr = s.prober.IsInProgress(s.path)
	})
	return s.inProgress, s.inProgressErr
}

// IsStub memoises and returns the stub bit of Prober.FileSizeInfo.
func (s *Status) IsStub() (bool, error) {
	info, err := s.fileSizeInfo()
	return info.IsStub, err
}

// Size memoises and returns the logical size of Prober.FileSizeInfo.
func (s *Status) Size() (int64, error) {
	info, err := s.fileSizeInfo()
	return info.Size, err
}

func (s *Status) fileSizeInfo() (FileSizeInfo, error) {
	s.sizeOnce.Do(func() {
		s.size, s.sizeErr = s.prober.FileSizeInfo(s.path)
	})
	return s.size, s.sizeErr
}

// IsOnTape memoises and returns Prober.IsOnTape for this path.
func (s *Status) IsOnTape() (bool, error) {
	s.onTapeOnce.Do(func() {
		s.onTape, s.onTapeErr = s.prober.IsOnTape(s.path)
	})
	return s.onTape, s.onTapeErr
}

// Locality derives the six-valued Locality from the three probe facts per
// the truth table in spec.md section 4.2. Any underlying probe error
// collapses the result to LocalityUnavailable.
func (s *Status) Locality() model.Locality {
	stub, err := s.IsStub()
	if err != nil {
		return model.LocalityUnavailable
	}
	inProgress, err := s.IsInProgress()
	if err != nil {
		return model.LocalityUnavailable
	}
	onTape, err := s.IsOnTape()
	if err != nil {
		return model.LocalityUnavailable
	}

	onDisk := !stub && !inProgress
	switch {
	case onDisk && onTape:
		return model.LocalityDiskAndTape
	case onDisk && !onTape:
		return model.LocalityDisk
	case !onDisk && onTape:
		return model.LocalityTape
	default:
		return model.LocalityLost
	}
}
