package lifecycle

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/glxcee/storm-tape/internal/model"
	"github.com/glxcee/storm-tape/internal/probe"
)

// TestExecutors_SequentialAndParallelAgree is the parity test spec.md
// section 9 asks for: probing the same batch sequentially or across a
// worker pool must produce index-aligned, identical results.
func TestExecutors_SequentialAndParallelAgree(t *testing.T) {
	fp := probe.NewFakeProber()
	var files []model.File
	for i := 0; i < 50; i++ {
		p := fmt.Sprintf("/tmp/root/%d", i)
		files = append(files, model.File{
			LogicalPath:  fmt.Sprintf("/atlas/%d", i),
			PhysicalPath: p,
			State:        model.StateSubmitted,
		})
		switch i % 4 {
		case 0:
			fp.Sizes[p] = probe.FileSizeInfo{Size: 10, IsStub: true}
		case 1:
			fp.Sizes[p] = probe.FileSizeInfo{Size: 10, IsStub: false}
		case 2:
			fp.InProgress[p] = true
			fp.Sizes[p] = probe.FileSizeInfo{Size: 10, IsStub: true}
		case 3:
			fp.Errors[p] = assertError{}
		}
	}

	seq := SequentialExecutor{}.Probe(files, fp)
	par := ParallelExecutor{Workers: 8}.Probe(files, fp)

	require := assert.New(t)
	require.Equal(len(seq), len(par))
	for i := range seq {
		require.Equal(seq[i], par[i], "index %d diverged between executors", i)
	}
}

type assertError struct{}

func (assertError) Error() string { return "boom" }
