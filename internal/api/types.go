package api

import "github.com/glxcee/storm-tape/internal/pathresolver"

// stageFileRequest is one entry of the "files" array POST /api/v1/stage
// accepts.
type stageFileRequest struct {
	Path string `json:"path"`
}

type stageRequest struct {
	Files []stageFileRequest `json:"files"`
}

type stageResponse struct {
	RequestID string `json:"requestId"`
}

type fileResponse struct {
	Path  string `json:"path"`
	State string `json:"state"`
}

type statusResponse struct {
	ID          string         `json:"id"`
	CreatedAt   int64          `json:"createdAt"`
	StartedAt   int64          `json:"startedAt"`
	CompletedAt int64          `json:"completedAt"`
	Files       []fileResponse `json:"files"`
}

// pathsRequest is the body cancel and release accept. The reference
// implementation reads "paths" first and falls back to the stage-request
// "files" shape ({"files":[{"path":"..."}]}) when "paths" is absent;
// io.cpp's from_json(RequestWithPaths::Tag) does the same, so a client
// that re-posts its original stage body to cancel/release still works.
type pathsRequest struct {
	Paths []string           `json:"paths"`
	Files []stageFileRequest `json:"files"`
}

func (r pathsRequest) logicalPaths() ([]string, bool) {
	var paths []string
	switch {
	case r.Paths != nil:
		paths = r.Paths
	case r.Files != nil:
		paths = make([]string, len(r.Files))
		for i, f := range r.Files {
			paths[i] = f.Path
		}
	default:
		return nil, false
	}

	// Normalize the way io.cpp's from_json(RequestWithPaths::Tag) calls
	// lexically_normal: a path like "/atlas/./A" must match the stored
	// LogicalPath, not be rejected as invalid.
	normalized := make([]string, len(paths))
	for i, p := range paths {
		normalized[i] = pathresolver.NewLogicalPath(p).String()
	}
	return normalized, true
}

// archiveInfoRequest is the body POST /api/v1/archiveinfo accepts: a flat
// list of logical paths, not bound to any stage.
type archiveInfoRequest struct {
	Paths []string `json:"paths"`
}

// archiveInfoEntry is one element of the archive-info response array: it
// carries either Locality or Error, never both, mirroring the
// boost::variant2<Locality, std::string> the reference PathInfo holds.
type archiveInfoEntry struct {
	Path     string `json:"path"`
	Locality string `json:"locality,omitempty"`
	Error    string `json:"error,omitempty"`
}
