package api

import (
	"net/http"
	"os"

	"go.uber.org/zap"

	"github.com/glxcee/storm-tape/internal/model"
	"github.com/glxcee/storm-tape/internal/pathresolver"
	"github.com/glxcee/storm-tape/internal/probe"
)

// handleArchiveInfo implements POST /api/v1/archiveinfo: it reports where
// each given logical path currently lives, independent of any stage
// request.
func (s *Server) handleArchiveInfo(w http.ResponseWriter, r *http.Request) {
	var req archiveInfoRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	entries := make([]archiveInfoEntry, len(req.Paths))
	for i, raw := range req.Paths {
		entries[i] = s.archiveInfo(raw)
	}
	writeJSON(w, http.StatusOK, entries)
}

// archiveInfo replicates, in order,
// original_source/storm-tape/src/tape_service_utils.hpp's
// archive_info_loop: a path that does not resolve or does not exist on
// disk is reported as an error string; any other stat failure is reported
// as LocalityUnavailable, a value rather than an error, because the
// reference treats it as "we can't tell, but something is there"; a
// directory or non-regular file is an error string; anything else gets
// the full probed locality with the lost -> unavailable client rewrite.
func (s *Server) archiveInfo(raw string) archiveInfoEntry {
	logical := pathresolver.NewLogicalPath(raw)
	entry := archiveInfoEntry{Path: logical.String()}

	physical, err := s.resolver.Resolve(logical)
	if err != nil {
		entry.Error = "No such file or directory"
		return entry
	}

	fi, statErr := os.Stat(physical.String())
	if statErr != nil {
		if os.IsNotExist(statErr) {
			entry.Error = "No such file or directory"
			return entry
		}
		entry.Locality = model.LocalityUnavailable.String()
		return entry
	}
	if fi.IsDir() {
		entry.Error = "Is a directory"
		return entry
	}
	if !fi.Mode().IsRegular() {
		entry.Error = "Not a regular file"
		return entry
	}

	locality := probe.NewStatus(s.prober, physical.String()).Locality()
	if locality == model.LocalityLost {
		s.logger.Info("file appears lost, check stubbification and presence of user.storm.migrated xattr",
			zap.String("path", physical.String()))
	}
	entry.Locality = locality.ClientLocality().String()
	return entry
}
