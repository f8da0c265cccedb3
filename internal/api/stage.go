package api

import (
	"errors"
	"fmt"
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/glxcee/storm-tape/internal/model"
	"github.com/glxcee/storm-tape/internal/pathresolver"
	"github.com/glxcee/storm-tape/internal/problem"
	"github.com/glxcee/storm-tape/internal/store"
	"github.com/glxcee/storm-tape/internal/telemetry"
)

// buildFile resolves one requested logical path and decides its initial
// state. A file whose logical path resolves to no storage area, or whose
// resolved physical path cannot be stat'd or is not a regular file,
// starts life already failed, a terminal state the transition table never
// moves it out of
// (original_source/storm-tape/src/tape_service_utils.hpp's
// stage_path_resolver).
func (s *Server) buildFile(raw stageFileRequest, now int64) model.File {
	logical := pathresolver.NewLogicalPath(raw.Path)

	physical, err := s.resolver.Resolve(logical)
	if err != nil {
		return model.File{
			LogicalPath: logical.String(),
			State:       model.StateFailed,
			StartedAt:   now,
			FinishedAt:  now,
		}
	}

	fi, statErr := os.Stat(physical.String())
	if statErr != nil || !fi.Mode().IsRegular() {
		return model.File{
			LogicalPath:  logical.String(),
			PhysicalPath: physical.String(),
			State:        model.StateFailed,
			StartedAt:    now,
			FinishedAt:   now,
		}
	}

	return model.File{
		LogicalPath:  logical.String(),
		PhysicalPath: physical.String(),
		State:        model.StateSubmitted,
	}
}

// handleStageCreate implements POST /api/v1/stage.
func (s *Server) handleStageCreate(w http.ResponseWriter, r *http.Request) {
	var req stageRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	now := s.now()
	files := make([]model.File, len(req.Files))
	for i, rf := range req.Files {
		files[i] = s.buildFile(rf, now)
	}

	id := uuid.NewString()
	telemetry.AnnotateStageID(r.Context(), id)
	stage := model.NewStage(id, now, files)
	if err := s.store.Insert(r.Context(), stage); err != nil {
		writeError(w, &problem.PersistenceError{Err: err})
		return
	}

	w.Header().Set("Location", fmt.Sprintf("%s/api/v1/stage/%s", requestBaseURL(r), id))
	writeJSON(w, http.StatusCreated, stageResponse{RequestID: id})
}

func requestBaseURL(r *http.Request) string {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	return fmt.Sprintf("%s://%s", scheme, r.Host)
}

// handleStageStatus implements GET /api/v1/stage/{id}: it re-probes every
// non-terminal file before answering, so the response always reflects the
// filesystem as of this call (spec.md section 4.4).
func (s *Server) handleStageStatus(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	telemetry.AnnotateStageID(r.Context(), id)

	stage, err := s.store.Find(r.Context(), id)
	if err != nil {
		writeFindError(w, id, err)
		return
	}

	stage, err = s.engine.Observe(r.Context(), stage)
	if err != nil {
		writeError(w, &problem.PersistenceError{Err: err})
		return
	}

	resp := statusResponse{
		ID:          stage.ID,
		CreatedAt:   stage.CreatedAt,
		StartedAt:   stage.StartedAt,
		CompletedAt: stage.CompletedAt,
		Files:       make([]fileResponse, len(stage.Files)),
	}
	for i, f := range stage.Files {
		resp.Files[i] = fileResponse{Path: f.LogicalPath, State: string(f.State)}
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleStageCancel implements POST /api/v1/stage/{id}/cancel.
func (s *Server) handleStageCancel(w http.ResponseWriter, r *http.Request) {
	s.cancelOrRelease(w, r, chi.URLParam(r, "id"))
}

// handleStageRelease implements POST /api/v1/release/{id}. Release is a
// semantic alias of cancel (spec.md section 9, Open Question i): both end
// in every listed file moving to cancelled.
func (s *Server) handleStageRelease(w http.ResponseWriter, r *http.Request) {
	s.cancelOrRelease(w, r, chi.URLParam(r, "id"))
}

func (s *Server) cancelOrRelease(w http.ResponseWriter, r *http.Request, id string) {
	telemetry.AnnotateStageID(r.Context(), id)

	stage, err := s.store.Find(r.Context(), id)
	if err != nil {
		writeFindError(w, id, err)
		return
	}

	var req pathsRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	paths, ok := req.logicalPaths()
	if !ok {
		writeError(w, problem.NewValidationError("Invalid JSON"))
		return
	}

	invalid, err := s.engine.Cancel(r.Context(), stage, paths)
	if err != nil {
		writeError(w, &problem.PersistenceError{Err: err})
		return
	}
	if len(invalid) > 0 {
		writeError(w, &problem.InvalidPathsError{StageID: id, Paths: invalid})
		return
	}

	w.WriteHeader(http.StatusOK)
}

// handleStageDelete implements DELETE /api/v1/stage/{id}.
func (s *Server) handleStageDelete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	telemetry.AnnotateStageID(r.Context(), id)
	if err := s.store.Erase(r.Context(), id); err != nil {
		writeFindError(w, id, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func writeFindError(w http.ResponseWriter, id string, err error) {
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, &problem.NotFoundError{ID: id})
		return
	}
	writeError(w, &problem.PersistenceError{Err: err})
}
