package api

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/glxcee/storm-tape/internal/problem"
	"github.com/glxcee/storm-tape/internal/recall"
)

// defaultInProgressCount mirrors
// original_source/storm-tape/src/in_progress_request.hpp's
// InProgressRequest::n_files default.
const defaultInProgressCount = 1000

// handleReadyTakeOver implements GET /api/v1/recalltable/ready-take-over:
// a bare count, plain text.
func (s *Server) handleReadyTakeOver(w http.ResponseWriter, r *http.Request) {
	n, err := s.handoff.ReadyTakeOver(r.Context())
	if err != nil {
		writeError(w, &problem.PersistenceError{Err: err})
		return
	}
	writePlainText(w, fmt.Sprintf("%d\n", n))
}

// handleTakeOver implements POST /api/v1/recalltable/take-over. The body
// is not JSON: it is a single url-encoded "first=N" pair, or empty for the
// default of one file
// (original_source/storm-tape2/src/io.cpp's from_body_params).
func (s *Server) handleTakeOver(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, problem.NewValidationError("Invalid body content"))
		return
	}

	n := recall.MinTakeOver
	if len(body) > 0 {
		values, parseErr := url.ParseQuery(string(body))
		if parseErr != nil || !values.Has("first") {
			writeError(w, problem.NewValidationError("Invalid body content"))
			return
		}
		parsed, convErr := strconv.Atoi(values.Get("first"))
		if convErr != nil || parsed < recall.MinTakeOver || parsed > recall.MaxTakeOver {
			writeError(w, problem.NewValidationError("Invalid number of files"))
			return
		}
		n = parsed
	}

	paths, err := s.handoff.TakeOver(r.Context(), n)
	if err != nil {
		if errors.Is(err, recall.ErrOutOfRange) {
			writeError(w, problem.NewValidationError("Invalid number of files"))
			return
		}
		writeError(w, &problem.PersistenceError{Err: err})
		return
	}

	var sb strings.Builder
	for _, p := range paths {
		sb.WriteString("unused ")
		sb.WriteString(p)
		sb.WriteString("\n")
	}
	writePlainText(w, sb.String())
}

// handleInProgress implements GET /api/v1/recalltable/in-progress?n=&precise=.
// Both parameters silently fall back to their default on a parse failure
// instead of erroring, unlike take-over's "first"
// (original_source/storm-tape2/src/io.cpp's from_query_params).
func (s *Server) handleInProgress(w http.ResponseWriter, r *http.Request) {
	n := defaultInProgressCount
	if v := r.URL.Query().Get("n"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
			n = parsed
		}
	}

	precise := false
	if v := r.URL.Query().Get("precise"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed >= 0 {
			precise = parsed != 0
		}
	}

	paths, err := s.handoff.InProgress(r.Context(), n, precise)
	if err != nil {
		writeError(w, &problem.PersistenceError{Err: err})
		return
	}

	var sb strings.Builder
	for _, p := range paths {
		sb.WriteString(p)
		sb.WriteString("\n")
	}
	writePlainText(w, sb.String())
}
