package api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/glxcee/storm-tape/internal/problem"
)

// decodeJSON decodes r's body into v, wrapping any decoding failure as the
// "Invalid JSON" validation error every JSON-accepting endpoint reports
// (original_source/storm-tape2/src/io.cpp's from_json catches
// boost::system::system_error this same way).
func decodeJSON(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return problem.NewValidationError("Invalid JSON")
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writePlainText(w http.ResponseWriter, body string) {
	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, body)
}

// writeError renders err as application/problem+json. InvalidPathsError
// uses the same {"status","title"} envelope plus a "detail" naming the
// offending paths — see problem.ToProblem and
// original_source/storm-tape2/src/io.cpp's file_missing_to_json.
func writeError(w http.ResponseWriter, err error) {
	problem.WriteJSON(w, err)
}
