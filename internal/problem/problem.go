package problem

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

// Problem is the application/problem+json wire shape.
type Problem struct {
	Status int    `json:"status"`
	Title  string `json:"title"`
	Detail string `json:"detail,omitempty"`
}

// ValidationError covers malformed request bodies and query parameters:
// "Invalid JSON", "Invalid number of files", "Invalid query parameters",
// "Invalid body content".
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// NewValidationError is a convenience constructor for ValidationError.
func NewValidationError(format string, args ...any) *ValidationError {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// NotFoundError is returned for an unknown Stage id.
type NotFoundError struct {
	ID string
}

func (e *NotFoundError) Error() string { return "Stage Not Found" }

// InvalidPathsError is returned by cancel/release when one or more
// requested paths do not belong to the stage (or are already terminal).
// No modification is made to the stage when this error is returned.
type InvalidPathsError struct {
	StageID string
	Paths   []string
}

func (e *InvalidPathsError) Error() string {
	quoted := make([]string, len(e.Paths))
	for i, p := range e.Paths {
		quoted[i] = "'" + p + "'"
	}
	plural := ""
	verb := "does"
	if len(e.Paths) > 1 {
		plural = "s"
		verb = "do"
	}
	return fmt.Sprintf(
		"The file%s %s %s not belong to the STAGE request %s. No modification has been made to this request.",
		plural, strings.Join(quoted, " "), verb, e.StageID)
}

// PersistenceError wraps a transient failure inside the Request Store
// writer. The waiting handler surfaces it as 500; the writer goroutine
// itself survives and keeps serving the next queued operation.
type PersistenceError struct {
	Err error
}

func (e *PersistenceError) Error() string { return fmt.Sprintf("persistence error: %v", e.Err) }
func (e *PersistenceError) Unwrap() error { return e.Err }

// ToProblem maps an error from the taxonomy above to its wire
// representation. Anything unrecognised becomes a generic 500.
func ToProblem(err error) Problem {
	switch e := err.(type) {
	case *ValidationError:
		return Problem{Status: http.StatusBadRequest, Title: e.Message}
	case *NotFoundError:
		return Problem{Status: http.StatusNotFound, Title: "Stage Not Found"}
	case *InvalidPathsError:
		return Problem{
			Status: http.StatusBadRequest,
			Title:  "File missing from stage request",
			Detail: e.Error(),
		}
	case *PersistenceError:
		return Problem{Status: http.StatusInternalServerError, Title: "Internal Server Error"}
	default:
		return Problem{Status: http.StatusInternalServerError, Title: "Internal Server Error"}
	}
}

// WriteJSON renders err as application/problem+json with the matching
// HTTP status code.
func WriteJSON(w http.ResponseWriter, err error) {
	p := ToProblem(err)
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(p.Status)
	_ = json.NewEncoder(w).Encode(p)
}
