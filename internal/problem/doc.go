// Package problem implements the error taxonomy of spec.md section 7 and
// renders it as application/problem+json: {"status":<code>,"title":"<msg>"}
// plus an optional "detail" for errors that must name specifics (the
// invalid paths returned by cancel/release).
//
// ProbeError is deliberately absent here: it is never surfaced to a
// client. A probe failure during observation folds into Locality
// unavailable or file state failed (see internal/probe and
// internal/lifecycle) and is only ever logged.
package problem
