// Package model defines the data types shared by every component of the
// tape-recall request lifecycle: file rows, stage requests, and the derived
// Locality summary. See spec.md section 3 for the authoritative description
// of each invariant; this package only encodes them.
//
// # Overview
//
// A Stage is a client's atomic batch of logical paths to bring from tape to
// disk. It owns an ordered sequence of File rows, each tracking one logical
// path through the state machine:
//
//	submitted -> started -> completed
//	                      -> failed
//	submitted -> cancelled
//	started   -> cancelled
//
// Stage-level timestamps (StartedAt, CompletedAt) are derived from the file
// rows by the lifecycle engine; this package does not recompute them on its
// own, it only exposes the fields and the small set of pure helpers
// (Stage.Recompute) that the lifecycle engine calls after applying a diff.
//
// # Thread safety
//
// Values of this package are plain data. None of the types here are safe
// for concurrent mutation; callers (internal/store, internal/lifecycle) are
// responsible for serializing access to a given Stage.
package model
