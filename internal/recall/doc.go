// Package recall implements the Recall Handoff (spec.md section 4.5): the
// three operations the external tape-migration agent polls — how many
// files could be picked up right now, reserving a batch of them, and
// listing what is currently in flight.
//
// The heavy lifting — locating eligible candidates and serialising
// concurrent take-overs — lives in internal/store, since eligibility
// depends on persisted stage/file state as much as on live probe facts.
// This package is the thin orchestration on top: it validates bounds,
// calls the store, and drives the probe.Marker that actually stamps the
// sentinel extended attribute (spec.md section 4.5 step 2).
package recall
