// Package probe implements the Storage Probe: three independent facts about
// a physical file (is it a sparse stub, is a recall in progress, does a
// tape copy exist) and the caching façade (Status) that derives a Locality
// from them for one observation pass.
//
// # Overview
//
// Prober is the only interface the lifecycle engine depends on (spec.md
// section 9, "Polymorphism over Storage"); it has one production
// implementation, XattrProber, built on extended attributes and stat(2)
// block counts, and one test double, FakeProber.
//
// Status wraps a Prober for exactly one physical path and memoises each of
// the three probe results the first time it is asked for, so a single
// observation pass never issues the same syscall twice for the same file,
// and so consecutive passes never see a stale cached value (a fresh Status
// is constructed per file per pass; nothing here is cached across passes).
//
// # The two extended attributes
//
//   - user.TSMRecT is the core's write / the external recaller's clear: its
//     presence means "a recall is in progress for this path."
//   - user.storm.migrated is the tape system's write / the core's read: its
//     presence means "a tape copy of this path exists."
package probe
