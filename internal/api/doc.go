// Package api wires the Request Store, Lifecycle Engine, Recall Handoff
// and path resolver into the site-local HTTP surface (spec.md section 6):
// stage creation and status, cancel/release, archive-info lookups, and the
// three recalltable endpoints the external recaller polls.
//
// # Overview
//
// Server holds the dependencies every handler needs and exposes NewRouter,
// which wires them onto a github.com/go-chi/chi/v5 mux. Handlers are kept
// thin: decode, call one collaborator, encode. Error handling funnels
// through internal/problem so every failure path produces the same
// application/problem+json shape the reference service does, except for
// the three recalltable endpoints, which are plain text (spec.md section
// 6, "Recalltable responses are plain text, not JSON").
//
// # Request/response shapes
//
// JSON bodies follow original_source/storm-tape2/src/io.cpp's to_json and
// from_json overloads verbatim, including the "files" vs "paths" body key
// fallback accepted by cancel and release, and the exact archive-info
// per-path check ordering (not exists, other stat error, directory, not a
// regular file, then computed locality) from
// original_source/storm-tape/src/tape_service_utils.hpp's
// archive_info_loop.
package api
