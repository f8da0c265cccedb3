// Package config loads and validates the StoRM-Tape YAML configuration
// file described in spec.md section 6.
//
// # Overview
//
// Load reads a YAML document, decodes it with gopkg.in/yaml.v3, and applies
// every validation rule the reference implementation enforces
// (original_source/storm-tape/src/configuration.cpp):
//
//   - storage-area names match ^[A-Za-z][A-Za-z0-9._-]*$ and are unique
//     case-insensitively;
//   - storage-area roots are absolute, existing directories; when
//     mirror-mode is false, the root must additionally be writable and
//     support user extended attributes, verified with a throwaway probe
//     file;
//   - access points are absolute, non-empty, and no two storage areas
//     share one;
//   - port, log-level and concurrency fall within their documented ranges.
//
// Any violation is returned as a ConfigurationError and must abort startup
// before any request is served (spec.md section 7).
package config
