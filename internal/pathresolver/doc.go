// Package pathresolver maps client-supplied logical paths to physical
// filesystem paths using the configured storage-area table.
//
// # Overview
//
// A StorageArea binds a filesystem root to one or more access-point
// prefixes. Given a LogicalPath, the Resolver finds the storage area whose
// access-point list contains the longest prefix of the path, then computes
// the PhysicalPath by stripping that prefix and joining the remainder onto
// the storage area's root.
//
// LogicalPath and PhysicalPath are distinct defined types specifically so
// that the compiler catches accidental mixing; the Resolver is the only
// place they meet (spec.md section 9, "Path types").
//
// # Thread safety
//
// A Resolver is built once from a validated, sorted table and never
// mutated afterward, so it requires no locking and is safe to share across
// every request goroutine.
package pathresolver
