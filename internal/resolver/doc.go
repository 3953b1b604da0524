// Package resolver is the planning layer of the application. It builds a
// directed graph of library overrides and the node target from a build spec,
// detects cycles and unknown dependencies, and produces the deterministic
// topological build order consumed by the pipeline controller.
//
// The resolver performs no I/O and spawns no processes. The Plan it returns
// is immutable and safe for concurrent readers.
package resolver
