// Package testutil provides utilities for testing aligntrue components.
//
// Key components:
//   - TestEnvironment: a project root backed by either an in-memory afero
//     filesystem or a real temp directory
//   - FaultFS: an afero.Fs wrapper that injects rename and write failures,
//     used to exercise cross-device fallbacks and failed-write guarantees
//
// Usage guidelines:
//   - Prefer EnvMemoryOnly; use EnvIsolated when a test needs real rename
//     semantics or file modes
//   - All test data should be defined inline, not in external files
package testutil
