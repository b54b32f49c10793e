// Package paths resolves the project root and the locations aligntrue
// reads and writes under it.
//
// Root resolution order:
//  1. an explicit root passed to New
//  2. the ALIGNTRUE_ROOT environment variable
//  3. the enclosing git repository (git rev-parse --show-toplevel)
//  4. the current working directory, flagged through UsedFallback
//
// Per-user state (logs) follows the XDG base directory layout.
package paths
