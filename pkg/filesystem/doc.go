// Package filesystem provides the low-level file helpers shared by the
// writer, the edit-source merge strategies and the IR store.
//
// All helpers operate on an afero.Fs so that callers can run against the
// real disk (afero.NewOsFs) or an in-memory tree in tests.
package filesystem
