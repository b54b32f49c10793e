// Package sync runs a sync: it pulls the edit source into the rules
// document, renders every configured exporter and writes the output files
// through one atomic writer.
//
// Writes to different output files fan out with bounded concurrency. Two
// exporters may not claim the same path, so the writer never sees
// concurrent writes to one file.
//
// With Atomic set, the first failed file cancels the writes not yet
// started, files already written are restored to their previous content
// and the writer's pending backups are rolled back.
package sync
