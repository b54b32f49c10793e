// Package writer implements the atomic, drift-aware file writer that every
// exported agent file goes through.
//
// A Writer keeps two private ledgers for the lifetime of one sync run:
//
//   - checksums: the digest of the content this writer last placed at each
//     path (or observed through TrackFile). A file whose current digest no
//     longer matches has drifted: someone edited it out of band.
//   - backups: for the duration of a single Write, a copy of the file as it
//     was before the write. Successful writes delete their backup; failed
//     writes keep it so Rollback can restore the file.
//
// New content is written to a randomly named temp directory and renamed
// onto the destination, so readers see either the old or the new file and
// never a partial one. Cross-device renames fall back to copy-then-delete.
//
// Writes to different paths may run concurrently. Concurrent writes to the
// same path through one Writer are not supported.
package writer
