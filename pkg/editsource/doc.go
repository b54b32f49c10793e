// Package editsource resolves the user's edit-source patterns to files and
// reconciles content when the configured edit source changes.
//
// Content gathering is best effort: patterns that match nothing contribute
// nothing and unreadable files are skipped with a warning. Files whose
// content a strategy discards are moved into the overwritten-rules archive,
// so nothing is lost and the next sync cannot pull them back in.
package editsource
