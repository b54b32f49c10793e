// Package conflict provides checksum handlers for writer.Writer: what to do
// when a generated file was edited by hand since the last sync.
//
// Policies never touch the filesystem. Prompting is delegated to a
// Prompter so the CLI can ask on a terminal while tests and headless runs
// answer programmatically.
package conflict
