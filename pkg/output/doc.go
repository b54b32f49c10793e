// Package output renders command results for humans and machines.
//
// Four formats are supported. Auto picks term or text from the output
// stream: NO_COLOR, a non-terminal stream or an ASCII-only terminal give
// text. Term styles output with lipgloss using the semantic styles in
// styles.yaml, text is the same layout without escape codes, and json is a
// stable machine-readable form.
package output
