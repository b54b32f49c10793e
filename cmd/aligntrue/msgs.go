package aligntrue

import (
	_ "embed"
	"strings"
)

// Short messages (one-liners)
const (
	// Command descriptions
	MsgRootShort         = "Sync AI agent rules from one edit source to every agent"
	MsgSyncShort         = "Write every configured exporter's files"
	MsgWatchShort        = "Sync whenever the edit source changes"
	MsgSwitchShort       = "Change the files rules are edited in"
	MsgTrackShort        = "Show the checksum baseline drift detection uses for files"
	MsgChecksumShort     = "Print the normalized checksum of a file or stdin"
	MsgShowShort         = "Render the current rules document"
	MsgExportersShort    = "List available exporters"
	MsgInitShort         = "Create .aligntrue/config.yaml with default settings"
	MsgVersionShort      = "Print version information"
	MsgCompletionShort   = "Generate shell completion script"
	MsgChecksumLong      = "Checksum prints the sha256 digest aligntrue compares to detect hand edits. Line endings are normalized first, so CRLF and LF copies of a file have the same checksum. Use - to read stdin."
	MsgTrackLong         = "Track reads files the way the writer does before changing them and prints the checksum it would compare against on the next write."
	MsgExportersLong     = "Exporters lists every built-in exporter and marks the ones the project config enables."
	MsgShowLong          = "Show renders the rules document (.aligntrue/.rules.yaml) as markdown, the same content the markdown exporters write."
	MsgVersionLong       = "Print version information for aligntrue"
	MsgNoRules           = "No rules yet. Edit %s and run aligntrue sync."
	MsgConfigCreated     = "Created %s"
	MsgSwitchCancelled   = "Edit source left unchanged."
	MsgSwitchDryRun      = "Would switch edit source from %s to %s (%s)"
	MsgConfigSaved       = "Saved edit_source to %s"
	MsgWatchStarted      = "Watching %s for changes (Ctrl-C to stop)"
	MsgInteractiveNoTTY  = "Interactive mode needs a terminal; conflicts will abort the sync"
	MsgConfirmKeepSource = "keep-existing moves the files of %s to the archive and keeps the current rules. Continue?"

	// Flag descriptions
	MsgFlagVerbose     = "Increase verbosity (-v INFO, -vv DEBUG, -vvv TRACE)"
	MsgFlagDryRun      = "Preview changes without writing them"
	MsgFlagForce       = "Overwrite files edited outside aligntrue"
	MsgFlagFormat      = "Output format (auto, term, text, json)"
	MsgFlagRoot        = "Project root (default: git top level or current directory)"
	MsgFlagConfig      = "Config file (default: .aligntrue/config.yaml under the root)"
	MsgFlagInteractive = "Ask what to do with files edited outside aligntrue"
	MsgFlagAtomic      = "Roll back every file when one fails"
	MsgFlagExporter    = "Exporter to run instead of the configured ones (repeatable)"
	MsgFlagStrategy    = "Merge strategy (keep-both, keep-new, keep-existing, new-source-is-truth)"
	MsgFlagNoSync      = "Do not sync after switching"
	MsgFlagDebounce    = "Delay between a change and the sync it triggers"

	// Error messages
	MsgErrInitPaths  = "failed to initialize paths: %w"
	MsgErrNoCommand  = "no command specified"
	MsgErrConfigFile = "%s already exists (use --force to overwrite)"

	// Debug messages
	MsgDebugProjectRoot = "Debug: Using project root: %s (fallback=%v)\n"
)

// Long messages from embedded files
var (
	//go:embed msgs/root-long.txt
	msgRootLongRaw string
	MsgRootLong    = strings.TrimSpace(msgRootLongRaw)

	//go:embed msgs/sync-long.txt
	msgSyncLongRaw string
	MsgSyncLong    = strings.TrimSpace(msgSyncLongRaw)

	//go:embed msgs/sync-example.txt
	msgSyncExampleRaw string
	MsgSyncExample    = strings.TrimRight(msgSyncExampleRaw, "\n")

	//go:embed msgs/watch-long.txt
	msgWatchLongRaw string
	MsgWatchLong    = strings.TrimSpace(msgWatchLongRaw)

	//go:embed msgs/switch-long.txt
	msgSwitchLongRaw string
	MsgSwitchLong    = strings.TrimSpace(msgSwitchLongRaw)

	//go:embed msgs/switch-example.txt
	msgSwitchExampleRaw string
	MsgSwitchExample    = strings.TrimRight(msgSwitchExampleRaw, "\n")

	//go:embed msgs/init-long.txt
	msgInitLongRaw string
	MsgInitLong    = strings.TrimSpace(msgInitLongRaw)

	//go:embed msgs/fallback-warning.txt
	msgFallbackWarningRaw string
	MsgFallbackWarning    = strings.TrimSpace(msgFallbackWarningRaw)

	//go:embed msgs/usage-template.txt
	msgUsageTemplateRaw string
	MsgUsageTemplate    = strings.TrimSpace(msgUsageTemplateRaw)

	//go:embed msgs/completion-long.txt
	msgCompletionLongRaw string
	MsgCompletionLong    = strings.TrimSpace(msgCompletionLongRaw)
)
