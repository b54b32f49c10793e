// Package config loads aligntrue settings. Sources are layered, later ones
// winning: embedded defaults, the project config file
// (.aligntrue/config.yaml or .aligntrue/config.toml), ALIGNTRUE_*
// environment variables, then explicit overrides such as CLI flags.
package config
