package config

import (
	"fmt"
	"strings"

	"github.com/AlignTrue/aligntrue-sync-sub003/pkg/editsource"
	"github.com/AlignTrue/aligntrue-sync-sub003/pkg/errors"
)

// Validate checks the configuration. Exporter names are checked against
// known when it is non-nil.
func (c *Config) Validate(known []string) error {
	var problems []string

	if known != nil {
		valid := make(map[string]bool, len(known))
		for _, name := range known {
			valid[name] = true
		}
		for _, name := range c.Exporters {
			if !valid[name] {
				problems = append(problems, fmt.Sprintf("unknown exporter %q (available: %s)",
					name, strings.Join(known, ", ")))
			}
		}
	}
	if c.EditSource.IsEmpty() {
		problems = append(problems, "edit_source must name at least one file or pattern")
	}
	if _, err := editsource.ParseStrategy(c.Merge.Strategy); err != nil {
		problems = append(problems, fmt.Sprintf("unknown merge strategy %q", c.Merge.Strategy))
	}
	if c.Sync.Concurrency < 1 {
		problems = append(problems, fmt.Sprintf("sync.concurrency must be at least 1, got %d", c.Sync.Concurrency))
	}
	if c.Watch.Debounce < 0 {
		problems = append(problems, "watch.debounce cannot be negative")
	}
	if c.Paths.IR == "" {
		problems = append(problems, "paths.ir cannot be empty")
	}
	if c.Paths.Backups == "" {
		problems = append(problems, "paths.backups cannot be empty")
	}

	if len(problems) > 0 {
		return errors.Newf(errors.ErrConfigValid, "invalid configuration: %s", strings.Join(problems, "; ")).
			WithDetail("problems", problems)
	}
	return nil
}
