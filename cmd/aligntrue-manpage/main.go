// Command aligntrue-manpage writes the aligntrue(1) man page to stdout,
// or one page per command into a directory with --dir.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra/doc"
	flag "github.com/spf13/pflag"

	"github.com/AlignTrue/aligntrue-sync-sub003/cmd/aligntrue"
	"github.com/AlignTrue/aligntrue-sync-sub003/internal/version"
)

func main() {
	dir := flag.String("dir", "", "write one page per command into this directory")
	flag.Parse()

	rootCmd := aligntrue.NewRootCmd()

	header := &doc.GenManHeader{
		Title:   "ALIGNTRUE",
		Section: "1",
		Source:  "aligntrue " + version.Version,
		Manual:  "aligntrue manual",
	}

	var err error
	if *dir != "" {
		if err = os.MkdirAll(*dir, 0755); err == nil {
			err = doc.GenManTree(rootCmd, header, *dir)
		}
	} else {
		err = doc.GenMan(rootCmd, header, os.Stdout)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error generating man page: %v\n", err)
		os.Exit(1)
	}
}
