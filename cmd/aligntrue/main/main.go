package main

import (
	"os"

	"github.com/AlignTrue/aligntrue-sync-sub003/cmd/aligntrue"
)

func main() {
	os.Exit(aligntrue.Execute())
}
