// Package main is the entry point for the auto-header language server.
package main

import (
	"os"

	"github.com/dshills/autoheader/cmd/auto-header-server/cmd"
)

func main() {
	os.Exit(cmd.Execute())
}
