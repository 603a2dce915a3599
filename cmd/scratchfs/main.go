// Package main is the entry point for the scratchfs CLI.
//
// scratchfs exposes a composable virtual filesystem for agent context:
// an in-memory default namespace plus any number of mounted backends
// (disk directories, badger databases) declared in a YAML mount file.
//
// Usage:
//
//	scratchfs [flags] <command> [args]
//
// Commands:
//
//	ls       - List a directory
//	read     - Read a file with line numbers
//	write    - Create a new file
//	edit     - Replace a string in a file
//	grep     - Search file contents with a regular expression
//	glob     - Find files by glob pattern
//	version  - Show version information
package main

import (
	"fmt"
	"os"

	"github.com/pailab/scratchfs/cmd/scratchfs/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(commands.ExitCode(err))
	}
}
