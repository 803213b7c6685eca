// cmd/roadmap/main.go
//
// Entry point for the roadmap CLI. Running `roadmap` from any directory opens
// the interactive board; subcommands cover scripting and the browser board.

package main

import (
	"fmt"
	"os"

	"github.com/kingrea/roadmap/internal/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
