// Command kestrel is a thin CLI demonstrating the scanning library
// end-to-end (spec.md §1 "CLI argument parsing" is explicitly an external
// collaborator, not part of the core). Structured after the teacher's
// cmd/titus entrypoint, trimmed to the two subcommands this spec's
// Scanner actually needs to exercise.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
