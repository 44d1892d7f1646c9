package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var scanCmd = &cobra.Command{
	Use:   "scan <file>",
	Short: "Scan a file for candidate secrets",
	Args:  cobra.ExactArgs(1),
	RunE:  runScan,
}

func runScan(cmd *cobra.Command, args []string) error {
	target := args[0]

	content, err := os.ReadFile(target)
	if err != nil {
		return fmt.Errorf("reading %s: %w", target, err)
	}

	s, err := buildScanner()
	if err != nil {
		return fmt.Errorf("building scanner: %w", err)
	}
	defer s.Close()

	candidates, err := s.Scan(target, content)
	if err != nil {
		return fmt.Errorf("scanning %s: %w", target, err)
	}

	if len(candidates) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), color.GreenString("no candidates found"))
		return nil
	}

	for _, c := range candidates {
		fmt.Fprintf(cmd.OutOrStdout(), "%s %s:%d-%d %s\n",
			color.YellowString("[candidate]"), target, c.ByteRange.Start, c.ByteRange.End, c.RuleID)
		if verbose {
			fmt.Fprintf(cmd.OutOrStdout(), "  match: %s\n", string(c.FullMatch))
		}
	}

	return nil
}
