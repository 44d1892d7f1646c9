package main

import (
	"context"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/kestrelsec/kestrel/internal/types"
)

var validateCmd = &cobra.Command{
	Use:   "validate <file>",
	Short: "Scan a file and confirm each candidate via its registered HTTP validator",
	Args:  cobra.ExactArgs(1),
	RunE:  runValidate,
}

func runValidate(cmd *cobra.Command, args []string) error {
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

	ctx := context.Background()
	for _, c := range candidates {
		result, validated := s.ValidateCandidate(ctx, c)
		label := fmt.Sprintf("%s:%d-%d %s", target, c.ByteRange.Start, c.ByteRange.End, c.RuleID)

		if !validated {
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s (no validator registered)\n", color.YellowString("[unverified]"), label)
			continue
		}

		switch result.Kind {
		case types.KindSecret:
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s category=%s severity=%d\n", color.RedString("[secret]"), label, result.Category, result.Severity)
		case types.KindNotSecret:
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", color.GreenString("[dead]"), label)
		case types.KindInconclusive:
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", color.CyanString("[inconclusive]"), label)
		case types.KindValidationError:
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s: %v\n", color.MagentaString("[validation error]"), label, result.Err)
		}
	}

	return nil
}
