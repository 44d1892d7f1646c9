package main

import "github.com/spf13/cobra"

var (
	verbose   bool
	rulesPath string
)

var rootCmd = &cobra.Command{
	Use:   "kestrel",
	Short: "kestrel - declarative secrets detection and validation",
	Long: `kestrel scans files for candidate secrets using regex-based detection
rules, applies declarative post-match checks, and can optionally confirm a
candidate is a live credential by issuing an HTTP request to the service
it belongs to.`,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().StringVar(&rulesPath, "rules", "", "path to a custom rule YAML file (defaults to the built-in rule set)")

	rootCmd.AddCommand(scanCmd)
	rootCmd.AddCommand(validateCmd)
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
