// Package main is the entry point for the sitepatch CLI.
//
// sitepatch can be run either as a library (SDK) or as a standalone binary
// with optional YAML configuration. This CLI provides the standalone binary
// approach.
//
// Usage:
//
//	sitepatch init ./site               # Write a starter site
//	sitepatch serve --root ./site       # Serve the site and accept saves
//	sitepatch serve -c sitepatch.yaml   # Same, from a config file
//	sitepatch validate -c sitepatch.yaml
//	sitepatch show -c sitepatch.yaml    # Print the records in the document
//	sitepatch version                   # Show version info
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Version information - set at build time via ldflags.
// Example: go build -ldflags "-X main.version=1.0.0"
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// newRootCmd builds the command tree. A fresh tree per invocation keeps flag
// values from leaking between runs in tests.
func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "sitepatch",
		Short: "A local dev server that lets an editor save into your HTML",
		Long: `sitepatch serves a static site and rewrites the data embedded in its
main HTML document when a visual editor saves.

The document must contain a JavaScript array assignment such as:

  <script>
    const PROJECTS = [ ... ];
  </script>

POST /save-projects with {"projects": [...]} replaces that array in place,
leaving every other byte of the file untouched.

Quick start:
  1. Run: sitepatch init ./site
  2. Run: sitepatch serve -c ./site/sitepatch.yaml
  3. Open http://localhost:8080 in your browser`,
		SilenceUsage: true,
		// No Run/RunE means this just shows help when called without subcommands
	}

	rootCmd.AddCommand(
		newServeCmd(),
		newValidateCmd(),
		newShowCmd(),
		newInitCmd(),
		newVersionCmd(),
	)
	return rootCmd
}

// Execute runs the root command.
// This is the main entry point called from main().
func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		// Cobra already prints the error, just exit with code 1
		os.Exit(1)
	}
}

func main() {
	Execute()
}

// newVersionCmd prints version information.
func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Long:  `Print the version, commit hash, and build date of this sitepatch binary.`,
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "sitepatch %s\n", version)
			fmt.Fprintf(out, "  commit: %s\n", commit)
			fmt.Fprintf(out, "  built:  %s\n", date)
		},
	}
}
