package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jpalmerr/sitepatch"
	"github.com/jpalmerr/sitepatch/config"
)

// newValidateCmd validates the config and the document without starting the server.
func newValidateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate a config file and its document",
		Long: `Validate a sitepatch configuration without starting the server.

This command parses the YAML, expands environment variables, validates
all fields, and checks that the document contains a literal a save could
rewrite. It's useful for CI/CD pipelines or pre-commit checks.

Exit codes:
  0 - Config and document are valid
  1 - Something is invalid (error details printed to stderr)

Example:
  sitepatch validate -c sitepatch.yaml
  sitepatch validate --root ./site`,
		Args: cobra.NoArgs,
		RunE: runValidate,
	}

	addConfigFlags(cmd)
	return cmd
}

func runValidate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	srv, err := sitepatch.New(config.BuildOptions(cfg, nil)...)
	if err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	if err := srv.Check(); err != nil {
		return fmt.Errorf("invalid document: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Config is valid!\n")
	fmt.Fprintf(out, "  Port:     %d\n", srv.Port())
	fmt.Fprintf(out, "  Root:     %s\n", srv.Root())
	fmt.Fprintf(out, "  Document: %s\n", srv.DocumentPath())
	fmt.Fprintf(out, "  Marker:   %s (%s)\n", srv.Marker(), srv.ScanMode())

	return nil
}
