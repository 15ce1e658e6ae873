package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jpalmerr/sitepatch"
	"github.com/jpalmerr/sitepatch/config"
)

// newShowCmd prints the records stored in the document.
func newShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print the records stored in the document",
		Long: `Print the records currently stored in the document's literal as JSON.

The literal must be JSON-compatible; comments and trailing commas are
tolerated.

Example:
  sitepatch show -c sitepatch.yaml
  sitepatch show --root ./site > projects.json`,
		Args: cobra.NoArgs,
		RunE: runShow,
	}

	addConfigFlags(cmd)
	return cmd
}

func runShow(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	srv, err := sitepatch.New(config.BuildOptions(cfg, nil)...)
	if err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	projects, err := srv.Projects()
	if err != nil {
		return err
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(projects)
}
