package main

import (
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/jpalmerr/sitepatch/internal/store"
	"github.com/jpalmerr/sitepatch/starter"
)

// newInitCmd writes the starter site into a directory.
func newInitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init [dir]",
		Short: "Write a starter site",
		Long: `Write a starter site into dir (default: the current directory).

The starter contains an index.html with a PROJECTS literal and a
sitepatch.yaml that serves the directory it sits in. Existing files are
left alone unless --force is given.

Example:
  sitepatch init ./site
  sitepatch serve -c ./site/sitepatch.yaml`,
		Args: cobra.MaximumNArgs(1),
		RunE: runInit,
	}

	cmd.Flags().Bool("force", false, "overwrite existing files")
	return cmd
}

func runInit(cmd *cobra.Command, args []string) error {
	dir := "."
	if len(args) == 1 {
		dir = args[0]
	}
	force, _ := cmd.Flags().GetBool("force")

	entries, err := fs.ReadDir(starter.Assets, starter.Dir)
	if err != nil {
		return fmt.Errorf("failed to read starter assets: %w", err)
	}

	// check everything first so a refusal leaves the directory untouched
	if !force {
		for _, e := range entries {
			target := filepath.Join(dir, e.Name())
			if _, err := os.Stat(target); err == nil {
				return fmt.Errorf("%s already exists (use --force to overwrite)", target)
			}
		}
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create %s: %w", dir, err)
	}

	out := cmd.OutOrStdout()
	for _, e := range entries {
		data, err := fs.ReadFile(starter.Assets, path.Join(starter.Dir, e.Name()))
		if err != nil {
			return fmt.Errorf("failed to read starter asset %s: %w", e.Name(), err)
		}

		target := filepath.Join(dir, e.Name())
		if err := store.NewFileDocument(target).Write(string(data)); err != nil {
			return err
		}
		fmt.Fprintf(out, "  wrote %s\n", target)
	}

	fmt.Fprintf(out, "\nNext: sitepatch serve -c %s\n", filepath.Join(dir, "sitepatch.yaml"))
	return nil
}
