package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jpalmerr/sitepatch/config"
)

// addConfigFlags registers the flags shared by commands that open a site.
func addConfigFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("config", "c", "", "path to config file")
	cmd.Flags().String("root", "", "site root directory (default: current directory)")
	cmd.Flags().String("document", "", "document rewritten by saves, relative to the root (default: index.html)")
}

// loadConfig reads the config file named by --config, or the defaults when
// none is given, then applies any flags the user set explicitly.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.Default()

	configFile, _ := cmd.Flags().GetString("config")
	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	flags := cmd.Flags()
	if flags.Changed("root") {
		cfg.Root, _ = flags.GetString("root")
	}
	if flags.Changed("document") {
		cfg.Document, _ = flags.GetString("document")
	}
	if flags.Lookup("port") != nil && flags.Changed("port") {
		cfg.Port, _ = flags.GetInt("port")
	}
	if flags.Lookup("log-level") != nil && flags.Changed("log-level") {
		cfg.LogLevel, _ = flags.GetString("log-level")
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid flags: %w", err)
	}
	return cfg, nil
}
