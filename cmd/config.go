package cmd

import (
	"fmt"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/prettymuchbryce/gogrouper/internal/config"
	"github.com/prettymuchbryce/gogrouper/internal/pathutil"
)

// loadConfig loads the --config file, creating the default one on first use,
// and applies its logging level.
func loadConfig(cmd *cobra.Command, afs afero.Fs) (*config.Config, string, error) {
	var path string
	var err error

	if cmd.Flags().Changed("config") {
		path = pathutil.ExpandTilde(configPath)
	} else {
		path, err = config.EnsureDefaultConfig(afs, configPath)
		if err != nil {
			return nil, "", err
		}
	}

	cfg, err := config.LoadWithFs(path, afs)
	if err != nil {
		return nil, "", fmt.Errorf("failed to load config: %w", err)
	}

	SetupLogging(cfg.Logging.Level)
	return cfg, path, nil
}
