package config

import (
	_ "embed"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/spf13/afero"

	"github.com/prettymuchbryce/gogrouper/internal/pathutil"
)

//go:embed config-example.yaml
var defaultConfigContent string

// EnsureDefaultConfig creates the default config file if it doesn't exist.
// Returns the expanded path and any error encountered.
func EnsureDefaultConfig(afs afero.Fs, configPath string) (string, error) {
	expanded := pathutil.ExpandTilde(configPath)

	if exists, err := afero.Exists(afs, expanded); err != nil {
		return "", err
	} else if exists {
		return expanded, nil
	}

	dir := filepath.Dir(expanded)
	if err := afs.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create config directory %s: %w", dir, err)
	}

	if err := afero.WriteFile(afs, expanded, []byte(defaultConfigContent), 0644); err != nil {
		return "", fmt.Errorf("failed to create default config %s: %w", expanded, err)
	}

	slog.Info("created default config", "path", expanded)
	return expanded, nil
}

