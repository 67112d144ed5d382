// Config loading for the healthstore CLI.
package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

const (
	configFileName = "config"
	configFileType = "yaml"
	configFileFull = "config.yaml"

	// Config keys.
	cfgKeyDataDir        = "data_dir"
	cfgKeyRetentionDays  = "retention_days"
	cfgKeyExportDest     = "export_destination"
	cfgKeyRoutesEnabled  = "flags.exercise_routes_enabled"
	cfgKeyBackgroundRead = "flags.background_read_enabled"
)

// defaultConfigYAML is written to config.yaml on first run.
const defaultConfigYAML = `# Healthstore CLI configuration

# Data directory (optional; overridable by --data-dir flag)
# data_dir:

# Change/access log retention in days (0 selects the default)
retention_days: 0

# Default export destination path (optional)
# export_destination:

flags:
  exercise_routes_enabled: true
  background_read_enabled: true
`

// loadConfig reads config.yaml from the resolved config directory using
// Viper, creating the directory and a default file on first run. A
// missing config.yaml is not an error.
func loadConfig(configDir string) (*viper.Viper, error) {
	if err := ensureConfigDir(configDir); err != nil {
		return nil, fmt.Errorf("ensure config dir: %w", err)
	}
	if err := ensureDefaultConfigFile(configDir); err != nil {
		return nil, fmt.Errorf("ensure default config: %w", err)
	}

	v := viper.New()
	v.SetConfigName(configFileName)
	v.SetConfigType(configFileType)
	v.AddConfigPath(configDir)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return v, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}
	return v, nil
}

func ensureConfigDir(configDir string) error {
	return os.MkdirAll(configDir, 0o755)
}

func ensureDefaultConfigFile(configDir string) error {
	path := filepath.Join(configDir, configFileFull)
	if _, err := os.Stat(path); err == nil {
		return nil
	} else if !os.IsNotExist(err) {
		return err
	}
	return os.WriteFile(path, []byte(defaultConfigYAML), 0o644)
}
