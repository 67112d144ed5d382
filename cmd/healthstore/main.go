// Package main provides the healthstore maintenance CLI: initialize a
// store, inspect its export state, and trigger export/import.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/openvitals/healthstore/internal/paths"
	"github.com/openvitals/healthstore/internal/service"
	"github.com/openvitals/healthstore/internal/sqlite"
	"github.com/openvitals/healthstore/pkg/healthstore"
	"github.com/openvitals/healthstore/pkg/types"
)

// Exit codes.
const (
	exitUserError = 1
	exitSysError  = 2
)

// Global flag values.
var (
	flagConfigDir string
	flagDataDir   string
)

// Values loaded from config.yaml by PersistentPreRunE.
var (
	configDataDir       string
	configRetentionDays int
	configExportDest    string
	configFlags         types.FeatureFlags
)

var rootCmd = &cobra.Command{
	Use:     "healthstore",
	Short:   "Healthstore is a per-user typed health-record store",
	Version: healthstore.Version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		configDir, err := resolveConfigDir()
		if err != nil {
			return err
		}
		cfg, err := loadConfig(configDir)
		if err != nil {
			return err
		}
		configDataDir = cfg.GetString(cfgKeyDataDir)
		configRetentionDays = cfg.GetInt(cfgKeyRetentionDays)
		configExportDest = cfg.GetString(cfgKeyExportDest)
		configFlags.ExerciseRoutesEnabled = cfg.GetBool(cfgKeyRoutesEnabled)
		configFlags.BackgroundReadEnabled = cfg.GetBool(cfgKeyBackgroundRead)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfigDir, "config-dir", "", "configuration directory (default: platform config dir)")
	rootCmd.PersistentFlags().StringVar(&flagDataDir, "data-dir", "", "data directory (default: $(CWD)/.healthstore-db)")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(importCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitUserError)
	}
}

// resolveConfigDir follows the precedence flag > env > platform default.
func resolveConfigDir() (string, error) {
	return paths.ResolveConfigDir(flagConfigDir)
}

// resolveDataDir follows the precedence flag > config.yaml > env >
// $(CWD)/.healthstore-db.
func resolveDataDir() (string, error) {
	return paths.ResolveDataDir(flagDataDir, configDataDir)
}

// storeConfig assembles the store Config from flags and config.yaml.
func storeConfig() (types.Config, error) {
	dataDir, err := resolveDataDir()
	if err != nil {
		return types.Config{}, err
	}
	return types.Config{
		DataDir:           dataDir,
		RetentionDays:     configRetentionDays,
		Flags:             configFlags,
		ExportDestination: configExportDest,
	}, nil
}

// openService opens the store and wraps it in a Service. The local CLI
// holds every permission.
func openService() (*service.Service, *sqlite.Store, error) {
	cfg, err := storeConfig()
	if err != nil {
		return nil, nil, err
	}
	store, err := sqlite.Open(cfg)
	if err != nil {
		return nil, nil, err
	}
	return service.New(store, types.AllowAll{}), store, nil
}
