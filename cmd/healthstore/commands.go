// Subcommands for the healthstore CLI.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/openvitals/healthstore/pkg/healthstore"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the healthstore version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("healthstore " + healthstore.Version)
	},
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create or upgrade the store in the data directory",
	RunE: func(cmd *cobra.Command, args []string) error {
		_, store, err := openService()
		if err != nil {
			return err
		}
		defer store.Close()
		version, err := store.SchemaVersion()
		if err != nil {
			return err
		}
		fmt.Printf("store ready at %s (schema version %d)\n", store.DatabasePath(), version)
		return nil
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show schema version and export state",
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, store, err := openService()
		if err != nil {
			return err
		}
		defer store.Close()
		state, err := svc.GetDataState().Get()
		if err != nil {
			return err
		}
		fmt.Printf("schema version:     %d\n", state.SchemaVersion)
		fmt.Printf("export destination: %s\n", orNone(state.ExportDestination))
		if state.LastExportTime.IsZero() {
			fmt.Println("last export:        never")
		} else {
			fmt.Printf("last export:        %s\n", state.LastExportTime.Format("2006-01-02 15:04:05"))
		}
		fmt.Printf("last export error:  %s\n", orNone(state.LastExportError))
		return nil
	},
}

var exportCmd = &cobra.Command{
	Use:   "export [destination]",
	Short: "Write a log-scrubbed snapshot of the store to a destination file",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dest := configExportDest
		if len(args) == 1 {
			dest = args[0]
		}
		if dest == "" {
			fmt.Fprintln(os.Stderr, "no destination given and no export_destination configured")
			os.Exit(exitUserError)
		}
		svc, store, err := openService()
		if err != nil {
			return err
		}
		defer store.Close()
		if _, err := svc.RunExport(dest).Get(); err != nil {
			return err
		}
		fmt.Printf("exported to %s\n", dest)
		return nil
	},
}

var importCmd = &cobra.Command{
	Use:   "import <source>",
	Short: "Replace the store with a snapshot read from a source file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, store, err := openService()
		if err != nil {
			return err
		}
		defer store.Close()
		if _, err := svc.RunImport(args[0]).Get(); err != nil {
			return err
		}
		fmt.Printf("imported from %s\n", args[0])
		return nil
	},
}

func orNone(s string) string {
	if s == "" {
		return "(none)"
	}
	return s
}
