// Package exportimport snapshots the live store to a portable file and
// restores a store from one. Both operations quiesce the transaction
// manager, clean up their scratch files on any failure, and never leave
// the live store half-written.
package exportimport

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/natefinch/atomic"

	"github.com/openvitals/healthstore/internal/sqlite"
	"github.com/openvitals/healthstore/pkg/types"
)

// Scratch file names inside the data directory.
const (
	exportScratchName = "export_scratch.db"
	importStagingName = "import_staging.db"
)

// Manager runs export and import against one store.
type Manager struct {
	store *sqlite.Store
}

// NewManager returns a manager bound to the store.
func NewManager(store *sqlite.Store) *Manager {
	return &Manager{store: store}
}

// RunExport snapshots the store, strips the log tables from the copy,
// publishes it atomically at dest, and removes the scratch copy. On
// failure the structured error code lands in the store's export state and
// the live store is untouched.
func (m *Manager) RunExport(dest string) error {
	if dest == "" {
		return fmt.Errorf("%w: export destination required", types.ErrInvalidArgument)
	}
	err := m.runExport(dest)
	code := types.ExportErrorNone
	if err != nil {
		code = types.ExportErrorIO
	}
	if stateErr := m.store.RecordExportResult(dest, time.Now(), code); stateErr != nil && err == nil {
		return stateErr
	}
	return err
}

func (m *Manager) runExport(dest string) error {
	scratch := filepath.Join(m.store.Config().DataDir, exportScratchName)
	defer os.Remove(scratch)

	if err := m.store.SnapshotTo(scratch); err != nil {
		return err
	}
	if err := sqlite.ScrubLogTables(scratch); err != nil {
		return err
	}

	f, err := os.Open(scratch)
	if err != nil {
		return fmt.Errorf("%w: opening scratch copy: %v", types.ErrIOFailure, err)
	}
	defer f.Close()
	if err := atomic.WriteFile(dest, f); err != nil {
		return fmt.Errorf("%w: writing export to %s: %v", types.ErrIOFailure, dest, err)
	}
	return nil
}

// RunImport stages a copy of the source snapshot, validates and upgrades
// its schema, carries the live store's export configuration over, and
// atomically swaps it in as the new live database. A source newer than
// this build fails with ErrSchemaIncompatible; partial staging files are
// always removed.
func (m *Manager) RunImport(source string) (err error) {
	staging := filepath.Join(m.store.Config().DataDir, importStagingName)
	defer func() {
		if err != nil {
			os.Remove(staging)
		}
	}()

	if err := copyFile(source, staging); err != nil {
		return err
	}
	if err := sqlite.UpgradeFile(staging); err != nil {
		return err
	}
	if err := m.store.PreserveExportConfigInto(staging); err != nil {
		return err
	}
	return m.store.ReplaceFrom(staging)
}

// DataState returns the export/import status of the store.
func (m *Manager) DataState() (types.DataState, error) {
	return m.store.DataState()
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("%w: opening import source %s: %v", types.ErrIOFailure, src, err)
	}
	defer in.Close()
	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("%w: creating staging copy: %v", types.ErrIOFailure, err)
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return fmt.Errorf("%w: copying import source: %v", types.ErrIOFailure, err)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("%w: finishing staging copy: %v", types.ErrIOFailure, err)
	}
	return nil
}
