package sqlite

import (
	"database/sql"
	"fmt"
	"os"
	"time"

	"github.com/openvitals/healthstore/pkg/types"
)

// Snapshot and swap primitives used by the export/import manager. Both
// quiesce through the same write lock as normal transactions, so no write
// commit ever interleaves with a snapshot.

// SnapshotTo writes a point-in-time copy of the live database to path.
// The copy is taken with VACUUM INTO while writes are quiesced; the live
// store is never modified.
func (s *Store) SnapshotTo(path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return types.ErrStoreClosed
	}
	// VACUUM INTO refuses to overwrite; a leftover partial scratch file
	// from an earlier failed run is discarded first.
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("%w: clearing scratch file: %v", types.ErrIOFailure, err)
	}
	if _, err := s.db.Exec("VACUUM INTO ?", path); err != nil {
		return fmt.Errorf("%w: snapshotting database: %v", types.ErrIOFailure, err)
	}
	return nil
}

// ReplaceFrom atomically swaps the live database for the staged file and
// reopens. The staged file must live on the same filesystem as the data
// dir. On rename failure the original store is reopened untouched.
func (s *Store) ReplaceFrom(staged string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return types.ErrStoreClosed
	}
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("%w: closing live database: %v", types.ErrIOFailure, err)
	}
	s.db = nil

	// WAL sidecars belong to the old file.
	_ = os.Remove(s.path + "-wal")
	_ = os.Remove(s.path + "-shm")

	renameErr := os.Rename(staged, s.path)
	db, openErr := openDatabase(s.path)
	if openErr != nil {
		return openErr
	}
	s.db = db
	if renameErr != nil {
		return fmt.Errorf("%w: swapping database: %v", types.ErrIOFailure, renameErr)
	}
	return nil
}

// ScrubLogTables clears the change-log and access-log contents of a
// database file. Exported copies must not leak per-app audit trails.
func ScrubLogTables(path string) error {
	db, err := openDatabase(path)
	if err != nil {
		return err
	}
	defer db.Close()
	for _, table := range []string{types.ChangeLogsTable, types.AccessLogsTable} {
		if _, err := db.Exec("DELETE FROM " + table); err != nil {
			return fmt.Errorf("%w: scrubbing %s: %v", types.ErrIOFailure, table, err)
		}
	}
	return nil
}

// FileSchemaVersion reads the schema version embedded in a database file.
func FileSchemaVersion(path string) (int, error) {
	db, err := openDatabase(path)
	if err != nil {
		return 0, err
	}
	defer db.Close()
	return fileSchemaVersion(db)
}

// UpgradeFile brings an older database file up to the current schema
// version in place. A file already at the current version is untouched;
// a newer file fails with ErrSchemaIncompatible.
func UpgradeFile(path string) error {
	db, err := openDatabase(path)
	if err != nil {
		return err
	}
	defer db.Close()
	version, err := fileSchemaVersion(db)
	if err != nil {
		return err
	}
	switch {
	case version > currentSchemaVersion:
		return fmt.Errorf("%w: file is at version %d, supported max %d",
			types.ErrSchemaIncompatible, version, currentSchemaVersion)
	case version < currentSchemaVersion:
		return upgradeSchema(db, version)
	}
	return nil
}

// PreserveExportConfigInto copies the export configuration and status
// rows into the staged database so an import keeps the destination
// settings of the store it replaces.
func (s *Store) PreserveExportConfigInto(staged string) error {
	db, err := openDatabase(staged)
	if err != nil {
		return err
	}
	defer db.Close()
	for _, key := range []string{metaExportDestination, metaLastExportTime, metaLastExportError} {
		value, ok, err := s.Meta(key)
		if err != nil {
			return err
		}
		if !ok {
			continue
		}
		if _, err := db.Exec(
			"INSERT INTO store_metadata (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value",
			key, value); err != nil {
			return fmt.Errorf("%w: preserving %s: %v", types.ErrIOFailure, key, err)
		}
	}
	return nil
}

// RecordExportResult stores the structured outcome of an export attempt.
// The code is empty on success.
func (s *Store) RecordExportResult(dest string, at time.Time, code string) error {
	return s.RunInTransaction(func(tx *sql.Tx) error {
		if err := metaSetTx(tx, metaExportDestination, dest); err != nil {
			return err
		}
		if err := metaSetTx(tx, metaLastExportTime, at.UTC().Format(time.RFC3339)); err != nil {
			return err
		}
		return metaSetTx(tx, metaLastExportError, code)
	})
}

// DataState reports the schema version and export status for the status
// query.
func (s *Store) DataState() (types.DataState, error) {
	var state types.DataState
	version, err := s.SchemaVersion()
	if err != nil {
		return state, err
	}
	state.SchemaVersion = version

	if dest, ok, err := s.Meta(metaExportDestination); err != nil {
		return state, err
	} else if ok {
		state.ExportDestination = dest
	}
	if code, ok, err := s.Meta(metaLastExportError); err != nil {
		return state, err
	} else if ok {
		state.LastExportError = code
	}
	if raw, ok, err := s.Meta(metaLastExportTime); err != nil {
		return state, err
	} else if ok {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return state, fmt.Errorf("%w: malformed last export time %q", types.ErrIOFailure, raw)
		}
		state.LastExportTime = t
	}
	return state, nil
}
