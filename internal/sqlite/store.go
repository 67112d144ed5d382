package sqlite

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"github.com/openvitals/healthstore/pkg/types"
)

// DatabaseFileName is the store file inside the data directory.
const DatabaseFileName = "healthstore.db"

// store_metadata keys.
const (
	metaSchemaVersion     = "schema_version"
	metaChangeLogFloor    = "change_log_floor"
	metaExportDestination = "export_destination"
	metaLastExportTime    = "last_export_time"
	metaLastExportError   = "last_export_error"
)

// Store owns the single writable connection to the record database and is
// the sole serialization point for writes. Write transactions take the
// exclusive lock; reads share it and observe a consistent snapshot.
// Export and import quiesce the store through the same lock.
type Store struct {
	mu      sync.RWMutex
	db      *sql.DB
	cfg     types.Config
	path    string
	closed  bool
	helpers map[types.RecordKind]recordHelper

	// Background activity-dates recompute. Pending kinds are coalesced;
	// scheduling never blocks the triggering transaction.
	bgMu      sync.Mutex
	bgPending map[types.RecordKind]bool
	bgSignal  chan struct{}
	bgQuit    chan struct{}
	bgDone    chan struct{}
}

// Open creates or opens the store under cfg.DataDir, runs any pending
// schema upgrade exactly once, applies log retention cleanup, and starts
// the background index worker. A store whose on-disk schema is newer than
// this build fails with ErrSchemaIncompatible.
func Open(cfg types.Config) (*Store, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		return nil, fmt.Errorf("%w: creating data dir: %v", types.ErrIOFailure, err)
	}

	path := filepath.Join(cfg.DataDir, DatabaseFileName)
	db, err := openDatabase(path)
	if err != nil {
		return nil, err
	}

	s := &Store{
		db:        db,
		cfg:       cfg,
		path:      path,
		helpers:   newHelpers(),
		bgPending: make(map[types.RecordKind]bool),
		bgSignal:  make(chan struct{}, 1),
		bgQuit:    make(chan struct{}),
		bgDone:    make(chan struct{}),
	}

	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, err
	}
	if cfg.ExportDestination != "" {
		if err := s.setMetaDB(metaExportDestination, cfg.ExportDestination); err != nil {
			db.Close()
			return nil, err
		}
	}

	go s.backgroundLoop()

	if err := s.CleanupLogs(time.Now()); err != nil {
		s.Close()
		return nil, err
	}
	return s, nil
}

// openDatabase opens the SQLite file with the pragmas every pooled
// connection needs: WAL journaling, enforced foreign keys (child-table
// cascades depend on it), and a busy timeout.
func openDatabase(path string) (*sql.DB, error) {
	dsn := "file:" + path +
		"?_pragma=journal_mode(WAL)" +
		"&_pragma=foreign_keys(1)" +
		"&_pragma=busy_timeout(5000)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("%w: opening database: %v", types.ErrIOFailure, err)
	}
	return db, nil
}

// initSchema creates missing tables and brings an older layout up to
// currentSchemaVersion. The DDL is idempotent; the version row decides
// whether migration steps run.
func (s *Store) initSchema() error {
	for _, stmt := range bookkeepingDDL {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("%w: creating tables: %v", types.ErrIOFailure, err)
		}
	}

	version, err := fileSchemaVersion(s.db)
	if err != nil {
		return err
	}
	switch {
	case version == 0:
		// Fresh store: create record tables at the current version.
		for _, h := range s.helpers {
			for _, stmt := range recordTableDDL(h) {
				if _, err := s.db.Exec(stmt); err != nil {
					return fmt.Errorf("%w: creating %s: %v", types.ErrIOFailure, h.Table(), err)
				}
			}
		}
		return s.setMetaDB(metaSchemaVersion, strconv.Itoa(currentSchemaVersion))
	case version > currentSchemaVersion:
		return fmt.Errorf("%w: store is at version %d, supported max %d",
			types.ErrSchemaIncompatible, version, currentSchemaVersion)
	case version < currentSchemaVersion:
		if err := upgradeSchema(s.db, version); err != nil {
			return err
		}
	}
	return nil
}

// upgradeSchema applies migration steps from the stored version up to the
// current one and records the new version.
func upgradeSchema(db *sql.DB, from int) error {
	for v := from + 1; v <= currentSchemaVersion; v++ {
		for _, stmt := range migrations[v] {
			if _, err := db.Exec(stmt); err != nil {
				return fmt.Errorf("%w: migrating to version %d: %v", types.ErrIOFailure, v, err)
			}
		}
	}
	_, err := db.Exec(
		"INSERT INTO store_metadata (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value",
		metaSchemaVersion, strconv.Itoa(currentSchemaVersion))
	if err != nil {
		return fmt.Errorf("%w: recording schema version: %v", types.ErrIOFailure, err)
	}
	return nil
}

// fileSchemaVersion reads the schema version row; 0 means a fresh store.
func fileSchemaVersion(db *sql.DB) (int, error) {
	var value string
	err := db.QueryRow("SELECT value FROM store_metadata WHERE key = ?", metaSchemaVersion).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("%w: reading schema version: %v", types.ErrIOFailure, err)
	}
	v, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("%w: malformed schema version %q", types.ErrIOFailure, value)
	}
	return v, nil
}

// Close stops the background worker and closes the database. Idempotent.
func (s *Store) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()

	close(s.bgQuit)
	<-s.bgDone

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db != nil {
		if err := s.db.Close(); err != nil {
			return fmt.Errorf("%w: closing database: %v", types.ErrIOFailure, err)
		}
		s.db = nil
	}
	return nil
}

// Config returns the config the store was opened with.
func (s *Store) Config() types.Config { return s.cfg }

// DatabasePath returns the path of the live database file.
func (s *Store) DatabasePath() string { return s.path }

// RunInTransaction executes fn inside a single write transaction. The
// batch commits as one unit or not at all: any error rolls back every
// effect, change-log and access-log rows included. Write transactions are
// strictly serialized.
func (s *Store) RunInTransaction(fn func(tx *sql.Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.runLocked(fn)
}

// runLocked is RunInTransaction for callers already holding the write
// lock.
func (s *Store) runLocked(fn func(tx *sql.Tx) error) error {
	if s.closed {
		return types.ErrStoreClosed
	}
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("%w: begin: %v", types.ErrIOFailure, err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("%w: commit: %v", types.ErrIOFailure, err)
	}
	return nil
}

// view executes fn inside a read transaction. Reads may run concurrently
// with each other and observe either the pre- or post-state of any write,
// never a partial state.
func (s *Store) view(fn func(tx *sql.Tx) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return types.ErrStoreClosed
	}
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("%w: begin read: %v", types.ErrIOFailure, err)
	}
	defer tx.Rollback()
	return fn(tx)
}

// Metadata access.

func metaGetTx(q queryer, key string) (string, bool, error) {
	var value string
	err := q.QueryRow("SELECT value FROM store_metadata WHERE key = ?", key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("%w: reading metadata %s: %v", types.ErrIOFailure, key, err)
	}
	return value, true, nil
}

func metaSetTx(tx *sql.Tx, key, value string) error {
	_, err := tx.Exec(
		"INSERT INTO store_metadata (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value",
		key, value)
	if err != nil {
		return fmt.Errorf("%w: writing metadata %s: %v", types.ErrIOFailure, key, err)
	}
	return nil
}

// Meta returns a metadata value; the bool reports presence.
func (s *Store) Meta(key string) (string, bool, error) {
	var value string
	var ok bool
	err := s.view(func(tx *sql.Tx) error {
		var err error
		value, ok, err = metaGetTx(tx, key)
		return err
	})
	return value, ok, err
}

// SetMeta writes a metadata value in its own transaction.
func (s *Store) SetMeta(key, value string) error {
	return s.RunInTransaction(func(tx *sql.Tx) error {
		return metaSetTx(tx, key, value)
	})
}

// setMetaDB writes metadata outside the transaction manager; used only
// during Open before the store is published.
func (s *Store) setMetaDB(key, value string) error {
	_, err := s.db.Exec(
		"INSERT INTO store_metadata (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value",
		key, value)
	if err != nil {
		return fmt.Errorf("%w: writing metadata %s: %v", types.ErrIOFailure, key, err)
	}
	return nil
}

// SchemaVersion returns the on-disk schema version.
func (s *Store) SchemaVersion() (int, error) {
	value, ok, err := s.Meta(metaSchemaVersion)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, nil
	}
	return strconv.Atoi(value)
}

// Background activity-dates worker.

// scheduleActivityDates marks kinds for recompute after a commit. It
// never blocks; pending kinds coalesce until the worker catches up.
func (s *Store) scheduleActivityDates(kinds ...types.RecordKind) {
	s.bgMu.Lock()
	for _, k := range kinds {
		s.bgPending[k] = true
	}
	s.bgMu.Unlock()
	select {
	case s.bgSignal <- struct{}{}:
	default:
	}
}

func (s *Store) backgroundLoop() {
	defer close(s.bgDone)
	for {
		select {
		case <-s.bgQuit:
			return
		case <-s.bgSignal:
			s.bgMu.Lock()
			pending := s.bgPending
			s.bgPending = make(map[types.RecordKind]bool)
			s.bgMu.Unlock()
			for kind := range pending {
				// Failures are retried on the next trigger; the index
				// is derived and rebuildable.
				_ = s.recomputeActivityDates(kind)
			}
		}
	}
}

// Time conversion. Times are stored as UTC epoch milliseconds with the
// original zone offsets kept in separate columns.

func millisToTime(millis int64) time.Time {
	return time.UnixMilli(millis).UTC()
}
