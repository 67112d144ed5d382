package exportimport

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openvitals/healthstore/internal/sqlite"
	"github.com/openvitals/healthstore/pkg/types"
)

func setupManager(t *testing.T) (*Manager, *sqlite.Store) {
	t.Helper()
	store, err := sqlite.Open(types.Config{DataDir: t.TempDir()})
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return NewManager(store), store
}

func seedSteps(t *testing.T, store *sqlite.Store, app string, count int64) *types.Record {
	t.Helper()
	start := time.Date(2026, 4, 4, 8, 0, 0, 0, time.UTC)
	out, err := store.InsertRecords(app, []*types.Record{{
		AppID:     app,
		Kind:      types.KindSteps,
		StartTime: start,
		EndTime:   start.Add(time.Hour),
		Steps:     &types.StepsPayload{Count: count},
	}})
	require.NoError(t, err)
	return out[0]
}

func TestExportWritesScrubbedSnapshot(t *testing.T) {
	m, store := setupManager(t)
	rec := seedSteps(t, store, "com.example.a", 321)

	dest := filepath.Join(t.TempDir(), "export.db")
	require.NoError(t, m.RunExport(dest))

	// The scratch copy is gone.
	_, err := os.Stat(filepath.Join(store.Config().DataDir, "export_scratch.db"))
	assert.True(t, os.IsNotExist(err), "scratch file must be removed")

	// Importing the export into a second store recovers the record but
	// none of the logs.
	m2, store2 := setupManager(t)
	require.NoError(t, m2.RunImport(dest))

	got, err := store2.ReadByIDs("com.example.a", types.KindSteps, []string{rec.UUID})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, int64(321), got[0].Steps.Count)

	logs, err := store2.AccessLogs()
	require.NoError(t, err)
	// Only the ReadByIDs just above, nothing carried over from the source.
	assert.Len(t, logs, 1)

	// The live source store still has its logs.
	logs, err = store.AccessLogs()
	require.NoError(t, err)
	assert.NotEmpty(t, logs)
}

func TestExportRecordsSuccessState(t *testing.T) {
	m, _ := setupManager(t)
	dest := filepath.Join(t.TempDir(), "export.db")

	require.NoError(t, m.RunExport(dest))

	state, err := m.DataState()
	require.NoError(t, err)
	assert.Equal(t, dest, state.ExportDestination)
	assert.Equal(t, types.ExportErrorNone, state.LastExportError)
	assert.False(t, state.LastExportTime.IsZero())
}

func TestExportFailureRecordsErrorCode(t *testing.T) {
	m, store := setupManager(t)
	seedSteps(t, store, "com.example.a", 1)

	dest := filepath.Join(t.TempDir(), "missing", "deep", "export.db")
	err := m.RunExport(dest)
	require.Error(t, err)

	state, stateErr := m.DataState()
	require.NoError(t, stateErr)
	assert.Equal(t, types.ExportErrorIO, state.LastExportError)

	// The live store keeps working after a failed export.
	_, err = store.ReadByFilter("x", types.ReadFilter{Kind: types.KindSteps})
	assert.NoError(t, err)
}

func TestExportRequiresDestination(t *testing.T) {
	m, _ := setupManager(t)
	err := m.RunExport("")
	assert.ErrorIs(t, err, types.ErrInvalidArgument)
}

func TestImportRejectsNewerSchema(t *testing.T) {
	m, store := setupManager(t)
	seedSteps(t, store, "com.example.a", 1)

	dest := filepath.Join(t.TempDir(), "export.db")
	require.NoError(t, m.RunExport(dest))

	// Mark the snapshot as a future schema.
	m2, store2 := setupManager(t)
	require.NoError(t, m2.RunImport(dest))
	require.NoError(t, store2.SetMeta("schema_version", "999"))
	future := filepath.Join(t.TempDir(), "future.db")
	require.NoError(t, m2.RunExport(future))

	err := m.RunImport(future)
	assert.ErrorIs(t, err, types.ErrSchemaIncompatible)

	// The staging copy is cleaned up and the live store untouched.
	_, statErr := os.Stat(filepath.Join(store.Config().DataDir, "import_staging.db"))
	assert.True(t, os.IsNotExist(statErr))

	page, err := store.ReadByFilter("x", types.ReadFilter{Kind: types.KindSteps})
	require.NoError(t, err)
	assert.Len(t, page.Records, 1)
}

func TestImportMissingSourceFails(t *testing.T) {
	m, store := setupManager(t)
	seedSteps(t, store, "com.example.a", 5)

	err := m.RunImport(filepath.Join(t.TempDir(), "nope.db"))
	assert.ErrorIs(t, err, types.ErrIOFailure)

	page, err := store.ReadByFilter("x", types.ReadFilter{Kind: types.KindSteps})
	require.NoError(t, err)
	assert.Len(t, page.Records, 1, "a failed import must leave the store untouched")
}

func TestImportPreservesExportConfiguration(t *testing.T) {
	m, _ := setupManager(t)
	dest := filepath.Join(t.TempDir(), "export.db")
	require.NoError(t, m.RunExport(dest))

	// A second store with its own export destination imports the snapshot.
	dir := t.TempDir()
	store2, err := sqlite.Open(types.Config{
		DataDir:           dir,
		ExportDestination: "/backups/mine.db",
	})
	require.NoError(t, err)
	t.Cleanup(func() { store2.Close() })
	m2 := NewManager(store2)

	require.NoError(t, m2.RunImport(dest))

	state, err := m2.DataState()
	require.NoError(t, err)
	assert.Equal(t, "/backups/mine.db", state.ExportDestination,
		"the importing store's destination survives the swap")
}
