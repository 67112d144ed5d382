package sqlite

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openvitals/healthstore/pkg/types"
)

// setupStore opens a fresh store in a temp directory with routes enabled,
// closed via t.Cleanup.
func setupStore(t *testing.T) *Store {
	t.Helper()
	return setupStoreWith(t, types.Config{
		DataDir: t.TempDir(),
		Flags:   types.FeatureFlags{ExerciseRoutesEnabled: true},
	})
}

func setupStoreWith(t *testing.T, cfg types.Config) *Store {
	t.Helper()
	s, err := Open(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func stepsRecord(app string, start time.Time, count int64) *types.Record {
	return &types.Record{
		AppID:     app,
		Kind:      types.KindSteps,
		StartTime: start,
		EndTime:   start.Add(time.Hour),
		Steps:     &types.StepsPayload{Count: count},
	}
}

func TestOpenCreatesFreshStore(t *testing.T) {
	dir := t.TempDir()
	s := setupStoreWith(t, types.Config{DataDir: dir})

	version, err := s.SchemaVersion()
	require.NoError(t, err)
	assert.Equal(t, currentSchemaVersion, version)

	_, err = os.Stat(filepath.Join(dir, DatabaseFileName))
	assert.NoError(t, err, "database file must exist")
}

func TestOpenRejectsBadConfig(t *testing.T) {
	_, err := Open(types.Config{})
	assert.ErrorIs(t, err, types.ErrDataDirEmpty)

	_, err = Open(types.Config{DataDir: t.TempDir(), RetentionDays: -1})
	assert.ErrorIs(t, err, types.ErrRetentionInvalid)
}

func TestReopenPreservesData(t *testing.T) {
	dir := t.TempDir()
	cfg := types.Config{DataDir: dir}

	s, err := Open(cfg)
	require.NoError(t, err)
	start := time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC)
	inserted, err := s.InsertRecords("com.example.a", []*types.Record{stepsRecord("com.example.a", start, 500)})
	require.NoError(t, err)
	require.NoError(t, s.Close())

	s2, err := Open(cfg)
	require.NoError(t, err)
	defer s2.Close()

	got, err := s2.ReadByIDs("com.example.a", types.KindSteps, []string{inserted[0].UUID})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, int64(500), got[0].Steps.Count)
}

func TestCloseIsIdempotent(t *testing.T) {
	s, err := Open(types.Config{DataDir: t.TempDir()})
	require.NoError(t, err)
	require.NoError(t, s.Close())
	require.NoError(t, s.Close())
}

func TestClosedStoreRejectsOperations(t *testing.T) {
	s, err := Open(types.Config{DataDir: t.TempDir()})
	require.NoError(t, err)
	require.NoError(t, s.Close())

	start := time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC)
	_, err = s.InsertRecords("com.example.a", []*types.Record{stepsRecord("com.example.a", start, 1)})
	assert.ErrorIs(t, err, types.ErrStoreClosed)

	_, err = s.ChangeLogPosition()
	assert.ErrorIs(t, err, types.ErrStoreClosed)
}

func TestMetaRoundTrip(t *testing.T) {
	s := setupStore(t)

	_, ok, err := s.Meta("missing")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.SetMeta("k", "v1"))
	require.NoError(t, s.SetMeta("k", "v2"))

	value, ok, err := s.Meta("k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "v2", value)
}

func TestConcurrentWritersSerialize(t *testing.T) {
	s := setupStore(t)
	base := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)

	const writers = 8
	errs := make(chan error, writers)
	for i := 0; i < writers; i++ {
		go func(i int) {
			_, err := s.InsertRecords("com.example.a", []*types.Record{
				stepsRecord("com.example.a", base.Add(time.Duration(i)*time.Hour), int64(i)),
			})
			errs <- err
		}(i)
	}
	for i := 0; i < writers; i++ {
		require.NoError(t, <-errs)
	}

	page, err := s.ReadByFilter("com.example.a", types.ReadFilter{Kind: types.KindSteps})
	require.NoError(t, err)
	assert.Len(t, page.Records, writers)
}

func TestOpenRecordsExportDestination(t *testing.T) {
	s := setupStoreWith(t, types.Config{
		DataDir:           t.TempDir(),
		ExportDestination: "/backups/health.db",
	})

	value, ok, err := s.Meta("export_destination")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "/backups/health.db", value)
}
