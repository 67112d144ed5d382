// End-to-end scenarios exercising the full engine surface: store
// lifecycle, multi-kind writes, change-log sync, aggregation, and the
// export/import round trip.
package integration

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openvitals/healthstore/internal/service"
	"github.com/openvitals/healthstore/internal/sqlite"
	"github.com/openvitals/healthstore/pkg/types"
)

const (
	trackerApp = "com.example.tracker"
	watchApp   = "com.example.watch"
)

func openEngine(t *testing.T, dir string) (*service.Service, *sqlite.Store) {
	t.Helper()
	store, err := sqlite.Open(types.Config{
		DataDir: dir,
		Flags:   types.FeatureFlags{ExerciseRoutesEnabled: true},
	})
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return service.New(store, types.AllowAll{}), store
}

func TestEngineLifecycle(t *testing.T) {
	dir := t.TempDir()
	svc, store := openEngine(t, dir)
	day := time.Date(2026, 5, 1, 6, 0, 0, 0, time.UTC)

	// A sync client mints its token before any data exists.
	token, err := svc.GetChangeLogToken(watchApp,
		[]types.RecordKind{types.KindSteps, types.KindHeartRate}).Get()
	require.NoError(t, err)

	// The tracker writes a morning of mixed data.
	inserted, err := svc.InsertRecords(trackerApp, []*types.Record{
		{
			AppID:     trackerApp,
			Kind:      types.KindSteps,
			StartTime: day,
			EndTime:   day.Add(time.Hour),
			Steps:     &types.StepsPayload{Count: 3200},
		},
		{
			AppID:     trackerApp,
			Kind:      types.KindHeartRate,
			StartTime: day,
			EndTime:   day.Add(10 * time.Minute),
			HeartRate: &types.HeartRatePayload{Samples: []types.HeartRateSample{
				{Time: day, BPM: 62},
				{Time: day.Add(5 * time.Minute), BPM: 71},
			}},
		},
		{
			AppID:     trackerApp,
			Kind:      types.KindDistance,
			StartTime: day,
			EndTime:   day.Add(time.Hour),
			Distance:  &types.DistancePayload{Meters: 2400},
		},
	}).Get()
	require.NoError(t, err)
	require.Len(t, inserted, 3)

	// The sync client replays only its token's kinds.
	page, err := svc.GetChangeLogs(watchApp, token).Get()
	require.NoError(t, err)
	assert.Len(t, page.Upserts, 2, "distance is outside the token's scope")

	// Filtered reads page through the data.
	read, err := svc.ReadRecords(watchApp, types.ReadFilter{
		Kind:      types.KindSteps,
		Range:     types.TimeRange{Start: day.Add(-time.Hour), End: day.Add(2 * time.Hour)},
		Ascending: true,
	}).Get()
	require.NoError(t, err)
	require.Len(t, read.Records, 1)
	assert.Equal(t, int64(3200), read.Records[0].Steps.Count)

	// Aggregates see the same data.
	aggs, err := svc.AggregateRecords(watchApp, []types.AggregateRequest{
		{Kind: types.AggregateStepsTotal},
		{Kind: types.AggregateHeartRateMax},
	}).Get()
	require.NoError(t, err)
	assert.True(t, aggs[0].Value.Equal(decimal.NewFromInt(3200)))
	assert.True(t, aggs[1].Value.Equal(decimal.NewFromInt(71)))

	// Everything survives a close and reopen.
	require.NoError(t, store.Close())
	svc2, _ := openEngine(t, dir)
	read, err = svc2.ReadRecords(watchApp, types.ReadFilter{Kind: types.KindSteps}).Get()
	require.NoError(t, err)
	assert.Len(t, read.Records, 1)
}

func TestSyncLoopAcrossDeletes(t *testing.T) {
	svc, _ := openEngine(t, t.TempDir())
	day := time.Date(2026, 5, 2, 6, 0, 0, 0, time.UTC)

	token, err := svc.GetChangeLogToken(watchApp, []types.RecordKind{types.KindSteps}).Get()
	require.NoError(t, err)

	// Round 1: two inserts.
	out, err := svc.InsertRecords(trackerApp, []*types.Record{
		{AppID: trackerApp, Kind: types.KindSteps, StartTime: day, EndTime: day.Add(time.Hour),
			Steps: &types.StepsPayload{Count: 10}},
		{AppID: trackerApp, Kind: types.KindSteps, StartTime: day.Add(time.Hour), EndTime: day.Add(2 * time.Hour),
			Steps: &types.StepsPayload{Count: 20}},
	}).Get()
	require.NoError(t, err)

	page, err := svc.GetChangeLogs(watchApp, token).Get()
	require.NoError(t, err)
	assert.Len(t, page.Upserts, 2)
	token = page.NextToken

	// Round 2: one update, one delete.
	upd := out[0].Clone()
	upd.Steps.Count = 15
	_, err = svc.UpdateRecords(trackerApp, []*types.Record{upd}).Get()
	require.NoError(t, err)
	_, err = svc.DeleteUsingFilters(trackerApp, []types.DeleteFilter{{
		Kind:  types.KindSteps,
		UUIDs: []string{out[1].UUID},
	}}).Get()
	require.NoError(t, err)

	page, err = svc.GetChangeLogs(watchApp, token).Get()
	require.NoError(t, err)
	require.Len(t, page.Upserts, 1)
	assert.Equal(t, int64(15), page.Upserts[0].Steps.Count, "replay hydrates current content")
	require.Len(t, page.Deletions, 1)
	assert.Equal(t, out[1].UUID, page.Deletions[0].UUID)

	// Round 3: caught up.
	page, err = svc.GetChangeLogs(watchApp, page.NextToken).Get()
	require.NoError(t, err)
	assert.Empty(t, page.Upserts)
	assert.Empty(t, page.Deletions)
}

func TestExportImportRoundTrip(t *testing.T) {
	srcDir := t.TempDir()
	svc, _ := openEngine(t, srcDir)
	day := time.Date(2026, 5, 3, 6, 0, 0, 0, time.UTC)

	_, err := svc.InsertRecords(trackerApp, []*types.Record{
		{AppID: trackerApp, Kind: types.KindSteps, StartTime: day, EndTime: day.Add(time.Hour),
			Steps: &types.StepsPayload{Count: 500}},
	}).Get()
	require.NoError(t, err)

	exportPath := filepath.Join(t.TempDir(), "backup.db")
	_, err = svc.RunExport(exportPath).Get()
	require.NoError(t, err)

	state, err := svc.GetDataState().Get()
	require.NoError(t, err)
	assert.Equal(t, types.ExportErrorNone, state.LastExportError)

	// A brand-new device imports the backup.
	restored, _ := openEngine(t, t.TempDir())
	_, err = restored.RunImport(exportPath).Get()
	require.NoError(t, err)

	read, err := restored.ReadRecords(watchApp, types.ReadFilter{Kind: types.KindSteps}).Get()
	require.NoError(t, err)
	require.Len(t, read.Records, 1)
	assert.Equal(t, int64(500), read.Records[0].Steps.Count)

	// The backup is scrubbed: the restored device's audit feed starts
	// with the read above, nothing imported.
	logs, err := restored.QueryAccessLogs().Get()
	require.NoError(t, err)
	assert.Len(t, logs, 1)
}
