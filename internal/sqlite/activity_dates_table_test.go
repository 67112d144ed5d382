package sqlite

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openvitals/healthstore/pkg/types"
)

func TestActivityDatesDistinctLocalDates(t *testing.T) {
	s := setupStore(t)

	day1 := time.Date(2026, 3, 4, 8, 0, 0, 0, time.UTC)
	day2 := time.Date(2026, 3, 6, 8, 0, 0, 0, time.UTC)
	_, err := s.InsertRecords("com.example.a", []*types.Record{
		stepsRecord("com.example.a", day1, 1),
		stepsRecord("com.example.a", day1.Add(2*time.Hour), 2),
		stepsRecord("com.example.a", day2, 3),
	})
	require.NoError(t, err)
	require.NoError(t, s.FlushActivityDates(types.KindSteps))

	dates, err := s.ActivityDates([]types.RecordKind{types.KindSteps})
	require.NoError(t, err)
	assert.Equal(t, []string{"2026-03-04", "2026-03-06"}, dates[types.KindSteps])
}

func TestActivityDatesHonorZoneOffset(t *testing.T) {
	s := setupStore(t)

	// 23:30 UTC with a +2h offset lands on the next local day.
	late := &types.Record{
		AppID:           "com.example.a",
		Kind:            types.KindSteps,
		StartTime:       time.Date(2026, 3, 4, 23, 30, 0, 0, time.UTC),
		EndTime:         time.Date(2026, 3, 5, 0, 30, 0, 0, time.UTC),
		StartZoneOffset: 2 * 3600,
		EndZoneOffset:   2 * 3600,
		Steps:           &types.StepsPayload{Count: 10},
	}
	_, err := s.InsertRecords("com.example.a", []*types.Record{late})
	require.NoError(t, err)
	require.NoError(t, s.FlushActivityDates(types.KindSteps))

	dates, err := s.ActivityDates([]types.RecordKind{types.KindSteps})
	require.NoError(t, err)
	assert.Equal(t, []string{"2026-03-05"}, dates[types.KindSteps])
}

func TestActivityDatesRecomputeAfterDelete(t *testing.T) {
	s := setupStore(t)
	base := time.Date(2026, 3, 4, 8, 0, 0, 0, time.UTC)

	out, err := s.InsertRecords("com.example.a", []*types.Record{stepsRecord("com.example.a", base, 1)})
	require.NoError(t, err)
	require.NoError(t, s.FlushActivityDates(types.KindSteps))

	_, err = s.DeleteUsingFilters("com.example.a", []types.DeleteFilter{{
		Kind:  types.KindSteps,
		UUIDs: []string{out[0].UUID},
	}})
	require.NoError(t, err)
	require.NoError(t, s.FlushActivityDates(types.KindSteps))

	dates, err := s.ActivityDates([]types.RecordKind{types.KindSteps})
	require.NoError(t, err)
	assert.Empty(t, dates[types.KindSteps])
}

func TestBackgroundWorkerFillsIndex(t *testing.T) {
	s := setupStore(t)
	base := time.Date(2026, 3, 4, 8, 0, 0, 0, time.UTC)

	_, err := s.InsertRecords("com.example.a", []*types.Record{stepsRecord("com.example.a", base, 1)})
	require.NoError(t, err)

	// The worker runs asynchronously; poll briefly.
	deadline := time.Now().Add(5 * time.Second)
	for {
		dates, err := s.ActivityDates([]types.RecordKind{types.KindSteps})
		require.NoError(t, err)
		if len(dates[types.KindSteps]) == 1 {
			return
		}
		if time.Now().After(deadline) {
			t.Fatal("background worker never indexed the insert")
		}
		time.Sleep(10 * time.Millisecond)
	}
}
