package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openvitals/healthstore/pkg/types"
)

func sessionWithRoute(app string, start time.Time) *types.Record {
	return &types.Record{
		AppID:     app,
		Kind:      types.KindExerciseSession,
		StartTime: start,
		EndTime:   start.Add(time.Hour),
		ExerciseSession: &types.ExerciseSessionPayload{
			SessionType: "hiking",
			HasRoute:    true,
			Route: []types.RouteLocation{
				{Time: start.Add(time.Minute), Latitude: 46.5, Longitude: 8.0},
			},
		},
	}
}

func TestOwnerAlwaysSeesRoute(t *testing.T) {
	svc := newService(t, types.AllowAll{})
	start := time.Date(2026, 4, 2, 0, 0, 0, 0, time.UTC)

	out, err := svc.InsertRecords("com.example.owner",
		[]*types.Record{sessionWithRoute("com.example.owner", start)}).Get()
	require.NoError(t, err)

	got, err := svc.ReadRecordsByIDs("com.example.owner", types.KindExerciseSession,
		[]string{out[0].UUID}).Get()
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.NotEmpty(t, got[0].ExerciseSession.Route)
}

func TestRouteRedactedForOtherApps(t *testing.T) {
	tests := []struct {
		name           string
		backgroundRead bool
		grants         grantList
		wantRoute      bool
	}{
		{
			name:           "no grant, flag off",
			backgroundRead: false,
			grants: grantList{
				"com.example.other": {"read.exercise_session", "write.exercise_session"},
			},
			wantRoute: false,
		},
		{
			name:           "route grant but flag off",
			backgroundRead: false,
			grants: grantList{
				"com.example.other": {"read.exercise_session", types.PermissionReadExerciseRoutes},
			},
			wantRoute: false,
		},
		{
			name:           "flag on but no route grant",
			backgroundRead: true,
			grants: grantList{
				"com.example.other": {"read.exercise_session"},
			},
			wantRoute: false,
		},
		{
			name:           "flag on and route grant",
			backgroundRead: true,
			grants: grantList{
				"com.example.other": {"read.exercise_session", types.PermissionReadExerciseRoutes},
			},
			wantRoute: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			grants := tt.grants
			grants["com.example.owner"] = []string{"write.exercise_session", "read.exercise_session"}
			svc := newServiceWith(t, types.Config{
				DataDir: t.TempDir(),
				Flags: types.FeatureFlags{
					ExerciseRoutesEnabled: true,
					BackgroundReadEnabled: tt.backgroundRead,
				},
			}, grants)
			start := time.Date(2026, 4, 2, 0, 0, 0, 0, time.UTC)

			out, err := svc.InsertRecords("com.example.owner",
				[]*types.Record{sessionWithRoute("com.example.owner", start)}).Get()
			require.NoError(t, err)

			got, err := svc.ReadRecordsByIDs("com.example.other", types.KindExerciseSession,
				[]string{out[0].UUID}).Get()
			require.NoError(t, err)
			require.Len(t, got, 1)

			session := got[0].ExerciseSession
			if tt.wantRoute {
				assert.NotEmpty(t, session.Route)
			} else {
				assert.Empty(t, session.Route, "route geodata must be cleared")
				assert.True(t, session.HasRoute, "the had-a-route marker must survive redaction")
			}
		})
	}
}

func TestRedactionAppliesToChangeLogReads(t *testing.T) {
	svc := newServiceWith(t, types.Config{
		DataDir: t.TempDir(),
		Flags:   types.FeatureFlags{ExerciseRoutesEnabled: true},
	}, types.AllowAll{})
	start := time.Date(2026, 4, 2, 0, 0, 0, 0, time.UTC)

	token, err := svc.GetChangeLogToken("com.example.other",
		[]types.RecordKind{types.KindExerciseSession}).Get()
	require.NoError(t, err)

	_, err = svc.InsertRecords("com.example.owner",
		[]*types.Record{sessionWithRoute("com.example.owner", start)}).Get()
	require.NoError(t, err)

	page, err := svc.GetChangeLogs("com.example.other", token).Get()
	require.NoError(t, err)
	require.Len(t, page.Upserts, 1)
	assert.Empty(t, page.Upserts[0].ExerciseSession.Route,
		"the change feed must not leak what direct reads redact")
	assert.True(t, page.Upserts[0].ExerciseSession.HasRoute)
}

func TestRedactionDoesNotMutateStoredRecord(t *testing.T) {
	svc := newServiceWith(t, types.Config{
		DataDir: t.TempDir(),
		Flags:   types.FeatureFlags{ExerciseRoutesEnabled: true},
	}, types.AllowAll{})
	start := time.Date(2026, 4, 2, 0, 0, 0, 0, time.UTC)

	out, err := svc.InsertRecords("com.example.owner",
		[]*types.Record{sessionWithRoute("com.example.owner", start)}).Get()
	require.NoError(t, err)

	// A redacted read for another app...
	got, err := svc.ReadRecordsByIDs("com.example.other", types.KindExerciseSession,
		[]string{out[0].UUID}).Get()
	require.NoError(t, err)
	require.Empty(t, got[0].ExerciseSession.Route)

	// ...must not affect what the owner reads afterwards.
	got, err = svc.ReadRecordsByIDs("com.example.owner", types.KindExerciseSession,
		[]string{out[0].UUID}).Get()
	require.NoError(t, err)
	assert.NotEmpty(t, got[0].ExerciseSession.Route)
}
