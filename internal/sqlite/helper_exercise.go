package sqlite

import (
	"database/sql"
	"fmt"

	"github.com/openvitals/healthstore/pkg/types"
)

// exerciseSessionHelper stores session fields on the record row and route
// geopoints in a child table. The has_route flag is persisted separately
// from the points so redaction can clear content while keeping the marker.
type exerciseSessionHelper struct{}

func (exerciseSessionHelper) Kind() types.RecordKind { return types.KindExerciseSession }
func (exerciseSessionHelper) Table() string {
	return types.RecordTableName(types.KindExerciseSession)
}

func (exerciseSessionHelper) PayloadColumns() []column {
	return []column{
		{name: "session_type", sqlType: "TEXT", notNull: true},
		{name: "title", sqlType: "TEXT"},
		{name: "notes", sqlType: "TEXT"},
		{name: "has_route", sqlType: "INTEGER", notNull: true},
	}
}

func (exerciseSessionHelper) EncodePayload(r *types.Record) ([]any, error) {
	p := r.ExerciseSession
	if p == nil {
		return nil, fmt.Errorf("%w: exercise session payload missing", types.ErrInvalidArgument)
	}
	if p.SessionType == "" {
		return nil, fmt.Errorf("%w: session type required", types.ErrInvalidArgument)
	}
	hasRoute := 0
	if p.HasRoute || len(p.Route) > 0 {
		hasRoute = 1
	}
	return []any{p.SessionType, p.Title, p.Notes, hasRoute}, nil
}

func (exerciseSessionHelper) DecodePayload(r *types.Record, vals []any) error {
	sessionType, err := toString(vals[0])
	if err != nil {
		return err
	}
	title, err := toString(vals[1])
	if err != nil {
		return err
	}
	notes, err := toString(vals[2])
	if err != nil {
		return err
	}
	hasRoute, err := toInt64(vals[3])
	if err != nil {
		return err
	}
	r.ExerciseSession = &types.ExerciseSessionPayload{
		SessionType: sessionType,
		Title:       title,
		Notes:       notes,
		HasRoute:    hasRoute != 0,
	}
	return nil
}

func (exerciseSessionHelper) SavePeripherals(tx *sql.Tx, rowID int64, r *types.Record) error {
	if _, err := tx.Exec(
		"DELETE FROM exercise_route_table WHERE parent_row_id = ?", rowID); err != nil {
		return fmt.Errorf("clearing exercise route: %w", err)
	}
	for _, loc := range r.ExerciseSession.Route {
		if _, err := tx.Exec(
			"INSERT INTO exercise_route_table (parent_row_id, time_millis, latitude, longitude) VALUES (?, ?, ?, ?)",
			rowID, loc.Time.UnixMilli(), loc.Latitude, loc.Longitude); err != nil {
			return fmt.Errorf("inserting route location: %w", err)
		}
	}
	return nil
}

func (exerciseSessionHelper) LoadPeripherals(q queryer, rowID int64, r *types.Record) error {
	rows, err := q.Query(
		"SELECT time_millis, latitude, longitude FROM exercise_route_table WHERE parent_row_id = ? ORDER BY time_millis",
		rowID)
	if err != nil {
		return fmt.Errorf("loading exercise route: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var millis int64
		var lat, lng float64
		if err := rows.Scan(&millis, &lat, &lng); err != nil {
			return fmt.Errorf("scanning route location: %w", err)
		}
		r.ExerciseSession.Route = append(r.ExerciseSession.Route, types.RouteLocation{
			Time:      millisToTime(millis),
			Latitude:  lat,
			Longitude: lng,
		})
	}
	return rows.Err()
}

func (h exerciseSessionHelper) ChildDDL() []string {
	return []string{
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS exercise_route_table (
    parent_row_id INTEGER NOT NULL REFERENCES %s(row_id) ON DELETE CASCADE,
    time_millis INTEGER NOT NULL,
    latitude REAL NOT NULL,
    longitude REAL NOT NULL
);`, h.Table()),
		`CREATE INDEX IF NOT EXISTS idx_exercise_route_parent ON exercise_route_table(parent_row_id);`,
	}
}
