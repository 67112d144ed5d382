package sqlite

import (
	"database/sql"
	"fmt"

	"github.com/openvitals/healthstore/pkg/types"
)

// The activity-dates index is a derived table of distinct local dates
// that have records, per kind. It is rebuilt by the background worker
// after write commits; staleness between commit and rebuild is expected.

// recomputeActivityDates rebuilds the index rows for one kind from the
// record table. The local date is the record's start time shifted by its
// zone offset.
func (s *Store) recomputeActivityDates(kind types.RecordKind) error {
	h, err := s.helperFor(kind)
	if err != nil {
		return err
	}
	return s.RunInTransaction(func(tx *sql.Tx) error {
		if _, err := tx.Exec(
			"DELETE FROM activity_date_table WHERE record_kind = ?", string(kind)); err != nil {
			return fmt.Errorf("%w: clearing activity dates: %v", types.ErrIOFailure, err)
		}
		_, err := tx.Exec(fmt.Sprintf(
			`INSERT OR IGNORE INTO activity_date_table (record_kind, local_date)
             SELECT DISTINCT ?, date(start_time_millis / 1000 + start_zone_offset_secs, 'unixepoch')
             FROM %s`, h.Table()), string(kind))
		if err != nil {
			return fmt.Errorf("%w: rebuilding activity dates: %v", types.ErrIOFailure, err)
		}
		return nil
	})
}

// ActivityDates returns the distinct local dates (YYYY-MM-DD) that have
// records, per requested kind, ascending.
func (s *Store) ActivityDates(kinds []types.RecordKind) (map[types.RecordKind][]string, error) {
	for _, k := range kinds {
		if !k.Valid() {
			return nil, fmt.Errorf("%w: %q", types.ErrUnsupportedType, k)
		}
	}
	out := make(map[types.RecordKind][]string)
	err := s.view(func(tx *sql.Tx) error {
		for _, kind := range kinds {
			rows, err := tx.Query(
				"SELECT local_date FROM activity_date_table WHERE record_kind = ? ORDER BY local_date",
				string(kind))
			if err != nil {
				return fmt.Errorf("%w: reading activity dates: %v", types.ErrIOFailure, err)
			}
			for rows.Next() {
				var date string
				if err := rows.Scan(&date); err != nil {
					rows.Close()
					return fmt.Errorf("%w: scanning activity date: %v", types.ErrIOFailure, err)
				}
				out[kind] = append(out[kind], date)
			}
			if err := rows.Err(); err != nil {
				rows.Close()
				return fmt.Errorf("%w: iterating activity dates: %v", types.ErrIOFailure, err)
			}
			rows.Close()
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// FlushActivityDates recomputes the index synchronously for the given
// kinds. Tests and the CLI use it to avoid racing the background worker.
func (s *Store) FlushActivityDates(kinds ...types.RecordKind) error {
	for _, kind := range kinds {
		if err := s.recomputeActivityDates(kind); err != nil {
			return err
		}
	}
	return nil
}
