package sqlite

import (
	"database/sql"
	"fmt"

	"github.com/openvitals/healthstore/pkg/types"
)

// heartRateHelper stores series samples in a child table keyed by the
// parent row. Samples are replaced wholesale on update and removed with
// the parent on delete.
type heartRateHelper struct{}

func (heartRateHelper) Kind() types.RecordKind { return types.KindHeartRate }
func (heartRateHelper) Table() string          { return types.RecordTableName(types.KindHeartRate) }

func (heartRateHelper) PayloadColumns() []column { return nil }

func (heartRateHelper) EncodePayload(r *types.Record) ([]any, error) {
	if r.HeartRate == nil || len(r.HeartRate.Samples) == 0 {
		return nil, fmt.Errorf("%w: heart rate record needs at least one sample", types.ErrInvalidArgument)
	}
	for _, s := range r.HeartRate.Samples {
		if s.BPM <= 0 {
			return nil, fmt.Errorf("%w: non-positive bpm sample", types.ErrInvalidArgument)
		}
	}
	return nil, nil
}

func (heartRateHelper) DecodePayload(r *types.Record, _ []any) error {
	r.HeartRate = &types.HeartRatePayload{}
	return nil
}

func (heartRateHelper) SavePeripherals(tx *sql.Tx, rowID int64, r *types.Record) error {
	if _, err := tx.Exec(
		"DELETE FROM heart_rate_samples_table WHERE parent_row_id = ?", rowID); err != nil {
		return fmt.Errorf("clearing heart rate samples: %w", err)
	}
	for _, s := range r.HeartRate.Samples {
		if _, err := tx.Exec(
			"INSERT INTO heart_rate_samples_table (parent_row_id, time_millis, bpm) VALUES (?, ?, ?)",
			rowID, s.Time.UnixMilli(), s.BPM); err != nil {
			return fmt.Errorf("inserting heart rate sample: %w", err)
		}
	}
	return nil
}

func (heartRateHelper) LoadPeripherals(q queryer, rowID int64, r *types.Record) error {
	rows, err := q.Query(
		"SELECT time_millis, bpm FROM heart_rate_samples_table WHERE parent_row_id = ? ORDER BY time_millis",
		rowID)
	if err != nil {
		return fmt.Errorf("loading heart rate samples: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var millis, bpm int64
		if err := rows.Scan(&millis, &bpm); err != nil {
			return fmt.Errorf("scanning heart rate sample: %w", err)
		}
		r.HeartRate.Samples = append(r.HeartRate.Samples, types.HeartRateSample{
			Time: millisToTime(millis),
			BPM:  bpm,
		})
	}
	return rows.Err()
}

func (h heartRateHelper) ChildDDL() []string {
	return []string{
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS heart_rate_samples_table (
    parent_row_id INTEGER NOT NULL REFERENCES %s(row_id) ON DELETE CASCADE,
    time_millis INTEGER NOT NULL,
    bpm INTEGER NOT NULL
);`, h.Table()),
		`CREATE INDEX IF NOT EXISTS idx_heart_rate_samples_parent ON heart_rate_samples_table(parent_row_id);`,
	}
}
