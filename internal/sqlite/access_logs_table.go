package sqlite

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/openvitals/healthstore/pkg/types"
)

// Access-log rows are appended on every read, insert, update, or delete
// transaction, independent of how many rows the operation touched. They
// feed audit queries only.

// appendAccessLogTx appends one audit row inside the caller's
// transaction.
func appendAccessLogTx(tx *sql.Tx, appID string, kinds []types.RecordKind, op types.AccessOperation, now time.Time) error {
	blob, err := json.Marshal(kinds)
	if err != nil {
		return fmt.Errorf("%w: encoding access-log kinds: %v", types.ErrIOFailure, err)
	}
	_, err = tx.Exec(
		"INSERT INTO access_logs_table (app_id, record_kinds, operation, time_millis) VALUES (?, ?, ?, ?)",
		appID, string(blob), string(op), now.UnixMilli())
	if err != nil {
		return fmt.Errorf("%w: appending access log: %v", types.ErrIOFailure, err)
	}
	return nil
}

// AccessLogs returns all audit entries, newest first.
func (s *Store) AccessLogs() ([]types.AccessLogEntry, error) {
	var entries []types.AccessLogEntry
	err := s.view(func(tx *sql.Tx) error {
		rows, err := tx.Query(
			"SELECT app_id, record_kinds, operation, time_millis FROM access_logs_table ORDER BY row_id DESC")
		if err != nil {
			return fmt.Errorf("%w: reading access logs: %v", types.ErrIOFailure, err)
		}
		defer rows.Close()

		for rows.Next() {
			var e types.AccessLogEntry
			var blob, op string
			var millis int64
			if err := rows.Scan(&e.AppID, &blob, &op, &millis); err != nil {
				return fmt.Errorf("%w: scanning access log: %v", types.ErrIOFailure, err)
			}
			if err := json.Unmarshal([]byte(blob), &e.Kinds); err != nil {
				return fmt.Errorf("%w: decoding access-log kinds: %v", types.ErrIOFailure, err)
			}
			e.Operation = types.AccessOperation(op)
			e.Time = millisToTime(millis)
			entries = append(entries, e)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return entries, nil
}
