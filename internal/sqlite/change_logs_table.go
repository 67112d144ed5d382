package sqlite

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/openvitals/healthstore/pkg/types"
)

// Change-log rows are appended inside the same transaction as the data
// mutation they describe, one row per mutated kind/app/operation group.
// Rows are never mutated; retention cleanup is the only way they leave.

// appendChangeLogTx appends one change-log row. UUIDs are stored as a
// JSON array.
func appendChangeLogTx(tx *sql.Tx, kind types.RecordKind, appID string, op types.ChangeOperation, uuids []string, now time.Time) error {
	if len(uuids) == 0 {
		return nil
	}
	blob, err := json.Marshal(uuids)
	if err != nil {
		return fmt.Errorf("%w: encoding change-log uuids: %v", types.ErrIOFailure, err)
	}
	_, err = tx.Exec(
		"INSERT INTO change_logs_table (record_kind, operation, uuids, app_id, time_millis) VALUES (?, ?, ?, ?, ?)",
		string(kind), string(op), string(blob), appID, now.UnixMilli())
	if err != nil {
		return fmt.Errorf("%w: appending change log: %v", types.ErrIOFailure, err)
	}
	return nil
}

// ChangeLogPosition returns the log position "now". A token minted at
// this position sees only entries appended after this call. The position
// never falls below the retention floor, so a token minted right after
// cleanup empties the table is still valid.
func (s *Store) ChangeLogPosition() (int64, error) {
	var pos int64
	err := s.view(func(tx *sql.Tx) error {
		if err := tx.QueryRow("SELECT COALESCE(MAX(row_id), 0) FROM change_logs_table").Scan(&pos); err != nil {
			return fmt.Errorf("%w: reading change-log position: %v", types.ErrIOFailure, err)
		}
		floor, err := changeLogFloorTx(tx)
		if err != nil {
			return err
		}
		if pos < floor {
			pos = floor
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return pos, nil
}

// changeLogFloorTx returns the highest log position removed by retention
// cleanup; tokens at or below a removed position are stale.
func changeLogFloorTx(q queryer) (int64, error) {
	value, ok, err := metaGetTx(q, metaChangeLogFloor)
	if err != nil || !ok {
		return 0, err
	}
	floor, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: malformed change-log floor %q", types.ErrIOFailure, value)
	}
	return floor, nil
}

// ChangeLogEntriesSince returns raw change-log entries for the given
// kinds after pos, oldest first, bounded by limit+1 so callers can detect
// a further page. A position below the retention floor fails with
// ErrTokenExpired.
func (s *Store) ChangeLogEntriesSince(pos int64, kinds []types.RecordKind, limit int) ([]types.ChangeLogEntry, error) {
	if len(kinds) == 0 {
		return nil, fmt.Errorf("%w: no record kinds given", types.ErrInvalidFilter)
	}

	var entries []types.ChangeLogEntry
	err := s.view(func(tx *sql.Tx) error {
		floor, err := changeLogFloorTx(tx)
		if err != nil {
			return err
		}
		if pos < floor {
			return fmt.Errorf("%w: token position %d below retention floor %d",
				types.ErrTokenExpired, pos, floor)
		}

		args := []any{pos}
		for _, k := range kinds {
			args = append(args, string(k))
		}
		query := "SELECT row_id, record_kind, operation, uuids, app_id, time_millis FROM change_logs_table" +
			" WHERE row_id > ? AND record_kind IN (" + placeholders(len(kinds)) + ") ORDER BY row_id"
		if limit > 0 {
			query += " LIMIT " + strconv.Itoa(limit+1)
		}
		rows, err := tx.Query(query, args...)
		if err != nil {
			return fmt.Errorf("%w: reading change logs: %v", types.ErrIOFailure, err)
		}
		defer rows.Close()

		for rows.Next() {
			var e types.ChangeLogEntry
			var kind, op, blob string
			var millis int64
			if err := rows.Scan(&e.Position, &kind, &op, &blob, &e.AppID, &millis); err != nil {
				return fmt.Errorf("%w: scanning change log: %v", types.ErrIOFailure, err)
			}
			if err := json.Unmarshal([]byte(blob), &e.UUIDs); err != nil {
				return fmt.Errorf("%w: decoding change-log uuids: %v", types.ErrIOFailure, err)
			}
			e.Kind = types.RecordKind(kind)
			e.Operation = types.ChangeOperation(op)
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

// HydrateRecords loads current record content for the given uuids of one
// kind. UUIDs whose records have since been deleted are simply absent.
func (s *Store) HydrateRecords(kind types.RecordKind, uuids []string) ([]*types.Record, error) {
	h, err := s.helperFor(kind)
	if err != nil {
		return nil, err
	}
	if len(uuids) == 0 {
		return nil, nil
	}
	var recs []*types.Record
	err = s.view(func(tx *sql.Tx) error {
		args := make([]any, len(uuids))
		for i, u := range uuids {
			args[i] = u
		}
		recs, _, err = s.readRowsTx(tx, h, "r.uuid IN ("+placeholders(len(uuids))+")", args, "r.row_id", 0)
		return err
	})
	if err != nil {
		return nil, err
	}
	return recs, nil
}

// CleanupLogs removes change-log and access-log entries older than the
// configured retention period and advances the token-staleness floor.
func (s *Store) CleanupLogs(now time.Time) error {
	cutoff := now.AddDate(0, 0, -s.cfg.EffectiveRetentionDays()).UnixMilli()
	return s.RunInTransaction(func(tx *sql.Tx) error {
		var maxRemoved sql.NullInt64
		err := tx.QueryRow(
			"SELECT MAX(row_id) FROM change_logs_table WHERE time_millis < ?", cutoff).Scan(&maxRemoved)
		if err != nil {
			return fmt.Errorf("%w: finding expired change logs: %v", types.ErrIOFailure, err)
		}
		if maxRemoved.Valid {
			if _, err := tx.Exec(
				"DELETE FROM change_logs_table WHERE row_id <= ?", maxRemoved.Int64); err != nil {
				return fmt.Errorf("%w: deleting expired change logs: %v", types.ErrIOFailure, err)
			}
			if err := metaSetTx(tx, metaChangeLogFloor, strconv.FormatInt(maxRemoved.Int64, 10)); err != nil {
				return err
			}
		}
		if _, err := tx.Exec(
			"DELETE FROM access_logs_table WHERE time_millis < ?", cutoff); err != nil {
			return fmt.Errorf("%w: deleting expired access logs: %v", types.ErrIOFailure, err)
		}
		return nil
	})
}
