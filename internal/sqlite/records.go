package sqlite

import (
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/openvitals/healthstore/pkg/types"
)

// sharedSelectColumns is the shared column list every record read uses,
// with the owning package name joined in from app_info_table.
const sharedSelectColumns = `r.row_id, r.uuid, a.package_name, r.client_record_id,
    r.client_record_version, r.start_time_millis, r.end_time_millis,
    r.start_zone_offset_secs, r.end_zone_offset_secs, r.last_modified_millis`

// InsertRecords inserts a batch for the calling app inside one
// transaction, appending change-log and access-log rows in the same
// transaction. UUIDs are assigned when absent. An insert whose (app,
// client record id) pair already exists replaces the stored record in
// place when the incoming client record version is not older; otherwise
// the stored record is returned untouched. The finalized records are
// returned in input order.
func (s *Store) InsertRecords(appID string, recs []*types.Record) ([]*types.Record, error) {
	if appID == "" || len(recs) == 0 {
		return nil, fmt.Errorf("%w: app id and records required", types.ErrInvalidArgument)
	}

	out := make([]*types.Record, len(recs))
	touched := make(map[types.RecordKind][]string)
	now := time.Now()

	err := s.RunInTransaction(func(tx *sql.Tx) error {
		appRow, err := ensureAppTx(tx, appID)
		if err != nil {
			return err
		}
		for i, in := range recs {
			rec := in.Clone()
			if rec.AppID == "" {
				rec.AppID = appID
			}
			if rec.AppID != appID {
				return fmt.Errorf("%w: record app %q does not match caller %q",
					types.ErrInvalidArgument, rec.AppID, appID)
			}
			if rec.Kind.Instant() && rec.EndTime.IsZero() {
				rec.EndTime = rec.StartTime
				rec.EndZoneOffset = rec.StartZoneOffset
			}
			if err := rec.Validate(); err != nil {
				return err
			}
			if err := s.checkFeatureGate(rec); err != nil {
				return err
			}
			h, err := s.helperFor(rec.Kind)
			if err != nil {
				return err
			}
			rec.LastModified = now

			written, err := s.insertOneTx(tx, h, appRow, rec)
			if err != nil {
				return err
			}
			out[i] = rec
			if written {
				touched[rec.Kind] = append(touched[rec.Kind], rec.UUID)
			}
		}

		for kind, uuids := range touched {
			if err := appendChangeLogTx(tx, kind, appID, types.ChangeUpsert, uuids, now); err != nil {
				return err
			}
		}
		return appendAccessLogTx(tx, appID, kindsOf(recs), types.AccessUpsert, now)
	})
	if err != nil {
		return nil, err
	}

	kinds := make([]types.RecordKind, 0, len(touched))
	for kind := range touched {
		kinds = append(kinds, kind)
	}
	s.scheduleActivityDates(kinds...)
	return out, nil
}

// insertOneTx writes one record, honoring client-record-id replacement.
// The returned bool reports whether the store was mutated; a stale client
// version leaves the stored record in place and rec is overwritten with
// it.
func (s *Store) insertOneTx(tx *sql.Tx, h recordHelper, appRow int64, rec *types.Record) (bool, error) {
	if rec.ClientRecordID != "" {
		var rowID, version int64
		var existingUUID string
		err := tx.QueryRow(
			fmt.Sprintf("SELECT row_id, uuid, client_record_version FROM %s WHERE app_info_id = ? AND client_record_id = ?", h.Table()),
			appRow, rec.ClientRecordID).Scan(&rowID, &existingUUID, &version)
		switch {
		case err == nil:
			if rec.ClientRecordVersion < version {
				stored, err := s.readOneTx(tx, h, "r.row_id = ?", rowID)
				if err != nil {
					return false, err
				}
				*rec = *stored
				return false, nil
			}
			rec.UUID = existingUUID
			return true, updateRowTx(tx, h, rowID, rec)
		case errors.Is(err, sql.ErrNoRows):
			// First use of this client record id; fall through to insert.
		default:
			return false, fmt.Errorf("%w: resolving client record id: %v", types.ErrIOFailure, err)
		}
	}

	if rec.UUID == "" {
		rec.UUID = uuid.NewString()
	} else {
		var one int
		err := tx.QueryRow(
			fmt.Sprintf("SELECT 1 FROM %s WHERE uuid = ?", h.Table()), rec.UUID).Scan(&one)
		if err == nil {
			return false, fmt.Errorf("%w: uuid %s already exists", types.ErrInvalidArgument, rec.UUID)
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return false, fmt.Errorf("%w: checking uuid: %v", types.ErrIOFailure, err)
		}
	}

	rowID, err := insertRowTx(tx, h, appRow, rec)
	if err != nil {
		return false, err
	}
	return true, h.SavePeripherals(tx, rowID, rec)
}

// checkFeatureGate rejects records whose content is gated off by a
// feature flag.
func (s *Store) checkFeatureGate(rec *types.Record) error {
	if rec.Kind == types.KindExerciseSession &&
		len(rec.ExerciseSession.Route) > 0 &&
		!s.cfg.Flags.ExerciseRoutesEnabled {
		return fmt.Errorf("%w: exercise routes", types.ErrFeatureDisabled)
	}
	return nil
}

// insertRowTx writes the shared and payload columns of one record.
func insertRowTx(tx *sql.Tx, h recordHelper, appRow int64, rec *types.Record) (int64, error) {
	cols := []string{
		"uuid", "app_info_id", "client_record_id", "client_record_version",
		"start_time_millis", "end_time_millis",
		"start_zone_offset_secs", "end_zone_offset_secs", "last_modified_millis",
	}
	payloadVals, err := h.EncodePayload(rec)
	if err != nil {
		return 0, err
	}
	vals := []any{
		rec.UUID, appRow, nullableString(rec.ClientRecordID), rec.ClientRecordVersion,
		rec.StartTime.UnixMilli(), rec.EndTime.UnixMilli(),
		rec.StartZoneOffset, rec.EndZoneOffset, rec.LastModified.UnixMilli(),
	}
	for i, c := range h.PayloadColumns() {
		cols = append(cols, c.name)
		vals = append(vals, payloadVals[i])
	}
	res, err := tx.Exec(
		fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
			h.Table(), strings.Join(cols, ", "), placeholders(len(cols))),
		vals...)
	if err != nil {
		return 0, fmt.Errorf("%w: inserting %s record: %v", types.ErrIOFailure, h.Kind(), err)
	}
	rowID, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("%w: insert row id: %v", types.ErrIOFailure, err)
	}
	return rowID, nil
}

// updateRowTx rewrites the mutable columns of an existing row and
// replaces its child-table rows.
func updateRowTx(tx *sql.Tx, h recordHelper, rowID int64, rec *types.Record) error {
	payloadVals, err := h.EncodePayload(rec)
	if err != nil {
		return err
	}
	sets := []string{
		"client_record_id = ?", "client_record_version = ?",
		"start_time_millis = ?", "end_time_millis = ?",
		"start_zone_offset_secs = ?", "end_zone_offset_secs = ?",
		"last_modified_millis = ?",
	}
	vals := []any{
		nullableString(rec.ClientRecordID), rec.ClientRecordVersion,
		rec.StartTime.UnixMilli(), rec.EndTime.UnixMilli(),
		rec.StartZoneOffset, rec.EndZoneOffset, rec.LastModified.UnixMilli(),
	}
	for i, c := range h.PayloadColumns() {
		sets = append(sets, c.name+" = ?")
		vals = append(vals, payloadVals[i])
	}
	vals = append(vals, rowID)
	if _, err := tx.Exec(
		fmt.Sprintf("UPDATE %s SET %s WHERE row_id = ?", h.Table(), strings.Join(sets, ", ")),
		vals...); err != nil {
		return fmt.Errorf("%w: updating %s record: %v", types.ErrIOFailure, h.Kind(), err)
	}
	return h.SavePeripherals(tx, rowID, rec)
}

// UpdateRecords updates a batch for the calling app. Every record must
// resolve (by UUID or client record id) to an existing row owned by the
// caller; any miss fails the whole batch with ErrInvalidArgument and
// nothing is applied.
func (s *Store) UpdateRecords(appID string, recs []*types.Record) ([]*types.Record, error) {
	if appID == "" || len(recs) == 0 {
		return nil, fmt.Errorf("%w: app id and records required", types.ErrInvalidArgument)
	}

	out := make([]*types.Record, len(recs))
	touched := make(map[types.RecordKind][]string)
	now := time.Now()

	err := s.RunInTransaction(func(tx *sql.Tx) error {
		appRow, err := ensureAppTx(tx, appID)
		if err != nil {
			return err
		}
		for i, in := range recs {
			rec := in.Clone()
			if rec.AppID == "" {
				rec.AppID = appID
			}
			if rec.AppID != appID {
				return fmt.Errorf("%w: record app %q does not match caller %q",
					types.ErrInvalidArgument, rec.AppID, appID)
			}
			if rec.Kind.Instant() && rec.EndTime.IsZero() {
				rec.EndTime = rec.StartTime
				rec.EndZoneOffset = rec.StartZoneOffset
			}
			if err := rec.Validate(); err != nil {
				return err
			}
			if err := s.checkFeatureGate(rec); err != nil {
				return err
			}
			h, err := s.helperFor(rec.Kind)
			if err != nil {
				return err
			}

			rowID, err := resolveOwnedRowTx(tx, h, appRow, rec)
			if err != nil {
				return err
			}
			rec.LastModified = now
			if err := updateRowTx(tx, h, rowID, rec); err != nil {
				return err
			}
			out[i] = rec
			touched[rec.Kind] = append(touched[rec.Kind], rec.UUID)
		}

		for kind, uuids := range touched {
			if err := appendChangeLogTx(tx, kind, appID, types.ChangeUpsert, uuids, now); err != nil {
				return err
			}
		}
		return appendAccessLogTx(tx, appID, kindsOf(recs), types.AccessUpsert, now)
	})
	if err != nil {
		return nil, err
	}

	kinds := make([]types.RecordKind, 0, len(touched))
	for kind := range touched {
		kinds = append(kinds, kind)
	}
	s.scheduleActivityDates(kinds...)
	return out, nil
}

// resolveOwnedRowTx finds the row an update targets and verifies the
// caller owns it. Fills rec.UUID when resolving through the client record
// id.
func resolveOwnedRowTx(tx *sql.Tx, h recordHelper, appRow int64, rec *types.Record) (int64, error) {
	var rowID, ownerRow int64
	switch {
	case rec.UUID != "":
		var storedUUID string
		err := tx.QueryRow(
			fmt.Sprintf("SELECT row_id, app_info_id, uuid FROM %s WHERE uuid = ?", h.Table()),
			rec.UUID).Scan(&rowID, &ownerRow, &storedUUID)
		if errors.Is(err, sql.ErrNoRows) {
			return 0, fmt.Errorf("%w: uuid %s not found", types.ErrInvalidArgument, rec.UUID)
		}
		if err != nil {
			return 0, fmt.Errorf("%w: resolving uuid: %v", types.ErrIOFailure, err)
		}
	case rec.ClientRecordID != "":
		var storedUUID string
		err := tx.QueryRow(
			fmt.Sprintf("SELECT row_id, app_info_id, uuid FROM %s WHERE app_info_id = ? AND client_record_id = ?", h.Table()),
			appRow, rec.ClientRecordID).Scan(&rowID, &ownerRow, &storedUUID)
		if errors.Is(err, sql.ErrNoRows) {
			return 0, fmt.Errorf("%w: client record id %q not found", types.ErrInvalidArgument, rec.ClientRecordID)
		}
		if err != nil {
			return 0, fmt.Errorf("%w: resolving client record id: %v", types.ErrIOFailure, err)
		}
		rec.UUID = storedUUID
	default:
		return 0, fmt.Errorf("%w: update needs a uuid or client record id", types.ErrInvalidArgument)
	}
	if ownerRow != appRow {
		return 0, fmt.Errorf("%w: record not owned by caller", types.ErrInvalidArgument)
	}
	return rowID, nil
}

// ReadByIDs returns the records of one kind matching the given UUIDs, in
// input order; missing UUIDs are simply absent. The read is logged for
// the caller inside the same transaction.
func (s *Store) ReadByIDs(appID string, kind types.RecordKind, uuids []string) ([]*types.Record, error) {
	h, err := s.helperFor(kind)
	if err != nil {
		return nil, err
	}
	if len(uuids) == 0 {
		return nil, fmt.Errorf("%w: no uuids given", types.ErrInvalidArgument)
	}

	var recs []*types.Record
	err = s.RunInTransaction(func(tx *sql.Tx) error {
		if err := appendAccessLogTx(tx, appID, []types.RecordKind{kind}, types.AccessRead, time.Now()); err != nil {
			return err
		}
		args := make([]any, len(uuids))
		for i, u := range uuids {
			args[i] = u
		}
		found, _, err := s.readRowsTx(tx, h,
			"r.uuid IN ("+placeholders(len(uuids))+")", args, "r.row_id", 0)
		if err != nil {
			return err
		}
		byUUID := make(map[string]*types.Record, len(found))
		for _, r := range found {
			byUUID[r.UUID] = r
		}
		for _, u := range uuids {
			if r, ok := byUUID[u]; ok {
				recs = append(recs, r)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return recs, nil
}

// ReadByFilter returns one page of records matching the filter. Origin
// filtering runs in SQL; callers never see rows outside the allow-list.
// The read is logged for the caller inside the same transaction.
func (s *Store) ReadByFilter(appID string, f types.ReadFilter) (types.ReadPage, error) {
	var page types.ReadPage
	if err := f.Validate(); err != nil {
		return page, err
	}
	h, err := s.helperFor(f.Kind)
	if err != nil {
		return page, err
	}

	err = s.RunInTransaction(func(tx *sql.Tx) error {
		if err := appendAccessLogTx(tx, appID, []types.RecordKind{f.Kind}, types.AccessRead, time.Now()); err != nil {
			return err
		}

		var conds []string
		var args []any
		if !f.Range.Start.IsZero() {
			conds = append(conds, "r.start_time_millis >= ?")
			args = append(args, f.Range.Start.UnixMilli())
		}
		if !f.Range.End.IsZero() {
			conds = append(conds, "r.start_time_millis < ?")
			args = append(args, f.Range.End.UnixMilli())
		}
		if len(f.Origins) > 0 {
			conds = append(conds, "a.package_name IN ("+placeholders(len(f.Origins))+")")
			for _, o := range f.Origins {
				args = append(args, o)
			}
		}

		cmp, order := ">", "ASC"
		if !f.Ascending {
			cmp, order = "<", "DESC"
		}
		if f.PageToken != "" {
			lastMillis, lastRow, err := parsePageToken(f.PageToken)
			if err != nil {
				return err
			}
			conds = append(conds,
				fmt.Sprintf("(r.start_time_millis %s ? OR (r.start_time_millis = ? AND r.row_id %s ?))", cmp, cmp))
			args = append(args, lastMillis, lastMillis, lastRow)
		}

		where := "1=1"
		if len(conds) > 0 {
			where = strings.Join(conds, " AND ")
		}
		orderBy := fmt.Sprintf("r.start_time_millis %s, r.row_id %s", order, order)

		size := f.EffectivePageSize()
		recs, rowIDs, err := s.readRowsTx(tx, h, where, args, orderBy, size+1)
		if err != nil {
			return err
		}
		if len(recs) > size {
			recs = recs[:size]
			rowIDs = rowIDs[:size]
			last := recs[len(recs)-1]
			page.NextPageToken = encodePageToken(last.StartTime.UnixMilli(), rowIDs[len(rowIDs)-1])
		}
		page.Records = recs
		return nil
	})
	if err != nil {
		return types.ReadPage{}, err
	}
	return page, nil
}

// DeleteUsingFilters hard-deletes records matching the filters. UUID and
// client-record-id filters are restricted to the caller's own records; a
// range filter with no explicit origins likewise defaults to the caller.
// Change-log DELETE tokens and the access-log row land in the same
// transaction. Returns the removed UUIDs per kind.
func (s *Store) DeleteUsingFilters(appID string, filters []types.DeleteFilter) ([]types.DeleteResult, error) {
	if appID == "" || len(filters) == 0 {
		return nil, fmt.Errorf("%w: app id and filters required", types.ErrInvalidArgument)
	}

	results := make([]types.DeleteResult, len(filters))
	now := time.Now()
	var kinds []types.RecordKind

	err := s.RunInTransaction(func(tx *sql.Tx) error {
		appRow, err := ensureAppTx(tx, appID)
		if err != nil {
			return err
		}
		for i, f := range filters {
			if err := f.Validate(); err != nil {
				return err
			}
			h, err := s.helperFor(f.Kind)
			if err != nil {
				return err
			}

			var conds []string
			var args []any
			switch {
			case len(f.UUIDs) > 0:
				conds = append(conds, "uuid IN ("+placeholders(len(f.UUIDs))+")", "app_info_id = ?")
				for _, u := range f.UUIDs {
					args = append(args, u)
				}
				args = append(args, appRow)
			case len(f.ClientRecordIDs) > 0:
				conds = append(conds, "client_record_id IN ("+placeholders(len(f.ClientRecordIDs))+")", "app_info_id = ?")
				for _, c := range f.ClientRecordIDs {
					args = append(args, c)
				}
				args = append(args, appRow)
			default:
				if !f.Range.Start.IsZero() {
					conds = append(conds, "start_time_millis >= ?")
					args = append(args, f.Range.Start.UnixMilli())
				}
				if !f.Range.End.IsZero() {
					conds = append(conds, "start_time_millis < ?")
					args = append(args, f.Range.End.UnixMilli())
				}
				if len(f.Origins) > 0 {
					conds = append(conds,
						"app_info_id IN (SELECT row_id FROM app_info_table WHERE package_name IN ("+placeholders(len(f.Origins))+"))")
					for _, o := range f.Origins {
						args = append(args, o)
					}
				} else {
					conds = append(conds, "app_info_id = ?")
					args = append(args, appRow)
				}
			}

			where := "1=1"
			if len(conds) > 0 {
				where = strings.Join(conds, " AND ")
			}
			rows, err := tx.Query(
				fmt.Sprintf("SELECT row_id, uuid FROM %s WHERE %s", h.Table(), where), args...)
			if err != nil {
				return fmt.Errorf("%w: selecting rows to delete: %v", types.ErrIOFailure, err)
			}
			var rowIDs []int64
			var uuids []string
			for rows.Next() {
				var rowID int64
				var u string
				if err := rows.Scan(&rowID, &u); err != nil {
					rows.Close()
					return fmt.Errorf("%w: scanning row to delete: %v", types.ErrIOFailure, err)
				}
				rowIDs = append(rowIDs, rowID)
				uuids = append(uuids, u)
			}
			if err := rows.Err(); err != nil {
				rows.Close()
				return fmt.Errorf("%w: iterating rows to delete: %v", types.ErrIOFailure, err)
			}
			rows.Close()

			if len(rowIDs) > 0 {
				delArgs := make([]any, len(rowIDs))
				for j, id := range rowIDs {
					delArgs[j] = id
				}
				if _, err := tx.Exec(
					fmt.Sprintf("DELETE FROM %s WHERE row_id IN (%s)", h.Table(), placeholders(len(rowIDs))),
					delArgs...); err != nil {
					return fmt.Errorf("%w: deleting %s records: %v", types.ErrIOFailure, f.Kind, err)
				}
				if err := appendChangeLogTx(tx, f.Kind, appID, types.ChangeDelete, uuids, now); err != nil {
					return err
				}
				kinds = append(kinds, f.Kind)
			}
			results[i] = types.DeleteResult{Kind: f.Kind, UUIDs: uuids}
		}

		filterKinds := make([]types.RecordKind, len(filters))
		for i, f := range filters {
			filterKinds[i] = f.Kind
		}
		return appendAccessLogTx(tx, appID, filterKinds, types.AccessDelete, now)
	})
	if err != nil {
		return nil, err
	}
	s.scheduleActivityDates(kinds...)
	return results, nil
}

// ReadForAggregate returns every record of one kind overlapping the
// range, unpaginated, for aggregate computation. The read is logged for
// the caller like any other read.
func (s *Store) ReadForAggregate(appID string, kind types.RecordKind, tr types.TimeRange, origins []string) ([]*types.Record, error) {
	if err := tr.Validate(); err != nil {
		return nil, err
	}
	h, err := s.helperFor(kind)
	if err != nil {
		return nil, err
	}

	var recs []*types.Record
	err = s.RunInTransaction(func(tx *sql.Tx) error {
		if err := appendAccessLogTx(tx, appID, []types.RecordKind{kind}, types.AccessRead, time.Now()); err != nil {
			return err
		}
		conds := []string{"1=1"}
		var args []any
		if !tr.Start.IsZero() {
			conds = append(conds, "r.end_time_millis >= ?")
			args = append(args, tr.Start.UnixMilli())
		}
		if !tr.End.IsZero() {
			conds = append(conds, "r.start_time_millis < ?")
			args = append(args, tr.End.UnixMilli())
		}
		if len(origins) > 0 {
			conds = append(conds, "a.package_name IN ("+placeholders(len(origins))+")")
			for _, o := range origins {
				args = append(args, o)
			}
		}
		recs, _, err = s.readRowsTx(tx, h, strings.Join(conds, " AND "), args, "r.start_time_millis, r.row_id", 0)
		return err
	})
	if err != nil {
		return nil, err
	}
	return recs, nil
}

// readRowsTx selects full records (shared columns, payload, peripherals)
// under the given WHERE clause. A limit of 0 means unbounded.
func (s *Store) readRowsTx(q queryer, h recordHelper, where string, args []any, orderBy string, limit int) ([]*types.Record, []int64, error) {
	cols := sharedSelectColumns
	for _, c := range h.PayloadColumns() {
		cols += ", r." + c.name
	}
	query := fmt.Sprintf(
		"SELECT %s FROM %s r JOIN app_info_table a ON a.row_id = r.app_info_id WHERE %s ORDER BY %s",
		cols, h.Table(), where, orderBy)
	if limit > 0 {
		query += " LIMIT " + strconv.Itoa(limit)
	}

	rows, err := q.Query(query, args...)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: reading %s records: %v", types.ErrIOFailure, h.Kind(), err)
	}
	defer rows.Close()

	var recs []*types.Record
	var rowIDs []int64
	payloadCount := len(h.PayloadColumns())
	for rows.Next() {
		var rowID int64
		rec := &types.Record{Kind: h.Kind()}
		var clientID sql.NullString
		var startMillis, endMillis, lastModified int64
		dest := []any{
			&rowID, &rec.UUID, &rec.AppID, &clientID,
			&rec.ClientRecordVersion, &startMillis, &endMillis,
			&rec.StartZoneOffset, &rec.EndZoneOffset, &lastModified,
		}
		payloadVals := make([]any, payloadCount)
		for i := range payloadVals {
			dest = append(dest, &payloadVals[i])
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, nil, fmt.Errorf("%w: scanning %s record: %v", types.ErrIOFailure, h.Kind(), err)
		}
		rec.ClientRecordID = clientID.String
		rec.StartTime = millisToTime(startMillis)
		rec.EndTime = millisToTime(endMillis)
		rec.LastModified = millisToTime(lastModified)
		if err := h.DecodePayload(rec, payloadVals); err != nil {
			return nil, nil, err
		}
		recs = append(recs, rec)
		rowIDs = append(rowIDs, rowID)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("%w: iterating %s records: %v", types.ErrIOFailure, h.Kind(), err)
	}

	for i, rec := range recs {
		if err := h.LoadPeripherals(q, rowIDs[i], rec); err != nil {
			return nil, nil, err
		}
	}
	return recs, rowIDs, nil
}

// readOneTx reads a single record or returns ErrNotFound.
func (s *Store) readOneTx(q queryer, h recordHelper, where string, args ...any) (*types.Record, error) {
	recs, _, err := s.readRowsTx(q, h, where, args, "r.row_id", 1)
	if err != nil {
		return nil, err
	}
	if len(recs) == 0 {
		return nil, types.ErrNotFound
	}
	return recs[0], nil
}

// Page token codec: position of the last row handed out, keyed by start
// time and row id so pages stay stable under concurrent inserts.
const pageTokenPrefix = "p1."

func encodePageToken(startMillis, rowID int64) string {
	return pageTokenPrefix + strconv.FormatInt(startMillis, 10) + "." + strconv.FormatInt(rowID, 10)
}

func parsePageToken(token string) (startMillis, rowID int64, err error) {
	rest, ok := strings.CutPrefix(token, pageTokenPrefix)
	if !ok {
		return 0, 0, fmt.Errorf("%w: %q", types.ErrInvalidToken, token)
	}
	parts := strings.SplitN(rest, ".", 2)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("%w: %q", types.ErrInvalidToken, token)
	}
	startMillis, err = strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: %q", types.ErrInvalidToken, token)
	}
	rowID, err = strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: %q", types.ErrInvalidToken, token)
	}
	return startMillis, rowID, nil
}

// placeholders returns n comma-separated SQL placeholders.
func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}

// nullableString maps "" to NULL so partial unique indexes on
// client_record_id behave.
func nullableString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// kindsOf returns the distinct kinds of a batch in input order.
func kindsOf(recs []*types.Record) []types.RecordKind {
	seen := make(map[types.RecordKind]bool)
	var kinds []types.RecordKind
	for _, r := range recs {
		if !seen[r.Kind] {
			seen[r.Kind] = true
			kinds = append(kinds, r.Kind)
		}
	}
	return kinds
}
