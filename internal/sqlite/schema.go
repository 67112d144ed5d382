// Package sqlite implements the relational record store: schema registry,
// per-record-type table helpers, the transaction manager, and the
// change/access log, priority, and app-info tables.
package sqlite

import "fmt"

// currentSchemaVersion is the on-disk layout version this build writes.
// Older stores are upgraded at open; newer stores are rejected.
const currentSchemaVersion = 2

// sharedRecordColumnsDDL is the column block every record table starts
// with. The (app_info_id, client_record_id) pair is unique per table when
// the client id is non-empty.
const sharedRecordColumnsDDL = `row_id INTEGER PRIMARY KEY AUTOINCREMENT,
    uuid TEXT NOT NULL UNIQUE,
    app_info_id INTEGER NOT NULL REFERENCES app_info_table(row_id),
    client_record_id TEXT,
    client_record_version INTEGER NOT NULL DEFAULT 0,
    start_time_millis INTEGER NOT NULL,
    end_time_millis INTEGER NOT NULL,
    start_zone_offset_secs INTEGER NOT NULL DEFAULT 0,
    end_zone_offset_secs INTEGER NOT NULL DEFAULT 0,
    last_modified_millis INTEGER NOT NULL`

// Bookkeeping table DDL.
const (
	createAppInfo = `CREATE TABLE IF NOT EXISTS app_info_table (
    row_id INTEGER PRIMARY KEY AUTOINCREMENT,
    package_name TEXT NOT NULL UNIQUE,
    created_at_millis INTEGER NOT NULL
);`

	createChangeLogs = `CREATE TABLE IF NOT EXISTS change_logs_table (
    row_id INTEGER PRIMARY KEY AUTOINCREMENT,
    record_kind TEXT NOT NULL,
    operation TEXT NOT NULL,
    uuids TEXT NOT NULL,
    app_id TEXT NOT NULL,
    time_millis INTEGER NOT NULL
);`

	createAccessLogs = `CREATE TABLE IF NOT EXISTS access_logs_table (
    row_id INTEGER PRIMARY KEY AUTOINCREMENT,
    app_id TEXT NOT NULL,
    record_kinds TEXT NOT NULL,
    operation TEXT NOT NULL,
    time_millis INTEGER NOT NULL
);`

	createPriority = `CREATE TABLE IF NOT EXISTS priority_table (
    category TEXT PRIMARY KEY,
    app_ids TEXT NOT NULL
);`

	createStoreMetadata = `CREATE TABLE IF NOT EXISTS store_metadata (
    key TEXT PRIMARY KEY,
    value TEXT NOT NULL
);`

	createActivityDates = `CREATE TABLE IF NOT EXISTS activity_date_table (
    record_kind TEXT NOT NULL,
    local_date TEXT NOT NULL,
    PRIMARY KEY (record_kind, local_date)
);`
)

// Index DDL for the bookkeeping tables.
const (
	idxChangeLogsKind = `CREATE INDEX IF NOT EXISTS idx_change_logs_kind ON change_logs_table(record_kind, row_id);`
	idxAccessLogsTime = `CREATE INDEX IF NOT EXISTS idx_access_logs_time ON access_logs_table(time_millis);`
)

// bookkeepingDDL lists the non-record tables in dependency order.
// app_info_table comes first; record tables reference it.
var bookkeepingDDL = []string{
	createAppInfo,
	createChangeLogs,
	createAccessLogs,
	createPriority,
	createStoreMetadata,
	createActivityDates,
	idxChangeLogsKind,
	idxAccessLogsTime,
}

// recordTableDDL builds the CREATE TABLE and index statements for one
// record helper from its payload column list.
func recordTableDDL(h recordHelper) []string {
	cols := sharedRecordColumnsDDL
	for _, c := range h.PayloadColumns() {
		cols += ",\n    " + c.name + " " + c.sqlType
		if c.notNull {
			cols += " NOT NULL"
		}
	}
	table := h.Table()
	stmts := []string{
		fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (\n    %s\n);", table, cols),
		fmt.Sprintf(`CREATE UNIQUE INDEX IF NOT EXISTS idx_%s_client_id ON %s(app_info_id, client_record_id) WHERE client_record_id IS NOT NULL AND client_record_id != '';`, table, table),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS idx_%s_time ON %s(start_time_millis);`, table, table),
	}
	return append(stmts, h.ChildDDL()...)
}

// migrations maps a target schema version to the DDL that brings a store
// at version-1 up to it. Applied in order at open; version 1 is the
// initial layout created by the bookkeeping and record DDL above.
var migrations = map[int][]string{
	// Version 2 added the background-populated activity-dates index.
	2: {createActivityDates},
}
