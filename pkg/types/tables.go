package types

// Persisted table names. One table per record kind plus the shared
// bookkeeping tables.
const (
	ChangeLogsTable    = "change_logs_table"
	AccessLogsTable    = "access_logs_table"
	PriorityTable      = "priority_table"
	AppInfoTable       = "app_info_table"
	ActivityDateTable  = "activity_date_table"
	StoreMetadataTable = "store_metadata"
)

// RecordTableName returns the table holding records of a kind.
func RecordTableName(k RecordKind) string { return string(k) + "_record_table" }
