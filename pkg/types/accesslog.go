package types

import "time"

// AccessOperation is the kind of access an audit entry records.
type AccessOperation string

const (
	AccessRead   AccessOperation = "READ"
	AccessUpsert AccessOperation = "UPSERT"
	AccessDelete AccessOperation = "DELETE"
)

// AccessLogEntry is one append-only audit row. Entries are written on
// every read, insert, update, or delete transaction, even when zero rows
// matched. They are used only for audit queries, never for sync.
type AccessLogEntry struct {
	AppID     string
	Kinds     []RecordKind
	Operation AccessOperation
	Time      time.Time
}
