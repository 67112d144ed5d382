package types

import "time"

// Permission names consumed by the engine. The grant subsystem itself is
// external; the engine only asks whether a caller holds a permission.
const (
	// PermissionReadExerciseRoutes gates route geodata on exercise
	// sessions for apps that do not own the record.
	PermissionReadExerciseRoutes = "read.exercise_routes"
)

// ReadPermission returns the permission name guarding reads of a record
// kind.
func ReadPermission(k RecordKind) string { return "read." + string(k) }

// WritePermission returns the permission name guarding writes of a record
// kind.
func WritePermission(k RecordKind) string { return "write." + string(k) }

// PermissionChecker is the capability oracle: does an app hold a
// permission. Implementations live outside the engine.
type PermissionChecker interface {
	HasPermission(appID, permission string) bool
}

// AllowAll grants every permission. Used by the local CLI and in tests.
type AllowAll struct{}

// HasPermission always returns true.
func (AllowAll) HasPermission(string, string) bool { return true }

// DataState is the process-wide export/import status surfaced by the
// status query. LastExportError is a structured code, empty on success.
type DataState struct {
	SchemaVersion     int
	ExportDestination string
	LastExportTime    time.Time
	LastExportError   string
}

// Structured export error codes recorded in DataState.
const (
	ExportErrorNone    = ""
	ExportErrorUnknown = "EXPORT_ERROR_UNKNOWN"
	ExportErrorIO      = "EXPORT_ERROR_DESTINATION_UNREACHABLE"
)
