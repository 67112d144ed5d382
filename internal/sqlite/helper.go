package sqlite

import (
	"database/sql"
	"fmt"

	"github.com/openvitals/healthstore/pkg/types"
)

// column describes one payload column of a record table: name, SQLite
// storage kind, and nullability. The shared columns are fixed in
// sharedRecordColumnsDDL.
type column struct {
	name    string
	sqlType string
	notNull bool
}

// queryer is the subset of *sql.Tx and *sql.DB the helpers read through.
type queryer interface {
	Query(query string, args ...any) (*sql.Rows, error)
	QueryRow(query string, args ...any) *sql.Row
}

// recordHelper handles one record kind: its table, payload column layout,
// and (de)serialization between rows and the typed record. Helpers never
// open transactions; they receive an already-acquired handle from the
// transaction manager.
type recordHelper interface {
	Kind() types.RecordKind
	Table() string

	// PayloadColumns returns the kind-specific columns after the shared
	// block, in the order EncodePayload and DecodePayload use.
	PayloadColumns() []column

	// EncodePayload returns the payload column values for a record.
	EncodePayload(r *types.Record) ([]any, error)

	// DecodePayload populates the record's payload from scanned values,
	// one per PayloadColumns entry.
	DecodePayload(r *types.Record, vals []any) error

	// SavePeripherals writes child-table rows (series samples, routes)
	// for the record identified by rowID, replacing any existing ones.
	SavePeripherals(tx *sql.Tx, rowID int64, r *types.Record) error

	// LoadPeripherals reads child-table rows into the record.
	LoadPeripherals(q queryer, rowID int64, r *types.Record) error

	// ChildDDL returns CREATE statements for the helper's child tables.
	ChildDDL() []string
}

// newHelpers builds the registry over the closed set of supported kinds.
func newHelpers() map[types.RecordKind]recordHelper {
	hs := []recordHelper{
		stepsHelper{},
		distanceHelper{},
		activeCaloriesHelper{},
		basalMetabolicRateHelper{},
		heartRateHelper{},
		exerciseSessionHelper{},
	}
	m := make(map[types.RecordKind]recordHelper, len(hs))
	for _, h := range hs {
		m[h.Kind()] = h
	}
	return m
}

// helperFor returns the helper for a kind, or ErrUnsupportedType.
func (s *Store) helperFor(kind types.RecordKind) (recordHelper, error) {
	h, ok := s.helpers[kind]
	if !ok {
		return nil, fmt.Errorf("%w: %q", types.ErrUnsupportedType, kind)
	}
	return h, nil
}

// Value coercion for scanned payload columns. The driver hands back int64
// for INTEGER and float64 for REAL, but REAL columns holding whole numbers
// can surface as int64.

func toInt64(v any) (int64, error) {
	switch n := v.(type) {
	case int64:
		return n, nil
	case float64:
		return int64(n), nil
	default:
		return 0, fmt.Errorf("%w: expected integer, got %T", types.ErrIOFailure, v)
	}
}

func toFloat64(v any) (float64, error) {
	switch n := v.(type) {
	case float64:
		return n, nil
	case int64:
		return float64(n), nil
	default:
		return 0, fmt.Errorf("%w: expected real, got %T", types.ErrIOFailure, v)
	}
}

func toString(v any) (string, error) {
	switch s := v.(type) {
	case string:
		return s, nil
	case []byte:
		return string(s), nil
	case nil:
		return "", nil
	default:
		return "", fmt.Errorf("%w: expected text, got %T", types.ErrIOFailure, v)
	}
}
