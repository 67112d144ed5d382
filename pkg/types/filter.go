package types

import "time"

// Page size bounds for filtered reads.
const (
	DefaultPageSize = 1000
	MaxPageSize     = 5000
)

// TimeRange bounds a query: inclusive start, exclusive end. A zero value
// on either side means unbounded.
type TimeRange struct {
	Start time.Time
	End   time.Time
}

// Validate checks that a bounded range is ordered.
func (tr TimeRange) Validate() error {
	if !tr.Start.IsZero() && !tr.End.IsZero() && !tr.End.After(tr.Start) {
		return ErrInvalidFilter
	}
	return nil
}

// ReadFilter selects records of one kind for a filtered read. Origins is a
// data-origin allow-list applied in SQL; an empty list means all origins.
// PageToken resumes a previous page; Ascending orders by start time.
type ReadFilter struct {
	Kind      RecordKind
	Range     TimeRange
	Origins   []string
	PageSize  int
	PageToken string
	Ascending bool
}

// Validate checks kind, range, and page size.
func (f ReadFilter) Validate() error {
	if !f.Kind.Valid() {
		return ErrUnsupportedType
	}
	if err := f.Range.Validate(); err != nil {
		return err
	}
	if f.PageSize < 0 || f.PageSize > MaxPageSize {
		return ErrInvalidFilter
	}
	return nil
}

// EffectivePageSize returns the clamped page size.
func (f ReadFilter) EffectivePageSize() int {
	if f.PageSize <= 0 {
		return DefaultPageSize
	}
	return f.PageSize
}

// ReadPage is one page of a filtered read. NextPageToken is empty when the
// result set is exhausted.
type ReadPage struct {
	Records       []*Record
	NextPageToken string
}

// DeleteFilter selects records of one kind for deletion. Exactly one of
// UUIDs, ClientRecordIDs, or Range+Origins is expected; UUIDs win when
// several are set.
type DeleteFilter struct {
	Kind            RecordKind
	UUIDs           []string
	ClientRecordIDs []string
	Range           TimeRange
	Origins         []string
}

// Validate checks kind and range.
func (f DeleteFilter) Validate() error {
	if !f.Kind.Valid() {
		return ErrUnsupportedType
	}
	return f.Range.Validate()
}

// DeleteResult reports what a delete removed for one kind.
type DeleteResult struct {
	Kind  RecordKind
	UUIDs []string
}
