package types

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ChangeOperation is the kind of mutation a change-log entry records.
type ChangeOperation string

const (
	ChangeUpsert ChangeOperation = "UPSERT"
	ChangeDelete ChangeOperation = "DELETE"
)

// ChangeLogEntry is one append-only row of the change feed. Entries are
// created inside the same transaction as the data mutation and never
// mutated afterwards.
type ChangeLogEntry struct {
	Position  int64
	Kind      RecordKind
	Operation ChangeOperation
	UUIDs     []string
	AppID     string
	Time      time.Time
}

// ChangeLogPage is the result of a change-feed read: upserted records
// re-hydrated through their helpers (and redacted), deleted record UUIDs,
// and the resume token for the next call.
type ChangeLogPage struct {
	Upserts   []*Record
	Deletions []DeletedRecord
	NextToken string
	HasMore   bool
}

// DeletedRecord identifies one record removed from the store.
type DeletedRecord struct {
	UUID string
	Time time.Time
}

// changeTokenPrefix versions the token encoding so a future layout change
// can reject old tokens explicitly.
const changeTokenPrefix = "v1."

// EncodeChangeToken renders a change-log position and the record kinds it
// was issued for as an opaque token. Tokens are self-contained so they
// survive process restarts.
func EncodeChangeToken(position int64, kinds []RecordKind) string {
	names := make([]string, len(kinds))
	for i, k := range kinds {
		names[i] = string(k)
	}
	return changeTokenPrefix + strconv.FormatInt(position, 10) + "." + strings.Join(names, "+")
}

// DecodeChangeToken parses a token back into a log position and the
// record kinds it covers. Returns ErrInvalidToken for malformed input.
func DecodeChangeToken(token string) (int64, []RecordKind, error) {
	rest, ok := strings.CutPrefix(token, changeTokenPrefix)
	if !ok {
		return 0, nil, fmt.Errorf("%w: %q", ErrInvalidToken, token)
	}
	parts := strings.SplitN(rest, ".", 2)
	if len(parts) != 2 || parts[1] == "" {
		return 0, nil, fmt.Errorf("%w: %q", ErrInvalidToken, token)
	}
	pos, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil || pos < 0 {
		return 0, nil, fmt.Errorf("%w: %q", ErrInvalidToken, token)
	}
	var kinds []RecordKind
	for _, name := range strings.Split(parts[1], "+") {
		k := RecordKind(name)
		if !k.Valid() {
			return 0, nil, fmt.Errorf("%w: unknown kind in token %q", ErrInvalidToken, token)
		}
		kinds = append(kinds, k)
	}
	return pos, kinds, nil
}
