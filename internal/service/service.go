// Package service is the engine boundary: each entry point takes the
// calling app and a typed request, runs off the caller's goroutine, and
// resolves a future exactly once. Permission checks run against the
// external capability oracle; results pass through the redaction gate
// before they leave the engine.
package service

import (
	"fmt"

	"github.com/openvitals/healthstore/internal/exportimport"
	"github.com/openvitals/healthstore/internal/sqlite"
	"github.com/openvitals/healthstore/pkg/types"
)

// changeLogPageSize bounds one GetChangeLogs response.
const changeLogPageSize = 1000

// Service wires the transaction manager, the export/import manager, and
// the permission oracle together behind the request entry points.
type Service struct {
	store    *sqlite.Store
	exporter *exportimport.Manager
	perms    types.PermissionChecker
}

// New builds a Service over an open store. Everything is constructed
// explicitly at process start; there is no hidden registry.
func New(store *sqlite.Store, perms types.PermissionChecker) *Service {
	return &Service{
		store:    store,
		exporter: exportimport.NewManager(store),
		perms:    perms,
	}
}

// checkKinds verifies the caller holds perm(kind) for every kind.
func (s *Service) checkKinds(app string, kinds []types.RecordKind, perm func(types.RecordKind) string) error {
	for _, k := range kinds {
		if !s.perms.HasPermission(app, perm(k)) {
			return fmt.Errorf("%w: %s lacks %s", types.ErrPermissionDenied, app, perm(k))
		}
	}
	return nil
}

// InsertRecords inserts a batch for the calling app and resolves with the
// finalized records, generated UUIDs included.
func (s *Service) InsertRecords(app string, recs []*types.Record) *Future[[]*types.Record] {
	return run(func() ([]*types.Record, error) {
		if err := s.checkKinds(app, recordKinds(recs), types.WritePermission); err != nil {
			return nil, err
		}
		return s.store.InsertRecords(app, recs)
	})
}

// ReadRecordsByIDs reads records of one kind by UUID, redacted for the
// caller.
func (s *Service) ReadRecordsByIDs(app string, kind types.RecordKind, uuids []string) *Future[[]*types.Record] {
	return run(func() ([]*types.Record, error) {
		if err := s.checkKinds(app, []types.RecordKind{kind}, types.ReadPermission); err != nil {
			return nil, err
		}
		recs, err := s.store.ReadByIDs(app, kind, uuids)
		if err != nil {
			return nil, err
		}
		return s.redactAll(app, recs), nil
	})
}

// ReadRecords reads one page of records matching the filter, redacted
// for the caller.
func (s *Service) ReadRecords(app string, f types.ReadFilter) *Future[types.ReadPage] {
	return run(func() (types.ReadPage, error) {
		if err := s.checkKinds(app, []types.RecordKind{f.Kind}, types.ReadPermission); err != nil {
			return types.ReadPage{}, err
		}
		page, err := s.store.ReadByFilter(app, f)
		if err != nil {
			return types.ReadPage{}, err
		}
		page.Records = s.redactAll(app, page.Records)
		return page, nil
	})
}

// UpdateRecords updates a batch owned by the calling app. Any unknown
// UUID or ownership mismatch fails the whole batch.
func (s *Service) UpdateRecords(app string, recs []*types.Record) *Future[[]*types.Record] {
	return run(func() ([]*types.Record, error) {
		if err := s.checkKinds(app, recordKinds(recs), types.WritePermission); err != nil {
			return nil, err
		}
		return s.store.UpdateRecords(app, recs)
	})
}

// DeleteUsingFilters deletes matching records and resolves with the
// removed UUIDs per kind.
func (s *Service) DeleteUsingFilters(app string, filters []types.DeleteFilter) *Future[[]types.DeleteResult] {
	return run(func() ([]types.DeleteResult, error) {
		kinds := make([]types.RecordKind, len(filters))
		for i, f := range filters {
			kinds[i] = f.Kind
		}
		if err := s.checkKinds(app, kinds, types.WritePermission); err != nil {
			return nil, err
		}
		return s.store.DeleteUsingFilters(app, filters)
	})
}

// AggregateRecords computes the requested aggregates over the caller's
// visible data.
func (s *Service) AggregateRecords(app string, reqs []types.AggregateRequest) *Future[[]types.AggregateResult] {
	return run(func() ([]types.AggregateResult, error) {
		results := make([]types.AggregateResult, len(reqs))
		for i, req := range reqs {
			if err := req.Validate(); err != nil {
				return nil, err
			}
			source, _ := req.Kind.SourceKind()
			if err := s.checkKinds(app, []types.RecordKind{source}, types.ReadPermission); err != nil {
				return nil, err
			}
			res, err := s.aggregate(app, req)
			if err != nil {
				return nil, err
			}
			results[i] = res
		}
		return results, nil
	})
}

// GetChangeLogToken issues a resumable token at the log position "now"
// for the requested kinds. The caller must be allowed to read every
// requested kind.
func (s *Service) GetChangeLogToken(app string, kinds []types.RecordKind) *Future[string] {
	return run(func() (string, error) {
		if len(kinds) == 0 {
			return "", fmt.Errorf("%w: no record kinds given", types.ErrInvalidArgument)
		}
		if err := s.checkKinds(app, kinds, types.ReadPermission); err != nil {
			return "", err
		}
		pos, err := s.store.ChangeLogPosition()
		if err != nil {
			return "", err
		}
		return types.EncodeChangeToken(pos, kinds), nil
	})
}

// GetChangeLogs returns the changes after the token's position, upserted
// records re-hydrated and redacted, deleted records as UUIDs, plus the
// token for the next call.
func (s *Service) GetChangeLogs(app string, token string) *Future[types.ChangeLogPage] {
	return run(func() (types.ChangeLogPage, error) {
		var page types.ChangeLogPage
		pos, kinds, err := types.DecodeChangeToken(token)
		if err != nil {
			return page, err
		}
		if err := s.checkKinds(app, kinds, types.ReadPermission); err != nil {
			return page, err
		}

		entries, err := s.store.ChangeLogEntriesSince(pos, kinds, changeLogPageSize)
		if err != nil {
			return page, err
		}
		if len(entries) > changeLogPageSize {
			entries = entries[:changeLogPageSize]
			page.HasMore = true
		}

		// Replay the entries in order: a later delete supersedes an
		// earlier upsert of the same record.
		upserted := make(map[types.RecordKind][]string)
		inUpserts := make(map[string]bool)
		next := pos
		for _, e := range entries {
			next = e.Position
			switch e.Operation {
			case types.ChangeUpsert:
				for _, u := range e.UUIDs {
					if !inUpserts[u] {
						inUpserts[u] = true
						upserted[e.Kind] = append(upserted[e.Kind], u)
					}
				}
			case types.ChangeDelete:
				for _, u := range e.UUIDs {
					if inUpserts[u] {
						delete(inUpserts, u)
						upserted[e.Kind] = removeString(upserted[e.Kind], u)
					}
					page.Deletions = append(page.Deletions, types.DeletedRecord{UUID: u, Time: e.Time})
				}
			}
		}

		for kind, uuids := range upserted {
			recs, err := s.store.HydrateRecords(kind, uuids)
			if err != nil {
				return types.ChangeLogPage{}, err
			}
			page.Upserts = append(page.Upserts, s.redactAll(app, recs)...)
		}
		page.NextToken = types.EncodeChangeToken(next, kinds)
		return page, nil
	})
}

// GetCurrentPriority returns the ordered contributor list for a
// category.
func (s *Service) GetCurrentPriority(category types.Category) *Future[[]string] {
	return run(func() ([]string, error) {
		return s.store.CurrentPriority(category)
	})
}

// UpdatePriority replaces the ordered contributor list for a category.
func (s *Service) UpdatePriority(category types.Category, orderedApps []string) *Future[struct{}] {
	return run(func() (struct{}, error) {
		return struct{}{}, s.store.UpdatePriority(category, orderedApps)
	})
}

// QueryAccessLogs returns the audit feed, newest first.
func (s *Service) QueryAccessLogs() *Future[[]types.AccessLogEntry] {
	return run(func() ([]types.AccessLogEntry, error) {
		return s.store.AccessLogs()
	})
}

// GetActivityDates returns the distinct local dates that have records,
// per requested kind.
func (s *Service) GetActivityDates(app string, kinds []types.RecordKind) *Future[map[types.RecordKind][]string] {
	return run(func() (map[types.RecordKind][]string, error) {
		if err := s.checkKinds(app, kinds, types.ReadPermission); err != nil {
			return nil, err
		}
		return s.store.ActivityDates(kinds)
	})
}

// RunExport snapshots the store to dest with log tables scrubbed.
func (s *Service) RunExport(dest string) *Future[struct{}] {
	return run(func() (struct{}, error) {
		return struct{}{}, s.exporter.RunExport(dest)
	})
}

// RunImport restores the store from a snapshot at source.
func (s *Service) RunImport(source string) *Future[struct{}] {
	return run(func() (struct{}, error) {
		return struct{}{}, s.exporter.RunImport(source)
	})
}

// GetDataState returns schema version and export status.
func (s *Service) GetDataState() *Future[types.DataState] {
	return run(func() (types.DataState, error) {
		return s.exporter.DataState()
	})
}

func recordKinds(recs []*types.Record) []types.RecordKind {
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

func removeString(list []string, s string) []string {
	out := list[:0]
	for _, v := range list {
		if v != s {
			out = append(out, v)
		}
	}
	return out
}
