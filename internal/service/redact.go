package service

import "github.com/openvitals/healthstore/pkg/types"

// The redaction gate runs after every read path. Direct reads and
// change-log reads both funnel through redactAll before records leave
// the engine.

// redactAll returns copies of recs with caller-unauthorized sub-fields
// cleared. Stored records are never mutated.
func (s *Service) redactAll(app string, recs []*types.Record) []*types.Record {
	out := make([]*types.Record, len(recs))
	for i, r := range recs {
		out[i] = s.redact(app, r)
	}
	return out
}

// redact clears route geodata on exercise sessions unless the caller
// owns the record or holds the route permission (itself gated by the
// background-read flag). The HasRoute marker survives so callers can
// tell "had a route but unauthorized" from "never had one".
func (s *Service) redact(app string, r *types.Record) *types.Record {
	if r.Kind != types.KindExerciseSession || r.ExerciseSession == nil {
		return r
	}
	if r.AppID == app {
		return r
	}
	routeAllowed := s.store.Config().Flags.BackgroundReadEnabled &&
		s.perms.HasPermission(app, types.PermissionReadExerciseRoutes)
	if routeAllowed {
		return r
	}
	c := r.Clone()
	c.ExerciseSession.Route = nil
	return c
}
