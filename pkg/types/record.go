package types

import "time"

// RecordKind identifies one supported record type. The set is closed;
// operations on any other value fail with ErrUnsupportedType.
type RecordKind string

const (
	KindSteps              RecordKind = "steps"
	KindDistance           RecordKind = "distance"
	KindActiveCalories     RecordKind = "active_calories"
	KindBasalMetabolicRate RecordKind = "basal_metabolic_rate"
	KindHeartRate          RecordKind = "heart_rate"
	KindExerciseSession    RecordKind = "exercise_session"
)

// AllKinds lists every supported record kind in stable order.
var AllKinds = []RecordKind{
	KindSteps,
	KindDistance,
	KindActiveCalories,
	KindBasalMetabolicRate,
	KindHeartRate,
	KindExerciseSession,
}

// validKinds is the set of recognized record kinds.
var validKinds = map[RecordKind]bool{
	KindSteps:              true,
	KindDistance:           true,
	KindActiveCalories:     true,
	KindBasalMetabolicRate: true,
	KindHeartRate:          true,
	KindExerciseSession:    true,
}

// Valid reports whether k is a supported record kind.
func (k RecordKind) Valid() bool { return validKinds[k] }

// Instant reports whether records of this kind cover a single instant
// rather than an interval. Instant records store their time in the start
// columns with the end equal to the start.
func (k RecordKind) Instant() bool { return k == KindBasalMetabolicRate }

// Record is one typed health-data entry. Exactly one payload pointer is
// non-nil and it must match Kind; Validate enforces this.
//
// UUID and LastModified are server-assigned on insert. ClientRecordID is
// optional; when present, (AppID, ClientRecordID) is unique and a later
// insert with the same pair and a version >= the stored one replaces the
// record in place.
type Record struct {
	UUID                string
	AppID               string
	ClientRecordID      string
	ClientRecordVersion int64
	Kind                RecordKind

	StartTime       time.Time
	EndTime         time.Time
	StartZoneOffset int // seconds east of UTC
	EndZoneOffset   int
	LastModified    time.Time

	Steps              *StepsPayload
	Distance           *DistancePayload
	ActiveCalories     *ActiveCaloriesPayload
	BasalMetabolicRate *BasalMetabolicRatePayload
	HeartRate          *HeartRatePayload
	ExerciseSession    *ExerciseSessionPayload
}

// StepsPayload holds a step count over the record interval.
type StepsPayload struct {
	Count int64
}

// DistancePayload holds distance covered in meters.
type DistancePayload struct {
	Meters float64
}

// ActiveCaloriesPayload holds active energy burned in kilocalories.
type ActiveCaloriesPayload struct {
	Energy float64
}

// BasalMetabolicRatePayload holds basal metabolic rate in watts at an
// instant.
type BasalMetabolicRatePayload struct {
	Watts float64
}

// HeartRateSample is one timestamped sub-measurement of a heart-rate
// record. Samples are owned by their parent record and deleted with it.
type HeartRateSample struct {
	Time time.Time
	BPM  int64
}

// HeartRatePayload holds the series samples of a heart-rate record.
type HeartRatePayload struct {
	Samples []HeartRateSample
}

// RouteLocation is one geopoint of an exercise route.
type RouteLocation struct {
	Time      time.Time
	Latitude  float64
	Longitude float64
}

// ExerciseSessionPayload describes a workout session. Route carries the
// geopoints; HasRoute stays true after redaction clears Route so callers
// can distinguish "had a route but unauthorized" from "never had one".
type ExerciseSessionPayload struct {
	SessionType string
	Title       string
	Notes       string
	HasRoute    bool
	Route       []RouteLocation
}

// payload returns the payload pointer matching r.Kind, or nil.
func (r *Record) payload() any {
	switch r.Kind {
	case KindSteps:
		if r.Steps != nil {
			return r.Steps
		}
	case KindDistance:
		if r.Distance != nil {
			return r.Distance
		}
	case KindActiveCalories:
		if r.ActiveCalories != nil {
			return r.ActiveCalories
		}
	case KindBasalMetabolicRate:
		if r.BasalMetabolicRate != nil {
			return r.BasalMetabolicRate
		}
	case KindHeartRate:
		if r.HeartRate != nil {
			return r.HeartRate
		}
	case KindExerciseSession:
		if r.ExerciseSession != nil {
			return r.ExerciseSession
		}
	}
	return nil
}

// Validate checks that the record is well-formed: a supported kind, a
// matching payload, an owning app, and a sane time range.
func (r *Record) Validate() error {
	if !r.Kind.Valid() {
		return ErrUnsupportedType
	}
	if r.AppID == "" {
		return ErrInvalidArgument
	}
	if r.payload() == nil {
		return ErrInvalidArgument
	}
	if r.StartTime.IsZero() {
		return ErrInvalidArgument
	}
	if !r.Kind.Instant() && r.EndTime.Before(r.StartTime) {
		return ErrInvalidArgument
	}
	return nil
}

// Clone returns a deep copy of the record. Redaction operates on clones so
// stored rows are never mutated.
func (r *Record) Clone() *Record {
	c := *r
	switch {
	case r.Steps != nil:
		p := *r.Steps
		c.Steps = &p
	case r.Distance != nil:
		p := *r.Distance
		c.Distance = &p
	case r.ActiveCalories != nil:
		p := *r.ActiveCalories
		c.ActiveCalories = &p
	case r.BasalMetabolicRate != nil:
		p := *r.BasalMetabolicRate
		c.BasalMetabolicRate = &p
	case r.HeartRate != nil:
		p := HeartRatePayload{Samples: append([]HeartRateSample(nil), r.HeartRate.Samples...)}
		c.HeartRate = &p
	case r.ExerciseSession != nil:
		p := *r.ExerciseSession
		p.Route = append([]RouteLocation(nil), r.ExerciseSession.Route...)
		c.ExerciseSession = &p
	}
	return &c
}
