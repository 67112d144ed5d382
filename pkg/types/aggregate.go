package types

import "github.com/shopspring/decimal"

// AggregateKind names one supported aggregate computation. The combination
// rule is fixed per kind: totals sum contributions, heart-rate kinds reduce
// over samples, and the basal-metabolic-rate average resolves same-instant
// conflicts through the priority list before averaging.
type AggregateKind string

const (
	AggregateStepsTotal    AggregateKind = "steps_total"
	AggregateDistanceTotal AggregateKind = "distance_total"
	AggregateCaloriesTotal AggregateKind = "calories_total"
	AggregateHeartRateMin  AggregateKind = "heart_rate_min"
	AggregateHeartRateMax  AggregateKind = "heart_rate_max"
	AggregateHeartRateAvg  AggregateKind = "heart_rate_avg"
	AggregateBMRAvg        AggregateKind = "bmr_avg"
)

// aggregateSources maps each aggregate kind to the record kind it reads.
var aggregateSources = map[AggregateKind]RecordKind{
	AggregateStepsTotal:    KindSteps,
	AggregateDistanceTotal: KindDistance,
	AggregateCaloriesTotal: KindActiveCalories,
	AggregateHeartRateMin:  KindHeartRate,
	AggregateHeartRateMax:  KindHeartRate,
	AggregateHeartRateAvg:  KindHeartRate,
	AggregateBMRAvg:        KindBasalMetabolicRate,
}

// SourceKind returns the record kind an aggregate reads, and whether the
// aggregate kind is recognized.
func (a AggregateKind) SourceKind() (RecordKind, bool) {
	k, ok := aggregateSources[a]
	return k, ok
}

// AggregateRequest asks for one aggregate over a time range, optionally
// restricted to an origin allow-list.
type AggregateRequest struct {
	Kind    AggregateKind
	Range   TimeRange
	Origins []string
}

// Validate checks the aggregate kind and range.
func (r AggregateRequest) Validate() error {
	if _, ok := r.Kind.SourceKind(); !ok {
		return ErrUnsupportedType
	}
	return r.Range.Validate()
}

// AggregateResult is one computed aggregate. Count is the number of
// contributing records; DataOrigins lists the apps that contributed.
// A zero Count means no data matched and Value is zero.
type AggregateResult struct {
	Kind        AggregateKind
	Value       decimal.Decimal
	Count       int64
	DataOrigins []string
}
