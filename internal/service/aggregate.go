package service

import (
	"github.com/shopspring/decimal"

	"github.com/openvitals/healthstore/pkg/types"
)

// Aggregate combination rules are fixed per aggregate kind: totals sum
// every contribution, heart-rate kinds reduce over the series samples,
// and the basal-metabolic-rate average resolves same-instant
// contributions from different apps through the priority list before
// averaging. The list is only a tie-break; it never reorders the
// numeric rule itself.

func (s *Service) aggregate(app string, req types.AggregateRequest) (types.AggregateResult, error) {
	source, _ := req.Kind.SourceKind()
	recs, err := s.store.ReadForAggregate(app, source, req.Range, req.Origins)
	if err != nil {
		return types.AggregateResult{}, err
	}

	res := types.AggregateResult{Kind: req.Kind}
	res.DataOrigins = distinctOrigins(recs)
	res.Count = int64(len(recs))

	switch req.Kind {
	case types.AggregateStepsTotal:
		total := decimal.Zero
		for _, r := range recs {
			total = total.Add(decimal.NewFromInt(r.Steps.Count))
		}
		res.Value = total
	case types.AggregateDistanceTotal:
		total := decimal.Zero
		for _, r := range recs {
			total = total.Add(decimal.NewFromFloat(r.Distance.Meters))
		}
		res.Value = total
	case types.AggregateCaloriesTotal:
		total := decimal.Zero
		for _, r := range recs {
			total = total.Add(decimal.NewFromFloat(r.ActiveCalories.Energy))
		}
		res.Value = total
	case types.AggregateHeartRateMin, types.AggregateHeartRateMax, types.AggregateHeartRateAvg:
		res.Value = reduceHeartRate(req.Kind, recs)
	case types.AggregateBMRAvg:
		value, err := s.averageBasalRate(recs)
		if err != nil {
			return types.AggregateResult{}, err
		}
		res.Value = value
	}
	return res, nil
}

func reduceHeartRate(kind types.AggregateKind, recs []*types.Record) decimal.Decimal {
	var count int64
	sum := decimal.Zero
	var min, max int64
	first := true
	for _, r := range recs {
		for _, sample := range r.HeartRate.Samples {
			if first {
				min, max = sample.BPM, sample.BPM
				first = false
			}
			if sample.BPM < min {
				min = sample.BPM
			}
			if sample.BPM > max {
				max = sample.BPM
			}
			sum = sum.Add(decimal.NewFromInt(sample.BPM))
			count++
		}
	}
	if count == 0 {
		return decimal.Zero
	}
	switch kind {
	case types.AggregateHeartRateMin:
		return decimal.NewFromInt(min)
	case types.AggregateHeartRateMax:
		return decimal.NewFromInt(max)
	default:
		return sum.Div(decimal.NewFromInt(count))
	}
}

// averageBasalRate averages basal-rate samples after resolving
// same-instant contributions: when several apps report for the same
// instant, the one ranked highest in the body-category priority list
// wins and the others are dropped.
func (s *Service) averageBasalRate(recs []*types.Record) (decimal.Decimal, error) {
	if len(recs) == 0 {
		return decimal.Zero, nil
	}
	priority, err := s.store.CurrentPriority(types.CategoryOf(types.KindBasalMetabolicRate))
	if err != nil {
		return decimal.Zero, err
	}
	rank := make(map[string]int, len(priority))
	for i, appID := range priority {
		rank[appID] = i
	}
	rankOf := func(appID string) int {
		if r, ok := rank[appID]; ok {
			return r
		}
		return len(priority)
	}

	chosen := make(map[int64]*types.Record)
	for _, r := range recs {
		instant := r.StartTime.UnixMilli()
		cur, ok := chosen[instant]
		if !ok || rankOf(r.AppID) < rankOf(cur.AppID) {
			chosen[instant] = r
		}
	}

	sum := decimal.Zero
	for _, r := range chosen {
		sum = sum.Add(decimal.NewFromFloat(r.BasalMetabolicRate.Watts))
	}
	return sum.Div(decimal.NewFromInt(int64(len(chosen)))), nil
}

func distinctOrigins(recs []*types.Record) []string {
	seen := make(map[string]bool)
	var origins []string
	for _, r := range recs {
		if !seen[r.AppID] {
			seen[r.AppID] = true
			origins = append(origins, r.AppID)
		}
	}
	return origins
}
