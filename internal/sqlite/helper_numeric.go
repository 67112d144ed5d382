package sqlite

import (
	"database/sql"
	"fmt"

	"github.com/openvitals/healthstore/pkg/types"
)

// Flat numeric kinds: steps, distance, active calories, basal metabolic
// rate. Each stores a single value column and has no child tables.

type stepsHelper struct{}

func (stepsHelper) Kind() types.RecordKind { return types.KindSteps }
func (stepsHelper) Table() string          { return types.RecordTableName(types.KindSteps) }

func (stepsHelper) PayloadColumns() []column {
	return []column{{name: "count", sqlType: "INTEGER", notNull: true}}
}

func (stepsHelper) EncodePayload(r *types.Record) ([]any, error) {
	if r.Steps == nil {
		return nil, fmt.Errorf("%w: steps payload missing", types.ErrInvalidArgument)
	}
	if r.Steps.Count < 0 {
		return nil, fmt.Errorf("%w: negative step count", types.ErrInvalidArgument)
	}
	return []any{r.Steps.Count}, nil
}

func (stepsHelper) DecodePayload(r *types.Record, vals []any) error {
	count, err := toInt64(vals[0])
	if err != nil {
		return err
	}
	r.Steps = &types.StepsPayload{Count: count}
	return nil
}

func (stepsHelper) SavePeripherals(*sql.Tx, int64, *types.Record) error  { return nil }
func (stepsHelper) LoadPeripherals(queryer, int64, *types.Record) error { return nil }
func (stepsHelper) ChildDDL() []string                                  { return nil }

type distanceHelper struct{}

func (distanceHelper) Kind() types.RecordKind { return types.KindDistance }
func (distanceHelper) Table() string          { return types.RecordTableName(types.KindDistance) }

func (distanceHelper) PayloadColumns() []column {
	return []column{{name: "distance_meters", sqlType: "REAL", notNull: true}}
}

func (distanceHelper) EncodePayload(r *types.Record) ([]any, error) {
	if r.Distance == nil {
		return nil, fmt.Errorf("%w: distance payload missing", types.ErrInvalidArgument)
	}
	if r.Distance.Meters < 0 {
		return nil, fmt.Errorf("%w: negative distance", types.ErrInvalidArgument)
	}
	return []any{r.Distance.Meters}, nil
}

func (distanceHelper) DecodePayload(r *types.Record, vals []any) error {
	meters, err := toFloat64(vals[0])
	if err != nil {
		return err
	}
	r.Distance = &types.DistancePayload{Meters: meters}
	return nil
}

func (distanceHelper) SavePeripherals(*sql.Tx, int64, *types.Record) error  { return nil }
func (distanceHelper) LoadPeripherals(queryer, int64, *types.Record) error { return nil }
func (distanceHelper) ChildDDL() []string                                  { return nil }

type activeCaloriesHelper struct{}

func (activeCaloriesHelper) Kind() types.RecordKind { return types.KindActiveCalories }
func (activeCaloriesHelper) Table() string {
	return types.RecordTableName(types.KindActiveCalories)
}

func (activeCaloriesHelper) PayloadColumns() []column {
	return []column{{name: "energy_kcal", sqlType: "REAL", notNull: true}}
}

func (activeCaloriesHelper) EncodePayload(r *types.Record) ([]any, error) {
	if r.ActiveCalories == nil {
		return nil, fmt.Errorf("%w: active calories payload missing", types.ErrInvalidArgument)
	}
	if r.ActiveCalories.Energy < 0 {
		return nil, fmt.Errorf("%w: negative energy", types.ErrInvalidArgument)
	}
	return []any{r.ActiveCalories.Energy}, nil
}

func (activeCaloriesHelper) DecodePayload(r *types.Record, vals []any) error {
	energy, err := toFloat64(vals[0])
	if err != nil {
		return err
	}
	r.ActiveCalories = &types.ActiveCaloriesPayload{Energy: energy}
	return nil
}

func (activeCaloriesHelper) SavePeripherals(*sql.Tx, int64, *types.Record) error  { return nil }
func (activeCaloriesHelper) LoadPeripherals(queryer, int64, *types.Record) error { return nil }
func (activeCaloriesHelper) ChildDDL() []string                                  { return nil }

type basalMetabolicRateHelper struct{}

func (basalMetabolicRateHelper) Kind() types.RecordKind { return types.KindBasalMetabolicRate }
func (basalMetabolicRateHelper) Table() string {
	return types.RecordTableName(types.KindBasalMetabolicRate)
}

func (basalMetabolicRateHelper) PayloadColumns() []column {
	return []column{{name: "basal_rate_watts", sqlType: "REAL", notNull: true}}
}

func (basalMetabolicRateHelper) EncodePayload(r *types.Record) ([]any, error) {
	if r.BasalMetabolicRate == nil {
		return nil, fmt.Errorf("%w: basal metabolic rate payload missing", types.ErrInvalidArgument)
	}
	if r.BasalMetabolicRate.Watts < 0 {
		return nil, fmt.Errorf("%w: negative basal rate", types.ErrInvalidArgument)
	}
	return []any{r.BasalMetabolicRate.Watts}, nil
}

func (basalMetabolicRateHelper) DecodePayload(r *types.Record, vals []any) error {
	watts, err := toFloat64(vals[0])
	if err != nil {
		return err
	}
	r.BasalMetabolicRate = &types.BasalMetabolicRatePayload{Watts: watts}
	return nil
}

func (basalMetabolicRateHelper) SavePeripherals(*sql.Tx, int64, *types.Record) error  { return nil }
func (basalMetabolicRateHelper) LoadPeripherals(queryer, int64, *types.Record) error { return nil }
func (basalMetabolicRateHelper) ChildDDL() []string                                  { return nil }
