package types

// Category groups record kinds for permission and priority purposes.
type Category string

const (
	CategoryActivity Category = "activity"
	CategoryVitals   Category = "vitals"
	CategoryBody     Category = "body"
)

// kindCategories maps each record kind to its category.
var kindCategories = map[RecordKind]Category{
	KindSteps:              CategoryActivity,
	KindDistance:           CategoryActivity,
	KindActiveCalories:     CategoryActivity,
	KindExerciseSession:    CategoryActivity,
	KindHeartRate:          CategoryVitals,
	KindBasalMetabolicRate: CategoryBody,
}

// CategoryOf returns the category of a record kind.
func CategoryOf(k RecordKind) Category { return kindCategories[k] }

// KindsInCategory returns the kinds belonging to a category, in AllKinds
// order.
func KindsInCategory(c Category) []RecordKind {
	var kinds []RecordKind
	for _, k := range AllKinds {
		if kindCategories[k] == c {
			kinds = append(kinds, k)
		}
	}
	return kinds
}

// AppInfo identifies a contributing application. Rows are created lazily
// on first contribution and never hard-deleted while records reference
// them.
type AppInfo struct {
	ID          int64
	PackageName string
}
