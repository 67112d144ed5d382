package types

// FeatureFlags are opaque booleans consumed as external configuration.
type FeatureFlags struct {
	// ExerciseRoutesEnabled gates insertion of exercise routes. When off,
	// inserting a session that carries a route fails with
	// ErrFeatureDisabled.
	ExerciseRoutesEnabled bool `json:"exercise_routes_enabled" yaml:"exercise_routes_enabled"`

	// BackgroundReadEnabled gates the route permission for non-owning
	// readers. When off, only the owning app ever sees route content.
	BackgroundReadEnabled bool `json:"background_read_enabled" yaml:"background_read_enabled"`
}

// DefaultRetentionDays is how long change-log and access-log entries are
// kept before retention cleanup removes them.
const DefaultRetentionDays = 30

// Config holds the parameters for opening a store.
type Config struct {
	DataDir string `json:"data_dir" yaml:"data_dir"`

	// RetentionDays bounds the age of change/access-log entries. Zero
	// selects DefaultRetentionDays.
	RetentionDays int `json:"retention_days" yaml:"retention_days"`

	Flags FeatureFlags `json:"flags" yaml:"flags"`

	// ExportDestination is the default destination URI (a file path) for
	// scheduled exports. Preserved across an import swap.
	ExportDestination string `json:"export_destination" yaml:"export_destination"`
}

// Validate checks that the Config is well-formed. It returns a sentinel
// error from this package on failure.
func (c Config) Validate() error {
	if c.DataDir == "" {
		return ErrDataDirEmpty
	}
	if c.RetentionDays < 0 {
		return ErrRetentionInvalid
	}
	return nil
}

// EffectiveRetentionDays returns RetentionDays with the default applied.
func (c Config) EffectiveRetentionDays() int {
	if c.RetentionDays == 0 {
		return DefaultRetentionDays
	}
	return c.RetentionDays
}
