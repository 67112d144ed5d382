package types

import (
	"errors"
	"testing"
)

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr error
	}{
		{"valid", Config{DataDir: "/tmp/data"}, nil},
		{"empty data dir", Config{}, ErrDataDirEmpty},
		{"negative retention", Config{DataDir: "/tmp/data", RetentionDays: -1}, ErrRetentionInvalid},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.cfg.Validate(); !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestEffectiveRetentionDays(t *testing.T) {
	if got := (Config{DataDir: "x"}).EffectiveRetentionDays(); got != DefaultRetentionDays {
		t.Errorf("zero retention = %d, want default %d", got, DefaultRetentionDays)
	}
	if got := (Config{DataDir: "x", RetentionDays: 7}).EffectiveRetentionDays(); got != 7 {
		t.Errorf("explicit retention = %d, want 7", got)
	}
}

func TestReadFilterValidate(t *testing.T) {
	if err := (ReadFilter{Kind: "nope"}).Validate(); !errors.Is(err, ErrUnsupportedType) {
		t.Errorf("unknown kind = %v, want ErrUnsupportedType", err)
	}
	if err := (ReadFilter{Kind: KindSteps, PageSize: MaxPageSize + 1}).Validate(); !errors.Is(err, ErrInvalidFilter) {
		t.Errorf("oversized page = %v, want ErrInvalidFilter", err)
	}
	if got := (ReadFilter{Kind: KindSteps}).EffectivePageSize(); got != DefaultPageSize {
		t.Errorf("EffectivePageSize() = %d, want %d", got, DefaultPageSize)
	}
}
