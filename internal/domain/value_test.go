package domain

import (
	"errors"
	"testing"
	"time"
)

func TestScalarRender(t *testing.T) {
	ts := time.Date(2026, 3, 14, 9, 26, 53, 589793000, time.UTC)

	tests := []struct {
		name   string
		scalar Scalar
		want   any
	}{
		{"string", StringValue("MITx"), "MITx"},
		{"number", NumberValue(42.5), 42.5},
		{"bool", BoolValue(true), true},
		{"time", TimeValue(ts), "2026-03-14T09:26:53.589793"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.scalar.Render(); got != tt.want {
				t.Errorf("Render() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestScalarRenderNormalizesZone(t *testing.T) {
	zone := time.FixedZone("KST", 9*3600)
	local := time.Date(2026, 1, 1, 9, 0, 0, 0, zone)
	if got := TimeValue(local).Render(); got != "2026-01-01T00:00:00.000000" {
		t.Errorf("Render() = %v, want UTC rendering", got)
	}
}

func TestNewRangeNeedsBound(t *testing.T) {
	if _, err := NewRange(nil, nil); !errors.Is(err, ErrInvalidValue) {
		t.Fatalf("NewRange(nil, nil) error = %v, want ErrInvalidValue", err)
	}

	lo := NumberValue(1)
	r, err := NewRange(&lo, nil)
	if err != nil {
		t.Fatalf("NewRange: %v", err)
	}
	if r.Lower() == nil || r.Upper() != nil {
		t.Error("expected half-open range with lower bound only")
	}
}

func TestValueVariantsExclusive(t *testing.T) {
	tests := []struct {
		name                      string
		value                     Value
		isScalar, isRange, isList bool
	}{
		{"scalar", FromScalar(StringValue("x")), true, false, false},
		{"range", FromRange(After(NumberValue(3))), false, true, false},
		{"list", FromList(StringValue("a"), StringValue("b")), false, false, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.value.IsScalar() != tt.isScalar ||
				tt.value.IsRange() != tt.isRange ||
				tt.value.IsList() != tt.isList {
				t.Errorf("variant flags = %v/%v/%v, want %v/%v/%v",
					tt.value.IsScalar(), tt.value.IsRange(), tt.value.IsList(),
					tt.isScalar, tt.isRange, tt.isList)
			}
			if err := tt.value.Validate("f"); err != nil {
				t.Errorf("Validate: %v", err)
			}
		})
	}
}

func TestValueValidate(t *testing.T) {
	tests := []struct {
		name  string
		value Value
	}{
		{"zero value", Value{}},
		{"empty list", FromList()},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.value.Validate("org")
			if !errors.Is(err, ErrInvalidValue) {
				t.Fatalf("Validate error = %v, want ErrInvalidValue", err)
			}
		})
	}
}
