// © Copyright 2025-2026, Granite Data - https://granite-data.dev
// SPDX-License-Identifier: Apache-2.0

package granite

import "testing"

func TestParseDType(t *testing.T) {
	for _, name := range []string{"int64", "uint64", "uint8", "float64", "bool", "bigint"} {
		if _, err := ParseDType(name); err != nil {
			t.Errorf("ParseDType(%q) failed: %v", name, err)
		}
	}
	if _, err := ParseDType("complex128"); ErrorType(err) != ProtocolError {
		t.Errorf("expected ProtocolError for unknown dtype, got %v", err)
	}
}

func TestItemSize(t *testing.T) {
	cases := map[DType]int{
		Int64: 8, UInt64: 8, Float64: 8,
		UInt8: 1, Bool: 1,
		BigInt: 0,
	}
	for dt, want := range cases {
		if got := dt.ItemSize(); got != want {
			t.Errorf("ItemSize(%s) = %d, want %d", dt, got, want)
		}
	}
}

func TestDTypeClassification(t *testing.T) {
	if !IsIntDType(Int64) || !IsIntDType(UInt64) || !IsIntDType(UInt8) || !IsIntDType(BigInt) {
		t.Error("integral dtypes misclassified")
	}
	if IsIntDType(Float64) || IsIntDType(Bool) {
		t.Error("non-integral dtype classified as int")
	}
	if !IsFloatDType(Float64) || IsFloatDType(Int64) {
		t.Error("float classification wrong")
	}
	if !IsNumericDType(Int64) || !IsNumericDType(Float64) || IsNumericDType(Bool) {
		t.Error("numeric classification wrong")
	}
}

func TestFormatScalar(t *testing.T) {
	cases := []struct {
		dt   DType
		v    any
		want string
	}{
		{Int64, int64(-7), "-7"},
		{Int64, 42, "42"},
		{Int64, float64(3), "3"},
		{UInt64, uint64(18446744073709551615), "18446744073709551615"},
		{Float64, 0.5, "0.50000000000000000"},
		{Float64, int64(2), "2.00000000000000000"},
		{Bool, true, "True"},
		{Bool, false, "False"},
		{Bool, int64(1), "True"},
	}
	for _, tc := range cases {
		got, err := FormatScalar(tc.dt, tc.v)
		if err != nil {
			t.Errorf("FormatScalar(%s, %v) failed: %v", tc.dt, tc.v, err)
			continue
		}
		if got != tc.want {
			t.Errorf("FormatScalar(%s, %v) = %q, want %q", tc.dt, tc.v, got, tc.want)
		}
	}

	if _, err := FormatScalar(Int64, 1.5); ErrorType(err) != TypeError {
		t.Errorf("expected TypeError for fractional int, got %v", err)
	}
	if _, err := FormatScalar(Float64, "x"); ErrorType(err) != TypeError {
		t.Errorf("expected TypeError for string scalar, got %v", err)
	}
}

func TestParseBoolScalar(t *testing.T) {
	for s, want := range map[string]bool{
		"True": true, "true": true, "1": true,
		"False": false, "false": false, "0": false,
	} {
		got, err := ParseBoolScalar(s)
		if err != nil || got != want {
			t.Errorf("ParseBoolScalar(%q) = %v, %v", s, got, err)
		}
	}
	if _, err := ParseBoolScalar("yes"); ErrorType(err) != ProtocolError {
		t.Errorf("expected ProtocolError, got %v", err)
	}
}
