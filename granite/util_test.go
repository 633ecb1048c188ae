// © Copyright 2025-2026, Granite Data - https://granite-data.dev
// SPDX-License-Identifier: Apache-2.0

package granite

import (
	"reflect"
	"testing"
)

func TestBroadcastDims(t *testing.T) {
	cases := []struct {
		a, b, want []int64
	}{
		{[]int64{5, 1}, []int64{1, 3}, []int64{5, 3}},
		{[]int64{4}, []int64{3, 1}, []int64{3, 4}},
		{[]int64{2, 3}, []int64{2, 3}, []int64{2, 3}},
		{[]int64{}, []int64{7}, []int64{7}},
		{[]int64{1}, []int64{1}, []int64{1}},
	}
	for _, tc := range cases {
		got, err := BroadcastDims(tc.a, tc.b)
		if err != nil {
			t.Errorf("BroadcastDims(%v, %v) failed: %v", tc.a, tc.b, err)
			continue
		}
		if !reflect.DeepEqual(got, tc.want) {
			t.Errorf("BroadcastDims(%v, %v) = %v, want %v", tc.a, tc.b, got, tc.want)
		}
	}

	if _, err := BroadcastDims([]int64{2, 3}, []int64{2, 4}); ErrorType(err) != ValueError {
		t.Errorf("expected ValueError for incompatible shapes, got %v", err)
	}
}

func TestConvertBytes(t *testing.T) {
	cases := []struct {
		n    int64
		unit string
		want float64
	}{
		{2048, "KB", 2.0},
		{1048576, "MB", 1.0},
		{512, "B", 512.0},
		{1 << 31, "GB", 2.0},
	}
	for _, tc := range cases {
		got, err := ConvertBytes(tc.n, tc.unit)
		if err != nil {
			t.Errorf("ConvertBytes(%d, %q) failed: %v", tc.n, tc.unit, err)
			continue
		}
		if got != tc.want {
			t.Errorf("ConvertBytes(%d, %q) = %v, want %v", tc.n, tc.unit, got, tc.want)
		}
	}

	if _, err := ConvertBytes(1024, "bogus"); ErrorType(err) != ValueError {
		t.Errorf("expected ValueError for unknown unit, got %v", err)
	}
}

func TestDTypePredicates(t *testing.T) {
	intHandle := &ArrayHandle{dtype: Int64}
	floatHandle := &ArrayHandle{dtype: Float64}
	boolHandle := &ArrayHandle{dtype: Bool}

	if !IsNumeric(intHandle) || !IsNumeric(floatHandle) || IsNumeric(boolHandle) {
		t.Error("IsNumeric misclassifies handles")
	}
	if !IsInt(intHandle) || IsInt(floatHandle) {
		t.Error("IsInt misclassifies handles")
	}
	if !IsFloat(floatHandle) || IsFloat(intHandle) {
		t.Error("IsFloat misclassifies handles")
	}

	// Non-array inputs report false, never an error.
	if IsNumeric("not a handle") || IsInt(42) || IsFloat(&StringsHandle{}) {
		t.Error("non-array inputs must classify as false")
	}
}
