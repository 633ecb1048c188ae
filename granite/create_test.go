// © Copyright 2025-2026, Granite Data - https://granite-data.dev
// SPDX-License-Identifier: Apache-2.0

package granite_test

import (
	"context"
	"math"
	"reflect"
	"testing"

	"github.com/apache/arrow-go/v18/arrow/array"

	"github.com/granite-data/granite-go/conformance"
	"github.com/granite-data/granite-go/granite"
)

func newTestClient(t *testing.T) *granite.Client {
	t.Helper()
	return granite.NewClient(conformance.NewServer(42).Local())
}

func fetchInt64s(t *testing.T, c *granite.Client, h *granite.ArrayHandle) []int64 {
	t.Helper()
	arr, err := c.Fetch(context.Background(), h)
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	defer arr.Release()
	vals := arr.(*array.Int64)
	out := make([]int64, vals.Len())
	copy(out, vals.Int64Values())
	return out
}

func fetchFloat64s(t *testing.T, c *granite.Client, h *granite.ArrayHandle) []float64 {
	t.Helper()
	arr, err := c.Fetch(context.Background(), h)
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	defer arr.Release()
	vals := arr.(*array.Float64)
	out := make([]float64, vals.Len())
	copy(out, vals.Float64Values())
	return out
}

func TestArrayRoundTrip(t *testing.T) {
	c := newTestClient(t)
	ctx := context.Background()

	t.Run("int64", func(t *testing.T) {
		in := []int64{3, -1, 4, 1, -5}
		obj, err := c.Array(ctx, in)
		if err != nil {
			t.Fatalf("Array failed: %v", err)
		}
		h := obj.(*granite.ArrayHandle)
		if h.DType() != granite.Int64 || h.Size() != 5 || h.NDim() != 1 {
			t.Errorf("unexpected handle metadata: dtype=%s size=%d ndim=%d", h.DType(), h.Size(), h.NDim())
		}
		if got := fetchInt64s(t, c, h); !reflect.DeepEqual(got, in) {
			t.Errorf("round trip mismatch: %v != %v", got, in)
		}
	})

	t.Run("float64", func(t *testing.T) {
		in := []float64{0.25, -1.5, math.Inf(-1)}
		obj, err := c.Array(ctx, in)
		if err != nil {
			t.Fatalf("Array failed: %v", err)
		}
		if got := fetchFloat64s(t, c, obj.(*granite.ArrayHandle)); !reflect.DeepEqual(got, in) {
			t.Errorf("round trip mismatch: %v != %v", got, in)
		}
	})

	t.Run("uint8", func(t *testing.T) {
		in := []uint8{0, 1, 255}
		obj, err := c.Array(ctx, in)
		if err != nil {
			t.Fatalf("Array failed: %v", err)
		}
		arr, err := c.Fetch(ctx, obj.(*granite.ArrayHandle))
		if err != nil {
			t.Fatalf("Fetch failed: %v", err)
		}
		defer arr.Release()
		vals := arr.(*array.Uint8)
		for i, want := range in {
			if vals.Value(i) != want {
				t.Errorf("element %d: %d != %d", i, vals.Value(i), want)
			}
		}
	})

	t.Run("bool", func(t *testing.T) {
		in := []bool{true, false, true}
		obj, err := c.Array(ctx, in)
		if err != nil {
			t.Fatalf("Array failed: %v", err)
		}
		arr, err := c.Fetch(ctx, obj.(*granite.ArrayHandle))
		if err != nil {
			t.Fatalf("Fetch failed: %v", err)
		}
		defer arr.Release()
		vals := arr.(*array.Boolean)
		for i, want := range in {
			if vals.Value(i) != want {
				t.Errorf("element %d: %v != %v", i, vals.Value(i), want)
			}
		}
	})

	t.Run("strings", func(t *testing.T) {
		in := []string{"alpha", "", "granite", "z"}
		obj, err := c.Array(ctx, in)
		if err != nil {
			t.Fatalf("Array failed: %v", err)
		}
		sh := obj.(*granite.StringsHandle)
		if sh.Size() != int64(len(in)) {
			t.Errorf("size = %d, want %d", sh.Size(), len(in))
		}
		arr, err := c.FetchStrings(ctx, sh)
		if err != nil {
			t.Fatalf("FetchStrings failed: %v", err)
		}
		defer arr.Release()
		for i, want := range in {
			if arr.Value(i) != want {
				t.Errorf("element %d: %q != %q", i, arr.Value(i), want)
			}
		}
	})

	t.Run("handle passthrough", func(t *testing.T) {
		obj, err := c.Array(ctx, []int64{1})
		if err != nil {
			t.Fatalf("Array failed: %v", err)
		}
		again, err := c.Array(ctx, obj)
		if err != nil {
			t.Fatalf("Array(handle) failed: %v", err)
		}
		if again != obj {
			t.Error("passing a handle through Array must be the identity")
		}
	})

	t.Run("unsupported input", func(t *testing.T) {
		_, err := c.Array(ctx, 42)
		if granite.ErrorType(err) != granite.TypeError {
			t.Errorf("expected TypeError, got %v", err)
		}
	})
}

func TestZerosOnes(t *testing.T) {
	c := newTestClient(t)
	ctx := context.Background()

	z, err := c.Zeros(ctx, 4, granite.Int64)
	if err != nil {
		t.Fatalf("Zeros failed: %v", err)
	}
	if got := fetchInt64s(t, c, z); !reflect.DeepEqual(got, []int64{0, 0, 0, 0}) {
		t.Errorf("Zeros content: %v", got)
	}

	o, err := c.Ones(ctx, 3, granite.Float64)
	if err != nil {
		t.Fatalf("Ones failed: %v", err)
	}
	if got := fetchFloat64s(t, c, o); !reflect.DeepEqual(got, []float64{1, 1, 1}) {
		t.Errorf("Ones content: %v", got)
	}

	zl, err := c.ZerosLike(ctx, o)
	if err != nil {
		t.Fatalf("ZerosLike failed: %v", err)
	}
	if zl.DType() != granite.Float64 || zl.Size() != 3 {
		t.Errorf("ZerosLike metadata: dtype=%s size=%d", zl.DType(), zl.Size())
	}

	if _, err := c.Zeros(ctx, -1, granite.Int64); granite.ErrorType(err) != granite.ValueError {
		t.Errorf("expected ValueError for negative size, got %v", err)
	}
	if _, err := c.Zeros(ctx, 4, granite.BigInt); granite.ErrorType(err) != granite.TypeError {
		t.Errorf("expected TypeError for bigint zeros, got %v", err)
	}
}

func TestArange(t *testing.T) {
	c := newTestClient(t)
	ctx := context.Background()

	cases := []struct {
		args []int64
		want []int64
	}{
		{[]int64{5}, []int64{0, 1, 2, 3, 4}},
		{[]int64{2, 6}, []int64{2, 3, 4, 5}},
		{[]int64{0, 10, 3}, []int64{0, 3, 6, 9}},
		{[]int64{5, 0, -1}, []int64{5, 4, 3, 2, 1}},
		{[]int64{10, 0, -3}, []int64{10, 7, 4, 1}},
	}
	for _, tc := range cases {
		h, err := c.Arange(ctx, tc.args...)
		if err != nil {
			t.Errorf("Arange(%v) failed: %v", tc.args, err)
			continue
		}
		if got := fetchInt64s(t, c, h); !reflect.DeepEqual(got, tc.want) {
			t.Errorf("Arange(%v) = %v, want %v", tc.args, got, tc.want)
		}
	}

	if _, err := c.Arange(ctx, 0, 10, 0); granite.ErrorType(err) != granite.ZeroDivisionError {
		t.Errorf("expected ZeroDivisionError for zero stride, got %v", err)
	}
	if _, err := c.Arange(ctx); granite.ErrorType(err) != granite.TypeError {
		t.Errorf("expected TypeError for no arguments, got %v", err)
	}
}

func TestLinspace(t *testing.T) {
	c := newTestClient(t)
	ctx := context.Background()

	h, err := c.Linspace(ctx, 0, 1, 5)
	if err != nil {
		t.Fatalf("Linspace failed: %v", err)
	}
	got := fetchFloat64s(t, c, h)
	want := []float64{0, 0.25, 0.5, 0.75, 1}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Linspace(0, 1, 5) = %v, want %v", got, want)
	}

	single, err := c.Linspace(ctx, 3.5, 9.0, 1)
	if err != nil {
		t.Fatalf("Linspace failed: %v", err)
	}
	if got := fetchFloat64s(t, c, single); got[0] != 3.5 {
		t.Errorf("single-point linspace = %v", got)
	}
}

func TestRandomCreation(t *testing.T) {
	c := newTestClient(t)
	ctx := context.Background()

	t.Run("randint bounds", func(t *testing.T) {
		h, err := c.Randint(ctx, 0, 10, 1000, granite.Int64)
		if err != nil {
			t.Fatalf("Randint failed: %v", err)
		}
		for _, v := range fetchInt64s(t, c, h) {
			if v < 0 || v >= 10 {
				t.Fatalf("value %d outside [0, 10)", v)
			}
		}
	})

	t.Run("uniform bounds", func(t *testing.T) {
		h, err := c.Uniform(ctx, 1000, -1, 1)
		if err != nil {
			t.Fatalf("Uniform failed: %v", err)
		}
		if h.DType() != granite.Float64 {
			t.Errorf("uniform dtype = %s", h.DType())
		}
		for _, v := range fetchFloat64s(t, c, h) {
			if v < -1 || v > 1 {
				t.Fatalf("value %v outside [-1, 1]", v)
			}
		}
	})

	t.Run("standard normal", func(t *testing.T) {
		h, err := c.StandardNormal(ctx, 100)
		if err != nil {
			t.Fatalf("StandardNormal failed: %v", err)
		}
		if h.Size() != 100 || h.DType() != granite.Float64 {
			t.Errorf("metadata: dtype=%s size=%d", h.DType(), h.Size())
		}
	})

	t.Run("argument validation", func(t *testing.T) {
		if _, err := c.Randint(ctx, 10, 0, 5, granite.Int64); granite.ErrorType(err) != granite.ValueError {
			t.Errorf("expected ValueError for high < low, got %v", err)
		}
		if _, err := c.Randint(ctx, 0, 10, -1, granite.Int64); granite.ErrorType(err) != granite.ValueError {
			t.Errorf("expected ValueError for negative size, got %v", err)
		}
	})

	t.Run("random strings uniform", func(t *testing.T) {
		sh, err := c.RandomStringsUniform(ctx, 2, 6, 50, granite.CharsetUppercase)
		if err != nil {
			t.Fatalf("RandomStringsUniform failed: %v", err)
		}
		arr, err := c.FetchStrings(ctx, sh)
		if err != nil {
			t.Fatalf("FetchStrings failed: %v", err)
		}
		defer arr.Release()
		for i := 0; i < arr.Len(); i++ {
			s := arr.Value(i)
			if len(s) < 2 || len(s) > 6 {
				t.Fatalf("string %q has length outside [2, 6]", s)
			}
			for _, r := range s {
				if r < 'A' || r > 'Z' {
					t.Fatalf("string %q contains non-uppercase rune %q", s, r)
				}
			}
		}
	})

	t.Run("random strings lognormal validation", func(t *testing.T) {
		if _, err := c.RandomStringsLognormal(ctx, 2, 0, 10, granite.CharsetLowercase); granite.ErrorType(err) != granite.ValueError {
			t.Errorf("expected ValueError for non-positive logstd, got %v", err)
		}
	})
}

func TestFillAndDestroy(t *testing.T) {
	c := newTestClient(t)
	ctx := context.Background()

	obj, err := c.Array(ctx, []int64{1, 2, 3})
	if err != nil {
		t.Fatalf("Array failed: %v", err)
	}
	h := obj.(*granite.ArrayHandle)
	if err := h.Fill(ctx, int64(7)); err != nil {
		t.Fatalf("Fill failed: %v", err)
	}
	if got := fetchInt64s(t, c, h); !reflect.DeepEqual(got, []int64{7, 7, 7}) {
		t.Errorf("Fill content: %v", got)
	}

	if err := h.Destroy(ctx); err != nil {
		t.Fatalf("Destroy failed: %v", err)
	}
	if _, err := c.Fetch(ctx, h); err == nil {
		t.Error("fetching a destroyed handle must fail")
	}
}
