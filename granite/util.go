// © Copyright 2025-2026, Granite Data - https://granite-data.dev
// SPDX-License-Identifier: Apache-2.0

package granite

import "context"

// BroadcastDims computes the broadcast shape of two input shapes using the
// Array API's right-aligned dimension matching: missing leading dimensions
// count as 1; aligned pairs must be equal or contain a 1. Incompatible
// shapes are a domain error.
func BroadcastDims(sa, sb []int64) ([]int64, error) {
	na, nb := len(sa), len(sb)
	n := max(na, nb)
	out := make([]int64, n)
	for i := n - 1; i >= 0; i-- {
		d1, d2 := int64(1), int64(1)
		if j := na - n + i; j >= 0 {
			d1 = sa[j]
		}
		if j := nb - n + i; j >= 0 {
			d2 = sb[j]
		}
		switch {
		case d1 == 1:
			out[i] = d2
		case d2 == 1:
			out[i] = d1
		case d1 == d2:
			out[i] = d1
		default:
			return nil, valueErrorf("incompatible dimensions for broadcasting: %v and %v", sa, sb)
		}
	}
	return out, nil
}

// ConvertBytes converts a byte count to B, KB, MB or GB (binary, 1024-based
// units). An unknown unit is a domain error.
func ConvertBytes(nbytes int64, unit string) (float64, error) {
	const (
		kb = 1 << 10
		mb = 1 << 20
		gb = 1 << 30
	)
	switch unit {
	case "B":
		return float64(nbytes), nil
	case "KB":
		return float64(nbytes) / kb, nil
	case "MB":
		return float64(nbytes) / mb, nil
	case "GB":
		return float64(nbytes) / gb, nil
	}
	return 0, valueErrorf("invalid unit %q, must be one of B, KB, MB, GB", unit)
}

// IsNumeric reports whether v is an array handle of numeric dtype. Non-array
// inputs (including strings composites) report false rather than erroring.
func IsNumeric(v any) bool {
	h, ok := v.(*ArrayHandle)
	return ok && IsNumericDType(h.DType())
}

// IsFloat reports whether v is an array handle of floating dtype.
func IsFloat(v any) bool {
	h, ok := v.(*ArrayHandle)
	return ok && IsFloatDType(h.DType())
}

// IsInt reports whether v is an array handle of integral dtype.
func IsInt(v any) bool {
	h, ok := v.(*ArrayHandle)
	return ok && IsIntDType(h.DType())
}

// InvertPermutation computes the inverse of a permutation of [0, size).
// The bijection check (count of distinct values equals size) and the
// inversion itself both run server-side, so no elements cross the wire:
// the inverse is the second component of a stable composite-key sort of
// (perm, identity range), since sorting the identity range by perm places
// i at position perm[i].
func (c *Client) InvertPermutation(ctx context.Context, perm *ArrayHandle) (*ArrayHandle, error) {
	if perm.DType() != Int64 {
		return nil, typeErrorf("permutation must be int64, got %s", perm.DType())
	}
	reply, err := c.send(ctx, CmdUnique, []string{perm.Name()}, nil)
	if err != nil {
		return nil, err
	}
	distinct, err := arrayFromDescriptor(c, reply.Text)
	if err != nil {
		return nil, err
	}
	if distinct.Size() != perm.Size() {
		return nil, valueErrorf("the array is not a permutation")
	}
	iota, err := c.Arange(ctx, 0, perm.Size())
	if err != nil {
		return nil, err
	}
	sorted, err := c.send(ctx, CmdCoargsort, []string{perm.Name(), iota.Name()}, nil)
	if err != nil {
		return nil, err
	}
	return arrayFromDescriptor(c, sorted.Text)
}
