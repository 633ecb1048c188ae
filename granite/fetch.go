// © Copyright 2025-2026, Granite Data - https://granite-data.dev
// SPDX-License-Identifier: Apache-2.0

package granite

import (
	"context"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
)

// Fetch downloads the full contents of a server-resident array into a local
// Arrow array. The transfer guard runs before the request: downloads larger
// than the client's transfer limit fail deterministically without any data
// movement. The caller owns the returned array and should Release it.
func (c *Client) Fetch(ctx context.Context, h *ArrayHandle) (arrow.Array, error) {
	if err := c.checkTransfer(h.NBytes()); err != nil {
		return nil, err
	}
	reply, err := c.send(ctx, CmdToNDArray, []string{h.Name()}, nil)
	if err != nil {
		return nil, err
	}
	native, err := UnpackPayload(h.DType(), reply.Payload)
	if err != nil {
		return nil, err
	}
	mem := memory.NewGoAllocator()
	switch vals := native.(type) {
	case []int64:
		b := array.NewInt64Builder(mem)
		defer b.Release()
		b.AppendValues(vals, nil)
		return b.NewArray(), nil
	case []uint64:
		b := array.NewUint64Builder(mem)
		defer b.Release()
		b.AppendValues(vals, nil)
		return b.NewArray(), nil
	case []uint8:
		b := array.NewUint8Builder(mem)
		defer b.Release()
		b.AppendValues(vals, nil)
		return b.NewArray(), nil
	case []float64:
		b := array.NewFloat64Builder(mem)
		defer b.Release()
		b.AppendValues(vals, nil)
		return b.NewArray(), nil
	case []bool:
		b := array.NewBooleanBuilder(mem)
		defer b.Release()
		b.AppendValues(vals, nil)
		return b.NewArray(), nil
	}
	return nil, protocolErrorf("cannot materialize dtype %s locally", h.DType())
}

// FetchStrings downloads a strings composite and reassembles the logical
// strings from its offsets and null-terminated bytes segments.
func (c *Client) FetchStrings(ctx context.Context, s *StringsHandle) (*array.String, error) {
	offArr, err := c.Fetch(ctx, s.Offsets())
	if err != nil {
		return nil, err
	}
	defer offArr.Release()
	bytArr, err := c.Fetch(ctx, s.Bytes())
	if err != nil {
		return nil, err
	}
	defer bytArr.Release()

	offsets := offArr.(*array.Int64).Int64Values()
	raw := bytArr.(*array.Uint8).Uint8Values()

	mem := memory.NewGoAllocator()
	b := array.NewStringBuilder(mem)
	defer b.Release()
	for i, start := range offsets {
		end := int64(len(raw))
		if i+1 < len(offsets) {
			end = offsets[i+1]
		}
		if start < 0 || end > int64(len(raw)) || end <= start {
			return nil, protocolErrorf("strings segment %d has invalid bounds [%d, %d)", i, start, end)
		}
		// Drop the terminator byte ending the segment.
		b.Append(string(raw[start : end-1]))
	}
	return b.NewStringArray(), nil
}

// fromArrow converts a local Arrow array into the native slice the payload
// codec packs. Arrays containing nulls are rejected: the wire layout has no
// validity bitmap.
func fromArrow(arr arrow.Array) (any, error) {
	if arr.NullN() > 0 {
		return nil, typeErrorf("arrow input contains nulls, which the wire layout cannot carry")
	}
	switch a := arr.(type) {
	case *array.Int64:
		vals := make([]int64, a.Len())
		copy(vals, a.Int64Values())
		return vals, nil
	case *array.Uint64:
		vals := make([]uint64, a.Len())
		copy(vals, a.Uint64Values())
		return vals, nil
	case *array.Uint8:
		vals := make([]uint8, a.Len())
		copy(vals, a.Uint8Values())
		return vals, nil
	case *array.Float64:
		vals := make([]float64, a.Len())
		copy(vals, a.Float64Values())
		return vals, nil
	case *array.Boolean:
		vals := make([]bool, a.Len())
		for i := range vals {
			vals[i] = a.Value(i)
		}
		return vals, nil
	case *array.String:
		vals := make([]string, a.Len())
		for i := range vals {
			vals[i] = a.Value(i)
		}
		return vals, nil
	}
	return nil, typeErrorf("unsupported arrow array type %T", arr)
}
