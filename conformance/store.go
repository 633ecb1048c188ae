// © Copyright 2025-2026, Granite Data - https://granite-data.dev
// SPDX-License-Identifier: Apache-2.0

package conformance

import (
	"cmp"
	"sort"
	"strconv"

	"github.com/granite-data/granite-go/granite"
)

// entry is one server-resident array: its dtype plus the backing slice,
// which is always one of []int64, []uint64, []uint8, []float64 or []bool.
type entry struct {
	dtype granite.DType
	data  any
}

func (e *entry) size() int64 {
	switch d := e.data.(type) {
	case []int64:
		return int64(len(d))
	case []uint64:
		return int64(len(d))
	case []uint8:
		return int64(len(d))
	case []float64:
		return int64(len(d))
	case []bool:
		return int64(len(d))
	}
	return 0
}

// newEntry allocates a zero-valued entry of the given dtype and size.
func newEntry(dt granite.DType, size int64) (*entry, error) {
	switch dt {
	case granite.Int64:
		return &entry{dtype: dt, data: make([]int64, size)}, nil
	case granite.UInt64:
		return &entry{dtype: dt, data: make([]uint64, size)}, nil
	case granite.UInt8:
		return &entry{dtype: dt, data: make([]uint8, size)}, nil
	case granite.Float64:
		return &entry{dtype: dt, data: make([]float64, size)}, nil
	case granite.Bool:
		return &entry{dtype: dt, data: make([]bool, size)}, nil
	}
	return nil, typeErrorf("dtype %q has no storage representation", dt)
}

// fill sets every element to the parsed scalar value.
func (e *entry) fill(scalar string) error {
	switch d := e.data.(type) {
	case []int64:
		v, err := parseInt(scalar)
		if err != nil {
			return err
		}
		for i := range d {
			d[i] = v
		}
	case []uint64:
		v, err := strconv.ParseUint(scalar, 10, 64)
		if err != nil {
			return valueErrorf("invalid integer %q", scalar)
		}
		for i := range d {
			d[i] = v
		}
	case []uint8:
		v, err := parseInt(scalar)
		if err != nil {
			return err
		}
		for i := range d {
			d[i] = uint8(v)
		}
	case []float64:
		v, err := parseFloat(scalar)
		if err != nil {
			return err
		}
		for i := range d {
			d[i] = v
		}
	case []bool:
		v, err := granite.ParseBoolScalar(scalar)
		if err != nil {
			return err
		}
		for i := range d {
			d[i] = v
		}
	}
	return nil
}

// argsortPair returns the stable permutation that sorts the composite keys
// (k1[i], k2[i]) ascending. Both key slices must have equal length.
func argsortPair[K cmp.Ordered](k1, k2 []K) []int64 {
	idx := make([]int64, len(k1))
	for i := range idx {
		idx[i] = int64(i)
	}
	sort.SliceStable(idx, func(a, b int) bool {
		ia, ib := idx[a], idx[b]
		if k1[ia] != k1[ib] {
			return cmp.Less(k1[ia], k1[ib])
		}
		return cmp.Less(k2[ia], k2[ib])
	})
	return idx
}

// groupSlice groups keys into sorted distinct values: perm is the stable
// sort permutation, segs the start offset of each distinct key's run in
// sorted order, and uniq the distinct keys themselves.
func groupSlice[K cmp.Ordered](keys []K) (perm, segs []int64, uniq []K) {
	perm = make([]int64, len(keys))
	for i := range perm {
		perm[i] = int64(i)
	}
	sort.SliceStable(perm, func(a, b int) bool {
		return cmp.Less(keys[perm[a]], keys[perm[b]])
	})
	for i, p := range perm {
		if i == 0 || keys[p] != keys[perm[i-1]] {
			segs = append(segs, int64(i))
			uniq = append(uniq, keys[p])
		}
	}
	return perm, segs, uniq
}

// broadcastSlice expands one value per segment back to original positions:
// sorted position i in segment j receives vals[j], then lands at perm[i].
func broadcastSlice[T any](segs []int64, vals []T, perm []int64, size int64) ([]T, error) {
	if len(segs) != len(vals) {
		return nil, valueErrorf("broadcast: %d segments but %d values", len(segs), len(vals))
	}
	out := make([]T, size)
	for j := range segs {
		end := size
		if j+1 < len(segs) {
			end = segs[j+1]
		}
		if segs[j] < 0 || segs[j] > end || end > int64(len(perm)) {
			return nil, valueErrorf("broadcast: segment %d out of range", j)
		}
		for i := segs[j]; i < end; i++ {
			out[perm[i]] = vals[j]
		}
	}
	return out, nil
}

// stringsFromEntries reassembles logical strings from an offsets entry and a
// null-terminated bytes entry.
func stringsFromEntries(offsets *entry, bytes *entry) ([]string, error) {
	offs, ok := offsets.data.([]int64)
	if !ok {
		return nil, typeErrorf("strings offsets must be int64, got %s", offsets.dtype)
	}
	raw, ok := bytes.data.([]uint8)
	if !ok {
		return nil, typeErrorf("strings bytes must be uint8, got %s", bytes.dtype)
	}
	out := make([]string, len(offs))
	for i, start := range offs {
		end := int64(len(raw))
		if i+1 < len(offs) {
			end = offs[i+1]
		}
		if start < 0 || start >= end || end > int64(len(raw)) {
			return nil, valueErrorf("strings segment %d out of range", i)
		}
		out[i] = string(raw[start : end-1]) // drop the terminator
	}
	return out, nil
}

// segmentStrings converts logical strings into the offsets plus
// null-terminated bytes representation.
func segmentStrings(vals []string) (offsets []int64, bytes []uint8) {
	offsets = make([]int64, len(vals))
	var n int64
	for i, s := range vals {
		offsets[i] = n
		n += int64(len(s)) + 1
	}
	bytes = make([]uint8, n)
	for i, s := range vals {
		copy(bytes[offsets[i]:], s)
	}
	return offsets, bytes
}
