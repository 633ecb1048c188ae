// © Copyright 2025-2026, Granite Data - https://granite-data.dev
// SPDX-License-Identifier: Apache-2.0

package granite

import (
	"context"
	"math"

	"github.com/apache/arrow-go/v18/arrow/array"
)

// StringNullSentinel replaces distinct keys absent from a Map lookup when
// the replacement values are strings.
const StringNullSentinel = "null"

// GroupBy is the client-side view of a server-side grouping of one key
// array: the permutation that sorts the keys, the segment offsets marking
// each distinct key's run in the sorted order, and the distinct keys
// themselves. The segmentation and permutation are what the GroupBy-backed
// algorithms use to scatter per-group results back to original positions.
type GroupBy struct {
	Keys        *ArrayHandle
	Permutation *ArrayHandle
	Segments    *ArrayHandle
	UniqueKeys  *ArrayHandle
}

// NewGroupBy groups keys on the server. One round trip; the reply is three
// descriptors (permutation, segments, unique keys) joined by the composite
// delimiter.
func (c *Client) NewGroupBy(ctx context.Context, keys *ArrayHandle) (*GroupBy, error) {
	if !IsNumericDType(keys.DType()) {
		return nil, typeErrorf("groupby keys must be numeric, got %s", keys.DType())
	}
	reply, err := c.send(ctx, CmdGroupBy, []string{keys.Name()}, nil)
	if err != nil {
		return nil, err
	}
	parts, err := SplitComposite(reply.Text, 3)
	if err != nil {
		return nil, err
	}
	perm, err := arrayFromDescriptor(c, parts[0])
	if err != nil {
		return nil, err
	}
	segs, err := arrayFromDescriptor(c, parts[1])
	if err != nil {
		return nil, err
	}
	uk, err := arrayFromDescriptor(c, parts[2])
	if err != nil {
		return nil, err
	}
	return &GroupBy{Keys: keys, Permutation: perm, Segments: segs, UniqueKeys: uk}, nil
}

// SparseSumHelp sums two sparse vectors given as (index, value) pairs. It is
// equivalent to grouping the concatenated indices and summing the
// concatenated values per group, returning the sorted distinct indices and
// their sums. The server picks between a merge-based workflow (merge=true,
// bounded by percentTransferLimit as a percentage of data allowed to move
// between locales) and a sort-based fallback; the result is identical either
// way, so the client only passes the preference through.
func (c *Client) SparseSumHelp(ctx context.Context, idx1, val1, idx2, val2 *ArrayHandle,
	merge bool, percentTransferLimit int) (*ArrayHandle, *ArrayHandle, error) {

	if idx1.Size() != val1.Size() || idx2.Size() != val2.Size() {
		return nil, nil, valueErrorf("index and value arrays must have matching sizes")
	}
	mergeStr, err := FormatScalar(Bool, merge)
	if err != nil {
		return nil, nil, err
	}
	reply, err := c.send(ctx, CmdSparseSumHelp,
		[]string{idx1.Name(), idx2.Name(), val1.Name(), val2.Name(),
			mergeStr, formatInt64(int64(percentTransferLimit))}, nil)
	if err != nil {
		return nil, nil, err
	}
	parts, err := SplitComposite(reply.Text, 2)
	if err != nil {
		return nil, nil, err
	}
	inds, err := arrayFromDescriptor(c, parts[0])
	if err != nil {
		return nil, nil, err
	}
	vals, err := arrayFromDescriptor(c, parts[1])
	if err != nil {
		return nil, nil, err
	}
	return inds, vals, nil
}

// Table is a mapping given as a pair of server-resident arrays: Keys holds
// the lookup keys and Values the replacement for each key. Values must be a
// numeric array or a strings composite.
type Table struct {
	Keys   *ArrayHandle
	Values Object
}

// lookupTable is the normalized form every Map mapping converts into before
// any downstream logic runs: an indexed key set plus one replacement column.
type lookupTable struct {
	intKeys   map[int64]int
	floatKeys map[float64]int
	numVals   []float64
	strVals   []string
	isString  bool
}

func (t *lookupTable) lookupInt(k int64) (int, bool) {
	if i, ok := t.intKeys[k]; ok {
		return i, true
	}
	i, ok := t.floatKeys[float64(k)]
	return i, ok
}

func (t *lookupTable) lookupFloat(k float64) (int, bool) {
	i, ok := t.floatKeys[k]
	return i, ok
}

func (t *lookupTable) add(intKey int64, floatKey float64, hasInt bool) {
	i := len(t.numVals)
	if t.isString {
		i = len(t.strVals)
	}
	if hasInt {
		t.intKeys[intKey] = i
	}
	t.floatKeys[floatKey] = i
}

func newLookupTable(isString bool) *lookupTable {
	return &lookupTable{
		intKeys:   make(map[int64]int),
		floatKeys: make(map[float64]int),
		isString:  isString,
	}
}

// normalizeMapping converts the accepted mapping forms into a lookupTable.
// Literal maps convert directly; a *Table is resolved by downloading its
// (small) key and value arrays, subject to the transfer guard.
func (c *Client) normalizeMapping(ctx context.Context, mapping any) (*lookupTable, error) {
	switch m := mapping.(type) {
	case map[int64]float64:
		t := newLookupTable(false)
		for k, v := range m {
			t.add(k, float64(k), true)
			t.numVals = append(t.numVals, v)
		}
		return t, nil
	case map[int64]int64:
		t := newLookupTable(false)
		for k, v := range m {
			t.add(k, float64(k), true)
			t.numVals = append(t.numVals, float64(v))
		}
		return t, nil
	case map[int64]string:
		t := newLookupTable(true)
		for k, v := range m {
			t.add(k, float64(k), true)
			t.strVals = append(t.strVals, v)
		}
		return t, nil
	case map[float64]float64:
		t := newLookupTable(false)
		for k, v := range m {
			t.add(0, k, false)
			t.numVals = append(t.numVals, v)
		}
		return t, nil
	case map[float64]string:
		t := newLookupTable(true)
		for k, v := range m {
			t.add(0, k, false)
			t.strVals = append(t.strVals, v)
		}
		return t, nil
	case *Table:
		return c.normalizeTable(ctx, m)
	}
	return nil, typeErrorf("mapping must be a key/value map or *Table, got %T", mapping)
}

func (c *Client) normalizeTable(ctx context.Context, table *Table) (*lookupTable, error) {
	if table.Keys == nil || table.Values == nil {
		return nil, typeErrorf("table mapping must have keys and values")
	}
	keysArr, err := c.Fetch(ctx, table.Keys)
	if err != nil {
		return nil, err
	}
	defer keysArr.Release()

	var t *lookupTable
	switch vals := table.Values.(type) {
	case *ArrayHandle:
		if !IsNumericDType(vals.DType()) {
			return nil, typeErrorf("map values must be numeric or string-like, got %s", vals.DType())
		}
		valArr, err := c.Fetch(ctx, vals)
		if err != nil {
			return nil, err
		}
		defer valArr.Release()
		t = newLookupTable(false)
		switch va := valArr.(type) {
		case *array.Float64:
			t.numVals = append(t.numVals, va.Float64Values()...)
		case *array.Int64:
			for _, v := range va.Int64Values() {
				t.numVals = append(t.numVals, float64(v))
			}
		case *array.Uint64:
			for _, v := range va.Uint64Values() {
				t.numVals = append(t.numVals, float64(v))
			}
		default:
			return nil, typeErrorf("map values of type %T are not broadcastable", valArr)
		}
	case *StringsHandle:
		strArr, err := c.FetchStrings(ctx, vals)
		if err != nil {
			return nil, err
		}
		defer strArr.Release()
		t = newLookupTable(true)
		for i := 0; i < strArr.Len(); i++ {
			t.strVals = append(t.strVals, strArr.Value(i))
		}
	default:
		return nil, typeErrorf("map values must be castable to an array or strings handle, got %T", table.Values)
	}

	switch ka := keysArr.(type) {
	case *array.Int64:
		for i, k := range ka.Int64Values() {
			t.intKeys[k] = i
			t.floatKeys[float64(k)] = i
		}
	case *array.Float64:
		for i, k := range ka.Float64Values() {
			t.floatKeys[k] = i
		}
	default:
		return nil, typeErrorf("table keys must be int64 or float64, got %T", keysArr)
	}
	n := len(t.numVals)
	if t.isString {
		n = len(t.strVals)
	}
	if keysArr.Len() != n {
		return nil, valueErrorf("table keys and values must have equal sizes")
	}
	return t, nil
}

// Map rewrites every element of values according to mapping, which is either
// a literal key/value map or a *Table. The values array is grouped into its
// distinct keys; each distinct key's replacement is resolved against the
// normalized lookup table, with math.NaN substituted for numeric misses and
// StringNullSentinel for string misses (absent keys are never silently
// matched); the per-group replacements are then broadcast back to every
// original position through the group segmentation and permutation.
//
// The result is an *ArrayHandle (float64) for numeric mappings and a
// *StringsHandle for string mappings.
func (c *Client) Map(ctx context.Context, values *ArrayHandle, mapping any) (Object, error) {
	table, err := c.normalizeMapping(ctx, mapping)
	if err != nil {
		return nil, err
	}
	g, err := c.NewGroupBy(ctx, values)
	if err != nil {
		return nil, err
	}
	ukArr, err := c.Fetch(ctx, g.UniqueKeys)
	if err != nil {
		return nil, err
	}
	defer ukArr.Release()

	n := ukArr.Len()
	find := func(i int) (int, bool) { return 0, false }
	switch uk := ukArr.(type) {
	case *array.Int64:
		keys := uk.Int64Values()
		find = func(i int) (int, bool) { return table.lookupInt(keys[i]) }
	case *array.Uint64:
		keys := uk.Uint64Values()
		find = func(i int) (int, bool) { return table.lookupInt(int64(keys[i])) }
	case *array.Float64:
		keys := uk.Float64Values()
		find = func(i int) (int, bool) { return table.lookupFloat(keys[i]) }
	default:
		return nil, typeErrorf("cannot map values of type %T", ukArr)
	}

	if table.isString {
		repl := make([]string, n)
		for i := range repl {
			if j, ok := find(i); ok {
				repl[i] = table.strVals[j]
			} else {
				repl[i] = StringNullSentinel
			}
		}
		obj, err := c.Array(ctx, repl)
		if err != nil {
			return nil, err
		}
		sh := obj.(*StringsHandle)
		reply, err := c.send(ctx, CmdBroadcastStrs,
			[]string{g.Segments.Name(), sh.Offsets().Name(), sh.Bytes().Name(),
				g.Permutation.Name(), formatInt64(values.Size())}, nil)
		if err != nil {
			return nil, err
		}
		return stringsFromDescriptor(c, reply.Text)
	}

	repl := make([]float64, n)
	for i := range repl {
		if j, ok := find(i); ok {
			repl[i] = table.numVals[j]
		} else {
			repl[i] = math.NaN()
		}
	}
	obj, err := c.Array(ctx, repl)
	if err != nil {
		return nil, err
	}
	rh := obj.(*ArrayHandle)
	reply, err := c.send(ctx, CmdBroadcast,
		[]string{g.Segments.Name(), rh.Name(), g.Permutation.Name(),
			formatInt64(values.Size())}, nil)
	if err != nil {
		return nil, err
	}
	return arrayFromDescriptor(c, reply.Text)
}
