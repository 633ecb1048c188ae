// © Copyright 2025-2026, Granite Data - https://granite-data.dev
// SPDX-License-Identifier: Apache-2.0

package conformance

import (
	"github.com/granite-data/granite-go/granite"
)

// handleUnique answers the sorted distinct values of an array: args [name].
func (s *Server) handleUnique(args []string, _ []byte) (string, []byte, error) {
	if err := wantArgs(granite.CmdUnique, args, 1); err != nil {
		return "", nil, err
	}
	e, err := s.lookup(args[0])
	if err != nil {
		return "", nil, err
	}
	switch keys := e.data.(type) {
	case []int64:
		_, _, uniq := groupSlice(keys)
		return s.put(&entry{dtype: granite.Int64, data: uniq}), nil, nil
	case []uint64:
		_, _, uniq := groupSlice(keys)
		return s.put(&entry{dtype: granite.UInt64, data: uniq}), nil, nil
	case []float64:
		_, _, uniq := groupSlice(keys)
		return s.put(&entry{dtype: granite.Float64, data: uniq}), nil, nil
	}
	return "", nil, typeErrorf("unique does not support dtype %s", e.dtype)
}

// handleCoargsort answers the stable permutation that sorts composite keys:
// args [primary, secondary]. Both arrays must share a dtype and size.
func (s *Server) handleCoargsort(args []string, _ []byte) (string, []byte, error) {
	if err := wantArgs(granite.CmdCoargsort, args, 2); err != nil {
		return "", nil, err
	}
	e1, err := s.lookup(args[0])
	if err != nil {
		return "", nil, err
	}
	e2, err := s.lookup(args[1])
	if err != nil {
		return "", nil, err
	}
	if e1.dtype != e2.dtype {
		return "", nil, typeErrorf("coargsort keys must share a dtype, got %s and %s", e1.dtype, e2.dtype)
	}
	if e1.size() != e2.size() {
		return "", nil, valueErrorf("coargsort keys must share a size, got %d and %d", e1.size(), e2.size())
	}
	var perm []int64
	switch k1 := e1.data.(type) {
	case []int64:
		perm = argsortPair(k1, e2.data.([]int64))
	case []uint64:
		perm = argsortPair(k1, e2.data.([]uint64))
	case []float64:
		perm = argsortPair(k1, e2.data.([]float64))
	default:
		return "", nil, typeErrorf("coargsort does not support dtype %s", e1.dtype)
	}
	return s.put(&entry{dtype: granite.Int64, data: perm}), nil, nil
}

// handleGroupBy groups one key array: args [name]. The reply is a
// permutation+segments+uniqueKeys composite.
func (s *Server) handleGroupBy(args []string, _ []byte) (string, []byte, error) {
	if err := wantArgs(granite.CmdGroupBy, args, 1); err != nil {
		return "", nil, err
	}
	e, err := s.lookup(args[0])
	if err != nil {
		return "", nil, err
	}
	var perm, segs []int64
	var uniq *entry
	switch keys := e.data.(type) {
	case []int64:
		var u []int64
		perm, segs, u = groupSlice(keys)
		uniq = &entry{dtype: granite.Int64, data: u}
	case []uint64:
		var u []uint64
		perm, segs, u = groupSlice(keys)
		uniq = &entry{dtype: granite.UInt64, data: u}
	case []float64:
		var u []float64
		perm, segs, u = groupSlice(keys)
		uniq = &entry{dtype: granite.Float64, data: u}
	default:
		return "", nil, typeErrorf("groupby does not support dtype %s", e.dtype)
	}
	permDesc := s.put(&entry{dtype: granite.Int64, data: perm})
	segDesc := s.put(&entry{dtype: granite.Int64, data: segs})
	uniqDesc := s.put(uniq)
	return permDesc + granite.CompositeDelim + segDesc + granite.CompositeDelim + uniqDesc, nil, nil
}

// handleBroadcast scatters one value per segment back to original
// positions: args [segments, values, permutation, size].
func (s *Server) handleBroadcast(args []string, _ []byte) (string, []byte, error) {
	if err := wantArgs(granite.CmdBroadcast, args, 4); err != nil {
		return "", nil, err
	}
	segE, err := s.lookup(args[0])
	if err != nil {
		return "", nil, err
	}
	segs, ok := segE.data.([]int64)
	if !ok {
		return "", nil, typeErrorf("broadcast segments must be int64, got %s", segE.dtype)
	}
	valE, err := s.lookup(args[1])
	if err != nil {
		return "", nil, err
	}
	permE, err := s.lookup(args[2])
	if err != nil {
		return "", nil, err
	}
	perm, ok := permE.data.([]int64)
	if !ok {
		return "", nil, typeErrorf("broadcast permutation must be int64, got %s", permE.dtype)
	}
	size, err := parseInt(args[3])
	if err != nil {
		return "", nil, err
	}
	if size != int64(len(perm)) {
		return "", nil, valueErrorf("broadcast size %d does not match permutation length %d", size, len(perm))
	}
	switch vals := valE.data.(type) {
	case []int64:
		out, err := broadcastSlice(segs, vals, perm, size)
		if err != nil {
			return "", nil, err
		}
		return s.put(&entry{dtype: granite.Int64, data: out}), nil, nil
	case []uint64:
		out, err := broadcastSlice(segs, vals, perm, size)
		if err != nil {
			return "", nil, err
		}
		return s.put(&entry{dtype: granite.UInt64, data: out}), nil, nil
	case []float64:
		out, err := broadcastSlice(segs, vals, perm, size)
		if err != nil {
			return "", nil, err
		}
		return s.put(&entry{dtype: granite.Float64, data: out}), nil, nil
	case []bool:
		out, err := broadcastSlice(segs, vals, perm, size)
		if err != nil {
			return "", nil, err
		}
		return s.put(&entry{dtype: granite.Bool, data: out}), nil, nil
	}
	return "", nil, typeErrorf("broadcast does not support dtype %s", valE.dtype)
}

// handleBroadcastStrings is broadcast for string values:
// args [segments, offsets, bytes, permutation, size]. The reply is an
// offsets+bytes composite.
func (s *Server) handleBroadcastStrings(args []string, _ []byte) (string, []byte, error) {
	if err := wantArgs(granite.CmdBroadcastStrs, args, 5); err != nil {
		return "", nil, err
	}
	segE, err := s.lookup(args[0])
	if err != nil {
		return "", nil, err
	}
	segs, ok := segE.data.([]int64)
	if !ok {
		return "", nil, typeErrorf("broadcast segments must be int64, got %s", segE.dtype)
	}
	offE, err := s.lookup(args[1])
	if err != nil {
		return "", nil, err
	}
	bytE, err := s.lookup(args[2])
	if err != nil {
		return "", nil, err
	}
	vals, err := stringsFromEntries(offE, bytE)
	if err != nil {
		return "", nil, err
	}
	permE, err := s.lookup(args[3])
	if err != nil {
		return "", nil, err
	}
	perm, ok := permE.data.([]int64)
	if !ok {
		return "", nil, typeErrorf("broadcast permutation must be int64, got %s", permE.dtype)
	}
	size, err := parseInt(args[4])
	if err != nil {
		return "", nil, err
	}
	if size != int64(len(perm)) {
		return "", nil, valueErrorf("broadcast size %d does not match permutation length %d", size, len(perm))
	}
	out, err := broadcastSlice(segs, vals, perm, size)
	if err != nil {
		return "", nil, err
	}
	offsets, bytes := segmentStrings(out)
	offDesc := s.put(&entry{dtype: granite.Int64, data: offsets})
	bytDesc := s.put(&entry{dtype: granite.UInt8, data: bytes})
	return offDesc + granite.CompositeDelim + bytDesc, nil, nil
}

// handleSparseSumHelp sums two sparse vectors:
// args [idx1, idx2, val1, val2, merge, percentTransferLimit]. The merge
// flag selects the locale-merge workflow on a distributed backend; here
// both strategies reduce to the same group-and-sum, so the flag only needs
// to parse.
func (s *Server) handleSparseSumHelp(args []string, _ []byte) (string, []byte, error) {
	if err := wantArgs(granite.CmdSparseSumHelp, args, 6); err != nil {
		return "", nil, err
	}
	idx1, err := s.lookupInt64(args[0])
	if err != nil {
		return "", nil, err
	}
	idx2, err := s.lookupInt64(args[1])
	if err != nil {
		return "", nil, err
	}
	val1E, err := s.lookup(args[2])
	if err != nil {
		return "", nil, err
	}
	val2E, err := s.lookup(args[3])
	if err != nil {
		return "", nil, err
	}
	if _, err := granite.ParseBoolScalar(args[4]); err != nil {
		return "", nil, err
	}
	if _, err := parseInt(args[5]); err != nil {
		return "", nil, err
	}
	if int64(len(idx1)) != val1E.size() || int64(len(idx2)) != val2E.size() {
		return "", nil, valueErrorf("sparse index and value sizes do not match")
	}

	idx := append(append([]int64{}, idx1...), idx2...)
	perm, segs, uniq := groupSlice(idx)

	if v1, ok := val1E.data.([]int64); ok {
		if v2, ok := val2E.data.([]int64); ok {
			vals := append(append([]int64{}, v1...), v2...)
			sums := segmentSums(perm, segs, vals)
			indDesc := s.put(&entry{dtype: granite.Int64, data: uniq})
			valDesc := s.put(&entry{dtype: granite.Int64, data: sums})
			return indDesc + granite.CompositeDelim + valDesc, nil, nil
		}
	}
	v1, err := asFloat64s(val1E)
	if err != nil {
		return "", nil, err
	}
	v2, err := asFloat64s(val2E)
	if err != nil {
		return "", nil, err
	}
	vals := append(append([]float64{}, v1...), v2...)
	sums := segmentSums(perm, segs, vals)
	indDesc := s.put(&entry{dtype: granite.Int64, data: uniq})
	valDesc := s.put(&entry{dtype: granite.Float64, data: sums})
	return indDesc + granite.CompositeDelim + valDesc, nil, nil
}

// segmentSums reduces values per group: sums[j] is the total of vals at the
// original positions covered by segment j.
func segmentSums[T int64 | float64](perm, segs []int64, vals []T) []T {
	sums := make([]T, len(segs))
	for j := range segs {
		end := int64(len(perm))
		if j+1 < len(segs) {
			end = segs[j+1]
		}
		for i := segs[j]; i < end; i++ {
			sums[j] += vals[perm[i]]
		}
	}
	return sums
}

func (s *Server) lookupInt64(name string) ([]int64, error) {
	e, err := s.lookup(name)
	if err != nil {
		return nil, err
	}
	vals, ok := e.data.([]int64)
	if !ok {
		return nil, typeErrorf("array %s must be int64, got %s", name, e.dtype)
	}
	return vals, nil
}

func asFloat64s(e *entry) ([]float64, error) {
	switch d := e.data.(type) {
	case []float64:
		return d, nil
	case []int64:
		out := make([]float64, len(d))
		for i, v := range d {
			out[i] = float64(v)
		}
		return out, nil
	case []uint64:
		out := make([]float64, len(d))
		for i, v := range d {
			out[i] = float64(v)
		}
		return out, nil
	}
	return nil, typeErrorf("values of dtype %s cannot be summed", e.dtype)
}
