// © Copyright 2025-2026, Granite Data - https://granite-data.dev
// SPDX-License-Identifier: Apache-2.0

package conformance

import (
	"math"

	"github.com/granite-data/granite-go/granite"
)

// handleArray materializes a client-uploaded payload:
// args: [dtype, size], payload: big-endian element bytes.
func (s *Server) handleArray(args []string, payload []byte) (string, []byte, error) {
	if err := wantArgs(granite.CmdArray, args, 2); err != nil {
		return "", nil, err
	}
	dt, err := granite.ParseDType(args[0])
	if err != nil {
		return "", nil, err
	}
	size, err := parseInt(args[1])
	if err != nil {
		return "", nil, err
	}
	data, err := granite.UnpackPayload(dt, payload)
	if err != nil {
		return "", nil, err
	}
	e := &entry{dtype: dt, data: data}
	if e.size() != size {
		return "", nil, valueErrorf("payload holds %d elements, header says %d", e.size(), size)
	}
	return s.put(e), nil, nil
}

// handleCreate allocates a zero-valued array: args [dtype, size].
func (s *Server) handleCreate(args []string, _ []byte) (string, []byte, error) {
	if err := wantArgs(granite.CmdCreate, args, 2); err != nil {
		return "", nil, err
	}
	dt, err := granite.ParseDType(args[0])
	if err != nil {
		return "", nil, err
	}
	size, err := parseInt(args[1])
	if err != nil {
		return "", nil, err
	}
	if size < 0 {
		return "", nil, valueErrorf("invalid size: %d", size)
	}
	e, err := newEntry(dt, size)
	if err != nil {
		return "", nil, err
	}
	return s.put(e), nil, nil
}

// handleSet fills an array with a scalar: args [name, dtype, value].
func (s *Server) handleSet(args []string, _ []byte) (string, []byte, error) {
	if err := wantArgs(granite.CmdSet, args, 3); err != nil {
		return "", nil, err
	}
	e, err := s.lookup(args[0])
	if err != nil {
		return "", nil, err
	}
	if string(e.dtype) != args[1] {
		return "", nil, typeErrorf("array %s is %s, not %s", args[0], e.dtype, args[1])
	}
	if err := e.fill(args[2]); err != nil {
		return "", nil, err
	}
	return "set " + args[0] + " to " + args[2], nil, nil
}

// handleDelete frees an array. Arrays referenced by a registry binding
// persist; the delete is acknowledged but deferred until unregistration.
func (s *Server) handleDelete(args []string, _ []byte) (string, []byte, error) {
	if err := wantArgs(granite.CmdDelete, args, 1); err != nil {
		return "", nil, err
	}
	name := args[0]
	if _, err := s.lookup(name); err != nil {
		return "", nil, err
	}
	if !s.isComponent(name) {
		delete(s.arrays, name)
	}
	return "deleted " + name, nil, nil
}

// handleToNDArray streams an array's raw bytes back: args [name].
func (s *Server) handleToNDArray(args []string, _ []byte) (string, []byte, error) {
	if err := wantArgs(granite.CmdToNDArray, args, 1); err != nil {
		return "", nil, err
	}
	e, err := s.lookup(args[0])
	if err != nil {
		return "", nil, err
	}
	payload, err := granite.PackPayload(e.dtype, e.data)
	if err != nil {
		return "", nil, err
	}
	return "tondarray " + args[0], payload, nil
}

// handleArange builds consecutive int64 values: args [start, stop, stride].
// For descending ranges the iteration bound runs two short of the stop
// argument; clients compensate by sending stop+2. Changing the bound here
// would desynchronize every existing client.
func (s *Server) handleArange(args []string, _ []byte) (string, []byte, error) {
	if err := wantArgs(granite.CmdArange, args, 3); err != nil {
		return "", nil, err
	}
	start, err := parseInt(args[0])
	if err != nil {
		return "", nil, err
	}
	stop, err := parseInt(args[1])
	if err != nil {
		return "", nil, err
	}
	stride, err := parseInt(args[2])
	if err != nil {
		return "", nil, err
	}
	if stride == 0 {
		return "", nil, &granite.ClientError{Type: granite.ZeroDivisionError, Message: "division by zero"}
	}
	var vals []int64
	if stride > 0 {
		for i := start; i < stop; i += stride {
			vals = append(vals, i)
		}
	} else {
		for i := start; i > stop-2; i += stride {
			vals = append(vals, i)
		}
	}
	return s.put(&entry{dtype: granite.Int64, data: vals}), nil, nil
}

// handleLinspace builds evenly spaced float64 points over a closed
// interval: args [start, stop, length].
func (s *Server) handleLinspace(args []string, _ []byte) (string, []byte, error) {
	if err := wantArgs(granite.CmdLinspace, args, 3); err != nil {
		return "", nil, err
	}
	start, err := parseFloat(args[0])
	if err != nil {
		return "", nil, err
	}
	stop, err := parseFloat(args[1])
	if err != nil {
		return "", nil, err
	}
	length, err := parseInt(args[2])
	if err != nil {
		return "", nil, err
	}
	if length < 0 {
		return "", nil, valueErrorf("invalid length: %d", length)
	}
	vals := make([]float64, length)
	switch length {
	case 0:
	case 1:
		vals[0] = start
	default:
		step := (stop - start) / float64(length-1)
		for i := range vals {
			vals[i] = start + float64(i)*step
		}
		vals[length-1] = stop
	}
	return s.put(&entry{dtype: granite.Float64, data: vals}), nil, nil
}

// handleRandint draws uniform values: args [size, dtype, low, high]. High
// is exclusive for integral dtypes and inclusive for float64.
func (s *Server) handleRandint(args []string, _ []byte) (string, []byte, error) {
	if err := wantArgs(granite.CmdRandint, args, 4); err != nil {
		return "", nil, err
	}
	size, err := parseInt(args[0])
	if err != nil {
		return "", nil, err
	}
	if size < 0 {
		return "", nil, valueErrorf("invalid size: %d", size)
	}
	dt, err := granite.ParseDType(args[1])
	if err != nil {
		return "", nil, err
	}
	switch dt {
	case granite.Int64:
		low, err := parseInt(args[2])
		if err != nil {
			return "", nil, err
		}
		high, err := parseInt(args[3])
		if err != nil {
			return "", nil, err
		}
		vals := make([]int64, size)
		for i := range vals {
			vals[i] = low + s.randBelow(high-low)
		}
		return s.put(&entry{dtype: dt, data: vals}), nil, nil
	case granite.UInt64:
		low, err := parseInt(args[2])
		if err != nil {
			return "", nil, err
		}
		high, err := parseInt(args[3])
		if err != nil {
			return "", nil, err
		}
		vals := make([]uint64, size)
		for i := range vals {
			vals[i] = uint64(low + s.randBelow(high-low))
		}
		return s.put(&entry{dtype: dt, data: vals}), nil, nil
	case granite.UInt8:
		low, err := parseInt(args[2])
		if err != nil {
			return "", nil, err
		}
		high, err := parseInt(args[3])
		if err != nil {
			return "", nil, err
		}
		vals := make([]uint8, size)
		for i := range vals {
			vals[i] = uint8(low + s.randBelow(high-low))
		}
		return s.put(&entry{dtype: dt, data: vals}), nil, nil
	case granite.Float64:
		low, err := parseFloat(args[2])
		if err != nil {
			return "", nil, err
		}
		high, err := parseFloat(args[3])
		if err != nil {
			return "", nil, err
		}
		vals := make([]float64, size)
		for i := range vals {
			vals[i] = low + s.rng.Float64()*(high-low)
		}
		return s.put(&entry{dtype: dt, data: vals}), nil, nil
	case granite.Bool:
		vals := make([]bool, size)
		for i := range vals {
			vals[i] = s.rng.Intn(2) == 1
		}
		return s.put(&entry{dtype: dt, data: vals}), nil, nil
	}
	return "", nil, typeErrorf("randint does not support dtype %q", dt)
}

// randBelow draws from [0, n); a degenerate range yields 0.
func (s *Server) randBelow(n int64) int64 {
	if n <= 0 {
		return 0
	}
	return s.rng.Int63n(n)
}

// handleRandomNormal draws from the standard normal: args [size].
func (s *Server) handleRandomNormal(args []string, _ []byte) (string, []byte, error) {
	if err := wantArgs(granite.CmdRandomNormal, args, 1); err != nil {
		return "", nil, err
	}
	size, err := parseInt(args[0])
	if err != nil {
		return "", nil, err
	}
	if size < 0 {
		return "", nil, valueErrorf("invalid size: %d", size)
	}
	vals := make([]float64, size)
	for i := range vals {
		vals[i] = s.rng.NormFloat64()
	}
	return s.put(&entry{dtype: granite.Float64, data: vals}), nil, nil
}

var charsets = map[string]string{
	"uppercase": "ABCDEFGHIJKLMNOPQRSTUVWXYZ",
	"lowercase": "abcdefghijklmnopqrstuvwxyz",
	"numeric":   "0123456789",
	"printable": " !\"#$%&'()*+,-./0123456789:;<=>?@ABCDEFGHIJKLMNOPQRSTUVWXYZ[\\]^_`abcdefghijklmnopqrstuvwxyz{|}~",
}

// handleRandomStrings generates random strings:
// args [size, method, charset, arg1, arg2] where method is "uniform"
// (arg1=minlen, arg2=maxlen, both inclusive) or "lognormal" (arg1=logmean,
// arg2=logstd). The reply is an offsets+bytes composite.
func (s *Server) handleRandomStrings(args []string, _ []byte) (string, []byte, error) {
	if err := wantArgs(granite.CmdRandomStrings, args, 5); err != nil {
		return "", nil, err
	}
	size, err := parseInt(args[0])
	if err != nil {
		return "", nil, err
	}
	if size < 0 {
		return "", nil, valueErrorf("invalid size: %d", size)
	}
	var lengths []int64
	switch args[1] {
	case "uniform":
		minlen, err := parseInt(args[3])
		if err != nil {
			return "", nil, err
		}
		maxlen, err := parseInt(args[4])
		if err != nil {
			return "", nil, err
		}
		if minlen < 0 || maxlen < minlen {
			return "", nil, valueErrorf("invalid length range [%d, %d]", minlen, maxlen)
		}
		lengths = make([]int64, size)
		for i := range lengths {
			lengths[i] = minlen + s.randBelow(maxlen-minlen+1)
		}
	case "lognormal":
		logmean, err := parseFloat(args[3])
		if err != nil {
			return "", nil, err
		}
		logstd, err := parseFloat(args[4])
		if err != nil {
			return "", nil, err
		}
		if logstd <= 0 {
			return "", nil, valueErrorf("logstd must be positive, got %v", logstd)
		}
		lengths = make([]int64, size)
		for i := range lengths {
			lengths[i] = int64(math.Exp(s.rng.NormFloat64()*logstd + logmean))
		}
	default:
		return "", nil, valueErrorf("unknown distribution %q", args[1])
	}

	pool, ok := charsets[args[2]]
	if !ok && args[2] != "binary" {
		return "", nil, valueErrorf("unknown charset %q", args[2])
	}
	vals := make([]string, size)
	for i, n := range lengths {
		buf := make([]byte, n)
		for j := range buf {
			if args[2] == "binary" {
				buf[j] = byte(s.rng.Intn(255) + 1)
			} else {
				buf[j] = pool[s.rng.Intn(len(pool))]
			}
		}
		vals[i] = string(buf)
	}
	offsets, bytes := segmentStrings(vals)
	offDesc := s.put(&entry{dtype: granite.Int64, data: offsets})
	bytDesc := s.put(&entry{dtype: granite.UInt8, data: bytes})
	return offDesc + granite.CompositeDelim + bytDesc, nil, nil
}
