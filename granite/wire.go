// © Copyright 2025-2026, Granite Data - https://granite-data.dev
// SPDX-License-Identifier: Apache-2.0

package granite

import (
	"encoding/binary"
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// Descriptor is the parsed form of a handle descriptor reply:
//
//	created <name> <dtype> <size> <ndim> [d1,d2,...] <itemsize>
//
// Replies that refer to a server-resident array always arrive in this shape.
// Composite replies join two or more descriptors with CompositeDelim.
type Descriptor struct {
	Name     string
	DType    DType
	Size     int64
	Shape    []int64
	ItemSize int
}

// ParseDescriptor decodes one handle descriptor. Any deviation from the
// expected field count or shapes is a protocol error.
func ParseDescriptor(s string) (*Descriptor, error) {
	fields := strings.Fields(strings.TrimSpace(s))
	if len(fields) != 7 || fields[0] != "created" {
		return nil, protocolErrorf("malformed descriptor %q", s)
	}
	dt, err := ParseDType(fields[2])
	if err != nil {
		return nil, err
	}
	size, err := parseInt64(fields[3])
	if err != nil {
		return nil, err
	}
	ndim, err := parseInt64(fields[4])
	if err != nil {
		return nil, err
	}
	shape, err := parseShape(fields[5])
	if err != nil {
		return nil, err
	}
	if int64(len(shape)) != ndim {
		return nil, protocolErrorf("descriptor ndim %d does not match shape %v", ndim, shape)
	}
	itemsize, err := parseInt64(fields[6])
	if err != nil {
		return nil, err
	}
	if prod(shape) != size {
		return nil, protocolErrorf("descriptor size %d does not match shape %v", size, shape)
	}
	return &Descriptor{
		Name:     fields[1],
		DType:    dt,
		Size:     size,
		Shape:    shape,
		ItemSize: int(itemsize),
	}, nil
}

// String renders the descriptor in its wire form. Servers use this to build
// creation replies.
func (d *Descriptor) String() string {
	parts := make([]string, len(d.Shape))
	for i, v := range d.Shape {
		parts[i] = formatInt64(v)
	}
	return "created " + d.Name + " " + string(d.DType) + " " +
		formatInt64(d.Size) + " " + formatInt64(int64(len(d.Shape))) +
		" [" + strings.Join(parts, ",") + "] " + formatInt64(int64(d.ItemSize))
}

func parseShape(s string) ([]int64, error) {
	if len(s) < 2 || s[0] != '[' || s[len(s)-1] != ']' {
		return nil, protocolErrorf("malformed shape %q", s)
	}
	body := s[1 : len(s)-1]
	if body == "" {
		return []int64{}, nil
	}
	parts := strings.Split(body, ",")
	shape := make([]int64, len(parts))
	for i, p := range parts {
		v, err := strconv.ParseInt(strings.TrimSpace(p), 10, 64)
		if err != nil || v < 0 {
			return nil, protocolErrorf("malformed shape %q", s)
		}
		shape[i] = v
	}
	return shape, nil
}

func prod(shape []int64) int64 {
	p := int64(1)
	for _, d := range shape {
		p *= d
	}
	return p
}

// SplitComposite splits a delimiter-joined composite reply into exactly n
// descriptors. A wrong part count is a protocol error: it means the client
// and server disagree about the reply shape.
func SplitComposite(s string, n int) ([]string, error) {
	parts := strings.Split(s, CompositeDelim)
	if len(parts) != n {
		return nil, protocolErrorf("expected %d descriptors joined by %q, got %d in %q",
			n, CompositeDelim, len(parts), s)
	}
	return parts, nil
}

// AttachReply is the JSON body of an attach reply. ObjType is compared
// case-insensitively against the registered handle kinds; Create carries the
// kind-specific creation payload (one descriptor for arrays, a composite for
// strings).
type AttachReply struct {
	ObjType string `json:"objType"`
	Create  string `json:"create"`
}

// ParseAttachReply decodes the JSON attach reply.
func ParseAttachReply(text string) (*AttachReply, error) {
	var rep AttachReply
	if err := json.Unmarshal([]byte(text), &rep); err != nil {
		return nil, protocolErrorf("malformed attach reply %q: %v", text, err)
	}
	if rep.ObjType == "" {
		return nil, protocolErrorf("attach reply %q missing objType", text)
	}
	return &rep, nil
}

// PackPayload encodes a local slice into the server's byte layout for dt:
// big-endian fixed-width elements in input order. Bool elements are one byte
// (0 or 1); uint8 is a raw byte run. The supported slice types are []int64,
// []uint64, []uint8, []float64 and []bool.
func PackPayload(dt DType, data any) ([]byte, error) {
	switch dt {
	case Int64:
		vals, ok := data.([]int64)
		if !ok {
			return nil, typeErrorf("expected []int64 for dtype %s, got %T", dt, data)
		}
		buf := make([]byte, 8*len(vals))
		for i, v := range vals {
			binary.BigEndian.PutUint64(buf[8*i:], uint64(v))
		}
		return buf, nil
	case UInt64:
		vals, ok := data.([]uint64)
		if !ok {
			return nil, typeErrorf("expected []uint64 for dtype %s, got %T", dt, data)
		}
		buf := make([]byte, 8*len(vals))
		for i, v := range vals {
			binary.BigEndian.PutUint64(buf[8*i:], v)
		}
		return buf, nil
	case Float64:
		vals, ok := data.([]float64)
		if !ok {
			return nil, typeErrorf("expected []float64 for dtype %s, got %T", dt, data)
		}
		buf := make([]byte, 8*len(vals))
		for i, v := range vals {
			binary.BigEndian.PutUint64(buf[8*i:], math.Float64bits(v))
		}
		return buf, nil
	case UInt8:
		vals, ok := data.([]uint8)
		if !ok {
			return nil, typeErrorf("expected []uint8 for dtype %s, got %T", dt, data)
		}
		buf := make([]byte, len(vals))
		copy(buf, vals)
		return buf, nil
	case Bool:
		vals, ok := data.([]bool)
		if !ok {
			return nil, typeErrorf("expected []bool for dtype %s, got %T", dt, data)
		}
		buf := make([]byte, len(vals))
		for i, v := range vals {
			if v {
				buf[i] = 1
			}
		}
		return buf, nil
	}
	return nil, typeErrorf("dtype %s does not support bulk transfer", dt)
}

// UnpackPayload decodes a binary payload into the slice type matching dt
// ([]int64, []uint64, []uint8, []float64 or []bool). A payload whose length
// is not a multiple of the element width is a protocol error.
func UnpackPayload(dt DType, data []byte) (any, error) {
	itemsize := dt.ItemSize()
	if itemsize == 0 {
		return nil, typeErrorf("dtype %s does not support bulk transfer", dt)
	}
	if len(data)%itemsize != 0 {
		return nil, protocolErrorf("payload length %d is not a multiple of itemsize %d for %s",
			len(data), itemsize, dt)
	}
	n := len(data) / itemsize
	switch dt {
	case Int64:
		vals := make([]int64, n)
		for i := range vals {
			vals[i] = int64(binary.BigEndian.Uint64(data[8*i:]))
		}
		return vals, nil
	case UInt64:
		vals := make([]uint64, n)
		for i := range vals {
			vals[i] = binary.BigEndian.Uint64(data[8*i:])
		}
		return vals, nil
	case Float64:
		vals := make([]float64, n)
		for i := range vals {
			vals[i] = math.Float64frombits(binary.BigEndian.Uint64(data[8*i:]))
		}
		return vals, nil
	case UInt8:
		vals := make([]uint8, n)
		copy(vals, data)
		return vals, nil
	case Bool:
		vals := make([]bool, n)
		for i, b := range data {
			vals[i] = b != 0
		}
		return vals, nil
	}
	return nil, protocolErrorf("unrecognized dtype %q", dt)
}
