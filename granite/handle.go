// © Copyright 2025-2026, Granite Data - https://granite-data.dev
// SPDX-License-Identifier: Apache-2.0

package granite

import "context"

// Object is a client-side reference to any server-resident object kind.
// Each kind declares its type tag (as used in registry replies) and its own
// registration behavior; Register and Attach dispatch through this interface
// rather than switching on concrete types.
type Object interface {
	ObjType() string
	register(ctx context.Context, name string) error
}

// ArrayHandle is an opaque reference to one rank-N numeric array resident on
// the server. The handle caches the array's metadata locally; none of it
// changes after construction. Two handles refer to the same server object
// exactly when their Name values are equal — equality is never structural.
//
// A handle is created only by a successful creation or transform round trip.
// The server-side object lives until Destroy is called, unless it has been
// registered under a durable name, in which case it persists until
// explicitly unregistered.
type ArrayHandle struct {
	c        *Client
	name     string
	dtype    DType
	size     int64
	shape    []int64
	itemsize int
}

func newArrayHandle(c *Client, d *Descriptor) *ArrayHandle {
	return &ArrayHandle{
		c:        c,
		name:     d.Name,
		dtype:    d.DType,
		size:     d.Size,
		shape:    d.Shape,
		itemsize: d.ItemSize,
	}
}

// arrayFromDescriptor decodes a descriptor reply into a handle.
func arrayFromDescriptor(c *Client, text string) (*ArrayHandle, error) {
	d, err := ParseDescriptor(text)
	if err != nil {
		return nil, err
	}
	return newArrayHandle(c, d), nil
}

// Name returns the server-assigned identifier of the backing object.
func (h *ArrayHandle) Name() string { return h.name }

// DType returns the element type.
func (h *ArrayHandle) DType() DType { return h.dtype }

// Size returns the total element count.
func (h *ArrayHandle) Size() int64 { return h.size }

// NDim returns the rank.
func (h *ArrayHandle) NDim() int { return len(h.shape) }

// Shape returns a copy of the per-dimension extents.
func (h *ArrayHandle) Shape() []int64 {
	out := make([]int64, len(h.shape))
	copy(out, h.shape)
	return out
}

// ItemSize returns the bytes per element.
func (h *ArrayHandle) ItemSize() int { return h.itemsize }

// NBytes returns the total byte size of the backing array.
func (h *ArrayHandle) NBytes() int64 { return h.size * int64(h.itemsize) }

// Same reports whether h and other name the same server object.
func (h *ArrayHandle) Same(other *ArrayHandle) bool {
	return other != nil && h.name == other.name
}

// ObjType returns the registry type tag for plain arrays.
func (h *ArrayHandle) ObjType() string { return ObjTypePDArray }

// Fill sets every element of the server-side array to value. This is a
// server-side effect on the referenced object; the local handle is
// unchanged.
func (h *ArrayHandle) Fill(ctx context.Context, value any) error {
	s, err := FormatScalar(h.dtype, value)
	if err != nil {
		return err
	}
	_, err = h.c.send(ctx, CmdSet, []string{h.name, string(h.dtype), s}, nil)
	return err
}

// Destroy requests server-side deallocation of the backing object. The
// handle must not be used afterwards. Objects registered under a durable
// name survive Destroy and persist until unregistered.
func (h *ArrayHandle) Destroy(ctx context.Context) error {
	_, err := h.c.send(ctx, CmdDelete, []string{h.name}, nil)
	return err
}

func (h *ArrayHandle) register(ctx context.Context, name string) error {
	_, err := h.c.send(ctx, CmdRegister,
		[]string{name, ObjTypePDArray, h.name}, nil)
	return err
}

// StringsHandle is a composite reference to an array of strings, built from
// exactly two ArrayHandles: offsets (monotonically non-decreasing, starting
// at 0, one per logical string) and bytes (the encoded character data, with
// a null terminator ending each segment). The length of string i is
// offsets[i+1] - offsets[i] - 1, with the final segment bounded by the bytes
// array's size.
type StringsHandle struct {
	offsets *ArrayHandle
	bytes   *ArrayHandle
}

// NewStringsHandle builds the composite from its two constituent handles,
// validating their dtypes.
func NewStringsHandle(offsets, bytes *ArrayHandle) (*StringsHandle, error) {
	if offsets.DType() != Int64 {
		return nil, typeErrorf("strings offsets must be int64, got %s", offsets.DType())
	}
	if bytes.DType() != UInt8 {
		return nil, typeErrorf("strings bytes must be uint8, got %s", bytes.DType())
	}
	return &StringsHandle{offsets: offsets, bytes: bytes}, nil
}

// stringsFromDescriptor decodes a composite "offsets+bytes" reply.
func stringsFromDescriptor(c *Client, text string) (*StringsHandle, error) {
	parts, err := SplitComposite(text, 2)
	if err != nil {
		return nil, err
	}
	offsets, err := arrayFromDescriptor(c, parts[0])
	if err != nil {
		return nil, err
	}
	bytes, err := arrayFromDescriptor(c, parts[1])
	if err != nil {
		return nil, err
	}
	return NewStringsHandle(offsets, bytes)
}

// Size returns the number of logical strings.
func (s *StringsHandle) Size() int64 { return s.offsets.Size() }

// NBytes returns the total size of the encoded bytes array.
func (s *StringsHandle) NBytes() int64 { return s.bytes.Size() }

// Offsets returns the handle of the segment-offsets array.
func (s *StringsHandle) Offsets() *ArrayHandle { return s.offsets }

// Bytes returns the handle of the encoded-bytes array.
func (s *StringsHandle) Bytes() *ArrayHandle { return s.bytes }

// ObjType returns the registry type tag for string arrays.
func (s *StringsHandle) ObjType() string { return ObjTypeStrings }

// Destroy requests deallocation of both constituent arrays.
func (s *StringsHandle) Destroy(ctx context.Context) error {
	if err := s.offsets.Destroy(ctx); err != nil {
		return err
	}
	return s.bytes.Destroy(ctx)
}

func (s *StringsHandle) register(ctx context.Context, name string) error {
	_, err := s.offsets.c.send(ctx, CmdRegister,
		[]string{name, ObjTypeStrings, s.offsets.name, s.bytes.name}, nil)
	return err
}
