// © Copyright 2025-2026, Granite Data - https://granite-data.dev
// SPDX-License-Identifier: Apache-2.0

package granite

import (
	"context"

	"github.com/apache/arrow-go/v18/arrow"
)

// Charset selects the character pool for random string generation.
type Charset string

const (
	CharsetUppercase Charset = "uppercase"
	CharsetLowercase Charset = "lowercase"
	CharsetNumeric   Charset = "numeric"
	CharsetPrintable Charset = "printable"
	CharsetBinary    Charset = "binary"
)

// Array converts a local rank-1 sequence into a server-resident array and
// returns its handle. Accepted inputs: an existing handle (returned
// unchanged), []int64, []uint64, []uint8, []float64, []bool, []string, or an
// arrow.Array of an equivalent type. String input is segmented locally into
// a StringsHandle: per-element UTF-8 byte lengths plus one terminator byte
// each, zero-based cumulative offsets, and a single contiguous bytes buffer,
// created by two recursive numeric uploads.
//
// The payload byte count must stay under the client's transfer limit; the
// guard runs before any packing.
func (c *Client) Array(ctx context.Context, data any) (Object, error) {
	switch v := data.(type) {
	case *ArrayHandle:
		return v, nil
	case *StringsHandle:
		return v, nil
	case []int64:
		return c.createArray(ctx, Int64, int64(len(v)), v)
	case []uint64:
		return c.createArray(ctx, UInt64, int64(len(v)), v)
	case []uint8:
		return c.createArray(ctx, UInt8, int64(len(v)), v)
	case []float64:
		return c.createArray(ctx, Float64, int64(len(v)), v)
	case []bool:
		return c.createArray(ctx, Bool, int64(len(v)), v)
	case []string:
		return c.createStrings(ctx, v)
	case arrow.Array:
		native, err := fromArrow(v)
		if err != nil {
			return nil, err
		}
		return c.Array(ctx, native)
	}
	return nil, typeErrorf("argument must be array-like, got %T", data)
}

// createArray packs a numeric slice and performs the single "array" round
// trip.
func (c *Client) createArray(ctx context.Context, dt DType, size int64, data any) (*ArrayHandle, error) {
	if err := c.checkTransfer(size * int64(dt.ItemSize())); err != nil {
		return nil, err
	}
	payload, err := PackPayload(dt, data)
	if err != nil {
		return nil, err
	}
	reply, err := c.send(ctx, CmdArray, []string{string(dt), formatInt64(size)}, payload)
	if err != nil {
		return nil, err
	}
	return arrayFromDescriptor(c, reply.Text)
}

// createStrings segments local strings into offsets and null-terminated
// bytes, then recurses into two numeric creations.
func (c *Client) createStrings(ctx context.Context, vals []string) (*StringsHandle, error) {
	offsets := make([]int64, len(vals))
	var nbytes int64
	for i, s := range vals {
		offsets[i] = nbytes
		nbytes += int64(len(s)) + 1 // encoded bytes plus null terminator
	}
	if err := c.checkTransfer(nbytes); err != nil {
		return nil, err
	}
	buf := make([]uint8, nbytes)
	for i, s := range vals {
		copy(buf[offsets[i]:], s)
	}
	offHandle, err := c.createArray(ctx, Int64, int64(len(offsets)), offsets)
	if err != nil {
		return nil, err
	}
	bytHandle, err := c.createArray(ctx, UInt8, nbytes, buf)
	if err != nil {
		return nil, err
	}
	return NewStringsHandle(offHandle, bytHandle)
}

// Zeros creates a zero-filled array of the given size and dtype.
func (c *Client) Zeros(ctx context.Context, size int64, dt DType) (*ArrayHandle, error) {
	if size < 0 {
		return nil, valueErrorf("invalid size: %d", size)
	}
	if !IsNumericDType(dt) && dt != Bool {
		return nil, typeErrorf("unsupported dtype %q", dt)
	}
	if dt.ItemSize() == 0 {
		return nil, typeErrorf("unsupported dtype %q", dt)
	}
	reply, err := c.send(ctx, CmdCreate, []string{string(dt), formatInt64(size)}, nil)
	if err != nil {
		return nil, err
	}
	return arrayFromDescriptor(c, reply.Text)
}

// Ones creates a one-filled array: a create round trip followed by a
// server-side fill.
func (c *Client) Ones(ctx context.Context, size int64, dt DType) (*ArrayHandle, error) {
	h, err := c.Zeros(ctx, size, dt)
	if err != nil {
		return nil, err
	}
	if err := h.Fill(ctx, int64(1)); err != nil {
		return nil, err
	}
	return h, nil
}

// ZerosLike creates a zero-filled array with the size and dtype of an
// existing handle. No data is transferred.
func (c *Client) ZerosLike(ctx context.Context, h *ArrayHandle) (*ArrayHandle, error) {
	if h == nil {
		return nil, typeErrorf("handle must not be nil")
	}
	return c.Zeros(ctx, h.Size(), h.DType())
}

// OnesLike creates a one-filled array with the size and dtype of an existing
// handle.
func (c *Client) OnesLike(ctx context.Context, h *ArrayHandle) (*ArrayHandle, error) {
	if h == nil {
		return nil, typeErrorf("handle must not be nil")
	}
	return c.Ones(ctx, h.Size(), h.DType())
}

// Arange creates consecutive int64 values in [start, stop) by stride.
//
//	Arange(ctx, stop)
//	Arange(ctx, start, stop)
//	Arange(ctx, start, stop, stride)
//
// A zero stride is a division-by-zero domain error. For negative strides the
// stop bound sent to the server is adjusted by +2: the server's iteration
// bound runs two steps past the stop value for descending ranges, a known
// quirk of its boundary convention that the client compensates for rather
// than re-deriving the bound. The observable behavior is exact:
// Arange(ctx, 5, 0, -1) yields [5 4 3 2 1].
func (c *Client) Arange(ctx context.Context, args ...int64) (*ArrayHandle, error) {
	var start, stop, stride int64
	switch len(args) {
	case 1:
		start, stop, stride = 0, args[0], 1
	case 2:
		start, stop, stride = args[0], args[1], 1
	case 3:
		start, stop, stride = args[0], args[1], args[2]
	default:
		return nil, typeErrorf("arange takes 1 to 3 arguments, got %d", len(args))
	}
	if stride == 0 {
		return nil, &ClientError{Type: ZeroDivisionError, Message: "division by zero"}
	}
	if stride < 0 {
		stop = stop + 2
	}
	reply, err := c.send(ctx, CmdArange,
		[]string{formatInt64(start), formatInt64(stop), formatInt64(stride)}, nil)
	if err != nil {
		return nil, err
	}
	return arrayFromDescriptor(c, reply.Text)
}

// Linspace creates length evenly spaced float64 points over the closed
// interval [start, stop]. Start and stop travel as fixed-format decimal
// strings so the encoding is precision-stable.
func (c *Client) Linspace(ctx context.Context, start, stop float64, length int64) (*ArrayHandle, error) {
	if length < 0 {
		return nil, valueErrorf("invalid length: %d", length)
	}
	startStr, err := FormatScalar(Float64, start)
	if err != nil {
		return nil, err
	}
	stopStr, err := FormatScalar(Float64, stop)
	if err != nil {
		return nil, err
	}
	reply, err := c.send(ctx, CmdLinspace,
		[]string{startStr, stopStr, formatInt64(length)}, nil)
	if err != nil {
		return nil, err
	}
	return arrayFromDescriptor(c, reply.Text)
}

// Randint draws size values uniformly from [low, high) for integral dtypes
// and [low, high] for floating dtypes. size < 0 or high < low is a domain
// error caught before any round trip.
func (c *Client) Randint(ctx context.Context, low, high float64, size int64, dt DType) (*ArrayHandle, error) {
	if size < 0 || high < low {
		return nil, valueErrorf("incompatible arguments: size=%d low=%v high=%v", size, low, high)
	}
	if dt.ItemSize() == 0 {
		return nil, typeErrorf("unsupported dtype %q", dt)
	}
	lowStr, err := FormatScalar(dt, low)
	if err != nil {
		return nil, err
	}
	highStr, err := FormatScalar(dt, high)
	if err != nil {
		return nil, err
	}
	reply, err := c.send(ctx, CmdRandint,
		[]string{formatInt64(size), string(dt), lowStr, highStr}, nil)
	if err != nil {
		return nil, err
	}
	return arrayFromDescriptor(c, reply.Text)
}

// Uniform draws size float64 values uniformly from [low, high]. It is
// Randint specialized to the floating dtype.
func (c *Client) Uniform(ctx context.Context, size int64, low, high float64) (*ArrayHandle, error) {
	return c.Randint(ctx, low, high, size, Float64)
}

// StandardNormal draws size values from the standard normal distribution.
// For N(mu, sigma^2), rescale locally: sigma*result + mu.
func (c *Client) StandardNormal(ctx context.Context, size int64) (*ArrayHandle, error) {
	if size < 0 {
		return nil, valueErrorf("invalid size: %d", size)
	}
	reply, err := c.send(ctx, CmdRandomNormal, []string{formatInt64(size)}, nil)
	if err != nil {
		return nil, err
	}
	return arrayFromDescriptor(c, reply.Text)
}

// RandomStringsUniform generates size random strings with lengths uniformly
// distributed in [minlen, maxlen] and characters drawn from charset.
func (c *Client) RandomStringsUniform(ctx context.Context, minlen, maxlen, size int64, charset Charset) (*StringsHandle, error) {
	if minlen < 0 || maxlen < minlen || size < 0 {
		return nil, valueErrorf("incompatible arguments: minlen=%d maxlen=%d size=%d", minlen, maxlen, size)
	}
	if charset == "" {
		charset = CharsetUppercase
	}
	reply, err := c.send(ctx, CmdRandomStrings,
		[]string{formatInt64(size), "uniform", string(charset),
			formatInt64(minlen), formatInt64(maxlen)}, nil)
	if err != nil {
		return nil, err
	}
	return stringsFromDescriptor(c, reply.Text)
}

// RandomStringsLognormal generates size random strings whose lengths are
// lognormally distributed with the given log-mean and log-standard
// deviation. logstd must be positive.
func (c *Client) RandomStringsLognormal(ctx context.Context, logmean, logstd float64, size int64, charset Charset) (*StringsHandle, error) {
	if logstd <= 0 || size < 0 {
		return nil, valueErrorf("incompatible arguments: logstd=%v size=%d", logstd, size)
	}
	if charset == "" {
		charset = CharsetUppercase
	}
	logmeanStr, err := FormatScalar(Float64, logmean)
	if err != nil {
		return nil, err
	}
	logstdStr, err := FormatScalar(Float64, logstd)
	if err != nil {
		return nil, err
	}
	reply, err := c.send(ctx, CmdRandomStrings,
		[]string{formatInt64(size), "lognormal", string(charset), logmeanStr, logstdStr}, nil)
	if err != nil {
		return nil, err
	}
	return stringsFromDescriptor(c, reply.Text)
}
