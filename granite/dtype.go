// © Copyright 2025-2026, Granite Data - https://granite-data.dev
// SPDX-License-Identifier: Apache-2.0

package granite

import (
	"strconv"
)

// DType identifies the element type of a server-resident array. The wire
// protocol carries dtype names as text, so the values are the protocol
// names themselves.
type DType string

const (
	Int64   DType = "int64"
	UInt64  DType = "uint64"
	UInt8   DType = "uint8"
	Float64 DType = "float64"
	Bool    DType = "bool"
	// BigInt is a variable-width integer dtype. Handles may refer to bigint
	// arrays (e.g. via attach), but bulk transfer of bigint payloads is not
	// supported by the fixed-width codec.
	BigInt DType = "bigint"
)

// ParseDType validates a dtype name from the wire. Unknown names are a
// protocol error, since they indicate a client/server version mismatch.
func ParseDType(s string) (DType, error) {
	switch DType(s) {
	case Int64, UInt64, UInt8, Float64, Bool, BigInt:
		return DType(s), nil
	}
	return "", protocolErrorf("unrecognized dtype %q", s)
}

// ItemSize returns the width in bytes of one element, or 0 for
// variable-width dtypes.
func (dt DType) ItemSize() int {
	switch dt {
	case Int64, UInt64, Float64:
		return 8
	case UInt8, Bool:
		return 1
	default:
		return 0
	}
}

// IsIntDType reports whether dt is one of the integral dtypes.
func IsIntDType(dt DType) bool {
	switch dt {
	case Int64, UInt64, UInt8, BigInt:
		return true
	}
	return false
}

// IsFloatDType reports whether dt is a floating-point dtype.
func IsFloatDType(dt DType) bool {
	return dt == Float64
}

// IsNumericDType reports whether dt is integral or floating-point.
func IsNumericDType(dt DType) bool {
	return IsIntDType(dt) || IsFloatDType(dt)
}

// FormatScalar renders a scalar value as the fixed-format numeric string the
// server expects for dt. Floats use a fixed 17-digit decimal expansion
// rather than the default shortest form, so the textual encoding does not
// drift with precision or locale.
func FormatScalar(dt DType, v any) (string, error) {
	switch dt {
	case Int64, UInt64, UInt8, BigInt:
		switch n := v.(type) {
		case int64:
			return strconv.FormatInt(n, 10), nil
		case int:
			return strconv.FormatInt(int64(n), 10), nil
		case uint64:
			return strconv.FormatUint(n, 10), nil
		case uint8:
			return strconv.FormatUint(uint64(n), 10), nil
		case float64:
			if n != float64(int64(n)) {
				return "", typeErrorf("value %v is not integral for dtype %s", n, dt)
			}
			return strconv.FormatInt(int64(n), 10), nil
		}
	case Float64:
		switch n := v.(type) {
		case float64:
			return strconv.FormatFloat(n, 'f', 17, 64), nil
		case int64:
			return strconv.FormatFloat(float64(n), 'f', 17, 64), nil
		case int:
			return strconv.FormatFloat(float64(n), 'f', 17, 64), nil
		}
	case Bool:
		if b, ok := v.(bool); ok {
			// Matches the reference client's textual bool encoding.
			if b {
				return "True", nil
			}
			return "False", nil
		}
		switch n := v.(type) {
		case int64:
			return FormatScalar(Bool, n != 0)
		case float64:
			return FormatScalar(Bool, n != 0)
		}
	}
	return "", typeErrorf("cannot format %T as %s", v, dt)
}

// ParseBoolScalar accepts the wire encodings produced by FormatScalar as
// well as Go's own, so servers written against either convention parse.
func ParseBoolScalar(s string) (bool, error) {
	switch s {
	case "True", "true", "1":
		return true, nil
	case "False", "false", "0":
		return false, nil
	}
	return false, protocolErrorf("invalid bool scalar %q", s)
}

func formatInt64(n int64) string { return strconv.FormatInt(n, 10) }

func parseInt64(s string) (int64, error) {
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, protocolErrorf("invalid integer %q", s)
	}
	return n, nil
}

func parseFloat64(s string) (float64, error) {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, protocolErrorf("invalid float %q", s)
	}
	return f, nil
}
