// © Copyright 2025-2026, Granite Data - https://granite-data.dev
// SPDX-License-Identifier: Apache-2.0

package granite

import (
	"errors"
	"fmt"
)

// ErrClient is a sentinel for use with errors.Is to check whether any error
// in a chain is a *ClientError.
var ErrClient = &ClientError{}

// Error type tags carried by ClientError. They mirror the protocol's error
// taxonomy: the first three are local validation errors raised before any
// round trip, TransferLimitError is raised by the transfer guard,
// ProtocolError indicates a malformed or unrecognized reply, and
// RuntimeError carries a server-reported failure verbatim.
const (
	ValueError         = "ValueError"
	TypeError          = "TypeError"
	ZeroDivisionError  = "ZeroDivisionError"
	TransferLimitError = "TransferLimitError"
	ProtocolError      = "ProtocolError"
	RuntimeError       = "RuntimeError"
)

// ClientError represents an error in the granite protocol client.
type ClientError struct {
	Type    string // e.g. "ValueError", "ProtocolError"
	Message string
}

func (e *ClientError) Error() string {
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Is supports errors.Is by matching any *ClientError target.
func (e *ClientError) Is(target error) bool {
	_, ok := target.(*ClientError)
	return ok
}

// ErrorType returns the type tag of the first *ClientError in err's chain,
// or "" if there is none.
func ErrorType(err error) string {
	var ce *ClientError
	if errors.As(err, &ce) {
		return ce.Type
	}
	return ""
}

func valueErrorf(format string, args ...any) error {
	return &ClientError{Type: ValueError, Message: fmt.Sprintf(format, args...)}
}

func typeErrorf(format string, args ...any) error {
	return &ClientError{Type: TypeError, Message: fmt.Sprintf(format, args...)}
}

func protocolErrorf(format string, args ...any) error {
	return &ClientError{Type: ProtocolError, Message: fmt.Sprintf(format, args...)}
}

func runtimeError(msg string) error {
	return &ClientError{Type: RuntimeError, Message: msg}
}

func transferLimitErrorf(format string, args ...any) error {
	return &ClientError{Type: TransferLimitError, Message: fmt.Sprintf(format, args...)}
}
