// © Copyright 2025-2026, Granite Data - https://granite-data.dev
// SPDX-License-Identifier: Apache-2.0

package granite

import "context"

// RoundTripHook provides observability callpoints around each client round
// trip. Implementations must be safe for concurrent use.
type RoundTripHook interface {
	OnRoundTripStart(ctx context.Context, info RoundTripInfo) (context.Context, HookToken)
	OnRoundTripEnd(ctx context.Context, token HookToken, info RoundTripInfo, stats *CallStatistics, err error)
}

// HookToken is an opaque value returned by OnRoundTripStart and passed back
// to OnRoundTripEnd. Only meaningful to the RoundTripHook that created it.
type HookToken interface{}

// RoundTripInfo carries per-round-trip metadata passed to hooks.
type RoundTripInfo struct {
	Cmd       string // protocol command name
	RequestID string // client-generated request identifier
}

// CallStatistics holds per-round-trip I/O counters.
type CallStatistics struct {
	RequestBytes int64 // binary payload bytes uploaded
	ReplyBytes   int64 // binary payload bytes downloaded
}
