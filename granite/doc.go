// © Copyright 2025-2026, Granite Data - https://granite-data.dev
// SPDX-License-Identifier: Apache-2.0

// Package granite implements the client side of the granite array protocol,
// a request/reply wire protocol for manipulating massive arrays that live on
// a remote distributed compute server.
//
// Every array the caller sees is an opaque handle naming a server-resident
// object. The client never holds bulk data except during explicit transfer;
// what it does hold is the protocol and lifecycle layer: encoding local data
// into wire messages under a configurable transfer budget, decoding server
// replies into typed handles, keeping handle metadata consistent with server
// state, and a small set of algorithms that operate purely on handle
// metadata or on small derived arrays.
//
// # Handles
//
// [ArrayHandle] names one rank-N numeric array on the server and caches its
// dtype, size, shape and element width locally. [StringsHandle] is a
// composite of two ArrayHandles: a monotonically non-decreasing offsets
// array and a null-terminated bytes array. Handles are immutable references
// after construction; operations that "modify in place" (such as
// [ArrayHandle.Fill]) are server-side effects on the referenced object, not
// reinterpretations of the local handle. Two handles are the same array
// exactly when their server names are equal.
//
// # Round trips
//
// Each public operation performs a fixed, small number of synchronous
// request/reply round trips through a [Transport]. The core defines no retry
// policy, no background scheduling, and no caching: repeated calls produce
// independent round trips. Bulk transfers in either direction are bounded by
// [Client.MaxTransferBytes]; exceeding the limit fails deterministically
// before any data moves.
//
// # Wire format
//
// Requests are a textual command plus positional textual arguments, with an
// optional trailing binary payload of big-endian fixed-width elements.
// Replies are text (handle descriptors, JSON for attach and getconfig,
// confirmation strings) with an optional binary payload for downloads.
// Composite replies join two or more descriptors with "+". The codec in
// wire.go parses delimited text into typed descriptors immediately; raw
// delimited text never passes the codec boundary.
//
// # Transports
//
// Two transports ship with the package: [ConnTransport] (length-prefixed
// frames over an io.ReadWriter, with zstd compression of large payloads)
// and [HTTPTransport] (one POST per round trip). Connection establishment,
// authentication and retries belong to the caller.
//
// The conformance package provides an in-memory reference implementation of
// the server side of the protocol for testing and local development.
package granite
