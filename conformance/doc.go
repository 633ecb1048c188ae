// © Copyright 2025-2026, Granite Data - https://granite-data.dev
// SPDX-License-Identifier: Apache-2.0

// Package conformance provides an in-memory reference server implementing
// the granite array protocol. It answers every command the client issues —
// creation, bulk transfer, fill, registry operations, grouping, broadcast
// and the sparse helpers — against plain Go slices, so the full client
// surface can be exercised in-process or over a real transport without a
// distributed backend.
//
// The entry points are [NewServer] plus one of three front ends:
// [Server.Local] for an in-process [granite.Transport], [Server.Serve] for a
// framed byte stream (a net.Conn or a stdio pipe pair), and the
// http.Handler implementation for HTTP POST round trips.
//
// The server reproduces the reference backend's observable quirks exactly,
// including the descending-arange iteration bound, so conformance runs
// against this package and against a real deployment agree.
package conformance
