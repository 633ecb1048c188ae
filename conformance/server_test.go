// © Copyright 2025-2026, Granite Data - https://granite-data.dev
// SPDX-License-Identifier: Apache-2.0

package conformance

import (
	"context"
	"net"
	"net/http/httptest"
	"reflect"
	"testing"

	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/granite-data/granite-go/granite"
)

// exerciseClient runs the same round trips against any transport so the
// local, conn, and HTTP front ends all answer identically.
func exerciseClient(t *testing.T, c *granite.Client) {
	t.Helper()
	ctx := context.Background()

	obj, err := c.Array(ctx, []int64{5, -2, 8})
	require.NoError(t, err)
	h := obj.(*granite.ArrayHandle)

	arr, err := c.Fetch(ctx, h)
	require.NoError(t, err)
	defer arr.Release()
	assert.Equal(t, []int64{5, -2, 8}, arr.(*array.Int64).Int64Values())

	// Remote errors keep their type across the transport.
	_, err = c.Arange(ctx, -3)
	assert.NoError(t, err)
	_, err = c.Zeros(ctx, -1, granite.Int64)
	assert.Equal(t, granite.ValueError, granite.ErrorType(err))

	cfg, err := c.GetConfig(ctx)
	require.NoError(t, err)
	assert.Equal(t, granite.ProtocolVersion, cfg["protocolVersion"])
}

func TestLocalTransport(t *testing.T) {
	s := NewServer(1)
	exerciseClient(t, granite.NewClient(s.Local()))
}

func TestConnTransport(t *testing.T) {
	s := NewServer(1)
	clientConn, serverConn := net.Pipe()
	defer clientConn.Close()
	go func() {
		defer serverConn.Close()
		s.Serve(serverConn, serverConn)
	}()
	exerciseClient(t, granite.NewClient(granite.NewConnTransport(clientConn)))
}

func TestHTTPTransport(t *testing.T) {
	s := NewServer(1)
	srv := httptest.NewServer(s)
	defer srv.Close()
	exerciseClient(t, granite.NewClient(granite.NewHTTPTransport(srv.URL)))
}

func TestConnTransportLargePayload(t *testing.T) {
	// Payloads above the compression threshold take the zstd path.
	s := NewServer(1)
	clientConn, serverConn := net.Pipe()
	defer clientConn.Close()
	go func() {
		defer serverConn.Close()
		s.Serve(serverConn, serverConn)
	}()
	c := granite.NewClient(granite.NewConnTransport(clientConn))
	ctx := context.Background()

	in := make([]int64, 4096)
	for i := range in {
		in[i] = int64(i * 3)
	}
	obj, err := c.Array(ctx, in)
	require.NoError(t, err)

	arr, err := c.Fetch(ctx, obj.(*granite.ArrayHandle))
	require.NoError(t, err)
	defer arr.Release()
	assert.Equal(t, in, arr.(*array.Int64).Int64Values())
}

func TestDispatchUnknownCommand(t *testing.T) {
	s := NewServer(1)
	_, _, err := s.Dispatch(context.Background(), "frobnicate", nil, nil)
	assert.Equal(t, granite.RuntimeError, granite.ErrorType(err))
}

func TestArangeBounds(t *testing.T) {
	// The raw command keeps the legacy descending bound: iteration runs
	// while i > stop-2, so a caller-compensated stop of 2 yields [5..1].
	s := NewServer(1)
	text, _, err := s.Dispatch(context.Background(), granite.CmdArange, []string{"5", "2", "-1"}, nil)
	require.NoError(t, err)
	d, err := granite.ParseDescriptor(text)
	require.NoError(t, err)
	assert.Equal(t, int64(5), d.Size)

	s.mu.Lock()
	vals := s.arrays[d.Name].data.([]int64)
	s.mu.Unlock()
	assert.Equal(t, []int64{5, 4, 3, 2, 1}, vals)
}

func TestGroupSlice(t *testing.T) {
	perm, segs, uniq := groupSlice([]int64{3, 1, 3, 2, 1, 3})
	if !reflect.DeepEqual(perm, []int64{1, 4, 3, 0, 2, 5}) {
		t.Errorf("perm = %v", perm)
	}
	if !reflect.DeepEqual(segs, []int64{0, 2, 3}) {
		t.Errorf("segs = %v", segs)
	}
	if !reflect.DeepEqual(uniq, []int64{1, 2, 3}) {
		t.Errorf("uniq = %v", uniq)
	}

	fperm, fsegs, funiq := groupSlice([]float64{})
	if len(fperm) != 0 || len(fsegs) != 0 || len(funiq) != 0 {
		t.Error("grouping an empty slice must be empty")
	}
}

func TestBroadcastSlice(t *testing.T) {
	// Two segments over four sorted positions scattered by perm.
	out, err := broadcastSlice([]int64{0, 2}, []float64{1.5, 2.5}, []int64{3, 1, 0, 2}, 4)
	require.NoError(t, err)
	assert.Equal(t, []float64{2.5, 1.5, 2.5, 1.5}, out)

	_, err = broadcastSlice([]int64{0}, []float64{1, 2}, []int64{0}, 1)
	assert.Error(t, err)
}

func TestStringsEntriesRoundTrip(t *testing.T) {
	offsets, bytes := segmentStrings([]string{"ab", "", "xyz"})
	assert.Equal(t, []int64{0, 3, 4}, offsets)

	vals, err := stringsFromEntries(
		&entry{dtype: granite.Int64, data: offsets},
		&entry{dtype: granite.UInt8, data: bytes},
	)
	require.NoError(t, err)
	assert.Equal(t, []string{"ab", "", "xyz"}, vals)
}

func TestDeleteRespectsRegistry(t *testing.T) {
	s := NewServer(1)
	c := granite.NewClient(s.Local())
	ctx := context.Background()

	obj, err := c.Array(ctx, []int64{1, 2})
	require.NoError(t, err)
	h := obj.(*granite.ArrayHandle)
	_, err = c.Register(ctx, h, "pinned")
	require.NoError(t, err)

	// Delete defers while the registry references the array.
	require.NoError(t, h.Destroy(ctx))
	_, err = c.Fetch(ctx, h)
	assert.NoError(t, err)

	_, err = c.Unregister(ctx, "pinned")
	require.NoError(t, err)
	// Now the array is unpinned and a delete takes effect.
	require.NoError(t, h.Destroy(ctx))
	_, err = c.Fetch(ctx, h)
	assert.Error(t, err)
}
