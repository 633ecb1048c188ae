// © Copyright 2025-2026, Granite Data - https://granite-data.dev
// SPDX-License-Identifier: Apache-2.0

// Package benchmark measures client round-trip cost over the in-process and
// framed transports against the reference server.
package benchmark

import (
	"context"
	"net"
	"testing"

	"github.com/granite-data/granite-go/conformance"
	"github.com/granite-data/granite-go/granite"
)

func localClient() *granite.Client {
	return granite.NewClient(conformance.NewServer(1).Local())
}

func connClient(b *testing.B) *granite.Client {
	b.Helper()
	s := conformance.NewServer(1)
	clientConn, serverConn := net.Pipe()
	b.Cleanup(func() { clientConn.Close() })
	go func() {
		defer serverConn.Close()
		s.Serve(serverConn, serverConn)
	}()
	return granite.NewClient(granite.NewConnTransport(clientConn))
}

func benchArrayUpload(b *testing.B, c *granite.Client, n int) {
	ctx := context.Background()
	data := make([]int64, n)
	for i := range data {
		data[i] = int64(i)
	}
	b.SetBytes(int64(n * 8))
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := c.Array(ctx, data); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkArrayUploadLocal1K(b *testing.B)  { benchArrayUpload(b, localClient(), 1<<10) }
func BenchmarkArrayUploadLocal64K(b *testing.B) { benchArrayUpload(b, localClient(), 1<<16) }
func BenchmarkArrayUploadConn64K(b *testing.B)  { benchArrayUpload(b, connClient(b), 1<<16) }

func BenchmarkFetchLocal64K(b *testing.B) {
	c := localClient()
	ctx := context.Background()
	h, err := c.Arange(ctx, 1<<16)
	if err != nil {
		b.Fatal(err)
	}
	b.SetBytes(h.NBytes())
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		arr, err := c.Fetch(ctx, h)
		if err != nil {
			b.Fatal(err)
		}
		arr.Release()
	}
}

func BenchmarkGroupByLocal(b *testing.B) {
	c := localClient()
	ctx := context.Background()
	keys, err := c.Randint(ctx, 0, 64, 1<<14, granite.Int64)
	if err != nil {
		b.Fatal(err)
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := c.NewGroupBy(ctx, keys); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkGetConfigConn(b *testing.B) {
	c := connClient(b)
	ctx := context.Background()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := c.GetConfig(ctx); err != nil {
			b.Fatal(err)
		}
	}
}
