// © Copyright 2025-2026, Granite Data - https://granite-data.dev
// SPDX-License-Identifier: Apache-2.0

package granite

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync/atomic"

	"github.com/google/uuid"
)

// DefaultMaxTransferBytes is the default bound on any single bulk payload in
// either direction: 1 GiB. The limit protects a low-bandwidth control
// channel from accidental saturation; raising it is a deliberate caller
// action via SetMaxTransferBytes, never automatic.
const DefaultMaxTransferBytes = int64(1) << 30

// Client issues granite protocol round trips through a Transport and decodes
// replies into handles. All methods are synchronous: each blocks until its
// round trip (or, for the GroupBy-backed algorithms, its fixed small
// sequence of round trips) completes.
//
// The transfer limit is the only mutable state; it is read atomically at the
// moment of each check, so concurrent adjustment is racy but never corrupting.
type Client struct {
	t                Transport
	maxTransferBytes atomic.Int64
	hook             RoundTripHook
}

// NewClient creates a client on the given transport with the default
// transfer limit.
func NewClient(t Transport) *Client {
	c := &Client{t: t}
	c.maxTransferBytes.Store(DefaultMaxTransferBytes)
	return c
}

// MaxTransferBytes returns the current bulk transfer limit in bytes.
func (c *Client) MaxTransferBytes() int64 {
	return c.maxTransferBytes.Load()
}

// SetMaxTransferBytes sets the bulk transfer limit in bytes.
func (c *Client) SetMaxTransferBytes(n int64) {
	c.maxTransferBytes.Store(n)
}

// SetRoundTripHook installs a hook called around every round trip.
func (c *Client) SetRoundTripHook(hook RoundTripHook) {
	c.hook = hook
}

// checkTransfer is the transfer guard: it runs before packing any upload and
// before requesting any bulk download. It fails fast rather than attempting
// a partial or retried transfer.
func (c *Client) checkTransfer(nbytes int64) error {
	limit := c.maxTransferBytes.Load()
	if nbytes > limit {
		return transferLimitErrorf(
			"transfer of %d bytes exceeds the %d byte limit; raise it with SetMaxTransferBytes to force",
			nbytes, limit)
	}
	return nil
}

// send performs one round trip, invoking the round-trip hook around it.
func (c *Client) send(ctx context.Context, cmd string, args []string, payload []byte) (*Reply, error) {
	info := RoundTripInfo{Cmd: cmd, RequestID: uuid.NewString()}
	ctx = WithRequestID(ctx, info.RequestID)

	var token HookToken
	hook := c.hook
	if hook != nil {
		// Hooks are observability only; a panicking hook must not take the
		// round trip down with it.
		func() {
			defer func() {
				if rv := recover(); rv != nil {
					slog.Error("round trip hook start panic", "err", rv)
				}
			}()
			var hookCtx context.Context
			hookCtx, token = hook.OnRoundTripStart(ctx, info)
			if hookCtx != nil {
				ctx = hookCtx
			}
		}()
	}

	reply, err := c.t.Send(ctx, cmd, args, payload)

	if hook != nil {
		stats := &CallStatistics{RequestBytes: int64(len(payload))}
		if reply != nil {
			stats.ReplyBytes = int64(len(reply.Payload))
		}
		func() {
			defer func() {
				if rv := recover(); rv != nil {
					slog.Error("round trip hook end panic", "err", rv)
				}
			}()
			hook.OnRoundTripEnd(ctx, token, info, stats, err)
		}()
	}
	return reply, err
}

// GetConfig fetches the server's configuration as a generic JSON object.
func (c *Client) GetConfig(ctx context.Context) (map[string]any, error) {
	reply, err := c.send(ctx, CmdGetConfig, nil, nil)
	if err != nil {
		return nil, err
	}
	var cfg map[string]any
	if err := json.Unmarshal([]byte(reply.Text), &cfg); err != nil {
		return nil, protocolErrorf("malformed getconfig reply %q: %v", reply.Text, err)
	}
	return cfg, nil
}
