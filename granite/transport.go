// © Copyright 2025-2026, Granite Data - https://granite-data.dev
// SPDX-License-Identifier: Apache-2.0

package granite

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/klauspost/compress/zstd"
)

// Transport is the single primitive the core depends on: one synchronous
// request/reply round trip. Implementations return the raw textual reply
// (plus any trailing binary payload) or fail with a transport error. Remote
// failures reported by the server surface as *ClientError with type
// RuntimeError. The core never manages sockets, retries, or authentication.
type Transport interface {
	Send(ctx context.Context, cmd string, args []string, payload []byte) (*Reply, error)
}

// Reply is the decoded server response to one round trip.
type Reply struct {
	Text    string
	Payload []byte
}

type requestIDKey struct{}

// WithRequestID returns a context carrying a request identifier that
// transports include in frame metadata. The Client sets a fresh UUID per
// round trip; callers normally never need this directly.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

// RequestIDFromContext extracts the request identifier set by WithRequestID,
// or "" if none is set.
func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

// Frame layout: a 4-byte big-endian header length, the JSON header, then the
// payload bytes (zstd-compressed when the header says so). Payloads above
// compressionThreshold are compressed; small payloads are not worth the
// round trip through the encoder.
const (
	compressionThreshold = 4 << 10
	maxHeaderBytes       = 1 << 20
)

// RequestHeader is the JSON header of a request frame.
type RequestHeader struct {
	Version    string   `json:"version"`
	RequestID  string   `json:"request_id,omitempty"`
	Cmd        string   `json:"cmd"`
	Args       []string `json:"args,omitempty"`
	PayloadLen int64    `json:"payload_len"`
	Compressed bool     `json:"compressed,omitempty"`
}

// ReplyHeader is the JSON header of a reply frame. Status is "ok" or
// "error"; for errors, Text carries "<Type>: <message>".
type ReplyHeader struct {
	Status     string `json:"status"`
	RequestID  string `json:"request_id,omitempty"`
	Text       string `json:"text,omitempty"`
	PayloadLen int64  `json:"payload_len"`
	Compressed bool   `json:"compressed,omitempty"`
}

func writeFrame(w io.Writer, header any, payload []byte) error {
	hdr, err := json.Marshal(header)
	if err != nil {
		return fmt.Errorf("encoding frame header: %w", err)
	}
	var lenBuf [4]byte
	binary.BigEndian.PutUint32(lenBuf[:], uint32(len(hdr)))
	if _, err := w.Write(lenBuf[:]); err != nil {
		return err
	}
	if _, err := w.Write(hdr); err != nil {
		return err
	}
	if len(payload) > 0 {
		if _, err := w.Write(payload); err != nil {
			return err
		}
	}
	return nil
}

func readFrame(r io.Reader, header any) ([]byte, error) {
	var lenBuf [4]byte
	if _, err := io.ReadFull(r, lenBuf[:]); err != nil {
		return nil, err
	}
	hdrLen := binary.BigEndian.Uint32(lenBuf[:])
	if hdrLen > maxHeaderBytes {
		return nil, protocolErrorf("frame header length %d exceeds limit", hdrLen)
	}
	hdr := make([]byte, hdrLen)
	if _, err := io.ReadFull(r, hdr); err != nil {
		return nil, fmt.Errorf("reading frame header: %w", err)
	}
	if err := json.Unmarshal(hdr, header); err != nil {
		return nil, protocolErrorf("malformed frame header: %v", err)
	}
	var payloadLen int64
	switch h := header.(type) {
	case *RequestHeader:
		payloadLen = h.PayloadLen
	case *ReplyHeader:
		payloadLen = h.PayloadLen
	}
	if payloadLen == 0 {
		return nil, nil
	}
	payload := make([]byte, payloadLen)
	if _, err := io.ReadFull(r, payload); err != nil {
		return nil, fmt.Errorf("reading frame payload: %w", err)
	}
	return payload, nil
}

// WriteRequestFrame writes one request frame, compressing the payload when
// it is large enough to be worth it. The header's PayloadLen and Compressed
// fields are set here.
func WriteRequestFrame(w io.Writer, enc *zstd.Encoder, h *RequestHeader, payload []byte) error {
	body := payload
	h.Compressed = false
	if enc != nil && len(payload) >= compressionThreshold {
		body = enc.EncodeAll(payload, nil)
		h.Compressed = true
	}
	h.PayloadLen = int64(len(body))
	return writeFrame(w, h, body)
}

// ReadRequestFrame reads one request frame and decompresses the payload if
// needed. Servers use this in their serve loops.
func ReadRequestFrame(r io.Reader, dec *zstd.Decoder) (*RequestHeader, []byte, error) {
	var h RequestHeader
	payload, err := readFrame(r, &h)
	if err != nil {
		return nil, nil, err
	}
	if h.Compressed {
		if dec == nil {
			return nil, nil, protocolErrorf("compressed payload but no decoder configured")
		}
		payload, err = dec.DecodeAll(payload, nil)
		if err != nil {
			return nil, nil, protocolErrorf("decompressing payload: %v", err)
		}
	}
	return &h, payload, nil
}

// WriteReplyFrame writes one reply frame, compressing large payloads.
func WriteReplyFrame(w io.Writer, enc *zstd.Encoder, h *ReplyHeader, payload []byte) error {
	body := payload
	h.Compressed = false
	if enc != nil && len(payload) >= compressionThreshold {
		body = enc.EncodeAll(payload, nil)
		h.Compressed = true
	}
	h.PayloadLen = int64(len(body))
	return writeFrame(w, h, body)
}

// ReadReplyFrame reads one reply frame and decompresses the payload if
// needed.
func ReadReplyFrame(r io.Reader, dec *zstd.Decoder) (*ReplyHeader, []byte, error) {
	var h ReplyHeader
	payload, err := readFrame(r, &h)
	if err != nil {
		return nil, nil, err
	}
	if h.Compressed {
		if dec == nil {
			return nil, nil, protocolErrorf("compressed payload but no decoder configured")
		}
		payload, err = dec.DecodeAll(payload, nil)
		if err != nil {
			return nil, nil, protocolErrorf("decompressing payload: %v", err)
		}
	}
	return &h, payload, nil
}

// remoteError converts a reply frame's error text into a *ClientError.
// The server formats errors as "<Type>: <message>"; anything else is
// surfaced verbatim as a RuntimeError.
func remoteError(text string) error {
	if t, msg, ok := strings.Cut(text, ": "); ok {
		switch t {
		case ValueError, TypeError, ZeroDivisionError, RuntimeError, ProtocolError:
			return &ClientError{Type: t, Message: msg}
		}
	}
	return runtimeError(text)
}

// ConnTransport frames round trips over a single io.ReadWriter (a net.Conn,
// a subprocess pipe pair, ...). Round trips are serialized with a mutex:
// the protocol is strictly request/reply, so concurrent callers take turns
// on the connection.
type ConnTransport struct {
	mu  sync.Mutex
	rw  io.ReadWriter
	enc *zstd.Encoder
	dec *zstd.Decoder
}

// NewConnTransport wraps rw in a framed transport.
func NewConnTransport(rw io.ReadWriter) *ConnTransport {
	enc, _ := zstd.NewWriter(nil)
	dec, _ := zstd.NewReader(nil)
	return &ConnTransport{rw: rw, enc: enc, dec: dec}
}

// Send performs one round trip on the connection.
func (t *ConnTransport) Send(ctx context.Context, cmd string, args []string, payload []byte) (*Reply, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	reqID := RequestIDFromContext(ctx)
	if reqID == "" {
		reqID = uuid.NewString()
	}
	h := &RequestHeader{
		Version:   ProtocolVersion,
		RequestID: reqID,
		Cmd:       cmd,
		Args:      args,
	}
	if err := WriteRequestFrame(t.rw, t.enc, h, payload); err != nil {
		return nil, fmt.Errorf("writing request frame: %w", err)
	}
	rh, body, err := ReadReplyFrame(t.rw, t.dec)
	if err != nil {
		return nil, fmt.Errorf("reading reply frame: %w", err)
	}
	if rh.Status != "ok" {
		return nil, remoteError(rh.Text)
	}
	return &Reply{Text: rh.Text, Payload: body}, nil
}
