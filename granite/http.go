// © Copyright 2025-2026, Granite Data - https://granite-data.dev
// SPDX-License-Identifier: Apache-2.0

package granite

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/google/uuid"
	"github.com/klauspost/compress/zstd"
)

// ContentTypeFrame is the media type of granite frames carried over HTTP.
const ContentTypeFrame = "application/vnd.granite.frame"

// HTTPTransport performs one POST per round trip. The request body is a
// request frame and the response body is a reply frame, so the wire contract
// is identical to ConnTransport; HTTP supplies connection management and
// (via the caller's http.Client) TLS and authentication.
type HTTPTransport struct {
	// URL is the endpoint requests are POSTed to, e.g.
	// "http://localhost:5555/granite".
	URL string
	// Client is the HTTP client used for requests. Defaults to
	// http.DefaultClient.
	Client *http.Client

	enc *zstd.Encoder
	dec *zstd.Decoder
}

// NewHTTPTransport creates a transport POSTing to url.
func NewHTTPTransport(url string) *HTTPTransport {
	enc, _ := zstd.NewWriter(nil)
	dec, _ := zstd.NewReader(nil)
	return &HTTPTransport{URL: url, enc: enc, dec: dec}
}

// Send performs one round trip over HTTP.
func (t *HTTPTransport) Send(ctx context.Context, cmd string, args []string, payload []byte) (*Reply, error) {
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
	var body bytes.Buffer
	if err := WriteRequestFrame(&body, t.enc, h, payload); err != nil {
		return nil, fmt.Errorf("writing request frame: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, t.URL, &body)
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", ContentTypeFrame)

	client := t.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("http transport: %s: %s", resp.Status, msg)
	}

	rh, replyBody, err := ReadReplyFrame(resp.Body, t.dec)
	if err != nil {
		return nil, fmt.Errorf("reading reply frame: %w", err)
	}
	if rh.Status != "ok" {
		return nil, remoteError(rh.Text)
	}
	return &Reply{Text: rh.Text, Payload: replyBody}, nil
}
