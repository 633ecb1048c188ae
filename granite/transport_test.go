// © Copyright 2025-2026, Granite Data - https://granite-data.dev
// SPDX-License-Identifier: Apache-2.0

package granite

import (
	"bytes"
	"testing"

	"github.com/klauspost/compress/zstd"
)

func newCodecs(t *testing.T) (*zstd.Encoder, *zstd.Decoder) {
	t.Helper()
	enc, err := zstd.NewWriter(nil)
	if err != nil {
		t.Fatal(err)
	}
	dec, err := zstd.NewReader(nil)
	if err != nil {
		t.Fatal(err)
	}
	return enc, dec
}

func TestRequestFrameRoundTrip(t *testing.T) {
	enc, dec := newCodecs(t)

	t.Run("small payload stays uncompressed", func(t *testing.T) {
		var buf bytes.Buffer
		in := &RequestHeader{Version: ProtocolVersion, RequestID: "r1", Cmd: CmdArray, Args: []string{"int64", "2"}}
		payload := []byte{1, 2, 3, 4}
		if err := WriteRequestFrame(&buf, enc, in, payload); err != nil {
			t.Fatalf("WriteRequestFrame failed: %v", err)
		}
		if in.Compressed {
			t.Error("small payload should not be compressed")
		}
		out, body, err := ReadRequestFrame(&buf, dec)
		if err != nil {
			t.Fatalf("ReadRequestFrame failed: %v", err)
		}
		if out.Cmd != CmdArray || out.RequestID != "r1" || len(out.Args) != 2 {
			t.Errorf("header mismatch: %+v", out)
		}
		if !bytes.Equal(body, payload) {
			t.Errorf("payload mismatch: %v", body)
		}
	})

	t.Run("large payload round trips compressed", func(t *testing.T) {
		var buf bytes.Buffer
		payload := bytes.Repeat([]byte{7}, 64<<10)
		in := &RequestHeader{Version: ProtocolVersion, Cmd: CmdArray}
		if err := WriteRequestFrame(&buf, enc, in, payload); err != nil {
			t.Fatalf("WriteRequestFrame failed: %v", err)
		}
		if !in.Compressed {
			t.Error("large payload should be compressed")
		}
		if buf.Len() >= len(payload) {
			t.Errorf("compressed frame (%d bytes) not smaller than payload (%d bytes)", buf.Len(), len(payload))
		}
		_, body, err := ReadRequestFrame(&buf, dec)
		if err != nil {
			t.Fatalf("ReadRequestFrame failed: %v", err)
		}
		if !bytes.Equal(body, payload) {
			t.Error("decompressed payload mismatch")
		}
	})

	t.Run("empty payload", func(t *testing.T) {
		var buf bytes.Buffer
		if err := WriteRequestFrame(&buf, enc, &RequestHeader{Cmd: CmdGetConfig}, nil); err != nil {
			t.Fatalf("WriteRequestFrame failed: %v", err)
		}
		_, body, err := ReadRequestFrame(&buf, dec)
		if err != nil {
			t.Fatalf("ReadRequestFrame failed: %v", err)
		}
		if body != nil {
			t.Errorf("expected nil payload, got %d bytes", len(body))
		}
	})
}

func TestReplyFrameRoundTrip(t *testing.T) {
	enc, dec := newCodecs(t)

	var buf bytes.Buffer
	in := &ReplyHeader{Status: "ok", RequestID: "r2", Text: "created id_1 int64 1 1 [1] 8"}
	if err := WriteReplyFrame(&buf, enc, in, []byte{9}); err != nil {
		t.Fatalf("WriteReplyFrame failed: %v", err)
	}
	out, body, err := ReadReplyFrame(&buf, dec)
	if err != nil {
		t.Fatalf("ReadReplyFrame failed: %v", err)
	}
	if out.Status != "ok" || out.Text != in.Text {
		t.Errorf("header mismatch: %+v", out)
	}
	if !bytes.Equal(body, []byte{9}) {
		t.Errorf("payload mismatch: %v", body)
	}
}

func TestReadFrameRejectsOversizedHeader(t *testing.T) {
	_, dec := newCodecs(t)
	// Header length field claims 2 MiB.
	raw := []byte{0x00, 0x20, 0x00, 0x00}
	_, _, err := ReadRequestFrame(bytes.NewReader(raw), dec)
	if ErrorType(err) != ProtocolError {
		t.Errorf("expected ProtocolError, got %v", err)
	}
}
