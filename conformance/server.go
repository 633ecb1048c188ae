// © Copyright 2025-2026, Granite Data - https://granite-data.dev
// SPDX-License-Identifier: Apache-2.0

package conformance

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"syscall"

	"github.com/klauspost/compress/zstd"

	"github.com/granite-data/granite-go/granite"
)

// handlerFunc answers one command: the textual reply plus an optional
// binary payload.
type handlerFunc func(args []string, payload []byte) (string, []byte, error)

// registration is one durable registry binding: the object's type tag plus
// the server names of its constituent arrays.
type registration struct {
	objType    string
	components []string
}

// Server is the in-memory reference backend. All state lives behind one
// mutex; commands are short and CPU-bound, so finer locking buys nothing
// here.
type Server struct {
	mu       sync.Mutex
	arrays   map[string]*entry
	registry map[string]*registration
	rng      *rand.Rand
	nextID   uint64

	handlers map[string]handlerFunc
	enc      *zstd.Encoder
	dec      *zstd.Decoder
}

// NewServer creates a reference server seeded for reproducible random
// generation. Pass a fixed seed in tests; any value works.
func NewServer(seed int64) *Server {
	s := &Server{
		arrays:   make(map[string]*entry),
		registry: make(map[string]*registration),
		rng:      rand.New(rand.NewSource(seed)),
	}
	s.enc, _ = zstd.NewWriter(nil)
	s.dec, _ = zstd.NewReader(nil)
	s.handlers = map[string]handlerFunc{
		granite.CmdArray:         s.handleArray,
		granite.CmdCreate:        s.handleCreate,
		granite.CmdSet:           s.handleSet,
		granite.CmdDelete:        s.handleDelete,
		granite.CmdToNDArray:     s.handleToNDArray,
		granite.CmdArange:        s.handleArange,
		granite.CmdLinspace:      s.handleLinspace,
		granite.CmdRandint:       s.handleRandint,
		granite.CmdRandomNormal:  s.handleRandomNormal,
		granite.CmdRandomStrings: s.handleRandomStrings,
		granite.CmdRegister:      s.handleRegister,
		granite.CmdAttach:        s.handleAttach,
		granite.CmdUnregister:    s.handleUnregister,
		granite.CmdListRegistry:  s.handleListRegistry,
		granite.CmdGetConfig:     s.handleGetConfig,
		granite.CmdUnique:        s.handleUnique,
		granite.CmdCoargsort:     s.handleCoargsort,
		granite.CmdGroupBy:       s.handleGroupBy,
		granite.CmdBroadcast:     s.handleBroadcast,
		granite.CmdBroadcastStrs: s.handleBroadcastStrings,
		granite.CmdSparseSumHelp: s.handleSparseSumHelp,
	}
	return s
}

// Dispatch answers one command. Unknown commands are runtime errors, the
// same way a real backend reports them.
func (s *Server) Dispatch(ctx context.Context, cmd string, args []string, payload []byte) (string, []byte, error) {
	if err := ctx.Err(); err != nil {
		return "", nil, err
	}
	h, ok := s.handlers[cmd]
	if !ok {
		return "", nil, runtimeErrorf("unrecognized command: %s", cmd)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return h(args, payload)
}

// newName mints a fresh server-side identifier. Callers hold s.mu.
func (s *Server) newName() string {
	s.nextID++
	return "id_" + strconv.FormatUint(s.nextID, 10)
}

// put stores an entry under a fresh name and returns its descriptor reply.
func (s *Server) put(e *entry) string {
	name := s.newName()
	s.arrays[name] = e
	d := granite.Descriptor{
		Name:     name,
		DType:    e.dtype,
		Size:     e.size(),
		Shape:    []int64{e.size()},
		ItemSize: e.dtype.ItemSize(),
	}
	return d.String()
}

// lookup resolves a name to its entry. Callers hold s.mu.
func (s *Server) lookup(name string) (*entry, error) {
	e, ok := s.arrays[name]
	if !ok {
		return nil, runtimeErrorf("array not found: %s", name)
	}
	return e, nil
}

func (s *Server) descriptorFor(name string) (string, error) {
	e, err := s.lookup(name)
	if err != nil {
		return "", err
	}
	d := granite.Descriptor{
		Name:     name,
		DType:    e.dtype,
		Size:     e.size(),
		Shape:    []int64{e.size()},
		ItemSize: e.dtype.ItemSize(),
	}
	return d.String(), nil
}

// errorText formats err the way reply frames carry it: "<Type>: <message>".
func errorText(err error) string {
	var ce *granite.ClientError
	if errors.As(err, &ce) {
		return ce.Type + ": " + ce.Message
	}
	return granite.RuntimeError + ": " + err.Error()
}

// Serve runs the framed request/reply loop on the given reader/writer pair
// until the peer closes the stream.
func (s *Server) Serve(r io.Reader, w io.Writer) {
	s.ServeWithContext(context.Background(), r, w)
}

// ServeWithContext runs the serve loop with a context checked per request.
func (s *Server) ServeWithContext(ctx context.Context, r io.Reader, w io.Writer) {
	for {
		if err := s.serveOne(ctx, r, w); err != nil {
			if err == io.EOF {
				return
			}
			// Only log unexpected errors (not broken pipe / connection reset)
			if !isTransportClosed(err) {
				slog.Error("serve loop error", "err", err)
			}
			return
		}
	}
}

func (s *Server) serveOne(ctx context.Context, r io.Reader, w io.Writer) error {
	req, payload, err := granite.ReadRequestFrame(r, s.dec)
	if err != nil {
		return err
	}
	text, replyPayload, handlerErr := s.Dispatch(ctx, req.Cmd, req.Args, payload)
	h := &granite.ReplyHeader{Status: "ok", RequestID: req.RequestID, Text: text}
	if handlerErr != nil {
		h.Status = "error"
		h.Text = errorText(handlerErr)
		replyPayload = nil
	}
	return granite.WriteReplyFrame(w, s.enc, h, replyPayload)
}

func isTransportClosed(err error) bool {
	return errors.Is(err, io.ErrClosedPipe) ||
		errors.Is(err, io.ErrUnexpectedEOF) ||
		errors.Is(err, syscall.EPIPE) ||
		errors.Is(err, syscall.ECONNRESET) ||
		strings.Contains(err.Error(), "use of closed network connection")
}

// localTransport answers round trips by calling Dispatch directly. No
// framing, no sockets; used for in-process tests and examples.
type localTransport struct {
	s *Server
}

// Local returns an in-process granite.Transport backed by this server.
func (s *Server) Local() granite.Transport {
	return &localTransport{s: s}
}

func (t *localTransport) Send(ctx context.Context, cmd string, args []string, payload []byte) (*granite.Reply, error) {
	text, replyPayload, err := t.s.Dispatch(ctx, cmd, args, payload)
	if err != nil {
		return nil, err
	}
	return &granite.Reply{Text: text, Payload: replyPayload}, nil
}

// ServeHTTP answers one round trip per POST: a request frame in the body, a
// reply frame in the response.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	req, payload, err := granite.ReadRequestFrame(r.Body, s.dec)
	if err != nil {
		http.Error(w, fmt.Sprintf("malformed request frame: %v", err), http.StatusBadRequest)
		return
	}
	text, replyPayload, handlerErr := s.Dispatch(r.Context(), req.Cmd, req.Args, payload)
	h := &granite.ReplyHeader{Status: "ok", RequestID: req.RequestID, Text: text}
	if handlerErr != nil {
		h.Status = "error"
		h.Text = errorText(handlerErr)
		replyPayload = nil
	}
	w.Header().Set("Content-Type", granite.ContentTypeFrame)
	if err := granite.WriteReplyFrame(w, s.enc, h, replyPayload); err != nil {
		slog.Error("writing reply frame", "err", err)
	}
}

// Error helpers matching the protocol's error vocabulary.

func valueErrorf(format string, args ...any) error {
	return &granite.ClientError{Type: granite.ValueError, Message: fmt.Sprintf(format, args...)}
}

func typeErrorf(format string, args ...any) error {
	return &granite.ClientError{Type: granite.TypeError, Message: fmt.Sprintf(format, args...)}
}

func runtimeErrorf(format string, args ...any) error {
	return &granite.ClientError{Type: granite.RuntimeError, Message: fmt.Sprintf(format, args...)}
}

func parseInt(s string) (int64, error) {
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, valueErrorf("invalid integer %q", s)
	}
	return v, nil
}

func parseFloat(s string) (float64, error) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, valueErrorf("invalid float %q", s)
	}
	return v, nil
}

// wantArgs checks the positional argument count for a command.
func wantArgs(cmd string, args []string, n int) error {
	if len(args) != n {
		return runtimeErrorf("%s expects %d arguments, got %d", cmd, n, len(args))
	}
	return nil
}
