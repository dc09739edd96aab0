package lsp

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/tidwall/gjson"
)

// Transport handles JSON-RPC 2.0 communication over stdio.
// It implements the LSP base protocol with Content-Length headers and
// carries traffic in both directions: requests and notifications from the
// editor are dispatched to a Handler, and the server may issue its own
// requests with Call.
type Transport struct {
	reader *bufio.Reader
	writer io.Writer
	closer io.Closer

	writeMu sync.Mutex

	mu      sync.Mutex
	nextID  atomic.Int64
	pending map[int64]chan *Response

	handler  Handler
	inflight sync.WaitGroup

	closed atomic.Bool
	done   chan struct{}
}

// Handler processes messages sent by the editor.
type Handler interface {
	// HandleRequest answers a request. The result is marshalled into the
	// response; a non-nil error is sent as a JSON-RPC error.
	HandleRequest(ctx context.Context, method string, params json.RawMessage) (any, error)
	// HandleNotification processes a notification.
	HandleNotification(ctx context.Context, method string, params json.RawMessage)
}

// Request represents an outgoing JSON-RPC request or notification.
type Request struct {
	JSONRPC string `json:"jsonrpc"`
	ID      int64  `json:"id,omitempty"`
	Method  string `json:"method"`
	Params  any    `json:"params,omitempty"`
}

// Response represents a JSON-RPC response to a request the server sent.
type Response struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      int64           `json:"id"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *RPCError       `json:"error,omitempty"`
}

// reply is a response to a request the editor sent. The ID is echoed
// verbatim because editors may use string or numeric IDs.
type reply struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *RPCError       `json:"error,omitempty"`
}

// NewTransport creates a new transport over the given connection.
// The conn must support reading and writing (typically stdin/stdout pipes).
func NewTransport(r io.Reader, w io.Writer, c io.Closer) *Transport {
	return &Transport{
		reader:  bufio.NewReaderSize(r, 64*1024),
		writer:  w,
		closer:  c,
		pending: make(map[int64]chan *Response),
		done:    make(chan struct{}),
	}
}

// Serve reads messages until the stream ends, ctx is cancelled, or the
// transport is closed. Each incoming request and notification is handled on
// its own goroutine. Serve closes the transport and waits for in-flight
// handlers before returning. A clean end of stream returns nil.
func (t *Transport) Serve(ctx context.Context, h Handler) error {
	t.handler = h

	ctx, cancel := context.WithCancel(ctx)
	defer func() {
		cancel()
		_ = t.Close()
		t.inflight.Wait()
	}()

	go func() {
		select {
		case <-ctx.Done():
			_ = t.Close()
		case <-t.done:
		}
	}()

	for {
		msg, err := t.readMessage()
		if err != nil {
			if t.closed.Load() {
				return nil
			}
			if errors.Is(err, errMalformedHeader) {
				continue
			}
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrClosedPipe) {
				return nil
			}
			return fmt.Errorf("read message: %w", err)
		}

		t.dispatch(ctx, msg)
	}
}

// Close closes the transport and releases resources.
func (t *Transport) Close() error {
	if t.closed.Swap(true) {
		return nil // Already closed
	}

	close(t.done)

	// Callers waiting on pending channels will receive from t.done instead.
	t.mu.Lock()
	t.pending = make(map[int64]chan *Response)
	t.mu.Unlock()

	if t.closer != nil {
		return t.closer.Close()
	}
	return nil
}

// Done is closed when the transport shuts down.
func (t *Transport) Done() <-chan struct{} {
	return t.done
}

// Call sends a request to the editor and waits for its response.
func (t *Transport) Call(ctx context.Context, method string, params any, result any) error {
	if t.closed.Load() {
		return ErrShutdown
	}

	id := t.nextID.Add(1)
	ch := make(chan *Response, 1)

	t.mu.Lock()
	t.pending[id] = ch
	t.mu.Unlock()

	defer func() {
		t.mu.Lock()
		delete(t.pending, id)
		t.mu.Unlock()
	}()

	req := &Request{
		JSONRPC: "2.0",
		ID:      id,
		Method:  method,
		Params:  params,
	}

	if err := t.send(req); err != nil {
		return fmt.Errorf("send request: %w", err)
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.done:
		return ErrShutdown
	case resp := <-ch:
		if resp.Error != nil {
			return resp.Error
		}
		if result != nil && len(resp.Result) > 0 {
			if err := json.Unmarshal(resp.Result, result); err != nil {
				return fmt.Errorf("unmarshal result: %w", err)
			}
		}
		return nil
	}
}

// Notify sends a notification (no response expected).
func (t *Transport) Notify(ctx context.Context, method string, params any) error {
	if t.closed.Load() {
		return ErrShutdown
	}

	return t.send(&Request{
		JSONRPC: "2.0",
		Method:  method,
		Params:  params,
	})
}

// send writes a message with LSP content-length header.
func (t *Transport) send(msg any) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	header := fmt.Sprintf("Content-Length: %d\r\n\r\n", len(data))

	t.writeMu.Lock()
	defer t.writeMu.Unlock()

	if _, err := io.WriteString(t.writer, header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	if _, err := t.writer.Write(data); err != nil {
		return fmt.Errorf("write body: %w", err)
	}

	return nil
}

// maxContentLength bounds the body buffer allocated for one message.
const maxContentLength = 64 << 20

// readMessage reads a single LSP message.
func (t *Transport) readMessage() (json.RawMessage, error) {
	var contentLength int
	for {
		line, err := t.reader.ReadString('\n')
		if err != nil {
			return nil, err
		}
		line = strings.TrimSpace(line)
		if line == "" {
			break // End of headers
		}
		if strings.HasPrefix(strings.ToLower(line), "content-length:") {
			parts := strings.SplitN(line, ":", 2)
			if len(parts) == 2 {
				length, err := strconv.Atoi(strings.TrimSpace(parts[1]))
				if err == nil {
					contentLength = length
				}
			}
		}
		// Ignore Content-Type and other headers
	}

	if contentLength <= 0 {
		return nil, errMalformedHeader
	}
	if contentLength > maxContentLength {
		return nil, fmt.Errorf("%w: %d bytes", errMessageTooLarge, contentLength)
	}

	body := make([]byte, contentLength)
	if _, err := io.ReadFull(t.reader, body); err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}

	return body, nil
}

// dispatch routes a message by shape: method+id is a request, method alone
// is a notification, id alone is a response to Call.
func (t *Transport) dispatch(ctx context.Context, data json.RawMessage) {
	if !gjson.ValidBytes(data) {
		return
	}
	id := gjson.GetBytes(data, "id")
	method := gjson.GetBytes(data, "method").String()

	switch {
	case method != "" && id.Exists():
		params := rawParams(data)
		rawID := json.RawMessage(id.Raw)
		t.inflight.Add(1)
		go func() {
			defer t.inflight.Done()
			t.handleRequest(ctx, rawID, method, params)
		}()
	case method != "":
		params := rawParams(data)
		t.inflight.Add(1)
		go func() {
			defer t.inflight.Done()
			if t.handler != nil {
				t.handler.HandleNotification(ctx, method, params)
			}
		}()
	case id.Exists():
		var resp Response
		if err := json.Unmarshal(data, &resp); err != nil {
			return
		}
		t.handleResponse(&resp)
	}
}

func rawParams(data json.RawMessage) json.RawMessage {
	p := gjson.GetBytes(data, "params")
	if !p.Exists() {
		return nil
	}
	return json.RawMessage(p.Raw)
}

// handleRequest runs the handler and writes its reply.
func (t *Transport) handleRequest(ctx context.Context, id json.RawMessage, method string, params json.RawMessage) {
	var (
		result any
		err    error
	)
	if t.handler == nil {
		err = ErrMethodNotFound
	} else {
		result, err = t.handler.HandleRequest(ctx, method, params)
	}

	r := &reply{JSONRPC: "2.0", ID: id}
	if err != nil {
		r.Error = toRPCError(err)
	} else {
		data, merr := json.Marshal(result)
		if merr != nil {
			r.Error = &RPCError{Code: CodeInternalError, Message: merr.Error()}
		} else {
			r.Result = data
		}
	}
	_ = t.send(r)
}

// handleResponse routes a response to its waiting caller.
func (t *Transport) handleResponse(resp *Response) {
	if t.closed.Load() {
		return
	}

	t.mu.Lock()
	ch, ok := t.pending[resp.ID]
	if ok {
		// Remove from pending while holding lock to prevent races
		delete(t.pending, resp.ID)
	}
	t.mu.Unlock()

	if ok {
		select {
		case ch <- resp:
		default:
			// Channel full, drop response
		}
	}
}

// IsClosed returns true if the transport has been closed.
func (t *Transport) IsClosed() bool {
	return t.closed.Load()
}
