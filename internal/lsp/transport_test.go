package lsp

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/autoheader/internal/lsp/lsptest"
)

// recordingHandler answers "echo" requests and records notifications.
type recordingHandler struct {
	mu            sync.Mutex
	notifications []string
	notified      chan string
}

func newRecordingHandler() *recordingHandler {
	return &recordingHandler{notified: make(chan string, 16)}
}

func (h *recordingHandler) HandleRequest(ctx context.Context, method string, params json.RawMessage) (any, error) {
	switch method {
	case "echo":
		var v map[string]any
		if err := json.Unmarshal(params, &v); err != nil {
			return nil, NewRPCError(CodeInvalidParams, "bad params: %v", err)
		}
		return v, nil
	case "nil":
		return nil, nil
	case "uninit":
		return nil, ErrNotInitialized
	case "boom":
		return nil, errors.New("boom")
	default:
		return nil, ErrMethodNotFound
	}
}

func (h *recordingHandler) HandleNotification(ctx context.Context, method string, params json.RawMessage) {
	h.mu.Lock()
	h.notifications = append(h.notifications, method)
	h.mu.Unlock()
	h.notified <- method
}

func startTransport(t *testing.T, h Handler) (*Transport, *lsptest.Peer, <-chan error) {
	t.Helper()
	peer := lsptest.NewPeer()
	tr := NewTransport(peer.ServerIn, peer.ServerOut, peer.Closer())
	errc := make(chan error, 1)
	go func() { errc <- tr.Serve(context.Background(), h) }()
	t.Cleanup(func() { _ = tr.Close() })
	return tr, peer, errc
}

func TestTransport_RequestResponse(t *testing.T) {
	_, peer, _ := startTransport(t, newRecordingHandler())

	require.NoError(t, peer.Request(7, "echo", map[string]any{"a": "b"}))
	msg, err := peer.Read()
	require.NoError(t, err)

	assert.Equal(t, "7", string(msg.ID))
	assert.Nil(t, msg.Error)
	assert.JSONEq(t, `{"a":"b"}`, string(msg.Result))
}

func TestTransport_StringIDEchoed(t *testing.T) {
	_, peer, _ := startTransport(t, newRecordingHandler())

	require.NoError(t, peer.WriteRaw([]byte(`{"jsonrpc":"2.0","id":"abc","method":"nil"}`)))
	msg, err := peer.Read()
	require.NoError(t, err)

	assert.Equal(t, `"abc"`, string(msg.ID))
	assert.Equal(t, "null", string(msg.Result))
}

func TestTransport_ErrorMapping(t *testing.T) {
	tests := []struct {
		method string
		code   int
	}{
		{"missing", CodeMethodNotFound},
		{"uninit", CodeServerNotInitialized},
		{"boom", CodeInternalError},
	}

	_, peer, _ := startTransport(t, newRecordingHandler())
	for i, tt := range tests {
		t.Run(tt.method, func(t *testing.T) {
			require.NoError(t, peer.Request(i+1, tt.method, nil))
			msg, err := peer.Read()
			require.NoError(t, err)
			require.NotNil(t, msg.Error)
			assert.Equal(t, tt.code, msg.Error.Code)
			assert.Empty(t, msg.Result)
		})
	}
}

func TestTransport_InvalidParams(t *testing.T) {
	_, peer, _ := startTransport(t, newRecordingHandler())

	require.NoError(t, peer.Request(1, "echo", []int{1}))
	msg, err := peer.Read()
	require.NoError(t, err)
	require.NotNil(t, msg.Error)
	assert.Equal(t, CodeInvalidParams, msg.Error.Code)
}

func TestTransport_Notification(t *testing.T) {
	h := newRecordingHandler()
	_, peer, _ := startTransport(t, h)

	require.NoError(t, peer.Notify("textDocument/didOpen", map[string]any{}))
	select {
	case method := <-h.notified:
		assert.Equal(t, "textDocument/didOpen", method)
	case <-time.After(2 * time.Second):
		t.Fatal("notification not delivered")
	}
}

func TestTransport_SkipsMalformedMessages(t *testing.T) {
	h := newRecordingHandler()
	_, peer, _ := startTransport(t, h)

	require.NoError(t, peer.WriteRaw([]byte(`not json`)))
	require.NoError(t, peer.Notify("after", nil))

	select {
	case method := <-h.notified:
		assert.Equal(t, "after", method)
	case <-time.After(2 * time.Second):
		t.Fatal("transport stopped after malformed message")
	}
}

func TestTransport_RejectsOversizedContentLength(t *testing.T) {
	tests := []struct {
		name   string
		length string
	}{
		{"max int64", "9223372036854775807"},
		{"just over limit", "67108865"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			_, peer, errc := startTransport(t, newRecordingHandler())

			go func() { _ = peer.WriteHeader("Content-Length: " + tt.length + "\r\n\r\n") }()

			select {
			case err := <-errc:
				require.Error(t, err)
				assert.ErrorIs(t, err, errMessageTooLarge)
			case <-time.After(2 * time.Second):
				t.Fatal("Serve did not stop on oversized message")
			}
		})
	}
}

func TestTransport_Call(t *testing.T) {
	tr, peer, _ := startTransport(t, newRecordingHandler())

	type result struct {
		Applied bool `json:"applied"`
	}
	done := make(chan error, 1)
	var got result
	go func() {
		done <- tr.Call(context.Background(), MethodApplyEdit, map[string]string{"k": "v"}, &got)
	}()

	req, err := peer.Read()
	require.NoError(t, err)
	require.True(t, req.IsRequest())
	assert.Equal(t, MethodApplyEdit, req.Method)
	assert.JSONEq(t, `{"k":"v"}`, string(req.Params))

	require.NoError(t, peer.Respond(req.ID, map[string]bool{"applied": true}))
	select {
	case err := <-done:
		require.NoError(t, err)
		assert.True(t, got.Applied)
	case <-time.After(2 * time.Second):
		t.Fatal("Call did not return")
	}
}

func TestTransport_CallError(t *testing.T) {
	tr, peer, _ := startTransport(t, newRecordingHandler())

	done := make(chan error, 1)
	go func() {
		done <- tr.Call(context.Background(), MethodApplyEdit, nil, nil)
	}()

	req, err := peer.Read()
	require.NoError(t, err)
	require.NoError(t, peer.RespondError(req.ID, CodeRequestFailed, "rejected"))

	select {
	case err := <-done:
		var rpcErr *RPCError
		require.ErrorAs(t, err, &rpcErr)
		assert.Equal(t, CodeRequestFailed, rpcErr.Code)
		assert.Equal(t, "rejected", rpcErr.Message)
	case <-time.After(2 * time.Second):
		t.Fatal("Call did not return")
	}
}

func TestTransport_CallContextCancelled(t *testing.T) {
	tr, peer, _ := startTransport(t, newRecordingHandler())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- tr.Call(ctx, "slow", nil, nil) }()

	_, err := peer.Read()
	require.NoError(t, err)
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("Call ignored cancellation")
	}
}

func TestTransport_ServeReturnsOnEOF(t *testing.T) {
	tr, peer, errc := startTransport(t, newRecordingHandler())

	require.NoError(t, peer.CloseInput())
	select {
	case err := <-errc:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Serve did not return on EOF")
	}
	assert.True(t, tr.IsClosed())

	err := tr.Notify(context.Background(), "x", nil)
	assert.ErrorIs(t, err, ErrShutdown)
	err = tr.Call(context.Background(), "x", nil, nil)
	assert.ErrorIs(t, err, ErrShutdown)
}

func TestTransport_CloseStopsServe(t *testing.T) {
	tr, _, errc := startTransport(t, newRecordingHandler())

	require.NoError(t, tr.Close())
	select {
	case err := <-errc:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Serve did not return after Close")
	}
	assert.NoError(t, tr.Close())
}

func TestRPCError_Error(t *testing.T) {
	err := &RPCError{Code: -1, Message: "bad"}
	assert.Equal(t, "rpc error -1: bad", err.Error())

	err.Data = "x"
	assert.Equal(t, "rpc error -1: bad (data: x)", err.Error())
}
