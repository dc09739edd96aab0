package lsp

import (
	"errors"
	"fmt"
)

// Standard errors returned by the transport.
var (
	// ErrShutdown indicates the transport has been closed.
	ErrShutdown = errors.New("lsp transport shut down")

	// ErrNotInitialized indicates a request arrived before initialize.
	ErrNotInitialized = errors.New("server not initialized")

	// ErrMethodNotFound indicates no handler exists for a request.
	ErrMethodNotFound = errors.New("method not found")

	// errMalformedHeader indicates a message without a usable Content-Length.
	errMalformedHeader = errors.New("missing Content-Length header")

	// errMessageTooLarge indicates a Content-Length above maxContentLength.
	// The stream cannot be resynchronized after it, so Serve stops.
	errMessageTooLarge = errors.New("message exceeds maximum size")
)

// RPCError represents a JSON-RPC error.
type RPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

// Error implements the error interface.
func (e *RPCError) Error() string {
	if e.Data != nil {
		return fmt.Sprintf("rpc error %d: %s (data: %v)", e.Code, e.Message, e.Data)
	}
	return fmt.Sprintf("rpc error %d: %s", e.Code, e.Message)
}

// Standard JSON-RPC error codes.
const (
	// JSON-RPC standard errors
	CodeParseError     = -32700
	CodeInvalidRequest = -32600
	CodeMethodNotFound = -32601
	CodeInvalidParams  = -32602
	CodeInternalError  = -32603

	// LSP-specific errors
	CodeServerNotInitialized = -32002
	CodeUnknownErrorCode     = -32001
	CodeRequestCancelled     = -32800
	CodeRequestFailed        = -32803
)

// NewRPCError creates an RPCError with the given code.
func NewRPCError(code int, format string, args ...any) *RPCError {
	return &RPCError{Code: code, Message: fmt.Sprintf(format, args...)}
}

// toRPCError maps a handler error onto the wire representation.
func toRPCError(err error) *RPCError {
	var rpcErr *RPCError
	switch {
	case errors.As(err, &rpcErr):
		return rpcErr
	case errors.Is(err, ErrMethodNotFound):
		return &RPCError{Code: CodeMethodNotFound, Message: err.Error()}
	case errors.Is(err, ErrNotInitialized):
		return &RPCError{Code: CodeServerNotInitialized, Message: err.Error()}
	default:
		return &RPCError{Code: CodeInternalError, Message: err.Error()}
	}
}
