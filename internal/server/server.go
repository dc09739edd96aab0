// Package server implements the header language server session.
//
// The server answers the LSP lifecycle requests, registers workspace roots
// on initialize, and on every textDocument/didOpen asks the trigger policy
// whether the document should receive a header. Inserts are sent to the
// editor as workspace/applyEdit requests and reported back through
// window/logMessage.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync/atomic"

	"github.com/dshills/autoheader/internal/lsp"
	"github.com/dshills/autoheader/internal/trigger"
	"github.com/dshills/autoheader/internal/workspace"
)

// Name is reported to the editor in serverInfo.
const Name = "auto-header-server"

// State is the lifecycle state of a session.
type State int32

const (
	StateUninitialized State = iota
	StateRunning
	StateShuttingDown
	StateExited
)

// String returns a human-readable state name.
func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateRunning:
		return "running"
	case StateShuttingDown:
		return "shutting down"
	case StateExited:
		return "exited"
	default:
		return "unknown"
	}
}

// Server is a single editor session.
type Server struct {
	policy     *trigger.Policy
	workspaces *workspace.Registry
	logger     *slog.Logger
	version    string

	transport *lsp.Transport

	state    atomic.Int32
	shutdown atomic.Bool
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithVersion sets the version reported in serverInfo.
func WithVersion(version string) Option {
	return func(s *Server) { s.version = version }
}

// New creates a server. The registry must be the one the policy consults.
func New(policy *trigger.Policy, workspaces *workspace.Registry, opts ...Option) *Server {
	s := &Server{
		policy:     policy,
		workspaces: workspaces,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With("component", "server")
	return s
}

// Serve runs the session over t until the editor sends exit or the stream
// ends.
func (s *Server) Serve(ctx context.Context, t *lsp.Transport) error {
	s.transport = t
	if err := t.Serve(ctx, s); err != nil {
		return fmt.Errorf("serve: %w", err)
	}
	return nil
}

// State returns the current lifecycle state.
func (s *Server) State() State {
	return State(s.state.Load())
}

// ExitCode is 0 when shutdown preceded the end of the session and 1
// otherwise.
func (s *Server) ExitCode() int {
	if s.shutdown.Load() {
		return 0
	}
	return 1
}

// HandleRequest implements lsp.Handler.
func (s *Server) HandleRequest(ctx context.Context, method string, params json.RawMessage) (any, error) {
	if method == lsp.MethodInitialize {
		return s.initialize(params)
	}

	if s.State() == StateUninitialized {
		return nil, lsp.ErrNotInitialized
	}

	switch method {
	case lsp.MethodShutdown:
		s.shutdown.Store(true)
		s.state.Store(int32(StateShuttingDown))
		s.logger.Info("shutdown requested")
		return nil, nil
	default:
		return nil, fmt.Errorf("%w: %s", lsp.ErrMethodNotFound, method)
	}
}

// HandleNotification implements lsp.Handler.
func (s *Server) HandleNotification(ctx context.Context, method string, params json.RawMessage) {
	switch method {
	case lsp.MethodExit:
		s.exit()
		return
	case lsp.MethodInitialized:
		s.logger.Info("Auto Header Server initialized")
		s.logMessage(ctx, lsp.MessageTypeInfo, "Auto Header Server initialized")
		return
	}

	if s.State() != StateRunning {
		s.logger.Debug("notification dropped", "method", method, "state", s.State().String())
		return
	}

	switch method {
	case lsp.MethodDidOpen:
		var p lsp.DidOpenTextDocumentParams
		if err := json.Unmarshal(params, &p); err != nil {
			s.logger.Warn("invalid didOpen params", "error", err)
			return
		}
		s.didOpen(ctx, p.TextDocument)
	case lsp.MethodDidChange, lsp.MethodDidClose, lsp.MethodDidSave,
		lsp.MethodDidChangeConfig, lsp.MethodCancelRequest, lsp.MethodSetTrace:
		// Headers are only written on open, and requests complete synchronously.
		s.logger.Debug("notification ignored", "method", method)
	default:
		s.logger.Debug("unknown notification", "method", method)
	}
}

func (s *Server) initialize(params json.RawMessage) (any, error) {
	if s.State() != StateUninitialized {
		return nil, lsp.NewRPCError(lsp.CodeInvalidRequest, "initialize received twice")
	}

	var p lsp.InitializeParams
	if len(params) > 0 {
		if err := json.Unmarshal(params, &p); err != nil {
			return nil, lsp.NewRPCError(lsp.CodeInvalidParams, "invalid initialize params: %v", err)
		}
	}

	roots := s.rootsFrom(p)
	if err := s.workspaces.Initialize(roots...); err != nil {
		return nil, lsp.NewRPCError(lsp.CodeInternalError, "register workspace: %v", err)
	}
	s.state.Store(int32(StateRunning))

	attrs := []any{"roots", roots}
	if p.ClientInfo != nil {
		attrs = append(attrs, "client", p.ClientInfo.Name)
	}
	s.logger.Info("initialize", attrs...)

	return &lsp.InitializeResult{
		Capabilities: lsp.ServerCapabilities{
			TextDocumentSync: lsp.TextDocumentSyncKindFull,
		},
		ServerInfo: &lsp.ServerInfo{Name: Name, Version: s.version},
	}, nil
}

// rootsFrom picks the workspace roots the editor announced, preferring
// workspaceFolders over rootUri over rootPath. Roots that do not resolve
// to absolute paths are dropped.
func (s *Server) rootsFrom(p lsp.InitializeParams) []string {
	var candidates []string
	switch {
	case len(p.WorkspaceFolders) > 0:
		for _, f := range p.WorkspaceFolders {
			candidates = append(candidates, lsp.URIToFilePath(f.URI))
		}
	case p.RootURI != "":
		candidates = append(candidates, lsp.URIToFilePath(p.RootURI))
	case p.RootPath != "":
		candidates = append(candidates, p.RootPath)
	}

	roots := make([]string, 0, len(candidates))
	for _, c := range candidates {
		if c == "" || !filepath.IsAbs(c) {
			s.logger.Warn("ignoring workspace root", "root", c)
			continue
		}
		roots = append(roots, c)
	}
	return roots
}

func (s *Server) didOpen(ctx context.Context, doc lsp.TextDocumentItem) {
	d := s.policy.Decide(doc.URI, doc.Text)
	if !d.Insert() || s.transport == nil {
		return
	}

	params := &lsp.ApplyWorkspaceEditParams{
		Label: "Insert file header",
		Edit: lsp.WorkspaceEdit{
			Changes: map[lsp.DocumentURI][]lsp.TextEdit{doc.URI: {d.Edit}},
		},
	}

	var result lsp.ApplyWorkspaceEditResult
	err := s.transport.Call(ctx, lsp.MethodApplyEdit, params, &result)
	if err == nil && !result.Applied {
		err = errors.New("edit rejected")
		if result.FailureReason != "" {
			err = fmt.Errorf("edit rejected: %s", result.FailureReason)
		}
	}
	if err != nil {
		s.logger.Error("apply header edit", "path", d.Path, "error", err)
		s.logMessage(ctx, lsp.MessageTypeError, fmt.Sprintf("Failed to apply header edit: %v", err))
		return
	}

	s.logger.Info("header inserted", "path", d.Path, "root", d.WorkspaceRoot)
	s.logMessage(ctx, lsp.MessageTypeInfo, "Header inserted for "+d.Path)
}

func (s *Server) logMessage(ctx context.Context, typ lsp.MessageType, msg string) {
	if s.transport == nil {
		return
	}
	err := s.transport.Notify(ctx, lsp.MethodLogMessage, &lsp.LogMessageParams{Type: typ, Message: msg})
	if err != nil {
		s.logger.Debug("window/logMessage not sent", "error", err)
	}
}

func (s *Server) exit() {
	s.state.Store(int32(StateExited))
	s.logger.Info("exit", "code", s.ExitCode())
	if s.transport != nil {
		_ = s.transport.Close()
	}
}
