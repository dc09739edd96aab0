// Package trigger decides whether an opened document receives a header.
package trigger

import (
	"log/slog"
	"strings"

	"github.com/dshills/autoheader/internal/config"
	"github.com/dshills/autoheader/internal/header"
	"github.com/dshills/autoheader/internal/lsp"
	"github.com/dshills/autoheader/internal/workspace"
)

// Resolver is the configuration lookup the policy needs.
type Resolver interface {
	Exists(workspaceRoot string) bool
	Resolve(workspaceRoot string) config.Config
}

// Renderer produces header text for a file.
type Renderer interface {
	Render(cfg config.Config, filePath string) string
}

// Reason explains the outcome of a decision.
type Reason string

const (
	ReasonInserted Reason = "inserted"
	ReasonNotFile  Reason = "not a file"
	ReasonNotEmpty Reason = "document not empty"
	ReasonNoConfig Reason = "no configuration file"
)

// Decision is the outcome of OnDocumentOpened.
type Decision struct {
	Path          string
	WorkspaceRoot string
	Reason        Reason
	Edit          lsp.TextEdit
}

// Insert reports whether the decision carries an edit.
func (d Decision) Insert() bool {
	return d.Reason == ReasonInserted
}

// Policy inserts headers into brand-new empty files when a configuration
// file exists somewhere in the search chain.
type Policy struct {
	resolver   Resolver
	renderer   Renderer
	workspaces *workspace.Registry
	logger     *slog.Logger
}

// New creates a policy.
func New(resolver Resolver, renderer Renderer, workspaces *workspace.Registry, logger *slog.Logger) *Policy {
	if logger == nil {
		logger = slog.Default()
	}
	if workspaces == nil {
		workspaces = workspace.New()
	}
	return &Policy{
		resolver:   resolver,
		renderer:   renderer,
		workspaces: workspaces,
		logger:     logger.With("component", "trigger"),
	}
}

// OnDocumentOpened returns the header insertion for a newly opened
// document, if any.
func (p *Policy) OnDocumentOpened(uri lsp.DocumentURI, content string) (lsp.TextEdit, bool) {
	d := p.Decide(uri, content)
	return d.Edit, d.Insert()
}

// Decide is OnDocumentOpened with the reason for the outcome.
func (p *Policy) Decide(uri lsp.DocumentURI, content string) Decision {
	var d Decision
	if !strings.HasPrefix(string(uri), "file:") {
		d.Reason = ReasonNotFile
		p.skip(uri, d)
		return d
	}

	d.Path = lsp.URIToFilePath(uri)
	d.WorkspaceRoot, _ = p.workspaces.RootFor(d.Path)

	if strings.TrimSpace(content) != "" {
		d.Reason = ReasonNotEmpty
		p.skip(uri, d)
		return d
	}

	if !p.resolver.Exists(d.WorkspaceRoot) {
		d.Reason = ReasonNoConfig
		p.skip(uri, d)
		return d
	}

	cfg := p.resolver.Resolve(d.WorkspaceRoot)
	d.Reason = ReasonInserted
	d.Edit = lsp.InsertAt(lsp.Position{Line: 0, Character: 0}, p.renderer.Render(cfg, d.Path))
	return d
}

func (p *Policy) skip(uri lsp.DocumentURI, d Decision) {
	p.logger.Debug("no header", "uri", string(uri), "root", d.WorkspaceRoot, "reason", string(d.Reason))
}

var (
	_ Resolver = (*config.Resolver)(nil)
	_ Renderer = (*header.Renderer)(nil)
)
