// Package header renders file headers from configuration.
package header

import (
	"path/filepath"
	"strings"
	"time"

	"github.com/dshills/autoheader/internal/comment"
	"github.com/dshills/autoheader/internal/config"
)

// BuiltinTemplate is the body used for every extension with a registered
// comment style when the configuration has no override for it.
const BuiltinTemplate = `File: {filename}
Project: {project}
Author: {author} <{email}>
Created: {date} {time}

Copyright (c) {year} {copyright_holder}
All rights reserved.`

// Token names recognised in templates.
const (
	TokenFilename        = "{filename}"
	TokenFilepath        = "{filepath}"
	TokenDate            = "{date}"
	TokenTime            = "{time}"
	TokenYear            = "{year}"
	TokenAuthor          = "{author}"
	TokenEmail           = "{email}"
	TokenProject         = "{project}"
	TokenCopyrightHolder = "{copyright_holder}"
	TokenInterpreter     = "{interpreter}"
)

// interpreters maps script extensions to the program named in a shebang.
var interpreters = map[string]string{
	"py":   "python3",
	"pyw":  "python3",
	"pyx":  "python3",
	"rb":   "ruby",
	"pl":   "perl",
	"pm":   "perl",
	"sh":   "sh",
	"bash": "bash",
	"zsh":  "zsh",
	"fish": "fish",
	"r":    "Rscript",
	"jl":   "julia",
}

// Interpreter returns the interpreter for ext, or "" when there is none.
func Interpreter(ext string) string {
	return interpreters[comment.Normalize(ext)]
}

// Renderer turns a configuration and a file path into header text.
type Renderer struct {
	now func() time.Time
}

// Option configures a Renderer.
type Option func(*Renderer)

// WithClock sets the time source used for date tokens.
func WithClock(now func() time.Time) Option {
	return func(r *Renderer) {
		if now != nil {
			r.now = now
		}
	}
}

// NewRenderer creates a renderer using local wall-clock time.
func NewRenderer(opts ...Option) *Renderer {
	r := &Renderer{now: time.Now}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Extension returns the text after the last dot of the final path segment,
// or "" when there is none.
func Extension(filePath string) string {
	return strings.TrimPrefix(filepath.Ext(filepath.Base(filePath)), ".")
}

// Body selects the raw template body for filePath: a configured
// per-extension override, then the built-in body for known extensions,
// then the configured default.
func Body(cfg config.Config, filePath string) string {
	ext := comment.Normalize(Extension(filePath))
	if tmpl, ok := cfg.Header.TemplateFor(ext); ok {
		return tmpl
	}
	if comment.Known(ext) {
		return BuiltinTemplate
	}
	return cfg.Header.Template
}

// Render returns the fully substituted header for filePath.
func (r *Renderer) Render(cfg config.Config, filePath string) string {
	ext := Extension(filePath)
	wrapped := comment.Wrap(comment.StyleFor(ext), Body(cfg, filePath))
	return r.replacer(cfg, filePath).Replace(wrapped)
}

// Tokens returns the value each token expands to for filePath.
func (r *Renderer) Tokens(cfg config.Config, filePath string) map[string]string {
	now := r.now()
	filename := filepath.Base(filePath)
	if filePath == "" || filename == "." || filename == string(filepath.Separator) {
		filename = "unknown"
	}
	return map[string]string{
		TokenFilename:        filename,
		TokenFilepath:        filePath,
		TokenDate:            now.Format("2006-01-02"),
		TokenTime:            now.Format("15:04:05"),
		TokenYear:            now.Format("2006"),
		TokenAuthor:          cfg.Author.Name,
		TokenEmail:           cfg.Author.Email,
		TokenProject:         cfg.Project.Name,
		TokenCopyrightHolder: cfg.CopyrightHolder(),
		TokenInterpreter:     Interpreter(Extension(filePath)),
	}
}

// replacer substitutes all tokens in one left-to-right pass. Replaced text
// is never scanned again, so values containing token-like text are kept
// literally.
func (r *Renderer) replacer(cfg config.Config, filePath string) *strings.Replacer {
	tokens := r.Tokens(cfg, filePath)
	pairs := make([]string, 0, len(tokens)*2)
	for token, value := range tokens {
		pairs = append(pairs, token, value)
	}
	return strings.NewReplacer(pairs...)
}
