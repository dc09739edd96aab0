// Package config resolves the header configuration for a workspace.
//
// Configuration lives in small TOML files searched in a fixed order: the
// workspace root, the platform user-config directory, then the home
// directory. The first file that exists and parses wins; anything that
// fails to load is skipped. Files are read again on every call so edits
// take effect without restarting the editor session. The files are
// expected to be a few hundred bytes, which keeps the re-read cheap.
package config

import (
	"strings"
)

// Default values used when no configuration file provides them.
const (
	DefaultAuthorName  = "Auto Header"
	DefaultAuthorEmail = "auto@header.dev"
	DefaultProjectName = "My Project"

	DefaultTemplate = `File: {filename}
Author: {author}
Date: {date}
Copyright (c) {year} {copyright_holder}`
)

// Config is the full header configuration.
type Config struct {
	Author  Author  `toml:"author" yaml:"author" json:"author"`
	Project Project `toml:"project" yaml:"project" json:"project"`
	Header  Header  `toml:"header" yaml:"header" json:"header"`
}

// Author identifies the person creating files.
type Author struct {
	Name  string `toml:"name" yaml:"name" json:"name"`
	Email string `toml:"email" yaml:"email" json:"email"`
}

// Project describes the project files belong to.
type Project struct {
	Name string `toml:"name" yaml:"name" json:"name"`
	// CopyrightHolder falls back to the author name when empty.
	CopyrightHolder string `toml:"copyright_holder" yaml:"copyright_holder" json:"copyright_holder"`
}

// Header holds the template bodies.
type Header struct {
	// Template is the body used when nothing more specific applies.
	Template    string                       `toml:"template" yaml:"template" json:"template"`
	ByExtension map[string]ExtensionTemplate `toml:"by_extension" yaml:"by_extension,omitempty" json:"by_extension,omitempty" validate:"dive"`
}

// ExtensionTemplate overrides the template for one file extension.
type ExtensionTemplate struct {
	Template string `toml:"template" yaml:"template" json:"template" validate:"required"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Author: Author{
			Name:  DefaultAuthorName,
			Email: DefaultAuthorEmail,
		},
		Project: Project{
			Name: DefaultProjectName,
		},
		Header: Header{
			Template:    DefaultTemplate,
			ByExtension: map[string]ExtensionTemplate{},
		},
	}
}

// CopyrightHolder returns the project copyright holder, or the author name
// when none is configured.
func (c Config) CopyrightHolder() string {
	if c.Project.CopyrightHolder != "" {
		return c.Project.CopyrightHolder
	}
	return c.Author.Name
}

// TemplateFor returns the per-extension template override for ext.
func (h Header) TemplateFor(ext string) (string, bool) {
	t, ok := h.ByExtension[strings.ToLower(ext)]
	if !ok {
		return "", false
	}
	return t.Template, true
}

// normalize lower-cases by_extension keys. An exact lower-case key wins
// over a mixed-case duplicate.
func (c *Config) normalize() {
	if len(c.Header.ByExtension) == 0 {
		c.Header.ByExtension = map[string]ExtensionTemplate{}
		return
	}
	out := make(map[string]ExtensionTemplate, len(c.Header.ByExtension))
	for ext, t := range c.Header.ByExtension {
		key := strings.ToLower(strings.TrimPrefix(ext, "."))
		if _, exists := out[key]; exists && ext != key {
			continue
		}
		out[key] = t
	}
	c.Header.ByExtension = out
}
