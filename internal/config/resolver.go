package config

import (
	"errors"
	"log/slog"
	"os"
	"path/filepath"
)

// File names searched by the resolver.
const (
	ProjectFileName = ".auto-header.toml"
	UserFileName    = "auto-header.toml"
	HomeFileName    = ".auto-header.toml"

	// DefaultAppDir is the sub-directory of the user config directory.
	DefaultAppDir = "zed"
)

// Resolver finds and loads configuration files.
type Resolver struct {
	fs            FileSystem
	userConfigDir func() (string, error)
	homeDir       func() (string, error)
	appDir        string
	logger        *slog.Logger
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithFS sets the file system used to read candidates.
func WithFS(fsys FileSystem) Option {
	return func(r *Resolver) {
		if fsys != nil {
			r.fs = fsys
		}
	}
}

// WithUserConfigDir overrides how the platform config directory is found.
func WithUserConfigDir(fn func() (string, error)) Option {
	return func(r *Resolver) {
		if fn != nil {
			r.userConfigDir = fn
		}
	}
}

// WithHomeDir overrides how the home directory is found.
func WithHomeDir(fn func() (string, error)) Option {
	return func(r *Resolver) {
		if fn != nil {
			r.homeDir = fn
		}
	}
}

// WithAppDir sets the sub-directory searched under the user config directory.
func WithAppDir(dir string) Option {
	return func(r *Resolver) {
		if dir != "" {
			r.appDir = dir
		}
	}
}

// WithLogger sets the logger used to report skipped candidates.
func WithLogger(l *slog.Logger) Option {
	return func(r *Resolver) {
		if l != nil {
			r.logger = l
		}
	}
}

// NewResolver creates a resolver over the OS file system.
func NewResolver(opts ...Option) *Resolver {
	r := &Resolver{
		fs:            DefaultFS(),
		userConfigDir: os.UserConfigDir,
		homeDir:       os.UserHomeDir,
		appDir:        DefaultAppDir,
		logger:        slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.logger = r.logger.With("component", "config")
	return r
}

// SearchPaths returns the candidate files in priority order. workspaceRoot
// may be empty, in which case the project tier is omitted.
func (r *Resolver) SearchPaths(workspaceRoot string) []string {
	paths := make([]string, 0, 3)
	if workspaceRoot != "" {
		paths = append(paths, filepath.Join(workspaceRoot, ProjectFileName))
	}
	if dir, err := r.userConfigDir(); err == nil && dir != "" {
		paths = append(paths, filepath.Join(dir, r.appDir, UserFileName))
	}
	if home, err := r.homeDir(); err == nil && home != "" {
		paths = append(paths, filepath.Join(home, HomeFileName))
	}
	return paths
}

// Exists reports whether any candidate file is present. It does not parse.
func (r *Resolver) Exists(workspaceRoot string) bool {
	for _, path := range r.SearchPaths(workspaceRoot) {
		if r.present(path) {
			return true
		}
	}
	return false
}

// Resolve returns the first candidate that loads, or Default.
func (r *Resolver) Resolve(workspaceRoot string) Config {
	cfg, _ := r.Load(workspaceRoot)
	return cfg
}

// Load is Resolve that also returns the path the configuration came from.
// The path is empty when the built-in default is returned.
func (r *Resolver) Load(workspaceRoot string) (Config, string) {
	for _, path := range r.SearchPaths(workspaceRoot) {
		cfg, err := r.LoadFile(path)
		if err != nil {
			if !errors.Is(err, ErrNotFound) {
				r.logger.Debug("skipping config candidate", "path", path, "error", err)
			}
			continue
		}
		r.logger.Debug("loaded config", "path", path)
		return cfg, path
	}
	return Default(), ""
}

// LoadFile reads and parses a single candidate.
func (r *Resolver) LoadFile(path string) (Config, error) {
	if !r.present(path) {
		return Config{}, &LoadError{Path: path, Err: ErrNotFound}
	}
	data, err := r.fs.ReadFile(path)
	if err != nil {
		return Config{}, &LoadError{Path: path, Err: err}
	}
	cfg, err := parse(path, data)
	if err != nil {
		return Config{}, &LoadError{Path: path, Err: err}
	}
	return cfg, nil
}

// Candidate describes one entry of the search chain.
type Candidate struct {
	Path    string
	Present bool
	// Err is set when the file is present but could not be loaded.
	Err error
	// Selected marks the candidate Resolve would use.
	Selected bool
}

// Inspect reports the state of every candidate in the search chain.
func (r *Resolver) Inspect(workspaceRoot string) []Candidate {
	paths := r.SearchPaths(workspaceRoot)
	out := make([]Candidate, 0, len(paths))
	selected := false
	for _, path := range paths {
		c := Candidate{Path: path, Present: r.present(path)}
		if c.Present {
			if _, err := r.LoadFile(path); err != nil {
				c.Err = err
			} else if !selected {
				c.Selected = true
				selected = true
			}
		}
		out = append(out, c)
	}
	return out
}

// present reports whether path names an existing regular file.
func (r *Resolver) present(path string) bool {
	if path == "" {
		return false
	}
	info, err := r.fs.Stat(path)
	if err != nil {
		return false
	}
	return !info.IsDir()
}
