// Package workspace tracks the workspace roots declared by the editor and
// maps file paths to the root that contains them.
package workspace

import (
	"errors"
	"path/filepath"
	"strings"
	"sync"
)

// Common errors.
var (
	ErrAlreadyInitialized = errors.New("workspace registry already initialized")
	ErrInvalidPath        = errors.New("invalid folder path")
)

// MatchPolicy selects a root when several contain the same path.
type MatchPolicy int

const (
	// FirstMatch picks the first containing root in registration order.
	FirstMatch MatchPolicy = iota
	// LongestMatch picks the most specific containing root.
	LongestMatch
)

// String returns the policy name.
func (p MatchPolicy) String() string {
	switch p {
	case FirstMatch:
		return "first"
	case LongestMatch:
		return "longest"
	default:
		return "unknown"
	}
}

// ParseMatchPolicy parses "first" or "longest".
func ParseMatchPolicy(s string) (MatchPolicy, error) {
	switch strings.ToLower(s) {
	case "", "first":
		return FirstMatch, nil
	case "longest":
		return LongestMatch, nil
	default:
		return FirstMatch, errors.New("unknown match policy " + s)
	}
}

// Folder is a registered workspace root.
type Folder struct {
	// Path is the cleaned local file system path.
	Path string
	// Name is the display name for the folder.
	Name string
}

// Registry is the ordered set of workspace roots for a session. It is
// written once by Initialize and read concurrently afterwards.
type Registry struct {
	mu          sync.RWMutex
	folders     []Folder
	initialized bool
	policy      MatchPolicy
}

// Option configures a Registry.
type Option func(*Registry)

// WithMatchPolicy sets how RootFor chooses between nested roots.
func WithMatchPolicy(p MatchPolicy) Option {
	return func(r *Registry) {
		r.policy = p
	}
}

// New creates an empty registry.
func New(opts ...Option) *Registry {
	r := &Registry{folders: make([]Folder, 0)}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Initialize records the workspace roots. Duplicate and empty paths are
// dropped; registration order is preserved. It may be called only once.
func (r *Registry) Initialize(paths ...string) error {
	folders := make([]Folder, 0, len(paths))
	seen := make(map[string]bool, len(paths))
	for _, p := range paths {
		if p == "" {
			continue
		}
		clean := filepath.Clean(p)
		if !filepath.IsAbs(clean) {
			return ErrInvalidPath
		}
		if seen[clean] {
			continue
		}
		seen[clean] = true
		folders = append(folders, Folder{Path: clean, Name: filepath.Base(clean)})
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.initialized {
		return ErrAlreadyInitialized
	}
	r.folders = folders
	r.initialized = true
	return nil
}

// Initialized reports whether Initialize has run.
func (r *Registry) Initialized() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.initialized
}

// Roots returns all workspace root paths in registration order.
func (r *Registry) Roots() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	paths := make([]string, len(r.folders))
	for i, f := range r.folders {
		paths[i] = f.Path
	}
	return paths
}

// Folders returns all registered folders.
func (r *Registry) Folders() []Folder {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]Folder, len(r.folders))
	copy(result, r.folders)
	return result
}

// RootFor returns the workspace root containing path.
func (r *Registry) RootFor(path string) (string, bool) {
	if path == "" {
		return "", false
	}
	path = filepath.Clean(path)

	r.mu.RLock()
	defer r.mu.RUnlock()

	best := ""
	for _, f := range r.folders {
		if !Contains(f.Path, path) {
			continue
		}
		if r.policy == FirstMatch {
			return f.Path, true
		}
		if len(f.Path) > len(best) {
			best = f.Path
		}
	}
	return best, best != ""
}

// Contains reports whether path is root or lies below it. The comparison is
// by path component, so /proj does not contain /project.
func Contains(root, path string) bool {
	if root == path {
		return true
	}
	prefix := root
	if !strings.HasSuffix(prefix, string(filepath.Separator)) {
		prefix += string(filepath.Separator)
	}
	return strings.HasPrefix(path, prefix)
}
