package config

import (
	"io/fs"
	"path"
	"time"
)

// MemFS is an in-memory file system for testing.
type MemFS struct {
	files map[string][]byte
	dirs  map[string]bool
}

func NewMemFS() *MemFS {
	return &MemFS{files: make(map[string][]byte), dirs: make(map[string]bool)}
}

func (m *MemFS) AddFile(p string, content string) {
	m.files[p] = []byte(content)
}

func (m *MemFS) AddDir(p string) {
	m.dirs[p] = true
}

func (m *MemFS) ReadFile(p string) ([]byte, error) {
	data, ok := m.files[p]
	if !ok {
		return nil, fs.ErrNotExist
	}
	return data, nil
}

func (m *MemFS) Stat(p string) (fs.FileInfo, error) {
	if _, ok := m.files[p]; ok {
		return &memFileInfo{name: path.Base(p)}, nil
	}
	if m.dirs[p] {
		return &memFileInfo{name: path.Base(p), dir: true}, nil
	}
	return nil, fs.ErrNotExist
}

type memFileInfo struct {
	name string
	dir  bool
}

func (f *memFileInfo) Name() string { return f.name }
func (f *memFileInfo) Size() int64  { return 0 }
func (f *memFileInfo) Mode() fs.FileMode {
	if f.dir {
		return fs.ModeDir | 0o755
	}
	return 0o644
}
func (f *memFileInfo) ModTime() time.Time { return time.Now() }
func (f *memFileInfo) IsDir() bool        { return f.dir }
func (f *memFileInfo) Sys() any           { return nil }
