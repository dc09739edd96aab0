package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	testRoot    = filepath.FromSlash("/proj")
	testCfgDir  = filepath.FromSlash("/cfg")
	testHomeDir = filepath.FromSlash("/home/alice")

	projectPath = filepath.Join(testRoot, ProjectFileName)
	userPath    = filepath.Join(testCfgDir, DefaultAppDir, UserFileName)
	homePath    = filepath.Join(testHomeDir, HomeFileName)
)

func newTestResolver(memfs *MemFS) *Resolver {
	return NewResolver(
		WithFS(memfs),
		WithUserConfigDir(func() (string, error) { return testCfgDir, nil }),
		WithHomeDir(func() (string, error) { return testHomeDir, nil }),
	)
}

func authorConfig(name string) string {
	return "[author]\nname = \"" + name + "\"\nemail = \"" + name + "@example.com\"\n"
}

func TestResolver_SearchPaths(t *testing.T) {
	r := newTestResolver(NewMemFS())

	assert.Equal(t, []string{projectPath, userPath, homePath}, r.SearchPaths(testRoot))
	assert.Equal(t, []string{userPath, homePath}, r.SearchPaths(""))
}

func TestResolver_SearchPathsSkipsUnavailableDirs(t *testing.T) {
	r := NewResolver(
		WithFS(NewMemFS()),
		WithUserConfigDir(func() (string, error) { return "", errors.New("no config dir") }),
		WithHomeDir(func() (string, error) { return testHomeDir, nil }),
	)

	assert.Equal(t, []string{homePath}, r.SearchPaths(""))
}

func TestResolver_AppDir(t *testing.T) {
	r := NewResolver(
		WithFS(NewMemFS()),
		WithUserConfigDir(func() (string, error) { return testCfgDir, nil }),
		WithHomeDir(func() (string, error) { return testHomeDir, nil }),
		WithAppDir("auto-header"),
	)

	paths := r.SearchPaths("")
	require.Len(t, paths, 2)
	assert.Equal(t, filepath.Join(testCfgDir, "auto-header", UserFileName), paths[0])
}

func TestResolver_ResolutionOrder(t *testing.T) {
	type tier struct {
		present bool
		valid   bool
	}
	tests := []struct {
		name    string
		project tier
		user    tier
		home    tier
		want    string
	}{
		{"all valid picks project", tier{true, true}, tier{true, true}, tier{true, true}, "project"},
		{"invalid project falls to user", tier{true, false}, tier{true, true}, tier{true, true}, "user"},
		{"missing project falls to user", tier{false, false}, tier{true, true}, tier{true, true}, "user"},
		{"only home", tier{false, false}, tier{false, false}, tier{true, true}, "home"},
		{"invalid project and user falls to home", tier{true, false}, tier{true, false}, tier{true, true}, "home"},
		{"all invalid yields default", tier{true, false}, tier{true, false}, tier{true, false}, DefaultAuthorName},
		{"nothing yields default", tier{}, tier{}, tier{}, DefaultAuthorName},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			memfs := NewMemFS()
			add := func(path, name string, tr tier) {
				if !tr.present {
					return
				}
				if tr.valid {
					memfs.AddFile(path, authorConfig(name))
				} else {
					memfs.AddFile(path, "[author\nname = ")
				}
			}
			add(projectPath, "project", tt.project)
			add(userPath, "user", tt.user)
			add(homePath, "home", tt.home)

			r := newTestResolver(memfs)
			cfg := r.Resolve(testRoot)
			assert.Equal(t, tt.want, cfg.Author.Name)
		})
	}
}

func TestResolver_Load_ReturnsSource(t *testing.T) {
	memfs := NewMemFS()
	memfs.AddFile(userPath, authorConfig("bob"))
	r := newTestResolver(memfs)

	cfg, source := r.Load(testRoot)
	assert.Equal(t, "bob", cfg.Author.Name)
	assert.Equal(t, userPath, source)

	cfg, source = newTestResolver(NewMemFS()).Load(testRoot)
	assert.Equal(t, Default(), cfg)
	assert.Empty(t, source)
}

func TestResolver_Load_EmptyNameWinsAtItsTier(t *testing.T) {
	memfs := NewMemFS()
	memfs.AddFile(projectPath, "[author]\nname = \"\"\n\n[project]\nname = \"Foo\"\n")
	memfs.AddFile(userPath, authorConfig("bob"))

	cfg, source := newTestResolver(memfs).Load(testRoot)
	assert.Equal(t, projectPath, source)
	assert.Equal(t, "Foo", cfg.Project.Name)
	assert.Empty(t, cfg.Author.Name)
}

func TestResolver_NoWorkspaceRootSkipsProjectTier(t *testing.T) {
	memfs := NewMemFS()
	memfs.AddFile(projectPath, authorConfig("project"))
	memfs.AddFile(homePath, authorConfig("home"))
	r := newTestResolver(memfs)

	assert.Equal(t, "home", r.Resolve("").Author.Name)
	assert.Equal(t, "project", r.Resolve(testRoot).Author.Name)
}

func TestResolver_Exists(t *testing.T) {
	tests := []struct {
		name  string
		files map[string]string
		root  string
		want  bool
	}{
		{"nothing", nil, testRoot, false},
		{"project", map[string]string{projectPath: authorConfig("a")}, testRoot, true},
		{"project without root", map[string]string{projectPath: authorConfig("a")}, "", false},
		{"user", map[string]string{userPath: authorConfig("a")}, "", true},
		{"home", map[string]string{homePath: authorConfig("a")}, testRoot, true},
		{"invalid file still exists", map[string]string{homePath: "not = [toml"}, testRoot, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			memfs := NewMemFS()
			for p, c := range tt.files {
				memfs.AddFile(p, c)
			}
			r := newTestResolver(memfs)
			assert.Equal(t, tt.want, r.Exists(tt.root))
		})
	}
}

func TestResolver_ExistsIgnoresDirectories(t *testing.T) {
	memfs := NewMemFS()
	memfs.AddDir(projectPath)
	r := newTestResolver(memfs)

	assert.False(t, r.Exists(testRoot))
}

func TestResolver_ExistsAgreesWithResolve(t *testing.T) {
	for _, path := range []string{projectPath, userPath, homePath} {
		t.Run(path, func(t *testing.T) {
			memfs := NewMemFS()
			memfs.AddFile(path, authorConfig("custom"))
			r := newTestResolver(memfs)

			require.True(t, r.Exists(testRoot))
			cfg, source := r.Load(testRoot)
			assert.Equal(t, path, source)
			assert.NotEqual(t, Default(), cfg)
		})
	}
}

func TestResolver_LoadFile(t *testing.T) {
	memfs := NewMemFS()
	memfs.AddFile(homePath, "[author\n")
	r := newTestResolver(memfs)

	_, err := r.LoadFile(projectPath)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = r.LoadFile(homePath)
	require.Error(t, err)
	var perr *ParseError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, homePath, perr.Path)

	var lerr *LoadError
	require.ErrorAs(t, err, &lerr)
	assert.Equal(t, homePath, lerr.Path)
}

func TestResolver_Inspect(t *testing.T) {
	memfs := NewMemFS()
	memfs.AddFile(projectPath, "[author\n")
	memfs.AddFile(homePath, authorConfig("home"))
	r := newTestResolver(memfs)

	cands := r.Inspect(testRoot)
	require.Len(t, cands, 3)

	assert.Equal(t, projectPath, cands[0].Path)
	assert.True(t, cands[0].Present)
	assert.Error(t, cands[0].Err)
	assert.False(t, cands[0].Selected)

	assert.False(t, cands[1].Present)
	assert.NoError(t, cands[1].Err)

	assert.True(t, cands[2].Present)
	assert.NoError(t, cands[2].Err)
	assert.True(t, cands[2].Selected)
}

func TestResolver_RereadsOnEveryCall(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ProjectFileName)
	empty := t.TempDir()
	r := NewResolver(
		WithUserConfigDir(func() (string, error) { return empty, nil }),
		WithHomeDir(func() (string, error) { return empty, nil }),
	)

	require.NoError(t, os.WriteFile(path, []byte(authorConfig("first")), 0o644))
	assert.Equal(t, "first", r.Resolve(dir).Author.Name)

	require.NoError(t, os.WriteFile(path, []byte(authorConfig("second")), 0o644))
	assert.Equal(t, "second", r.Resolve(dir).Author.Name)
}
