package comment

import (
	"sort"
	"strings"
)

// Comment styles shared by several languages.
var (
	CStyle   Style = Block{Start: "/*", End: "*/", LinePrefix: " *"}
	CSSStyle Style = Block{Start: "/**", End: "*/", LinePrefix: " *"}
	LuaStyle Style = Block{Start: "--[[", End: "--]]"}
	// HaskellStyle is a nested block comment.
	HaskellStyle Style = Block{Start: "{-", End: "-}"}
	HashStyle    Style = Line{Prefix: "#"}
	SQLStyle     Style = Line{Prefix: "--"}
	LispStyle    Style = Line{Prefix: ";;;;"}
	ErlangStyle  Style = Line{Prefix: "%%"}
	VimStyle     Style = Line{Prefix: `"`}
	ScriptStyle  Style = LineWithShebang{Prefix: "#", Shebang: "#!/usr/bin/env {interpreter}"}
	PythonStyle  Style = PythonDoc{}
	MarkupStyle  Style = HTMLComment{}
)

// DefaultStyle is used for extensions missing from the table.
var DefaultStyle = HashStyle

// styles maps a lower-case extension to its comment style.
var styles = buildTable(map[Style][]string{
	CStyle: {
		"c", "h", "cpp", "hpp", "cc", "hh", "cxx", "hxx",
		"cs", "java", "js", "jsx", "mjs", "cjs", "ts", "tsx",
		"rs", "scala", "kt", "kts", "swift", "go", "m", "mm",
		"dart", "groovy", "php", "proto", "zig", "v",
	},
	CSSStyle:     {"css", "scss", "sass", "less"},
	PythonStyle:  {"py", "pyw", "pyx"},
	ScriptStyle:  {"rb", "pl", "pm", "sh", "bash", "zsh", "fish", "r", "jl"},
	MarkupStyle:  {"html", "htm", "xml", "svg", "xhtml", "vue"},
	SQLStyle:     {"sql"},
	HashStyle:    {"yaml", "yml", "toml", "cmake", "nix", "ex", "exs"},
	LuaStyle:     {"lua"},
	HaskellStyle: {"hs", "lhs"},
	LispStyle:    {"lisp", "cl", "scm", "clj", "cljs", "el"},
	ErlangStyle:  {"erl", "hrl"},
	VimStyle:     {"vim"},
})

func buildTable(groups map[Style][]string) map[string]Style {
	table := make(map[string]Style)
	for style, exts := range groups {
		for _, ext := range exts {
			table[ext] = style
		}
	}
	return table
}

// Normalize lower-cases an extension and strips a leading dot.
func Normalize(ext string) string {
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}

// Lookup returns the style registered for ext. The boolean reports whether
// the extension is known.
func Lookup(ext string) (Style, bool) {
	s, ok := styles[Normalize(ext)]
	return s, ok
}

// StyleFor returns the style for ext, falling back to DefaultStyle.
func StyleFor(ext string) Style {
	if s, ok := Lookup(ext); ok {
		return s
	}
	return DefaultStyle
}

// Known reports whether ext has a registered style.
func Known(ext string) bool {
	_, ok := Lookup(ext)
	return ok
}

// Extensions returns all registered extensions in sorted order.
func Extensions() []string {
	exts := make([]string, 0, len(styles))
	for ext := range styles {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}
