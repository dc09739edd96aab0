// Package comment maps file extensions to comment syntax and renders
// template bodies as comment blocks in that syntax.
package comment

import "strings"

// Style is the comment syntax used to wrap a header body.
//
// The set of styles is closed: Block, Line, LineWithShebang, PythonDoc and
// HTMLComment are the only implementations.
type Style interface {
	// Wrap renders body as a comment block terminated by a blank line.
	Wrap(body string) string

	style()
}

// Block is a delimited comment such as /* ... */.
type Block struct {
	Start      string
	End        string
	LinePrefix string
}

// Line is a comment where every line carries the same prefix.
type Line struct {
	Prefix string
}

// LineWithShebang is a line comment preceded by an interpreter line.
// Shebang may contain the {interpreter} token.
type LineWithShebang struct {
	Prefix  string
	Shebang string
}

// PythonDoc is a module docstring preceded by an encoding declaration.
type PythonDoc struct{}

// HTMLComment is an SGML comment, <!-- ... -->.
type HTMLComment struct{}

func (Block) style()           {}
func (Line) style()            {}
func (LineWithShebang) style() {}
func (PythonDoc) style()       {}
func (HTMLComment) style()     {}

// PythonEncoding is the first line of every PythonDoc header.
const PythonEncoding = "# -*- coding: utf-8 -*-"

// Wrap renders body with the given style.
func Wrap(s Style, body string) string {
	return s.Wrap(body)
}

// Wrap implements Style.
func (b Block) Wrap(body string) string {
	var sb strings.Builder
	sb.WriteString(b.Start)
	sb.WriteByte('\n')
	for _, line := range splitLines(body) {
		if isBlank(line) {
			if b.LinePrefix != "" {
				sb.WriteString(b.LinePrefix)
			}
			sb.WriteByte('\n')
			continue
		}
		sb.WriteString(b.LinePrefix)
		sb.WriteByte(' ')
		sb.WriteString(line)
		sb.WriteByte('\n')
	}
	sb.WriteByte(' ')
	sb.WriteString(b.End)
	sb.WriteString("\n\n")
	return sb.String()
}

// Wrap implements Style.
func (l Line) Wrap(body string) string {
	var sb strings.Builder
	writePrefixed(&sb, l.Prefix, body)
	sb.WriteByte('\n')
	return sb.String()
}

// Wrap implements Style.
func (l LineWithShebang) Wrap(body string) string {
	var sb strings.Builder
	sb.WriteString(l.Shebang)
	sb.WriteByte('\n')
	sb.WriteString(l.Prefix)
	sb.WriteByte('\n')
	writePrefixed(&sb, l.Prefix, body)
	sb.WriteString(l.Prefix)
	sb.WriteString("\n\n")
	return sb.String()
}

// Wrap implements Style. Unlike the other styles the body is inserted
// verbatim: a trailing newline is kept, leaving a blank line before the
// closing quotes, and CRLF is not normalised.
func (PythonDoc) Wrap(body string) string {
	var sb strings.Builder
	sb.WriteString(PythonEncoding)
	sb.WriteString("\n\"\"\"\n")
	sb.WriteString(body)
	sb.WriteString("\n\"\"\"\n\n")
	return sb.String()
}

// Wrap implements Style.
func (HTMLComment) Wrap(body string) string {
	var sb strings.Builder
	sb.WriteString("<!--\n")
	for _, line := range splitLines(body) {
		if !isBlank(line) {
			sb.WriteString("  ")
			sb.WriteString(line)
		}
		sb.WriteByte('\n')
	}
	sb.WriteString("-->\n\n")
	return sb.String()
}

// writePrefixed writes every body line behind prefix. Blank lines get the
// bare prefix with no trailing space.
func writePrefixed(sb *strings.Builder, prefix, body string) {
	for _, line := range splitLines(body) {
		sb.WriteString(prefix)
		if !isBlank(line) {
			sb.WriteByte(' ')
			sb.WriteString(line)
		}
		sb.WriteByte('\n')
	}
}

// splitLines splits body on newlines after dropping one trailing newline.
func splitLines(body string) []string {
	body = strings.ReplaceAll(body, "\r\n", "\n")
	body = strings.TrimSuffix(body, "\n")
	return strings.Split(body, "\n")
}

func isBlank(line string) bool {
	return strings.TrimSpace(line) == ""
}
