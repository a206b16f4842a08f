// Package render converts page markdown into HTML.
//
// The extension set is fixed: strikethrough, tables, footnotes, task lists,
// smart punctuation and heading attributes ({#id .class}). Raw HTML in the
// source is omitted from the output.
package render

import (
	"bytes"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
)

// engine is stateless after construction and safe for concurrent use.
var engine = goldmark.New(
	goldmark.WithExtensions(
		extension.Strikethrough,
		extension.Table,
		extension.Footnote,
		extension.TaskList,
		extension.Typographer,
	),
	goldmark.WithParserOptions(
		parser.WithAttribute(),
	),
)

// HTML renders markup to an HTML fragment.
//
// The output depends only on markup. Conversion into an in-memory buffer
// cannot fail; if goldmark ever reports an error the partial output is
// discarded and the empty string is returned.
func HTML(markup string) string {
	var buf bytes.Buffer
	if err := engine.Convert([]byte(markup), &buf); err != nil {
		return ""
	}
	return buf.String()
}
