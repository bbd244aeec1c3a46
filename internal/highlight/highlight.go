// Package highlight renders snippet source code as a standalone HTML page.
//
// It wraps chroma (a Go port of the Pygments lexers and styles). The set of
// languages and styles a snippet may use is whatever chroma registers, so
// validation and rendering can never disagree.
package highlight

import (
	"fmt"
	"slices"
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
)

// Options controls how a snippet is rendered.
type Options struct {
	Language string
	Style    string
	Linenos  bool
}

// ValidLanguage reports whether name is a known lexer name or alias.
func ValidLanguage(name string) bool {
	return name != "" && lexers.Get(name) != nil
}

// ValidStyle reports whether name is a registered style.
func ValidStyle(name string) bool {
	_, ok := styles.Registry[name]
	return ok
}

// Languages returns every accepted language name and alias, sorted.
func Languages() []string {
	names := lexers.Names(true)
	slices.Sort(names)
	return slices.Compact(names)
}

// Styles returns every accepted style name, sorted.
func Styles() []string {
	names := styles.Names()
	slices.Sort(names)
	return names
}

// Render returns a complete HTML document with code highlighted according
// to opts. Unknown languages or styles are an error; callers validate first.
func Render(code string, opts Options) (string, error) {
	lexer := lexers.Get(opts.Language)
	if opts.Language == "" || lexer == nil {
		return "", fmt.Errorf("highlight: unknown language %q", opts.Language)
	}
	style, ok := styles.Registry[opts.Style]
	if !ok {
		return "", fmt.Errorf("highlight: unknown style %q", opts.Style)
	}

	formatter := html.New(
		html.Standalone(true),
		html.WithLineNumbers(opts.Linenos),
		html.LineNumbersInTable(opts.Linenos),
	)

	iterator, err := chroma.Coalesce(lexer).Tokenise(nil, code)
	if err != nil {
		return "", fmt.Errorf("highlight: tokenising %s: %w", opts.Language, err)
	}

	var b strings.Builder
	if err := formatter.Format(&b, style, iterator); err != nil {
		return "", fmt.Errorf("highlight: formatting: %w", err)
	}
	return b.String(), nil
}
