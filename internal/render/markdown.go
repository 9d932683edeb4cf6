// Package render converts assistant markdown for display.
package render

import (
	"bytes"
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	highlighting "github.com/yuin/goldmark-highlighting/v2"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	goldmarkhtml "github.com/yuin/goldmark/renderer/html"
	"go.abhg.dev/goldmark/mermaid"
)

// Converter handles markdown-to-HTML conversion with configurable options.
type Converter struct {
	md        goldmark.Markdown
	sanitizer *bluemonday.Policy
}

// Option configures the Converter.
type Option func(*Converter)

// WithHighlighting enables syntax highlighting with the specified style.
func WithHighlighting(style string) Option {
	return func(c *Converter) {
		c.md = goldmark.New(
			goldmark.WithExtensions(
				extension.GFM,
				highlighting.NewHighlighting(
					highlighting.WithStyle(style),
				),
				&mermaid.Extender{RenderMode: mermaid.RenderModeClient},
			),
			goldmark.WithParserOptions(
				parser.WithAutoHeadingID(),
			),
			goldmark.WithRendererOptions(
				goldmarkhtml.WithHardWraps(),
				goldmarkhtml.WithXHTML(),
			),
		)
	}
}

// WithSanitization enables HTML sanitization using the provided policy.
func WithSanitization(policy *bluemonday.Policy) Option {
	return func(c *Converter) {
		c.sanitizer = policy
	}
}

// NewConverter creates a new Converter with the given options.
func NewConverter(opts ...Option) *Converter {
	c := &Converter{
		md: goldmark.New(
			goldmark.WithExtensions(
				extension.GFM,
				&mermaid.Extender{RenderMode: mermaid.RenderModeClient},
			),
			goldmark.WithParserOptions(
				parser.WithAutoHeadingID(),
			),
			goldmark.WithRendererOptions(
				goldmarkhtml.WithHardWraps(),
				goldmarkhtml.WithXHTML(),
			),
		),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// DefaultConverter returns a converter with settings suitable for assistant
// replies.
func DefaultConverter() *Converter {
	return NewConverter(
		WithHighlighting("monokai"),
		WithSanitization(CreateSanitizer()),
	)
}

// CreateSanitizer creates a bluemonday policy that allows safe HTML for
// markdown rendering of untrusted assistant output.
func CreateSanitizer() *bluemonday.Policy {
	p := bluemonday.UGCPolicy()

	// Allow code highlighting and mermaid classes
	p.AllowAttrs("class").Matching(bluemonday.SpaceSeparatedTokens).OnElements("code", "pre", "span", "div")

	// Allow data attributes for code blocks (used by some highlighters)
	p.AllowDataAttributes()

	// Allow id attributes for heading anchors
	p.AllowAttrs("id").Matching(bluemonday.Paragraph).OnElements("h1", "h2", "h3", "h4", "h5", "h6")

	return p
}

// Convert converts markdown text to HTML.
func (c *Converter) Convert(markdown string) (string, error) {
	var buf bytes.Buffer
	if err := c.md.Convert([]byte(markdown), &buf); err != nil {
		return "", err
	}

	result := buf.String()

	if c.sanitizer != nil {
		result = c.sanitizer.Sanitize(result)
	}

	return result, nil
}

// ConvertToSafeHTML converts markdown and escapes it on error, so a broken
// reply never breaks the output.
func (c *Converter) ConvertToSafeHTML(markdown string) string {
	result, err := c.Convert(markdown)
	if err != nil {
		return "<pre>" + html.EscapeString(markdown) + "</pre>"
	}
	return result
}

// stripPolicy removes every tag, leaving text content only.
var stripPolicy = bluemonday.StrictPolicy()

// PlainText renders markdown down to text for the terminal transcript.
// Block elements are separated by newlines; inline markup disappears.
func (c *Converter) PlainText(markdown string) string {
	rendered, err := c.Convert(markdown)
	if err != nil {
		return markdown
	}

	// Keep block boundaries readable once the tags are gone.
	for _, tag := range []string{"</p>", "</li>", "</h1>", "</h2>", "</h3>", "</h4>", "</h5>", "</h6>", "<br />", "</pre>", "</tr>"} {
		rendered = strings.ReplaceAll(rendered, tag, tag+"\n")
	}

	text := html.UnescapeString(stripPolicy.Sanitize(rendered))

	lines := strings.Split(text, "\n")
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		line = strings.TrimRight(line, " \t")
		if line == "" && (len(out) == 0 || out[len(out)-1] == "") {
			continue
		}
		out = append(out, line)
	}
	return strings.TrimRight(strings.Join(out, "\n"), "\n")
}
