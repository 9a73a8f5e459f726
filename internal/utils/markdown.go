package utils

import (
	"bytes"
	"html"
	"strings"
	"unicode/utf8"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	gmhtml "github.com/yuin/goldmark/renderer/html"
)

var (
	mdParser = goldmark.New(
		goldmark.WithExtensions(extension.GFM),
		goldmark.WithRendererOptions(
			gmhtml.WithHardWraps(),
			gmhtml.WithXHTML(),
		),
	)
	bodyPolicy  = bluemonday.UGCPolicy()
	plainPolicy = bluemonday.StrictPolicy()
)

func init() {
	bodyPolicy.AddTargetBlankToFullyQualifiedLinks(true)
	bodyPolicy.RequireNoReferrerOnLinks(true)
}

// RenderMarkdown converts user markdown to sanitized HTML. On a render
// failure the escaped source is returned.
func RenderMarkdown(source string) string {
	if source == "" {
		return ""
	}
	var buf bytes.Buffer
	if err := mdParser.Convert([]byte(source), &buf); err != nil {
		return html.EscapeString(source)
	}
	return string(bodyPolicy.SanitizeBytes(buf.Bytes()))
}

// Excerpt strips markup from s, collapses whitespace and cuts the result to
// at most limit runes, adding an ellipsis when it had to cut.
func Excerpt(s string, limit int) string {
	plain := html.UnescapeString(plainPolicy.Sanitize(s))
	plain = strings.Join(strings.Fields(plain), " ")
	if limit <= 0 || utf8.RuneCountInString(plain) <= limit {
		return plain
	}
	runes := []rune(plain)
	return strings.TrimSpace(string(runes[:limit])) + "…"
}
