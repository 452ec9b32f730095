package utils

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var (
	stripPolicy   = bluemonday.StrictPolicy()
	contentPolicy = bluemonday.UGCPolicy()
	titleEscaper  = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")
)

// SanitizeTitle removes every HTML tag and escapes &, < and >.
func SanitizeTitle(input string) string {
	stripped := html.UnescapeString(stripPolicy.Sanitize(input))
	return titleEscaper.Replace(stripped)
}

// SanitizeContent keeps user formatting HTML but drops scripts and unsafe attributes.
func SanitizeContent(input string) string {
	return contentPolicy.Sanitize(input)
}
