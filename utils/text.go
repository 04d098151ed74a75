package utils

import (
	"html"
	"regexp"
	"strings"
)

// tagRegex matches any markup tag so review text can be flattened to plain text.
var tagRegex = regexp.MustCompile(`<[^>]+>`)

// CleanText strips markup tags, unescapes HTML entities and trims the result.
// Review payloads mix plain text with leftover markup, so every free-text
// field passes through here before storage.
func CleanText(text string) string {
	if text == "" {
		return ""
	}

	clean := tagRegex.ReplaceAllString(text, "")
	return strings.TrimSpace(html.UnescapeString(clean))
}
