package utils

import (
	"net/url"
	"path"
	"strings"
)

// langPrefixes are the locale segments some sites prepend to product paths.
// They carry no meaning for parsing and are stripped during normalization.
var langPrefixes = map[string]bool{
	"ua":  true,
	"ukr": true,
	"en":  true,
	"ru":  true,
}

// NormalizeURL validates that rawURL belongs to domain and derives its
// canonical form. It returns the canonical URL, the cleaned path (always
// starting with "/") and the trailing slug with any file extension removed.
// An empty URL or a foreign host fails soft: rawURL comes back unchanged with
// ok=false, and the caller must not proceed to fetch.
func NormalizeURL(rawURL, domain string) (cleanURL, cleanPath, slug string, ok bool) {
	if rawURL == "" {
		return rawURL, "", "", false
	}

	parsed, err := url.Parse(rawURL)
	if err != nil || !strings.HasSuffix(parsed.Hostname(), domain) {
		return rawURL, "", "", false
	}

	var parts []string
	for _, part := range strings.Split(parsed.Path, "/") {
		if part != "" {
			parts = append(parts, part)
		}
	}
	if len(parts) > 0 && langPrefixes[strings.ToLower(parts[0])] {
		parts = parts[1:]
	}

	cleanPath = "/" + strings.Join(parts, "/")
	cleanURL = "https://" + domain + cleanPath

	if len(parts) > 0 {
		last := parts[len(parts)-1]
		slug = strings.TrimSuffix(last, path.Ext(last))
	}

	return cleanURL, cleanPath, slug, true
}
