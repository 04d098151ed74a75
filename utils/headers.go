package utils

import "math/rand"

// Fingerprint is one plausible browser identity. Outbound requests rotate
// through a small pool of these so traffic does not carry a single static
// signature. This is best-effort mimicry, not an anti-bot bypass.
type Fingerprint struct {
	UserAgent      string
	AcceptLanguage string
	SecChUA        string
	Platform       string
	ViewportWidth  int
	ViewportHeight int
}

var fingerprints = []Fingerprint{
	{
		UserAgent:      "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
		AcceptLanguage: "uk-UA,uk;q=0.9,en-US;q=0.8,en;q=0.7",
		SecChUA:        `"Not_A Brand";v="8", "Chromium";v="120", "Google Chrome";v="120"`,
		Platform:       "Windows",
		ViewportWidth:  1920,
		ViewportHeight: 1080,
	},
	{
		UserAgent:      "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/119.0.0.0 Safari/537.36",
		AcceptLanguage: "uk-UA,uk;q=0.9,en;q=0.8",
		SecChUA:        `"Google Chrome";v="119", "Chromium";v="119", "Not?A_Brand";v="24"`,
		Platform:       "macOS",
		ViewportWidth:  1680,
		ViewportHeight: 1050,
	},
	{
		UserAgent:      "Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:121.0) Gecko/20100101 Firefox/121.0",
		AcceptLanguage: "uk,ru;q=0.8,en-US;q=0.5,en;q=0.3",
		ViewportWidth:  1920,
		ViewportHeight: 1080,
	},
	{
		UserAgent:      "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
		AcceptLanguage: "uk-UA,uk;q=0.9,en;q=0.8",
		SecChUA:        `"Not_A Brand";v="8", "Chromium";v="120", "Google Chrome";v="120"`,
		Platform:       "Linux",
		ViewportWidth:  1366,
		ViewportHeight: 768,
	},
	{
		UserAgent:      "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36 Edg/120.0.0.0",
		AcceptLanguage: "uk-UA,uk;q=0.9,ru;q=0.8,en;q=0.7",
		SecChUA:        `"Not_A Brand";v="8", "Chromium";v="120", "Microsoft Edge";v="120"`,
		Platform:       "Windows",
		ViewportWidth:  1536,
		ViewportHeight: 864,
	},
}

// RandomFingerprint picks one identity from the rotation pool.
func RandomFingerprint() Fingerprint {
	return fingerprints[rand.Intn(len(fingerprints))]
}

// Headers builds the request header set for the fingerprint and merges extra
// on top. Extra entries win on key collisions, so per-source headers like
// Referer or tokens always survive.
func (f Fingerprint) Headers(extra map[string]string) map[string]string {
	headers := map[string]string{
		"User-Agent":      f.UserAgent,
		"Accept":          "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,*/*;q=0.8",
		"Accept-Language": f.AcceptLanguage,
	}
	if f.SecChUA != "" {
		headers["sec-ch-ua"] = f.SecChUA
		headers["sec-ch-ua-mobile"] = "?0"
		headers["sec-ch-ua-platform"] = `"` + f.Platform + `"`
	}
	for key, value := range extra {
		headers[key] = value
	}
	return headers
}

// RandomHeaders is the common shortcut: a fresh fingerprint's headers merged
// with the caller's source-specific extras.
func RandomHeaders(extra map[string]string) map[string]string {
	return RandomFingerprint().Headers(extra)
}
