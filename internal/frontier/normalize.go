package frontier

import (
	"net/url"
	"path"
	"strings"
)

// staticExtensions lists path suffixes that identify binary or presentation
// assets. Pages behind these are never worth rendering in a browser tab;
// images are instead collected by the asset store when pages reference them.
var staticExtensions = []string{
	".png", ".jpg", ".jpeg", ".gif", ".svg", ".webp", ".ico", ".bmp", ".avif",
	".css", ".js", ".mjs", ".map",
	".woff", ".woff2", ".ttf", ".otf", ".eot",
	".pdf", ".zip", ".tar", ".gz", ".tgz", ".dmg", ".exe",
	".mp4", ".webm", ".mp3", ".ogg", ".wav",
	".xml", ".rss", ".atom", ".txt",
}

// Normalize canonicalizes a URL discovered on a page. Relative references
// are resolved against base (which may be nil when rawURL is known to be
// absolute). The fragment is stripped and a single trailing slash is
// removed, except for the root path which stays "/".
//
// The boolean result is false for malformed or non-HTTP input. Callers must
// treat that as "undiscoverable", not as a fatal error: broken hrefs are a
// property of the page, not of the crawl.
func Normalize(rawURL string, base *url.URL) (string, bool) {
	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" {
		return "", false
	}

	// Schemes that can never be pages.
	lower := strings.ToLower(rawURL)
	for _, prefix := range []string{"javascript:", "mailto:", "tel:", "data:"} {
		if strings.HasPrefix(lower, prefix) {
			return "", false
		}
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return "", false
	}
	if base != nil {
		u = base.ResolveReference(u)
	}

	if u.Scheme != "http" && u.Scheme != "https" {
		return "", false
	}
	if u.Host == "" {
		return "", false
	}

	u.Fragment = ""
	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)

	// Empty path and "/" are the same page.
	if u.Path == "" {
		u.Path = "/"
	}

	// Trim one trailing slash except at the root, so /docs and /docs/
	// collapse to the same identity.
	if u.Path != "/" {
		u.Path = strings.TrimSuffix(u.Path, "/")
	}

	return u.String(), true
}

// ShouldCrawl reports whether a normalized URL belongs in the crawl.
// It is a pure predicate: true only when the URL's origin matches the seed
// origin and the path is neither a static asset nor an administrative or
// search endpoint. URLs still carrying a fragment are rejected outright
// because they identify page regions, not pages.
func ShouldCrawl(rawURL string, origin *url.URL) bool {
	if origin == nil {
		return false
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}

	if u.Fragment != "" {
		return false
	}

	// Same origin: scheme and host (including port) must match.
	if !strings.EqualFold(u.Scheme, origin.Scheme) || !strings.EqualFold(u.Host, origin.Host) {
		return false
	}

	p := u.Path
	if p == "" {
		p = "/"
	}

	ext := strings.ToLower(path.Ext(p))
	for _, s := range staticExtensions {
		if ext == s {
			return false
		}
	}

	lowerPath := strings.ToLower(p)
	if strings.Contains(lowerPath, "/api/") || strings.HasSuffix(lowerPath, "/api") {
		return false
	}
	if strings.HasPrefix(lowerPath, "/search") {
		return false
	}

	// Underscore-prefixed segments (/_next/, /_static/, ...) are build
	// artifacts and framework plumbing.
	for _, seg := range strings.Split(lowerPath, "/") {
		if strings.HasPrefix(seg, "_") {
			return false
		}
	}

	return true
}
