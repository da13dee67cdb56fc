package writer

import (
	"net/url"
	"path/filepath"
	"strings"
)

// AssetsDirName is the shared assets directory under the output root.
const AssetsDirName = "assets"

// PathFor maps a page URL onto a relative filesystem path under the output
// root: path segments become nested directories, the last segment becomes
// the filename, and the root or an empty path becomes "index". The suffix
// carries the extension including the dot (".md" or ".json").
//
// The mapping mirrors the site's URL hierarchy so the output tree reads
// like the site's navigation, and it is injective for normalized URLs:
// two distinct normalized URLs never land on the same file.
func PathFor(pageURL string, suffix string) string {
	segments := []string{"index"}
	if u, err := url.Parse(pageURL); err == nil {
		p := strings.Trim(u.Path, "/")
		if p != "" {
			parts := strings.Split(p, "/")
			segments = segments[:0]
			for _, part := range parts {
				segments = append(segments, sanitizeSegment(part))
			}
		}
	}
	return filepath.Join(segments...) + suffix
}

// AssetRelPath computes the reference from a page file to an asset file,
// both given relative to the output root. The result always uses forward
// slashes; it lands in Markdown, not in a filesystem call.
func AssetRelPath(pagePath, assetFilename string) string {
	rel, err := filepath.Rel(filepath.Dir(pagePath), filepath.Join(AssetsDirName, assetFilename))
	if err != nil {
		// Both inputs are relative paths under the same root; Rel cannot
		// fail for them, but fall back to a root-based reference anyway.
		return AssetsDirName + "/" + assetFilename
	}
	return filepath.ToSlash(rel)
}

// sanitizeSegment keeps path segments safe for every filesystem.
func sanitizeSegment(segment string) string {
	var sb strings.Builder
	for _, r := range segment {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9',
			r == '-', r == '_', r == '.':
			sb.WriteRune(r)
		default:
			sb.WriteRune('-')
		}
	}
	out := strings.Trim(sb.String(), ".")
	if out == "" {
		return "index"
	}
	return out
}
