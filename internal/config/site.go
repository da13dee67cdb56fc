package config

// SiteConfig holds site-specific configuration for a single documentation host.
// This allows customizing crawl and extraction behavior per site.
type SiteConfig struct {
	// Headers are custom HTTP headers to include in asset requests to this
	// site, e.g. an Authorization header for docs behind basic auth.
	Headers map[string]string `yaml:"headers,omitempty"`

	// MaxPages overrides the global page ceiling for this site.
	// If zero, the global MaxPages is used.
	MaxPages int `yaml:"maxPages,omitempty"`

	// ContentSelector is a CSS selector naming the main content container.
	// When set it takes priority over the built-in container heuristics,
	// which is useful for docs themes with unusual markup.
	ContentSelector string `yaml:"contentSelector,omitempty"`

	// IgnorePatterns are URL path prefixes to skip during crawling,
	// in addition to the built-in filters.
	IgnorePatterns []string `yaml:"ignorePatterns,omitempty"`
}

// File represents the structure of the .docmirror configuration file.
type File struct {
	// Sites maps hostnames to their site-specific configurations.
	// Keys are bare hostnames without the scheme (e.g., "docs.example.io").
	Sites map[string]SiteConfig `yaml:"sites,omitempty"`

	// Defaults contains default site configuration applied to all sites
	// unless overridden in the site-specific configuration.
	Defaults SiteConfig `yaml:"defaults,omitempty"`
}

// GetSiteConfig returns the configuration for a specific hostname.
// It merges the site-specific configuration with defaults.
func (cf *File) GetSiteConfig(host string) SiteConfig {
	// Start with defaults
	result := cf.Defaults

	// Override with site-specific configuration if present
	if siteConfig, ok := cf.Sites[host]; ok {
		if siteConfig.MaxPages != 0 {
			result.MaxPages = siteConfig.MaxPages
		}
		if siteConfig.ContentSelector != "" {
			result.ContentSelector = siteConfig.ContentSelector
		}
		if len(siteConfig.Headers) > 0 {
			if result.Headers == nil {
				result.Headers = make(map[string]string)
			}
			for k, v := range siteConfig.Headers {
				result.Headers[k] = v
			}
		}
		if len(siteConfig.IgnorePatterns) > 0 {
			result.IgnorePatterns = siteConfig.IgnorePatterns
		}
	}

	return result
}
