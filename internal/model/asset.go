package model

// AssetRecord maps a remote asset URL to its deduplicated local copy.
// Records live in a process-wide map keyed by SourceURL, populated once per
// unique asset for the whole run and consulted by every page's converter.
//
// Invariant: one SourceURL maps to exactly one LocalFilename for the run's
// lifetime. Filenames are derived from the URL itself (basename plus an
// 8-hex-character hash), so the mapping is also stable across runs.
type AssetRecord struct {
	// SourceURL is the absolute URL the asset was referenced by.
	SourceURL string `json:"source_url"`

	// LocalFilename is the deduplicated filename inside the shared assets
	// directory, in the form {basename}_{8-hex-hash}{ext}.
	LocalFilename string `json:"local_filename"`

	// LocalPath is the filesystem path of the downloaded copy.
	LocalPath string `json:"local_path"`

	// Downloaded reports whether the bytes were actually fetched. A false
	// value means the download failed; references to the asset may dangle.
	Downloaded bool `json:"downloaded"`
}
