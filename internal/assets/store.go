package assets

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rokuosan/docmirror/internal/model"
)

// DefaultMaxAssetSize limits a single asset download. Documentation images
// are rarely over a few megabytes; 20MB leaves room for large diagrams while
// preventing memory and disk surprises from a mislinked video file.
const DefaultMaxAssetSize = 20 * 1024 * 1024

// Store deduplicates asset downloads for one crawl run.
//
// The records map is the one piece of state mutated concurrently by multiple
// in-flight page pipelines. Resolve guarantees the at-most-once download
// invariant with a check-then-reserve under the mutex: the first caller for
// a URL installs an in-flight marker and downloads outside the lock, later
// callers for the same URL block on the marker and reuse the result.
type Store struct {
	// dir is the shared assets directory.
	dir string

	// client performs downloads. Asset fetches go over plain HTTP rather
	// than through the browser; images need no rendering.
	client *http.Client

	logger *slog.Logger

	// userAgent is sent with every asset request.
	userAgent string

	// headers are extra request headers from per-site configuration,
	// e.g. Authorization for docs behind basic auth.
	headers map[string]string

	// maxSize caps a single download in bytes.
	maxSize int64

	mu         sync.Mutex
	records    map[string]*model.AssetRecord
	inflight   map[string]chan struct{}
	downloaded int
	dirReady   bool
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithUserAgent sets the User-Agent header for asset requests.
func WithUserAgent(ua string) StoreOption {
	return func(s *Store) {
		s.userAgent = ua
	}
}

// WithHeaders sets extra request headers, typically from per-site
// configuration for docs behind authentication.
func WithHeaders(headers map[string]string) StoreOption {
	return func(s *Store) {
		s.headers = headers
	}
}

// WithMaxSize caps the size of a single asset download.
func WithMaxSize(size int64) StoreOption {
	return func(s *Store) {
		s.maxSize = size
	}
}

// WithHTTPClient replaces the HTTP client, mainly for tests.
func WithHTTPClient(client *http.Client) StoreOption {
	return func(s *Store) {
		s.client = client
	}
}

// NewStore creates a Store writing into dir. The directory is created
// lazily on the first successful download, so a crawl of a site without
// images leaves no empty assets directory behind.
func NewStore(dir string, logger *slog.Logger, opts ...StoreOption) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Store{
		dir:      dir,
		client:   &http.Client{Timeout: 60 * time.Second},
		logger:   logger,
		maxSize:  DefaultMaxAssetSize,
		records:  make(map[string]*model.AssetRecord),
		inflight: make(map[string]chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Resolve returns the asset record for sourceURL, downloading the asset on
// first sight. Concurrent calls for the same URL perform one download; the
// rest wait and share the result.
//
// Resolve never returns an error: a failed download is logged, recorded
// with Downloaded=false, and the caller still gets a filename to reference.
// A dangling image reference loses less than dropping the page's text.
func (s *Store) Resolve(sourceURL string) model.AssetRecord {
	s.mu.Lock()
	if rec, ok := s.records[sourceURL]; ok {
		s.mu.Unlock()
		return *rec
	}
	if ch, ok := s.inflight[sourceURL]; ok {
		s.mu.Unlock()
		<-ch
		s.mu.Lock()
		rec := *s.records[sourceURL]
		s.mu.Unlock()
		return rec
	}
	ch := make(chan struct{})
	s.inflight[sourceURL] = ch
	s.mu.Unlock()

	rec := s.download(sourceURL)

	s.mu.Lock()
	s.records[sourceURL] = &rec
	if rec.Downloaded {
		s.downloaded++
	}
	delete(s.inflight, sourceURL)
	close(ch)
	s.mu.Unlock()

	return rec
}

// download fetches one asset and writes it to the assets directory.
func (s *Store) download(sourceURL string) model.AssetRecord {
	rec := model.AssetRecord{
		SourceURL:     sourceURL,
		LocalFilename: Filename(sourceURL),
	}
	rec.LocalPath = filepath.Join(s.dir, rec.LocalFilename)

	if err := s.fetchToFile(sourceURL, rec.LocalPath); err != nil {
		s.logger.Warn("asset download failed",
			"url", sourceURL,
			"error", err,
		)
		return rec
	}

	rec.Downloaded = true
	s.logger.Debug("asset downloaded",
		"url", sourceURL,
		"file", rec.LocalFilename,
	)
	return rec
}

func (s *Store) fetchToFile(sourceURL, dest string) error {
	req, err := http.NewRequest(http.MethodGet, sourceURL, nil)
	if err != nil {
		return fmt.Errorf("build asset request: %w", err)
	}
	if s.userAgent != "" {
		req.Header.Set("User-Agent", s.userAgent)
	}
	for k, v := range s.headers {
		req.Header.Set(k, v)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("fetch asset: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck // Read-only body close

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("fetch asset: unexpected status %d", resp.StatusCode)
	}

	if err := s.ensureDir(); err != nil {
		return err
	}

	f, err := os.Create(dest) //nolint:gosec // Path derives from the hashed URL, not user input
	if err != nil {
		return fmt.Errorf("create asset file: %w", err)
	}

	_, copyErr := io.Copy(f, io.LimitReader(resp.Body, s.maxSize))
	closeErr := f.Close()
	if copyErr != nil {
		os.Remove(dest) //nolint:errcheck,gosec // best-effort cleanup of a partial file
		return fmt.Errorf("write asset file: %w", copyErr)
	}
	if closeErr != nil {
		return fmt.Errorf("close asset file: %w", closeErr)
	}
	return nil
}

// ensureDir creates the assets directory on first use.
func (s *Store) ensureDir() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.dirReady {
		return nil
	}
	if err := os.MkdirAll(s.dir, 0o750); err != nil {
		return fmt.Errorf("create assets directory: %w", err)
	}
	s.dirReady = true
	return nil
}

// DownloadedCount returns the number of assets successfully downloaded.
func (s *Store) DownloadedCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.downloaded
}

// Records returns all asset records sorted by source URL, for the resume
// database and the run summary.
func (s *Store) Records() []model.AssetRecord {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]model.AssetRecord, 0, len(s.records))
	for _, rec := range s.records {
		out = append(out, *rec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SourceURL < out[j].SourceURL })
	return out
}

// Restore preloads records from a previous interrupted run so resumed
// crawls do not re-download assets that already exist on disk.
func (s *Store) Restore(records []model.AssetRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range records {
		rec := records[i]
		s.records[rec.SourceURL] = &rec
		if rec.Downloaded {
			s.downloaded++
		}
	}
}

// Filename derives the deduplicated local filename for a source URL:
// {basename}_{8-hex-hash}{ext}. The hash covers the full URL, so two
// logo.png files served from different directories never collide, while
// the same URL always maps to the same name across runs.
func Filename(sourceURL string) string {
	sum := sha256.Sum256([]byte(sourceURL))
	hash := hex.EncodeToString(sum[:])[:8]

	base := "asset"
	ext := ""
	if u, err := url.Parse(sourceURL); err == nil {
		ext = path.Ext(u.Path)
		if b := strings.TrimSuffix(path.Base(u.Path), ext); b != "" && b != "." && b != "/" {
			base = sanitize(b)
		}
	}
	return base + "_" + hash + ext
}

// sanitize keeps filename characters that are safe on every filesystem.
func sanitize(name string) string {
	var sb strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9',
			r == '-', r == '_', r == '.':
			sb.WriteRune(r)
		default:
			sb.WriteRune('-')
		}
	}
	if sb.Len() == 0 {
		return "asset"
	}
	return sb.String()
}
