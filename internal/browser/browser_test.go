package browser

import (
	"testing"
	"time"
)

// TestNew verifies option wiring and that construction and shutdown never
// launch a Chrome process (the allocator is lazy, so these tests run
// without a browser installed).
func TestNew(t *testing.T) {
	t.Parallel()

	t.Run("defaults", func(t *testing.T) {
		t.Parallel()

		b := New()
		defer b.Close()

		if b.timeout != 30*time.Second {
			t.Errorf("expected default 30s timeout, got %v", b.timeout)
		}
		if b.browserCtx == nil || b.allocCtx == nil {
			t.Error("expected contexts to be initialized")
		}
	})

	t.Run("options apply", func(t *testing.T) {
		t.Parallel()

		b := New(
			WithTimeout(5*time.Second),
			WithUserAgent("docmirror-test/1.0"),
		)
		defer b.Close()

		if b.timeout != 5*time.Second {
			t.Errorf("expected 5s timeout, got %v", b.timeout)
		}
		if b.userAgent != "docmirror-test/1.0" {
			t.Errorf("expected custom user agent, got %q", b.userAgent)
		}
	})

	t.Run("close is idempotent", func(t *testing.T) {
		t.Parallel()

		b := New()
		b.Close()
		b.Close()
	})
}
