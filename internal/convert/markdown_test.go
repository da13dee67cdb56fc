package convert

import (
	"net/url"
	"strings"
	"testing"

	"github.com/rokuosan/docmirror/internal/model"
)

func newTestConverter(t *testing.T) *Converter {
	t.Helper()
	base, err := url.Parse("https://docs.example.io/guide/intro")
	if err != nil {
		t.Fatal(err)
	}
	return &Converter{BaseURL: base, MaxImageWidth: 800}
}

// TestToMarkdown_Blocks tests rendering of the block-level constructs.
func TestToMarkdown_Blocks(t *testing.T) {
	t.Parallel()

	t.Run("headings strip inner tags", func(t *testing.T) {
		t.Parallel()

		c := newTestConverter(t)
		got, err := c.ToMarkdown(`<h1>Getting <em>Started</em></h1><h3>Install</h3>`)
		if err != nil {
			t.Fatal(err)
		}
		want := "# Getting Started\n\n### Install\n"
		if got != want {
			t.Errorf("got %q, want %q", got, want)
		}
	})

	t.Run("paragraphs separate with blank lines", func(t *testing.T) {
		t.Parallel()

		c := newTestConverter(t)
		got, err := c.ToMarkdown(`<p>First paragraph.</p><p>Second
			paragraph with   odd spacing.</p>`)
		if err != nil {
			t.Fatal(err)
		}
		want := "First paragraph.\n\nSecond paragraph with odd spacing.\n"
		if got != want {
			t.Errorf("got %q, want %q", got, want)
		}
	})

	t.Run("unordered and nested lists", func(t *testing.T) {
		t.Parallel()

		c := newTestConverter(t)
		input := `<ul><li>one</li><li>two<ul><li>two.a</li><li>two.b</li></ul></li></ul>`
		got, err := c.ToMarkdown(input)
		if err != nil {
			t.Fatal(err)
		}
		want := "- one\n- two\n  - two.a\n  - two.b\n"
		if got != want {
			t.Errorf("got %q, want %q", got, want)
		}
	})

	t.Run("ordered list numbers items", func(t *testing.T) {
		t.Parallel()

		c := newTestConverter(t)
		got, err := c.ToMarkdown(`<ol><li>clone</li><li>build</li><li>run</li></ol>`)
		if err != nil {
			t.Fatal(err)
		}
		want := "1. clone\n2. build\n3. run\n"
		if got != want {
			t.Errorf("got %q, want %q", got, want)
		}
	})

	t.Run("fenced code with language and decoded entities", func(t *testing.T) {
		t.Parallel()

		c := newTestConverter(t)
		input := `<pre><code class="language-go">if x &lt; 10 &amp;&amp; y &gt; 0 {
	return
}</code></pre>`
		got, err := c.ToMarkdown(input)
		if err != nil {
			t.Fatal(err)
		}
		want := "```go\nif x < 10 && y > 0 {\n\treturn\n}\n```\n"
		if got != want {
			t.Errorf("got %q, want %q", got, want)
		}
	})

	t.Run("bare pre gets unlabeled fence", func(t *testing.T) {
		t.Parallel()

		c := newTestConverter(t)
		got, err := c.ToMarkdown(`<pre>plain output</pre>`)
		if err != nil {
			t.Fatal(err)
		}
		want := "```\nplain output\n```\n"
		if got != want {
			t.Errorf("got %q, want %q", got, want)
		}
	})

	t.Run("blockquote prefixes lines", func(t *testing.T) {
		t.Parallel()

		c := newTestConverter(t)
		got, err := c.ToMarkdown(`<blockquote><p>first</p><p>second</p></blockquote>`)
		if err != nil {
			t.Fatal(err)
		}
		want := "> first\n> \n> second\n"
		if got != want {
			t.Errorf("got %q, want %q", got, want)
		}
	})

	t.Run("containers recurse transparently", func(t *testing.T) {
		t.Parallel()

		c := newTestConverter(t)
		got, err := c.ToMarkdown(`<div><section><p>inside</p></section></div>`)
		if err != nil {
			t.Fatal(err)
		}
		if got != "inside\n" {
			t.Errorf("got %q", got)
		}
	})

	t.Run("scripts and styles render nothing", func(t *testing.T) {
		t.Parallel()

		c := newTestConverter(t)
		got, err := c.ToMarkdown(`<p>keep</p><script>var x=1;</script><style>.a{}</style>`)
		if err != nil {
			t.Fatal(err)
		}
		if got != "keep\n" {
			t.Errorf("got %q", got)
		}
	})
}

// TestToMarkdown_Inline tests inline rendering: links, code spans, emphasis.
func TestToMarkdown_Inline(t *testing.T) {
	t.Parallel()

	t.Run("relative links resolve against page URL", func(t *testing.T) {
		t.Parallel()

		c := newTestConverter(t)
		got, err := c.ToMarkdown(`<p>See <a href="../setup">the setup guide</a>.</p>`)
		if err != nil {
			t.Fatal(err)
		}
		want := "See [the setup guide](https://docs.example.io/setup).\n"
		if got != want {
			t.Errorf("got %q, want %q", got, want)
		}
	})

	t.Run("unresolvable href degrades to plain text", func(t *testing.T) {
		t.Parallel()

		c := newTestConverter(t)
		got, err := c.ToMarkdown(`<p><a href="javascript:void(0)">click here</a></p>`)
		if err != nil {
			t.Fatal(err)
		}
		if got != "click here\n" {
			t.Errorf("got %q", got)
		}
	})

	t.Run("inline code and emphasis", func(t *testing.T) {
		t.Parallel()

		c := newTestConverter(t)
		got, err := c.ToMarkdown(`<p>Run <code>go build</code> with <strong>care</strong> and <em>patience</em>.</p>`)
		if err != nil {
			t.Fatal(err)
		}
		want := "Run `go build` with **care** and *patience*.\n"
		if got != want {
			t.Errorf("got %q, want %q", got, want)
		}
	})
}

// TestToMarkdown_Images tests image reference rendering and scaling.
func TestToMarkdown_Images(t *testing.T) {
	t.Parallel()

	t.Run("wide image gets proportionally scaled dimensions", func(t *testing.T) {
		t.Parallel()

		c := newTestConverter(t)
		c.ImageSizes = map[string]model.ImageSize{
			"https://docs.example.io/shots/arch.png": {Width: 1600, Height: 900},
		}
		got, err := c.ToMarkdown(`<p><img src="/shots/arch.png" alt="architecture"></p>`)
		if err != nil {
			t.Fatal(err)
		}
		want := `<img src="https://docs.example.io/shots/arch.png" alt="architecture" width="800" height="450" />` + "\n"
		if got != want {
			t.Errorf("got %q, want %q", got, want)
		}
	})

	t.Run("narrow image keeps natural dimensions", func(t *testing.T) {
		t.Parallel()

		c := newTestConverter(t)
		c.ImageSizes = map[string]model.ImageSize{
			"https://docs.example.io/icon.png": {Width: 64, Height: 64},
		}
		got, err := c.ToMarkdown(`<p><img src="/icon.png" alt="icon"></p>`)
		if err != nil {
			t.Fatal(err)
		}
		if !strings.Contains(got, `width="64" height="64"`) {
			t.Errorf("expected natural dimensions kept, got %q", got)
		}
	})

	t.Run("unknown dimensions fall back to plain markdown image", func(t *testing.T) {
		t.Parallel()

		c := newTestConverter(t)
		got, err := c.ToMarkdown(`<p><img src="/logo.png" alt="logo"></p>`)
		if err != nil {
			t.Fatal(err)
		}
		want := "![logo](https://docs.example.io/logo.png)\n"
		if got != want {
			t.Errorf("got %q, want %q", got, want)
		}
	})

	t.Run("data URLs are dropped", func(t *testing.T) {
		t.Parallel()

		c := newTestConverter(t)
		got, err := c.ToMarkdown(`<p>before</p><img src="data:image/png;base64,iVBORw0KGgo="><p>after</p>`)
		if err != nil {
			t.Fatal(err)
		}
		if strings.Contains(got, "data:") {
			t.Errorf("data URL leaked into output: %q", got)
		}
		if !strings.Contains(got, "before") || !strings.Contains(got, "after") {
			t.Errorf("surrounding content lost: %q", got)
		}
	})

	t.Run("asset resolver rewrites to local path", func(t *testing.T) {
		t.Parallel()

		c := newTestConverter(t)
		c.ResolveAsset = func(sourceURL string) (string, bool) {
			if sourceURL == "https://docs.example.io/logo.png" {
				return "../assets/logo_a1b2c3d4.png", true
			}
			return "", false
		}
		got, err := c.ToMarkdown(`<p><img src="/logo.png" alt="logo"></p>`)
		if err != nil {
			t.Fatal(err)
		}
		want := "![logo](../assets/logo_a1b2c3d4.png)\n"
		if got != want {
			t.Errorf("got %q, want %q", got, want)
		}
	})
}

// TestToMarkdown_Tables tests table rendering including malformed input.
func TestToMarkdown_Tables(t *testing.T) {
	t.Parallel()

	t.Run("well-formed table", func(t *testing.T) {
		t.Parallel()

		c := newTestConverter(t)
		input := `<table>
			<tr><th>Flag</th><th>Default</th></tr>
			<tr><td>--max-pages</td><td>100</td></tr>
			<tr><td>--concurrency</td><td>4</td></tr>
		</table>`
		got, err := c.ToMarkdown(input)
		if err != nil {
			t.Fatal(err)
		}
		want := "| Flag | Default |\n| --- | --- |\n| --max-pages | 100 |\n| --concurrency | 4 |\n"
		if got != want {
			t.Errorf("got %q, want %q", got, want)
		}
	})

	t.Run("mismatched cell counts pad and truncate", func(t *testing.T) {
		t.Parallel()

		c := newTestConverter(t)
		input := `<table>
			<tr><th>A</th><th>B</th></tr>
			<tr><td>only</td></tr>
			<tr><td>x</td><td>y</td><td>z</td></tr>
		</table>`
		got, err := c.ToMarkdown(input)
		if err != nil {
			t.Fatal(err)
		}
		lines := strings.Split(strings.TrimSpace(got), "\n")
		if len(lines) != 4 {
			t.Fatalf("expected 4 lines, got %d: %q", len(lines), got)
		}
		for _, line := range lines {
			if strings.Count(line, "|") != 3 {
				t.Errorf("row has wrong column count: %q", line)
			}
		}
	})

	t.Run("empty table renders nothing", func(t *testing.T) {
		t.Parallel()

		c := newTestConverter(t)
		got, err := c.ToMarkdown(`<table></table>`)
		if err != nil {
			t.Fatal(err)
		}
		if got != "" {
			t.Errorf("expected empty output, got %q", got)
		}
	})
}

// TestToMarkdown_Deterministic verifies that identical input yields
// byte-identical output across repeated conversions.
func TestToMarkdown_Deterministic(t *testing.T) {
	t.Parallel()

	c := newTestConverter(t)
	c.ImageSizes = map[string]model.ImageSize{
		"https://docs.example.io/a.png": {Width: 1200, Height: 600},
		"https://docs.example.io/b.png": {Width: 300, Height: 200},
	}
	input := `<h2>Overview</h2>
		<p>Some <a href="/ref">reference</a> text with <code>code</code>.</p>
		<img src="/a.png" alt="a"><img src="/b.png" alt="b">
		<ul><li>x</li><li>y</li></ul>
		<table><tr><th>k</th><th>v</th></tr><tr><td>1</td><td>2</td></tr></table>`

	first, err := c.ToMarkdown(input)
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 5; i++ {
		again, err := c.ToMarkdown(input)
		if err != nil {
			t.Fatal(err)
		}
		if again != first {
			t.Fatalf("conversion not deterministic:\nfirst: %q\nagain: %q", first, again)
		}
	}
}

// TestScaleToWidth tests the proportional scaling rule.
func TestScaleToWidth(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name         string
		w, h, max    int
		wantW, wantH int
	}{
		{name: "1600x900 at 800 scales to 800x450", w: 1600, h: 900, max: 800, wantW: 800, wantH: 450},
		{name: "at ceiling passes through", w: 800, h: 600, max: 800, wantW: 800, wantH: 600},
		{name: "under ceiling passes through", w: 640, h: 480, max: 800, wantW: 640, wantH: 480},
		{name: "zero ceiling disables scaling", w: 1600, h: 900, max: 0, wantW: 1600, wantH: 900},
		{name: "odd ratio rounds height", w: 1000, h: 333, max: 800, wantW: 800, wantH: 266},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			gotW, gotH := ScaleToWidth(tt.w, tt.h, tt.max)
			if gotW != tt.wantW || gotH != tt.wantH {
				t.Errorf("ScaleToWidth(%d, %d, %d) = (%d, %d), want (%d, %d)",
					tt.w, tt.h, tt.max, gotW, gotH, tt.wantW, tt.wantH)
			}
		})
	}
}
