package crawler

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/nao1215/sitetree/internal/model"
	"github.com/nao1215/sitetree/internal/report"
)

const testBase = "http://example.test"

// fakeResource is one response served by fakeSite.
type fakeResource struct {
	body        string
	contentType string
}

func htmlPage(body string) fakeResource {
	return fakeResource{body: body, contentType: "text/html; charset=utf-8"}
}

// fakeSite is an in-memory Fetcher keyed by path for URLs under testBase and
// by full URL for any other authority. Unknown keys fail. Fragments are
// dropped before lookup, like a real HTTP request would.
type fakeSite struct {
	resources map[string]fakeResource
	requests  []string
}

func newFakeSite(resources map[string]fakeResource) *fakeSite {
	return &fakeSite{resources: resources}
}

func (f *fakeSite) Fetch(_ context.Context, target string) ([]byte, string, error) {
	f.requests = append(f.requests, target)

	withoutFragment, _, _ := strings.Cut(target, "#")
	key := withoutFragment
	if strings.HasPrefix(withoutFragment, testBase+"/") {
		key = strings.TrimPrefix(withoutFragment, testBase)
	}

	r, ok := f.resources[key]
	if !ok {
		return nil, "", &FetchError{URL: target, Err: errors.New("connection refused")}
	}
	return []byte(r.body), r.contentType, nil
}

// requestCount returns how many times target was fetched.
func (f *fakeSite) requestCount(target string) int {
	count := 0
	for _, r := range f.requests {
		if r == target {
			count++
		}
	}
	return count
}

// shape renders a tree compactly as name[child,child].
func shape(n *model.Node) string {
	if n == nil {
		return "<nil>"
	}
	if n.IsLeaf() {
		return n.Name
	}
	parts := make([]string, 0, len(n.Children))
	for _, c := range n.Children {
		parts = append(parts, shape(c))
	}
	return n.Name + "[" + strings.Join(parts, ",") + "]"
}

func TestSpiderScenario(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	serve := func(path, contentType, body string) {
		mux.HandleFunc(path, func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", contentType)
			fmt.Fprint(w, body)
		})
	}
	serve("/index.html", "text/html", `<html><body><a href="/second.html">second</a></body></html>`)
	serve("/second.html", "text/html", `<html><body><a href="/third.html">third</a><script src="/script.js"></script></body></html>`)
	serve("/third.html", "text/html", `<html><head><link rel="stylesheet" href="/style.css"></head><body><img src="/image.png"></body></html>`)
	serve("/style.css", "text/css", `body { color: red; }`)
	serve("/image.png", "image/png", "\x89PNG")
	serve("/script.js", "application/javascript", `console.log("hi");`)

	server := httptest.NewServer(mux)
	defer server.Close()

	spider := NewSpider(NewHTTPFetcher(server.Client()))
	root, err := spider.Crawl(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	t.Run("builds expected tree", func(t *testing.T) {
		t.Parallel()

		want := "/index.html[/second.html[/third.html[/style.css,/image.png],/script.js]]"
		if got := shape(root); got != want {
			t.Errorf("expected %s, got %s", want, got)
		}
	})

	t.Run("renders expected text", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if err := report.Render(&buf, root); err != nil {
			t.Fatalf("failed to render: %v", err)
		}

		want := "/index.html\n" +
			" /second.html\n" +
			"  /third.html\n" +
			"   /style.css\n" +
			"   /image.png\n" +
			"  /script.js\n"
		if buf.String() != want {
			t.Errorf("expected:\n%s\ngot:\n%s", want, buf.String())
		}
	})
}

func TestSpiderTermination(t *testing.T) {
	t.Parallel()

	site := newFakeSite(map[string]fakeResource{
		"/index.html": htmlPage(`<a href="/a.html"></a><a href="/index.html"></a>`),
		"/a.html":     htmlPage(`<a href="/a.html"></a><a href="/b.html"></a><a href="/index.html"></a>`),
		"/b.html":     htmlPage(`<a href="/a.html"></a><a href="/index.html"></a><a href="b.html"></a>`),
	})

	root, err := NewSpider(site).Crawl(context.Background(), testBase)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got, want := shape(root), "/index.html[/a.html[/b.html]]"; got != want {
		t.Errorf("expected %s, got %s", want, got)
	}
	for _, path := range []string{"/index.html", "/a.html", "/b.html"} {
		if n := site.requestCount(testBase + path); n != 1 {
			t.Errorf("expected %s to be fetched once, got %d", path, n)
		}
	}
}

func TestSpiderDuplicateSuppression(t *testing.T) {
	t.Parallel()

	t.Run("sibling references crawl once", func(t *testing.T) {
		t.Parallel()

		site := newFakeSite(map[string]fakeResource{
			"/index.html": htmlPage(`<a href="/page.html"></a><a href="page.html"></a><img src="/page.html">`),
			"/page.html":  htmlPage(`page`),
		})

		root, err := NewSpider(site).Crawl(context.Background(), testBase)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if got, want := shape(root), "/index.html[/page.html]"; got != want {
			t.Errorf("expected %s, got %s", want, got)
		}
		if n := site.requestCount(testBase + "/page.html"); n != 1 {
			t.Errorf("expected one fetch, got %d", n)
		}
	})

	t.Run("URL is claimed before its subtree is crawled", func(t *testing.T) {
		t.Parallel()

		// /deep.html is reached first through /a.html, so the later
		// reference from the root contributes nothing.
		site := newFakeSite(map[string]fakeResource{
			"/index.html": htmlPage(`<a href="/a.html"></a><a href="/deep.html"></a>`),
			"/a.html":     htmlPage(`<a href="/deep.html"></a>`),
			"/deep.html":  htmlPage(`<a href="/a.html"></a>`),
		})

		root, err := NewSpider(site).Crawl(context.Background(), testBase)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if got, want := shape(root), "/index.html[/a.html[/deep.html]]"; got != want {
			t.Errorf("expected %s, got %s", want, got)
		}
	})

	t.Run("differently spelled URLs are crawled again", func(t *testing.T) {
		t.Parallel()

		site := newFakeSite(map[string]fakeResource{
			"/index.html": htmlPage(`<a href="/a.html"></a><a href="/a.html#top"></a>`),
			"/a.html":     htmlPage(`a`),
		})

		root, err := NewSpider(site).Crawl(context.Background(), testBase)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if got, want := shape(root), "/index.html[/a.html,/a.html]"; got != want {
			t.Errorf("expected %s, got %s", want, got)
		}
	})
}

func TestSpiderHostScoping(t *testing.T) {
	t.Parallel()

	t.Run("foreign hosts are never fetched", func(t *testing.T) {
		t.Parallel()

		site := newFakeSite(map[string]fakeResource{
			"/index.html": htmlPage(`
				<a href="http://other.test/index.html"></a>
				<a href="//cdn.test/lib.js"></a>
				<a href="http://www.example.test/index.html"></a>
				<a href="mailto:admin@example.test"></a>
				<a href="/local.html"></a>`),
			"/local.html": htmlPage(`local`),
		})

		root, err := NewSpider(site).Crawl(context.Background(), testBase)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if got, want := shape(root), "/index.html[/local.html]"; got != want {
			t.Errorf("expected %s, got %s", want, got)
		}
		if len(site.requests) != 2 {
			t.Errorf("expected 2 requests, got %v", site.requests)
		}
	})

	t.Run("same host on another port is crawled", func(t *testing.T) {
		t.Parallel()

		site := newFakeSite(map[string]fakeResource{
			"/index.html":                     htmlPage(`<a href="http://example.test:9090/x.html"></a>`),
			"http://example.test:9090/x.html": htmlPage(`<a href="/index.html"></a>`),
		})

		root, err := NewSpider(site).Crawl(context.Background(), testBase)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if got, want := shape(root), "/index.html[/x.html]"; got != want {
			t.Errorf("expected %s, got %s", want, got)
		}
	})

	t.Run("second server on another port is crawled", func(t *testing.T) {
		t.Parallel()

		var mu sync.Mutex
		otherHits := 0
		other := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			mu.Lock()
			otherHits++
			mu.Unlock()
			w.Header().Set("Content-Type", "text/html")
			fmt.Fprint(w, "other port")
		}))
		defer other.Close()

		local := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "text/html")
			fmt.Fprintf(w, `<a href="%s/page.html">other port</a>`, other.URL)
		}))
		defer local.Close()

		root, err := NewSpider(NewHTTPFetcher(local.Client())).Crawl(context.Background(), local.URL)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if got, want := shape(root), "/index.html[/page.html]"; got != want {
			t.Errorf("expected %s, got %s", want, got)
		}
		mu.Lock()
		defer mu.Unlock()
		if otherHits != 1 {
			t.Errorf("expected one request to the other port, got %d", otherHits)
		}
	})
}

func TestSpiderContentTypeGating(t *testing.T) {
	t.Parallel()

	site := newFakeSite(map[string]fakeResource{
		"/index.html": htmlPage(`<a href="/notes.txt"></a><a href="/untyped"></a><a href="/any"></a><a href="/loose"></a>`),
		"/notes.txt":  {body: `<a href="/secret.html">secret</a>`, contentType: "text/plain"},
		"/untyped":    {body: `<a href="/hidden.html">hidden</a>`, contentType: ""},
		"/any":        {body: `<a href="/wild.html">wild</a>`, contentType: "*/*"},
		"/wild.html":  htmlPage(`wild`),
		"/loose":      {body: `<a href="/kept.html">kept</a>`, contentType: "text/html; charset="},
		"/kept.html":  htmlPage(`kept`),
	})

	root, err := NewSpider(site).Crawl(context.Background(), testBase)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got, want := shape(root), "/index.html[/notes.txt,/untyped,/any[/wild.html],/loose[/kept.html]]"; got != want {
		t.Errorf("expected %s, got %s", want, got)
	}
	if site.requestCount(testBase+"/secret.html") != 0 || site.requestCount(testBase+"/hidden.html") != 0 {
		t.Errorf("links inside non-HTML resources must not be followed: %v", site.requests)
	}
}

func TestSpiderOrder(t *testing.T) {
	t.Parallel()

	site := newFakeSite(map[string]fakeResource{
		"/index.html": htmlPage(`<html><body>
			<img src="/i1.png">
			<script src="/s1.js"></script>
			<a href="/a1.html"></a>
			<link rel="stylesheet" href="/l1.css">
			<img src="/i2.png">
			<a href="/a2.html"></a>
		</body></html>`),
		"/a1.html": htmlPage(``),
		"/a2.html": htmlPage(``),
		"/l1.css":  {contentType: "text/css"},
		"/s1.js":   {contentType: "application/javascript"},
		"/i1.png":  {contentType: "image/png"},
		"/i2.png":  {contentType: "image/png"},
	})

	root, err := NewSpider(site).Crawl(context.Background(), testBase)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := "/index.html[/a1.html,/a2.html,/l1.css,/s1.js,/i1.png,/i2.png]"
	if got := shape(root); got != want {
		t.Errorf("expected %s, got %s", want, got)
	}
}

func TestSpiderPruning(t *testing.T) {
	t.Parallel()

	t.Run("fetch failure prunes only that branch", func(t *testing.T) {
		t.Parallel()

		site := newFakeSite(map[string]fakeResource{
			"/index.html": htmlPage(`<a href="/missing.html"></a><a href="/ok.html"></a>`),
			"/ok.html":    htmlPage(`ok`),
		})

		root, err := NewSpider(site).Crawl(context.Background(), testBase)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got, want := shape(root), "/index.html[/ok.html]"; got != want {
			t.Errorf("expected %s, got %s", want, got)
		}
	})

	t.Run("failed URL stays claimed", func(t *testing.T) {
		t.Parallel()

		site := newFakeSite(map[string]fakeResource{
			"/index.html": htmlPage(`<a href="/missing.html"></a><a href="/missing.html"></a>`),
		})

		if _, err := NewSpider(site).Crawl(context.Background(), testBase); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if n := site.requestCount(testBase + "/missing.html"); n != 1 {
			t.Errorf("expected one attempt, got %d", n)
		}
	})

	t.Run("unresolvable candidates are skipped", func(t *testing.T) {
		t.Parallel()

		site := newFakeSite(map[string]fakeResource{
			"/index.html": htmlPage(`<a>no href</a><a href=""></a><a href="/bad%zz.html"></a><img src="/ok.png">`),
			"/ok.png":     {contentType: "image/png"},
		})

		root, err := NewSpider(site).Crawl(context.Background(), testBase)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got, want := shape(root), "/index.html[/ok.png]"; got != want {
			t.Errorf("expected %s, got %s", want, got)
		}
		if len(site.requests) != 2 {
			t.Errorf("expected 2 requests, got %v", site.requests)
		}
	})

	t.Run("empty HTML body gives childless node", func(t *testing.T) {
		t.Parallel()

		site := newFakeSite(map[string]fakeResource{
			"/index.html": htmlPage(``),
		})

		root, err := NewSpider(site).Crawl(context.Background(), testBase)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got, want := shape(root), "/index.html"; got != want {
			t.Errorf("expected %s, got %s", want, got)
		}
	})
}

func TestSpiderRelativeResolution(t *testing.T) {
	t.Parallel()

	// Relative links resolve against the base URL, not the linking page.
	site := newFakeSite(map[string]fakeResource{
		"/index.html":     htmlPage(`<a href="docs/page.html"></a>`),
		"/docs/page.html": htmlPage(`<img src="logo.png">`),
		"/logo.png":       {contentType: "image/png"},
	})

	root, err := NewSpider(site).Crawl(context.Background(), testBase)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got, want := shape(root), "/index.html[/docs/page.html[/logo.png]]"; got != want {
		t.Errorf("expected %s, got %s", want, got)
	}
}

func TestSpiderErrors(t *testing.T) {
	t.Parallel()

	t.Run("invalid base URL", func(t *testing.T) {
		t.Parallel()

		for _, base := range []string{"", "not a url", "ftp://example.test", "http://"} {
			root, err := NewSpider(newFakeSite(nil)).Crawl(context.Background(), base)
			if !errors.Is(err, ErrInvalidBaseURL) {
				t.Errorf("%q: expected ErrInvalidBaseURL, got %v", base, err)
			}
			if root != nil {
				t.Errorf("%q: expected nil root", base)
			}
		}
	})

	t.Run("root not fetched", func(t *testing.T) {
		t.Parallel()

		root, err := NewSpider(newFakeSite(nil)).Crawl(context.Background(), testBase)
		if !errors.Is(err, ErrRootNotFetched) {
			t.Errorf("expected ErrRootNotFetched, got %v", err)
		}
		if root != nil {
			t.Errorf("expected nil root, got %s", shape(root))
		}
	})

	t.Run("cancelled context", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		site := newFakeSite(map[string]fakeResource{"/index.html": htmlPage(``)})
		_, err := NewSpider(site).Crawl(ctx, testBase)
		if !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
		if len(site.requests) != 0 {
			t.Errorf("expected no requests, got %v", site.requests)
		}
	})
}

func TestSpiderOptions(t *testing.T) {
	t.Parallel()

	chain := map[string]fakeResource{
		"/index.html": htmlPage(`<a href="/1.html"></a>`),
		"/1.html":     htmlPage(`<a href="/2.html"></a>`),
		"/2.html":     htmlPage(`<a href="/3.html"></a>`),
		"/3.html":     htmlPage(``),
		"/start.html": htmlPage(`<a href="/3.html"></a>`),
	}

	t.Run("defaults", func(t *testing.T) {
		t.Parallel()

		s := NewSpider(newFakeSite(nil))
		if s.rootPath != DefaultRootPath {
			t.Errorf("expected root path %q, got %q", DefaultRootPath, s.rootPath)
		}
		if s.maxDepth != DefaultMaxDepth {
			t.Errorf("expected max depth %d, got %d", DefaultMaxDepth, s.maxDepth)
		}
		if s.logger == nil {
			t.Error("expected non-nil logger")
		}
	})

	t.Run("max depth prunes deeper links", func(t *testing.T) {
		t.Parallel()

		root, err := NewSpider(newFakeSite(chain), WithMaxDepth(2)).Crawl(context.Background(), testBase)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got, want := shape(root), "/index.html[/1.html[/2.html]]"; got != want {
			t.Errorf("expected %s, got %s", want, got)
		}
	})

	t.Run("zero max depth is unlimited", func(t *testing.T) {
		t.Parallel()

		root, err := NewSpider(newFakeSite(chain), WithMaxDepth(0)).Crawl(context.Background(), testBase)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got, want := shape(root), "/index.html[/1.html[/2.html[/3.html]]]"; got != want {
			t.Errorf("expected %s, got %s", want, got)
		}
	})

	t.Run("root path override", func(t *testing.T) {
		t.Parallel()

		root, err := NewSpider(newFakeSite(chain), WithRootPath("/start.html")).Crawl(context.Background(), testBase)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got, want := shape(root), "/start.html[/3.html]"; got != want {
			t.Errorf("expected %s, got %s", want, got)
		}
	})

	t.Run("nil logger keeps default", func(t *testing.T) {
		t.Parallel()

		if s := NewSpider(newFakeSite(nil), WithLogger(nil)); s.logger == nil {
			t.Error("expected default logger to be kept")
		}
	})
}

func TestSpiderIndependentCrawls(t *testing.T) {
	t.Parallel()

	site := newFakeSite(map[string]fakeResource{
		"/index.html": htmlPage(`<a href="/a.html"></a>`),
		"/a.html":     htmlPage(``),
	})
	spider := NewSpider(site)

	first, err := spider.Crawl(context.Background(), testBase)
	if err != nil {
		t.Fatalf("first crawl failed: %v", err)
	}
	second, err := spider.Crawl(context.Background(), testBase)
	if err != nil {
		t.Fatalf("second crawl failed: %v", err)
	}

	if shape(first) != shape(second) {
		t.Errorf("expected identical trees, got %s and %s", shape(first), shape(second))
	}
	if n := site.requestCount(testBase + "/a.html"); n != 2 {
		t.Errorf("expected one fetch per crawl, got %d", n)
	}
}
