package crawler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/snobbots/chatbot-backend/internal/config"
	pkgRetry "github.com/snobbots/chatbot-backend/internal/pkg/retry"
)

func testCrawler() *Crawler {
	return New(config.CrawlerConfig{
		FetchTimeout: 2 * time.Second,
		Retry:        *pkgRetry.DefaultRetryConfig(),
	})
}

func TestLinksKeepsInternalOnly(t *testing.T) {
	var srv *httptest.Server
	srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><body>
			<a href="/about">About</a>
			<a href="/pricing">Pricing</a>
			<a href="/about">About again</a>
			<a href="https://elsewhere.example.com/external">External</a>
			<a href="` + srv.URL + `/docs">Absolute internal</a>
		</body></html>`))
	}))
	defer srv.Close()

	links, err := testCrawler().Links(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("Links() error = %v", err)
	}

	want := []string{"/about", "/docs", "/pricing"}
	if len(links) != len(want) {
		t.Fatalf("Links() = %v, want %v", links, want)
	}
	for i := range want {
		if links[i] != want[i] {
			t.Errorf("Links()[%d] = %q, want %q", i, links[i], want[i])
		}
	}
}

func TestBlocksPairsHeadingsWithContent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><body>
			<h1>Getting Started</h1>
			<p>Install the widget.</p>
			<p>Paste the snippet.</p>
			<h2>Pricing</h2>
			<p>Free for small teams.</p>
		</body></html>`))
	}))
	defer srv.Close()

	blocks, err := testCrawler().Blocks(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("Blocks() error = %v", err)
	}

	if len(blocks) != 2 {
		t.Fatalf("Blocks() returned %d blocks, want 2", len(blocks))
	}
	if blocks[0].Heading != "Getting Started" {
		t.Errorf("blocks[0].Heading = %q", blocks[0].Heading)
	}
	if blocks[0].Body != "Install the widget.\nPaste the snippet." {
		t.Errorf("blocks[0].Body = %q", blocks[0].Body)
	}
	if blocks[1].Heading != "Pricing" || blocks[1].Body != "Free for small teams." {
		t.Errorf("blocks[1] = %+v", blocks[1])
	}
}

func TestBlocksPageWithoutHeadings(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><head><title>Plain Page</title></head><body><p>Just text.</p></body></html>`))
	}))
	defer srv.Close()

	blocks, err := testCrawler().Blocks(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("Blocks() error = %v", err)
	}
	if len(blocks) != 1 {
		t.Fatalf("Blocks() returned %d blocks, want 1", len(blocks))
	}
	if blocks[0].Heading != "Plain Page" || blocks[0].Body != "Just text." {
		t.Errorf("blocks[0] = %+v", blocks[0])
	}
}

func TestFetchRetriesOnServerError(t *testing.T) {
	attempts := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte(`<html><body><a href="/ok">ok</a></body></html>`))
	}))
	defer srv.Close()

	links, err := testCrawler().Links(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("Links() error after retries = %v", err)
	}
	if attempts != 3 {
		t.Errorf("server saw %d attempts, want 3", attempts)
	}
	if len(links) != 1 || links[0] != "/ok" {
		t.Errorf("Links() = %v", links)
	}
}
