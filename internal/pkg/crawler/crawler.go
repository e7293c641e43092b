// Package crawler discovers internal links on a website and extracts
// heading/body blocks that feed the ingestion pipeline pre-chunked.
package crawler

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/avast/retry-go/v4"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"github.com/snobbots/chatbot-backend/internal/config"
	"go.uber.org/zap"
)

var headingSelector = "h1, h2, h3, h4"

type Crawler struct {
	client    *http.Client
	retryOpts []retry.Option
}

func New(cfg config.CrawlerConfig) *Crawler {
	return &Crawler{
		client:    &http.Client{Timeout: cfg.FetchTimeout},
		retryOpts: cfg.Retry.ToRetryOptions(),
	}
}

// Links returns the unique internal link paths found on the page at baseURL,
// sorted. Links pointing at other hosts are dropped.
func (c *Crawler) Links(ctx context.Context, baseURL string) ([]string, error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}

	doc, err := c.fetch(ctx, baseURL)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	doc.Find("a[href]").Each(func(_ int, sel *goquery.Selection) {
		href, ok := sel.Attr("href")
		if !ok {
			return
		}
		ref, err := url.Parse(href)
		if err != nil {
			return
		}
		full := base.ResolveReference(ref)
		if full.Host != base.Host {
			return
		}
		seen[full.Path] = true
	})

	links := make([]string, 0, len(seen))
	for path := range seen {
		links = append(links, path)
	}
	sort.Strings(links)

	ctxzap.Info(ctx, "internal links discovered",
		zap.String("base_url", baseURL),
		zap.Int("link_count", len(links)),
	)

	return links, nil
}

// Blocks extracts heading+body text blocks from the page at pageURL. Each
// block pairs a heading with the content up to the next heading, so the
// result is already chunked for ingestion. A page without headings yields a
// single block holding the whole body text under the page title.
func (c *Crawler) Blocks(ctx context.Context, pageURL string) ([]Block, error) {
	doc, err := c.fetch(ctx, pageURL)
	if err != nil {
		return nil, err
	}

	var blocks []Block
	doc.Find(headingSelector).Each(func(_ int, heading *goquery.Selection) {
		var body strings.Builder
		for sel := heading.Next(); sel.Length() > 0 && !sel.Is(headingSelector); sel = sel.Next() {
			if text := strings.TrimSpace(sel.Text()); text != "" {
				if body.Len() > 0 {
					body.WriteString("\n")
				}
				body.WriteString(text)
			}
		}

		title := strings.TrimSpace(heading.Text())
		if title == "" && body.Len() == 0 {
			return
		}
		blocks = append(blocks, Block{Heading: title, Body: body.String()})
	})

	if len(blocks) == 0 {
		body := strings.TrimSpace(doc.Find("body").Text())
		if body != "" {
			blocks = append(blocks, Block{
				Heading: strings.TrimSpace(doc.Find("title").Text()),
				Body:    body,
			})
		}
	}

	ctxzap.Info(ctx, "page blocks extracted",
		zap.String("page_url", pageURL),
		zap.Int("block_count", len(blocks)),
	)

	return blocks, nil
}

// Block is one heading+body unit extracted from a crawled page.
type Block struct {
	Heading string
	Body    string
}

func (c *Crawler) fetch(ctx context.Context, pageURL string) (*goquery.Document, error) {
	return retry.DoWithData(func() (*goquery.Document, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
		if err != nil {
			return nil, retry.Unrecoverable(fmt.Errorf("create request: %w", err))
		}

		resp, err := c.client.Do(req)
		if err != nil {
			return nil, fmt.Errorf("fetch %s: %w", pageURL, err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("fetch %s: unexpected status %s", pageURL, resp.Status)
		}

		doc, err := goquery.NewDocumentFromReader(resp.Body)
		if err != nil {
			return nil, retry.Unrecoverable(fmt.Errorf("parse %s: %w", pageURL, err))
		}
		return doc, nil
	}, append(c.retryOpts, retry.Context(ctx))...)
}
