package crawler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/time/rate"

	"github.com/akolanti/docsync/internal/config"
	"github.com/akolanti/docsync/internal/domain/commonModels"
	"github.com/akolanti/docsync/internal/metrics"
	"github.com/akolanti/docsync/pkg/logger_i"
)

var logger = logger_i.NewLogger("crawler")

const maxPageBytes = 10 << 20

// Crawler mirrors the pages reachable from a seed URL into OutDir.
// A link is followed only when its absolute URL contains AllowSubstring.
type Crawler struct {
	Client         *http.Client
	AllowSubstring string
	OutDir         string
	// MaxPages bounds the crawl; 0 means unbounded.
	MaxPages int
	// ExtractText also writes the visible text of each page as a .txt file the synchronizer can ingest.
	ExtractText bool
	// Limiter paces requests; nil means no pacing.
	Limiter *rate.Limiter
}

type PageResult struct {
	URL  string `json:"url"`
	Path string `json:"path,omitempty"`
	Err  string `json:"error,omitempty"`
}

type CrawlReport struct {
	Seed    string       `json:"seed"`
	SiteDir string       `json:"site_dir"`
	Pages   []PageResult `json:"pages"`
}

func (r CrawlReport) Saved() int {
	n := 0
	for _, p := range r.Pages {
		if p.Err == "" {
			n++
		}
	}
	return n
}

func New(client *http.Client, allow, outDir string) *Crawler {
	return &Crawler{
		Client:         client,
		AllowSubstring: allow,
		OutDir:         outDir,
	}
}

// Crawl walks breadth first from seed. URLs are deduplicated by their exact
// string, so "a?x=1" and "a#top" count as different pages. Fetch failures are
// recorded and the crawl moves on; only setup errors and cancellation stop it.
func (c *Crawler) Crawl(ctx context.Context, seed string) (CrawlReport, error) {
	report := CrawlReport{Seed: seed}
	seedURL, err := url.Parse(seed)
	if err != nil || seedURL.Host == "" {
		return report, fmt.Errorf("%w: invalid seed url %q", commonModels.ErrEmptyInput, seed)
	}

	report.SiteDir = filepath.Join(c.OutDir, SiteName(seedURL))
	if err := os.MkdirAll(report.SiteDir, 0o755); err != nil {
		return report, fmt.Errorf("%w: %v", commonModels.ErrIO, err)
	}

	visited := map[string]bool{}
	queue := []string{seed}
	for len(queue) > 0 {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		if c.MaxPages > 0 && len(report.Pages) >= c.MaxPages {
			logger.Info("page limit reached", "limit", c.MaxPages)
			break
		}

		current := queue[0]
		queue = queue[1:]
		if visited[current] {
			continue
		}
		visited[current] = true

		if c.Limiter != nil {
			if err := c.Limiter.Wait(ctx); err != nil {
				return report, err
			}
		}

		links, page := c.visit(ctx, report.SiteDir, current)
		report.Pages = append(report.Pages, page)
		for _, link := range links {
			if !visited[link] && strings.Contains(link, c.AllowSubstring) {
				queue = append(queue, link)
			}
		}
	}

	logger.Info("crawl finished", "seed", seed, "saved", report.Saved(), "visited", len(report.Pages))
	return report, nil
}

func (c *Crawler) visit(ctx context.Context, siteDir, rawURL string) ([]string, PageResult) {
	result := PageResult{URL: rawURL}
	fail := func(err error) ([]string, PageResult) {
		logger.Warn("error crawling", "url", rawURL, "error", err)
		metrics.CapturePageCrawled("error")
		result.Err = err.Error()
		return nil, result
	}

	pageURL, err := url.Parse(rawURL)
	if err != nil {
		return fail(err)
	}
	body, contentType, err := c.fetch(ctx, rawURL)
	if err != nil {
		return fail(err)
	}

	name := PageName(pageURL)
	result.Path = filepath.Join(siteDir, name+".html")
	if err := os.WriteFile(result.Path, body, 0o644); err != nil {
		return fail(err)
	}
	metrics.CapturePageCrawled("saved")
	logger.Debug("saved page", "url", rawURL, "path", result.Path)

	if !isHTML(contentType) {
		return nil, result
	}
	doc, err := html.Parse(strings.NewReader(string(body)))
	if err != nil {
		logger.Warn("unparsable html", "url", rawURL, "error", err)
		return nil, result
	}
	if c.ExtractText {
		text := VisibleText(doc)
		if err := os.WriteFile(filepath.Join(siteDir, name+".txt"), []byte(text), 0o644); err != nil {
			logger.Warn("could not write page text", "url", rawURL, "error", err)
		}
	}
	return Links(doc, pageURL), result
}

func (c *Crawler) fetch(ctx context.Context, rawURL string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, "", err
	}
	req.Header.Set("User-Agent", config.CrawlerUserAgent)

	client := c.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, "", errors.New(resp.Status)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxPageBytes))
	if err != nil {
		return nil, "", err
	}
	return body, resp.Header.Get("Content-Type"), nil
}

func isHTML(contentType string) bool {
	if contentType == "" {
		return true
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	return err == nil && (mediaType == "text/html" || mediaType == "application/xhtml+xml")
}
