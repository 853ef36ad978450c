package storyfetch

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
	"github.com/PuerkitoBio/goquery"

	"github.com/leofalp/gradedreader/internal/utils"
)

const (
	// DefaultTimeout is the default HTTP request timeout
	DefaultTimeout = 30 * time.Second
	// DefaultUserAgent is the default User-Agent header value
	DefaultUserAgent = "gradedreader-storyfetch/1.0"
	// DialTimeout is the maximum time to wait for a TCP connection
	DialTimeout = 10 * time.Second
	// ResponseHeaderTimeout is the maximum time to wait for response headers
	ResponseHeaderTimeout = 10 * time.Second
	// maxRedirects bounds how many redirects a fetch follows
	maxRedirects = 10

	chromeSelector = "script, style, noscript, nav, header, footer, aside, form"
)

// contentSelectors are tried in order; the first match holds the story.
var contentSelectors = []string{"article", "main", "#content", ".content"}

var (
	// ErrEmptyURL is returned when Fetch is called with a blank URL.
	ErrEmptyURL = errors.New("storyfetch: URL cannot be empty")

	// ErrNoContent is returned when the page converts to blank Markdown.
	ErrNoContent = errors.New("storyfetch: page has no readable content")
)

// Result is a fetched page converted to Markdown.
type Result struct {
	// URL is the final URL after following all redirects
	URL string
	// Title is the page title, empty when the page has none
	Title string
	// Markdown is the page content converted from HTML
	Markdown string
}

// Fetcher downloads web pages and converts them to Markdown story text.
type Fetcher struct {
	client    *http.Client
	userAgent string
}

// New returns a Fetcher with conservative connection timeouts. A non-positive
// timeout selects [DefaultTimeout].
func New(timeout time.Duration) *Fetcher {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	return &Fetcher{
		userAgent: DefaultUserAgent,
		client: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				DialContext: (&net.Dialer{
					Timeout:   DialTimeout,
					KeepAlive: 30 * time.Second,
				}).DialContext,
				TLSHandshakeTimeout:   10 * time.Second,
				ResponseHeaderTimeout: ResponseHeaderTimeout,
				IdleConnTimeout:       90 * time.Second,
				ForceAttemptHTTP2:     true,
			},
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= maxRedirects {
					return fmt.Errorf("too many redirects (>%d)", maxRedirects)
				}
				return nil
			},
		},
	}
}

// WithHttpClient replaces the HTTP client, mainly for tests.
func (f *Fetcher) WithHttpClient(client *http.Client) *Fetcher {
	f.client = client
	return f
}

// Fetch retrieves the page at rawURL and returns its content as Markdown.
// Partial URLs (e.g. "example.com/story") are normalised by prepending "https://".
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (Result, error) {
	url := strings.TrimSpace(rawURL)
	if url == "" {
		return Result{}, ErrEmptyURL
	}
	if !strings.HasPrefix(url, "http://") && !strings.HasPrefix(url, "https://") {
		url = "https://" + url
	}

	resp, body, err := utils.DoGet(ctx, f.client, url, map[string]string{
		"User-Agent": f.userAgent,
		"Accept":     "text/html,application/xhtml+xml",
	})
	if err != nil {
		return Result{}, fmt.Errorf("storyfetch: fetch %s: %w", url, err)
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return Result{}, fmt.Errorf("storyfetch: parse HTML: %w", err)
	}
	title := pageTitle(doc)

	doc.Find(chromeSelector).Remove()
	html, err := goquery.OuterHtml(mainContent(doc))
	if err != nil {
		return Result{}, fmt.Errorf("storyfetch: render content: %w", err)
	}

	markdown, err := htmltomarkdown.ConvertString(html)
	if err != nil {
		return Result{}, fmt.Errorf("storyfetch: convert HTML to Markdown: %w", err)
	}

	markdown = strings.TrimSpace(markdown)
	if markdown == "" {
		return Result{}, ErrNoContent
	}

	return Result{URL: resp.Request.URL.String(), Title: title, Markdown: markdown}, nil
}

func mainContent(doc *goquery.Document) *goquery.Selection {
	for _, selector := range contentSelectors {
		if s := doc.Find(selector).First(); s.Length() > 0 {
			return s
		}
	}
	return doc.Find("body").First()
}

// pageTitle prefers <title>, then og:title, then the first h1.
func pageTitle(doc *goquery.Document) string {
	if title := strings.TrimSpace(doc.Find("title").First().Text()); title != "" {
		return title
	}
	if og, ok := doc.Find("meta[property='og:title']").Attr("content"); ok && strings.TrimSpace(og) != "" {
		return strings.TrimSpace(og)
	}
	return strings.TrimSpace(doc.Find("h1").First().Text())
}
