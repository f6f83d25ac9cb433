package news

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
	"golang.org/x/time/rate"

	"github.com/m3rciful/finbot/core/logger"
	"github.com/m3rciful/finbot/core/metrics"
	"github.com/m3rciful/finbot/core/telegram/netutil"
)

const (
	defaultURL     = "https://finance.yahoo.com/"
	defaultTimeout = 10 * time.Second
	defaultLimit   = 5
	userAgent      = "Mozilla/5.0 (compatible; finbot/1.0)"
	maxBodyBytes   = 4 << 20
)

// DefaultKeywords select finance-related anchors by their visible text.
var DefaultKeywords = []string{"finance", "financial", "market", "stock", "economy", "investment", "money", "business"}

// Config configures the news scraper.
type Config struct {
	URL      string        `yaml:"url" envconfig:"NEWS_URL"`
	Timeout  time.Duration `yaml:"timeout" envconfig:"NEWS_TIMEOUT"`
	RPS      float64       `yaml:"rps" envconfig:"NEWS_RPS"`
	Keywords []string      `yaml:"keywords" envconfig:"NEWS_KEYWORDS"`
	Limit    int           `yaml:"limit" envconfig:"NEWS_LIMIT"`
}

// Scraper pulls headline links from a finance portal page.
type Scraper struct {
	http     *http.Client
	page     *url.URL
	keywords []string
	limit    int
	limiter  *rate.Limiter
}

// New builds a Scraper. A nil httpClient gets netutil.NewHTTPClient with cfg.Timeout.
func New(cfg Config, httpClient *http.Client) (*Scraper, error) {
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if strings.TrimSpace(cfg.URL) == "" {
		cfg.URL = defaultURL
	}
	page, err := url.Parse(strings.TrimSpace(cfg.URL))
	if err != nil || page.Scheme == "" || page.Host == "" {
		return nil, fmt.Errorf("news: invalid url %q", cfg.URL)
	}
	if httpClient == nil {
		httpClient = netutil.NewHTTPClient(netutil.ClientOptions{Timeout: cfg.Timeout})
	}
	keywords := make([]string, 0, len(cfg.Keywords))
	for _, k := range cfg.Keywords {
		if k = strings.ToLower(strings.TrimSpace(k)); k != "" {
			keywords = append(keywords, k)
		}
	}
	if len(keywords) == 0 {
		keywords = DefaultKeywords
	}
	if cfg.Limit <= 0 {
		cfg.Limit = defaultLimit
	}
	limiter := rate.NewLimiter(rate.Inf, 1)
	if cfg.RPS > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RPS), 1)
	}
	return &Scraper{http: httpClient, page: page, keywords: keywords, limit: cfg.Limit, limiter: limiter}, nil
}

// FetchTopLinks returns up to the configured number of article links, in page order.
func (s *Scraper) FetchTopLinks(ctx context.Context) ([]string, error) {
	start := time.Now()
	links, err := s.fetch(ctx)

	status := "success"
	attrs := []slog.Attr{
		slog.Int("links", len(links)),
		slog.Duration("duration", logger.RoundMS(time.Since(start))),
	}
	if err != nil {
		status = "error"
		logger.Warn(ctx, "news", "news.fetch", append(attrs, slog.String("status", "fail"), slog.String("err", err.Error()))...)
	} else {
		logger.Debug(ctx, "news", "news.fetch", append(attrs, slog.String("status", "ok"))...)
	}
	metrics.CollaboratorCalls.WithLabelValues("news", status).Inc()
	return links, err
}

func (s *Scraper) fetch(ctx context.Context) ([]string, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("news rate limit: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.page.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("build news request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "text/html")

	resp, err := s.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("news request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("news page status %d", resp.StatusCode)
	}
	return ExtractLinks(io.LimitReader(resp.Body, maxBodyBytes), s.page, s.keywords, s.limit)
}

// ExtractLinks walks an HTML document and returns hrefs of anchors whose text
// contains one of keywords (case-insensitive). Relative links are resolved
// against base, duplicates are dropped and at most limit links are returned.
func ExtractLinks(r io.Reader, base *url.URL, keywords []string, limit int) ([]string, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parse news page: %w", err)
	}

	var (
		links []string
		seen  = make(map[string]struct{})
	)
	var walk func(n *html.Node) bool
	walk = func(n *html.Node) bool {
		if n.Type == html.ElementNode && n.DataAtom == atom.A {
			if link, ok := matchAnchor(n, base, keywords); ok {
				if _, dup := seen[link]; !dup {
					seen[link] = struct{}{}
					links = append(links, link)
					if limit > 0 && len(links) >= limit {
						return false
					}
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if !walk(c) {
				return false
			}
		}
		return true
	}
	walk(doc)
	return links, nil
}

func matchAnchor(n *html.Node, base *url.URL, keywords []string) (string, bool) {
	href := ""
	for _, a := range n.Attr {
		if a.Key == "href" {
			href = strings.TrimSpace(a.Val)
			break
		}
	}
	if href == "" || strings.HasPrefix(href, "#") || strings.HasPrefix(strings.ToLower(href), "javascript:") {
		return "", false
	}

	title := strings.ToLower(textContent(n))
	matched := false
	for _, k := range keywords {
		if strings.Contains(title, k) {
			matched = true
			break
		}
	}
	if !matched {
		return "", false
	}

	ref, err := url.Parse(href)
	if err != nil {
		return "", false
	}
	if base != nil {
		ref = base.ResolveReference(ref)
	}
	return ref.String(), true
}

func textContent(n *html.Node) string {
	var b strings.Builder
	var collect func(*html.Node)
	collect = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			collect(c)
		}
	}
	collect(n)
	return b.String()
}
