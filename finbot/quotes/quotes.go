package quotes

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/tidwall/gjson"
	"golang.org/x/time/rate"

	"github.com/m3rciful/finbot/core/logger"
	"github.com/m3rciful/finbot/core/metrics"
	"github.com/m3rciful/finbot/core/telegram/netutil"
)

// ErrNotFound is returned when the provider knows nothing about the ticker.
var ErrNotFound = errors.New("ticker not found")

const (
	defaultBaseURL = "https://query2.finance.yahoo.com"
	defaultTimeout = 10 * time.Second
	notAvailable   = "N/A"
	userAgent      = "Mozilla/5.0 (compatible; finbot/1.0)"
	maxBodyBytes   = 1 << 20
)

// Config configures the quote client.
type Config struct {
	BaseURL string        `yaml:"base_url" envconfig:"QUOTES_BASE_URL"`
	Timeout time.Duration `yaml:"timeout" envconfig:"QUOTES_TIMEOUT"`
	// RPS caps outbound requests per second; 0 disables throttling.
	RPS float64 `yaml:"rps" envconfig:"QUOTES_RPS"`
}

// Summary is the company profile relayed to the user. Missing fields read "N/A".
type Summary struct {
	Name          string
	Market        string
	Industry      string
	MarketCap     string
	DividendYield string
}

// Client looks up stock summaries from a Yahoo Finance compatible quoteSummary endpoint.
type Client struct {
	http    *http.Client
	baseURL string
	limiter *rate.Limiter
}

// New builds a Client. A nil httpClient gets netutil.NewHTTPClient with cfg.Timeout.
func New(cfg Config, httpClient *http.Client) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if httpClient == nil {
		httpClient = netutil.NewHTTPClient(netutil.ClientOptions{Timeout: cfg.Timeout})
	}
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		base = defaultBaseURL
	}
	limiter := rate.NewLimiter(rate.Inf, 1)
	if cfg.RPS > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RPS), 1)
	}
	return &Client{http: httpClient, baseURL: base, limiter: limiter}
}

// Lookup fetches the profile for ticker.
func (c *Client) Lookup(ctx context.Context, ticker string) (Summary, error) {
	start := time.Now()
	sum, err := c.lookup(ctx, strings.TrimSpace(ticker))

	status := "success"
	attrs := []slog.Attr{
		slog.String("ticker", logger.SanitizeLimit(ticker, 32)),
		slog.Duration("duration", logger.RoundMS(time.Since(start))),
	}
	if err != nil {
		status = "error"
		attrs = append(attrs, slog.String("err", err.Error()))
		logger.Warn(ctx, "quotes", "quotes.lookup", append(attrs, slog.String("status", "fail"))...)
	} else {
		logger.Debug(ctx, "quotes", "quotes.lookup", append(attrs, slog.String("status", "ok"))...)
	}
	metrics.CollaboratorCalls.WithLabelValues("quotes", status).Inc()
	return sum, err
}

func (c *Client) lookup(ctx context.Context, ticker string) (Summary, error) {
	if ticker == "" {
		return Summary{}, fmt.Errorf("%w: empty ticker", ErrNotFound)
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return Summary{}, fmt.Errorf("quotes rate limit: %w", err)
	}

	endpoint := fmt.Sprintf("%s/v10/finance/quoteSummary/%s?modules=price,assetProfile,summaryDetail",
		c.baseURL, url.PathEscape(ticker))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return Summary{}, fmt.Errorf("build quote request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return Summary{}, fmt.Errorf("quote request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return Summary{}, fmt.Errorf("read quote response: %w", err)
	}
	if resp.StatusCode == http.StatusNotFound {
		return Summary{}, fmt.Errorf("%w: %s", ErrNotFound, ticker)
	}
	if resp.StatusCode != http.StatusOK {
		return Summary{}, fmt.Errorf("quote provider status %d", resp.StatusCode)
	}
	return parseSummary(body, ticker)
}

func parseSummary(body []byte, ticker string) (Summary, error) {
	if !gjson.ValidBytes(body) {
		return Summary{}, errors.New("quote provider returned invalid JSON")
	}
	root := gjson.ParseBytes(body)
	if desc := root.Get("quoteSummary.error.description"); desc.Exists() && desc.String() != "" {
		return Summary{}, fmt.Errorf("%w: %s", ErrNotFound, desc.String())
	}
	result := root.Get("quoteSummary.result.0")
	if !result.Exists() {
		return Summary{}, fmt.Errorf("%w: %s", ErrNotFound, ticker)
	}

	return Summary{
		Name:          firstString(result, "price.longName", "price.shortName"),
		Market:        firstString(result, "price.exchangeName", "price.market"),
		Industry:      firstString(result, "assetProfile.industry"),
		MarketCap:     firstString(result, "price.marketCap.raw", "summaryDetail.marketCap.raw"),
		DividendYield: firstString(result, "summaryDetail.dividendYield.raw"),
	}, nil
}

func firstString(r gjson.Result, paths ...string) string {
	for _, p := range paths {
		v := r.Get(p)
		if !v.Exists() || v.Type == gjson.Null {
			continue
		}
		s := v.String()
		if v.Type == gjson.Number {
			s = v.Raw
		}
		if strings.TrimSpace(s) != "" {
			return s
		}
	}
	return notAvailable
}
