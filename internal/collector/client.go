// Package collector fetches subreddit metadata and posts from Reddit.
package collector

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/qepting91/reddit-conversations/internal/domain"
	"github.com/qepting91/reddit-conversations/internal/metrics"
)

const (
	publicBaseURL = "https://www.reddit.com"
	oauthBaseURL  = "https://oauth.reddit.com"
	tokenURL      = "https://www.reddit.com/api/v1/access_token"

	// MaxListing is the largest page Reddit returns for a listing.
	MaxListing = 100
)

// userAgentTransport stamps every request with the configured User-Agent.
// Reddit throttles requests that use a generic one.
type userAgentTransport struct {
	userAgent string
	base      http.RoundTripper
}

func (t *userAgentTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	req.Header.Set("User-Agent", t.userAgent)
	base := t.base
	if base == nil {
		base = http.DefaultTransport
	}
	return base.RoundTrip(req)
}

func clampLimit(limit int) int {
	if limit <= 0 || limit > MaxListing {
		return MaxListing
	}
	return limit
}

func subredditName(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "/")
	if len(s) > 2 && strings.EqualFold(s[:2], "r/") {
		s = s[2:]
	}
	return s
}

// Instrumented wraps a Collector with request counters and debug logging.
type Instrumented struct {
	next    domain.Collector
	metrics *metrics.Metrics
	log     *slog.Logger
}

func NewInstrumented(next domain.Collector, m *metrics.Metrics, log *slog.Logger) *Instrumented {
	if log == nil {
		log = slog.Default()
	}
	return &Instrumented{next: next, metrics: m, log: log}
}

func (c *Instrumented) About(ctx context.Context, sub string) (domain.SubredditInfo, error) {
	start := time.Now()
	info, err := c.next.About(ctx, sub)
	c.metrics.IncAPIRequest("about", err)
	c.log.Debug("reddit request", "endpoint", "about", "subreddit", sub, "duration", time.Since(start), "error", err)
	return info, err
}

func (c *Instrumented) FetchNewPosts(ctx context.Context, sub string, limit int) ([]domain.Post, error) {
	start := time.Now()
	posts, err := c.next.FetchNewPosts(ctx, sub, limit)
	c.metrics.IncAPIRequest("new", err)
	c.log.Debug("reddit request", "endpoint", "new", "subreddit", sub, "posts", len(posts), "duration", time.Since(start), "error", err)
	return posts, err
}
