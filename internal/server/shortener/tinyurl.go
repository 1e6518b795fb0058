// Package shortener compresses share links through an external URL
// shortening service. The call is strictly best-effort: any failure, bad
// response or timeout falls back to the original long URL, so a cosmetic
// dependency can never fail a share request.
package shortener

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/dropcrate/dropcrate/internal/logging"
	"github.com/redis/go-redis/v9"
)

// Shortener turns a long URL into a shorter one, or returns the input
// unchanged when it cannot. Never returns an error.
type Shortener interface {
	Shorten(ctx context.Context, key, longURL string) string
}

const maxResponseSize = 4096

// TinyURL shortens links via the tinyurl.com create API. Results are cached
// in redis (when configured) keyed by the file id, so repeated shares of the
// same file reuse one short link while its underlying signed URL is valid.
type TinyURL struct {
	endpoint string
	timeout  time.Duration
	client   *http.Client
	cache    *redis.Client // nil disables caching
	cacheTTL time.Duration
	logger   logging.Logger
}

// NewTinyURL constructs a shortener. cache may be nil.
func NewTinyURL(endpoint string, timeout time.Duration, cache *redis.Client, cacheTTL time.Duration, logger logging.Logger) *TinyURL {
	return &TinyURL{
		endpoint: endpoint,
		timeout:  timeout,
		client:   &http.Client{},
		cache:    cache,
		cacheTTL: cacheTTL,
		logger:   logger.With("module", "shortener"),
	}
}

func cacheKey(key string) string {
	return "share:" + key
}

// Shorten returns a short link for longURL, or longURL itself on any failure.
func (t *TinyURL) Shorten(ctx context.Context, key, longURL string) string {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	if t.cache != nil {
		if v, err := t.cache.Get(ctx, cacheKey(key)).Result(); err == nil && v != "" {
			return v
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		t.endpoint+"?url="+url.QueryEscape(longURL), nil)
	if err != nil {
		t.logger.Warn(ctx, "building shortener request failed", "error", err.Error())
		return longURL
	}

	resp, err := t.client.Do(req)
	if err != nil {
		t.logger.Warn(ctx, "shortener call failed, falling back to long url", "error", err.Error())
		return longURL
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.logger.Warn(ctx, "shortener returned unexpected status, falling back to long url", "status", resp.StatusCode)
		return longURL
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		t.logger.Warn(ctx, "reading shortener response failed, falling back to long url", "error", err.Error())
		return longURL
	}

	short := strings.TrimSpace(string(body))
	if !strings.HasPrefix(short, "http://") && !strings.HasPrefix(short, "https://") {
		t.logger.Warn(ctx, "shortener returned non-url body, falling back to long url")
		return longURL
	}

	if t.cache != nil {
		if err := t.cache.Set(ctx, cacheKey(key), short, t.cacheTTL).Err(); err != nil {
			t.logger.Warn(ctx, "caching short url failed", "error", err.Error())
		}
	}

	return short
}
