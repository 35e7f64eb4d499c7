package imagecheck

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"

	"Travel-App/internal/domain/model"
	"Travel-App/internal/infrastructure/httpclient"
	"Travel-App/internal/logger"
	"Travel-App/internal/metrics"
)

// DefaultAttempts HEADリクエストの最大試行回数
const DefaultAttempts = 3

// Checker は画像URLの到達性をHEADリクエストで確認する
// 2xxかつContent-Typeがimage/で始まる場合のみ到達可能とみなす
type Checker struct {
	client   *httpclient.RateLimitedClient
	attempts int
	cache    *cache.Cache
	log      *logger.Logger
}

// NewChecker は新しいCheckerを生成する。ttlが0以下ならキャッシュしない
func NewChecker(client *httpclient.RateLimitedClient, attempts int, ttl time.Duration, log *logger.Logger) *Checker {
	if attempts <= 0 {
		attempts = DefaultAttempts
	}
	c := &Checker{client: client, attempts: attempts, log: log}
	if ttl > 0 {
		c.cache = cache.New(ttl, ttl*2)
	}
	return c
}

// IsReachable は画像URLが到達可能かを返す
func (c *Checker) IsReachable(ctx context.Context, imageURL string) bool {
	imageURL = strings.TrimSpace(imageURL)
	if imageURL == "" {
		return false
	}

	if c.cache != nil {
		if v, ok := c.cache.Get(imageURL); ok {
			metrics.ImageChecksTotal.WithLabelValues("cached").Inc()
			return v.(bool)
		}
	}

	reachable := c.check(ctx, imageURL)

	// キャンセル時の結果はキャッシュしない
	if c.cache != nil && ctx.Err() == nil {
		c.cache.Set(imageURL, reachable, cache.DefaultExpiration)
	}
	if reachable {
		metrics.ImageChecksTotal.WithLabelValues("reachable").Inc()
	} else {
		metrics.ImageChecksTotal.WithLabelValues("unreachable").Inc()
	}
	return reachable
}

// FilterReachable は到達可能なURLだけを元の順序で返す
func (c *Checker) FilterReachable(ctx context.Context, imageURLs []string) []string {
	reachable := make([]string, 0, len(imageURLs))
	for _, u := range imageURLs {
		if c.IsReachable(ctx, u) {
			reachable = append(reachable, u)
		}
	}
	return reachable
}

func (c *Checker) check(ctx context.Context, imageURL string) bool {
	for attempt := 1; attempt <= c.attempts; attempt++ {
		if ctx.Err() != nil {
			return false
		}

		resp, err := c.client.Head(ctx, imageURL)
		if err != nil {
			if !model.IsTransportError(err) {
				// URL不正・キャンセルは再試行しない
				return false
			}
			c.log.Debug("画像のHEADリクエストに失敗", "url", imageURL, "attempt", attempt, "error", err)
			continue
		}

		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			return isImageContentType(resp.Header.Get("Content-Type"))
		}
		if !retryableStatus(resp.StatusCode) {
			return false
		}
		c.log.Debug("画像のHEADリクエストが一時的に失敗", "url", imageURL, "attempt", attempt, "status", resp.StatusCode)
	}
	return false
}

func isImageContentType(contentType string) bool {
	return strings.HasPrefix(strings.ToLower(strings.TrimSpace(contentType)), "image/")
}

func retryableStatus(status int) bool {
	return status == http.StatusTooManyRequests || status >= 500
}
