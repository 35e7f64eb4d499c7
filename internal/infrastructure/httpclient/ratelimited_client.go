package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"Travel-App/internal/domain/model"
	"Travel-App/internal/logger"
	"Travel-App/internal/metrics"
)

const (
	// DefaultTimeout リクエストのデフォルトタイムアウト
	DefaultTimeout = 30 * time.Second

	defaultUserAgent = "Travel-App-Importer/1.0"
	maxErrorBody     = 512
)

// Config RateLimitedClientの設定
type Config struct {
	// ServiceName メトリクス・ログ用のサービス名
	ServiceName string
	// BaseURL 相対パスを解決するベースURL（Headでは未使用）
	BaseURL string
	// RatePerSecond 1秒あたりの最大呼び出し数（0以下で無制限）
	RatePerSecond float64
	// Burst 同時に消費できるトークン数（デフォルト1）
	Burst     int
	Timeout   time.Duration
	UserAgent string
}

// DefaultConfig デフォルト設定
func DefaultConfig() Config {
	return Config{
		ServiceName:   "upstream",
		RatePerSecond: 10,
		Burst:         1,
		Timeout:       DefaultTimeout,
		UserAgent:     defaultUserAgent,
	}
}

// RateLimitedClient 1つの上流APIに対して呼び出しレートを制限するHTTPクライアント
// 空きができるまで待機し、拒否はしない。リトライは呼び出し側の責務
type RateLimitedClient struct {
	config     Config
	httpClient *http.Client
	limiter    *rate.Limiter
	log        *logger.Logger
}

// New 新しいRateLimitedClientを作成
func New(cfg Config, log *logger.Logger) *RateLimitedClient {
	def := DefaultConfig()
	if cfg.ServiceName == "" {
		cfg.ServiceName = def.ServiceName
	}
	if cfg.Burst <= 0 {
		cfg.Burst = def.Burst
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = def.Timeout
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = def.UserAgent
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")

	limit := rate.Inf
	if cfg.RatePerSecond > 0 {
		limit = rate.Limit(cfg.RatePerSecond)
	}

	return &RateLimitedClient{
		config:     cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		limiter:    rate.NewLimiter(limit, cfg.Burst),
		log:        log.With("service", cfg.ServiceName),
	}
}

// ServiceName サービス名
func (c *RateLimitedClient) ServiceName() string {
	return c.config.ServiceName
}

// Request ベースURLからの相対パスにリクエストを送り、JSONボディを返す
func (c *RateLimitedClient) Request(ctx context.Context, method, path string, query url.Values, body interface{}) (json.RawMessage, error) {
	reqURL := c.config.BaseURL + path
	if len(query) > 0 {
		reqURL += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("リクエストボディのシリアライズに失敗: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL, reader)
	if err != nil {
		return nil, fmt.Errorf("リクエストの作成に失敗: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.do(ctx, req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, c.upstreamError(req, resp.StatusCode, fmt.Errorf("%s", strings.TrimSpace(string(snippet))))
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, c.upstreamError(req, 0, fmt.Errorf("レスポンスの読み取りに失敗: %w", err))
	}
	if !json.Valid(data) {
		return nil, c.upstreamError(req, 0, errors.New("レスポンスが不正なJSONです"))
	}
	return json.RawMessage(data), nil
}

// Get GETリクエスト
func (c *RateLimitedClient) Get(ctx context.Context, path string, query url.Values) (json.RawMessage, error) {
	return c.Request(ctx, http.MethodGet, path, query, nil)
}

// GetJSON GETリクエストの結果をoutにデコード
func (c *RateLimitedClient) GetJSON(ctx context.Context, path string, query url.Values, out interface{}) error {
	data, err := c.Get(ctx, path, query)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("JSONのパースに失敗: %w", err)
	}
	return nil
}

// Head 絶対URLへのHEADリクエスト（ステータスの判定は呼び出し側）
func (c *RateLimitedClient) Head(ctx context.Context, rawURL string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("リクエストの作成に失敗: %w", err)
	}
	resp, err := c.do(ctx, req)
	if err != nil {
		return nil, err
	}
	_ = resp.Body.Close()
	return resp, nil
}

func (c *RateLimitedClient) do(ctx context.Context, req *http.Request) (*http.Response, error) {
	// 空きトークンができるまで待機
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("レート制限の待機中に中断: %w", err)
	}

	requestID := uuid.New().String()
	req.Header.Set("User-Agent", c.config.UserAgent)
	req.Header.Set("X-Request-ID", requestID)

	c.log.Debug("📡 上流APIリクエスト", "request_id", requestID, "method", req.Method, "url", req.URL.String())

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	metrics.UpstreamRequestDuration.WithLabelValues(c.config.ServiceName).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.UpstreamRequestsTotal.WithLabelValues(c.config.ServiceName, "error").Inc()
		c.log.Warn("⚠️ 上流APIリクエスト失敗", "request_id", requestID, "url", req.URL.String(), "error", err)
		return nil, c.upstreamError(req, 0, err)
	}
	metrics.UpstreamRequestsTotal.WithLabelValues(c.config.ServiceName, strconv.Itoa(resp.StatusCode)).Inc()
	c.log.Debug("📥 上流APIレスポンス", "request_id", requestID, "status", resp.StatusCode, "elapsed", time.Since(start))
	return resp, nil
}

func (c *RateLimitedClient) upstreamError(req *http.Request, status int, cause error) error {
	return &model.UpstreamError{
		Service:    c.config.ServiceName,
		Method:     req.Method,
		URL:        logger.MaskURL(req.URL.String()),
		StatusCode: status,
		Cause:      cause,
	}
}
