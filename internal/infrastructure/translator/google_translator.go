package translator

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"cloud.google.com/go/translate"
	"golang.org/x/text/language"
	"golang.org/x/time/rate"
	"google.golang.org/api/option"

	"Travel-App/internal/domain/model"
	"Travel-App/internal/logger"
	"Travel-App/internal/metrics"
)

const serviceName = "google-translate"

// DefaultRatePerSecond 翻訳APIの呼び出し上限（回/秒）
const DefaultRatePerSecond = 5

// GoogleTranslator はCloud Translation API (v2) を使った翻訳クライアント
type GoogleTranslator struct {
	apiKey  string
	options []option.ClientOption
	limiter *rate.Limiter
	log     *logger.Logger

	mu     sync.Mutex
	client *translate.Client
}

// NewGoogleTranslator は新しいGoogleTranslatorを生成する
// APIクライアントは最初の翻訳時に作成する
func NewGoogleTranslator(apiKey string, ratePerSecond float64, log *logger.Logger, opts ...option.ClientOption) (*GoogleTranslator, error) {
	if apiKey == "" {
		return nil, &model.ConfigurationError{Key: "TRANSLATOR_API_KEY", Reason: "環境変数が設定されていません"}
	}
	if ratePerSecond <= 0 {
		ratePerSecond = DefaultRatePerSecond
	}
	return &GoogleTranslator{
		apiKey:  apiKey,
		options: opts,
		limiter: rate.NewLimiter(rate.Limit(ratePerSecond), 1),
		log:     log.With("service", serviceName),
	}, nil
}

// Translate はテキストを指定言語に翻訳する（元言語は自動判定）
func (g *GoogleTranslator) Translate(ctx context.Context, text, targetLang string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return text, nil
	}

	tag, err := language.Parse(targetLang)
	if err != nil {
		return "", fmt.Errorf("言語コードの解析に失敗 (%s): %w", targetLang, err)
	}

	client, err := g.getClient(ctx)
	if err != nil {
		return "", err
	}

	if err := g.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("レート制限の待機中に中断: %w", err)
	}

	start := time.Now()
	resp, err := client.Translate(ctx, []string{text}, tag, &translate.Options{Format: translate.Text})
	metrics.UpstreamRequestDuration.WithLabelValues(serviceName).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.UpstreamRequestsTotal.WithLabelValues(serviceName, "error").Inc()
		return "", &model.UpstreamError{Service: serviceName, Method: "Translate", URL: targetLang, Cause: err}
	}
	metrics.UpstreamRequestsTotal.WithLabelValues(serviceName, "200").Inc()

	if len(resp) == 0 {
		return "", &model.UpstreamError{Service: serviceName, Method: "Translate", URL: targetLang, Cause: fmt.Errorf("翻訳結果が空です")}
	}
	return resp[0].Text, nil
}

// Close はAPIクライアントを閉じる
func (g *GoogleTranslator) Close() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.client == nil {
		return nil
	}
	err := g.client.Close()
	g.client = nil
	return err
}

func (g *GoogleTranslator) getClient(ctx context.Context) (*translate.Client, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.client != nil {
		return g.client, nil
	}

	opts := append([]option.ClientOption{option.WithAPIKey(g.apiKey)}, g.options...)
	client, err := translate.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("翻訳クライアントの作成に失敗: %w", err)
	}
	g.log.Info("🌐 翻訳クライアントを初期化しました")
	g.client = client
	return client, nil
}
