package opentripmap

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"Travel-App/internal/domain/model"
	"Travel-App/internal/infrastructure/httpclient"
	"Travel-App/internal/logger"
	"Travel-App/internal/metrics"
)

// Config OpenTripMapクライアントの設定
type Config struct {
	APIKey  string
	MinRate int    // rateパラメータ（人気度の下限）
	Kinds   string // カンマ区切りのカテゴリ

	BreakerName         string
	BreakerMinRequests  uint32        // 判定に必要な最小リクエスト数
	BreakerFailureRatio float64       // この失敗率以上で開く
	BreakerInterval     time.Duration // closed状態でのカウントリセット間隔
	BreakerTimeout      time.Duration // open→half-openまでの待機
}

// DefaultConfig デフォルト設定
func DefaultConfig() Config {
	return Config{
		MinRate:             3,
		Kinds:               "interesting_places,amusements,adult,foods,transport,accomodations",
		BreakerName:         "opentripmap",
		BreakerMinRequests:  10,
		BreakerFailureRatio: 0.6,
		BreakerInterval:     time.Minute,
		BreakerTimeout:      2 * time.Minute,
	}
}

// Client OpenTripMap APIのクライアント（サーキットブレーカー付き）
type Client struct {
	http *httpclient.RateLimitedClient
	cfg  Config
	cb   *gobreaker.CircuitBreaker[json.RawMessage]
	log  *logger.Logger
}

// NewClient 新しいClientを作成
func NewClient(httpClient *httpclient.RateLimitedClient, cfg Config, log *logger.Logger) *Client {
	def := DefaultConfig()
	if cfg.BreakerName == "" {
		cfg.BreakerName = def.BreakerName
	}
	if cfg.BreakerMinRequests == 0 {
		cfg.BreakerMinRequests = def.BreakerMinRequests
	}
	if cfg.BreakerFailureRatio <= 0 {
		cfg.BreakerFailureRatio = def.BreakerFailureRatio
	}
	if cfg.BreakerInterval <= 0 {
		cfg.BreakerInterval = def.BreakerInterval
	}
	if cfg.BreakerTimeout <= 0 {
		cfg.BreakerTimeout = def.BreakerTimeout
	}

	c := &Client{http: httpClient, cfg: cfg, log: log}
	metrics.CircuitBreakerState.WithLabelValues(cfg.BreakerName).Set(0)

	c.cb = gobreaker.NewCircuitBreaker[json.RawMessage](gobreaker.Settings{
		Name:        cfg.BreakerName,
		MaxRequests: 3,
		Interval:    cfg.BreakerInterval,
		Timeout:     cfg.BreakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < cfg.BreakerMinRequests {
				return false
			}
			ratio := float64(counts.TotalFailures) / float64(counts.Requests)
			if ratio >= cfg.BreakerFailureRatio {
				log.Warn("🔌 サーキットブレーカーを開きます", "failures", counts.TotalFailures, "failure_ratio", ratio)
				return true
			}
			return false
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Info("🔌 サーキットブレーカーの状態遷移", "name", name, "from", from.String(), "to", to.String())
			metrics.CircuitBreakerState.WithLabelValues(name).Set(stateToFloat(to))
		},
		IsSuccessful: isSuccessful,
	})
	return c
}

// ListPlaceIDs セル内の候補スポットのxid一覧を取得
func (c *Client) ListPlaceIDs(ctx context.Context, cell model.GridCell) ([]string, error) {
	query := url.Values{}
	query.Set("lon_min", formatFloat(cell.MinLon))
	query.Set("lon_max", formatFloat(cell.MaxLon))
	query.Set("lat_min", formatFloat(cell.MinLat))
	query.Set("lat_max", formatFloat(cell.MaxLat))
	query.Set("apikey", c.cfg.APIKey)
	if c.cfg.MinRate > 0 {
		query.Set("rate", strconv.Itoa(c.cfg.MinRate))
	}
	if c.cfg.Kinds != "" {
		query.Set("kinds", c.cfg.Kinds)
	}

	data, err := c.execute(ctx, "/places/bbox", query)
	if err != nil {
		return nil, err
	}

	var collection model.BBoxFeatureCollection
	if err := json.Unmarshal(data, &collection); err != nil {
		return nil, fmt.Errorf("bboxレスポンスのパースに失敗: %w", err)
	}

	ids := make([]string, 0, len(collection.Features))
	seen := make(map[string]bool, len(collection.Features))
	for _, f := range collection.Features {
		xid := f.Properties.XID
		if xid == "" || seen[xid] {
			continue
		}
		seen[xid] = true
		ids = append(ids, xid)
	}
	return ids, nil
}

// PlaceDetail xidに対応するスポット詳細を取得
func (c *Client) PlaceDetail(ctx context.Context, xid string) (*model.RawPlace, error) {
	query := url.Values{}
	query.Set("apikey", c.cfg.APIKey)

	data, err := c.execute(ctx, "/places/xid/"+url.PathEscape(xid), query)
	if err != nil {
		return nil, err
	}

	var place model.RawPlace
	if err := json.Unmarshal(data, &place); err != nil {
		return nil, fmt.Errorf("スポット詳細のパースに失敗: %w", err)
	}
	if place.XID == "" {
		place.XID = xid
	}
	return &place, nil
}

func (c *Client) execute(ctx context.Context, path string, query url.Values) (json.RawMessage, error) {
	data, err := c.cb.Execute(func() (json.RawMessage, error) {
		return c.http.Get(ctx, path, query)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, fmt.Errorf("%w: %v", model.ErrCircuitOpen, err)
		}
		return nil, err
	}
	return data, nil
}

// isSuccessful 4xx（429以外）とキャンセルは上流の障害として数えない
func isSuccessful(err error) bool {
	if err == nil {
		return true
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var upstream *model.UpstreamError
	if errors.As(err, &upstream) {
		return upstream.StatusCode >= 400 && upstream.StatusCode < 500 && upstream.StatusCode != http.StatusTooManyRequests
	}
	return false
}

func stateToFloat(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
