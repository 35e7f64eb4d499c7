package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// HealthChecker 依存サービスの疎通確認
type HealthChecker func(ctx context.Context) error

// HealthHandler ヘルスチェックのHTTPハンドラー
type HealthHandler struct {
	checks map[string]HealthChecker
}

// NewHealthHandler HealthHandlerの新しいインスタンスを作成
func NewHealthHandler(checks map[string]HealthChecker) *HealthHandler {
	return &HealthHandler{checks: checks}
}

// GetHealth GET /api/health - 依存サービスを含めたヘルスチェック
func (h *HealthHandler) GetHealth(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	status := http.StatusOK
	results := gin.H{}
	for name, check := range h.checks {
		if err := check(ctx); err != nil {
			status = http.StatusServiceUnavailable
			results[name] = err.Error()
			continue
		}
		results[name] = "ok"
	}

	state := "healthy"
	if status != http.StatusOK {
		state = "unhealthy"
	}
	c.JSON(status, gin.H{
		"status":  state,
		"service": "Travel-App",
		"checks":  results,
	})
}
