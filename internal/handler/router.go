package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// RouterConfig ルーターに登録するハンドラー
type RouterConfig struct {
	ActivityHandler *ActivityHandler
	HealthHandler   *HealthHandler
}

// NewRouter Ginルーターのセットアップ
func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api")
	{
		if cfg.HealthHandler != nil {
			api.GET("/health", cfg.HealthHandler.GetHealth)
		}

		if cfg.ActivityHandler != nil {
			api.GET("/activities/nearby", cfg.ActivityHandler.GetNearby)
			api.GET("/activities/:id/translations", cfg.ActivityHandler.GetTranslations)
			api.GET("/import/cells", cfg.ActivityHandler.GetImportedCells)
		}
	}

	return r
}
