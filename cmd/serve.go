package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"Travel-App/internal/application"
	"Travel-App/internal/handler"
)

// serveCommand 参照用APIとメトリクスを公開する
func serveCommand(app *appContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "参照用APIサーバーを起動する",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			s, err := openStores(ctx, app, false)
			if err != nil {
				return err
			}
			defer s.Close()

			if app.settings.Log.Mode == "production" {
				gin.SetMode(gin.ReleaseMode)
			}

			activityService := application.NewActivityService(s.entities, s.translations, s.ledger)
			router := handler.NewRouter(handler.RouterConfig{
				ActivityHandler: handler.NewActivityHandler(activityService),
				HealthHandler:   handler.NewHealthHandler(s.healthChecks()),
			})

			srv := &http.Server{
				Addr:              fmt.Sprintf(":%d", app.settings.Server.Port),
				Handler:           router,
				ReadHeaderTimeout: 10 * time.Second,
			}

			errCh := make(chan error, 1)
			go func() {
				app.log.Info("🚀 サーバーを起動します", "addr", srv.Addr)
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errCh <- err
				}
				close(errCh)
			}()

			select {
			case err := <-errCh:
				if err != nil {
					return fmt.Errorf("サーバーの起動に失敗: %w", err)
				}
				return nil
			case <-ctx.Done():
			}

			app.log.Info("🛑 サーバーを停止します")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				return fmt.Errorf("サーバーの停止に失敗: %w", err)
			}
			return nil
		},
	}

	cmd.Flags().Int("port", 8080, "待ち受けポート")

	return cmd
}
