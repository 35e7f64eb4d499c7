package cmd

import (
	"strings"

	"github.com/spf13/cobra"

	"Travel-App/internal/usecase"
)

// migrateCommand 指定サービスで範囲内のスポットを取り込む
func migrateCommand(app *appContext) *cobra.Command {
	argFlags := []string{"min_lat", "max_lat", "min_lon", "max_lon", "step_lat", "step_lon"}
	values := make(map[string]*string, len(argFlags))

	cmd := &cobra.Command{
		Use:   "migrate <service>",
		Short: "範囲内のスポットを上流APIから取り込む",
		Long: "緯度経度の範囲をグリッドに分割し、未処理のセルだけを取り込みます。\n" +
			"利用可能なサービス: " + strings.Join(usecase.ServiceNames(), ", "),
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			arguments := make(map[string]string)
			for name, v := range values {
				if *v != "" {
					arguments[name] = *v
				}
			}

			// スキーマに触れる前にサービス名を確認する
			if err := usecase.RequireService(args[0]); err != nil {
				return err
			}

			t, err := newTranslator(app)
			if err != nil {
				return err
			}
			defer closeTranslator(app, t)

			s, err := openStores(ctx, app, true)
			if err != nil {
				return err
			}
			defer s.Close()

			svc, err := usecase.ResolveService(ctx, args[0], migrationDeps(app, s, t))
			if err != nil {
				return err
			}

			app.log.Info("🚀 移行を開始します", "service", svc.Name())
			summary, err := svc.Migrate(ctx, arguments)
			app.log.Info("📊 移行結果",
				"service", summary.Service,
				"cells_total", summary.CellsTotal,
				"cells_processed", summary.CellsProcessed,
				"cells_skipped", summary.CellsSkipped,
				"places_found", summary.PlacesFound,
				"places_stored", summary.PlacesStored,
				"places_rejected", summary.PlacesRejected,
				"places_failed", summary.PlacesFailed,
			)
			if err != nil {
				app.log.Error("❌ 移行が失敗しました", "error", err)
				return exitError(ctx, err)
			}
			app.log.Info("✅ 移行が完了しました")
			return nil
		},
	}

	for _, name := range argFlags {
		values[name] = cmd.Flags().String(name, "", name+" (度)")
	}

	return cmd
}
