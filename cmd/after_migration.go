package cmd

import (
	"github.com/spf13/cobra"

	"Travel-App/internal/usecase"
)

// afterMigrationCommand 取り込み後のメンテナンス処理を実行する
func afterMigrationCommand(app *appContext) *cobra.Command {
	var action string

	cmd := &cobra.Command{
		Use:   "after-migration <service>",
		Short: "取り込み後のメンテナンス処理（画像監査・重複削除）",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			if err := usecase.RequireService(args[0]); err != nil {
				return err
			}

			s, err := openStores(ctx, app, false)
			if err != nil {
				return err
			}
			defer s.Close()

			svc, err := usecase.ResolveService(ctx, args[0], migrationDeps(app, s, nil))
			if err != nil {
				return err
			}

			app.log.Info("🚀 アクションを実行します", "service", svc.Name(), "action", action)
			result, err := usecase.RunAction(ctx, svc, action)
			if err != nil {
				app.log.Error("❌ アクションが失敗しました", "action", action, "error", err)
				return exitError(ctx, err)
			}
			app.log.Info("✅ アクションが完了しました", "action", action, "result", result)
			return nil
		},
	}

	cmd.Flags().StringVar(&action, "action", "", "実行するアクション (audit_images, purge_duplicates)")
	_ = cmd.MarkFlagRequired("action")

	return cmd
}
