package cmd

import (
	"github.com/spf13/cobra"

	"Travel-App/internal/domain/model"
	"Travel-App/internal/usecase"
)

// translateCommand 既存のアクティビティを指定言語に翻訳する
func translateCommand(app *appContext) *cobra.Command {
	var overwrite bool

	cmd := &cobra.Command{
		Use:   "translate <language>",
		Short: "既存のアクティビティを指定言語に翻訳する",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			if err := app.settings.RequireTranslator(); err != nil {
				return err
			}
			t, err := newTranslator(app)
			if err != nil {
				return err
			}
			if t == nil {
				return model.ErrTranslatorMissing
			}
			defer closeTranslator(app, t)

			s, err := openStores(ctx, app, false)
			if err != nil {
				return err
			}
			defer s.Close()

			uc, err := usecase.NewTranslateUsecase(s.entities, s.translations, t, app.settings.Translator.Concurrency, app.log)
			if err != nil {
				return err
			}

			summary, err := uc.Run(ctx, args[0], overwrite)
			app.log.Info("📊 翻訳結果",
				"language", args[0],
				"entities", summary.Entities,
				"translated", summary.Translated,
				"skipped", summary.Skipped,
				"already_translated", summary.AlreadyTranslated,
				"failed", summary.Failed,
			)
			if err != nil {
				app.log.Error("❌ 翻訳が失敗しました", "error", err)
				return exitError(ctx, err)
			}
			app.log.Info("✅ 翻訳が完了しました")
			return nil
		},
	}

	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "既存の翻訳を上書きする")

	return cmd
}
