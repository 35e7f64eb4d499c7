package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"Travel-App/internal/config"
	"Travel-App/internal/logger"
)

// appContext サブコマンド間で共有する設定とロガー
type appContext struct {
	viper    *viper.Viper
	settings *config.Settings
	log      *logger.Logger
}

// Execute ルートコマンドを実行する（SIGINT/SIGTERMでcontextをキャンセル）
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app := &appContext{viper: viper.New()}
	return RootCommand(app).ExecuteContext(ctx)
}

// RootCommand ルートコマンドとサブコマンドを組み立てる
func RootCommand(app *appContext) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "travel-app",
		Short:         "Travel-App 観光スポット取り込みCLI",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().String("log-level", "", "ログレベル (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-mode", "", "ログ形式 (development, production)")
	rootCmd.PersistentFlags().String("database-url", "", "データベース接続文字列")

	rootCmd.AddCommand(
		migrateCommand(app),
		translateCommand(app),
		afterMigrationCommand(app),
		serveCommand(app),
	)

	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		if err := bindFlags(app.viper, cmd); err != nil {
			return err
		}
		return initialize(app)
	}

	return rootCmd
}

// bindFlags フラグをviperのキーに紐付ける（フラグが環境変数より優先）
func bindFlags(v *viper.Viper, cmd *cobra.Command) error {
	bindings := map[string]string{
		"log_level":    "log-level",
		"log_mode":     "log-mode",
		"database_url": "database-url",
		"server_port":  "port",
	}
	for key, name := range bindings {
		flag := cmd.Flags().Lookup(name)
		if flag == nil || !flag.Changed {
			continue
		}
		if err := v.BindPFlag(key, flag); err != nil {
			return fmt.Errorf("フラグの紐付けに失敗 (%s): %w", name, err)
		}
	}
	return nil
}

// initialize 設定の読み込みとロガーの初期化
func initialize(app *appContext) error {
	settings, err := config.Load(app.viper)
	if err != nil {
		return err
	}
	log, err := logger.New(settings.Log.Mode, settings.Log.Level)
	if err != nil {
		return fmt.Errorf("ロガーの初期化に失敗: %w", err)
	}
	app.settings = settings
	app.log = log
	return nil
}
