// タスクAPIゲートウェイのエントリポイント。
// サブコマンドを省略した場合はHTTPサーバーを起動する。
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	gfshutdown "github.com/gelmium/graceful-shutdown"
	"github.com/nao1215/taskgate/internal/config"
	"github.com/nao1215/taskgate/internal/pgstore"
	"github.com/nao1215/taskgate/internal/server"
	"github.com/nao1215/taskgate/internal/sqlitestore"
	"github.com/nao1215/taskgate/internal/task"
	"github.com/nao1215/taskgate/pkg/auth"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func main() {
	if err := newRootCmd(config.NewViper()).Execute(); err != nil {
		log.Printf("エラー: %v", err)
		os.Exit(1)
	}
}

// newRootCmd はルートコマンドを生成する。フラグはvに結び付ける。
func newRootCmd(v *viper.Viper) *cobra.Command {
	root := &cobra.Command{
		Use:           "taskgate",
		Short:         "タスクAPIゲートウェイ",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), v)
		},
	}

	root.PersistentFlags().String("port", "8080", "リッスンポート")
	root.PersistentFlags().String("auth-mode", config.AuthModeSupabase, "認証方式 (supabase|jwt)")
	root.PersistentFlags().String("store", config.StoreSupabase, "タスクストア (supabase|sqlite|postgres)")
	root.PersistentFlags().String("sqlite-path", "taskgate.db", "SQLiteデータベースのパス")
	_ = v.BindPFlag(config.KeyPort, root.PersistentFlags().Lookup("port"))
	_ = v.BindPFlag(config.KeyAuthMode, root.PersistentFlags().Lookup("auth-mode"))
	_ = v.BindPFlag(config.KeyStoreDriver, root.PersistentFlags().Lookup("store"))
	_ = v.BindPFlag(config.KeySQLitePath, root.PersistentFlags().Lookup("sqlite-path"))

	root.AddCommand(serveCmd(v))
	root.AddCommand(genIDCmd())
	root.AddCommand(migrateCmd(v))
	root.AddCommand(tokenCmd(v))
	root.AddCommand(tasksCmd(v))
	return root
}

func serveCmd(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "HTTPサーバーを起動する",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), v)
		},
	}
}

// runServe は設定を検証してからサーバーを起動し、シグナルを受けるまで待機する。
// 必須の設定が無い場合はリッスンせずにエラーを返す。
func runServe(ctx context.Context, v *viper.Viper) error {
	cfg, err := config.Load(v)
	if err != nil {
		return fmt.Errorf("設定の読み込みに失敗: %w", err)
	}

	s, err := server.NewFromConfig(ctx, cfg)
	if err != nil {
		return fmt.Errorf("サーバーの初期化に失敗: %w", err)
	}

	if cfg.UsesSupabase() {
		log.Printf("[Gateway] 上流サービス: url=%s", cfg.SupabaseURL)
	}

	runErr := make(chan error, 1)
	go func() {
		log.Printf("タスクAPIゲートウェイを起動します: addr=%s, auth=%s, store=%s", s.Addr(), cfg.AuthMode, cfg.StoreDriver)
		runErr <- s.Run()
	}()

	wait := gfshutdown.GracefulShutdown(context.Background(), cfg.ShutdownTimeout,
		map[string]gfshutdown.Operation{
			"http-server": func(ctx context.Context) error {
				log.Println("シャットダウンを開始します")
				return s.Shutdown(ctx)
			},
		},
	)

	var exitCode int
	select {
	case err := <-runErr:
		if err != nil {
			return errors.Join(fmt.Errorf("タスクAPIゲートウェイの起動に失敗: %w", err), s.Close())
		}
		// Shutdownで停止した場合は後処理の完了を待つ
		exitCode = <-wait
	case exitCode = <-wait:
	}

	log.Printf("タスクAPIゲートウェイを停止しました: code=%d", exitCode)
	if exitCode != 0 {
		os.Exit(exitCode)
	}
	return nil
}

func genIDCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "genid",
		Short: "タスクIDを採番して表示する",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ids, err := task.NewIDGenerator()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), ids.New())
			return nil
		},
	}
}

func migrateCmd(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "ローカルストアのスキーマを作成する",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := config.Read(v)
			if err := cfg.ValidateStore(); err != nil {
				return err
			}

			ctx := cmd.Context()
			switch cfg.StoreDriver {
			case config.StoreSQLite:
				// マイグレーションはOpen時に適用される
				s, err := sqlitestore.Open(ctx, cfg.SQLitePath)
				if err != nil {
					return err
				}
				defer s.Close()
			case config.StorePostgres:
				s, err := pgstore.Open(ctx, cfg.DatabaseURL)
				if err != nil {
					return err
				}
				defer s.Close()
				if err := s.Migrate(ctx); err != nil {
					return err
				}
			default:
				return fmt.Errorf("%s ストアのスキーマはホスト側で管理されます", cfg.StoreDriver)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%s ストアのスキーマを適用しました\n", cfg.StoreDriver)
			return nil
		},
	}
}

func tokenCmd(v *viper.Viper) *cobra.Command {
	var (
		userID string
		email  string
		ttl    time.Duration
	)
	cmd := &cobra.Command{
		Use:   "token",
		Short: "開発用のアクセストークンを発行する（AUTH_MODE=jwt用）",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			secret := v.GetString(config.KeySupabaseJWTSecret)
			if secret == "" {
				return fmt.Errorf("%s が設定されていません", config.KeySupabaseJWTSecret)
			}
			token, err := auth.GenerateJWT(secret, userID, email, ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().StringVar(&userID, "user-id", "", "トークンのsubに設定するユーザーID")
	cmd.Flags().StringVar(&email, "email", "", "トークンに設定するメールアドレス")
	cmd.Flags().DurationVar(&ttl, "ttl", time.Hour, "有効期間")
	_ = cmd.MarkFlagRequired("user-id")
	return cmd
}
