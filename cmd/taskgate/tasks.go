package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/nao1215/taskgate/internal/config"
	"github.com/nao1215/taskgate/internal/server"
	"github.com/nao1215/taskgate/internal/task"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// createdAtLayout は一覧表示のcreated_atの書式。
const createdAtLayout = "2006-01-02 15:04:05"

func tasksCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{Use: "tasks", Short: "ストア上のタスクを参照する"}
	cmd.PersistentFlags().String("user-id", "", "対象のユーザーID")
	cmd.PersistentFlags().Bool("json", false, "JSONで出力する")
	_ = cmd.MarkPersistentFlagRequired("user-id")

	cmd.AddCommand(tasksListCmd(v))
	cmd.AddCommand(tasksStatsCmd(v))
	return cmd
}

func tasksListCmd(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "ユーザーのタスクを新しい順に表示する",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withService(cmd, v, func(svc *task.Service, userID string) error {
				tasks, err := svc.List(cmd.Context(), userID)
				if err != nil {
					return err
				}
				if asJSON(cmd) {
					return writeJSON(cmd.OutOrStdout(), tasks)
				}

				tw := table.NewWriter()
				tw.SetOutputMirror(cmd.OutOrStdout())
				tw.AppendHeader(table.Row{"Task ID", "Title", "Status", "Verified", "Created At"})
				for _, t := range tasks {
					tw.AppendRow(table.Row{t.TaskID, t.Title, t.Status, t.Verified, t.CreatedAt.UTC().Format(createdAtLayout)})
				}
				tw.AppendFooter(table.Row{"", "", "", "Count", len(tasks)})
				tw.Render()
				return nil
			})
		},
	}
}

func tasksStatsCmd(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "ユーザーのタスク統計を表示する",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withService(cmd, v, func(svc *task.Service, userID string) error {
				stats, err := svc.Stats(cmd.Context(), userID)
				if err != nil {
					return err
				}
				if asJSON(cmd) {
					return writeJSON(cmd.OutOrStdout(), stats)
				}

				tw := table.NewWriter()
				tw.SetOutputMirror(cmd.OutOrStdout())
				tw.AppendHeader(table.Row{"Total", "Pending", "Completed", "Verified"})
				tw.AppendRow(table.Row{stats.Total, stats.Pending, stats.Completed, stats.Verified})
				tw.Render()
				return nil
			})
		},
	}
}

// withService は設定されたストアを開いてfnを実行し、終了後にストアを閉じる。
func withService(cmd *cobra.Command, v *viper.Viper, fn func(svc *task.Service, userID string) error) error {
	userID, _ := cmd.Flags().GetString("user-id")

	cfg := config.Read(v)
	if err := cfg.ValidateStore(); err != nil {
		return err
	}
	store, closeStore, err := server.OpenStore(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	ids, err := task.NewIDGenerator()
	if err != nil {
		return err
	}
	return fn(task.NewService(store, ids), userID)
}

func asJSON(cmd *cobra.Command) bool {
	b, _ := cmd.Flags().GetBool("json")
	return b
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("JSONの出力に失敗: %w", err)
	}
	return nil
}
