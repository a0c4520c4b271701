/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>

*/
package cmd

import (
	"fmt"
	"log"

	"github.com/mautops/review-gin/internal/api"
	"github.com/mautops/review-gin/internal/config"
	"github.com/mautops/review-gin/internal/database"
	"github.com/mautops/review-gin/internal/service"
	"github.com/spf13/cobra"
)

// sweepCmd represents the sweep command
var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Run the history retention sweep once",
	Long: `Run the approval history retention sweep once and exit.
Entries older than the configured retention period are deleted.
Useful for running the cleanup from an external cron instead of
the built-in scheduler.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		// 1. 加载配置
		configPath, _ := cmd.Flags().GetString("config")
		cfg, err := config.Load(configPath)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		if cfg.History.RetentionDays <= 0 {
			log.Println("History retention is disabled, nothing to sweep")
			return nil
		}

		// 2. 连接数据库
		db, err := database.Connect(cfg.Database)
		if err != nil {
			return fmt.Errorf("failed to connect database: %w", err)
		}
		defer func() {
			sqlDB, _ := db.DB()
			if sqlDB != nil {
				sqlDB.Close()
			}
		}()

		// 3. 执行清理
		// 一次性运行不需要通知分发,传 nil 分发器
		scheduler := service.NewReviewScheduler(db, nil, func() *config.Config { return cfg }, api.NewLogger())
		scheduler.RunRetentionSweep()

		log.Println("History retention sweep completed")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(sweepCmd)

	sweepCmd.Flags().String("config", "", "Config file path (default: config.yaml)")
}
