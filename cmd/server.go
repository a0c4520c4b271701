/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mautops/review-gin/internal/api"
	"github.com/mautops/review-gin/internal/config"
	"github.com/mautops/review-gin/internal/container"
	"github.com/mautops/review-gin/internal/metrics"
	"github.com/spf13/cobra"
)

// serverCmd represents the server command
var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Start the API server",
	Long: `Start the Review Gin API server.
The server will listen on the configured host and port,
and provide REST API interfaces for content review workflows.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		// 1. 加载配置
		configPath, _ := cmd.Flags().GetString("config")
		cfg, err := config.Load(configPath)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		// 2. 初始化容器
		ctr, err := container.NewContainer(cfg)
		if err != nil {
			return fmt.Errorf("failed to initialize container: %w", err)
		}
		defer ctr.Close()

		// 3. 配置热更新监听（仅在指定了配置文件时启用）
		if configPath != "" {
			watcher := config.NewWatcher(cfg, configPath, ctr.Logger())
			watcher.OnChange(ctr.UpdateConfig)
			if err := watcher.Start(); err != nil {
				ctr.Logger().WithError(err).Warn("Config watcher failed to start")
			} else {
				defer watcher.Stop()
			}
		}

		// 4. 启动后台任务: 超期提醒、历史清理、指标收集
		schedulerCtx, cancelScheduler := context.WithCancel(context.Background())
		defer cancelScheduler()
		ctr.Scheduler().Start(schedulerCtx)

		collector := metrics.NewCollector(ctr.DB(), 30*time.Second)
		collector.Start()
		defer collector.Stop()

		// 5. 设置路由
		router := setupRouter(ctr)

		// 6. 启动服务器
		addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
		srv := &http.Server{
			Addr:    addr,
			Handler: router,
		}

		// 启动服务器（在 goroutine 中）
		go func() {
			log.Printf("Server starting on %s", addr)
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Fatalf("Failed to start server: %v", err)
			}
		}()

		// 等待中断信号
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit

		log.Println("Shutting down server...")

		// 优雅关闭
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			log.Fatalf("Server forced to shutdown: %v", err)
		}

		log.Println("Server exited")
		return nil
	},
}

// setupRouter 设置路由并绑定控制器
func setupRouter(ctr *container.Container) *gin.Engine {
	router := api.SetupRoutes(&api.RouterDeps{
		Config:          ctr.Config(),
		DB:              ctr.DB(),
		Hub:             ctr.Hub(),
		TokenParser:     ctr.TokenParser(),
		ReviewService:   ctr.ReviewService(),
		GateService:     ctr.GateService(),
		FeedbackService: ctr.FeedbackService(),
		HistoryService:  ctr.HistoryService(),
	})

	// 自定义 NoRoute 处理器,返回 JSON 格式的 404
	// 必须在所有业务路由注册之后设置,确保未匹配的路由返回 JSON 而不是 HTML
	router.NoRoute(func(c *gin.Context) {
		api.Error(c, http.StatusNotFound, "route not found", "the requested route does not exist")
	})

	return router
}

func init() {
	rootCmd.AddCommand(serverCmd)

	// 服务器配置标志
	serverCmd.Flags().String("config", "", "Config file path (default: config.yaml)")
	serverCmd.Flags().String("host", "0.0.0.0", "Server host")
	serverCmd.Flags().Int("port", 8080, "Server port")
}

// LoadConfig 加载配置
func LoadConfig(configPath string) (*config.Config, error) {
	return config.Load(configPath)
}
