package container

import (
	"fmt"
	"sync"
	"time"

	"github.com/mautops/review-gin/internal/api"
	"github.com/mautops/review-gin/internal/auth"
	"github.com/mautops/review-gin/internal/config"
	"github.com/mautops/review-gin/internal/database"
	"github.com/mautops/review-gin/internal/notify"
	"github.com/mautops/review-gin/internal/service"
	"github.com/mautops/review-gin/internal/websocket"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// Container 依赖注入容器
// 管理所有应用依赖,包括数据库、服务、通知分发器等
type Container struct {
	db              *gorm.DB
	logger          *logrus.Logger
	hub             *websocket.Hub
	tokenParser     *auth.TokenParser
	dispatcher      notify.Dispatcher
	reviewService   service.ReviewService
	gateService     service.PublishGateService
	feedbackService service.FeedbackService
	historyService  service.HistoryService
	scheduler       *service.ReviewScheduler

	mu  sync.RWMutex
	cfg *config.Config
}

// NewContainer 创建依赖注入容器
// 根据配置初始化所有依赖组件
func NewContainer(cfg *config.Config) (*Container, error) {
	// 1. 初始化日志
	logger, err := api.NewLoggerFromConfig(&cfg.Log)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	// 2. 初始化数据库（带重试机制）
	// 默认重试 3 次，初始间隔 1 秒，指数退避
	db, err := database.ConnectWithRetry(cfg.Database, 3, time.Second)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	// 执行数据库迁移
	if err := database.Migrate(db); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	// 3. 初始化 WebSocket 事件中枢
	hub := websocket.NewHub()
	go hub.Run()

	// 4. 初始化身份令牌解析器
	tokenParser := auth.NewTokenParser(cfg.Auth.TokenSecret, cfg.Auth.Issuer)

	c := &Container{
		db:          db,
		logger:      logger,
		hub:         hub,
		tokenParser: tokenParser,
		cfg:         cfg,
	}

	// 5. 初始化通知分发: 日志落盘 + WebSocket 实时推送
	registry := notify.NewRegistry()
	applyTemplateOverrides(registry, &cfg.Email)
	c.dispatcher = notify.Fanout{
		notify.NewLogDispatcher(logger, registry),
		notify.NewHubDispatcher(hub),
	}

	// 6. 初始化服务
	c.reviewService = service.NewReviewService(db, c.dispatcher, c.Config, logger)
	c.gateService = service.NewPublishGateService(db, c.Config, logger)
	c.feedbackService = service.NewFeedbackService(db, c.dispatcher, logger)
	c.historyService = service.NewHistoryService(db)
	c.scheduler = service.NewReviewScheduler(db, c.dispatcher, c.Config, logger)

	return c, nil
}

// applyTemplateOverrides 把配置里的模板覆盖写入注册表
func applyTemplateOverrides(registry *notify.Registry, cfg *config.EmailConfig) {
	if cfg.AskForReviewSubject != "" || cfg.AskForReviewMessage != "" {
		registry.Override(notify.TemplateAskForReview, cfg.AskForReviewSubject, cfg.AskForReviewMessage)
	}
	if cfg.ApproveReviewSubject != "" || cfg.ApproveReviewMessage != "" {
		registry.Override(notify.TemplateApproveReview, cfg.ApproveReviewSubject, cfg.ApproveReviewMessage)
	}
	if cfg.FeedbackSubject != "" || cfg.FeedbackMessage != "" {
		registry.Override(notify.TemplateFeedback, cfg.FeedbackSubject, cfg.FeedbackMessage)
	}
}

// Config 获取当前配置快照
func (c *Container) Config() *config.Config {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.cfg
}

// UpdateConfig 替换配置,配置热更新时由监听器回调
func (c *Container) UpdateConfig(cfg *config.Config) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cfg = cfg
}

// DB 获取数据库连接
func (c *Container) DB() *gorm.DB {
	return c.db
}

// Logger 获取日志记录器
func (c *Container) Logger() *logrus.Logger {
	return c.logger
}

// Hub 获取 WebSocket 事件中枢
func (c *Container) Hub() *websocket.Hub {
	return c.hub
}

// TokenParser 获取身份令牌解析器
func (c *Container) TokenParser() *auth.TokenParser {
	return c.tokenParser
}

// Dispatcher 获取通知分发器
func (c *Container) Dispatcher() notify.Dispatcher {
	return c.dispatcher
}

// ReviewService 获取内容审核服务
func (c *Container) ReviewService() service.ReviewService {
	return c.reviewService
}

// GateService 获取发布门服务
func (c *Container) GateService() service.PublishGateService {
	return c.gateService
}

// FeedbackService 获取审核反馈服务
func (c *Container) FeedbackService() service.FeedbackService {
	return c.feedbackService
}

// HistoryService 获取审批历史服务
func (c *Container) HistoryService() service.HistoryService {
	return c.historyService
}

// Scheduler 获取审核后台调度器
func (c *Container) Scheduler() *service.ReviewScheduler {
	return c.scheduler
}

// Close 关闭容器,清理资源
func (c *Container) Close() error {
	if c.scheduler != nil {
		c.scheduler.Stop()
	}
	if c.db != nil {
		sqlDB, err := c.db.DB()
		if err == nil {
			sqlDB.Close()
		}
	}

	return nil
}
