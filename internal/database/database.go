package database

import (
	"context"
	"fmt"
	"time"

	"github.com/mautops/review-gin/internal/config"
	"github.com/mautops/review-gin/internal/model"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// PoolConfig 连接池配置
type PoolConfig struct {
	MaxIdleConns    int
	MaxOpenConns    int
	ConnMaxLifetime int // 秒
	ConnMaxIdleTime int // 秒
}

// BuildDSN 构建 PostgreSQL DSN
func BuildDSN(cfg config.DatabaseConfig) string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.DBName, cfg.SSLMode)
}

// GetPoolConfig 获取连接池配置
func GetPoolConfig() *PoolConfig {
	return &PoolConfig{
		MaxIdleConns:    10,
		MaxOpenConns:    100,
		ConnMaxLifetime: 3600, // 1 小时
		ConnMaxIdleTime: 600,  // 10 分钟
	}
}

// Connect 连接数据库
func Connect(cfg config.DatabaseConfig) (*gorm.DB, error) {
	dsn := BuildDSN(cfg)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to connect database: %w", err)
	}

	// 配置连接池
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB: %w", err)
	}

	// 从配置中读取连接池参数，如果没有配置则使用默认值
	poolConfig := GetPoolConfig()
	if cfg.MaxIdleConns > 0 {
		poolConfig.MaxIdleConns = cfg.MaxIdleConns
	}
	if cfg.MaxOpenConns > 0 {
		poolConfig.MaxOpenConns = cfg.MaxOpenConns
	}
	if cfg.ConnMaxLifetime > 0 {
		poolConfig.ConnMaxLifetime = cfg.ConnMaxLifetime
	}
	if cfg.ConnMaxIdleTime > 0 {
		poolConfig.ConnMaxIdleTime = cfg.ConnMaxIdleTime
	}

	sqlDB.SetMaxIdleConns(poolConfig.MaxIdleConns)
	sqlDB.SetMaxOpenConns(poolConfig.MaxOpenConns)
	sqlDB.SetConnMaxLifetime(time.Duration(poolConfig.ConnMaxLifetime) * time.Second)
	sqlDB.SetConnMaxIdleTime(time.Duration(poolConfig.ConnMaxIdleTime) * time.Second)

	return db, nil
}

// Migrate 执行数据库迁移
func Migrate(db *gorm.DB) error {
	// 检测数据库类型
	dialector := db.Dialector.Name()

	// SQLite 不支持 jsonb，需要手动创建表
	// GORM SQLite dialector 的名称可能是 "sqlite" 或 "sqlite3"
	if dialector == "sqlite" || dialector == "sqlite3" {
		// 手动创建 SQLite 表（使用 TEXT 替代 jsonb）
		if err := createSQLiteTables(db); err != nil {
			return fmt.Errorf("failed to create SQLite tables: %w", err)
		}
	} else {
		// PostgreSQL 等其他数据库使用 AutoMigrate
		if err := db.AutoMigrate(
			&model.ContentItemModel{},
			&model.ApprovalLogModel{},
			&model.FeedbackModel{},
		); err != nil {
			return fmt.Errorf("failed to auto migrate: %w", err)
		}
	}

	// 创建索引
	if err := CreateIndexes(db); err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}

	return nil
}

// createSQLiteTables 为 SQLite 手动创建表（使用 TEXT 替代 jsonb）
func createSQLiteTables(db *gorm.DB) error {
	// 创建 content_items 表
	if err := db.Exec(`
		CREATE TABLE IF NOT EXISTS content_items (
			id VARCHAR(64) PRIMARY KEY,
			content_type VARCHAR(32) NOT NULL,
			title VARCHAR(255),
			link VARCHAR(512),
			review_status VARCHAR(16),
			ignore_workflow BOOLEAN NOT NULL DEFAULT 0,
			requested_by VARCHAR(64),
			requested_at DATETIME,
			required_approvals INTEGER NOT NULL DEFAULT 0,
			remaining_approvals VARCHAR(16),
			requested_reviewers TEXT,
			pending_reviewers TEXT,
			approved_reviewers TEXT,
			version INTEGER NOT NULL DEFAULT 0,
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL
		)
	`).Error; err != nil {
		return fmt.Errorf("failed to create content_items table: %w", err)
	}

	// 创建 approval_logs 表
	if err := db.Exec(`
		CREATE TABLE IF NOT EXISTS approval_logs (
			id VARCHAR(64) PRIMARY KEY,
			content_id VARCHAR(64) NOT NULL,
			requester_id VARCHAR(64),
			approver_id VARCHAR(64) NOT NULL,
			status VARCHAR(32) NOT NULL,
			created_at DATETIME NOT NULL
		)
	`).Error; err != nil {
		return fmt.Errorf("failed to create approval_logs table: %w", err)
	}

	// 创建 feedbacks 表
	if err := db.Exec(`
		CREATE TABLE IF NOT EXISTS feedbacks (
			id VARCHAR(64) PRIMARY KEY,
			content_id VARCHAR(64) NOT NULL,
			author_id VARCHAR(64) NOT NULL,
			author_name VARCHAR(255),
			body TEXT NOT NULL,
			type VARCHAR(32) NOT NULL DEFAULT 'review_feedback',
			created_at DATETIME NOT NULL
		)
	`).Error; err != nil {
		return fmt.Errorf("failed to create feedbacks table: %w", err)
	}

	return nil
}

// CreateIndexes 创建数据库索引
func CreateIndexes(db *gorm.DB) error {
	// content_items 表索引
	if err := db.Exec("CREATE INDEX IF NOT EXISTS idx_contents_status_type ON content_items(review_status, content_type)").Error; err != nil {
		return fmt.Errorf("failed to create idx_contents_status_type: %w", err)
	}
	if err := db.Exec("CREATE INDEX IF NOT EXISTS idx_contents_requested_by ON content_items(requested_by)").Error; err != nil {
		return fmt.Errorf("failed to create idx_contents_requested_by: %w", err)
	}
	if err := db.Exec("CREATE INDEX IF NOT EXISTS idx_contents_requested_at ON content_items(requested_at)").Error; err != nil {
		return fmt.Errorf("failed to create idx_contents_requested_at: %w", err)
	}

	// approval_logs 表索引
	if err := db.Exec("CREATE INDEX IF NOT EXISTS idx_logs_content_id ON approval_logs(content_id)").Error; err != nil {
		return fmt.Errorf("failed to create idx_logs_content_id: %w", err)
	}
	if err := db.Exec("CREATE INDEX IF NOT EXISTS idx_logs_approver_id ON approval_logs(approver_id)").Error; err != nil {
		return fmt.Errorf("failed to create idx_logs_approver_id: %w", err)
	}
	if err := db.Exec("CREATE INDEX IF NOT EXISTS idx_logs_requester_id ON approval_logs(requester_id)").Error; err != nil {
		return fmt.Errorf("failed to create idx_logs_requester_id: %w", err)
	}
	if err := db.Exec("CREATE INDEX IF NOT EXISTS idx_logs_created_at ON approval_logs(created_at)").Error; err != nil {
		return fmt.Errorf("failed to create idx_logs_created_at: %w", err)
	}

	// feedbacks 表索引
	if err := db.Exec("CREATE INDEX IF NOT EXISTS idx_feedbacks_content ON feedbacks(content_id, created_at)").Error; err != nil {
		return fmt.Errorf("failed to create idx_feedbacks_content: %w", err)
	}

	return nil
}

// ConnectWithRetry 带重试的数据库连接
func ConnectWithRetry(cfg config.DatabaseConfig, maxRetries int, retryInterval time.Duration) (*gorm.DB, error) {
	var db *gorm.DB
	var err error

	for i := 0; i < maxRetries; i++ {
		db, err = Connect(cfg)
		if err == nil {
			return db, nil
		}

		// 如果不是最后一次重试，等待后重试
		if i < maxRetries-1 {
			time.Sleep(retryInterval)
			retryInterval *= 2 // 指数退避
		}
	}

	return nil, fmt.Errorf("failed to connect database after %d retries: %w", maxRetries, err)
}

// CheckHealth 检查数据库连接健康状态
func CheckHealth(db *gorm.DB) bool {
	if db == nil {
		return false
	}

	sqlDB, err := db.DB()
	if err != nil {
		return false
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := sqlDB.PingContext(ctx); err != nil {
		return false
	}

	return true
}
