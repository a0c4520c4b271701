package service

import (
	"context"
	"time"

	"github.com/mautops/review-gin/internal/config"
	"github.com/mautops/review-gin/internal/metrics"
	"github.com/mautops/review-gin/internal/notify"
	"github.com/mautops/review-gin/internal/repository"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// ReviewScheduler 审核后台调度器
// 负责两件周期性工作: 向超期未处理的审核人发提醒,按保留期清理审批历史
type ReviewScheduler struct {
	contentRepo repository.ContentItemRepository
	logRepo     repository.ApprovalLogRepository
	dispatcher  notify.Dispatcher
	getConfig   func() *config.Config
	logger      *logrus.Logger
	stopChan    chan struct{}
}

// NewReviewScheduler 创建审核后台调度器
func NewReviewScheduler(
	db *gorm.DB,
	dispatcher notify.Dispatcher,
	getConfig func() *config.Config,
	logger *logrus.Logger,
) *ReviewScheduler {
	return &ReviewScheduler{
		contentRepo: repository.NewContentItemRepository(db),
		logRepo:     repository.NewApprovalLogRepository(db),
		dispatcher:  dispatcher,
		getConfig:   getConfig,
		logger:      logger,
		stopChan:    make(chan struct{}),
	}
}

// Start 启动调度器
func (s *ReviewScheduler) Start(ctx context.Context) {
	go s.scheduleReminders(ctx)
	go s.scheduleRetentionSweep(ctx)
}

// Stop 停止调度器
func (s *ReviewScheduler) Stop() {
	close(s.stopChan)
}

// scheduleReminders 调度超期提醒扫描
// 扫描间隔由 pending_review_frequency 决定,配置热更新后下个周期生效
func (s *ReviewScheduler) scheduleReminders(ctx context.Context) {
	for {
		interval := reminderInterval(s.getConfig().Notification.PendingReviewFrequency)
		if interval == 0 {
			// 提醒已禁用,低频轮询等待配置重新开启
			interval = time.Hour
		} else {
			s.RunReminderScan()
		}

		select {
		case <-time.After(interval):
		case <-s.stopChan:
			return
		case <-ctx.Done():
			return
		}
	}
}

// scheduleRetentionSweep 调度保留期清理,每天执行一次
func (s *ReviewScheduler) scheduleRetentionSweep(ctx context.Context) {
	ticker := time.NewTicker(24 * time.Hour)
	defer ticker.Stop()

	// 启动时立即清理一次
	s.RunRetentionSweep()

	for {
		select {
		case <-ticker.C:
			s.RunRetentionSweep()
		case <-s.stopChan:
			return
		case <-ctx.Done():
			return
		}
	}
}

// RunReminderScan 扫描一轮超期审核并发送提醒
// due_date_days 为 0 时不做任何事
func (s *ReviewScheduler) RunReminderScan() {
	cfg := s.getConfig()
	if cfg.Notification.DueDateDays <= 0 {
		return
	}

	items, err := s.contentRepo.FindWithPendingReviewers()
	if err != nil {
		s.logger.WithError(err).Warn("Reminder scan failed to load pending reviews")
		return
	}

	cutoff := time.Now().AddDate(0, 0, -cfg.Notification.DueDateDays)
	reminded := 0
	for _, item := range items {
		if item.RequestedAt == nil || item.RequestedAt.After(cutoff) {
			continue
		}

		ledger, err := item.ToLedger()
		if err != nil {
			s.logger.WithError(err).WithField("content_id", item.ID).Warn("Reminder scan skipped undecodable item")
			continue
		}
		if len(ledger.PendingReviewers) == 0 {
			continue
		}

		vars := map[string]string{
			notify.VarContentID:  item.ID,
			notify.VarPostTitle:  item.Title,
			notify.VarPostLink:   item.Link,
			notify.VarPostAuthor: ledger.RequestedBy,
		}
		ok := notify.SendAll(s.dispatcher, notify.TemplateOverdueReminder, ledger.PendingReviewers, vars)
		metrics.RecordNotification(notify.TemplateOverdueReminder, ok)
		if !ok {
			s.logger.WithField("content_id", item.ID).Warn("Overdue reminder partially failed")
		}
		reminded++
	}

	if reminded > 0 {
		s.logger.WithField("contents", reminded).Info("Overdue review reminders dispatched")
	}
}

// RunRetentionSweep 清理一轮超过保留期的审批历史
// retention_days 为 0 时保留全部历史
func (s *ReviewScheduler) RunRetentionSweep() {
	cfg := s.getConfig()
	if cfg.History.RetentionDays <= 0 {
		return
	}

	cutoff := time.Now().AddDate(0, 0, -cfg.History.RetentionDays)
	deleted, err := s.logRepo.DeleteOlderThan(cutoff)
	if err != nil {
		s.logger.WithError(err).Warn("History retention sweep failed")
		return
	}

	metrics.RecordHistoryPruned(deleted)
	if deleted > 0 {
		s.logger.WithFields(logrus.Fields{
			"deleted": deleted,
			"cutoff":  cutoff.Format(time.RFC3339),
		}).Info("Approval history pruned")
	}
}

// reminderInterval 提醒频率到扫描间隔的映射,未知值视为禁用
func reminderInterval(frequency string) time.Duration {
	switch frequency {
	case "daily":
		return 24 * time.Hour
	case "weekly":
		return 7 * 24 * time.Hour
	case "monthly":
		return 30 * 24 * time.Hour
	default:
		return 0
	}
}
