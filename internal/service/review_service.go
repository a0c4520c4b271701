package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/mautops/review-gin/internal/config"
	"github.com/mautops/review-gin/internal/metrics"
	"github.com/mautops/review-gin/internal/model"
	"github.com/mautops/review-gin/internal/notify"
	"github.com/mautops/review-gin/internal/repository"
	"github.com/mautops/review-gin/internal/utils"
	"github.com/mautops/review-gin/internal/workflow"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// ErrContentNotFound 内容不存在
var ErrContentNotFound = errors.New("content not found")

// NotifyWarning 通知分发部分失败时返回给调用方的警告文案
// 状态变更已生效,只是部分收件人没有收到通知
const NotifyWarning = "部分审核通知发送失败,审核状态已更新"

// ReviewService 内容审核服务接口
type ReviewService interface {
	RequestReview(ctx context.Context, contentID string, req *RequestReviewRequest) (*ReviewOutcome, error)
	Approve(ctx context.Context, contentID string) (*ReviewOutcome, error)
	CancelAssignment(ctx context.Context, contentID string, userID string) error
	SetIgnore(ctx context.Context, contentID string, ignore bool) error
	Get(contentID string) (*ContentReview, error)
	ListPendingFor(userID string) ([]*ContentReview, error)
	ListRequestedBy(userID string) ([]*ContentReview, error)
}

// RequestReviewRequest 发起审核请求的参数
// @Description 发起内容审核的请求参数
type RequestReviewRequest struct {
	ContentType string   `json:"content_type" example:"post" binding:"required"`        // 内容类型
	ReviewerIDs []string `json:"reviewer_ids" binding:"required"`                       // 审核人 ID 列表,整体替换上一轮名单,可为空表示清空名单
	Title       string   `json:"title" example:"发布计划 Q3"`                               // 内容标题,仅用于通知渲染
	Link        string   `json:"link" example:"https://cms.example.com/contents/42"` // 内容链接,仅用于通知渲染
}

// ReviewOutcome 审核操作的结果
// @Description 审核操作执行后的状态快照
type ReviewOutcome struct {
	ContentID     string   `json:"content_id"`               // 内容 ID
	Status        string   `json:"status"`                   // 审核状态: pending / ready
	Remaining     string   `json:"remaining"`                // 剩余审批数: 十进制或 "ready"
	NewlyAssigned []string `json:"newly_assigned,omitempty"` // 本次新增的审核人
	AuditID       string   `json:"audit_id,omitempty"`       // 审批产生的历史记录 ID
	Notified      bool     `json:"notified"`                 // 通知是否全部送达
	Warning       string   `json:"warning,omitempty"`        // 通知失败等非致命警告
}

// ContentReview 内容审核状态视图
// @Description 单个内容的完整审核状态
type ContentReview struct {
	ContentID         string     `json:"content_id"`
	ContentType       string     `json:"content_type"`
	Status            string     `json:"status"`
	IgnoreWorkflow    bool       `json:"ignore_workflow"`
	RequestedBy       string     `json:"requested_by,omitempty"`
	RequestedAt       *time.Time `json:"requested_at,omitempty"`
	RequiredApprovals int        `json:"required_approvals"`
	Remaining         string     `json:"remaining"`
	PendingReviewers  []string   `json:"pending_reviewers"`
	ApprovedReviewers []string   `json:"approved_reviewers"`
	UpdatedAt         time.Time  `json:"updated_at"`
}

// reviewService 内容审核服务实现
type reviewService struct {
	db          *gorm.DB
	contentRepo repository.ContentItemRepository
	logRepo     repository.ApprovalLogRepository
	dispatcher  notify.Dispatcher
	locks       *workflow.KeyedMutex
	getConfig   func() *config.Config
	logger      *logrus.Logger
}

// NewReviewService 创建内容审核服务
// getConfig 每次操作时取配置快照,支持热更新后的新门槛立即生效
func NewReviewService(
	db *gorm.DB,
	dispatcher notify.Dispatcher,
	getConfig func() *config.Config,
	logger *logrus.Logger,
) ReviewService {
	return &reviewService{
		db:          db,
		contentRepo: repository.NewContentItemRepository(db),
		logRepo:     repository.NewApprovalLogRepository(db),
		dispatcher:  dispatcher,
		locks:       workflow.NewKeyedMutex(),
		getConfig:   getConfig,
		logger:      logger,
	}
}

// RequestReview 发起审核请求
// 新名单整体替换上一轮,只通知本次新增的审核人
func (s *reviewService) RequestReview(ctx context.Context, contentID string, req *RequestReviewRequest) (*ReviewOutcome, error) {
	if err := utils.ValidateContentID(contentID); err != nil {
		return nil, err
	}
	for _, id := range req.ReviewerIDs {
		if err := utils.ValidateUserID(id); err != nil {
			return nil, err
		}
	}

	requesterID := getUserIDFromContext(ctx)
	if requesterID == "" {
		return nil, workflow.ErrInvalidUser
	}

	s.locks.Lock(contentID)
	defer s.locks.Unlock(contentID)

	cfg := s.getConfig()
	now := time.Now()

	item, err := s.contentRepo.FindByID(contentID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		// 首次发起,创建审核状态记录
		item = &model.ContentItemModel{
			ID:          contentID,
			ContentType: req.ContentType,
			CreatedAt:   now,
		}
		err = nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load content item: %w", err)
	}
	item.ContentType = req.ContentType
	// 标题和链接随每次请求刷新,供后续审批通过、超时提醒等通知渲染
	item.Title = req.Title
	item.Link = req.Link

	ledger, err := item.ToLedger()
	if err != nil {
		return nil, fmt.Errorf("failed to decode review state: %w", err)
	}

	result := ledger.RequestReview(requesterID, req.ReviewerIDs, cfg.Workflow.MinRequiredReviews, now)

	if err := item.ApplyLedger(ledger); err != nil {
		return nil, fmt.Errorf("failed to encode review state: %w", err)
	}
	item.UpdatedAt = now
	if err := s.contentRepo.SaveVersioned(item, item.Version); err != nil {
		return nil, fmt.Errorf("failed to save review state: %w", err)
	}

	metrics.RecordReviewRequest()

	outcome := &ReviewOutcome{
		ContentID:     contentID,
		Status:        string(ledger.Status),
		Remaining:     result.Remaining.String(),
		NewlyAssigned: result.NewlyAssigned,
	}

	// 通知新增的审核人,失败不回滚,聚合成警告返回
	vars := map[string]string{
		notify.VarContentID:  contentID,
		notify.VarPostTitle:  req.Title,
		notify.VarPostLink:   req.Link,
		notify.VarPostAuthor: requesterID,
		notify.VarAssignee:   requesterID,
	}
	ok := notify.SendAll(s.dispatcher, notify.TemplateAskForReview, result.NewlyAssigned, vars)
	metrics.RecordNotification(notify.TemplateAskForReview, ok)
	outcome.Notified = ok
	if !ok {
		outcome.Warning = NotifyWarning
		s.logger.WithFields(logrus.Fields{
			"content_id": contentID,
			"recipients": result.NewlyAssigned,
		}).Warn("Review request notification partially failed")
	}

	return outcome, nil
}

// Approve 记录一次审批
// 审批人必须在待审核名单中,每个周期内同一审批人至多扣减一次
func (s *reviewService) Approve(ctx context.Context, contentID string) (*ReviewOutcome, error) {
	if err := utils.ValidateContentID(contentID); err != nil {
		return nil, err
	}
	approverID := getUserIDFromContext(ctx)
	if approverID == "" {
		return nil, workflow.ErrInvalidUser
	}

	s.locks.Lock(contentID)
	defer s.locks.Unlock(contentID)

	item, err := s.contentRepo.FindByID(contentID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrContentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load content item: %w", err)
	}

	ledger, err := item.ToLedger()
	if err != nil {
		return nil, fmt.Errorf("failed to decode review state: %w", err)
	}

	result, err := ledger.RecordApproval(approverID)
	if err != nil {
		metrics.RecordApproval("rejected")
		return nil, err
	}

	now := time.Now()
	if err := item.ApplyLedger(ledger); err != nil {
		return nil, fmt.Errorf("failed to encode review state: %w", err)
	}
	item.UpdatedAt = now

	entry := &model.ApprovalLogModel{
		ID:          uuid.New().String(),
		ContentID:   contentID,
		RequesterID: ledger.RequestedBy,
		ApproverID:  approverID,
		Status:      model.ApprovalStatusApproved,
		CreatedAt:   now,
	}

	// 台账更新和历史追加在同一事务中落盘
	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := repository.NewContentItemRepository(tx).SaveVersioned(item, item.Version); err != nil {
			return err
		}
		return repository.NewApprovalLogRepository(tx).Append(entry)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to save approval: %w", err)
	}

	if result.Ready {
		metrics.RecordApproval("ready")
	} else {
		metrics.RecordApproval("approved")
	}

	outcome := &ReviewOutcome{
		ContentID: contentID,
		Status:    string(ledger.Status),
		Remaining: result.Remaining.String(),
		AuditID:   entry.ID,
		Notified:  true,
	}

	// 通知发起人审批已通过
	if ledger.RequestedBy != "" {
		ok := notify.SendAll(s.dispatcher, notify.TemplateApproveReview, []string{ledger.RequestedBy}, map[string]string{
			notify.VarContentID: contentID,
			notify.VarPostTitle: item.Title,
			notify.VarPostLink:  item.Link,
			notify.VarAssignee:  approverID,
		})
		metrics.RecordNotification(notify.TemplateApproveReview, ok)
		outcome.Notified = ok
		if !ok {
			outcome.Warning = NotifyWarning
			s.logger.WithFields(logrus.Fields{
				"content_id": contentID,
				"recipient":  ledger.RequestedBy,
			}).Warn("Approval notification failed")
		}
	}

	return outcome, nil
}

// CancelAssignment 将用户从内容的审核流程中移除
// 同时离开待审核与已审批名单,不回滚剩余审批数
func (s *reviewService) CancelAssignment(ctx context.Context, contentID string, userID string) error {
	if err := utils.ValidateContentID(contentID); err != nil {
		return err
	}
	if err := utils.ValidateUserID(userID); err != nil {
		return err
	}

	s.locks.Lock(contentID)
	defer s.locks.Unlock(contentID)

	item, err := s.contentRepo.FindByID(contentID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrContentNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to load content item: %w", err)
	}

	ledger, err := item.ToLedger()
	if err != nil {
		return fmt.Errorf("failed to decode review state: %w", err)
	}

	ledger.CancelAssignment(userID)

	if err := item.ApplyLedger(ledger); err != nil {
		return fmt.Errorf("failed to encode review state: %w", err)
	}
	item.UpdatedAt = time.Now()
	if err := s.contentRepo.SaveVersioned(item, item.Version); err != nil {
		return fmt.Errorf("failed to save review state: %w", err)
	}

	return nil
}

// SetIgnore 设置内容的忽略标记
// 置为 true 时完全重置该内容的审核流程
func (s *reviewService) SetIgnore(ctx context.Context, contentID string, ignore bool) error {
	if err := utils.ValidateContentID(contentID); err != nil {
		return err
	}

	s.locks.Lock(contentID)
	defer s.locks.Unlock(contentID)

	item, err := s.contentRepo.FindByID(contentID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrContentNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to load content item: %w", err)
	}

	ledger, err := item.ToLedger()
	if err != nil {
		return fmt.Errorf("failed to decode review state: %w", err)
	}

	ledger.SetIgnore(ignore)

	if err := item.ApplyLedger(ledger); err != nil {
		return fmt.Errorf("failed to encode review state: %w", err)
	}
	item.UpdatedAt = time.Now()
	if err := s.contentRepo.SaveVersioned(item, item.Version); err != nil {
		return fmt.Errorf("failed to save review state: %w", err)
	}

	return nil
}

// Get 获取内容的审核状态
func (s *reviewService) Get(contentID string) (*ContentReview, error) {
	if err := utils.ValidateContentID(contentID); err != nil {
		return nil, err
	}

	item, err := s.contentRepo.FindByID(contentID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrContentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load content item: %w", err)
	}

	return toContentReview(item)
}

// ListPendingFor 列出某用户待审核的内容
func (s *reviewService) ListPendingFor(userID string) ([]*ContentReview, error) {
	if err := utils.ValidateUserID(userID); err != nil {
		return nil, err
	}

	items, err := s.contentRepo.FindByPendingReviewer(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query pending reviews: %w", err)
	}
	return toContentReviews(items)
}

// ListRequestedBy 列出某用户发起审核的内容
func (s *reviewService) ListRequestedBy(userID string) ([]*ContentReview, error) {
	if err := utils.ValidateUserID(userID); err != nil {
		return nil, err
	}

	items, err := s.contentRepo.FindByRequester(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query requested reviews: %w", err)
	}
	return toContentReviews(items)
}

// toContentReview 模型转视图
func toContentReview(item *model.ContentItemModel) (*ContentReview, error) {
	ledger, err := item.ToLedger()
	if err != nil {
		return nil, fmt.Errorf("failed to decode review state: %w", err)
	}

	view := &ContentReview{
		ContentID:         item.ID,
		ContentType:       item.ContentType,
		Status:            string(ledger.Status),
		IgnoreWorkflow:    ledger.IgnoreWorkflow,
		RequestedBy:       ledger.RequestedBy,
		RequestedAt:       item.RequestedAt,
		RequiredApprovals: ledger.RequiredApprovals,
		Remaining:         ledger.Remaining.String(),
		PendingReviewers:  ledger.PendingReviewers,
		ApprovedReviewers: ledger.ApprovedReviewers,
		UpdatedAt:         item.UpdatedAt,
	}
	if view.PendingReviewers == nil {
		view.PendingReviewers = []string{}
	}
	if view.ApprovedReviewers == nil {
		view.ApprovedReviewers = []string{}
	}
	return view, nil
}

func toContentReviews(items []*model.ContentItemModel) ([]*ContentReview, error) {
	views := make([]*ContentReview, 0, len(items))
	for _, item := range items {
		view, err := toContentReview(item)
		if err != nil {
			continue // 跳过无法解码的记录
		}
		views = append(views, view)
	}
	return views, nil
}
