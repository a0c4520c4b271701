package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/mautops/review-gin/internal/metrics"
	"github.com/mautops/review-gin/internal/model"
	"github.com/mautops/review-gin/internal/notify"
	"github.com/mautops/review-gin/internal/repository"
	"github.com/mautops/review-gin/internal/utils"
	"github.com/mautops/review-gin/internal/workflow"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// FeedbackService 审核反馈服务接口
type FeedbackService interface {
	Add(ctx context.Context, contentID string, req *AddFeedbackRequest) (*Feedback, error)
	List(contentID string, page int, pageSize int) (*FeedbackPage, error)
}

// AddFeedbackRequest 提交反馈的参数
// @Description 提交审核反馈的请求参数
type AddFeedbackRequest struct {
	Body       string `json:"body" example:"第二段需要补充数据来源" binding:"required"` // 反馈正文
	AuthorName string `json:"author_name" example:"张三"`                      // 显示名,留空时使用用户 ID
}

// Feedback 反馈视图
// @Description 单条审核反馈
type Feedback struct {
	ID         string    `json:"id"`
	ContentID  string    `json:"content_id"`
	AuthorID   string    `json:"author_id"`
	AuthorName string    `json:"author_name"`
	Body       string    `json:"body"`
	CreatedAt  time.Time `json:"created_at"`
	Warning    string    `json:"warning,omitempty"` // 通知失败等非致命警告
}

// FeedbackPage 反馈分页结果
// @Description 审核反馈的分页列表
type FeedbackPage struct {
	Items    []*Feedback `json:"items"`
	Total    int64       `json:"total"`
	Page     int         `json:"page"`
	PageSize int         `json:"page_size"`
}

// feedbackService 审核反馈服务实现
type feedbackService struct {
	feedbackRepo repository.FeedbackRepository
	contentRepo  repository.ContentItemRepository
	dispatcher   notify.Dispatcher
	logger       *logrus.Logger
}

// NewFeedbackService 创建审核反馈服务
func NewFeedbackService(db *gorm.DB, dispatcher notify.Dispatcher, logger *logrus.Logger) FeedbackService {
	return &feedbackService{
		feedbackRepo: repository.NewFeedbackRepository(db),
		contentRepo:  repository.NewContentItemRepository(db),
		dispatcher:   dispatcher,
		logger:       logger,
	}
}

// Add 提交一条审核反馈并通知内容的审核发起人
func (s *feedbackService) Add(ctx context.Context, contentID string, req *AddFeedbackRequest) (*Feedback, error) {
	if err := utils.ValidateContentID(contentID); err != nil {
		return nil, err
	}
	body, err := utils.ValidateFeedbackBody(req.Body)
	if err != nil {
		return nil, err
	}

	authorID := getUserIDFromContext(ctx)
	if authorID == "" {
		return nil, workflow.ErrInvalidUser
	}
	authorName := utils.SanitizeString(req.AuthorName)
	if authorName == "" {
		authorName = authorID
	}

	feedback := &model.FeedbackModel{
		ID:         uuid.New().String(),
		ContentID:  contentID,
		AuthorID:   authorID,
		AuthorName: authorName,
		Body:       body,
		Type:       model.FeedbackType,
		CreatedAt:  time.Now(),
	}
	if err := s.feedbackRepo.Save(feedback); err != nil {
		return nil, fmt.Errorf("failed to save feedback: %w", err)
	}

	metrics.RecordFeedback()

	view := toFeedback(feedback)

	// 通知本轮审核人名单和发起人,反馈作者本人不通知
	// 内容尚未进入工作流时没有收件人,静默跳过
	recipients, vars := s.feedbackRecipients(contentID, authorID)
	if len(recipients) > 0 {
		vars[notify.VarFeedbackAuthor] = authorName
		vars[notify.VarAssignee] = authorID
		ok := notify.SendAll(s.dispatcher, notify.TemplateFeedback, recipients, vars)
		metrics.RecordNotification(notify.TemplateFeedback, ok)
		if !ok {
			view.Warning = NotifyWarning
			s.logger.WithFields(logrus.Fields{
				"content_id": contentID,
				"recipients": recipients,
			}).Warn("Feedback notification partially failed")
		}
	}

	return view, nil
}

// List 分页列出内容的反馈,最新的在前
func (s *feedbackService) List(contentID string, page int, pageSize int) (*FeedbackPage, error) {
	if err := utils.ValidateContentID(contentID); err != nil {
		return nil, err
	}

	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 20
	}

	total, err := s.feedbackRepo.CountByContentID(contentID)
	if err != nil {
		return nil, fmt.Errorf("failed to count feedback: %w", err)
	}

	models, err := s.feedbackRepo.FindPageByContentID(contentID, (page-1)*pageSize, pageSize)
	if err != nil {
		return nil, fmt.Errorf("failed to query feedback: %w", err)
	}

	items := make([]*Feedback, 0, len(models))
	for _, m := range models {
		items = append(items, toFeedback(m))
	}

	return &FeedbackPage{
		Items:    items,
		Total:    total,
		Page:     page,
		PageSize: pageSize,
	}, nil
}

// feedbackRecipients 计算反馈通知的收件人和模板变量
// 收件人为本轮审核人名单加发起人,去重后排除反馈作者本人
func (s *feedbackService) feedbackRecipients(contentID string, authorID string) ([]string, map[string]string) {
	vars := map[string]string{notify.VarContentID: contentID}

	item, err := s.contentRepo.FindByID(contentID)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			s.logger.WithError(err).WithField("content_id", contentID).Warn("Failed to look up feedback recipients")
		}
		return nil, vars
	}
	vars[notify.VarPostTitle] = item.Title
	vars[notify.VarPostLink] = item.Link

	ledger, err := item.ToLedger()
	if err != nil {
		s.logger.WithError(err).WithField("content_id", contentID).Warn("Failed to decode review state for feedback")
		return nil, vars
	}

	seen := make(map[string]bool, len(ledger.RequestedReviewers)+1)
	recipients := make([]string, 0, len(ledger.RequestedReviewers)+1)
	for _, id := range append(append([]string{}, ledger.RequestedReviewers...), ledger.RequestedBy) {
		if id == "" || id == authorID || seen[id] {
			continue
		}
		seen[id] = true
		recipients = append(recipients, id)
	}
	return recipients, vars
}

func toFeedback(m *model.FeedbackModel) *Feedback {
	return &Feedback{
		ID:         m.ID,
		ContentID:  m.ContentID,
		AuthorID:   m.AuthorID,
		AuthorName: m.AuthorName,
		Body:       m.Body,
		CreatedAt:  m.CreatedAt,
	}
}
