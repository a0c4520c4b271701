package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/mautops/review-gin/internal/config"
	"github.com/mautops/review-gin/internal/metrics"
	"github.com/mautops/review-gin/internal/repository"
	"github.com/mautops/review-gin/internal/utils"
	"github.com/mautops/review-gin/internal/workflow"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// PublishGateService 发布门服务接口
// 外部内容系统在状态迁移前调用,裁决是否允许发布
type PublishGateService interface {
	Evaluate(ctx context.Context, contentID string, req *PublishCheckRequest) (*PublishDecision, error)
}

// PublishCheckRequest 发布检查请求
// @Description 内容状态迁移前的发布检查参数
type PublishCheckRequest struct {
	ContentType    string `json:"content_type" example:"post" binding:"required"` // 内容类型
	PreviousStatus string `json:"previous_status" example:"draft"`                // 迁移前状态
	TargetStatus   string `json:"target_status" example:"publish" binding:"required"` // 目标状态
}

// PublishDecision 发布检查结果
// @Description 发布门的裁决结果
type PublishDecision struct {
	ContentID          string `json:"content_id"`          // 内容 ID
	Decision           string `json:"decision"`            // allow / veto
	EffectiveStatus    string `json:"effective_status"`    // 裁决后生效的状态
	RemainingApprovals int    `json:"remaining_approvals"` // 还差多少次审批
}

// publishGateService 发布门服务实现
type publishGateService struct {
	contentRepo repository.ContentItemRepository
	getConfig   func() *config.Config
	logger      *logrus.Logger
}

// NewPublishGateService 创建发布门服务
func NewPublishGateService(db *gorm.DB, getConfig func() *config.Config, logger *logrus.Logger) PublishGateService {
	return &publishGateService{
		contentRepo: repository.NewContentItemRepository(db),
		getConfig:   getConfig,
		logger:      logger,
	}
}

// Evaluate 裁决一次状态迁移
// 从未进入工作流的内容没有剩余审批数,一律放行
// 否决时生效状态被强制改回草稿,状态机本身不发生变化
func (s *publishGateService) Evaluate(ctx context.Context, contentID string, req *PublishCheckRequest) (*PublishDecision, error) {
	if err := utils.ValidateContentID(contentID); err != nil {
		return nil, err
	}

	cfg := s.getConfig()

	in := workflow.GateInput{
		PreviousStatus:         req.PreviousStatus,
		TargetStatus:           req.TargetStatus,
		TypeInScope:            cfg.Workflow.ContentTypeInScope(req.ContentType),
		PublishWithoutApproval: cfg.Workflow.PublishWithoutApproval,
	}

	item, err := s.contentRepo.FindByID(contentID)
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		// 未进入工作流,Ignored 和 RemainingApprovals 保持零值
	case err != nil:
		return nil, fmt.Errorf("failed to load content item: %w", err)
	default:
		ledger, lerr := item.ToLedger()
		if lerr != nil {
			return nil, fmt.Errorf("failed to decode review state: %w", lerr)
		}
		in.Ignored = ledger.IgnoreWorkflow
		in.RemainingApprovals = ledger.Remaining.Count()
	}

	decision := workflow.EvaluateGate(in)
	metrics.RecordGateDecision(string(decision))

	result := &PublishDecision{
		ContentID:          contentID,
		Decision:           string(decision),
		EffectiveStatus:    req.TargetStatus,
		RemainingApprovals: in.RemainingApprovals,
	}
	if decision == workflow.GateVeto {
		result.EffectiveStatus = workflow.ContentStatusDraft
		s.logger.WithFields(logrus.Fields{
			"content_id": contentID,
			"remaining":  in.RemainingApprovals,
		}).Info("Publish vetoed, content forced back to draft")
	}

	return result, nil
}
