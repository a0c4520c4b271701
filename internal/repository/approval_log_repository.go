package repository

import (
	"fmt"
	"strings"
	"time"

	"github.com/mautops/review-gin/internal/model"
	"github.com/mautops/review-gin/internal/utils"
	"gorm.io/gorm"
)

// ApprovalLogRepository 审批历史仓储接口
// 历史记录只追加,除保留期清理外不删除也不更新
type ApprovalLogRepository interface {
	Append(entry *model.ApprovalLogModel) error
	FindByContentID(contentID string) ([]*model.ApprovalLogModel, error)
	FindPage(filter *HistoryFilter) ([]*model.ApprovalLogModel, int64, error)
	DeleteOlderThan(cutoff time.Time) (int64, error)
}

// HistoryFilter 审批历史查询过滤器
type HistoryFilter struct {
	ApproverID  *string
	ContentID   *string
	RequesterID *string
	Page        int
	PageSize    int
	OrderBy     string
	Order       string
}

// approvalLogRepository 审批历史仓储实现
type approvalLogRepository struct {
	db *gorm.DB
}

// NewApprovalLogRepository 创建审批历史仓储
func NewApprovalLogRepository(db *gorm.DB) ApprovalLogRepository {
	return &approvalLogRepository{db: db}
}

// Append 追加一条审批历史
func (r *approvalLogRepository) Append(entry *model.ApprovalLogModel) error {
	return r.db.Create(entry).Error
}

// FindByContentID 根据内容 ID 查找审批历史
func (r *approvalLogRepository) FindByContentID(contentID string) ([]*model.ApprovalLogModel, error) {
	var entries []*model.ApprovalLogModel
	err := r.db.Where("content_id = ?", contentID).Order("created_at ASC").Find(&entries).Error
	return entries, err
}

// FindPage 分页查询审批历史
func (r *approvalLogRepository) FindPage(filter *HistoryFilter) ([]*model.ApprovalLogModel, int64, error) {
	query := r.db.Model(&model.ApprovalLogModel{})

	if filter.ApproverID != nil {
		query = query.Where("approver_id = ?", *filter.ApproverID)
	}
	if filter.ContentID != nil {
		query = query.Where("content_id = ?", *filter.ContentID)
	}
	if filter.RequesterID != nil {
		query = query.Where("requester_id = ?", *filter.RequesterID)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count history entries: %w", err)
	}

	// 验证并清理排序字段,防止 SQL 注入
	orderBy := filter.OrderBy
	if orderBy == "" {
		orderBy = "created_at"
	}
	if err := utils.ValidateHistorySortField(orderBy); err != nil {
		return nil, 0, fmt.Errorf("invalid sort field: %w", err)
	}

	order := filter.Order
	if order == "" {
		order = "desc"
	}
	if err := utils.ValidateSortOrder(order); err != nil {
		return nil, 0, fmt.Errorf("invalid sort order: %w", err)
	}
	query = query.Order(fmt.Sprintf("%s %s", orderBy, strings.ToUpper(order)))

	page := filter.Page
	if page <= 0 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize <= 0 {
		pageSize = 20
	}
	query = query.Offset((page - 1) * pageSize).Limit(pageSize)

	var entries []*model.ApprovalLogModel
	if err := query.Find(&entries).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to query history entries: %w", err)
	}

	return entries, total, nil
}

// DeleteOlderThan 删除早于给定时间的历史记录,返回删除条数
func (r *approvalLogRepository) DeleteOlderThan(cutoff time.Time) (int64, error) {
	result := r.db.Where("created_at < ?", cutoff).Delete(&model.ApprovalLogModel{})
	return result.RowsAffected, result.Error
}
