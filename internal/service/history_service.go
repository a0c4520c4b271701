package service

import (
	"fmt"
	"time"

	"github.com/mautops/review-gin/internal/model"
	"github.com/mautops/review-gin/internal/repository"
	"github.com/mautops/review-gin/internal/utils"
	"gorm.io/gorm"
)

// HistoryService 审批历史服务接口
type HistoryService interface {
	List(filter *HistoryListFilter) (*HistoryPage, error)
	ListByContentID(contentID string) ([]*HistoryEntry, error)
}

// HistoryListFilter 审批历史查询条件
type HistoryListFilter struct {
	ApproverID  *string
	ContentID   *string
	RequesterID *string
	Page        int
	PageSize    int
	OrderBy     string
	Order       string
}

// HistoryEntry 一条审批历史
// @Description 单条审批历史记录
type HistoryEntry struct {
	ID          string    `json:"id"`
	ContentID   string    `json:"content_id"`
	RequesterID string    `json:"requester_id"`
	ApproverID  string    `json:"approver_id"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
}

// PaginationInfo 分页信息
// @Description 分页元数据
type PaginationInfo struct {
	Page      int   `json:"page"`
	PageSize  int   `json:"page_size"`
	Total     int64 `json:"total"`
	TotalPage int   `json:"total_page"`
}

// HistoryPage 审批历史分页结果
// @Description 审批历史的分页列表
type HistoryPage struct {
	Items      []*HistoryEntry `json:"items"`
	Pagination PaginationInfo  `json:"pagination"`
}

// historyService 审批历史服务实现
type historyService struct {
	logRepo repository.ApprovalLogRepository
}

// NewHistoryService 创建审批历史服务
func NewHistoryService(db *gorm.DB) HistoryService {
	return &historyService{
		logRepo: repository.NewApprovalLogRepository(db),
	}
}

// List 分页查询审批历史
func (s *historyService) List(filter *HistoryListFilter) (*HistoryPage, error) {
	if filter == nil {
		filter = &HistoryListFilter{}
	}
	if filter.ContentID != nil {
		if err := utils.ValidateContentID(*filter.ContentID); err != nil {
			return nil, err
		}
	}
	if filter.ApproverID != nil {
		if err := utils.ValidateUserID(*filter.ApproverID); err != nil {
			return nil, err
		}
	}
	if filter.RequesterID != nil {
		if err := utils.ValidateUserID(*filter.RequesterID); err != nil {
			return nil, err
		}
	}

	page := filter.Page
	if page <= 0 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 20
	}

	entries, total, err := s.logRepo.FindPage(&repository.HistoryFilter{
		ApproverID:  filter.ApproverID,
		ContentID:   filter.ContentID,
		RequesterID: filter.RequesterID,
		Page:        page,
		PageSize:    pageSize,
		OrderBy:     filter.OrderBy,
		Order:       filter.Order,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to query history: %w", err)
	}

	totalPage := int((total + int64(pageSize) - 1) / int64(pageSize))

	return &HistoryPage{
		Items: toHistoryEntries(entries),
		Pagination: PaginationInfo{
			Page:      page,
			PageSize:  pageSize,
			Total:     total,
			TotalPage: totalPage,
		},
	}, nil
}

// ListByContentID 按时间顺序列出单个内容的全部审批历史
func (s *historyService) ListByContentID(contentID string) ([]*HistoryEntry, error) {
	if err := utils.ValidateContentID(contentID); err != nil {
		return nil, err
	}

	entries, err := s.logRepo.FindByContentID(contentID)
	if err != nil {
		return nil, fmt.Errorf("failed to query history: %w", err)
	}
	return toHistoryEntries(entries), nil
}

func toHistoryEntries(models []*model.ApprovalLogModel) []*HistoryEntry {
	entries := make([]*HistoryEntry, 0, len(models))
	for _, m := range models {
		entries = append(entries, &HistoryEntry{
			ID:          m.ID,
			ContentID:   m.ContentID,
			RequesterID: m.RequesterID,
			ApproverID:  m.ApproverID,
			Status:      m.Status,
			CreatedAt:   m.CreatedAt,
		})
	}
	return entries
}
