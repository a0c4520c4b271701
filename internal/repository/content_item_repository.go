package repository

import (
	"errors"

	"github.com/mautops/review-gin/internal/model"
	"gorm.io/gorm"
)

// ContentItemRepository 内容审核状态仓储接口
type ContentItemRepository interface {
	Save(item *model.ContentItemModel) error
	FindByID(id string) (*model.ContentItemModel, error)
	FindByPendingReviewer(userID string) ([]*model.ContentItemModel, error)
	FindByRequester(userID string) ([]*model.ContentItemModel, error)
	FindWithPendingReviewers() ([]*model.ContentItemModel, error)
	SaveVersioned(item *model.ContentItemModel, expectedVersion int64) error
}

// ErrVersionConflict 乐观锁版本冲突
var ErrVersionConflict = errors.New("content item was modified concurrently")

// contentItemRepository 内容审核状态仓储实现
type contentItemRepository struct {
	db *gorm.DB
}

// NewContentItemRepository 创建内容审核状态仓储
func NewContentItemRepository(db *gorm.DB) ContentItemRepository {
	return &contentItemRepository{db: db}
}

// Save 保存内容审核状态
func (r *contentItemRepository) Save(item *model.ContentItemModel) error {
	return r.db.Save(item).Error
}

// FindByID 根据内容 ID 查找审核状态
func (r *contentItemRepository) FindByID(id string) (*model.ContentItemModel, error) {
	var item model.ContentItemModel
	if err := r.db.Where("id = ?", id).First(&item).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

// FindByPendingReviewer 查找某用户待审核的内容
// 待审核人集合以 JSON 数组存储,用带引号的子串匹配定位成员
func (r *contentItemRepository) FindByPendingReviewer(userID string) ([]*model.ContentItemModel, error) {
	var items []*model.ContentItemModel
	err := r.db.Where("pending_reviewers LIKE ?", `%"`+userID+`"%`).
		Order("requested_at DESC").
		Find(&items).Error
	return items, err
}

// FindByRequester 查找某用户发起审核的内容
func (r *contentItemRepository) FindByRequester(userID string) ([]*model.ContentItemModel, error) {
	var items []*model.ContentItemModel
	err := r.db.Where("requested_by = ?", userID).
		Order("requested_at DESC").
		Find(&items).Error
	return items, err
}

// FindWithPendingReviewers 查找所有仍有待审核人的内容,供提醒任务扫描
func (r *contentItemRepository) FindWithPendingReviewers() ([]*model.ContentItemModel, error) {
	var items []*model.ContentItemModel
	err := r.db.Where("review_status = ?", "pending").
		Where("pending_reviewers IS NOT NULL AND pending_reviewers != '' AND pending_reviewers != '[]'").
		Find(&items).Error
	return items, err
}

// SaveVersioned 以乐观锁方式保存,版本不匹配时返回 ErrVersionConflict
func (r *contentItemRepository) SaveVersioned(item *model.ContentItemModel, expectedVersion int64) error {
	item.Version = expectedVersion + 1
	// Select("*") 保证 false/空串等零值字段也会被写回
	result := r.db.Model(&model.ContentItemModel{}).
		Where("id = ? AND version = ?", item.ID, expectedVersion).
		Select("*").Updates(item)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		// 记录不存在或版本已变化,先区分这两种情况
		var count int64
		if err := r.db.Model(&model.ContentItemModel{}).Where("id = ?", item.ID).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return r.db.Create(item).Error
		}
		return ErrVersionConflict
	}
	return nil
}
