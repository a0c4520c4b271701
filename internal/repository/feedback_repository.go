package repository

import (
	"github.com/mautops/review-gin/internal/model"
	"gorm.io/gorm"
)

// FeedbackRepository 审核反馈仓储接口
type FeedbackRepository interface {
	Save(feedback *model.FeedbackModel) error
	FindPageByContentID(contentID string, offset int, limit int) ([]*model.FeedbackModel, error)
	CountByContentID(contentID string) (int64, error)
}

// feedbackRepository 审核反馈仓储实现
type feedbackRepository struct {
	db *gorm.DB
}

// NewFeedbackRepository 创建审核反馈仓储
func NewFeedbackRepository(db *gorm.DB) FeedbackRepository {
	return &feedbackRepository{db: db}
}

// Save 保存反馈
func (r *feedbackRepository) Save(feedback *model.FeedbackModel) error {
	return r.db.Save(feedback).Error
}

// FindPageByContentID 按内容 ID 分页查找反馈,最新的在前
func (r *feedbackRepository) FindPageByContentID(contentID string, offset int, limit int) ([]*model.FeedbackModel, error) {
	var feedbacks []*model.FeedbackModel
	err := r.db.Where("content_id = ? AND type = ?", contentID, model.FeedbackType).
		Order("created_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&feedbacks).Error
	return feedbacks, err
}

// CountByContentID 统计内容的反馈总数
func (r *feedbackRepository) CountByContentID(contentID string) (int64, error) {
	var count int64
	err := r.db.Model(&model.FeedbackModel{}).
		Where("content_id = ? AND type = ?", contentID, model.FeedbackType).
		Count(&count).Error
	return count, err
}
