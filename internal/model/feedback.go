package model

import (
	"errors"
	"time"
)

// FeedbackModel 审核反馈数据模型
// 与内容的普通评论分开存储,类型字段固定为 review_feedback
type FeedbackModel struct {
	ID         string    `gorm:"primaryKey;type:varchar(64)"`
	ContentID  string    `gorm:"type:varchar(64);not null;index"`
	AuthorID   string    `gorm:"type:varchar(64);not null;index"`
	AuthorName string    `gorm:"type:varchar(255)"`
	Body       string    `gorm:"type:text;not null"`
	Type       string    `gorm:"type:varchar(32);not null;default:'review_feedback'"`
	CreatedAt  time.Time `gorm:"not null;index"`
}

// TableName 指定表名
func (FeedbackModel) TableName() string {
	return "feedbacks"
}

// Validate 验证反馈模型
func (fm *FeedbackModel) Validate() error {
	if fm.ID == "" {
		return errors.New("feedback ID is required")
	}
	if fm.ContentID == "" {
		return errors.New("content ID is required")
	}
	if fm.AuthorID == "" {
		return errors.New("author ID is required")
	}
	if fm.Body == "" {
		return errors.New("feedback body is required")
	}
	return nil
}

// FeedbackType 反馈记录的类型判别值
const FeedbackType = "review_feedback"
