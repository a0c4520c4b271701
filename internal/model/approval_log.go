package model

import (
	"errors"
	"time"
)

// ApprovalLogModel 审批历史数据模型
// 只追加,写入后不再更新,仅由保留期清理任务按时间删除
type ApprovalLogModel struct {
	ID          string    `gorm:"primaryKey;type:varchar(64)"`
	ContentID   string    `gorm:"type:varchar(64);not null;index"`
	RequesterID string    `gorm:"type:varchar(64);not null;index"` // 发起审核请求的用户
	ApproverID  string    `gorm:"type:varchar(64);not null;index"` // 执行审批的用户
	Status      string    `gorm:"type:varchar(32);not null"`       // Approved 等
	CreatedAt   time.Time `gorm:"not null;index"`
}

// TableName 指定表名
func (ApprovalLogModel) TableName() string {
	return "approval_logs"
}

// Validate 验证审批历史模型
func (am *ApprovalLogModel) Validate() error {
	if am.ID == "" {
		return errors.New("log ID is required")
	}
	if am.ContentID == "" {
		return errors.New("content ID is required")
	}
	if am.ApproverID == "" {
		return errors.New("approver ID is required")
	}
	if am.Status == "" {
		return errors.New("status is required")
	}
	return nil
}

// 审批历史的状态值
const (
	ApprovalStatusApproved = "Approved"
)
