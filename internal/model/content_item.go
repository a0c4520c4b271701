package model

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/mautops/review-gin/internal/workflow"
)

// ContentItemModel 内容审核状态数据模型
// ID 是外部内容系统中的内容标识,本服务只维护其审核工作流状态
type ContentItemModel struct {
	ID                 string     `gorm:"primaryKey;type:varchar(64)"`
	ContentType        string     `gorm:"type:varchar(32);not null;index"` // 内容类型
	Title              string     `gorm:"type:varchar(255)"`               // 内容标题,仅用于通知渲染
	Link               string     `gorm:"type:varchar(512)"`               // 内容链接,仅用于通知渲染
	ReviewStatus       string     `gorm:"type:varchar(16);index"`          // "" / pending / ready
	IgnoreWorkflow     bool       `gorm:"not null;default:false"`          // 忽略标记,跳过整个工作流
	RequestedBy        string     `gorm:"type:varchar(64);index"`          // 最近一次发起人 ID
	RequestedAt        *time.Time `gorm:"index"`                           // 最近一次发起时间
	RequiredApprovals  int        `gorm:"type:int;not null;default:0"`     // 发起时的法定审批数快照
	RemainingApprovals string     `gorm:"type:varchar(16)"`                // "" / 十进制 / "ready"
	RequestedReviewers []byte     `gorm:"type:jsonb"`                      // 本轮请求的审核人名单
	PendingReviewers   []byte     `gorm:"type:jsonb"`                      // 待审核人集合
	ApprovedReviewers  []byte     `gorm:"type:jsonb"`                      // 已审批人集合
	Version            int64      `gorm:"not null;default:0"`              // 乐观锁版本号
	CreatedAt          time.Time  `gorm:"not null"`
	UpdatedAt          time.Time  `gorm:"not null;index"`
}

// TableName 指定表名
func (ContentItemModel) TableName() string {
	return "content_items"
}

// Validate 验证内容模型
func (cm *ContentItemModel) Validate() error {
	if cm.ID == "" {
		return errors.New("content ID is required")
	}
	if cm.ContentType == "" {
		return errors.New("content type is required")
	}
	return nil
}

// ToLedger 还原为台账对象
func (cm *ContentItemModel) ToLedger() (*workflow.Ledger, error) {
	remaining, err := workflow.ParseRemaining(cm.RemainingApprovals)
	if err != nil {
		return nil, err
	}

	ledger := &workflow.Ledger{
		Status:            workflow.ReviewStatus(cm.ReviewStatus),
		IgnoreWorkflow:    cm.IgnoreWorkflow,
		RequestedBy:       cm.RequestedBy,
		RequiredApprovals: cm.RequiredApprovals,
		Remaining:         remaining,
	}
	if cm.RequestedAt != nil {
		ledger.RequestedAt = *cm.RequestedAt
	}

	if ledger.RequestedReviewers, err = decodeUserSet(cm.RequestedReviewers); err != nil {
		return nil, err
	}
	if ledger.PendingReviewers, err = decodeUserSet(cm.PendingReviewers); err != nil {
		return nil, err
	}
	if ledger.ApprovedReviewers, err = decodeUserSet(cm.ApprovedReviewers); err != nil {
		return nil, err
	}

	return ledger, nil
}

// ApplyLedger 将台账写回模型字段
func (cm *ContentItemModel) ApplyLedger(ledger *workflow.Ledger) error {
	cm.ReviewStatus = string(ledger.Status)
	cm.IgnoreWorkflow = ledger.IgnoreWorkflow
	cm.RequestedBy = ledger.RequestedBy
	cm.RequiredApprovals = ledger.RequiredApprovals
	cm.RemainingApprovals = ledger.Remaining.String()
	if ledger.RequestedAt.IsZero() {
		cm.RequestedAt = nil
	} else {
		at := ledger.RequestedAt
		cm.RequestedAt = &at
	}

	var err error
	if cm.RequestedReviewers, err = encodeUserSet(ledger.RequestedReviewers); err != nil {
		return err
	}
	if cm.PendingReviewers, err = encodeUserSet(ledger.PendingReviewers); err != nil {
		return err
	}
	if cm.ApprovedReviewers, err = encodeUserSet(ledger.ApprovedReviewers); err != nil {
		return err
	}
	return nil
}

func decodeUserSet(data []byte) ([]string, error) {
	if len(data) == 0 {
		return nil, nil
	}
	var ids []string
	if err := json.Unmarshal(data, &ids); err != nil {
		return nil, err
	}
	return ids, nil
}

func encodeUserSet(ids []string) ([]byte, error) {
	if len(ids) == 0 {
		return []byte("[]"), nil
	}
	return json.Marshal(ids)
}
