package workflow

import "errors"

var (
	// ErrInvalidContentID 内容不存在或 ID 非法
	ErrInvalidContentID = errors.New("invalid content ID or content not found")

	// ErrInvalidUser 用户 ID 非法
	ErrInvalidUser = errors.New("invalid user ID")

	// ErrNotAssigned 审批人不在待审核名单中
	// 包含重复审批的情况: 已审批的用户不再处于待审核名单
	ErrNotAssigned = errors.New("user is not a pending reviewer for this content")

	// ErrEmptyFeedback 反馈内容为空
	ErrEmptyFeedback = errors.New("feedback body is empty")
)
