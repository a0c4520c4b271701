package workflow

import "time"

// ReviewStatus 内容的审核状态
type ReviewStatus string

const (
	// StatusNone 未发起审核请求
	StatusNone ReviewStatus = ""
	// StatusPending 等待至少一次审批
	StatusPending ReviewStatus = "pending"
	// StatusReady 已达法定审批数,可以发布
	StatusReady ReviewStatus = "ready"
)

// Ledger 单个内容的审核台账
// 记录待审核人、已审批人、最近一次请求人和剩余审批数
// 所有操作都是纯函数式的就地变更,由调用方负责持久化与串行化
type Ledger struct {
	Status             ReviewStatus
	IgnoreWorkflow     bool
	RequestedBy        string
	RequestedAt        time.Time
	RequestedReviewers []string
	PendingReviewers   []string
	ApprovedReviewers  []string
	RequiredApprovals  int
	Remaining          Remaining
}

// RequestResult 发起审核请求的结果
type RequestResult struct {
	// NewlyAssigned 本次新增的审核人,调用方只需通知这部分人
	NewlyAssigned []string
	Remaining     Remaining
}

// ApprovalResult 记录一次审批的结果
type ApprovalResult struct {
	Remaining Remaining
	Ready     bool
}

// RequestReview 发起新的审核请求,整体替换待审核名单
// 新请求完全取代上一轮: 先清空待审核与已审批名单再写入新名单
// NewlyAssigned 为本次名单与上一轮请求名单的差集
// 剩余审批数仅在未初始化或已就绪时重新按配置播种,周期中途保持原值
func (l *Ledger) RequestReview(requesterID string, reviewerIDs []string, minRequired int, now time.Time) RequestResult {
	reviewers := dedupe(reviewerIDs)
	newly := diff(reviewers, l.RequestedReviewers)

	l.PendingReviewers = reviewers
	l.ApprovedReviewers = nil
	l.RequestedReviewers = reviewers
	l.RequestedBy = requesterID
	l.RequestedAt = now

	if l.Remaining.IsUnset() || l.Remaining.IsReady() {
		l.Remaining = Seed(minRequired)
		l.RequiredApprovals = RequiredReviews(minRequired)
	}

	if l.Remaining.IsReady() {
		l.Status = StatusReady
	} else {
		l.Status = StatusPending
	}

	return RequestResult{NewlyAssigned: newly, Remaining: l.Remaining}
}

// RecordApproval 记录一次审批
// 审批人必须在待审核名单中,否则返回 ErrNotAssigned;已审批过的用户
// 已不在待审核名单,同样被拒绝,保证每个周期内同一审批人至多扣减一次
func (l *Ledger) RecordApproval(approverID string) (ApprovalResult, error) {
	if !contains(l.PendingReviewers, approverID) {
		return ApprovalResult{}, ErrNotAssigned
	}

	l.PendingReviewers = remove(l.PendingReviewers, approverID)
	if !contains(l.ApprovedReviewers, approverID) {
		l.ApprovedReviewers = append(l.ApprovedReviewers, approverID)
	}

	remaining, ready := AfterApproval(l.Remaining)
	l.Remaining = remaining
	if ready {
		l.Status = StatusReady
	}

	return ApprovalResult{Remaining: remaining, Ready: ready}, nil
}

// CancelAssignment 将用户从审核流程中整体移除
// 同时离开待审核与已审批名单,但不回滚剩余审批数和粗粒度状态
func (l *Ledger) CancelAssignment(userID string) {
	l.PendingReviewers = remove(l.PendingReviewers, userID)
	l.ApprovedReviewers = remove(l.ApprovedReviewers, userID)
}

// SetIgnore 设置忽略标记
// 置为 true 时完全重置工作流,如同从未发起过;置回 false 仅翻转标记,
// 之前保留的剩余审批数继续生效
func (l *Ledger) SetIgnore(ignore bool) {
	l.IgnoreWorkflow = ignore
	if ignore {
		l.PendingReviewers = nil
		l.RequestedReviewers = nil
		l.RequestedBy = ""
		l.Status = StatusNone
	}
}

// dedupe 去重并保持首次出现顺序,空 ID 被丢弃
func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	result := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		result = append(result, id)
	}
	return result
}

// diff 返回 a 中不在 b 中的元素
func diff(a, b []string) []string {
	result := make([]string, 0, len(a))
	for _, id := range a {
		if !contains(b, id) {
			result = append(result, id)
		}
	}
	return result
}

func contains(ids []string, id string) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

func remove(ids []string, id string) []string {
	result := make([]string, 0, len(ids))
	for _, v := range ids {
		if v != id {
			result = append(result, v)
		}
	}
	return result
}
