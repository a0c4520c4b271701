package workflow

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequestReviewFirstTime(t *testing.T) {
	l := &Ledger{}
	now := time.Now()

	result := l.RequestReview("author", []string{"alice", "bob"}, 2, now)

	// 首次发起,所有审核人都是新增
	assert.Equal(t, []string{"alice", "bob"}, result.NewlyAssigned)
	assert.Equal(t, 2, result.Remaining.Count())
	assert.Equal(t, StatusPending, l.Status)
	assert.Equal(t, "author", l.RequestedBy)
	assert.Equal(t, now, l.RequestedAt)
	assert.Equal(t, []string{"alice", "bob"}, l.PendingReviewers)
	assert.Empty(t, l.ApprovedReviewers)
}

func TestRequestReviewDedupesReviewers(t *testing.T) {
	l := &Ledger{}

	result := l.RequestReview("author", []string{"alice", "alice", "", "bob"}, 1, time.Now())

	assert.Equal(t, []string{"alice", "bob"}, l.PendingReviewers)
	assert.Equal(t, []string{"alice", "bob"}, result.NewlyAssigned)
}

func TestRequestReviewReplacesRoster(t *testing.T) {
	l := &Ledger{}
	l.RequestReview("author", []string{"alice", "bob"}, 2, time.Now())
	_, err := l.RecordApproval("alice")
	require.NoError(t, err)

	// 新名单整体替换,已审批名单被清空
	result := l.RequestReview("author", []string{"bob", "carol"}, 2, time.Now())

	// 只有 carol 是相对上一轮的新增
	assert.Equal(t, []string{"carol"}, result.NewlyAssigned)
	assert.Equal(t, []string{"bob", "carol"}, l.PendingReviewers)
	assert.Empty(t, l.ApprovedReviewers)
}

func TestRequestReviewKeepsRemainingMidCycle(t *testing.T) {
	l := &Ledger{}
	l.RequestReview("author", []string{"alice", "bob", "carol"}, 3, time.Now())
	_, err := l.RecordApproval("alice")
	require.NoError(t, err)
	assert.Equal(t, 2, l.Remaining.Count())

	// 周期中途重新发起,剩余审批数保持原值,不按配置重新播种
	l.RequestReview("author", []string{"dave"}, 3, time.Now())
	assert.Equal(t, 2, l.Remaining.Count())
}

func TestRequestReviewReseedsAfterReady(t *testing.T) {
	l := &Ledger{}
	l.RequestReview("author", []string{"alice"}, 1, time.Now())
	_, err := l.RecordApproval("alice")
	require.NoError(t, err)
	assert.True(t, l.Remaining.IsReady())

	// 已就绪后重新发起,按当前配置重新播种
	result := l.RequestReview("author", []string{"bob"}, 2, time.Now())
	assert.Equal(t, 2, result.Remaining.Count())
	assert.Equal(t, StatusPending, l.Status)
}

func TestRequestReviewZeroRequired(t *testing.T) {
	l := &Ledger{}

	// 门槛为 0,首次发起即就绪
	result := l.RequestReview("author", []string{"alice"}, 0, time.Now())
	assert.True(t, result.Remaining.IsReady())
	assert.Equal(t, StatusReady, l.Status)
}

func TestRecordApproval(t *testing.T) {
	l := &Ledger{}
	l.RequestReview("author", []string{"alice", "bob"}, 2, time.Now())

	result, err := l.RecordApproval("alice")
	require.NoError(t, err)
	assert.False(t, result.Ready)
	assert.Equal(t, 1, result.Remaining.Count())
	assert.Equal(t, []string{"bob"}, l.PendingReviewers)
	assert.Equal(t, []string{"alice"}, l.ApprovedReviewers)

	result, err = l.RecordApproval("bob")
	require.NoError(t, err)
	assert.True(t, result.Ready)
	assert.Equal(t, StatusReady, l.Status)
}

func TestRecordApprovalRejectsUnassigned(t *testing.T) {
	l := &Ledger{}
	l.RequestReview("author", []string{"alice"}, 2, time.Now())

	_, err := l.RecordApproval("mallory")
	assert.ErrorIs(t, err, ErrNotAssigned)
}

func TestRecordApprovalRejectsDuplicate(t *testing.T) {
	l := &Ledger{}
	l.RequestReview("author", []string{"alice", "bob"}, 2, time.Now())

	_, err := l.RecordApproval("alice")
	require.NoError(t, err)

	// 同一审批人在一个周期内至多扣减一次
	_, err = l.RecordApproval("alice")
	assert.ErrorIs(t, err, ErrNotAssigned)
	assert.Equal(t, 1, l.Remaining.Count())
}

func TestCancelAssignment(t *testing.T) {
	l := &Ledger{}
	l.RequestReview("author", []string{"alice", "bob"}, 2, time.Now())
	_, err := l.RecordApproval("alice")
	require.NoError(t, err)

	l.CancelAssignment("alice")
	l.CancelAssignment("bob")

	// 两个名单都被移除,但剩余审批数不回滚
	assert.Empty(t, l.PendingReviewers)
	assert.Empty(t, l.ApprovedReviewers)
	assert.Equal(t, 1, l.Remaining.Count())
}

func TestSetIgnoreResetsWorkflow(t *testing.T) {
	l := &Ledger{}
	l.RequestReview("author", []string{"alice", "bob"}, 2, time.Now())

	l.SetIgnore(true)

	assert.True(t, l.IgnoreWorkflow)
	assert.Empty(t, l.PendingReviewers)
	assert.Empty(t, l.RequestedReviewers)
	assert.Equal(t, "", l.RequestedBy)
	assert.Equal(t, StatusNone, l.Status)

	// 置回 false 仅翻转标记
	l.SetIgnore(false)
	assert.False(t, l.IgnoreWorkflow)
	assert.Empty(t, l.PendingReviewers)
}
