package service

import (
	"context"
	"sync"
	"testing"

	"github.com/mautops/review-gin/internal/auth"
	"github.com/mautops/review-gin/internal/config"
	"github.com/mautops/review-gin/internal/database"
	"github.com/mautops/review-gin/internal/model"
	"github.com/mautops/review-gin/internal/repository"
	"github.com/mautops/review-gin/internal/workflow"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// setupTestDB 创建内存数据库并建表
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	return db
}

func testLogger() *logrus.Logger {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	return log
}

// staticConfig 返回固定配置的快照函数
func staticConfig(minRequired int) func() *config.Config {
	cfg := config.Default()
	cfg.Workflow.MinRequiredReviews = minRequired
	return func() *config.Config { return cfg }
}

// sentNotification 一次分发调用的记录
type sentNotification struct {
	Template  string
	Recipient string
	Vars      map[string]string
}

// fakeDispatcher 记录分发调用的测试替身
type fakeDispatcher struct {
	mu   sync.Mutex
	sent []sentNotification
	fail bool
}

func (d *fakeDispatcher) Send(templateKey string, recipient string, vars map[string]string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.sent = append(d.sent, sentNotification{Template: templateKey, Recipient: recipient, Vars: vars})
	return !d.fail
}

func (d *fakeDispatcher) sentTo(templateKey string) []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	var recipients []string
	for _, s := range d.sent {
		if s.Template == templateKey {
			recipients = append(recipients, s.Recipient)
		}
	}
	return recipients
}

func userContext(userID string) context.Context {
	return auth.WithUserID(context.Background(), userID)
}

func newTestReviewService(t *testing.T, minRequired int) (ReviewService, *fakeDispatcher, *gorm.DB) {
	t.Helper()
	db := setupTestDB(t)
	dispatcher := &fakeDispatcher{}
	svc := NewReviewService(db, dispatcher, staticConfig(minRequired), testLogger())
	return svc, dispatcher, db
}

func TestRequestReviewCreatesItem(t *testing.T) {
	svc, dispatcher, _ := newTestReviewService(t, 2)

	outcome, err := svc.RequestReview(userContext("author"), "post-1", &RequestReviewRequest{
		ContentType: "post",
		ReviewerIDs: []string{"alice", "bob"},
		Title:       "发布计划 Q3",
	})
	require.NoError(t, err)

	assert.Equal(t, "pending", outcome.Status)
	assert.Equal(t, "2", outcome.Remaining)
	assert.ElementsMatch(t, []string{"alice", "bob"}, outcome.NewlyAssigned)
	assert.Empty(t, outcome.Warning)

	// 只通知本次新增的审核人
	assert.ElementsMatch(t, []string{"alice", "bob"}, dispatcher.sentTo("ask_for_review"))

	view, err := svc.Get("post-1")
	require.NoError(t, err)
	assert.Equal(t, "author", view.RequestedBy)
	assert.ElementsMatch(t, []string{"alice", "bob"}, view.PendingReviewers)
}

func TestRequestReviewNotifiesOnlyNewReviewers(t *testing.T) {
	svc, dispatcher, _ := newTestReviewService(t, 2)

	_, err := svc.RequestReview(userContext("author"), "post-1", &RequestReviewRequest{
		ContentType: "post",
		ReviewerIDs: []string{"alice", "bob"},
	})
	require.NoError(t, err)

	// 第二轮名单整体替换,只有 carol 是新人
	outcome, err := svc.RequestReview(userContext("author"), "post-1", &RequestReviewRequest{
		ContentType: "post",
		ReviewerIDs: []string{"alice", "carol"},
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"carol"}, outcome.NewlyAssigned)
	assert.ElementsMatch(t, []string{"alice", "bob", "carol"}, dispatcher.sentTo("ask_for_review"))

	view, err := svc.Get("post-1")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"alice", "carol"}, view.PendingReviewers)
}

func TestRequestReviewAcceptsEmptyRoster(t *testing.T) {
	svc, dispatcher, _ := newTestReviewService(t, 2)

	// 空名单也是合法请求,记录发起人和时间,没有待审核人
	outcome, err := svc.RequestReview(userContext("author"), "post-1", &RequestReviewRequest{
		ContentType: "post",
		ReviewerIDs: []string{},
	})
	require.NoError(t, err)

	assert.Equal(t, "pending", outcome.Status)
	assert.Equal(t, "2", outcome.Remaining)
	assert.Empty(t, outcome.NewlyAssigned)
	assert.Empty(t, dispatcher.sentTo("ask_for_review"))

	view, err := svc.Get("post-1")
	require.NoError(t, err)
	assert.Equal(t, "author", view.RequestedBy)
	assert.NotNil(t, view.RequestedAt)
	assert.Empty(t, view.PendingReviewers)

	// 再次请求空名单可以清空上一轮名单
	_, err = svc.RequestReview(userContext("author"), "post-2", &RequestReviewRequest{
		ContentType: "post",
		ReviewerIDs: []string{"alice"},
	})
	require.NoError(t, err)
	_, err = svc.RequestReview(userContext("author"), "post-2", &RequestReviewRequest{
		ContentType: "post",
		ReviewerIDs: []string{},
	})
	require.NoError(t, err)

	view, err = svc.Get("post-2")
	require.NoError(t, err)
	assert.Empty(t, view.PendingReviewers)
}

func TestRequestReviewRejectsMissingUser(t *testing.T) {
	svc, _, _ := newTestReviewService(t, 1)

	_, err := svc.RequestReview(context.Background(), "post-1", &RequestReviewRequest{
		ContentType: "post",
		ReviewerIDs: []string{"alice"},
	})
	assert.ErrorIs(t, err, workflow.ErrInvalidUser)
}

func TestRequestReviewWarnsOnNotifyFailure(t *testing.T) {
	svc, dispatcher, _ := newTestReviewService(t, 1)
	dispatcher.fail = true

	outcome, err := svc.RequestReview(userContext("author"), "post-1", &RequestReviewRequest{
		ContentType: "post",
		ReviewerIDs: []string{"alice"},
	})
	require.NoError(t, err)

	// 通知失败不回滚状态,只返回警告
	assert.Equal(t, NotifyWarning, outcome.Warning)
	assert.False(t, outcome.Notified)
	assert.Equal(t, "pending", outcome.Status)

	view, err := svc.Get("post-1")
	require.NoError(t, err)
	assert.Equal(t, "pending", view.Status)
}

func TestApproveFlowToReady(t *testing.T) {
	svc, dispatcher, db := newTestReviewService(t, 2)

	_, err := svc.RequestReview(userContext("author"), "post-1", &RequestReviewRequest{
		ContentType: "post",
		ReviewerIDs: []string{"alice", "bob"},
		Title:       "发布计划 Q3",
		Link:        "https://cms.example.com/contents/1",
	})
	require.NoError(t, err)

	outcome, err := svc.Approve(userContext("alice"), "post-1")
	require.NoError(t, err)
	assert.Equal(t, "pending", outcome.Status)
	assert.Equal(t, "1", outcome.Remaining)
	assert.NotEmpty(t, outcome.AuditID)
	assert.True(t, outcome.Notified)

	// 审批通知带上落盘的标题和链接,供模板渲染
	for _, sent := range dispatcher.sent {
		if sent.Template == "approve_review" {
			assert.Equal(t, "发布计划 Q3", sent.Vars["post_title"])
			assert.Equal(t, "https://cms.example.com/contents/1", sent.Vars["post_link"])
		}
	}

	outcome, err = svc.Approve(userContext("bob"), "post-1")
	require.NoError(t, err)
	assert.Equal(t, "ready", outcome.Status)
	assert.Equal(t, "ready", outcome.Remaining)

	// 每次审批都通知发起人
	assert.Equal(t, []string{"author", "author"}, dispatcher.sentTo("approve_review"))

	// 每次审批追加一条历史
	entries, err := repository.NewApprovalLogRepository(db).FindByContentID("post-1")
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "author", entries[0].RequesterID)
	assert.Equal(t, model.ApprovalStatusApproved, entries[0].Status)
}

func TestApproveRejectsUnassigned(t *testing.T) {
	svc, _, db := newTestReviewService(t, 1)

	_, err := svc.RequestReview(userContext("author"), "post-1", &RequestReviewRequest{
		ContentType: "post",
		ReviewerIDs: []string{"alice"},
	})
	require.NoError(t, err)

	_, err = svc.Approve(userContext("mallory"), "post-1")
	assert.ErrorIs(t, err, workflow.ErrNotAssigned)

	// 被拒绝的审批不产生历史
	entries, err := repository.NewApprovalLogRepository(db).FindByContentID("post-1")
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestApproveRejectsDuplicate(t *testing.T) {
	svc, _, _ := newTestReviewService(t, 2)

	_, err := svc.RequestReview(userContext("author"), "post-1", &RequestReviewRequest{
		ContentType: "post",
		ReviewerIDs: []string{"alice", "bob"},
	})
	require.NoError(t, err)

	_, err = svc.Approve(userContext("alice"), "post-1")
	require.NoError(t, err)

	_, err = svc.Approve(userContext("alice"), "post-1")
	assert.ErrorIs(t, err, workflow.ErrNotAssigned)
}

func TestApproveMissingContent(t *testing.T) {
	svc, _, _ := newTestReviewService(t, 1)

	_, err := svc.Approve(userContext("alice"), "post-9")
	assert.ErrorIs(t, err, ErrContentNotFound)
}

func TestCancelAssignmentKeepsRemaining(t *testing.T) {
	svc, _, _ := newTestReviewService(t, 2)

	_, err := svc.RequestReview(userContext("author"), "post-1", &RequestReviewRequest{
		ContentType: "post",
		ReviewerIDs: []string{"alice", "bob"},
	})
	require.NoError(t, err)

	_, err = svc.Approve(userContext("alice"), "post-1")
	require.NoError(t, err)

	// 退出审核不回滚已扣减的剩余数
	require.NoError(t, svc.CancelAssignment(userContext("author"), "post-1", "alice"))

	view, err := svc.Get("post-1")
	require.NoError(t, err)
	assert.Equal(t, "1", view.Remaining)
	assert.Equal(t, []string{"bob"}, view.PendingReviewers)
	assert.Empty(t, view.ApprovedReviewers)
}

func TestSetIgnoreResetsWorkflow(t *testing.T) {
	svc, _, _ := newTestReviewService(t, 2)

	_, err := svc.RequestReview(userContext("author"), "post-1", &RequestReviewRequest{
		ContentType: "post",
		ReviewerIDs: []string{"alice"},
	})
	require.NoError(t, err)

	require.NoError(t, svc.SetIgnore(userContext("author"), "post-1", true))

	view, err := svc.Get("post-1")
	require.NoError(t, err)
	assert.True(t, view.IgnoreWorkflow)
	assert.Equal(t, "", view.Status)
	assert.Empty(t, view.PendingReviewers)

	// 取消忽略后之前的剩余审批数继续生效
	require.NoError(t, svc.SetIgnore(userContext("author"), "post-1", false))
	view, err = svc.Get("post-1")
	require.NoError(t, err)
	assert.False(t, view.IgnoreWorkflow)
	assert.Equal(t, "2", view.Remaining)
}

func TestListPendingAndRequested(t *testing.T) {
	svc, _, _ := newTestReviewService(t, 1)

	_, err := svc.RequestReview(userContext("author"), "post-1", &RequestReviewRequest{
		ContentType: "post",
		ReviewerIDs: []string{"alice"},
	})
	require.NoError(t, err)
	_, err = svc.RequestReview(userContext("editor"), "post-2", &RequestReviewRequest{
		ContentType: "page",
		ReviewerIDs: []string{"alice", "bob"},
	})
	require.NoError(t, err)

	pending, err := svc.ListPendingFor("alice")
	require.NoError(t, err)
	assert.Len(t, pending, 2)

	pending, err = svc.ListPendingFor("bob")
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "post-2", pending[0].ContentID)

	requested, err := svc.ListRequestedBy("author")
	require.NoError(t, err)
	require.Len(t, requested, 1)
	assert.Equal(t, "post-1", requested[0].ContentID)
}

func TestRequestReviewValidatesIDs(t *testing.T) {
	svc, _, _ := newTestReviewService(t, 1)

	_, err := svc.RequestReview(userContext("author"), "post 1", &RequestReviewRequest{
		ContentType: "post",
		ReviewerIDs: []string{"alice"},
	})
	assert.Error(t, err)

	_, err = svc.RequestReview(userContext("author"), "post-1", &RequestReviewRequest{
		ContentType: "post",
		ReviewerIDs: []string{"bad user"},
	})
	assert.Error(t, err)
}
