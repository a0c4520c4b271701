package service

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/mautops/review-gin/internal/config"
	"github.com/mautops/review-gin/internal/model"
	"github.com/mautops/review-gin/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newTestScheduler(t *testing.T, mutate func(*config.Config)) (*ReviewScheduler, *fakeDispatcher, *gorm.DB) {
	t.Helper()
	db := setupTestDB(t)
	cfg := config.Default()
	if mutate != nil {
		mutate(cfg)
	}
	dispatcher := &fakeDispatcher{}
	scheduler := NewReviewScheduler(db, dispatcher, func() *config.Config { return cfg }, testLogger())
	return scheduler, dispatcher, db
}

// seedAgedLog 写入一条指定时长之前的审批历史
func seedAgedLog(t *testing.T, db *gorm.DB, age time.Duration) string {
	t.Helper()
	entry := &model.ApprovalLogModel{
		ID:          uuid.New().String(),
		ContentID:   "post-1",
		RequesterID: "author",
		ApproverID:  "alice",
		Status:      model.ApprovalStatusApproved,
		CreatedAt:   time.Now().Add(-age),
	}
	require.NoError(t, repository.NewApprovalLogRepository(db).Append(entry))
	return entry.ID
}

// seedAgedRequest 写入一条指定时长之前发起的待审核内容
func seedAgedRequest(t *testing.T, db *gorm.DB, id string, reviewers []string, age time.Duration) {
	t.Helper()
	item := pendingItemAt(t, id, reviewers, time.Now().Add(-age))
	require.NoError(t, repository.NewContentItemRepository(db).Save(item))
}

func pendingItemAt(t *testing.T, id string, reviewers []string, requestedAt time.Time) *model.ContentItemModel {
	t.Helper()
	item := &model.ContentItemModel{ID: id, ContentType: "post", Title: "发布计划 Q3"}
	ledger, err := item.ToLedger()
	require.NoError(t, err)
	ledger.RequestReview("author", reviewers, 1, requestedAt)
	require.NoError(t, item.ApplyLedger(ledger))
	return item
}

func TestRetentionSweepDeletesExpired(t *testing.T) {
	scheduler, _, db := newTestScheduler(t, func(cfg *config.Config) {
		cfg.History.RetentionDays = 30
	})

	seedAgedLog(t, db, 60*24*time.Hour)
	fresh := seedAgedLog(t, db, time.Hour)

	scheduler.RunRetentionSweep()

	entries, err := repository.NewApprovalLogRepository(db).FindByContentID("post-1")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, fresh, entries[0].ID)
}

func TestRetentionSweepDisabledByDefault(t *testing.T) {
	scheduler, _, db := newTestScheduler(t, nil)

	seedAgedLog(t, db, 365*24*time.Hour)

	// retention_days 为 0 时保留全部历史
	scheduler.RunRetentionSweep()

	entries, err := repository.NewApprovalLogRepository(db).FindByContentID("post-1")
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestReminderScanNotifiesOverdue(t *testing.T) {
	scheduler, dispatcher, db := newTestScheduler(t, func(cfg *config.Config) {
		cfg.Notification.DueDateDays = 3
	})

	seedAgedRequest(t, db, "post-1", []string{"alice", "bob"}, 5*24*time.Hour)
	seedAgedRequest(t, db, "post-2", []string{"carol"}, time.Hour)

	scheduler.RunReminderScan()

	// 只提醒超期的审核人
	assert.ElementsMatch(t, []string{"alice", "bob"}, dispatcher.sentTo("overdue_reminder"))

	// 提醒变量带上内容标题,供模板渲染
	for _, sent := range dispatcher.sent {
		assert.Equal(t, "发布计划 Q3", sent.Vars["post_title"])
	}
}

func TestReminderScanDisabledByDefault(t *testing.T) {
	scheduler, dispatcher, db := newTestScheduler(t, nil)

	seedAgedRequest(t, db, "post-1", []string{"alice"}, 30*24*time.Hour)

	scheduler.RunReminderScan()

	assert.Empty(t, dispatcher.sent)
}

func TestReminderInterval(t *testing.T) {
	assert.Equal(t, 24*time.Hour, reminderInterval("daily"))
	assert.Equal(t, 7*24*time.Hour, reminderInterval("weekly"))
	assert.Equal(t, 30*24*time.Hour, reminderInterval("monthly"))
	assert.Zero(t, reminderInterval("none"))
	assert.Zero(t, reminderInterval("hourly"))
}
