package service

import (
	"context"
	"testing"

	"github.com/mautops/review-gin/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newTestGateService(t *testing.T, mutate func(*config.Config)) (PublishGateService, ReviewService, *gorm.DB) {
	t.Helper()
	db := setupTestDB(t)
	cfg := config.Default()
	cfg.Workflow.MinRequiredReviews = 2
	if mutate != nil {
		mutate(cfg)
	}
	getConfig := func() *config.Config { return cfg }
	gate := NewPublishGateService(db, getConfig, testLogger())
	review := NewReviewService(db, &fakeDispatcher{}, getConfig, testLogger())
	return gate, review, db
}

func TestEvaluateVetoesPendingPublish(t *testing.T) {
	gate, review, _ := newTestGateService(t, nil)

	_, err := review.RequestReview(userContext("author"), "post-1", &RequestReviewRequest{
		ContentType: "post",
		ReviewerIDs: []string{"alice", "bob"},
	})
	require.NoError(t, err)

	decision, err := gate.Evaluate(context.Background(), "post-1", &PublishCheckRequest{
		ContentType:    "post",
		PreviousStatus: "draft",
		TargetStatus:   "publish",
	})
	require.NoError(t, err)

	assert.Equal(t, "veto", decision.Decision)
	assert.Equal(t, "draft", decision.EffectiveStatus)
	assert.Equal(t, 2, decision.RemainingApprovals)
}

func TestEvaluateAllowsAfterQuorum(t *testing.T) {
	gate, review, _ := newTestGateService(t, nil)

	_, err := review.RequestReview(userContext("author"), "post-1", &RequestReviewRequest{
		ContentType: "post",
		ReviewerIDs: []string{"alice", "bob"},
	})
	require.NoError(t, err)
	_, err = review.Approve(userContext("alice"), "post-1")
	require.NoError(t, err)
	_, err = review.Approve(userContext("bob"), "post-1")
	require.NoError(t, err)

	decision, err := gate.Evaluate(context.Background(), "post-1", &PublishCheckRequest{
		ContentType:    "post",
		PreviousStatus: "draft",
		TargetStatus:   "publish",
	})
	require.NoError(t, err)

	assert.Equal(t, "allow", decision.Decision)
	assert.Equal(t, "publish", decision.EffectiveStatus)
}

func TestEvaluateAllowsUnknownContent(t *testing.T) {
	gate, _, _ := newTestGateService(t, nil)

	// 从未进入工作流的内容直接放行
	decision, err := gate.Evaluate(context.Background(), "post-9", &PublishCheckRequest{
		ContentType:    "post",
		PreviousStatus: "draft",
		TargetStatus:   "publish",
	})
	require.NoError(t, err)
	assert.Equal(t, "allow", decision.Decision)
}

func TestEvaluateAllowsOutOfScopeType(t *testing.T) {
	gate, review, _ := newTestGateService(t, nil)

	_, err := review.RequestReview(userContext("author"), "post-1", &RequestReviewRequest{
		ContentType: "attachment",
		ReviewerIDs: []string{"alice"},
	})
	require.NoError(t, err)

	decision, err := gate.Evaluate(context.Background(), "post-1", &PublishCheckRequest{
		ContentType:  "attachment",
		TargetStatus: "publish",
	})
	require.NoError(t, err)
	assert.Equal(t, "allow", decision.Decision)
}

func TestEvaluateAllowsWithGlobalOverride(t *testing.T) {
	gate, review, _ := newTestGateService(t, func(cfg *config.Config) {
		cfg.Workflow.PublishWithoutApproval = true
	})

	_, err := review.RequestReview(userContext("author"), "post-1", &RequestReviewRequest{
		ContentType: "post",
		ReviewerIDs: []string{"alice"},
	})
	require.NoError(t, err)

	decision, err := gate.Evaluate(context.Background(), "post-1", &PublishCheckRequest{
		ContentType:  "post",
		TargetStatus: "publish",
	})
	require.NoError(t, err)
	assert.Equal(t, "allow", decision.Decision)
}

func TestEvaluateAllowsIgnoredContent(t *testing.T) {
	gate, review, _ := newTestGateService(t, nil)

	_, err := review.RequestReview(userContext("author"), "post-1", &RequestReviewRequest{
		ContentType: "post",
		ReviewerIDs: []string{"alice"},
	})
	require.NoError(t, err)
	require.NoError(t, review.SetIgnore(userContext("author"), "post-1", true))

	decision, err := gate.Evaluate(context.Background(), "post-1", &PublishCheckRequest{
		ContentType:  "post",
		TargetStatus: "publish",
	})
	require.NoError(t, err)
	assert.Equal(t, "allow", decision.Decision)
}

func TestEvaluateAllowsRepublish(t *testing.T) {
	gate, review, _ := newTestGateService(t, nil)

	_, err := review.RequestReview(userContext("author"), "post-1", &RequestReviewRequest{
		ContentType: "post",
		ReviewerIDs: []string{"alice", "bob"},
	})
	require.NoError(t, err)

	// 已发布内容的编辑不再被否决
	decision, err := gate.Evaluate(context.Background(), "post-1", &PublishCheckRequest{
		ContentType:    "post",
		PreviousStatus: "publish",
		TargetStatus:   "publish",
	})
	require.NoError(t, err)
	assert.Equal(t, "allow", decision.Decision)
}
