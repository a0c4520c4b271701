package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/mautops/review-gin/internal/service"
	"github.com/mautops/review-gin/internal/utils"
	"github.com/mautops/review-gin/internal/workflow"
)

// ReviewController 内容审核控制器
type ReviewController struct {
	reviewService service.ReviewService
	gateService   service.PublishGateService
}

// NewReviewController 创建内容审核控制器
func NewReviewController(reviewService service.ReviewService, gateService service.PublishGateService) *ReviewController {
	return &ReviewController{
		reviewService: reviewService,
		gateService:   gateService,
	}
}

// validateContentID 验证内容 ID 并返回错误响应（如果无效）
func (c *ReviewController) validateContentID(ctx *gin.Context, id string) bool {
	if err := utils.ValidateContentID(id); err != nil {
		Error(ctx, http.StatusBadRequest, "invalid content ID", err.Error())
		return false
	}
	return true
}

// RequestReview 发起审核请求
// @Summary      发起内容审核
// @Description  为内容指定审核人名单,整体替换上一轮名单
// @Tags         内容审核
// @Accept       json
// @Produce      json
// @Param        id path string true "内容 ID"
// @Param        request body service.RequestReviewRequest true "审核请求"
// @Success      200  {object}  Response
// @Failure      400  {object}  ErrorResponse
// @Failure      401  {object}  ErrorResponse
// @Failure      500  {object}  ErrorResponse
// @Router       /contents/{id}/review-request [post]
// @Security     BearerAuth
func (c *ReviewController) RequestReview(ctx *gin.Context) {
	id := ctx.Param("id")
	if !c.validateContentID(ctx, id) {
		return
	}

	var req service.RequestReviewRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		Error(ctx, http.StatusBadRequest, "invalid request", err.Error())
		return
	}

	outcome, err := c.reviewService.RequestReview(ctx.Request.Context(), id, &req)
	if err != nil {
		Error(ctx, statusForReviewError(err), "failed to request review", err.Error())
		return
	}

	Success(ctx, outcome)
}

// Approve 审批内容
// @Summary      审批内容
// @Description  当前用户作为审核人批准内容,审核人必须在待审核名单中
// @Tags         内容审核
// @Accept       json
// @Produce      json
// @Param        id path string true "内容 ID"
// @Success      200  {object}  Response
// @Failure      400  {object}  ErrorResponse
// @Failure      403  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Router       /contents/{id}/approve [post]
// @Security     BearerAuth
func (c *ReviewController) Approve(ctx *gin.Context) {
	id := ctx.Param("id")
	if !c.validateContentID(ctx, id) {
		return
	}

	outcome, err := c.reviewService.Approve(ctx.Request.Context(), id)
	if err != nil {
		Error(ctx, statusForReviewError(err), "failed to approve", err.Error())
		return
	}

	Success(ctx, outcome)
}

// CancelRequest 取消审核指派的请求参数
// @Description 取消审核指派的请求参数
type CancelRequest struct {
	UserID string `json:"user_id" example:"user-002"` // 要移除的用户,留空时移除当前用户
}

// Cancel 取消审核指派
// @Summary      取消审核指派
// @Description  将用户从内容的待审核与已审批名单中移除
// @Tags         内容审核
// @Accept       json
// @Produce      json
// @Param        id path string true "内容 ID"
// @Param        request body CancelRequest false "取消参数"
// @Success      200  {object}  Response
// @Failure      400  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Router       /contents/{id}/cancel [post]
// @Security     BearerAuth
func (c *ReviewController) Cancel(ctx *gin.Context) {
	id := ctx.Param("id")
	if !c.validateContentID(ctx, id) {
		return
	}

	var req CancelRequest
	_ = ctx.ShouldBindJSON(&req)
	userID := req.UserID
	if userID == "" {
		userID = ctx.GetString("user_id")
	}

	if err := c.reviewService.CancelAssignment(ctx.Request.Context(), id, userID); err != nil {
		Error(ctx, statusForReviewError(err), "failed to cancel assignment", err.Error())
		return
	}

	Success(ctx, gin.H{"content_id": id, "user_id": userID})
}

// IgnoreRequest 设置忽略标记的请求参数
// @Description 设置忽略标记的请求参数
type IgnoreRequest struct {
	Ignore bool `json:"ignore"` // true 时跳过该内容的审核工作流
}

// SetIgnore 设置忽略标记
// @Summary      设置忽略标记
// @Description  置为 true 时完全重置该内容的审核流程
// @Tags         内容审核
// @Accept       json
// @Produce      json
// @Param        id path string true "内容 ID"
// @Param        request body IgnoreRequest true "忽略参数"
// @Success      200  {object}  Response
// @Failure      400  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Router       /contents/{id}/ignore [post]
// @Security     BearerAuth
func (c *ReviewController) SetIgnore(ctx *gin.Context) {
	id := ctx.Param("id")
	if !c.validateContentID(ctx, id) {
		return
	}

	var req IgnoreRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		Error(ctx, http.StatusBadRequest, "invalid request", err.Error())
		return
	}

	if err := c.reviewService.SetIgnore(ctx.Request.Context(), id, req.Ignore); err != nil {
		Error(ctx, statusForReviewError(err), "failed to set ignore flag", err.Error())
		return
	}

	Success(ctx, gin.H{"content_id": id, "ignore": req.Ignore})
}

// PublishCheck 发布检查
// @Summary      发布检查
// @Description  内容状态迁移前调用,未达法定审批数时否决并回落为草稿
// @Tags         内容审核
// @Accept       json
// @Produce      json
// @Param        id path string true "内容 ID"
// @Param        request body service.PublishCheckRequest true "状态迁移参数"
// @Success      200  {object}  Response
// @Failure      400  {object}  ErrorResponse
// @Router       /contents/{id}/publish-check [post]
// @Security     BearerAuth
func (c *ReviewController) PublishCheck(ctx *gin.Context) {
	id := ctx.Param("id")
	if !c.validateContentID(ctx, id) {
		return
	}

	var req service.PublishCheckRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		Error(ctx, http.StatusBadRequest, "invalid request", err.Error())
		return
	}

	decision, err := c.gateService.Evaluate(ctx.Request.Context(), id, &req)
	if err != nil {
		Error(ctx, statusForReviewError(err), "failed to evaluate publish gate", err.Error())
		return
	}

	Success(ctx, decision)
}

// Get 获取内容审核状态
// @Summary      获取内容审核状态
// @Description  返回内容的审核状态、剩余审批数和审核人名单
// @Tags         内容审核
// @Produce      json
// @Param        id path string true "内容 ID"
// @Success      200  {object}  Response
// @Failure      404  {object}  ErrorResponse
// @Router       /contents/{id} [get]
// @Security     BearerAuth
func (c *ReviewController) Get(ctx *gin.Context) {
	id := ctx.Param("id")
	if !c.validateContentID(ctx, id) {
		return
	}

	review, err := c.reviewService.Get(id)
	if err != nil {
		Error(ctx, statusForReviewError(err), "failed to get review state", err.Error())
		return
	}

	Success(ctx, review)
}

// ListPending 列出当前用户待审核的内容
// @Summary      待审核列表
// @Description  列出当前用户被指派且尚未审批的内容
// @Tags         内容审核
// @Produce      json
// @Success      200  {object}  Response
// @Router       /reviews/pending [get]
// @Security     BearerAuth
func (c *ReviewController) ListPending(ctx *gin.Context) {
	userID := ctx.GetString("user_id")
	reviews, err := c.reviewService.ListPendingFor(userID)
	if err != nil {
		Error(ctx, statusForReviewError(err), "failed to list pending reviews", err.Error())
		return
	}

	Success(ctx, reviews)
}

// ListRequested 列出当前用户发起审核的内容
// @Summary      已发起列表
// @Description  列出当前用户作为发起人的内容审核状态
// @Tags         内容审核
// @Produce      json
// @Success      200  {object}  Response
// @Router       /reviews/requested [get]
// @Security     BearerAuth
func (c *ReviewController) ListRequested(ctx *gin.Context) {
	userID := ctx.GetString("user_id")
	reviews, err := c.reviewService.ListRequestedBy(userID)
	if err != nil {
		Error(ctx, statusForReviewError(err), "failed to list requested reviews", err.Error())
		return
	}

	Success(ctx, reviews)
}

// statusForReviewError 服务层错误到 HTTP 状态码的映射
func statusForReviewError(err error) int {
	var vErr *utils.ValidationError
	switch {
	case errors.Is(err, service.ErrContentNotFound):
		return http.StatusNotFound
	case errors.Is(err, workflow.ErrNotAssigned):
		return http.StatusForbidden
	case errors.Is(err, workflow.ErrInvalidContentID),
		errors.Is(err, workflow.ErrInvalidUser),
		errors.Is(err, workflow.ErrEmptyFeedback),
		errors.As(err, &vErr):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
