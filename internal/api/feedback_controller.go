package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/mautops/review-gin/internal/service"
	"github.com/mautops/review-gin/internal/utils"
)

// FeedbackController 审核反馈控制器
type FeedbackController struct {
	feedbackService service.FeedbackService
}

// NewFeedbackController 创建审核反馈控制器
func NewFeedbackController(feedbackService service.FeedbackService) *FeedbackController {
	return &FeedbackController{
		feedbackService: feedbackService,
	}
}

// Add 提交反馈
// @Summary      提交审核反馈
// @Description  为内容追加一条审核反馈并通知审核发起人
// @Tags         审核反馈
// @Accept       json
// @Produce      json
// @Param        id path string true "内容 ID"
// @Param        request body service.AddFeedbackRequest true "反馈内容"
// @Success      200  {object}  Response
// @Failure      400  {object}  ErrorResponse
// @Failure      401  {object}  ErrorResponse
// @Router       /contents/{id}/feedbacks [post]
// @Security     BearerAuth
func (c *FeedbackController) Add(ctx *gin.Context) {
	id := ctx.Param("id")
	if err := utils.ValidateContentID(id); err != nil {
		Error(ctx, http.StatusBadRequest, "invalid content ID", err.Error())
		return
	}

	var req service.AddFeedbackRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		Error(ctx, http.StatusBadRequest, "invalid request", err.Error())
		return
	}

	feedback, err := c.feedbackService.Add(ctx.Request.Context(), id, &req)
	if err != nil {
		Error(ctx, statusForReviewError(err), "failed to add feedback", err.Error())
		return
	}

	Success(ctx, feedback)
}

// List 分页列出反馈
// @Summary      反馈列表
// @Description  分页列出内容的审核反馈,最新的在前
// @Tags         审核反馈
// @Produce      json
// @Param        id path string true "内容 ID"
// @Param        page query int false "页码" default(1)
// @Param        page_size query int false "每页数量" default(20)
// @Success      200  {object}  Response
// @Failure      400  {object}  ErrorResponse
// @Router       /contents/{id}/feedbacks [get]
// @Security     BearerAuth
func (c *FeedbackController) List(ctx *gin.Context) {
	id := ctx.Param("id")
	if err := utils.ValidateContentID(id); err != nil {
		Error(ctx, http.StatusBadRequest, "invalid content ID", err.Error())
		return
	}

	page, _ := strconv.Atoi(ctx.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(ctx.DefaultQuery("page_size", "20"))

	result, err := c.feedbackService.List(id, page, pageSize)
	if err != nil {
		Error(ctx, statusForReviewError(err), "failed to list feedback", err.Error())
		return
	}

	Success(ctx, result)
}
