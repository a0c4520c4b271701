package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/mautops/review-gin/internal/service"
	"github.com/mautops/review-gin/internal/utils"
)

// HistoryController 审批历史控制器
type HistoryController struct {
	historyService service.HistoryService
}

// NewHistoryController 创建审批历史控制器
func NewHistoryController(historyService service.HistoryService) *HistoryController {
	return &HistoryController{
		historyService: historyService,
	}
}

// List 分页查询审批历史
// @Summary      审批历史
// @Description  按审批人、发起人或内容 ID 过滤的分页审批历史
// @Tags         审批历史
// @Produce      json
// @Param        approver_id query string false "审批人 ID"
// @Param        requester_id query string false "发起人 ID"
// @Param        content_id query string false "内容 ID"
// @Param        page query int false "页码" default(1)
// @Param        page_size query int false "每页数量" default(20)
// @Param        order_by query string false "排序字段" default(created_at)
// @Param        order query string false "排序方向" Enums(asc, desc) default(desc)
// @Success      200  {object}  PaginatedResponse
// @Failure      400  {object}  ErrorResponse
// @Router       /history [get]
// @Security     BearerAuth
func (c *HistoryController) List(ctx *gin.Context) {
	filter := &service.HistoryListFilter{
		OrderBy: ctx.Query("order_by"),
		Order:   ctx.Query("order"),
	}
	if v := ctx.Query("approver_id"); v != "" {
		filter.ApproverID = &v
	}
	if v := ctx.Query("requester_id"); v != "" {
		filter.RequesterID = &v
	}
	if v := ctx.Query("content_id"); v != "" {
		filter.ContentID = &v
	}
	filter.Page, _ = strconv.Atoi(ctx.DefaultQuery("page", "1"))
	filter.PageSize, _ = strconv.Atoi(ctx.DefaultQuery("page_size", "20"))

	result, err := c.historyService.List(filter)
	if err != nil {
		Error(ctx, statusForReviewError(err), "failed to query history", err.Error())
		return
	}

	Paginated(ctx, result.Items, PaginationInfo{
		Page:      result.Pagination.Page,
		PageSize:  result.Pagination.PageSize,
		Total:     result.Pagination.Total,
		TotalPage: result.Pagination.TotalPage,
	})
}

// ListByContent 查询单个内容的审批历史
// @Summary      内容审批历史
// @Description  按时间顺序列出单个内容的全部审批记录
// @Tags         审批历史
// @Produce      json
// @Param        id path string true "内容 ID"
// @Success      200  {object}  Response
// @Failure      400  {object}  ErrorResponse
// @Router       /contents/{id}/history [get]
// @Security     BearerAuth
func (c *HistoryController) ListByContent(ctx *gin.Context) {
	id := ctx.Param("id")
	if err := utils.ValidateContentID(id); err != nil {
		Error(ctx, http.StatusBadRequest, "invalid content ID", err.Error())
		return
	}

	entries, err := c.historyService.ListByContentID(id)
	if err != nil {
		Error(ctx, statusForReviewError(err), "failed to query history", err.Error())
		return
	}

	Success(ctx, entries)
}
