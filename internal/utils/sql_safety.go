package utils

import (
	"errors"
	"strings"
)

// 审批历史表允许排序的列
var historySortFields = map[string]struct{}{
	"created_at":   {},
	"content_id":   {},
	"approver_id":  {},
	"requester_id": {},
	"status":       {},
}

// ValidateHistorySortField 验证审批历史的排序字段
// 白名单校验,字段名直接拼进 ORDER BY,不能信任任何请求输入
func ValidateHistorySortField(field string) error {
	if field == "" {
		return errors.New("sort field cannot be empty")
	}
	if _, ok := historySortFields[strings.ToLower(field)]; !ok {
		return errors.New("sort field is not allowed")
	}
	return nil
}

// ValidateSortOrder 验证排序方向
func ValidateSortOrder(order string) error {
	upperOrder := strings.ToUpper(strings.TrimSpace(order))
	if upperOrder != "ASC" && upperOrder != "DESC" {
		return errors.New("sort order must be ASC or DESC")
	}
	return nil
}

// SanitizeSortOrder 清理排序方向
func SanitizeSortOrder(order string) string {
	upperOrder := strings.ToUpper(strings.TrimSpace(order))
	if upperOrder == "ASC" || upperOrder == "DESC" {
		return upperOrder
	}
	return "DESC" // 默认降序
}
