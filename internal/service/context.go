package service

import (
	"context"

	"github.com/mautops/review-gin/internal/auth"
)

// getUserIDFromContext 从 context 中获取用户ID（由认证中间件设置）
func getUserIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	return auth.UserIDFromContext(ctx)
}
