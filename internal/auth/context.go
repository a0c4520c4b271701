package auth

import "context"

// contextKey 请求上下文键的私有类型,避免与其他包的字符串键冲突
type contextKey string

const userIDKey contextKey = "user_id"

// WithUserID 把用户 ID 写入请求上下文
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

// UserIDFromContext 从请求上下文取出用户 ID,缺失时返回空串
func UserIDFromContext(ctx context.Context) string {
	userID, _ := ctx.Value(userIDKey).(string)
	return userID
}
