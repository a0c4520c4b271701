package api

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// RequestIDHeader 请求 ID 透传头
const RequestIDHeader = "X-Request-ID"

// requestIDContextKey 请求上下文键的私有类型,避免与其他包的字符串键冲突
type requestIDContextKey struct{}

// RequestIDMiddleware 请求 ID 中间件
// 透传上游的 X-Request-ID,缺失时生成新的,并写入响应头和请求上下文
func RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(RequestIDHeader)
		if requestID == "" {
			requestID = uuid.New().String()
		}

		c.Set("request_id", requestID)
		c.Header(RequestIDHeader, requestID)

		ctx := context.WithValue(c.Request.Context(), requestIDContextKey{}, requestID)
		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}
