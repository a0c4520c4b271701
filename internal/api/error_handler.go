package api

import (
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// ErrorHandlerMiddleware 错误兜底中间件
// 处理器把未自行响应的错误挂到 gin.Context 上,这里统一映射状态码并记日志
func ErrorHandlerMiddleware() gin.HandlerFunc {
	logger := GetLogger()

	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}

		err := c.Errors.Last().Err
		logger.WithFields(logrus.Fields{
			"request_id": c.GetString("request_id"),
			"path":       c.Request.URL.Path,
		}).WithError(err).Error("Unhandled request error")

		if c.Writer.Written() {
			return
		}
		Error(c, statusForReviewError(err), "request failed", err.Error())
	}
}
