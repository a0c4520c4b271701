package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/mautops/review-gin/internal/auth"
	"github.com/mautops/review-gin/internal/utils"
)

// UserIDHeader 直通模式下携带用户 ID 的请求头
// 仅在未配置令牌校验、服务部署在可信网关之后时生效
const UserIDHeader = "X-User-ID"

// AuthMiddleware 身份中间件
// 配置了令牌密钥时强制校验 bearer token;未配置时退化为直通模式,
// 从 X-User-ID 头取用户身份。两种模式下用户 ID 都写入请求上下文,
// 供服务层读取
func AuthMiddleware(parser *auth.TokenParser) gin.HandlerFunc {
	return func(c *gin.Context) {
		var userID, userName string

		if parser != nil && parser.Enabled() {
			token, ok := auth.ExtractBearerToken(c.GetHeader("Authorization"))
			if !ok {
				Error(c, http.StatusUnauthorized, "missing bearer token", "")
				c.Abort()
				return
			}

			claims, err := parser.ParseToken(token)
			if err != nil {
				Error(c, http.StatusUnauthorized, "invalid token", err.Error())
				c.Abort()
				return
			}
			userID = claims.UserID()
			userName = claims.DisplayName()
		} else {
			userID = c.GetHeader(UserIDHeader)
			userName = userID
		}

		if err := utils.ValidateUserID(userID); err != nil {
			Error(c, http.StatusUnauthorized, "missing user identity", err.Error())
			c.Abort()
			return
		}

		c.Set("user_id", userID)
		c.Set("user_name", userName)

		ctx := auth.WithUserID(c.Request.Context(), userID)
		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}
