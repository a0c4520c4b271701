package websocket

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	gorillaWS "github.com/gorilla/websocket"
	"github.com/mautops/review-gin/internal/auth"
	"github.com/mautops/review-gin/internal/utils"
)

var upgrader = gorillaWS.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		// 浏览器同源限制由网关层处理
		return true
	},
}

// ReviewEventsHandler 审核事件推送处理器
// 连接后客户端持续收到与自己相关的审核事件。配置了令牌校验时
// 从 query 参数取 token;直通模式下取 user_id 参数
func ReviewEventsHandler(hub *Hub, parser *auth.TokenParser) gin.HandlerFunc {
	return func(c *gin.Context) {
		var userID string

		if parser != nil && parser.Enabled() {
			token := c.Query("token")
			if token == "" {
				c.JSON(http.StatusUnauthorized, gin.H{"error": "missing token"})
				return
			}

			claims, err := parser.ParseToken(token)
			if err != nil {
				c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
				return
			}
			userID = claims.UserID()
		} else {
			userID = c.Query("user_id")
		}

		if err := utils.ValidateUserID(userID); err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "missing user identity"})
			return
		}

		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			return
		}

		client := NewClient(uuid.New().String(), userID, hub, conn)
		hub.Register <- client

		go client.ReadPump()
		go client.WritePump()
	}
}
