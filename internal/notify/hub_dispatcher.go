package notify

import (
	"github.com/mautops/review-gin/internal/websocket"
)

// 模板键到推送事件类型的映射
var templateEvents = map[string]string{
	TemplateAskForReview:  websocket.EventReviewRequested,
	TemplateApproveReview: websocket.EventReviewApproved,
	TemplateFeedback:      websocket.EventFeedbackAdded,
}

// HubDispatcher 通过 WebSocket Hub 向在线用户实时推送审核事件
type HubDispatcher struct {
	hub *websocket.Hub
}

// NewHubDispatcher 创建 WebSocket 推送分发器
func NewHubDispatcher(hub *websocket.Hub) *HubDispatcher {
	return &HubDispatcher{hub: hub}
}

// Send 把通知转成审核事件推给收件人
// 收件人不在线时没有可观察的失败,始终按成功处理
func (d *HubDispatcher) Send(templateKey string, recipient string, vars map[string]string) bool {
	eventType, ok := templateEvents[templateKey]
	if !ok {
		// 提醒类通知只走日志分发器
		return true
	}

	return d.hub.BroadcastEvent(recipient, websocket.ReviewEvent{
		Type:      eventType,
		ContentID: vars[VarContentID],
		ActorID:   vars[VarAssignee],
	})
}
