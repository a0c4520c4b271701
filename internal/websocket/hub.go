package websocket

import (
	"encoding/json"
	"sync"
	"time"
)

// ReviewEvent 推送给前端的审核事件
type ReviewEvent struct {
	Type      string    `json:"type"` // review_requested / review_approved / feedback_added
	ContentID string    `json:"content_id"`
	ActorID   string    `json:"actor_id"`
	Remaining string    `json:"remaining,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// 审核事件类型
const (
	EventReviewRequested = "review_requested"
	EventReviewApproved  = "review_approved"
	EventFeedbackAdded   = "feedback_added"
)

// Hub 管理所有 WebSocket 连接
type Hub struct {
	// 已注册的客户端
	clients map[*Client]bool

	// 广播消息到所有客户端
	Broadcast chan []byte

	// 注册新客户端
	Register chan *Client

	// 注销客户端
	Unregister chan *Client

	// 互斥锁，保护 clients map
	mu sync.RWMutex
}

// NewHub 创建新的 Hub
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		Broadcast:  make(chan []byte),
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
	}
}

// Run 运行 Hub
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.Register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()

		case client := <-h.Unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.Send)
			}
			h.mu.Unlock()

		case message := <-h.Broadcast:
			h.mu.RLock()
			for client := range h.clients {
				select {
				case client.Send <- message:
				default:
					close(client.Send)
					delete(h.clients, client)
				}
			}
			h.mu.RUnlock()
		}
	}
}

// BroadcastToUser 向特定用户的所有连接推送消息
func (h *Hub) BroadcastToUser(userID string, message []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for client := range h.clients {
		if client.UserID == userID {
			select {
			case client.Send <- message:
			default:
				close(client.Send)
				delete(h.clients, client)
			}
		}
	}
}

// BroadcastEvent 向特定用户推送一条审核事件
// 序列化失败返回 false,连接层的失败不向上冒泡
func (h *Hub) BroadcastEvent(userID string, event ReviewEvent) bool {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	data, err := json.Marshal(event)
	if err != nil {
		return false
	}
	h.BroadcastToUser(userID, data)
	return true
}

// GetClientCount 获取客户端数量
func (h *Hub) GetClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return len(h.clients)
}
