package handler

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/LENAX/flow-planner/pkg/core/events"
)

// WSHandler 运行事件WebSocket处理器
// 将事件总线上的运行事件实时推送给前端画布
type WSHandler struct {
	bus      *events.Bus
	upgrader websocket.Upgrader
}

// NewWSHandler 创建WSHandler
func NewWSHandler(bus *events.Bus) *WSHandler {
	return &WSHandler{
		bus: bus,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// 画布前端与API跨域部署
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// Runs 订阅运行事件流
// GET /api/v1/ws/runs
func (h *WSHandler) Runs(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("⚠️ [WS] 连接升级失败: %v", err)
		return
	}
	defer conn.Close()

	ctx := c.Request.Context()
	msgs, err := h.bus.Subscribe(ctx)
	if err != nil {
		log.Printf("⚠️ [WS] 订阅运行事件失败: %v", err)
		return
	}

	// 读协程只负责感知客户端断开
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-done:
			return
		case <-ctx.Done():
			return
		case msg, ok := <-msgs:
			if !ok {
				return
			}
			ev, err := events.DecodeRunEvent(msg)
			if err != nil {
				log.Printf("⚠️ [WS] 解析运行事件失败: %v", err)
				msg.Ack()
				continue
			}
			if err := conn.WriteJSON(ev); err != nil {
				msg.Nack()
				return
			}
			msg.Ack()
		}
	}
}
