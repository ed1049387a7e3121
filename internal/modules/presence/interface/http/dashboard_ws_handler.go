package handler

import (
	"net/http"

	"PulseLink/pkg/util/myjwt"
	"PulseLink/pkg/ws"
	"PulseLink/pkg/zlog"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

// DashboardWsHandler 监控端 WebSocket 订阅入口。
// channel 支持 events（事件流）与 alerts（告警）。
type DashboardWsHandler struct {
	hub *ws.Hub
}

func NewDashboardWsHandler(hub *ws.Hub) *DashboardWsHandler {
	return &DashboardWsHandler{hub: hub}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

func (h *DashboardWsHandler) Connect(c *gin.Context) {
	channel := c.Query("channel")
	if channel != "events" && channel != "alerts" {
		c.AbortWithStatus(http.StatusBadRequest)
		return
	}

	// 浏览器原生 WebSocket 不支持自定义 Header，Token 走 URL 参数，这里手动校验
	token := c.Query("token")
	if token == "" {
		c.AbortWithStatus(http.StatusUnauthorized)
		return
	}
	if claims, err := myjwt.ParseToken(token); err != nil || claims == nil {
		c.AbortWithStatus(http.StatusUnauthorized)
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		zlog.Error(err.Error())
		return
	}

	client := ws.NewClient(channel, conn)
	h.hub.Register(client)
	go client.WritePump()
}
