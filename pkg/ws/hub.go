package ws

import (
	"encoding/json"
	"sync"
	"time"

	"PulseLink/pkg/zlog"

	"github.com/gorilla/websocket"
)

// Hub 管理监控端 WebSocket 连接，按订阅频道分组
type Hub struct {
	mu      sync.RWMutex
	clients map[string]map[*Client]struct{}
}

func NewHub() *Hub {
	return &Hub{
		clients: make(map[string]map[*Client]struct{}),
	}
}

func (h *Hub) Register(c *Client) {
	if c == nil || c.channel == "" {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	set := h.clients[c.channel]
	if set == nil {
		set = make(map[*Client]struct{})
		h.clients[c.channel] = set
	}
	set[c] = struct{}{}
}

func (h *Hub) Unregister(c *Client) {
	if c == nil || c.channel == "" {
		return
	}
	h.mu.Lock()
	set := h.clients[c.channel]
	if set != nil {
		delete(set, c)
		if len(set) == 0 {
			delete(h.clients, c.channel)
		}
	}
	h.mu.Unlock()
	c.Close()
}

// Broadcast 向订阅了频道的所有连接推送，返回是否至少送达一个连接
func (h *Hub) Broadcast(channel string, payload []byte) bool {
	if channel == "" || len(payload) == 0 {
		return false
	}

	h.mu.RLock()
	set := h.clients[channel]
	h.mu.RUnlock()
	if len(set) == 0 {
		return false
	}

	ok := false
	for c := range set {
		if c == nil {
			continue
		}
		select {
		case c.send <- payload:
			ok = true
		default:
			// 发送缓冲已满，判定为死连接
			h.Unregister(c)
		}
	}
	return ok
}

func (h *Hub) BroadcastJSON(channel string, v interface{}) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	h.Broadcast(channel, b)
	return nil
}

type Client struct {
	channel string
	conn    *websocket.Conn
	send    chan []byte

	closeOnce sync.Once
}

func NewClient(channel string, conn *websocket.Conn) *Client {
	return &Client{
		channel: channel,
		conn:    conn,
		send:    make(chan []byte, 64),
	}
}

func (c *Client) Close() {
	c.closeOnce.Do(func() {
		close(c.send)
		if c.conn != nil {
			_ = c.conn.Close()
		}
	})
}

func (c *Client) WritePump() {
	if c.conn == nil {
		return
	}
	for msg := range c.send {
		_ = c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
		if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			zlog.Error(err.Error())
			return
		}
	}
}
