package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	domain "PulseLink/internal/modules/presence/domain/gateway"
	"PulseLink/pkg/zlog"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	opIdentify  = "identify"
	opHello     = "hello"
	opHeartbeat = "heartbeat"
	opDispatch  = "dispatch"
	opMessage   = "message"

	eventPresenceUpdate = "PRESENCE_UPDATE"

	writeWait        = 10 * time.Second
	helloWait        = 15 * time.Second
	defaultHeartbeat = 30 * time.Second
)

// frame 网关线协议帧
type frame struct {
	Op string          `json:"op"`
	T  string          `json:"t,omitempty"`
	D  json.RawMessage `json:"d,omitempty"`
}

type helloPayload struct {
	HeartbeatIntervalMs int `json:"heartbeat_interval_ms"`
}

type presencePayload struct {
	FriendId   string               `json:"friend_id"`
	Activities []domain.RawActivity `json:"activities"`
}

type messagePayload struct {
	FriendId string                 `json:"friend_id"`
	Message  domain.OutgoingMessage `json:"message"`
}

// WsDialer 基于 WebSocket 的网关拨号器
type WsDialer struct {
	URL string
}

func NewWsDialer(url string) *WsDialer {
	return &WsDialer{URL: url}
}

func (d *WsDialer) Dial(ctx context.Context, token string) (domain.Conn, error) {
	if d.URL == "" {
		return nil, errors.New("gateway url is empty")
	}
	if token == "" {
		return nil, errors.New("gateway token is empty")
	}

	ws, _, err := websocket.DefaultDialer.DialContext(ctx, d.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("gateway dial failed: %w", err)
	}

	c := &wsConn{
		ws:     ws,
		events: make(chan domain.Event, 64),
	}

	if err := c.handshake(token); err != nil {
		_ = ws.Close()
		return nil, err
	}

	go c.readPump()
	go c.heartbeatLoop()
	return c, nil
}

type wsConn struct {
	ws     *websocket.Conn
	events chan domain.Event

	writeMu sync.Mutex

	heartbeat time.Duration
	done      chan struct{}
	closeOnce sync.Once
}

// handshake 发送 identify 并等待 hello，拿到心跳间隔
func (c *wsConn) handshake(token string) error {
	identify, _ := json.Marshal(map[string]string{"token": token})
	if err := c.writeFrame(frame{Op: opIdentify, D: identify}); err != nil {
		return fmt.Errorf("gateway identify failed: %w", err)
	}

	_ = c.ws.SetReadDeadline(time.Now().Add(helloWait))
	var hello frame
	if err := c.ws.ReadJSON(&hello); err != nil {
		return fmt.Errorf("gateway hello read failed: %w", err)
	}
	if hello.Op != opHello {
		return fmt.Errorf("gateway unexpected handshake op: %s", hello.Op)
	}

	var payload helloPayload
	_ = json.Unmarshal(hello.D, &payload)
	c.heartbeat = defaultHeartbeat
	if payload.HeartbeatIntervalMs > 0 {
		c.heartbeat = time.Duration(payload.HeartbeatIntervalMs) * time.Millisecond
	}
	_ = c.ws.SetReadDeadline(time.Time{})

	c.done = make(chan struct{})
	return nil
}

func (c *wsConn) Events() <-chan domain.Event {
	return c.events
}

func (c *wsConn) SendMessage(ctx context.Context, friendId string, msg domain.OutgoingMessage) error {
	if friendId == "" {
		return errors.New("friendId is empty")
	}
	if ctx != nil {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
	}
	payload, err := json.Marshal(messagePayload{FriendId: friendId, Message: msg})
	if err != nil {
		return err
	}
	return c.writeFrame(frame{Op: opMessage, D: payload})
}

func (c *wsConn) Close() error {
	c.closeOnce.Do(func() {
		if c.done != nil {
			close(c.done)
		}
	})
	return c.ws.Close()
}

func (c *wsConn) writeFrame(f frame) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
	return c.ws.WriteJSON(f)
}

// readPump 读取网关帧并转成领域事件，连接终止时发出 Closed 并关闭事件通道
func (c *wsConn) readPump() {
	defer close(c.events)

	c.events <- domain.Event{Type: domain.EventReady, At: time.Now()}

	for {
		var f frame
		if err := c.ws.ReadJSON(&f); err != nil {
			select {
			case <-c.done:
				// 本端主动关闭
				c.events <- domain.Event{Type: domain.EventClosed, At: time.Now()}
			default:
				c.events <- domain.Event{Type: domain.EventClosed, Err: err, At: time.Now()}
			}
			return
		}

		switch f.Op {
		case opDispatch:
			if f.T != eventPresenceUpdate {
				continue
			}
			var p presencePayload
			if err := json.Unmarshal(f.D, &p); err != nil {
				zlog.Warn("gateway presence payload malformed", zap.Error(err))
				continue
			}
			if p.FriendId == "" {
				continue
			}
			c.events <- domain.Event{
				Type:       domain.EventPresence,
				FriendId:   p.FriendId,
				Activities: p.Activities,
				At:         time.Now(),
			}
		case opHeartbeat:
			// 服务端心跳回执，忽略
		default:
			// 未知帧不致命，丢弃
			zlog.Debug("gateway unknown frame op", zap.String("op", f.Op))
		}
	}
}

func (c *wsConn) heartbeatLoop() {
	ticker := time.NewTicker(c.heartbeat)
	defer ticker.Stop()
	for {
		select {
		case <-c.done:
			return
		case <-ticker.C:
			if err := c.writeFrame(frame{Op: opHeartbeat}); err != nil {
				// 写失败会同时让读端出错，由 readPump 统一上报
				return
			}
		}
	}
}
