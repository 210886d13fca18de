package websocket

import (
	"time"

	"github.com/gorilla/websocket"
	"github.com/ikkim/udonggeum-storefront/pkg/logger"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10

	// 클라이언트는 구독 메시지만 보냄
	maxMessageSize = 4 * 1024
)

// Conn WebSocket 연결 래퍼
type Conn struct {
	*websocket.Conn
}

// writeFrame 쓰기 마감 시간을 걸고 프레임 하나를 전송
func (c *Conn) writeFrame(messageType int, data []byte) error {
	if err := c.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return c.WriteMessage(messageType, data)
}

func (c *Conn) keepAlive() {
	c.SetReadLimit(maxMessageSize)
	c.SetReadDeadline(time.Now().Add(pongWait))
	c.SetPongHandler(func(string) error {
		return c.SetReadDeadline(time.Now().Add(pongWait))
	})
}

// ReadPump 구독 메시지를 읽어 Hub로 전달; 연결이 끊기면 등록 해제
func (c *Client) ReadPump() {
	defer func() {
		c.Hub.Unregister(c)
		c.Conn.Close()
	}()

	c.Conn.keepAlive()
	for {
		_, message, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logger.Error("Event stream read failed", err, map[string]interface{}{
					"client_id": c.ID,
				})
			}
			return
		}
		c.Hub.HandleClientMessage(c, message)
	}
}

// WritePump Send 큐의 이벤트를 순서대로 전송하고 주기적으로 ping
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case event, ok := <-c.Send:
			if !ok {
				c.Conn.writeFrame(websocket.CloseMessage, []byte{})
				return
			}
			if !c.flush(event) {
				return
			}

		case <-ticker.C:
			if err := c.Conn.writeFrame(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// flush 첫 이벤트와 이미 쌓여 있는 이벤트를 전송; 실패하면 false
func (c *Client) flush(first []byte) bool {
	pending := len(c.Send)
	for i := 0; ; i++ {
		if err := c.Conn.writeFrame(websocket.TextMessage, first); err != nil {
			logger.Error("Failed to push event", err, map[string]interface{}{
				"client_id": c.ID,
				"pending":   pending - i,
			})
			return false
		}
		if i == pending {
			return true
		}
		next, ok := <-c.Send
		if !ok {
			return true
		}
		first = next
	}
}
