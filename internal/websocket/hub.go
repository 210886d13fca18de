package websocket

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"time"

	"github.com/ikkim/udonggeum-storefront/pkg/logger"
)

const (
	// Rate limiting: 최대 메시지 수 (1초당)
	maxMessagesPerSecond = 10

	sendBufferSize = 256
)

// Event 구독자에게 전달되는 상태 변경 이벤트
type Event struct {
	Type    string      `json:"type"` // cart.updated, wishlist.updated, session.changed
	Payload interface{} `json:"payload"`
	At      time.Time   `json:"at"`
}

// ClientMessage 클라이언트로부터 받은 메시지
type ClientMessage struct {
	Type   string   `json:"type"` // subscribe, unsubscribe
	Topics []string `json:"topics"`
}

// Client WebSocket 구독자 (UI 셸 하나)
type Client struct {
	Hub           *Hub
	Conn          *Conn
	ID            string
	Send          chan []byte
	topics        map[string]bool // 비어 있으면 전체 구독
	mu            sync.RWMutex
	MessageCount  int       // 최근 1초간 받은 메시지 수
	LastResetTime time.Time // 마지막 카운터 리셋 시간
	RateMu        sync.Mutex
}

func NewClient(hub *Hub, conn *Conn, id string) *Client {
	return &Client{
		Hub:           hub,
		Conn:          conn,
		ID:            id,
		Send:          make(chan []byte, sendBufferSize),
		topics:        make(map[string]bool),
		LastResetTime: time.Now(),
	}
}

// Wants reports whether the client subscribed to the topic
func (c *Client) Wants(topic string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.topics) == 0 || c.topics[topic]
}

// Hub WebSocket 연결 관리자
type Hub struct {
	clients map[*Client]bool
	stopped bool

	// 클라이언트 등록 해제
	unregister chan *Client

	// 이벤트 브로드캐스트
	broadcast chan *BroadcastMessage

	mu sync.RWMutex
}

// BroadcastMessage 브로드캐스트 메시지; Target이 있으면 그 클라이언트에만 전달
type BroadcastMessage struct {
	Topic   string
	Message []byte
	Target  *Client
}

// NewHub Hub 생성
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		unregister: make(chan *Client, 64),
		broadcast:  make(chan *BroadcastMessage, 1024),
	}
}

// Run Hub 실행; ctx가 끝나면 모든 연결을 닫음
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.mu.Lock()
			h.stopped = true
			for client := range h.clients {
				close(client.Send)
				delete(h.clients, client)
			}
			h.mu.Unlock()
			logger.Info("WebSocket hub stopped", nil)
			return

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.Send)
			}
			remaining := len(h.clients)
			h.mu.Unlock()
			logger.Info("WebSocket client unregistered", map[string]interface{}{
				"client_id":         client.ID,
				"remaining_clients": remaining,
			})

		case message := <-h.broadcast:
			h.mu.RLock()
			for client := range h.clients {
				if message.Target != nil && client != message.Target {
					continue
				}
				if message.Target == nil && !client.Wants(message.Topic) {
					continue
				}
				select {
				case client.Send <- message.Message:
				default:
					// Send 채널이 막혀있음 - 비동기로 정리
					go h.Unregister(client)
					logger.Warn("Client send buffer full, disconnecting", map[string]interface{}{
						"client_id": client.ID,
					})
				}
			}
			h.mu.RUnlock()
		}
	}
}

// topicOf maps cart.updated to cart
func topicOf(eventType string) string {
	if i := strings.IndexByte(eventType, '.'); i > 0 {
		return eventType[:i]
	}
	return eventType
}

func encodeEvent(eventType string, payload interface{}) ([]byte, error) {
	return json.Marshal(Event{Type: eventType, Payload: payload, At: time.Now().UTC()})
}

// Publish 모든 구독자에게 이벤트 전송; 호출자를 막지 않음
func (h *Hub) Publish(eventType string, payload interface{}) {
	data, err := encodeEvent(eventType, payload)
	if err != nil {
		logger.Error("Failed to marshal event", err, map[string]interface{}{
			"type": eventType,
		})
		return
	}

	select {
	case h.broadcast <- &BroadcastMessage{Topic: topicOf(eventType), Message: data}:
	default:
		// 이벤트 손실을 허용 (UI는 다음 이벤트나 GET으로 따라잡음)
		logger.Warn("Broadcast channel full, event dropped", map[string]interface{}{
			"type": eventType,
		})
	}
}

// Queue Hub를 거치지 않고 Send 큐에 직접 이벤트를 넣음
func (c *Client) Queue(eventType string, payload interface{}) {
	data, err := encodeEvent(eventType, payload)
	if err != nil {
		logger.Error("Failed to marshal event", err, map[string]interface{}{
			"type": eventType,
		})
		return
	}
	select {
	case c.Send <- data:
	default:
		logger.Warn("Client send buffer full, snapshot dropped", map[string]interface{}{
			"client_id": c.ID,
			"type":      eventType,
		})
	}
}

// Register 클라이언트 등록; 반환 이후 발행되는 이벤트는 모두 이 클라이언트에 전달됨
func (h *Hub) Register(client *Client) {
	h.mu.Lock()
	if h.stopped {
		h.mu.Unlock()
		close(client.Send)
		return
	}
	h.clients[client] = true
	total := len(h.clients)
	h.mu.Unlock()

	logger.Info("WebSocket client registered", map[string]interface{}{
		"client_id":     client.ID,
		"total_clients": total,
	})
}

// SendTo 등록된 클라이언트 하나에 이벤트 전송.
// 브로드캐스트와 같은 큐를 거치므로 먼저 발행된 이벤트보다 늦게 도착함.
func (h *Hub) SendTo(client *Client, eventType string, payload interface{}) {
	data, err := encodeEvent(eventType, payload)
	if err != nil {
		logger.Error("Failed to marshal event", err, map[string]interface{}{
			"type": eventType,
		})
		return
	}

	select {
	case h.broadcast <- &BroadcastMessage{Topic: topicOf(eventType), Message: data, Target: client}:
	default:
		logger.Warn("Broadcast channel full, sending directly", map[string]interface{}{
			"client_id": client.ID,
			"type":      eventType,
		})
		client.Queue(eventType, payload)
	}
}

// Unregister 클라이언트 등록 해제
func (h *Hub) Unregister(client *Client) {
	h.unregister <- client
}

// ClientCount 연결된 구독자 수
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// HandleClientMessage 클라이언트 메시지 처리
func (h *Hub) HandleClientMessage(client *Client, message []byte) {
	// Rate limiting 체크
	client.RateMu.Lock()
	now := time.Now()
	if now.Sub(client.LastResetTime) >= time.Second {
		client.MessageCount = 0
		client.LastResetTime = now
	}
	client.MessageCount++
	count := client.MessageCount
	client.RateMu.Unlock()

	if count > maxMessagesPerSecond {
		logger.Warn("Rate limit exceeded", map[string]interface{}{
			"client_id": client.ID,
			"count":     count,
		})
		return
	}

	var msg ClientMessage
	if err := json.Unmarshal(message, &msg); err != nil {
		logger.Warn("Failed to parse client message", map[string]interface{}{
			"client_id": client.ID,
			"error":     err.Error(),
		})
		return
	}

	switch msg.Type {
	case "subscribe":
		client.mu.Lock()
		for _, t := range msg.Topics {
			client.topics[topicOf(t)] = true
		}
		client.mu.Unlock()
	case "unsubscribe":
		client.mu.Lock()
		for _, t := range msg.Topics {
			delete(client.topics, topicOf(t))
		}
		client.mu.Unlock()
	default:
		logger.Debug("Ignoring client message", map[string]interface{}{
			"client_id": client.ID,
			"type":      msg.Type,
		})
	}
}
