package gateway

import (
	"errors"
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// ErrTraineeOffline 学员当前没有连接。
var ErrTraineeOffline = errors.New("trainee not connected")

// OutboundMessage 下发给客户端的消息帧。
type OutboundMessage struct {
	Text string `json:"text"`
}

// InboundMessage 客户端上行的消息帧。
type InboundMessage struct {
	DisplayName string `json:"display_name"`
	Text        string `json:"text"`
}

// Hub 维护学员与导演的 websocket 连接，充当编排器的消息出口。
// 同一学员重复连接时新连接顶掉旧连接。
type Hub struct {
	mu        sync.RWMutex
	trainees  map[string]*wsConn
	directors map[string]*wsConn

	writeTimeout time.Duration
}

// wsConn 包一层写锁：gorilla/websocket 不允许并发写同一连接。
type wsConn struct {
	mu sync.Mutex
	ws *websocket.Conn
}

func NewHub(writeTimeout time.Duration) *Hub {
	if writeTimeout == 0 {
		writeTimeout = 10 * time.Second
	}
	return &Hub{
		trainees:     make(map[string]*wsConn),
		directors:    make(map[string]*wsConn),
		writeTimeout: writeTimeout,
	}
}

func (c *wsConn) write(timeout time.Duration, msg OutboundMessage) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	_ = c.ws.SetWriteDeadline(time.Now().Add(timeout))
	return c.ws.WriteJSON(msg)
}

// RegisterTrainee 登记学员连接，返回被顶掉的旧连接（可能为 nil）。
func (h *Hub) RegisterTrainee(id string, ws *websocket.Conn) *websocket.Conn {
	h.mu.Lock()
	defer h.mu.Unlock()

	var old *websocket.Conn
	if prev, ok := h.trainees[id]; ok {
		old = prev.ws
	}
	h.trainees[id] = &wsConn{ws: ws}
	return old
}

// UnregisterTrainee 注销学员连接。只在登记的还是同一条连接时移除，
// 避免旧连接的清理把新连接踢掉。
func (h *Hub) UnregisterTrainee(id string, ws *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if prev, ok := h.trainees[id]; ok && prev.ws == ws {
		delete(h.trainees, id)
	}
}

// RegisterDirector 登记导演连接。
func (h *Hub) RegisterDirector(id string, ws *websocket.Conn) *websocket.Conn {
	h.mu.Lock()
	defer h.mu.Unlock()

	var old *websocket.Conn
	if prev, ok := h.directors[id]; ok {
		old = prev.ws
	}
	h.directors[id] = &wsConn{ws: ws}
	return old
}

// UnregisterDirector 注销导演连接。
func (h *Hub) UnregisterDirector(id string, ws *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if prev, ok := h.directors[id]; ok && prev.ws == ws {
		delete(h.directors, id)
	}
}

// SendToTrainee 给指定学员发一条消息。
func (h *Hub) SendToTrainee(id, text string) error {
	h.mu.RLock()
	c, ok := h.trainees[id]
	h.mu.RUnlock()

	if !ok {
		return ErrTraineeOffline
	}
	return c.write(h.writeTimeout, OutboundMessage{Text: text})
}

// SendToDirector 给指定导演发一条消息。
func (h *Hub) SendToDirector(id, text string) error {
	h.mu.RLock()
	c, ok := h.directors[id]
	h.mu.RUnlock()

	if !ok {
		return ErrTraineeOffline
	}
	return c.write(h.writeTimeout, OutboundMessage{Text: text})
}

// NotifyDirectors 向所有在线导演广播。个别连接写失败只记日志，不影响其余。
func (h *Hub) NotifyDirectors(text string) {
	h.mu.RLock()
	conns := make(map[string]*wsConn, len(h.directors))
	for id, c := range h.directors {
		conns[id] = c
	}
	h.mu.RUnlock()

	for id, c := range conns {
		if err := c.write(h.writeTimeout, OutboundMessage{Text: text}); err != nil {
			log.Printf("[Gateway] notify director %s: %v", id, err)
		}
	}
}
