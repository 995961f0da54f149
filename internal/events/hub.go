package events

import (
	"context"
	"net/http"
	"strconv"
	"sync"
	"time"

	"admarket/internal/logger"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

const writeWait = 5 * time.Second

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

type subscriber struct {
	conn        *websocket.Conn
	placementID int64
	mu          sync.Mutex
}

func (s *subscriber) write(v interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return s.conn.WriteJSON(v)
}

// Hub pushes booking events to websocket clients watching placement calendars.
// A client subscribed with placement_id=0 receives every placement.
type Hub struct {
	log         *logger.Logger
	subscribers map[*subscriber]struct{}
	mutex       sync.RWMutex
}

func NewHub(log *logger.Logger) *Hub {
	return &Hub{
		log:         log,
		subscribers: make(map[*subscriber]struct{}),
	}
}

func (h *Hub) register(s *subscriber) {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	h.subscribers[s] = struct{}{}
}

func (h *Hub) unregister(s *subscriber) {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	if _, ok := h.subscribers[s]; ok {
		_ = s.conn.Close()
		delete(h.subscribers, s)
	}
}

func (h *Hub) Count() int {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	return len(h.subscribers)
}

// Publish forwards booking events; other families are ignored.
func (h *Hub) Publish(_ context.Context, e Event) error {
	if e.Type.Family() != "booking" {
		return nil
	}
	placementID := placementOf(e)

	h.mutex.RLock()
	targets := make([]*subscriber, 0, len(h.subscribers))
	for s := range h.subscribers {
		if s.placementID == 0 || s.placementID == placementID {
			targets = append(targets, s)
		}
	}
	h.mutex.RUnlock()

	for _, s := range targets {
		if err := s.write(e); err != nil {
			h.unregister(s)
		}
	}
	return nil
}

// ServeWS upgrades GET /ws/calendar?placement_id= and keeps the socket until the client leaves.
func (h *Hub) ServeWS(c *gin.Context) {
	var placementID int64
	if raw := c.Query("placement_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": gin.H{"code": "INVALID_ID", "message": "Invalid placement_id"}})
			return
		}
		placementID = id
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.WithError(err).Warn("websocket upgrade failed")
		return
	}

	s := &subscriber{conn: conn, placementID: placementID}
	h.register(s)
	defer h.unregister(s)

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *Hub) Close() {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	for s := range h.subscribers {
		_ = s.conn.Close()
		delete(h.subscribers, s)
	}
}

func placementOf(e Event) int64 {
	switch v := e.Data["placement_id"].(type) {
	case int64:
		return v
	case int:
		return int64(v)
	case float64:
		return int64(v)
	default:
		return 0
	}
}
