package kds

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
	"github.com/yeremiapane/cafe-ordering/events"
)

const (
	writeWait = 5 * time.Second

	// sendBuffer is how many events a display may fall behind before it is
	// dropped.
	sendBuffer = 32
)

type client struct {
	conn   *websocket.Conn
	cafeID uint
	send   chan []byte
}

// Hub holds the kitchen display connections. A client registered with cafe id
// 0 receives the events of every cafe. Each client has its own writer, so a
// stalled display never delays Publish.
type Hub struct {
	clients map[*websocket.Conn]*client
	mutex   sync.Mutex
	log     *logrus.Logger
}

func NewHub(log *logrus.Logger) *Hub {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Hub{
		clients: make(map[*websocket.Conn]*client),
		log:     log,
	}
}

// Register -> adds a connection, optionally filtered to one cafe
func (h *Hub) Register(conn *websocket.Conn, cafeID uint) {
	cl := &client{conn: conn, cafeID: cafeID, send: make(chan []byte, sendBuffer)}
	h.mutex.Lock()
	h.clients[conn] = cl
	h.mutex.Unlock()
	go h.writePump(cl)
}

// Unregister -> drops and closes a connection
func (h *Hub) Unregister(conn *websocket.Conn) {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	h.drop(conn)
}

// drop must be called with the mutex held.
func (h *Hub) drop(conn *websocket.Conn) {
	cl, ok := h.clients[conn]
	if !ok {
		return
	}
	delete(h.clients, conn)
	close(cl.send)
	conn.Close()
}

func (h *Hub) ClientCount() int {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	return len(h.clients)
}

// Publish queues evt for every client watching its cafe. A client whose queue
// is full is dropped.
func (h *Hub) Publish(ctx context.Context, evt events.Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := json.Marshal(evt)
	if err != nil {
		return err
	}

	h.mutex.Lock()
	defer h.mutex.Unlock()

	queued := 0
	for conn, cl := range h.clients {
		if cl.cafeID != 0 && cl.cafeID != evt.CafeID {
			continue
		}
		select {
		case cl.send <- data:
			queued++
		default:
			h.log.WithField("event", evt.Type).Warn("kds client too slow, dropping")
			h.drop(conn)
		}
	}
	h.log.WithFields(logrus.Fields{
		"event":    evt.Type,
		"order_id": evt.OrderID,
		"clients":  queued,
	}).Debug("kds broadcast")
	return nil
}

func (h *Hub) writePump(cl *client) {
	for data := range cl.send {
		cl.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := cl.conn.WriteMessage(websocket.TextMessage, data); err != nil {
			h.log.Errorf("kds write failed, dropping client: %v", err)
			h.Unregister(cl.conn)
			return
		}
	}
}

// Close disconnects every client.
func (h *Hub) Close() {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	for conn := range h.clients {
		h.drop(conn)
	}
}
