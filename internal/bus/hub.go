package bus

import (
	"context"
	"crypto/rand"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/oklog/ulid/v2"

	"github.com/quiphq/quip/internal/errors"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Outbound buffer per client.
	sendBuffer = 16
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Daemon binds to loopback; origin checks add nothing here.
		return true
	},
}

type client struct {
	name string
	conn *websocket.Conn
	send chan Message
	done chan struct{}
	once sync.Once
}

// shutdown stops the client's writer and closes the connection. The
// send channel is never closed; senders only ever see a full buffer.
func (c *client) shutdown() {
	c.once.Do(func() { close(c.done) })
	_ = c.conn.Close()
}

// Hub routes messages between attached contexts. One client per context
// name; a later connection under the same name replaces the earlier one.
type Hub struct {
	timeout time.Duration

	mu          sync.Mutex
	clients     map[string]*client
	pending     map[string]chan bool
	subscribers []chan struct{}
}

// NewHub creates a Hub whose insert requests time out after the given
// duration.
func NewHub(timeout time.Duration) *Hub {
	return &Hub{
		timeout: timeout,
		clients: make(map[string]*client),
		pending: make(map[string]chan bool),
	}
}

// Handler returns the websocket endpoint. Clients attach with
// GET /ws?context=<name>.
func (h *Hub) Handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name := r.URL.Query().Get("context")
		if name == "" {
			http.Error(w, "context query parameter is required", http.StatusBadRequest)
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Printf("websocket upgrade failed: %v", err)
			return
		}

		c := &client{
			name: name,
			conn: conn,
			send: make(chan Message, sendBuffer),
			done: make(chan struct{}),
		}
		h.attach(c)

		go h.writePump(c)
		go h.readPump(c)
	}
}

func (h *Hub) attach(c *client) {
	h.mu.Lock()
	prev := h.clients[c.name]
	h.clients[c.name] = c
	h.mu.Unlock()

	if prev != nil {
		// Replacing an earlier connection under the same context name.
		prev.shutdown()
	}
}

func (h *Hub) detach(c *client) {
	h.mu.Lock()
	if h.clients[c.name] == c {
		delete(h.clients, c.name)
	}
	h.mu.Unlock()

	c.shutdown()
}

// writePump drains the client's send channel and keeps the connection
// alive with pings.
func (h *Hub) writePump(c *client) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case msg := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteJSON(msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-c.done:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
			return
		}
	}
}

// readPump handles inbound messages until the connection drops.
func (h *Hub) readPump(c *client) {
	defer h.detach(c)

	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var msg Message
		if err := c.conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("websocket read from %s: %v", c.name, err)
			}
			return
		}

		switch msg.Action {
		case ActionInsertResult:
			h.resolve(msg.ID, msg.Success)
		case ActionCommentsUpdated:
			h.NotifyCommentsUpdated()
		default:
			log.Printf("unknown action %q from %s", msg.Action, c.name)
		}
	}
}

// resolve delivers an insert result to its waiting request, if any.
func (h *Hub) resolve(id string, success bool) {
	h.mu.Lock()
	ch, ok := h.pending[id]
	if ok {
		delete(h.pending, id)
	}
	h.mu.Unlock()

	if ok {
		ch <- success
	}
}

// InsertText asks the page context to insert text into its focused
// editable field and reports whether the page succeeded. Returns an
// unreachable error when no page context is attached or the request
// times out.
func (h *Hub) InsertText(ctx context.Context, text string) (bool, error) {
	h.mu.Lock()
	page := h.clients[ContextPage]
	h.mu.Unlock()

	if page == nil {
		return false, errors.NewUnreachable(ContextPage)
	}

	id := ulid.MustNew(ulid.Timestamp(time.Now()), rand.Reader).String()
	result := make(chan bool, 1)

	h.mu.Lock()
	h.pending[id] = result
	h.mu.Unlock()

	defer func() {
		h.mu.Lock()
		delete(h.pending, id)
		h.mu.Unlock()
	}()

	select {
	case page.send <- Message{Action: ActionInsertText, ID: id, Text: text}:
	default:
		return false, errors.NewUnreachable(ContextPage)
	}

	select {
	case success := <-result:
		return success, nil
	case <-time.After(h.timeout):
		return false, errors.NewUnreachable(ContextPage)
	case <-ctx.Done():
		return false, errors.NewUnreachable(ContextPage)
	}
}

// NotifyCommentsUpdated announces a collection change to the attached
// background and popup contexts and to in-process subscribers. Delivery
// is best-effort; a slow or absent listener never blocks the caller.
func (h *Hub) NotifyCommentsUpdated() {
	msg := Message{Action: ActionCommentsUpdated}

	h.mu.Lock()
	for _, name := range []string{ContextBackground, ContextPopup} {
		if c := h.clients[name]; c != nil {
			select {
			case c.send <- msg:
			default:
			}
		}
	}
	subscribers := h.subscribers
	h.mu.Unlock()

	for _, ch := range subscribers {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

// Subscribe returns a channel that receives a tick whenever the comment
// collection changes. Ticks coalesce; a subscriber that has not drained
// the channel misses no information, only duplicate notifications.
func (h *Hub) Subscribe() <-chan struct{} {
	ch := make(chan struct{}, 1)

	h.mu.Lock()
	h.subscribers = append(h.subscribers, ch)
	h.mu.Unlock()

	return ch
}
