// Package surface delivers chart redraws to browsers over websockets.
package surface

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/chrissnell/startracker/internal/graph"
	"github.com/chrissnell/startracker/internal/log"
	"github.com/chrissnell/startracker/pkg/responseformat"
	"github.com/gorilla/websocket"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10

	sendBuffer = 16
)

// Message is one frame pushed to a subscriber.
type Message struct {
	Type    string      `json:"type"`
	Graph   string      `json:"graph"`
	Payload graph.Chart `json:"payload"`
}

const messageTypeChart = "chart"

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Hub fans chart redraws out to websocket subscribers, grouped by graph ID.
// It remembers the last chart of every graph so new subscribers start with
// a complete picture.
type Hub struct {
	register   chan *client
	unregister chan *client
	broadcast  chan Message
	done       chan struct{}

	mu      sync.RWMutex
	clients map[string]map[*client]bool
	last    map[string]graph.Chart
}

type client struct {
	hub    *Hub
	conn   *websocket.Conn
	graph  string
	format string
	send   chan Message
}

// NewHub creates a hub. Call Run before serving subscribers.
func NewHub() *Hub {
	return &Hub{
		register:   make(chan *client),
		unregister: make(chan *client),
		broadcast:  make(chan Message, 64),
		done:       make(chan struct{}),
		clients:    make(map[string]map[*client]bool),
		last:       make(map[string]graph.Chart),
	}
}

// Surface returns the graph.Surface that publishes redraws of graphID.
func (h *Hub) Surface(graphID string) graph.Surface {
	return graph.SurfaceFunc(func(c graph.Chart) {
		h.Publish(graphID, c)
	})
}

// Publish records chart as the latest for graphID and queues it for every
// subscriber of that graph.
func (h *Hub) Publish(graphID string, chart graph.Chart) {
	h.mu.Lock()
	h.last[graphID] = chart
	h.mu.Unlock()

	select {
	case h.broadcast <- Message{Type: messageTypeChart, Graph: graphID, Payload: chart}:
	case <-h.done:
	}
}

// lastChart returns the most recent chart published for graphID.
func (h *Hub) lastChart(graphID string) (graph.Chart, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	c, ok := h.last[graphID]
	return c, ok
}

// Forget drops a graph's cached chart and disconnects its subscribers.
func (h *Hub) Forget(graphID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.last, graphID)
	for c := range h.clients[graphID] {
		close(c.send)
	}
	delete(h.clients, graphID)
}

// Subscribers returns how many websocket clients are watching graphID.
func (h *Hub) Subscribers(graphID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[graphID])
}

// Run dispatches registrations and broadcasts until ctx is cancelled. Run
// must be called at most once.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			close(h.done)
			h.mu.Lock()
			for id, set := range h.clients {
				for c := range set {
					close(c.send)
				}
				delete(h.clients, id)
			}
			h.mu.Unlock()
			return

		case c := <-h.register:
			h.mu.Lock()
			if h.clients[c.graph] == nil {
				h.clients[c.graph] = make(map[*client]bool)
			}
			h.clients[c.graph][c] = true
			if last, ok := h.last[c.graph]; ok {
				c.send <- Message{Type: messageTypeChart, Graph: c.graph, Payload: last}
			}
			h.mu.Unlock()
			log.Debugw("websocket subscriber registered", "graph", c.graph)

		case c := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[c.graph][c]; ok {
				delete(h.clients[c.graph], c)
				close(c.send)
			}
			h.mu.Unlock()

		case m := <-h.broadcast:
			h.mu.Lock()
			for c := range h.clients[m.Graph] {
				select {
				case c.send <- m:
				default:
					log.Warnw("dropping slow websocket subscriber", "graph", m.Graph)
					close(c.send)
					delete(h.clients[m.Graph], c)
				}
			}
			h.mu.Unlock()
		}
	}
}

// ServeWS upgrades the request and subscribes it to graphID. Frames are JSON
// text, or binary MessagePack when the request carries format=msgpack.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request, graphID string) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Errorf("error upgrading to websocket: %v", err)
		return
	}

	c := &client{
		hub:    h,
		conn:   conn,
		graph:  graphID,
		format: responseformat.RequestedFormat(r),
		send:   make(chan Message, sendBuffer),
	}
	select {
	case h.register <- c:
	case <-h.done:
		conn.Close()
		return
	}

	go c.writePump()
	go c.readPump()
}

// readPump only services control frames; subscribers never send data.
func (c *client) readPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		}
		c.conn.Close()
	}()

	c.conn.SetReadLimit(512)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Warnf("websocket read error: %v", err)
			}
			return
		}
	}
}

func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case m, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// The hub closed the channel
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.write(m); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *client) write(m Message) error {
	if c.format == responseformat.FormatMsgPack {
		b, err := responseformat.EncodeMsgPack(m)
		if err != nil {
			log.Errorf("error encoding chart: %v", err)
			return nil
		}
		return c.conn.WriteMessage(websocket.BinaryMessage, b)
	}
	return c.conn.WriteJSON(m)
}
