// Package progress broadcasts generation events to websocket subscribers.
package progress

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"worldgen/internal/core"
	"worldgen/internal/world"
)

const (
	backlogSize = 64
	outboxSize  = 256
	writeWait   = 5 * time.Second
	readWait    = 60 * time.Second
	pingPeriod  = readWait * 9 / 10
)

// Message is the JSON form of one progress update.
type Message struct {
	Type      string        `json:"type"`
	Time      time.Time     `json:"time"`
	Severity  core.Severity `json:"severity"`
	Stage     string        `json:"stage,omitempty"`
	Message   string        `json:"message,omitempty"`
	Error     string        `json:"error,omitempty"`
	Iteration int           `json:"iteration,omitempty"`
	Airborne  float64       `json:"airborne,omitempty"`
}

// Hub fans messages out to every connected client. Slow clients drop
// messages rather than stall generation. New clients first receive the most
// recent messages.
type Hub struct {
	log      *log.Logger
	upgrader websocket.Upgrader

	// A client that answers no ping within readWait is dropped.
	readWait, pingPeriod time.Duration

	mu      sync.Mutex
	clients map[chan []byte]struct{}
	backlog [][]byte
	closed  bool
}

func NewHub(logger *log.Logger) *Hub {
	return &Hub{
		log: logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4 * 1024,
			WriteBufferSize: 64 * 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		readWait:   readWait,
		pingPeriod: pingPeriod,
		clients:    make(map[chan []byte]struct{}),
	}
}

// Sink adapts the hub to a generation event sink.
func (h *Hub) Sink() core.Sink {
	return func(e core.Event) {
		m := Message{Type: "event", Time: e.Time, Severity: e.Severity, Stage: e.Stage, Message: e.Message}
		if e.Err != nil {
			m.Error = e.Err.Error()
		}
		h.Publish(m)
	}
}

// Trace matches world.State.Trace and publishes advection progress.
func (h *Hub) Trace(stage world.Stage, iteration int, airborne float64) {
	h.Publish(Message{
		Type:      "advect",
		Time:      time.Now(),
		Stage:     stage.String(),
		Iteration: iteration,
		Airborne:  airborne,
	})
}

// Publish encodes m and queues it for every client.
func (h *Hub) Publish(m Message) {
	b, err := json.Marshal(m)
	if err != nil {
		h.logf("progress: encode: %v", err)
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.backlog = append(h.backlog, b)
	if len(h.backlog) > backlogSize {
		h.backlog = h.backlog[len(h.backlog)-backlogSize:]
	}
	for out := range h.clients {
		select {
		case out <- b:
		default:
		}
	}
}

// Clients reports the number of connected subscribers.
func (h *Hub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Close disconnects every client and stops accepting new ones.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	for out := range h.clients {
		close(out)
		delete(h.clients, out)
	}
}

func (h *Hub) join() (chan []byte, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return nil, false
	}
	out := make(chan []byte, outboxSize+backlogSize)
	for _, b := range h.backlog {
		out <- b
	}
	h.clients[out] = struct{}{}
	return out, true
}

func (h *Hub) leave(out chan []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[out]; ok {
		delete(h.clients, out)
		close(out)
	}
}

// Handler upgrades the request and streams messages until the client leaves.
func (h *Hub) Handler() http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		conn, err := h.upgrader.Upgrade(rw, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		out, ok := h.join()
		if !ok {
			_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseGoingAway, "closed"), time.Now().Add(time.Second))
			return
		}
		h.logf("progress: client %s joined", r.RemoteAddr)

		done := make(chan struct{})
		go func() {
			defer close(done)
			ticker := time.NewTicker(h.pingPeriod)
			defer ticker.Stop()
			for {
				select {
				case b, ok := <-out:
					if !ok {
						_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, "bye"), time.Now().Add(time.Second))
						return
					}
					_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
					if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
						return
					}
				case <-ticker.C:
					if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
						return
					}
				}
			}
		}()

		// Clients only listen; reading detects disconnects and pongs keep
		// the deadline moving.
		_ = conn.SetReadDeadline(time.Now().Add(h.readWait))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(h.readWait))
		})
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				break
			}
			_ = conn.SetReadDeadline(time.Now().Add(h.readWait))
		}
		h.leave(out)
		select {
		case <-done:
		case <-time.After(500 * time.Millisecond):
		}
		h.logf("progress: client %s left", r.RemoteAddr)
	}
}

func (h *Hub) logf(format string, args ...any) {
	if h.log != nil {
		h.log.Printf(format, args...)
	}
}
