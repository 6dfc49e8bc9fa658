// Package spectate streams live frames of a running game to websocket
// clients, and provides the matching client.
package spectate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/brensch/termsnake/engine"
	"github.com/brensch/termsnake/render"
)

const (
	inboxSize      = 16
	clientSendSize = 8
	writeWait      = 5 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = pongWait * 9 / 10

	// ShutdownTimeout bounds how long Serve spends saying goodbye to
	// spectators once its context ends.
	ShutdownTimeout = 2 * time.Second
)

// FrameMessage is the JSON document sent for every frame.
type FrameMessage struct {
	Session string `json:"session"`
	Turn    int    `json:"turn"`
	Score   int    `json:"score"`
	// Text is the plain text rendering, ready to print.
	Text    string `json:"text"`
	Over    bool   `json:"over"`
	Message string `json:"message,omitempty"`
}

func NewFrameMessage(session string, turn int, f render.Frame) FrameMessage {
	return FrameMessage{
		Session: session,
		Turn:    turn,
		Score:   f.Score,
		Text:    render.Text(f),
		Over:    f.Over(),
		Message: f.Message,
	}
}

type client struct {
	conn *websocket.Conn
	send chan []byte
	addr string
}

// Hub fans frames out to every connected spectator. It is an engine.Observer;
// OnTick never blocks, and a spectator that cannot keep up is disconnected.
type Hub struct {
	logger   *slog.Logger
	upgrader websocket.Upgrader

	inbox      chan FrameMessage
	register   chan *client
	unregister chan *client
	stopped    chan struct{}
	finished   chan struct{}
	writers    sync.WaitGroup

	// Owned by Run.
	clients map[*client]struct{}
	last    []byte

	count   atomic.Int64
	dropped atomic.Int64
}

func NewHub(logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Hub{
		logger: logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			// Spectating is read only.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		inbox:      make(chan FrameMessage, inboxSize),
		register:   make(chan *client),
		unregister: make(chan *client),
		stopped:    make(chan struct{}),
		finished:   make(chan struct{}),
		clients:    make(map[*client]struct{}),
	}
}

func (h *Hub) OnTick(ev engine.TickEvent) {
	h.Publish(NewFrameMessage(ev.Session, ev.Turn, ev.Frame))
}

// Publish queues msg for broadcast. It drops the frame if the hub is behind.
func (h *Hub) Publish(msg FrameMessage) {
	select {
	case h.inbox <- msg:
	default:
		h.dropped.Add(1)
	}
}

// Clients reports how many spectators are connected.
func (h *Hub) Clients() int { return int(h.count.Load()) }

// Dropped reports how many frames Publish discarded.
func (h *Hub) Dropped() int { return int(h.dropped.Load()) }

// Done is closed after Run has returned and every spectator has been sent
// its close frame.
func (h *Hub) Done() <-chan struct{} { return h.finished }

// Run owns the client set until ctx is done, then disconnects everyone.
// A hub runs once.
func (h *Hub) Run(ctx context.Context) {
	defer func() {
		close(h.stopped)
		go func() {
			h.writers.Wait()
			close(h.finished)
		}()
	}()
	for {
		select {
		case <-ctx.Done():
			for c := range h.clients {
				h.remove(c)
			}
			return
		case c := <-h.register:
			// ServeWS starts the client's writePump once registration succeeds.
			h.writers.Add(1)
			h.clients[c] = struct{}{}
			h.count.Store(int64(len(h.clients)))
			h.logger.Info("spectator joined", "addr", c.addr, "clients", len(h.clients))
			// Late joiners start from the latest frame.
			if h.last != nil {
				c.send <- h.last
			}
		case c := <-h.unregister:
			if _, ok := h.clients[c]; ok {
				h.remove(c)
				h.logger.Info("spectator left", "addr", c.addr, "clients", len(h.clients))
			}
		case msg := <-h.inbox:
			data, err := json.Marshal(msg)
			if err != nil {
				h.logger.Error("encode frame", "err", err)
				continue
			}
			h.broadcast(data)
		}
	}
}

func (h *Hub) broadcast(data []byte) {
	h.last = data
	for c := range h.clients {
		select {
		case c.send <- data:
		default:
			h.logger.Warn("spectator too slow, disconnecting", "addr", c.addr)
			h.remove(c)
		}
	}
}

func (h *Hub) remove(c *client) {
	delete(h.clients, c)
	close(c.send)
	h.count.Store(int64(len(h.clients)))
}

// ServeWS upgrades the request and attaches the connection to the hub.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", "addr", r.RemoteAddr, "err", err)
		return
	}
	c := &client{conn: conn, send: make(chan []byte, clientSendSize), addr: r.RemoteAddr}

	select {
	case h.register <- c:
	case <-r.Context().Done():
		conn.Close()
		return
	case <-h.stopped:
		conn.Close()
		return
	}

	go h.writePump(c)
	h.readPump(c)
}

// readPump discards anything the spectator sends and notices when it goes
// away.
func (h *Hub) readPump(c *client) {
	defer func() {
		select {
		case h.unregister <- c:
		case <-h.stopped:
		}
	}()
	c.conn.SetReadLimit(512)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *Hub) writePump(c *client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
		h.writers.Done()
	}()
	for {
		select {
		case data, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, "game over"))
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
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

// Routes adds more handlers next to the feed.
type Routes interface {
	RegisterRoutes(mux *http.ServeMux)
}

// Handler routes /ws to the hub, answers /healthz and mounts extra.
func (h *Hub) Handler(extra ...Routes) http.Handler {
	mux := http.NewServeMux()
	for _, r := range extra {
		r.RegisterRoutes(mux)
	}
	mux.HandleFunc("/ws", h.ServeWS)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"status":  "ok",
			"clients": h.Clients(),
		})
	})
	return mux
}

// Serve binds addr, then runs the hub and an HTTP server until ctx is done.
// Once ctx ends, spectators get their close frames before the server shuts
// down. The returned channel yields the server's exit error once, after that
// shutdown, so callers can wait on it before the process exits.
func Serve(ctx context.Context, addr string, h *Hub, extra ...Routes) (net.Addr, <-chan error, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, nil, fmt.Errorf("listen %s: %w", addr, err)
	}

	srv := &http.Server{
		Handler:           h.Handler(extra...),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go h.Run(ctx)

	served := make(chan error, 1)
	go func() {
		err := srv.Serve(ln)
		if errors.Is(err, http.ErrServerClosed) {
			err = nil
		}
		served <- err
	}()

	errs := make(chan error, 1)
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
		defer cancel()
		select {
		case <-h.Done():
		case <-shutdownCtx.Done():
			h.logger.Warn("spectators still connected at shutdown", "clients", h.Clients())
		}
		if err := srv.Shutdown(shutdownCtx); err != nil {
			h.logger.Warn("spectator server shutdown", "err", err)
		}
		errs <- <-served
	}()

	h.logger.Info("spectator feed listening", "addr", ln.Addr().String())
	return ln.Addr(), errs, nil
}
