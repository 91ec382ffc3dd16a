// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package mapview

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/wneessen/geomarker/internal/logger"
)

const (
	pingInterval   = 30 * time.Second
	pongWait       = 60 * time.Second
	writeWait      = 10 * time.Second
	sendBufferSize = 16
	shutdownWait   = 5 * time.Second

	GeoJSONContentType = "application/geo+json"
)

// Hub renders views to all connected websocket clients and forwards their events to the
// event handler. New clients receive the latest view right after connecting.
type Hub struct {
	logger   *logger.Logger
	upgrader websocket.Upgrader
	origins  map[string]struct{}

	register   chan *client
	unregister chan *client
	broadcast  chan []byte
	done       chan struct{}
	stopOnce   sync.Once

	mu      sync.RWMutex
	clients map[*client]struct{}
	latest  []byte
	handler EventHandler
}

type client struct {
	id   string
	hub  *Hub
	conn *websocket.Conn
	send chan []byte
}

// NewHub returns a Hub. Websocket connections are accepted without an Origin header, from the
// server's own host and from allowedOrigins (scheme and host, like "http://localhost:3000").
// Gin runs in release mode unless log has debug logging enabled.
func NewHub(log *logger.Logger, allowedOrigins ...string) *Hub {
	if !log.Debugging() {
		gin.SetMode(gin.ReleaseMode)
	}
	hub := &Hub{
		logger:     log,
		origins:    make(map[string]struct{}, len(allowedOrigins)),
		register:   make(chan *client),
		unregister: make(chan *client),
		broadcast:  make(chan []byte, sendBufferSize),
		done:       make(chan struct{}),
		clients:    make(map[*client]struct{}),
	}
	for _, origin := range allowedOrigins {
		hub.origins[strings.ToLower(strings.TrimRight(origin, "/"))] = struct{}{}
	}
	hub.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 4096,
		CheckOrigin:     hub.checkOrigin,
	}
	return hub
}

// checkOrigin rejects cross-site websocket requests. Browsers opening a local file send
// no origin.
func (h *Hub) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	u, err := url.Parse(origin)
	if err != nil || u.Host == "" {
		h.logger.Debug("rejecting websocket request with malformed origin", slog.String("origin", origin))
		return false
	}
	if strings.EqualFold(u.Host, r.Host) {
		return true
	}
	if _, ok := h.origins[strings.ToLower(u.Scheme+"://"+u.Host)]; ok {
		return true
	}
	h.logger.Debug("rejecting websocket request from foreign origin", slog.String("origin", origin))
	return false
}

// SetEventHandler sets the receiver of client events. Events are dropped while it is nil.
func (h *Hub) SetEventHandler(handler EventHandler) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.handler = handler
}

// Run manages the connected clients until ctx is cancelled.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.stopOnce.Do(func() { close(h.done) })
			h.mu.Lock()
			for c := range h.clients {
				delete(h.clients, c)
				close(c.send)
			}
			h.mu.Unlock()
			h.logger.Debug("websocket hub stopped")
			return
		case c := <-h.register:
			h.mu.Lock()
			h.clients[c] = struct{}{}
			if h.latest != nil {
				c.send <- h.latest
			}
			h.mu.Unlock()
			h.logger.Debug("websocket client connected", slog.String("client_id", c.id))
		case c := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[c]; ok {
				delete(h.clients, c)
				close(c.send)
			}
			h.mu.Unlock()
			h.logger.Debug("websocket client disconnected", slog.String("client_id", c.id))
		case message := <-h.broadcast:
			h.mu.Lock()
			for c := range h.clients {
				select {
				case c.send <- message:
				default:
					h.logger.Debug("websocket client too slow, disconnecting", slog.String("client_id", c.id))
					delete(h.clients, c)
					close(c.send)
				}
			}
			h.mu.Unlock()
		}
	}
}

// Render stores the view as the latest snapshot and sends it to all clients.
func (h *Hub) Render(ctx context.Context, v View) error {
	data, err := Encode(v)
	if err != nil {
		return err
	}
	h.mu.Lock()
	h.latest = data
	h.mu.Unlock()

	select {
	case h.broadcast <- data:
	case <-ctx.Done():
		return ctx.Err()
	default:
		h.logger.Debug("websocket broadcast queue full, dropping view")
	}
	return nil
}

// Latest returns the latest rendered snapshot or nil before the first render.
func (h *Hub) Latest() []byte {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.latest
}

// Clients returns the number of connected clients.
func (h *Hub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// ServeWS upgrades the request to a websocket connection and registers the client.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error("failed to upgrade websocket connection", logger.Err(err))
		return
	}
	c := &client{
		id:   uuid.NewString(),
		hub:  h,
		conn: conn,
		send: make(chan []byte, sendBufferSize),
	}

	select {
	case h.register <- c:
	case <-h.done:
		_ = conn.Close()
		return
	case <-r.Context().Done():
		_ = conn.Close()
		return
	}
	go c.writePump()
	go c.readPump()
}

// Router returns the HTTP routes of the hub: GET /ws for the websocket and GET /markers for
// the latest snapshot.
func (h *Hub) Router() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.GET("/ws", func(c *gin.Context) {
		h.ServeWS(c.Writer, c.Request)
	})
	router.GET("/markers", func(c *gin.Context) {
		data := h.Latest()
		if data == nil {
			c.Status(http.StatusNoContent)
			return
		}
		c.Data(http.StatusOK, GeoJSONContentType, data)
	})
	return router
}

// ListenAndServe serves the router on addr until ctx is cancelled.
func (h *Hub) ListenAndServe(ctx context.Context, addr string) error {
	server := &http.Server{
		Addr:              addr,
		Handler:           h.Router(),
		ReadHeaderTimeout: writeWait,
	}
	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()
	h.logger.Info("map server listening", slog.String("address", addr))

	select {
	case err := <-errCh:
		return fmt.Errorf("map server failed: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownWait)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("failed to shut down map server: %w", err)
		}
		return nil
	}
}

func (c *client) readPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		}
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(maxEventSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.hub.logger.Debug("websocket read failed", slog.String("client_id", c.id), logger.Err(err))
			}
			return
		}
		event, err := DecodeEvent(message)
		if err != nil {
			c.hub.logger.Debug("ignoring map event", slog.String("client_id", c.id), logger.Err(err))
			continue
		}

		c.hub.mu.RLock()
		handler := c.hub.handler
		c.hub.mu.RUnlock()
		if handler != nil {
			event.Dispatch(handler)
		}
	}
}

func (c *client) writePump() {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
