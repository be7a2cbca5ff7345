package server

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/coder/websocket"

	"github.com/webpress/webpress/internal/logging"
)

// reloadHub tracks connected live-reload clients and pushes a "reload"
// message when the watcher reports changed files.
type reloadHub struct {
	logger  logging.Logger
	mutex   sync.Mutex
	clients map[*websocket.Conn]struct{}
}

func newReloadHub(logger logging.Logger) *reloadHub {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &reloadHub{
		logger:  logger.WithComponent("livereload"),
		clients: make(map[*websocket.Conn]struct{}),
	}
}

func (h *reloadHub) handle(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		h.logger.Warn(r.Context(), err, "websocket accept failed")
		return
	}

	h.mutex.Lock()
	h.clients[conn] = struct{}{}
	h.mutex.Unlock()
	h.logger.Debug(r.Context(), "live-reload client connected")

	defer func() {
		h.mutex.Lock()
		delete(h.clients, conn)
		h.mutex.Unlock()
		conn.Close(websocket.StatusNormalClosure, "")
	}()

	// Drain client frames until the connection drops; the hub only writes.
	for {
		if _, _, err := conn.Read(r.Context()); err != nil {
			return
		}
	}
}

// broadcast pushes a reload message to every connected client. Clients that
// fail to accept the write are dropped.
func (h *reloadHub) broadcast(paths []string) {
	h.mutex.Lock()
	conns := make([]*websocket.Conn, 0, len(h.clients))
	for conn := range h.clients {
		conns = append(conns, conn)
	}
	h.mutex.Unlock()

	if len(conns) == 0 {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	for _, conn := range conns {
		if err := conn.Write(ctx, websocket.MessageText, []byte("reload")); err != nil {
			h.mutex.Lock()
			delete(h.clients, conn)
			h.mutex.Unlock()
			conn.Close(websocket.StatusNormalClosure, "")
		}
	}
	h.logger.Debug(ctx, "reload broadcast", "clients", len(conns), "changed", len(paths))
}
