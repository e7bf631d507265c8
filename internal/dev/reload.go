package dev

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/vango-dev/jsonpage/internal/metrics"
)

// ReloadPath is where the browser client opens its WebSocket.
const ReloadPath = "/__jsonpage/reload"

// ReloadMessageType represents the type of reload message.
type ReloadMessageType string

const (
	ReloadTypeFull  ReloadMessageType = "reload"
	ReloadTypeError ReloadMessageType = "error"
	ReloadTypeClear ReloadMessageType = "clear"
)

// ReloadMessage is sent to browsers via WebSocket.
type ReloadMessage struct {
	Type  ReloadMessageType `json:"type"`
	Error string            `json:"error,omitempty"`
	File  string            `json:"file,omitempty"`
}

// ReloadServer manages WebSocket connections for hot reload.
type ReloadServer struct {
	clients  map[*websocket.Conn]bool
	mu       sync.RWMutex
	upgrader websocket.Upgrader
	logger   *slog.Logger
	metrics  *metrics.Metrics
}

// NewReloadServer creates a new reload server. m may be nil.
func NewReloadServer(logger *slog.Logger, m *metrics.Metrics) *ReloadServer {
	if logger == nil {
		logger = slog.Default()
	}
	return &ReloadServer{
		clients: make(map[*websocket.Conn]bool),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true // preview only
			},
		},
		logger:  logger,
		metrics: m,
	}
}

// ServeHTTP upgrades the request and holds the connection until the
// client goes away.
func (r *ReloadServer) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	conn, err := r.upgrader.Upgrade(w, req, nil)
	if err != nil {
		r.logger.Debug("reload upgrade failed", "error", err)
		return
	}

	r.mu.Lock()
	r.clients[conn] = true
	count := len(r.clients)
	r.mu.Unlock()
	r.metrics.SetReloadClients(count)

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
	r.remove(conn)
}

func (r *ReloadServer) remove(conn *websocket.Conn) {
	r.mu.Lock()
	delete(r.clients, conn)
	count := len(r.clients)
	r.mu.Unlock()
	conn.Close()
	r.metrics.SetReloadClients(count)
}

// NotifyReload tells every client to reload; file is the change that
// triggered it.
func (r *ReloadServer) NotifyReload(file string) {
	r.metrics.RecordReload()
	r.broadcast(ReloadMessage{Type: ReloadTypeFull, File: file})
}

// NotifyError shows an error overlay on every client.
func (r *ReloadServer) NotifyError(file, errMsg string) {
	r.broadcast(ReloadMessage{Type: ReloadTypeError, File: file, Error: errMsg})
}

// ClearError removes the error overlay on every client.
func (r *ReloadServer) ClearError() {
	r.broadcast(ReloadMessage{Type: ReloadTypeClear})
}

func (r *ReloadServer) broadcast(msg ReloadMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		return
	}

	r.mu.RLock()
	clients := make([]*websocket.Conn, 0, len(r.clients))
	for client := range r.clients {
		clients = append(clients, client)
	}
	r.mu.RUnlock()

	for _, client := range clients {
		if err := client.WriteMessage(websocket.TextMessage, data); err != nil {
			r.remove(client)
		}
	}
}

// ClientCount returns the number of connected clients.
func (r *ReloadServer) ClientCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.clients)
}

// Close closes all client connections.
func (r *ReloadServer) Close() {
	r.mu.Lock()
	for client := range r.clients {
		client.Close()
		delete(r.clients, client)
	}
	r.mu.Unlock()
	r.metrics.SetReloadClients(0)
}

// InjectScript inserts DevClientScript before </body>, or before </html>,
// or at the end of the page.
func InjectScript(html string) string {
	for _, marker := range []string{"</body>", "</html>"} {
		if idx := strings.LastIndex(html, marker); idx != -1 {
			return html[:idx] + DevClientScript + html[idx:]
		}
	}
	return html + DevClientScript
}

// DevClientScript is the hot reload client added to served pages.
const DevClientScript = `<script>
(function() {
    'use strict';

    var delay = 1000;

    function connect() {
        var protocol = location.protocol === 'https:' ? 'wss:' : 'ws:';
        var ws = new WebSocket(protocol + '//' + location.host + '` + ReloadPath + `');

        ws.onopen = function() {
            delay = 1000;
        };

        ws.onmessage = function(e) {
            var msg;
            try {
                msg = JSON.parse(e.data);
            } catch (err) {
                return;
            }
            switch (msg.type) {
                case 'reload':
                    location.reload();
                    break;
                case 'error':
                    showError(msg.file, msg.error);
                    break;
                case 'clear':
                    clearError();
                    break;
            }
        };

        ws.onclose = function() {
            setTimeout(function() {
                delay = Math.min(delay * 2, 30000);
                connect();
            }, delay);
        };
    }

    function showError(file, error) {
        clearError();
        var overlay = document.createElement('div');
        overlay.id = 'jsonpage-error-overlay';
        overlay.style.cssText = 'position:fixed;inset:0;background:rgba(0,0,0,0.9);color:#fff;font:14px monospace;padding:20px;overflow:auto;z-index:999999;';
        var title = document.createElement('h2');
        title.style.cssText = 'color:#ff5555;margin:0 0 20px;';
        title.textContent = file ? 'Render error in ' + file : 'Render error';
        var pre = document.createElement('pre');
        pre.style.cssText = 'white-space:pre-wrap;';
        pre.textContent = error;
        overlay.appendChild(title);
        overlay.appendChild(pre);
        document.body.appendChild(overlay);
    }

    function clearError() {
        var overlay = document.getElementById('jsonpage-error-overlay');
        if (overlay) {
            overlay.remove();
        }
    }

    connect();
})();
</script>`
