// Package monitor exposes a local diagnostics surface for one truck: a
// websocket feed of state snapshots plus JSON endpoints for the current
// state and recent telemetry history.
package monitor

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"

	"MineTruck/internal/model"
	"MineTruck/internal/state"
	"MineTruck/internal/util"
)

var upgrader = websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }}

// History supplies recent telemetry rows (implemented by the data collector).
type History interface {
	LastEntries(n int) []model.LogEntry
}

// Server is the local monitor of one truck.
type Server struct {
	addr    string
	store   *state.Store
	history History
	log     *log.Entry

	mu      sync.Mutex
	clients map[*websocket.Conn]bool

	server *http.Server
	stop   chan struct{}
	wg     sync.WaitGroup
}

// NewServer creates the monitor listening on addr.
func NewServer(truckID int, addr string, store *state.Store, history History) *Server {
	return &Server{
		addr:    addr,
		store:   store,
		history: history,
		log:     util.TaskLogger("monitor", truckID),
		clients: map[*websocket.Conn]bool{},
		stop:    make(chan struct{}),
	}
}

// Start launches the HTTP server and the broadcast loop.
func (m *Server) Start() error {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", m.handleWS)
	mux.HandleFunc("/api/state", m.handleState)
	mux.HandleFunc("/api/logs", m.handleLogs)
	m.server = &http.Server{Addr: m.addr, Handler: mux}

	m.wg.Add(2)
	go func() {
		defer m.wg.Done()
		m.log.WithField("addr", m.addr).Info("monitor listening")
		if err := m.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			m.log.WithError(err).Error("monitor server")
		}
	}()
	go m.broadcastLoop()
	return nil
}

func (m *Server) broadcastLoop() {
	defer m.wg.Done()
	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-m.stop:
			return
		case <-ticker.C:
			s := m.store.Snapshot()
			ts := float64(time.Now().UnixNano()) / 1e9
			b, err := json.Marshal(model.NewStateMessage(s, ts))
			if err != nil {
				continue
			}
			m.broadcast(b)
		}
	}
}

func (m *Server) broadcast(msg []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for c := range m.clients {
		if err := c.WriteMessage(websocket.TextMessage, msg); err != nil {
			delete(m.clients, c)
			_ = c.Close()
		}
	}
}

func (m *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	m.mu.Lock()
	m.clients[conn] = true
	m.mu.Unlock()

	go func() {
		defer func() {
			m.mu.Lock()
			delete(m.clients, conn)
			m.mu.Unlock()
			_ = conn.Close()
		}()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

func (m *Server) handleState(w http.ResponseWriter, r *http.Request) {
	s := m.store.Snapshot()
	ts := float64(time.Now().UnixNano()) / 1e9
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(model.NewStateMessage(s, ts))
}

func (m *Server) handleLogs(w http.ResponseWriter, r *http.Request) {
	var entries []model.LogEntry
	if m.history != nil {
		entries = m.history.LastEntries(50)
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(entries)
}

// Stop shuts the server down and disconnects every client.
func (m *Server) Stop() {
	select {
	case <-m.stop:
	default:
		close(m.stop)
	}
	if m.server != nil {
		_ = m.server.Close()
	}
	m.mu.Lock()
	for c := range m.clients {
		_ = c.Close()
	}
	m.clients = map[*websocket.Conn]bool{}
	m.mu.Unlock()
	m.wg.Wait()
}
