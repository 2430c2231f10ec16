// Package live streams the in-progress acquisition to WebSocket
// clients for plotting.
package live

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/itohio/gopstat/pkg/log"
	"github.com/itohio/gopstat/pkg/session"
)

// defaultPollHz is the broadcast rate when the caller does not set one.
const defaultPollHz = 10

// Point is one sample of the streamed curve.
type Point struct {
	T float64 `json:"t"`
	V float64 `json:"v"`
	I float64 `json:"i"`
}

// Frame is the JSON structure sent to all WebSocket clients.
type Frame struct {
	State  string  `json:"state"`
	Kind   string  `json:"kind"`
	Cycle  int     `json:"cycle"`
	Points []Point `json:"points"`
	Stamp  int64   `json:"stamp"` // Unix ms
}

// Server polls the session snapshot and broadcasts frames to connected
// WebSocket clients.
type Server struct {
	addr     string
	pollHz   int
	snapshot func() session.Snapshot

	clients   map[*wsClient]struct{}
	clientsMu sync.RWMutex

	upgrader websocket.Upgrader
}

type wsClient struct {
	conn *websocket.Conn
	send chan []byte
}

// New creates a live server polling snapshot at pollHz. pollHz <= 0
// selects the default rate.
func New(addr string, pollHz int, snapshot func() session.Snapshot) *Server {
	if pollHz <= 0 {
		pollHz = defaultPollHz
	}
	return &Server{
		addr:     addr,
		pollHz:   pollHz,
		snapshot: snapshot,
		clients:  make(map[*wsClient]struct{}),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// Handler returns the HTTP handler serving the /ws endpoint.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWS)
	return mux
}

// Run serves WebSocket clients and broadcasts snapshot frames until the
// context is cancelled.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:    s.addr,
		Handler: s.Handler(),
	}

	go s.broadcastLoop(ctx)

	go func() {
		<-ctx.Done()
		shutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutCtx)
	}()

	log.Infof("live server listening on %s", s.addr)
	err := srv.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warnf("ws upgrade error: %v", err)
		return
	}

	client := &wsClient{
		conn: conn,
		send: make(chan []byte, 64),
	}

	s.clientsMu.Lock()
	s.clients[client] = struct{}{}
	n := len(s.clients)
	s.clientsMu.Unlock()
	log.Debugf("ws client connected (%d total)", n)

	// Send the current state immediately so a client joining mid-scan
	// does not wait for the next tick.
	if data, err := json.Marshal(s.frame()); err == nil {
		client.send <- data
	}

	// Writer goroutine
	go func() {
		defer conn.Close()
		for msg := range client.send {
			if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				break
			}
		}
	}()

	// Reader goroutine, drained for keep-alive only
	go func() {
		defer func() {
			s.clientsMu.Lock()
			delete(s.clients, client)
			n := len(s.clients)
			s.clientsMu.Unlock()
			close(client.send)
			log.Debugf("ws client disconnected (%d total)", n)
		}()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				break
			}
		}
	}()
}

func (s *Server) broadcastLoop(ctx context.Context) {
	ticker := time.NewTicker(time.Second / time.Duration(s.pollHz))
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.broadcast(s.frame())
		}
	}
}

func (s *Server) frame() Frame {
	snap := s.snapshot()
	points := make([]Point, len(snap.Samples))
	for i, sm := range snap.Samples {
		points[i] = Point{T: sm.Time, V: sm.Potential, I: sm.Current}
	}
	return Frame{
		State:  snap.State.String(),
		Kind:   snap.Kind.String(),
		Cycle:  snap.Cycle,
		Points: points,
		Stamp:  time.Now().UnixMilli(),
	}
}

func (s *Server) broadcast(frame Frame) {
	data, err := json.Marshal(frame)
	if err != nil {
		return
	}

	s.clientsMu.RLock()
	defer s.clientsMu.RUnlock()

	for client := range s.clients {
		select {
		case client.send <- data:
		default:
			// Client too slow, skip
		}
	}
}
