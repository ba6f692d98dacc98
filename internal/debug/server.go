// Package debug exposes streamer statistics over HTTP and WebSocket.
package debug

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/MasterKyle08/CodexCraft/internal/streamer"
)

const writeTimeout = 5 * time.Second

// StatsSource is the read side of the streamer.
type StatsSource interface {
	Stats() streamer.Stats
}

// Snapshot is the payload served on /stats and pushed on /stats/stream.
type Snapshot struct {
	Time  time.Time      `json:"time"`
	Stats streamer.Stats `json:"stats"`
}

type Server struct {
	addr     string
	source   StatsSource
	interval time.Duration
	logger   *log.Logger
	upgrader websocket.Upgrader
}

// New returns a server for addr. A non-positive interval pushes once a
// second.
func New(addr string, source StatsSource, interval time.Duration) *Server {
	if interval <= 0 {
		interval = time.Second
	}
	return &Server{
		addr:     addr,
		source:   source,
		interval: interval,
		logger:   log.New(log.Writer(), "debug ", log.LstdFlags|log.Lmicroseconds),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

// Handler returns the route mux.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", s.handleHealth)
	mux.HandleFunc("/stats", s.handleStats)
	mux.HandleFunc("/stats/stream", s.handleStream)
	return mux
}

// Run serves until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	httpSrv := &http.Server{
		Addr:              s.addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Printf("HTTP server listening on %s", s.addr)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = httpSrv.Shutdown(shutdownCtx)
		return nil
	case err := <-errCh:
		return err
	}
}

func (s *Server) snapshot() Snapshot {
	return Snapshot{Time: time.Now().UTC(), Stats: s.source.Stats()}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, s.snapshot())
}

func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Printf("stream upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	// The client never sends data; reading surfaces its close frame.
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		b, err := json.Marshal(s.snapshot())
		if err != nil {
			s.logger.Printf("encode snapshot: %v", err)
			return
		}
		_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
		if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
			return
		}
		select {
		case <-closed:
			return
		case <-r.Context().Done():
			_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseGoingAway, "shutting down"), time.Now().Add(time.Second))
			return
		case <-ticker.C:
		}
	}
}

func writeJSON(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(data); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
