package handsource

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/verte-zerg/flicktype/internal/hand"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // trackers connect from localhost tooling
	},
}

// WSSource receives landmark messages from external trackers over
// WebSocket. Only the latest frame is kept; slow consumers skip frames.
type WSSource struct {
	cfg    hand.LandmarkConfig
	logger *zap.Logger
	frames chan hand.Snapshot

	mu      sync.Mutex
	conns   map[*websocket.Conn]struct{}
	server  *http.Server
	closed  bool
	dropped int
}

// NewWSSource creates a source. Mount it with ServeHTTP or call Listen.
func NewWSSource(cfg hand.LandmarkConfig, logger *zap.Logger) *WSSource {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WSSource{
		cfg:    cfg,
		logger: logger,
		frames: make(chan hand.Snapshot, 1),
		conns:  map[*websocket.Conn]struct{}{},
	}
}

// Listen serves the tracker endpoint at addr under /landmarks and returns
// the bound address.
func (s *WSSource) Listen(addr string) (string, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return "", fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	mux := http.NewServeMux()
	mux.Handle("/landmarks", s)
	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	s.mu.Lock()
	s.server = srv
	s.mu.Unlock()
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("tracker endpoint stopped", zap.Error(err))
		}
	}()
	return ln.Addr().String(), nil
}

// ServeHTTP upgrades a tracker connection and reads its messages.
func (s *WSSource) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.conns[conn] = struct{}{}
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		delete(s.conns, conn)
		s.mu.Unlock()
	}()

	s.logger.Info("tracker connected", zap.String("remote", r.RemoteAddr))
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.logger.Debug("tracker read ended", zap.Error(err))
			}
			return
		}
		snap, err := decodeLandmarks(data, s.cfg, time.Now)
		if err != nil {
			s.logger.Warn("bad tracker message", zap.Error(err))
			continue
		}
		s.push(snap)
	}
}

// push stores snap, replacing an unread frame.
func (s *WSSource) push(snap hand.Snapshot) {
	for {
		select {
		case s.frames <- snap:
			return
		default:
		}
		select {
		case <-s.frames:
			s.mu.Lock()
			s.dropped++
			s.mu.Unlock()
		default:
		}
	}
}

// Dropped returns how many frames were replaced before being read.
func (s *WSSource) Dropped() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dropped
}

// Sample implements hand.Source.
func (s *WSSource) Sample(ctx context.Context) (hand.Snapshot, error) {
	select {
	case <-ctx.Done():
		return hand.Snapshot{}, ctx.Err()
	case snap := <-s.frames:
		return snap, nil
	}
}

// Close stops the endpoint and drops tracker connections.
func (s *WSSource) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	srv := s.server
	for c := range s.conns {
		c.Close()
	}
	s.mu.Unlock()
	if srv == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	return srv.Shutdown(ctx)
}
