// Package ui serves the optional remote interface over websockets: it
// receives configuration messages from a viewer, queues them for the render
// loop to pick up at iteration boundaries, and streams tone-mapped preview
// frames and throughput telemetry back. Everything here is best effort; a
// slow or absent viewer never blocks rendering.
package ui

import (
	"bytes"
	"image"
	"image/png"
	"log/slog"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	xdraw "golang.org/x/image/draw"

	"github.com/mglow/go-tile-pathtracer/pkg/render"
)

// maxPreviewWidth caps outgoing frames; larger films are downscaled before
// encoding
const maxPreviewWidth = 512

// message is the client-to-server wire format
type message struct {
	Type  string  `json:"type"`
	Value float64 `json:"value,omitempty"`
	Path  string  `json:"path,omitempty"`
}

// Server implements the render loop's interface channel over a single
// websocket viewer. A new connection replaces any previous one.
type Server struct {
	log      *slog.Logger
	upgrader websocket.Upgrader

	mu      sync.Mutex
	pending render.ConfigUpdate
	conn    *websocket.Conn

	previews chan *image.RGBA
	stats    chan render.Stats
}

// NewServer builds an interface server
func NewServer(log *slog.Logger) *Server {
	s := &Server{
		log: log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1 << 16,
			// The viewer is a local tool, not a browser origin.
			CheckOrigin: func(*http.Request) bool { return true },
		},
		previews: make(chan *image.RGBA, 1),
		stats:    make(chan render.Stats, 1),
	}
	return s
}

// Handler returns the HTTP handler exposing the websocket endpoint
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWS)
	return mux
}

// ListenAndServe blocks serving the interface on addr
func (s *Server) ListenAndServe(addr string) error {
	s.log.Info("interface listening", "addr", addr)
	return http.ListenAndServe(addr, s.Handler())
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("websocket upgrade failed", "error", err)
		return
	}

	s.mu.Lock()
	if s.conn != nil {
		s.conn.Close()
	}
	s.conn = conn
	s.mu.Unlock()
	s.log.Info("viewer connected", "remote", conn.RemoteAddr().String())

	go s.writeLoop(conn)
	s.readLoop(conn)
}

// readLoop parses viewer messages into the pending update until the socket
// closes. A closed socket queues a detach so the renderer degrades to
// non-interactive instead of stalling.
func (s *Server) readLoop(conn *websocket.Conn) {
	for {
		var msg message
		if err := conn.ReadJSON(&msg); err != nil {
			s.mu.Lock()
			if s.conn == conn {
				s.conn = nil
				s.pending.Detach = true
			}
			s.mu.Unlock()
			s.log.Info("viewer disconnected", "error", err)
			return
		}
		s.queue(msg)
	}
}

func (s *Server) queue(msg message) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch msg.Type {
	case "env_rotation":
		v := msg.Value
		s.pending.EnvRotation = &v
	case "exposure":
		v := msg.Value
		s.pending.Exposure = &v
	case "gamma":
		v := msg.Value
		s.pending.Gamma = &v
	case "fov":
		v := msg.Value
		s.pending.FOV = &v
	case "interactive_samples":
		n := int(msg.Value)
		s.pending.InteractiveSamples = &n
	case "load_env":
		p := msg.Path
		s.pending.EnvMapPath = &p
	case "stop":
		s.pending.Stop = true
	case "detach":
		s.pending.Detach = true
	default:
		s.log.Warn("unknown interface message", "type", msg.Type)
	}
}

// writeLoop streams queued previews and stats to one connection until a
// write fails or the connection is replaced
func (s *Server) writeLoop(conn *websocket.Conn) {
	for {
		var err error
		select {
		case frame := <-s.previews:
			err = conn.WriteMessage(websocket.BinaryMessage, encodePreview(frame))
		case st := <-s.stats:
			err = conn.WriteJSON(struct {
				Type string `json:"type"`
				render.Stats
			}{Type: "stats", Stats: st})
		}
		if err != nil {
			s.log.Debug("interface write failed", "error", err)
			return
		}

		s.mu.Lock()
		stale := s.conn != conn
		s.mu.Unlock()
		if stale {
			return
		}
	}
}

// encodePreview downscales oversized frames and encodes them as PNG
func encodePreview(frame *image.RGBA) []byte {
	if frame.Bounds().Dx() > maxPreviewWidth {
		scale := float64(maxPreviewWidth) / float64(frame.Bounds().Dx())
		h := int(float64(frame.Bounds().Dy()) * scale)
		small := image.NewRGBA(image.Rect(0, 0, maxPreviewWidth, h))
		xdraw.ApproxBiLinear.Scale(small, small.Bounds(), frame, frame.Bounds(), xdraw.Src, nil)
		frame = small
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, frame); err != nil {
		return nil
	}
	return buf.Bytes()
}

// PendingUpdates snapshots and clears queued configuration changes
func (s *Server) PendingUpdates() render.ConfigUpdate {
	s.mu.Lock()
	defer s.mu.Unlock()
	u := s.pending
	s.pending = render.ConfigUpdate{}
	return u
}

// PublishPreview offers a frame without blocking; returns false if no viewer
// is connected or the previous frame is still queued
func (s *Server) PublishPreview(img *image.RGBA) bool {
	s.mu.Lock()
	connected := s.conn != nil
	s.mu.Unlock()
	if !connected {
		return false
	}

	select {
	case s.previews <- img:
		return true
	default:
		return false
	}
}

// PublishStats offers telemetry without blocking
func (s *Server) PublishStats(st render.Stats) {
	select {
	case s.stats <- st:
	default:
	}
}
