package ui

import (
	"bytes"
	"image"
	"image/png"
	"io"
	"log/slog"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/mglow/go-tile-pathtracer/pkg/render"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func dialTestServer(t *testing.T, s *Server) (*websocket.Conn, func()) {
	t.Helper()
	srv := httptest.NewServer(s.Handler())
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		srv.Close()
		t.Fatalf("dialing %s: %v", url, err)
	}
	return conn, func() {
		conn.Close()
		srv.Close()
	}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not reached in time")
}

func TestQueueAndSnapshotUpdates(t *testing.T) {
	s := NewServer(testLogger())
	conn, cleanup := dialTestServer(t, s)
	defer cleanup()

	msgs := []message{
		{Type: "exposure", Value: 1.5},
		{Type: "env_rotation", Value: 45},
		{Type: "load_env", Path: "sky.png"},
		{Type: "interactive_samples", Value: 2},
	}
	for _, m := range msgs {
		if err := conn.WriteJSON(m); err != nil {
			t.Fatal(err)
		}
	}

	waitFor(t, func() bool {
		s.mu.Lock()
		defer s.mu.Unlock()
		return s.pending.InteractiveSamples != nil
	})

	u := s.PendingUpdates()
	if u.Exposure == nil || *u.Exposure != 1.5 {
		t.Errorf("exposure: got %v", u.Exposure)
	}
	if u.EnvRotation == nil || *u.EnvRotation != 45 {
		t.Errorf("env rotation: got %v", u.EnvRotation)
	}
	if u.EnvMapPath == nil || *u.EnvMapPath != "sky.png" {
		t.Errorf("env map path: got %v", u.EnvMapPath)
	}
	if u.InteractiveSamples == nil || *u.InteractiveSamples != 2 {
		t.Errorf("interactive samples: got %v", u.InteractiveSamples)
	}

	// The snapshot cleared the queue.
	if !s.PendingUpdates().Empty() {
		t.Error("second snapshot should be empty")
	}
}

func TestStopMessage(t *testing.T) {
	s := NewServer(testLogger())
	conn, cleanup := dialTestServer(t, s)
	defer cleanup()

	if err := conn.WriteJSON(message{Type: "stop"}); err != nil {
		t.Fatal(err)
	}
	waitFor(t, func() bool {
		s.mu.Lock()
		defer s.mu.Unlock()
		return s.pending.Stop
	})
}

func TestDisconnectQueuesDetach(t *testing.T) {
	s := NewServer(testLogger())
	conn, cleanup := dialTestServer(t, s)
	defer cleanup()

	conn.Close()
	waitFor(t, func() bool {
		s.mu.Lock()
		defer s.mu.Unlock()
		return s.pending.Detach
	})
}

func TestPublishPreviewDelivery(t *testing.T) {
	s := NewServer(testLogger())
	conn, cleanup := dialTestServer(t, s)
	defer cleanup()

	waitFor(t, func() bool {
		s.mu.Lock()
		defer s.mu.Unlock()
		return s.conn != nil
	})

	frame := image.NewRGBA(image.Rect(0, 0, 8, 8))
	if !s.PublishPreview(frame) {
		t.Fatal("publish with a connected viewer should succeed")
	}

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	kind, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("reading preview: %v", err)
	}
	if kind != websocket.BinaryMessage {
		t.Fatalf("message kind: got %d, want binary", kind)
	}
	decoded, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("preview is not a PNG: %v", err)
	}
	if decoded.Bounds().Dx() != 8 {
		t.Errorf("preview width: got %d, want 8", decoded.Bounds().Dx())
	}
}

func TestPublishPreviewWithoutViewer(t *testing.T) {
	s := NewServer(testLogger())
	if s.PublishPreview(image.NewRGBA(image.Rect(0, 0, 4, 4))) {
		t.Error("publish without a viewer should report a drop")
	}
	// Stats are fire-and-forget even with nobody listening.
	s.PublishStats(render.Stats{Iteration: 1})
	s.PublishStats(render.Stats{Iteration: 2})
}

func TestEncodePreviewDownscales(t *testing.T) {
	frame := image.NewRGBA(image.Rect(0, 0, maxPreviewWidth*2, 100))
	data := encodePreview(frame)
	decoded, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatal(err)
	}
	if decoded.Bounds().Dx() != maxPreviewWidth {
		t.Errorf("downscaled width: got %d, want %d", decoded.Bounds().Dx(), maxPreviewWidth)
	}
	if decoded.Bounds().Dy() != 50 {
		t.Errorf("downscaled height: got %d, want 50", decoded.Bounds().Dy())
	}
}
