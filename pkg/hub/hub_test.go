package hub

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	gws "github.com/gorilla/websocket"
)

func startHub(t *testing.T, addr string, greeting ...Message) (*Hub, context.CancelFunc) {
	t.Helper()

	h := New("test")
	ctx, cancel := context.WithCancel(context.Background())
	go h.Run(ctx)

	app := fiber.New(fiber.Config{DisableStartupMessage: true})
	app.Get("/ws", websocket.New(func(c *websocket.Conn) {
		h.Serve(c, greeting...)
	}))

	go app.Listen(addr)
	time.Sleep(100 * time.Millisecond)

	t.Cleanup(func() {
		cancel()
		app.Shutdown()
	})
	return h, cancel
}

func dial(t *testing.T, addr string) *gws.Conn {
	t.Helper()
	ws, _, err := gws.DefaultDialer.Dial("ws://"+addr+"/ws", nil)
	if err != nil {
		t.Fatalf("WebSocket dial error: %v", err)
	}
	return ws
}

func TestNewHub(t *testing.T) {
	h := New("status")
	if h.Name() != "status" {
		t.Errorf("Name() = %q", h.Name())
	}
	if h.ClientCount() != 0 {
		t.Error("ClientCount should be 0 initially")
	}
}

func TestBroadcastWithoutClients(t *testing.T) {
	h := New("idle")
	// hub loop not running: broadcasts are buffered or dropped, never block
	for i := 0; i < 300; i++ {
		h.BroadcastBinary([]byte{1})
	}
	if err := h.BroadcastJSON(map[string]int{"a": 1}); err != nil {
		t.Fatalf("BroadcastJSON: %v", err)
	}
	if err := h.BroadcastJSON(func() {}); err == nil {
		t.Error("BroadcastJSON should fail for unencodable values")
	}
}

func TestHubBroadcast(t *testing.T) {
	const addr = "localhost:18190"
	h, _ := startHub(t, addr)

	var counts atomic.Int32
	h.OnCount = func(string, int) { counts.Add(1) }

	ws := dial(t, addr)
	defer ws.Close()
	time.Sleep(50 * time.Millisecond)

	if h.ClientCount() != 1 {
		t.Fatalf("ClientCount = %d, want 1", h.ClientCount())
	}

	h.BroadcastJSON(map[string]string{"direction": "LEFT"})
	h.BroadcastBinary([]byte{0xff, 0xd8})

	ws.SetReadDeadline(time.Now().Add(time.Second))
	mt, data, err := ws.ReadMessage()
	if err != nil {
		t.Fatalf("Read error: %v", err)
	}
	if mt != gws.TextMessage || string(data) != `{"direction":"LEFT"}` {
		t.Errorf("got %d %q", mt, data)
	}

	mt, data, err = ws.ReadMessage()
	if err != nil {
		t.Fatalf("Read error: %v", err)
	}
	if mt != gws.BinaryMessage || len(data) != 2 {
		t.Errorf("got %d %v", mt, data)
	}

	ws.Close()
	time.Sleep(100 * time.Millisecond)
	if h.ClientCount() != 0 {
		t.Errorf("ClientCount = %d, want 0 after disconnect", h.ClientCount())
	}
	if counts.Load() < 1 {
		t.Error("OnCount not called")
	}
}

func TestHubGreeting(t *testing.T) {
	const addr = "localhost:18191"
	startHub(t, addr, NewJSONMessage([]byte(`{"hello":1}`)))

	ws := dial(t, addr)
	defer ws.Close()

	ws.SetReadDeadline(time.Now().Add(time.Second))
	_, data, err := ws.ReadMessage()
	if err != nil {
		t.Fatalf("Read error: %v", err)
	}
	if string(data) != `{"hello":1}` {
		t.Errorf("greeting = %q", data)
	}
}

func TestHubShutdownClosesClients(t *testing.T) {
	const addr = "localhost:18192"
	h, cancel := startHub(t, addr)

	ws := dial(t, addr)
	defer ws.Close()
	time.Sleep(50 * time.Millisecond)

	cancel()
	select {
	case <-h.Done():
	case <-time.After(time.Second):
		t.Fatal("hub did not stop")
	}

	ws.SetReadDeadline(time.Now().Add(time.Second))
	if _, _, err := ws.ReadMessage(); err == nil {
		t.Error("expected connection to close")
	}
}

func TestEncodeJSON(t *testing.T) {
	msg, err := EncodeJSON(map[string]int{"angle": -12})
	if err != nil {
		t.Fatalf("EncodeJSON: %v", err)
	}
	if msg.Kind != Text || string(msg.Data) != `{"angle":-12}` {
		t.Errorf("got kind %d data %s", msg.Kind, msg.Data)
	}
	if msg.frameType() != websocket.TextMessage {
		t.Error("text message should be written as a text frame")
	}
	if NewBinaryMessage(nil).frameType() != websocket.BinaryMessage {
		t.Error("binary message should be written as a binary frame")
	}

	if _, err := EncodeJSON(make(chan int)); err == nil {
		t.Error("expected error for unencodable value")
	}
}
