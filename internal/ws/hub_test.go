package ws

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

func TestHub_PublishAndClose(t *testing.T) {
	hub := NewHub()
	a := hub.Register()
	b := hub.Register()
	if hub.ClientCount() != 2 {
		t.Fatalf("ClientCount() = %d, want 2", hub.ClientCount())
	}

	hub.Publish(map[string]string{"type": "purchase"})
	for _, c := range []*Client{a, b} {
		select {
		case msg := <-c.Send:
			if !strings.Contains(string(msg), `"purchase"`) {
				t.Errorf("message = %s", msg)
			}
		default:
			t.Error("client did not receive the event")
		}
	}

	a.Close()
	a.Close()
	if hub.ClientCount() != 1 {
		t.Errorf("ClientCount() after Close = %d, want 1", hub.ClientCount())
	}
	hub.Publish(map[string]string{"type": "purchase"})
}

func TestHub_SlowClientDoesNotBlock(t *testing.T) {
	hub := NewHub()
	hub.buffer = 1
	c := hub.Register()
	defer c.Close()

	done := make(chan struct{})
	go func() {
		for i := 0; i < 10; i++ {
			hub.Publish(i)
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Publish blocked on a full client")
	}
	if len(c.Send) != 1 {
		t.Errorf("buffered = %d, want 1", len(c.Send))
	}
}

func TestHub_SendAfterClose(t *testing.T) {
	hub := NewHub()
	c := hub.Register()
	c.Close()

	select {
	case <-c.Done():
	default:
		t.Fatal("Done() not closed after Close")
	}
	if c.trySend([]byte("late")) {
		t.Error("trySend() after Close = true, want false")
	}
	if len(c.Send) != 0 {
		t.Errorf("buffered after Close = %d, want 0", len(c.Send))
	}
}

func TestHub_PublishWhileClosing(t *testing.T) {
	hub := NewHub()
	clients := make([]*Client, 50)
	for i := range clients {
		clients[i] = hub.Register()
	}

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < 200; i++ {
			hub.Publish(i)
		}
	}()
	go func() {
		defer wg.Done()
		for _, c := range clients {
			c.Close()
		}
	}()
	wg.Wait()

	if hub.ClientCount() != 0 {
		t.Errorf("ClientCount() = %d, want 0", hub.ClientCount())
	}
}

func TestServeFeed(t *testing.T) {
	gin.SetMode(gin.TestMode)
	hub := NewHub()
	r := gin.New()
	r.GET("/ws/presale", ServeFeed(hub, func(ctx context.Context) (interface{}, error) {
		return map[string]int{"slotsSold": 3}, nil
	}))
	srv := httptest.NewServer(r)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/presale"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	defer conn.Close()
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))

	var snap struct {
		Type string         `json:"type"`
		Data map[string]int `json:"data"`
	}
	if err := conn.ReadJSON(&snap); err != nil {
		t.Fatalf("read snapshot: %v", err)
	}
	if snap.Type != "snapshot" || snap.Data["slotsSold"] != 3 {
		t.Errorf("snapshot = %+v", snap)
	}

	hub.Publish(map[string]string{"type": "purchase", "id": "tx1"})
	_, msg, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read event: %v", err)
	}
	var event map[string]string
	if err := json.Unmarshal(msg, &event); err != nil || event["id"] != "tx1" {
		t.Errorf("event = %s, err = %v", msg, err)
	}
}
