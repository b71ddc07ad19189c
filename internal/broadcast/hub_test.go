package broadcast

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"lan-stream/internal/storage"

	"github.com/gorilla/websocket"
)

type fakeConn struct {
	mu       sync.Mutex
	messages [][]byte
	closed   bool
	failWith error
	block    chan struct{}
}

func (c *fakeConn) WriteMessage(messageType int, data []byte) error {
	if c.block != nil {
		<-c.block
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.failWith != nil {
		return c.failWith
	}
	if messageType == websocket.TextMessage {
		c.messages = append(c.messages, data)
	}
	return nil
}

func (c *fakeConn) SetWriteDeadline(time.Time) error { return nil }

func (c *fakeConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

func (c *fakeConn) Messages() [][]byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([][]byte(nil), c.messages...)
}

func (c *fakeConn) Closed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}

func TestHub_BroadcastReachesAllSessions(t *testing.T) {
	hub := NewHub(nil, nil)
	defer hub.Close()

	a, b := &fakeConn{}, &fakeConn{}
	hub.Register(a)
	hub.Register(b)
	if hub.Count() != 2 {
		t.Fatalf("Expected 2 sessions, got %d", hub.Count())
	}

	entry := storage.Entry{ID: "1", Content: "hello", Kind: storage.KindText, Timestamp: 1}
	if err := hub.Broadcast(entry); err != nil {
		t.Fatalf("Broadcast() error = %v", err)
	}

	for _, conn := range []*fakeConn{a, b} {
		conn := conn
		waitFor(t, func() bool { return len(conn.Messages()) == 1 })
		var got storage.Entry
		if err := json.Unmarshal(conn.Messages()[0], &got); err != nil {
			t.Fatalf("decode broadcast: %v", err)
		}
		if got.Content != "hello" || got.Kind != storage.KindText {
			t.Errorf("Unexpected broadcast payload %+v", got)
		}
	}
}

func TestHub_UnregisterClosesConn(t *testing.T) {
	hub := NewHub(nil, nil)
	conn := &fakeConn{}
	session := hub.Register(conn)

	hub.Unregister(session)
	hub.Unregister(session)

	if hub.Count() != 0 {
		t.Errorf("Expected 0 sessions, got %d", hub.Count())
	}
	if !conn.Closed() {
		t.Error("Expected conn to be closed")
	}
	select {
	case <-session.Done():
	default:
		t.Error("Expected session to be done")
	}
}

func TestHub_WriteFailureDropsSession(t *testing.T) {
	hub := NewHub(nil, nil)
	defer hub.Close()
	conn := &fakeConn{failWith: errors.New("broken pipe")}
	hub.Register(conn)

	_ = hub.Broadcast(storage.Entry{Kind: storage.KindText, Content: "x"})

	waitFor(t, func() bool { return hub.Count() == 0 })
	if !conn.Closed() {
		t.Error("Expected failing conn to be closed")
	}
}

func TestHub_SlowSessionDropped(t *testing.T) {
	hub := NewHub(nil, nil)
	defer hub.Close()

	slow := &fakeConn{block: make(chan struct{})}
	defer close(slow.block)
	hub.Register(slow)

	for i := 0; i < sendBufferSize+2; i++ {
		_ = hub.Broadcast(storage.Entry{Kind: storage.KindText, Content: "x"})
	}

	waitFor(t, func() bool { return hub.Count() == 0 })
	if !slow.Closed() {
		t.Error("Expected slow conn to be closed")
	}
}

func TestHub_RunClosesOnCancel(t *testing.T) {
	hub := NewHub(nil, nil)
	conn := &fakeConn{}
	hub.Register(conn)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := hub.Run(ctx); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if hub.Count() != 0 || !conn.Closed() {
		t.Error("Expected hub to disconnect sessions on shutdown")
	}

	late := &fakeConn{}
	hub.Register(late)
	if hub.Count() != 0 || !late.Closed() {
		t.Error("Expected registration after shutdown to be refused")
	}
}

func TestSession_SendTargetsOneSession(t *testing.T) {
	hub := NewHub(nil, nil)
	defer hub.Close()

	a, b := &fakeConn{}, &fakeConn{}
	session := hub.Register(a)
	hub.Register(b)

	if !session.Send(map[string]string{"error": "bad"}) {
		t.Fatal("Expected Send to succeed")
	}

	waitFor(t, func() bool { return len(a.Messages()) == 1 })
	time.Sleep(10 * time.Millisecond)
	if n := len(b.Messages()); n != 0 {
		t.Errorf("Expected other session to receive nothing, got %d", n)
	}

	hub.Unregister(session)
	if session.Send("late") {
		t.Error("Expected Send on closed session to fail")
	}
}
