package gateway

import (
	"context"
	"fmt"
	"testing"
	"time"
)

type nopSink struct{}

func (nopSink) HandleMessage(*Connection, []byte) {}
func (nopSink) HandleDisconnect(*Connection)      {}

func newTestConnection(cm *Manager, id string, sendCap int) *Connection {
	return &Connection{
		ID:      id,
		Send:    make(chan []byte, sendCap),
		done:    make(chan struct{}),
		Manager: cm,
	}
}

// A submit acked after the client's pumps have already torn the connection
// down must be a silent drop, never a panic in the event loop.
func TestEnqueueAfterUnregister(t *testing.T) {
	cm := NewManager(DefaultConnectionConfig(), nopSink{})
	conn := newTestConnection(cm, "c1", 1)
	cm.registerConnection(conn)

	if !conn.Enqueue([]byte(`{"type":"join:ack"}`)) {
		t.Fatal("enqueue on a live connection failed")
	}
	if !cm.removeConnection(conn) {
		t.Fatal("removeConnection reported the connection missing")
	}
	if conn.Enqueue([]byte(`{"type":"answer:ack"}`)) {
		t.Fatal("enqueue succeeded after unregister")
	}
	if cm.removeConnection(conn) {
		t.Fatal("second removeConnection claimed the removal")
	}
}

func TestBroadcastDeliversEveryFrame(t *testing.T) {
	cm := NewManager(DefaultConnectionConfig(), nopSink{})
	conn := newTestConnection(cm, "c1", 512)
	cm.registerConnection(conn)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go cm.Start(ctx)

	// More frames than the fan-out queue buffers: the producer must block
	// on backpressure instead of dropping.
	const frames = 300
	go func() {
		for i := 0; i < frames; i++ {
			cm.Broadcast([]byte(fmt.Sprintf(`{"seq":%d}`, i)))
		}
	}()

	for i := 0; i < frames; i++ {
		select {
		case got := <-conn.Send:
			want := fmt.Sprintf(`{"seq":%d}`, i)
			if string(got) != want {
				t.Fatalf("frame %d = %s, want %s", i, got, want)
			}
		case <-time.After(2 * time.Second):
			t.Fatalf("frame %d never delivered", i)
		}
	}
}
