package relay

import (
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gobwas/ws"
	"github.com/gobwas/ws/wsutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"price-finder/internal/common/logger"
)

func TestQueue_EnqueueDeduplicates(t *testing.T) {
	q := NewQueue()

	assert.True(t, q.Enqueue("iPhone 15"))
	assert.False(t, q.Enqueue("iphone  15"), "same cache key")
	assert.False(t, q.Enqueue("   "))
	assert.True(t, q.Enqueue("ps5"))
	assert.Equal(t, 2, q.Len())

	q.Start("switch")
	assert.False(t, q.Enqueue("Switch"), "already running")
	q.Complete("switch")
	assert.True(t, q.Enqueue("Switch"))
}

func TestQueue_Contains(t *testing.T) {
	q := NewQueue()
	q.Enqueue("PS5 Slim")

	assert.True(t, q.Contains("ps5  slim"))
	assert.False(t, q.Contains("xbox"))

	query, ok := q.Next()
	require.True(t, ok)
	assert.False(t, q.Contains(query), "popped but not started")

	q.Start(query)
	assert.True(t, q.Contains(query))
	q.Complete(query)
	assert.False(t, q.Contains(query))
}

func TestQueue_NextIsFIFOAndRespectsPause(t *testing.T) {
	q := NewQueue()
	q.Enqueue("a")
	q.Enqueue("b")

	assert.True(t, q.TogglePause())
	_, ok := q.Next()
	assert.False(t, ok)

	assert.False(t, q.TogglePause())
	got, ok := q.Next()
	require.True(t, ok)
	assert.Equal(t, "a", got)
	got, _ = q.Next()
	assert.Equal(t, "b", got)

	_, ok = q.Next()
	assert.False(t, ok)
}

func TestQueue_SnapshotAndClear(t *testing.T) {
	q := NewQueue()
	q.Enqueue("a")
	q.Enqueue("b")
	q.Start("c")

	queued, active := q.Snapshot()
	assert.Equal(t, []string{"a", "b"}, queued)
	assert.Equal(t, []string{"c"}, active)

	queued[0] = "mutated"
	queued, _ = q.Snapshot()
	assert.Equal(t, "a", queued[0])

	assert.Equal(t, 2, q.Clear())
	assert.Equal(t, 0, q.Len())

	q.ClearActive()
	_, active = q.Snapshot()
	assert.Empty(t, active)
}

type fakeConn struct {
	in     chan []byte
	out    chan []byte
	closed chan struct{}
	once   sync.Once
}

func newFakeConn() *fakeConn {
	return &fakeConn{
		in:     make(chan []byte, 8),
		out:    make(chan []byte, 8),
		closed: make(chan struct{}),
	}
}

func (c *fakeConn) ReadMessage() ([]byte, error) {
	select {
	case data := <-c.in:
		return data, nil
	case <-c.closed:
		return nil, io.EOF
	}
}

func (c *fakeConn) WriteMessage(data []byte) error {
	select {
	case <-c.closed:
		return io.ErrClosedPipe
	default:
	}
	c.out <- data
	return nil
}

func (c *fakeConn) Close() error {
	c.once.Do(func() { close(c.closed) })
	return nil
}

func (c *fakeConn) send(t *testing.T, msg Message) {
	data, err := json.Marshal(msg)
	require.NoError(t, err)
	c.in <- data
}

func (c *fakeConn) receive(t *testing.T) Message {
	select {
	case data := <-c.out:
		var msg Message
		require.NoError(t, json.Unmarshal(data, &msg))
		return msg
	case <-time.After(2 * time.Second):
		t.Fatal("no message from hub")
		return Message{}
	}
}

func newTestHub(t *testing.T) *Hub {
	return NewHub(NewQueue(), "s3cret", time.Second, logger.NewTestLogger(t))
}

func TestHub_DispatchesOnRequest(t *testing.T) {
	h := newTestHub(t)
	conn := newFakeConn()
	go h.Serve(conn)
	require.Eventually(t, h.Connected, time.Second, 5*time.Millisecond)

	h.Queue().Enqueue("ps5")
	conn.send(t, Message{Type: MsgRequestJob})

	msg := conn.receive(t)
	assert.Equal(t, MsgNewJob, msg.Type)
	assert.Equal(t, "ps5", msg.Query)
	assert.NotEmpty(t, msg.JobID)

	conn.send(t, Message{Type: MsgJobStarted, Query: "ps5"})
	require.Eventually(t, func() bool { return len(h.Status().Active) == 1 }, time.Second, 5*time.Millisecond)

	conn.send(t, Message{Type: MsgJobComplete, Query: "ps5"})
	require.Eventually(t, func() bool { return len(h.Status().Active) == 0 }, time.Second, 5*time.Millisecond)
}

func TestHub_NewConnectionReplacesWorker(t *testing.T) {
	h := newTestHub(t)
	first := newFakeConn()
	go h.Serve(first)
	require.Eventually(t, h.Connected, time.Second, 5*time.Millisecond)

	first.send(t, Message{Type: MsgJobStarted, Query: "ps5"})
	require.Eventually(t, func() bool { return len(h.Status().Active) == 1 }, time.Second, 5*time.Millisecond)

	second := newFakeConn()
	go h.Serve(second)

	select {
	case <-first.closed:
	case <-time.After(time.Second):
		t.Fatal("previous worker not closed")
	}
	require.Eventually(t, func() bool { return len(h.Status().Active) == 0 }, time.Second, 5*time.Millisecond)
	assert.True(t, h.Connected())
}

func TestHub_Disconnect(t *testing.T) {
	h := newTestHub(t)
	assert.ErrorIs(t, h.Disconnect(), ErrNoWorker)

	conn := newFakeConn()
	go h.Serve(conn)
	require.Eventually(t, h.Connected, time.Second, 5*time.Millisecond)

	require.NoError(t, h.Disconnect())
	assert.False(t, h.Connected())
}

func TestHub_IgnoresMalformedMessages(t *testing.T) {
	h := newTestHub(t)
	conn := newFakeConn()
	go h.Serve(conn)
	require.Eventually(t, h.Connected, time.Second, 5*time.Millisecond)

	conn.in <- []byte("{not json")
	h.Queue().Enqueue("switch")
	conn.send(t, Message{Type: MsgRequestJob})

	assert.Equal(t, "switch", conn.receive(t).Query)
}

func TestHub_PausedQueueSendsNothing(t *testing.T) {
	h := newTestHub(t)
	conn := newFakeConn()
	go h.Serve(conn)
	require.Eventually(t, h.Connected, time.Second, 5*time.Millisecond)

	h.Queue().Enqueue("ps5")
	h.Queue().TogglePause()
	conn.send(t, Message{Type: MsgRequestJob})

	select {
	case <-conn.out:
		t.Fatal("paused queue dispatched a job")
	case <-time.After(100 * time.Millisecond):
	}
	assert.Equal(t, 1, h.Queue().Len())
}

func wsURL(srv *httptest.Server, secret string) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws?secret=" + secret
}

func TestHub_WebsocketRoundTrip(t *testing.T) {
	h := newTestHub(t)
	srv := httptest.NewServer(h)
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	conn, _, _, err := ws.Dial(ctx, wsURL(srv, "s3cret"))
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, h.Connected, time.Second, 5*time.Millisecond)
	h.Queue().Enqueue("macbook air m3")

	require.NoError(t, wsutil.WriteClientText(conn, []byte(`{"type":"REQUEST_JOB"}`)))

	data, err := wsutil.ReadServerText(conn)
	require.NoError(t, err)

	var msg Message
	require.NoError(t, json.Unmarshal(data, &msg))
	assert.Equal(t, MsgNewJob, msg.Type)
	assert.Equal(t, "macbook air m3", msg.Query)
}

func TestHub_WebsocketRejectsWrongSecret(t *testing.T) {
	h := newTestHub(t)
	srv := httptest.NewServer(h)
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	conn, _, _, err := ws.Dial(ctx, wsURL(srv, "wrong"))
	require.NoError(t, err)
	defer conn.Close()

	_, err = wsutil.ReadServerText(conn)
	assert.Error(t, err)
	assert.False(t, h.Connected())
}
