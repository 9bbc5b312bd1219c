package relay

import (
	"crypto/subtle"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/gobwas/ws"
	"github.com/gobwas/ws/wsutil"
	"github.com/google/uuid"

	"price-finder/internal/common/logger"
	"price-finder/internal/common/metrics"
)

var ErrNoWorker = errors.New("WORKER_UNAVAILABLE")

// Conn is one side of a worker connection. The websocket implementation
// lives in wsConn; tests substitute their own.
type Conn interface {
	ReadMessage() ([]byte, error)
	WriteMessage(data []byte) error
	Close() error
}

type wsConn struct {
	conn         net.Conn
	writeTimeout time.Duration
}

func (c *wsConn) ReadMessage() ([]byte, error) {
	data, _, err := wsutil.ReadClientData(c.conn)
	return data, err
}

func (c *wsConn) WriteMessage(data []byte) error {
	if c.writeTimeout > 0 {
		_ = c.conn.SetWriteDeadline(time.Now().Add(c.writeTimeout))
	}
	return wsutil.WriteServerMessage(c.conn, ws.OpText, data)
}

func (c *wsConn) Close() error { return c.conn.Close() }

type worker struct {
	id   string
	conn Conn
	wmu  sync.Mutex
}

func (w *worker) send(msg Message) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	w.wmu.Lock()
	defer w.wmu.Unlock()
	return w.conn.WriteMessage(data)
}

// Status describes the relay for the admin panel.
type Status struct {
	Connected bool
	Paused    bool
	Queue     []string
	Active    []string
}

// Hub owns the single scraping worker connection and feeds it jobs from
// the queue on request.
type Hub struct {
	queue        *Queue
	secret       string
	writeTimeout time.Duration
	logger       logger.Logger

	mu      sync.Mutex
	current *worker
}

func NewHub(queue *Queue, secret string, writeTimeout time.Duration, log logger.Logger) *Hub {
	return &Hub{
		queue:        queue,
		secret:       secret,
		writeTimeout: writeTimeout,
		logger:       logger.Component(log, "relay"),
	}
}

func (h *Hub) Queue() *Queue { return h.queue }

// ServeHTTP upgrades the request to a websocket. A wrong secret closes the
// connection straight after the handshake.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, _, _, err := ws.UpgradeHTTP(r, w)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", map[string]interface{}{"error": err.Error()})
		return
	}

	secret := r.URL.Query().Get("secret")
	if subtle.ConstantTimeCompare([]byte(secret), []byte(h.secret)) != 1 {
		h.logger.Warn("worker rejected", map[string]interface{}{"remoteAddr": r.RemoteAddr})
		_ = wsutil.WriteServerMessage(conn, ws.OpClose, ws.NewCloseFrameBody(ws.StatusPolicyViolation, "invalid secret"))
		_ = conn.Close()
		return
	}

	h.Serve(&wsConn{conn: conn, writeTimeout: h.writeTimeout})
}

// Serve registers conn as the current worker and blocks reading its
// messages until the connection ends.
func (h *Hub) Serve(conn Conn) {
	wk := &worker{id: uuid.NewString(), conn: conn}

	h.mu.Lock()
	prev := h.current
	h.current = wk
	h.mu.Unlock()

	if prev != nil {
		_ = prev.conn.Close()
	}
	h.queue.ClearActive()
	metrics.RelayWorkerConnected.Set(1)
	h.logger.Info("worker connected", map[string]interface{}{"workerId": wk.id})

	defer h.release(wk)

	for {
		data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		var msg Message
		if err := json.Unmarshal(data, &msg); err != nil {
			h.logger.Warn("malformed worker message", map[string]interface{}{"workerId": wk.id, "error": err.Error()})
			continue
		}
		h.handle(wk, msg)
	}
}

func (h *Hub) handle(wk *worker, msg Message) {
	switch msg.Type {
	case MsgRequestJob:
		h.dispatch(wk)
	case MsgJobStarted:
		h.queue.Start(msg.Query)
	case MsgJobComplete:
		h.queue.Complete(msg.Query)
	default:
		h.logger.Debug("unknown worker message", map[string]interface{}{"type": msg.Type})
	}
}

func (h *Hub) dispatch(wk *worker) {
	query, ok := h.queue.Next()
	if !ok {
		return
	}
	msg := Message{Type: MsgNewJob, Query: query, JobID: uuid.NewString()}
	if err := wk.send(msg); err != nil {
		h.logger.Error("dispatch failed", map[string]interface{}{"query": query, "error": err.Error()})
		h.queue.Enqueue(query)
		return
	}
	metrics.RelayJobsDispatched.Inc()
	h.logger.Info("job dispatched", map[string]interface{}{"query": query, "jobId": msg.JobID})
}

// release forgets wk if it is still the current worker.
func (h *Hub) release(wk *worker) {
	_ = wk.conn.Close()

	h.mu.Lock()
	stillCurrent := h.current == wk
	if stillCurrent {
		h.current = nil
	}
	h.mu.Unlock()

	if !stillCurrent {
		return
	}
	h.queue.ClearActive()
	metrics.RelayWorkerConnected.Set(0)
	h.logger.Info("worker disconnected", map[string]interface{}{"workerId": wk.id})
}

func (h *Hub) Connected() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.current != nil
}

// Disconnect closes the current worker connection. It returns
// ErrNoWorker when none is connected.
func (h *Hub) Disconnect() error {
	h.mu.Lock()
	wk := h.current
	h.mu.Unlock()

	if wk == nil {
		return ErrNoWorker
	}
	h.release(wk)
	return nil
}

func (h *Hub) Status() Status {
	queued, active := h.queue.Snapshot()
	sort.Strings(active)
	return Status{
		Connected: h.Connected(),
		Paused:    h.queue.Paused(),
		Queue:     queued,
		Active:    active,
	}
}
