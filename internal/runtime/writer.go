package runtime

import (
	"encoding/json"
	"fmt"

	"github.com/gorilla/websocket"

	"github.com/nordaxis/hubagent/internal/metrics"
)

// outboundQueueCapacity bounds the writer's FIFO so a stuck socket throttles
// producers instead of growing memory without limit.
const outboundQueueCapacity = 100

// outboundQueue is the single bounded FIFO every outbound frame passes
// through. The reader half and every assignment executor hold a clone of
// the send side; only the writer loop ever touches the websocket's write
// side, which keeps writes totally ordered by insertion order.
type outboundQueue struct {
	ch chan outboundFrame
}

func newOutboundQueue() *outboundQueue {
	return &outboundQueue{ch: make(chan outboundFrame, outboundQueueCapacity)}
}

// send enqueues frame, blocking if the queue is full. This is the
// backpressure point: a fast-producing executor suspends here. Heartbeat
// replies get no priority: they are produced by the reader tick and queue
// behind whatever's already buffered, same as any other frame, so a full
// queue also blocks the reader until the writer drains it.
func (q *outboundQueue) send(ctx ctxDoner, frame outboundFrame) error {
	select {
	case q.ch <- frame:
		metrics.OutboundQueueDepth.Set(float64(len(q.ch)))
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// ctxDoner is the subset of context.Context the queue needs; kept narrow
// so writer.go doesn't have to import context just for this.
type ctxDoner interface {
	Done() <-chan struct{}
	Err() error
}

// wsConn is the subset of *websocket.Conn the writer and reader halves
// need. Narrowing it to an interface lets tests substitute any conn that
// satisfies it; in production it's always a real *websocket.Conn.
type wsConn interface {
	WriteMessage(messageType int, data []byte) error
	ReadMessage() (messageType int, p []byte, err error)
	Close() error
}

// runWriter drains q and writes each frame as a JSON text message until the
// queue channel is closed or a write fails. It is the sole goroutine
// permitted to call conn.WriteMessage.
func runWriter(conn wsConn, q *outboundQueue) error {
	for frame := range q.ch {
		metrics.OutboundQueueDepth.Set(float64(len(q.ch)))
		data, err := json.Marshal(frame)
		if err != nil {
			return fmt.Errorf("writer: marshal frame: %w", err)
		}
		if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
			return &TransportError{Op: "write", Err: err}
		}
	}
	return nil
}
