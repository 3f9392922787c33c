package live

import (
	stderrors "errors"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

var errConnClosed = stderrors.New("live: connection closed")

// conn is one websocket connection. Only the session writer calls write
// and ping; the reader queues frames for it with send.
type conn struct {
	ws           *websocket.Conn
	writeTimeout time.Duration
	out          chan ServerFrame
	done         chan struct{}
	closeOnce    sync.Once
}

func newConn(ws *websocket.Conn, writeTimeout time.Duration) *conn {
	return &conn{
		ws:           ws,
		writeTimeout: writeTimeout,
		out:          make(chan ServerFrame, 16),
		done:         make(chan struct{}),
	}
}

func (c *conn) write(f ServerFrame) error {
	select {
	case <-c.done:
		return errConnClosed
	default:
	}
	_ = c.ws.SetWriteDeadline(time.Now().Add(c.writeTimeout))
	return c.ws.WriteJSON(f)
}

func (c *conn) ping(timeout time.Duration) error {
	return c.ws.WriteControl(websocket.PingMessage, nil, time.Now().Add(timeout))
}

// send queues f for the writer. It reports false when the queue is full
// or the connection is closed.
func (c *conn) send(f ServerFrame) bool {
	select {
	case <-c.done:
		return false
	case c.out <- f:
		return true
	default:
		return false
	}
}

func (c *conn) close() {
	c.closeOnce.Do(func() {
		close(c.done)
		_ = c.ws.Close()
	})
}
