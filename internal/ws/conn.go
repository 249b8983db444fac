package ws

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

// Conn is one websocket endpoint. It is the room.Member the relay hands to
// rooms: comparable by pointer, open until Close, and fed through a buffered
// send queue drained by writePump.
type Conn struct {
	id   string
	ws   *websocket.Conn
	send chan []byte

	writeWait  time.Duration
	pongWait   time.Duration
	pingPeriod time.Duration

	mu     sync.Mutex
	closed bool

	log *logrus.Entry
}

func newConn(id string, ws *websocket.Conn, sendBuffer int, writeWait, pongWait time.Duration, log *logrus.Entry) *Conn {
	return &Conn{
		id:         id,
		ws:         ws,
		send:       make(chan []byte, sendBuffer),
		writeWait:  writeWait,
		pongWait:   pongWait,
		pingPeriod: (pongWait * 9) / 10,
		log:        log.WithField("conn", id),
	}
}

func (c *Conn) ID() string { return c.id }

func (c *Conn) Open() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return !c.closed
}

// Send queues msg for writePump. A peer whose queue is full is too far behind
// to catch up with deltas, so it is closed; reconnecting resyncs it via init.
func (c *Conn) Send(msg []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	select {
	case c.send <- msg:
		return true
	default:
		c.log.Warn("Send buffer full, closing slow connection")
		c.closeLocked()
		return false
	}
}

// Close stops accepting messages; writePump flushes what is queued and then
// closes the socket.
func (c *Conn) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closeLocked()
}

func (c *Conn) closeLocked() {
	if !c.closed {
		c.closed = true
		close(c.send)
	}
}

func (c *Conn) writePump() {
	ticker := time.NewTicker(c.pingPeriod)
	defer func() {
		ticker.Stop()
		c.ws.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.ws.SetWriteDeadline(time.Now().Add(c.writeWait))
			if !ok {
				c.ws.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}

			if err := c.ws.WriteMessage(websocket.TextMessage, message); err != nil {
				c.log.WithError(err).Debug("Write failed")
				c.Close()
				return
			}

		case <-ticker.C:
			c.ws.SetWriteDeadline(time.Now().Add(c.writeWait))
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.Close()
				return
			}
		}
	}
}
