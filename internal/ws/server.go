// Package ws serves the sync protocol over websockets: it upgrades HTTP
// requests, greets each connection and feeds its frames to a Handler.
package ws

import (
	"net"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/manpreetbhatti/codesync/internal/config"
	"github.com/manpreetbhatti/codesync/internal/logging"
	"github.com/manpreetbhatti/codesync/internal/protocol"
	"github.com/manpreetbhatti/codesync/internal/ratelimit"
	"github.com/manpreetbhatti/codesync/internal/room"
)

const (
	connectsPerSecond = 20
	connectBurst      = 40
	warnEvery         = 100
)

type Server struct {
	handler  *Handler
	cfg      config.ServerConfig
	upgrader websocket.Upgrader
	attempts *ratelimit.KeyedLimiters
	log      *logrus.Entry
}

func NewServer(registry *room.Registry, cfg config.ServerConfig) *Server {
	return &Server{
		handler: NewHandler(registry),
		cfg:     cfg,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
		attempts: ratelimit.NewKeyedLimiters(connectsPerSecond, connectBurst),
		log:      logging.NewLogger("ws"),
	}
}

// Close releases background resources; live connections are unaffected.
func (s *Server) Close() {
	s.attempts.Stop()
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	host := remoteHost(r)
	if !s.attempts.Allow(host) {
		s.log.WithField("remote", host).Warn("Too many connection attempts")
		http.Error(w, "Too many connection attempts", http.StatusTooManyRequests)
		return
	}

	wsConn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.WithError(err).Debug("Upgrade error")
		return
	}

	conn := newConn(uuid.NewString(), wsConn, s.cfg.SendBuffer, s.cfg.WriteWait, s.cfg.PongWait, s.log)
	conn.log.WithField("remote", host).Debug("Connection established")

	conn.Send(protocol.Welcome())

	go conn.writePump()
	go s.readPump(conn)
}

func (s *Server) readPump(c *Conn) {
	session := NewSession(c)
	defer func() {
		s.handler.Close(session)
		c.Close()
	}()

	c.ws.SetReadLimit(s.cfg.MaxMessageSize)
	c.ws.SetReadDeadline(time.Now().Add(c.pongWait))
	c.ws.SetPongHandler(func(string) error {
		c.ws.SetReadDeadline(time.Now().Add(c.pongWait))
		return nil
	})

	guard := ratelimit.NewGuard(s.cfg.MessagesPerSecond, s.cfg.MessageBurst)

	for {
		_, message, err := c.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				c.log.WithError(err).Warn("WebSocket error")
			}
			return
		}

		switch guard.Check() {
		case ratelimit.Drop:
			if guard.Violations()%warnEvery == 1 {
				c.log.WithFields(logrus.Fields{
					"room":       session.RoomID(),
					"violations": guard.Violations(),
				}).Warn("Rate limit exceeded")
			}
			continue
		case ratelimit.Disconnect:
			c.log.WithField("room", session.RoomID()).Warn("Disconnecting client for excessive rate limit violations")
			return
		}

		s.handler.Handle(session, message)
	}
}

func remoteHost(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
