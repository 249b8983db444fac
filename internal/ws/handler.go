package ws

import (
	"github.com/sirupsen/logrus"

	cserrors "github.com/manpreetbhatti/codesync/internal/errors"
	"github.com/manpreetbhatti/codesync/internal/logging"
	"github.com/manpreetbhatti/codesync/internal/protocol"
	"github.com/manpreetbhatti/codesync/internal/room"
)

// Handler dispatches inbound envelopes for every session against one
// registry. Each session must be driven by a single goroutine.
type Handler struct {
	registry *room.Registry
	log      *logrus.Entry
}

func NewHandler(registry *room.Registry) *Handler {
	return &Handler{
		registry: registry,
		log:      logging.NewLogger("relay"),
	}
}

// Handle processes one inbound frame for s.
func (h *Handler) Handle(s *Session, data []byte) {
	msg, err := protocol.Parse(data)
	if err != nil {
		h.log.WithField("conn", s.member.ID()).WithError(err).Debug("Malformed message")
		h.reply(s, protocol.Error(err))
		return
	}

	log := h.log.WithFields(logrus.Fields{"conn": s.member.ID(), "type": msg.Type})

	switch msg.Type {
	case protocol.TypeInit:
		h.handleInit(s, msg, log)

	case protocol.TypeUpdate, protocol.TypeAwareness:
		if !s.Bound() {
			log.Debug("Ignoring message on unbound connection")
			return
		}
		update, err := msg.UpdateBytes()
		if err != nil {
			log.WithError(err).Debug("Rejecting payload")
			h.reply(s, protocol.Error(err))
			return
		}
		if msg.Type == protocol.TypeUpdate {
			s.room.ApplyUpdate(update)
		}
		delivered := s.room.Broadcast(s.member, protocol.Relay(msg.Type, msg.Update))
		log.WithFields(logrus.Fields{"room": s.roomID, "delivered": delivered}).Trace("Relayed")

	default:
		log.Debug("Unknown message type")
		h.reply(s, protocol.Error(cserrors.UnknownMessageType(string(msg.Type))))
	}
}

func (h *Handler) handleInit(s *Session, msg *protocol.Inbound, log *logrus.Entry) {
	if msg.UserName == "" {
		log.Debug("Ignoring init without a room id")
		return
	}

	if s.Bound() && s.roomID != msg.UserName {
		h.registry.Leave(s.roomID, s.member)
		s.unbind()
	}

	r, created := h.registry.Enter(msg.UserName, s.member, msg.FileName, msg.FileExtension)
	s.bind(msg.UserName, r)

	snap := r.Snapshot()
	h.reply(s, protocol.Init(snap.File, snap.Extension, snap.State))

	log.WithFields(logrus.Fields{
		"room":    msg.UserName,
		"created": created,
		"members": r.MemberCount(),
	}).Info("Client joined room")
}

// Close releases s from its room, if any.
func (h *Handler) Close(s *Session) {
	if !s.Bound() {
		return
	}
	h.registry.Leave(s.roomID, s.member)
	h.log.WithFields(logrus.Fields{"conn": s.member.ID(), "room": s.roomID}).Info("Client left room")
	s.unbind()
}

func (h *Handler) reply(s *Session, msg []byte) {
	s.member.Send(msg)
}
