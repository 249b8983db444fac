package ws

import "github.com/manpreetbhatti/codesync/internal/room"

// Session is the per-connection protocol state: unbound until an init names
// a room, then bound to exactly that room.
type Session struct {
	member room.Member
	roomID string
	room   *room.Room
}

func NewSession(m room.Member) *Session {
	return &Session{member: m}
}

func (s *Session) Bound() bool { return s.room != nil }

// RoomID returns the bound room identifier, or "" while unbound.
func (s *Session) RoomID() string { return s.roomID }

func (s *Session) bind(id string, r *room.Room) {
	s.roomID = id
	s.room = r
}

func (s *Session) unbind() {
	s.roomID = ""
	s.room = nil
}
