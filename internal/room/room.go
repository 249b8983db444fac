package room

import "sync"

// Member is one connection that can sit in a room. Implementations must be
// comparable; the room keys its member set on them.
type Member interface {
	ID() string
	Open() bool
	// Send enqueues msg without blocking and reports whether it was accepted.
	Send(msg []byte) bool
}

// A collaborative editing session around a single file
type Room struct {
	ID string

	mu      sync.RWMutex
	file    *File
	members map[Member]struct{}
	closed  bool
}

// Snapshot is a consistent copy of a room's file for init responses.
type Snapshot struct {
	File      string
	Extension string
	State     []byte
}

// Info summarizes a room for the stats API.
type Info struct {
	ID        string `json:"id"`
	File      string `json:"file"`
	Extension string `json:"extension"`
	Members   int    `json:"members"`
}

func newRoom(id string, file *File, creator Member) *Room {
	return &Room{
		ID:      id,
		file:    file,
		members: map[Member]struct{}{creator: {}},
	}
}

// add inserts m unless the room has already been torn down. Re-adding a
// member is a no-op that still reports success.
func (r *Room) add(m Member) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return false
	}
	r.members[m] = struct{}{}
	return true
}

// remove deletes m and reports whether that emptied the room. An emptied
// room is closed for good; later joins must create a new one.
func (r *Room) remove(m Member) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.members[m]; !ok {
		return false
	}
	delete(r.members, m)
	if len(r.members) == 0 {
		r.closed = true
		return true
	}
	return false
}

func (r *Room) isClosed() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.closed
}

// HasMember reports whether m is currently in the room.
func (r *Room) HasMember(m Member) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.members[m]
	return ok
}

// MemberCount returns the number of connected members.
func (r *Room) MemberCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.members)
}

// ApplyUpdate merges update into the room's file.
func (r *Room) ApplyUpdate(update []byte) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.file.ApplyUpdate(update)
}

// Rename changes the file metadata; empty values are left alone.
func (r *Room) Rename(name, extension string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.file.Rename(name, extension)
}

// Snapshot returns the file metadata and full state taken under one lock.
func (r *Room) Snapshot() Snapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return Snapshot{
		File:      r.file.Name(),
		Extension: r.file.Extension(),
		State:     r.file.EncodeFullState(),
	}
}

// Info returns the stats view of the room.
func (r *Room) Info() Info {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return Info{
		ID:        r.ID,
		File:      r.file.Name(),
		Extension: r.file.Extension(),
		Members:   len(r.members),
	}
}

// Broadcast sends msg to every open member except sender and returns how
// many accepted it. Members are snapshotted first so no send happens while
// the room is locked.
func (r *Room) Broadcast(sender Member, msg []byte) int {
	r.mu.RLock()
	targets := make([]Member, 0, len(r.members))
	for m := range r.members {
		if m != sender {
			targets = append(targets, m)
		}
	}
	r.mu.RUnlock()

	delivered := 0
	for _, m := range targets {
		if !m.Open() {
			continue
		}
		if m.Send(msg) {
			delivered++
		}
	}
	return delivered
}
