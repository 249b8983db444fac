// Package room holds the process-wide registry of editing rooms, each owning
// one file and the set of connections editing it.
package room

import (
	"sort"
	"sync"

	"github.com/manpreetbhatti/codesync/internal/document"
	"github.com/manpreetbhatti/codesync/internal/logging"
)

// Registry maps room identifiers to rooms. Identifiers are compared exactly:
// no case folding or trimming.
type Registry struct {
	mu    sync.RWMutex
	rooms map[string]*Room

	newDocument document.Factory
	onCreate    []func(*Room)
	onDelete    []func(*Room)
}

// Option configures a Registry.
type Option func(*Registry)

// OnCreate registers fn to run after a new room is registered.
func OnCreate(fn func(*Room)) Option {
	return func(r *Registry) { r.onCreate = append(r.onCreate, fn) }
}

// OnDelete registers fn to run after an emptied room is removed.
func OnDelete(fn func(*Room)) Option {
	return func(r *Registry) { r.onDelete = append(r.onDelete, fn) }
}

func NewRegistry(opts ...Option) *Registry {
	r := &Registry{
		rooms:       make(map[string]*Room),
		newDocument: document.NewUpdateSet,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// GetOrCreate returns the room registered under id, or registers a new one
// with creator as its only member. The file metadata is only used when the
// room is created; the first creator's values win.
func (r *Registry) GetOrCreate(id string, creator Member, fileName, fileExtension string) (*Room, bool) {
	r.mu.Lock()
	if existing, ok := r.rooms[id]; ok && !existing.isClosed() {
		r.mu.Unlock()
		return existing, false
	}
	room := newRoom(id, NewFile(fileName, fileExtension, r.newDocument()), creator)
	r.rooms[id] = room
	r.mu.Unlock()

	logging.NewLogger("room").WithField("room", id).
		WithField("file", room.file.Name()+room.file.Extension()).
		Info("Room created")
	for _, fn := range r.onCreate {
		fn(room)
	}
	return room, true
}

// Join adds m to an existing room. Joining twice is a no-op.
func (r *Registry) Join(id string, m Member) (*Room, bool) {
	room, ok := r.Get(id)
	if !ok {
		return nil, false
	}
	if !room.add(m) {
		return nil, false
	}
	return room, true
}

// Enter joins the room under id, creating it if needed, and reports whether
// it was created. A room torn down between lookup and join is replaced.
func (r *Registry) Enter(id string, m Member, fileName, fileExtension string) (*Room, bool) {
	for {
		if room, ok := r.Join(id, m); ok {
			return room, false
		}
		if room, created := r.GetOrCreate(id, m, fileName, fileExtension); created {
			return room, true
		}
	}
}

// Leave removes m from the room under id and deletes the room once it is
// empty. Unknown rooms and non-members are ignored.
func (r *Registry) Leave(id string, m Member) {
	r.mu.RLock()
	room, ok := r.rooms[id]
	r.mu.RUnlock()
	if !ok || !room.remove(m) {
		return
	}

	r.mu.Lock()
	if r.rooms[id] == room {
		delete(r.rooms, id)
	}
	r.mu.Unlock()

	logging.NewLogger("room").WithField("room", id).Info("Room closed (empty)")
	for _, fn := range r.onDelete {
		fn(room)
	}
}

// Get looks up a live room without changing anything.
func (r *Registry) Get(id string) (*Room, bool) {
	r.mu.RLock()
	room, ok := r.rooms[id]
	r.mu.RUnlock()
	if !ok || room.isClosed() {
		return nil, false
	}
	return room, true
}

// RoomCount returns the number of live rooms.
func (r *Registry) RoomCount() int {
	return len(r.live())
}

// ClientCount returns the number of members across all rooms.
func (r *Registry) ClientCount() int {
	total := 0
	for _, room := range r.live() {
		total += room.MemberCount()
	}
	return total
}

// Rooms returns a summary of every live room, sorted by ID.
func (r *Registry) Rooms() []Info {
	live := r.live()
	infos := make([]Info, 0, len(live))
	for _, room := range live {
		infos = append(infos, room.Info())
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].ID < infos[j].ID })
	return infos
}

func (r *Registry) live() []*Room {
	r.mu.RLock()
	rooms := make([]*Room, 0, len(r.rooms))
	for _, room := range r.rooms {
		rooms = append(rooms, room)
	}
	r.mu.RUnlock()

	live := rooms[:0]
	for _, room := range rooms {
		if !room.isClosed() {
			live = append(live, room)
		}
	}
	return live
}
