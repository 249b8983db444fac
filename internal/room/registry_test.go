package room

import (
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetOrCreateFirstCreatorMetadataWins(t *testing.T) {
	reg := NewRegistry()
	a, b := newFakeMember("a"), newFakeMember("b")

	created, isNew := reg.GetOrCreate("alpha", a, "main", ".js")
	require.True(t, isNew)

	again, isNew := reg.GetOrCreate("alpha", b, "other", ".py")
	assert.False(t, isNew)
	assert.Same(t, created, again)

	snap := again.Snapshot()
	assert.Equal(t, "main", snap.File)
	assert.Equal(t, ".js", snap.Extension)
	assert.False(t, again.HasMember(b), "GetOrCreate must not join an existing room")
}

func TestEnterJoinsExistingRoom(t *testing.T) {
	reg := NewRegistry()
	a, b := newFakeMember("a"), newFakeMember("b")

	room, created := reg.Enter("alpha", a, "main", ".js")
	require.True(t, created)

	joined, created := reg.Enter("alpha", b, "other", ".py")
	assert.False(t, created)
	assert.Same(t, room, joined)
	assert.Equal(t, 2, room.MemberCount())
	assert.Equal(t, "main", room.Snapshot().File)
}

func TestJoin(t *testing.T) {
	reg := NewRegistry()
	a, b := newFakeMember("a"), newFakeMember("b")

	_, ok := reg.Join("missing", a)
	assert.False(t, ok)

	reg.GetOrCreate("alpha", a, "", "")
	room, ok := reg.Join("alpha", b)
	require.True(t, ok)
	_, ok = reg.Join("alpha", b)
	require.True(t, ok)
	assert.Equal(t, 2, room.MemberCount())
}

func TestRoomIDsAreCaseSensitive(t *testing.T) {
	reg := NewRegistry()
	reg.GetOrCreate("Room", newFakeMember("a"), "", "")
	reg.GetOrCreate("room", newFakeMember("b"), "", "")
	reg.GetOrCreate(" room", newFakeMember("c"), "", "")

	assert.Equal(t, 3, reg.RoomCount())
}

func TestLeaveDeletesEmptiedRoom(t *testing.T) {
	reg := NewRegistry()
	a, b := newFakeMember("a"), newFakeMember("b")

	room, _ := reg.Enter("alpha", a, "main", ".js")
	reg.Enter("alpha", b, "", "")
	room.ApplyUpdate([]byte("hello"))

	reg.Leave("alpha", a)
	_, ok := reg.Get("alpha")
	assert.True(t, ok)

	reg.Leave("alpha", b)
	_, ok = reg.Get("alpha")
	assert.False(t, ok)
	assert.Equal(t, 0, reg.RoomCount())

	fresh, created := reg.Enter("alpha", a, "fresh", ".py")
	require.True(t, created)
	assert.NotSame(t, room, fresh)
	assert.Empty(t, fresh.Snapshot().State)
	assert.Equal(t, "fresh", fresh.Snapshot().File)
}

func TestLeaveNoops(t *testing.T) {
	reg := NewRegistry()
	a := newFakeMember("a")

	reg.Leave("missing", a)
	reg.Enter("alpha", a, "", "")
	reg.Leave("alpha", newFakeMember("stranger"))

	_, ok := reg.Get("alpha")
	assert.True(t, ok)
}

func TestCreateAndDeleteHooks(t *testing.T) {
	var created, deleted atomic.Int32
	reg := NewRegistry(
		OnCreate(func(*Room) { created.Add(1) }),
		OnDelete(func(*Room) { deleted.Add(1) }),
	)
	a, b := newFakeMember("a"), newFakeMember("b")

	reg.Enter("alpha", a, "", "")
	reg.Enter("alpha", b, "", "")
	reg.Leave("alpha", a)
	reg.Leave("alpha", b)
	reg.Enter("alpha", a, "", "")

	assert.Equal(t, int32(2), created.Load())
	assert.Equal(t, int32(1), deleted.Load())
}

func TestStats(t *testing.T) {
	reg := NewRegistry()
	reg.Enter("b-room", newFakeMember("1"), "x", ".go")
	reg.Enter("a-room", newFakeMember("2"), "y", ".py")
	reg.Enter("a-room", newFakeMember("3"), "", "")

	assert.Equal(t, 2, reg.RoomCount())
	assert.Equal(t, 3, reg.ClientCount())
	assert.Equal(t, []Info{
		{ID: "a-room", File: "y", Extension: ".py", Members: 2},
		{ID: "b-room", File: "x", Extension: ".go", Members: 1},
	}, reg.Rooms())
}

func TestConcurrentEnterLeaveKeepsRegistryConsistent(t *testing.T) {
	reg := NewRegistry()

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			m := newFakeMember(fmt.Sprintf("m-%d", i))
			id := fmt.Sprintf("room-%d", i%5)
			room, _ := reg.Enter(id, m, "", "")
			room.ApplyUpdate([]byte{byte(i)})
			reg.Leave(id, m)
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 0, reg.RoomCount())
	assert.Equal(t, 0, reg.ClientCount())
}

func TestEnterAfterConcurrentTeardownAlwaysLandsInLiveRoom(t *testing.T) {
	reg := NewRegistry()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			m := newFakeMember(fmt.Sprintf("m-%d", i))
			room, _ := reg.Enter("shared", m, "", "")
			assert.True(t, room.HasMember(m))
			if i%2 == 0 {
				reg.Leave("shared", m)
			}
		}(i)
	}
	wg.Wait()

	room, ok := reg.Get("shared")
	require.True(t, ok)
	assert.Equal(t, 25, room.MemberCount())
}
