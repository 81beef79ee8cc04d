package server

import (
	"slices"
	"sync"
)

// Registry is the authoritative in-memory record of which connections are
// live in which room. It is process-local and intentionally not persisted;
// its contents are reconstructible from the live connections themselves.
//
// The mutex is required: remove-if-empty is a check-then-act sequence and
// two disconnects racing on the same room must not interleave.
type Registry struct {
	mu sync.Mutex
	// rooms holds members in insertion order
	rooms map[string][]*Client
	// conns is the reverse index used for O(1) disconnect cleanup
	conns map[*Client]string
}

func NewRegistry() *Registry {
	return &Registry{
		rooms: make(map[string][]*Client),
		conns: make(map[*Client]string),
	}
}

// Register adds the client to the room's member list, creating the entry if
// this is the first member. Registering a client already in the room is a
// no-op.
func (r *Registry) Register(roomId string, c *Client) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if cur, ok := r.conns[c]; ok && cur == roomId {
		return
	}

	r.rooms[roomId] = append(r.rooms[roomId], c)
	r.conns[c] = roomId
}

// Unregister removes the client from whichever room it is registered in and
// reports that room. The room entry is dropped once its last member leaves.
func (r *Registry) Unregister(c *Client) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	roomId, ok := r.conns[c]
	if !ok {
		return "", false
	}

	r.remove(roomId, c)
	return roomId, true
}

// UnregisterFromRoom removes the client from the named room only. It reports
// false, without error, if the client is not a member of that room.
func (r *Registry) UnregisterFromRoom(roomId string, c *Client) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if cur, ok := r.conns[c]; !ok || cur != roomId {
		return false
	}

	r.remove(roomId, c)
	return true
}

func (r *Registry) remove(roomId string, c *Client) {
	delete(r.conns, c)

	members := r.rooms[roomId]
	if i := slices.Index(members, c); i >= 0 {
		members = slices.Delete(members, i, i+1)
	}

	if len(members) == 0 {
		delete(r.rooms, roomId)
		return
	}
	r.rooms[roomId] = members
}

// Members returns a copy of the room's member list in insertion order.
func (r *Registry) Members(roomId string) []*Client {
	r.mu.Lock()
	defer r.mu.Unlock()

	return slices.Clone(r.rooms[roomId])
}

// MemberNames returns the display names of the room's members in insertion
// order. Names are not deduplicated.
func (r *Registry) MemberNames(roomId string) []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	members := r.rooms[roomId]
	names := make([]string, len(members))
	for i, c := range members {
		names[i] = c.displayName
	}

	return names
}

// RoomOf reports the room the client is currently registered in, if any.
func (r *Registry) RoomOf(c *Client) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	roomId, ok := r.conns[c]
	return roomId, ok
}

// NumRooms reports the number of rooms with at least one live member.
func (r *Registry) NumRooms() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return len(r.rooms)
}
