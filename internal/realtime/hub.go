package realtime

import (
	"encoding/json"
	"sync"
)

// Hub fans out edit and presence events among the clients viewing the same
// document. A "room" is the member set for one document id. The hub holds
// no document content and persists nothing: delivery is best effort to
// whoever is connected at the moment an event arrives.
//
// One mutex guards both maps. Every room mutation and every fan-out runs
// under it, so join/leave/broadcast for a room are strictly ordered and
// members observe edits in the order the hub received them. Actual socket
// writes happen on each client's own write loop, fed by a buffered channel,
// so one slow or dead peer cannot stall the room.
type Hub struct {
	mu sync.Mutex

	// rooms maps a document id to its current member set.
	rooms map[uint64]map[*Client]struct{}

	// joined maps a client to the set of rooms it is in, so that a
	// disconnect can release exactly those rooms and notify only their
	// members.
	joined map[*Client]map[uint64]struct{}
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{
		rooms:  make(map[uint64]map[*Client]struct{}),
		joined: make(map[*Client]map[uint64]struct{}),
	}
}

// Join adds the client to the room for documentID and announces it to the
// members already there. Joining a room twice is a no-op; in particular it
// does not re-announce.
func (h *Hub) Join(c *Client, documentID uint64) {
	h.mu.Lock()
	defer h.mu.Unlock()

	room := h.rooms[documentID]
	if room == nil {
		room = make(map[*Client]struct{})
		h.rooms[documentID] = room
	}
	if _, ok := room[c]; ok {
		return
	}

	msg, _ := json.Marshal(presence{Event: EventUserJoined, UserID: c.userID})
	for m := range room {
		m.enqueue(msg)
	}

	room[c] = struct{}{}
	if h.joined[c] == nil {
		h.joined[c] = make(map[uint64]struct{})
	}
	h.joined[c][documentID] = struct{}{}
}

// BroadcastEdit delivers content to every member of the document's room
// except the sender. Senders that never joined the room are silently
// dropped; an edit is not a join.
func (h *Hub) BroadcastEdit(c *Client, documentID uint64, content string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	room := h.rooms[documentID]
	if room == nil {
		return
	}
	if _, ok := room[c]; !ok {
		return
	}

	msg, _ := json.Marshal(documentUpdated{Event: EventDocumentUpdated, Content: content})
	for m := range room {
		if m == c {
			continue
		}
		m.enqueue(msg)
	}
}

// Leave removes the client from every room it joined and announces the
// departure to the remaining members of those rooms only. Once Leave
// returns, no later broadcast can reach the client, which makes it safe
// for the caller to tear the connection down.
func (h *Hub) Leave(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	rooms := h.joined[c]
	delete(h.joined, c)

	msg, _ := json.Marshal(presence{Event: EventUserLeft, UserID: c.userID})
	for documentID := range rooms {
		room := h.rooms[documentID]
		delete(room, c)
		if len(room) == 0 {
			delete(h.rooms, documentID)
			continue
		}
		for m := range room {
			m.enqueue(msg)
		}
	}
}

// RoomSize reports the current member count for a document's room.
func (h *Hub) RoomSize(documentID uint64) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.rooms[documentID])
}
