package server

import (
	"sync"

	"github.com/rs/zerolog"
)

// Hub tracks every live connection, the identity -> connection-set
// index and per-room membership. A single mutex guards all three so a
// count broadcast can never observe a stale membership set.
type Hub struct {
	mu         sync.Mutex
	clients    map[*Client]bool
	identities map[string]map[*Client]struct{}
	rooms      map[string]map[*Client]struct{}

	defaultRoom string
	logger      zerolog.Logger
}

func NewHub(defaultRoom string, logger zerolog.Logger) *Hub {
	return &Hub{
		clients:     make(map[*Client]bool),
		identities:  make(map[string]map[*Client]struct{}),
		rooms:       make(map[string]map[*Client]struct{}),
		defaultRoom: defaultRoom,
		logger:      logger,
	}
}

// Register starts tracking a freshly upgraded connection under its
// identity and greets it.
func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.clients[c] = true
	conns, ok := h.identities[c.identity]
	if !ok {
		conns = make(map[*Client]struct{})
		h.identities[c.identity] = conns
	}
	conns[c] = struct{}{}

	h.deliver(c, newEventWelcome(h.defaultRoom).toBytes())
	h.logger.Info().Str("identity", c.identity).Bool("guest", c.guest).Msg("client connected")
}

// Disconnect removes the connection from the identity index and its
// room, broadcasting the decremented room count to remaining members.
// Safe to call more than once.
func (h *Hub) Disconnect(c *Client) {
	h.mu.Lock()
	if !h.clients[c] {
		h.mu.Unlock()
		c.Close()
		return
	}
	delete(h.clients, c)

	if conns, ok := h.identities[c.identity]; ok {
		delete(conns, c)
		if len(conns) == 0 {
			delete(h.identities, c.identity)
		}
	}
	h.leaveLocked(c)
	h.mu.Unlock()

	c.Close()
	h.logger.Info().Str("identity", c.identity).Msg("client disconnected")
}

// Join moves the connection into roomID, leaving any prior room first
// so a connection is never a member of two rooms. An empty roomID
// targets the default room. Rooms are created on first join.
func (h *Hub) Join(c *Client, roomID string) {
	if roomID == "" {
		roomID = h.defaultRoom
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if !h.clients[c] {
		return
	}

	h.leaveLocked(c)

	members, ok := h.rooms[roomID]
	if !ok {
		members = make(map[*Client]struct{})
		h.rooms[roomID] = members
	}
	members[c] = struct{}{}
	c.room = roomID

	h.deliver(c, newEventRoomJoined(roomID).toBytes())
	h.broadcastCountLocked(roomID)
	h.logger.Debug().Str("identity", c.identity).Str("room", roomID).Msg("joined room")
}

// Leave removes the connection from its current room, if any.
func (h *Hub) Leave(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.leaveLocked(c)
}

func (h *Hub) leaveLocked(c *Client) {
	if c.room == "" {
		return
	}
	roomID := c.room
	c.room = ""

	members, ok := h.rooms[roomID]
	if !ok {
		return
	}
	delete(members, c)
	if len(members) == 0 {
		delete(h.rooms, roomID)
		return
	}
	h.broadcastCountLocked(roomID)
}

func (h *Hub) broadcastCountLocked(roomID string) {
	data := newEventRoomCount(roomID, len(h.rooms[roomID])).toBytes()
	for member := range h.rooms[roomID] {
		h.deliver(member, data)
	}
}

// Chat relays content to every other member of the sender's current
// room. A sender with no room has nobody to deliver to; the message
// is dropped.
func (h *Hub) Chat(c *Client, content string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if c.room == "" {
		h.logger.Debug().Str("identity", c.identity).Msg("chat from connection without a room")
		return
	}
	h.toRoomLocked(c.room, newEventChatMessage(c.room, content, c.identity).toBytes(), c)
}

// ToRoom delivers data to every open member of roomID, optionally
// skipping exclude. Best-effort: closed recipients are skipped.
func (h *Hub) ToRoom(roomID string, data []byte, exclude *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.toRoomLocked(roomID, data, exclude)
}

func (h *Hub) toRoomLocked(roomID string, data []byte, exclude *Client) {
	for member := range h.rooms[roomID] {
		if member == exclude {
			continue
		}
		h.deliver(member, data)
	}
}

// ToAll delivers data to every tracked connection, roomed or not.
// Broadcasting with nobody connected is a valid no-op.
func (h *Hub) ToAll(data []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		h.deliver(c, data)
	}
}

// deliver is fire-and-forget: a closed or saturated client never
// stalls the loop. Saturated clients are force-closed off the lock so
// their read pump funnels into the normal disconnect path.
func (h *Hub) deliver(c *Client, data []byte) {
	if !c.Send(data) {
		go c.Close()
	}
}

// MemberCount reports the live member count of roomID; unknown and
// empty rooms count zero.
func (h *Hub) MemberCount(roomID string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.rooms[roomID])
}

// RoomCounts snapshots the member count of every live room.
func (h *Hub) RoomCounts() map[string]int {
	h.mu.Lock()
	defer h.mu.Unlock()
	counts := make(map[string]int, len(h.rooms))
	for id, members := range h.rooms {
		counts[id] = len(members)
	}
	return counts
}

// ClientCount reports the number of tracked connections.
func (h *Hub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Connections reports how many live connections back an identity.
func (h *Hub) Connections(identity string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.identities[identity])
}

// Shutdown disconnects every tracked connection.
func (h *Hub) Shutdown() {
	h.mu.Lock()
	clients := make([]*Client, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.Unlock()

	for _, c := range clients {
		h.Disconnect(c)
	}
}
