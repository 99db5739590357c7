package realtime

import (
	"log/slog"
	"sync"

	"github.com/agora-ai/agora/pkg/ws"
)

// Conn is the subset of the transport the registry needs.
// *websocket.Conn satisfies it; tests substitute fakes.
type Conn interface {
	WriteJSON(v any) error
	Close() error
}

// Registry tracks live client connections grouped by debate id. It owns
// the (debate, identity) -> transport mapping; the transports themselves
// belong to the network layer that accepted them.
type Registry struct {
	mu     sync.Mutex
	rooms  map[int64]map[int64]Conn
	nextID int64
	logger *slog.Logger
}

func NewRegistry(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		rooms:  make(map[int64]map[int64]Conn),
		logger: logger,
	}
}

// Connect registers conn under (debateID, userID) and sends the connected
// acknowledgment. A userID of 0 means anonymous; the registry assigns a
// synthetic negative identity so it can never collide with a real user id.
// The resolved identity is returned for use in Disconnect and heartbeats.
func (r *Registry) Connect(conn Conn, debateID, userID int64) int64 {
	r.mu.Lock()
	id := userID
	if id == 0 {
		r.nextID--
		id = r.nextID
	}
	room, ok := r.rooms[debateID]
	if !ok {
		room = make(map[int64]Conn)
		r.rooms[debateID] = room
	}
	room[id] = conn
	r.mu.Unlock()

	r.safeSend(conn, ws.NewConnected(debateID, id))
	return id
}

// Disconnect removes the (debateID, id) entry. Removing the last entry
// deletes the room. Unknown entries are ignored.
func (r *Registry) Disconnect(debateID, id int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	room, ok := r.rooms[debateID]
	if !ok {
		return
	}
	delete(room, id)
	if len(room) == 0 {
		delete(r.rooms, debateID)
	}
}

// SendTo delivers msg to one connection in a debate's room. An id of 0
// broadcasts to the whole room instead.
func (r *Registry) SendTo(debateID, id int64, msg ws.Message) {
	if id == 0 {
		r.Broadcast(debateID, msg)
		return
	}
	r.mu.Lock()
	conn, ok := r.rooms[debateID][id]
	r.mu.Unlock()
	if ok {
		r.safeSend(conn, msg)
	}
}

// Broadcast delivers msg to every connection in one debate's room. The
// target list is snapshotted under the lock, so concurrent connects and
// disconnects never corrupt the iteration. Each send is independent; a
// failed target is logged and skipped. An empty room is a no-op.
func (r *Registry) Broadcast(debateID int64, msg ws.Message) {
	r.mu.Lock()
	targets := make([]Conn, 0, len(r.rooms[debateID]))
	for _, conn := range r.rooms[debateID] {
		targets = append(targets, conn)
	}
	r.mu.Unlock()

	for _, conn := range targets {
		r.safeSend(conn, msg)
	}
}

// BroadcastAll delivers msg to every connection in every room.
func (r *Registry) BroadcastAll(msg ws.Message) {
	r.mu.Lock()
	var targets []Conn
	for _, room := range r.rooms {
		for _, conn := range room {
			targets = append(targets, conn)
		}
	}
	r.mu.Unlock()

	for _, conn := range targets {
		r.safeSend(conn, msg)
	}
}

// Notify broadcasts a notification message to a debate's room.
func (r *Registry) Notify(debateID int64, notificationType, text string) {
	r.Broadcast(debateID, ws.NewNotification(notificationType, text))
}

// AnnounceStatus broadcasts a runtime status transition to a debate's room.
func (r *Registry) AnnounceStatus(debateID int64, status string) {
	r.Broadcast(debateID, ws.NewStatus(debateID, status, "", 0))
}

// CloseAll clears the registry and best-effort closes every transport it
// was tracking.
func (r *Registry) CloseAll() {
	r.mu.Lock()
	var conns []Conn
	for _, room := range r.rooms {
		for _, conn := range room {
			conns = append(conns, conn)
		}
	}
	r.rooms = make(map[int64]map[int64]Conn)
	r.mu.Unlock()

	for _, conn := range conns {
		_ = conn.Close()
	}
}

// RoomSize reports the number of connections in a debate's room.
func (r *Registry) RoomSize(debateID int64) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.rooms[debateID])
}

// HasRoom reports whether a room exists for the debate id.
func (r *Registry) HasRoom(debateID int64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.rooms[debateID]
	return ok
}

func (r *Registry) safeSend(conn Conn, msg ws.Message) {
	if err := conn.WriteJSON(msg); err != nil {
		r.logger.Warn("websocket send failed", "error", err)
	}
}
