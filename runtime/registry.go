package runtime

import (
	"flash-chat/domain"
	"sync"

	"github.com/google/uuid"
)

// Notifier receives a signal each time a room changes.
// Sends are non-blocking, so a buffer of one coalesces bursts.
type Notifier chan<- struct{}

// Registry tracks who watches which room.
type Registry struct {
	mu    sync.RWMutex
	rooms map[domain.RoomID]map[uuid.UUID]Notifier
}

func NewRegistry() *Registry {
	return &Registry{rooms: make(map[domain.RoomID]map[uuid.UUID]Notifier)}
}

// Subscribe registers a notifier for a room and returns its handle.
// If the room does not yet exist in the registry, it is initialized on the fly.
func (r *Registry) Subscribe(roomID domain.RoomID, notifier Notifier) uuid.UUID {
	r.mu.Lock()
	defer r.mu.Unlock()

	id := uuid.New()
	if _, ok := r.rooms[roomID]; !ok {
		r.rooms[roomID] = make(map[uuid.UUID]Notifier)
	}
	r.rooms[roomID][id] = notifier
	return id
}

// Unsubscribe removes a notifier and drops the room once nobody watches it.
func (r *Registry) Unsubscribe(roomID domain.RoomID, id uuid.UUID) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if watchers, ok := r.rooms[roomID]; ok {
		delete(watchers, id)
		if len(watchers) == 0 {
			delete(r.rooms, roomID)
		}
	}
}

// Notify signals every watcher of the room. A watcher that already has a
// pending signal is skipped; it will rescan anyway.
func (r *Registry) Notify(roomID domain.RoomID) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, notifier := range r.rooms[roomID] {
		select {
		case notifier <- struct{}{}:
		default:
		}
	}
}

// Watchers returns how many notifiers a room has.
func (r *Registry) Watchers(roomID domain.RoomID) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.rooms[roomID])
}
