package application

import (
	"sync"
	"time"

	"github.com/example/room-booking/internal/scheduler"
)

// catalogCache holds the most recently loaded room catalog so that
// availability searches do not reload it on every request. Writes to the
// catalog invalidate it.
type catalogCache struct {
	mu        sync.RWMutex
	now       func() time.Time
	ttl       time.Duration
	rooms     []Room
	expiresAt time.Time
	loaded    bool
}

func newCatalogCache(ttl time.Duration, now func() time.Time) *catalogCache {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	if now == nil {
		now = time.Now
	}
	return &catalogCache{now: now, ttl: ttl}
}

func (c *catalogCache) Get() ([]Room, bool) {
	if c == nil {
		return nil, false
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	if !c.loaded || c.now().After(c.expiresAt) {
		return nil, false
	}
	return cloneRooms(c.rooms), true
}

func (c *catalogCache) Store(rooms []Room) {
	if c == nil {
		return
	}
	cloned := cloneRooms(rooms)
	c.mu.Lock()
	c.rooms = cloned
	c.expiresAt = c.now().Add(c.ttl)
	c.loaded = true
	c.mu.Unlock()
}

func (c *catalogCache) Invalidate() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.rooms = nil
	c.loaded = false
	c.mu.Unlock()
}

func cloneRooms(rooms []Room) []Room {
	if len(rooms) == 0 {
		return nil
	}
	out := make([]Room, len(rooms))
	for i, room := range rooms {
		room.Equipment = scheduler.NewEquipmentSet(room.Equipment.Slice()...)
		out[i] = room
	}
	return out
}
