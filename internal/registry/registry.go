// Package registry tracks the connections the acceptor has admitted.
//
// Entries keep insertion order.  By default nothing is ever removed, so
// Len counts every connection accepted over the process lifetime, not
// the ones still connected; sessions built with eviction enabled call
// Remove when they close.
package registry

import (
	"net"
	"sync"
	"time"
)

// Entry is one accepted connection.
type Entry struct {
	ID     uint64    // stable per-connection id, starting at 1
	Conn   net.Conn  // the accepted connection
	Remote string    // peer "ip:port", for logs only
	Since  time.Time // accept time
}

// Registry is an insertion-ordered set of accepted connections.  It is
// safe for concurrent use.
type Registry struct {
	mu      sync.RWMutex
	nextID  uint64
	entries []*Entry
	byID    map[uint64]*Entry
	byConn  map[net.Conn]*Entry
}

// New returns an empty registry.
func New() *Registry {
	return &Registry{
		byID:   make(map[uint64]*Entry),
		byConn: make(map[net.Conn]*Entry),
	}
}

// Add appends conn and returns its entry.  Adding a conn that is
// already present returns the existing entry unchanged.
func (r *Registry) Add(conn net.Conn) *Entry {
	r.mu.Lock()
	defer r.mu.Unlock()

	if e, ok := r.byConn[conn]; ok {
		return e
	}

	r.nextID++
	e := &Entry{
		ID:    r.nextID,
		Conn:  conn,
		Since: time.Now(),
	}
	if ra := conn.RemoteAddr(); ra != nil {
		e.Remote = ra.String()
	}
	r.entries = append(r.entries, e)
	r.byID[e.ID] = e
	r.byConn[conn] = e
	return e
}

// Remove drops the entry with the given id.  It reports whether an
// entry was removed.
func (r *Registry) Remove(id uint64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.byID[id]
	if !ok {
		return false
	}
	delete(r.byID, id)
	delete(r.byConn, e.Conn)
	for i, cur := range r.entries {
		if cur.ID == id {
			r.entries = append(r.entries[:i], r.entries[i+1:]...)
			break
		}
	}
	return true
}

// Get returns the entry with the given id.
func (r *Registry) Get(id uint64) (*Entry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.byID[id]
	return e, ok
}

// List returns a snapshot of the entries in insertion order.
func (r *Registry) List() []Entry {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Entry, len(r.entries))
	for i, e := range r.entries {
		out[i] = *e
	}
	return out
}

// Len returns the number of entries.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}
