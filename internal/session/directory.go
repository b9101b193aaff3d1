// Package session maps logical user ids to live websocket connection ids.
// The mapping is process-local and rebuilt from zero on restart: existing
// clients must re-handshake, so it is a cache of who is reachable right now,
// never a source of truth.
package session

import "sync"

// Directory is a concurrency-safe connection↔user registry. A user may hold
// zero, one or many simultaneous connections (multi-device).
type Directory struct {
	mu         sync.RWMutex
	connToUser map[string]string
}

func NewDirectory() *Directory {
	return &Directory{connToUser: make(map[string]string)}
}

// Bind registers a connection for a user after a successful handshake.
func (d *Directory) Bind(connID, userID string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.connToUser[connID] = userID
}

// Unbind removes a connection and returns the user it belonged to.
func (d *Directory) Unbind(connID string) (string, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	userID, ok := d.connToUser[connID]
	if ok {
		delete(d.connToUser, connID)
	}
	return userID, ok
}

// Resolve returns all live connection ids for a user; empty means offline.
func (d *Directory) Resolve(userID string) []string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	var out []string
	for conn, uid := range d.connToUser {
		if uid == userID {
			out = append(out, conn)
		}
	}
	return out
}

// UserFor returns the user bound to a connection.
func (d *Directory) UserFor(connID string) (string, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	userID, ok := d.connToUser[connID]
	return userID, ok
}
