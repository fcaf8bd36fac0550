// Package presence tracks which user currently owns which live realtime connection.
package presence

import (
	"sort"
	"sync"
)

// Registry maps a user to at most one live connection. The last connect wins: a
// reconnect overwrites the entry without waiting for the old connection to go away.
//
// The owner of every connection is captured at connect time so that a late disconnect
// of a replaced connection cannot remove the newer entry.
type Registry struct {
	mu sync.RWMutex

	// userID -> connection id currently targeted for that user
	users map[string]string

	// connection id -> userID captured at connect
	owners map[string]string
}

func NewRegistry() *Registry {
	return &Registry{
		users:  make(map[string]string),
		owners: make(map[string]string),
	}
}

// OnConnect records connID as userID's live connection
func (r *Registry) OnConnect(userID, connID string) {
	if userID == "" || connID == "" {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.users[userID] = connID
	r.owners[connID] = userID
}

// OnDisconnect forgets connID. The user's entry is removed only if it still points at
// connID; the returned userID is set and offline is true in that case.
func (r *Registry) OnDisconnect(connID string) (userID string, offline bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	userID, ok := r.owners[connID]
	if !ok {
		return "", false
	}
	delete(r.owners, connID)

	if r.users[userID] != connID {
		return userID, false
	}
	delete(r.users, userID)
	return userID, true
}

// Lookup returns the live connection for userID
func (r *Registry) Lookup(userID string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	connID, ok := r.users[userID]
	return connID, ok
}

// IsOnline reports whether userID has a live connection
func (r *Registry) IsOnline(userID string) bool {
	_, ok := r.Lookup(userID)
	return ok
}

// Snapshot returns every present user, sorted
func (r *Registry) Snapshot() []string {
	r.mu.RLock()
	users := make([]string, 0, len(r.users))
	for userID := range r.users {
		users = append(users, userID)
	}
	r.mu.RUnlock()

	sort.Strings(users)
	return users
}

// Len returns the number of present users
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.users)
}

// Reset drops every entry. Used on shutdown.
func (r *Registry) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.users = make(map[string]string)
	r.owners = make(map[string]string)
}
