package pipeline

import "sync"

// Guard is an advisory per-key mutual-exclusion marker. It rejects a second
// concurrent run for the same task key instead of queueing it. Process-local
// only; a multi-instance deployment would need this externalized.
type Guard struct {
	mu   sync.Mutex
	held map[string]struct{}
}

func NewGuard() *Guard {
	return &Guard{held: make(map[string]struct{})}
}

// TryAcquire marks key as in flight. It returns false when the key is
// already held.
func (g *Guard) TryAcquire(key string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, ok := g.held[key]; ok {
		return false
	}
	g.held[key] = struct{}{}
	return true
}

// Release frees key. Safe to call for a key that is not held.
func (g *Guard) Release(key string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.held, key)
}
