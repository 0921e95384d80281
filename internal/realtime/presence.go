package realtime

import "sync"

// presence tracks which users hold at least one live connection. A user
// can be connected from several tabs or devices at once, so the tracker
// keeps the full connection set per user and only reports offline when the
// last one is gone.
type presence struct {
	mu    sync.RWMutex
	conns map[string]map[string]struct{}
}

func newPresence() *presence {
	return &presence{conns: make(map[string]map[string]struct{})}
}

// add registers a connection and reports whether it was the user's first.
func (p *presence) add(userID, connID string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	set, ok := p.conns[userID]
	if !ok {
		set = make(map[string]struct{})
		p.conns[userID] = set
	}
	set[connID] = struct{}{}
	return len(set) == 1
}

// remove deregisters a connection and reports whether the user went
// offline as a result.
func (p *presence) remove(userID, connID string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	set, ok := p.conns[userID]
	if !ok {
		return false
	}
	delete(set, connID)
	if len(set) == 0 {
		delete(p.conns, userID)
		return true
	}
	return false
}

func (p *presence) online(userID string) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.conns[userID]) > 0
}

func (p *presence) users() []string {
	p.mu.RLock()
	defer p.mu.RUnlock()

	out := make([]string, 0, len(p.conns))
	for id := range p.conns {
		out = append(out, id)
	}
	return out
}
