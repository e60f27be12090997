package availability

import (
	"context"
	"sort"
	"sync"

	id "tabrela/pkg/domain"
)

// MemoryPool keeps pools in process. Used when no Redis URL is configured
// and in tests.
type MemoryPool struct {
	mu    sync.RWMutex
	pools map[id.EventID]map[id.UserID]struct{}
}

func NewMemoryPool() *MemoryPool {
	return &MemoryPool{pools: make(map[id.EventID]map[id.UserID]struct{})}
}

func (p *MemoryPool) IsAvailable(_ context.Context, eventID id.EventID, userID id.UserID) (bool, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	_, ok := p.pools[eventID][userID]
	return ok, nil
}

func (p *MemoryPool) Available(_ context.Context, eventID id.EventID) ([]id.UserID, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]id.UserID, 0, len(p.pools[eventID]))
	for u := range p.pools[eventID] {
		out = append(out, u)
	}
	sortUsers(out)
	return out, nil
}

func (p *MemoryPool) Replace(_ context.Context, eventID id.EventID, users []id.UserID) error {
	set := make(map[id.UserID]struct{}, len(users))
	for _, u := range users {
		set[u] = struct{}{}
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.pools[eventID] = set
	return nil
}

func sortUsers(users []id.UserID) {
	sort.Slice(users, func(i, j int) bool { return users[i].String() < users[j].String() })
}
