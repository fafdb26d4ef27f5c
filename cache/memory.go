package cache

import (
	"container/list"
	"context"
	"sync"
	"time"
)

// MemoryStore is an in-process LRU with TTL, for tests and Redis-less
// deployments.
type MemoryStore struct {
	mu   sync.Mutex
	cap  int
	list *list.List               // front = most recent
	m    map[string]*list.Element // key -> element
}

type lruEntry struct {
	key   string
	entry Entry
	exp   time.Time
}

// NewMemoryStore creates a memory store holding at most capacity entries
func NewMemoryStore(capacity int) *MemoryStore {
	if capacity <= 0 {
		capacity = 1024
	}
	return &MemoryStore{cap: capacity, list: list.New(), m: make(map[string]*list.Element, capacity)}
}

func (s *MemoryStore) Get(_ context.Context, key string) (Entry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if el, ok := s.m[key]; ok {
		ent := el.Value.(lruEntry)
		if ent.exp.After(time.Now()) {
			s.list.MoveToFront(el)
			return ent.entry, true
		}
		// expired: remove
		s.list.Remove(el)
		delete(s.m, key)
	}
	return Entry{}, false
}

func (s *MemoryStore) Set(_ context.Context, key string, entry Entry, ttl time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if el, ok := s.m[key]; ok {
		el.Value = lruEntry{key: key, entry: entry, exp: time.Now().Add(ttl)}
		s.list.MoveToFront(el)
		return
	}
	el := s.list.PushFront(lruEntry{key: key, entry: entry, exp: time.Now().Add(ttl)})
	s.m[key] = el
	if s.list.Len() > s.cap {
		lru := s.list.Back()
		if lru != nil {
			ent := lru.Value.(lruEntry)
			delete(s.m, ent.key)
			s.list.Remove(lru)
		}
	}
}
