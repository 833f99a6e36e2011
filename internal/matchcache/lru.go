package matchcache

import (
	"sync"

	lru "github.com/hashicorp/golang-lru"
)

// LRU is the in-process Cache backend for a single run: a bounded
// least-recently-used map of Key to the records it produced.
type LRU struct {
	cache *lru.Cache

	mu    sync.Mutex
	bySeq map[string]map[Key]struct{}
}

// NewLRU builds an LRU cache holding at most size entries.
func NewLRU(size int) (*LRU, error) {
	c, err := lru.New(size)
	if err != nil {
		return nil, err
	}
	return &LRU{cache: c, bySeq: make(map[string]map[Key]struct{})}, nil
}

func (l *LRU) Get(key Key) ([]Record, bool) {
	v, ok := l.cache.Get(key)
	if !ok {
		return nil, false
	}
	return v.([]Record), true
}

func (l *LRU) Put(key Key, records []Record) {
	l.cache.Add(key, records)

	l.mu.Lock()
	defer l.mu.Unlock()
	set, ok := l.bySeq[key.SeqID]
	if !ok {
		set = make(map[Key]struct{})
		l.bySeq[key.SeqID] = set
	}
	set[key] = struct{}{}
}

func (l *LRU) Clear(seqID string) {
	l.mu.Lock()
	keys := l.bySeq[seqID]
	delete(l.bySeq, seqID)
	l.mu.Unlock()

	for k := range keys {
		l.cache.Remove(k)
	}
}
