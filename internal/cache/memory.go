// internal/cache/memory.go
package cache

import (
	"container/list"
	"sync"
)

// lruTier is the bounded in-process tier. Least recently used entries are
// evicted once maxEntries is reached.
type lruTier struct {
	mu         sync.Mutex
	maxEntries int
	ll         *list.List
	items      map[string]*list.Element
}

type lruItem struct {
	hash  string
	entry *Entry
}

func newLRUTier(maxEntries int) *lruTier {
	return &lruTier{
		maxEntries: maxEntries,
		ll:         list.New(),
		items:      make(map[string]*list.Element),
	}
}

func (t *lruTier) get(hash string) (*Entry, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	el, ok := t.items[hash]
	if !ok {
		return nil, false
	}
	t.ll.MoveToFront(el)
	return el.Value.(*lruItem).entry, true
}

func (t *lruTier) put(hash string, entry *Entry) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if el, ok := t.items[hash]; ok {
		t.ll.MoveToFront(el)
		el.Value.(*lruItem).entry = entry
		return
	}

	el := t.ll.PushFront(&lruItem{hash: hash, entry: entry})
	t.items[hash] = el

	if t.ll.Len() > t.maxEntries {
		oldest := t.ll.Back()
		if oldest != nil {
			t.ll.Remove(oldest)
			delete(t.items, oldest.Value.(*lruItem).hash)
		}
	}
}

func (t *lruTier) delete(hash string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if el, ok := t.items[hash]; ok {
		t.ll.Remove(el)
		delete(t.items, hash)
	}
}

func (t *lruTier) len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.ll.Len()
}
