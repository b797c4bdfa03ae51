package Controllers

import (
	"context"
	"log"
	"sync"

	"Weighbridge/Models"
)

// RecentEntriesCache keeps the latest entries in memory, refreshed by a
// store watch so the list tracks writes from any station without polling.
type RecentEntriesCache struct {
	store Models.EntryStore
	limit int

	mu      sync.RWMutex
	entries []Models.CottonEntry

	cancel context.CancelFunc
	done   chan struct{}
}

func NewRecentEntriesCache(store Models.EntryStore, limit int) *RecentEntriesCache {
	if limit <= 0 {
		limit = 20
	}
	return &RecentEntriesCache{store: store, limit: limit}
}

// Start launches the watch. Safe to call once; Stop tears it down.
func (r *RecentEntriesCache) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	r.cancel = cancel
	r.done = make(chan struct{})

	go func() {
		defer close(r.done)
		err := r.store.Watch(ctx, r.limit, func(entries []Models.CottonEntry) {
			r.mu.Lock()
			r.entries = entries
			r.mu.Unlock()
		})
		if err != nil {
			log.Printf("Recent entries watch stopped: %v\n", err)
		}
	}()
}

// Stop cancels the watch and waits for it to finish, so no snapshot
// callback runs after Stop returns.
func (r *RecentEntriesCache) Stop() {
	if r.cancel == nil {
		return
	}
	r.cancel()
	<-r.done
	r.cancel = nil
}

// Entries returns a copy of the current list, newest first.
func (r *RecentEntriesCache) Entries() []Models.CottonEntry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Models.CottonEntry, len(r.entries))
	copy(out, r.entries)
	return out
}
