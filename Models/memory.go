package Models

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryStore is an in-memory EntryStore used by the test suite. It keys
// documents by document ID like Firestore does, so legacy generated-ID
// records (and therefore duplicate tokens) can be simulated. Write counters
// and error injection let tests assert that failed or rejected operations
// produced no writes.
type MemoryStore struct {
	mu       sync.RWMutex
	docs     map[string]CottonEntry
	order    []string // insertion order of document IDs, for deterministic queries
	watchers map[int]chan struct{}
	nextID   int

	PutCalls   int
	MergeCalls int
	FailWith   error // when set, the next write returns this error
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		docs:     make(map[string]CottonEntry),
		watchers: make(map[int]chan struct{}),
	}
}

// SeedLegacy inserts an entry under an arbitrary document ID, the way the
// earlier generated-ID deployment stored records.
func (s *MemoryStore) SeedLegacy(docID string, entry CottonEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.docs[docID]; !ok {
		s.order = append(s.order, docID)
	}
	entry.LastUpdatedAt = time.Now().UTC()
	s.docs[docID] = entry
}

func (s *MemoryStore) Put(ctx context.Context, entry CottonEntry) error {
	s.mu.Lock()
	if s.FailWith != nil {
		err := s.FailWith
		s.FailWith = nil
		s.mu.Unlock()
		return err
	}
	s.PutCalls++
	if _, ok := s.docs[entry.TokenNo]; !ok {
		s.order = append(s.order, entry.TokenNo)
	}
	entry.LastUpdatedAt = time.Now().UTC()
	s.docs[entry.TokenNo] = entry
	s.mu.Unlock()
	s.notify()
	return nil
}

func (s *MemoryStore) Merge(ctx context.Context, tokenNo string, fields map[string]interface{}) error {
	s.mu.Lock()
	if s.FailWith != nil {
		err := s.FailWith
		s.FailWith = nil
		s.mu.Unlock()
		return err
	}
	s.MergeCalls++
	entry := s.docs[tokenNo]
	if entry.TokenNo == "" {
		entry.TokenNo = tokenNo
		s.order = append(s.order, tokenNo)
	}
	applyFields(&entry, fields)
	entry.LastUpdatedAt = time.Now().UTC()
	s.docs[tokenNo] = entry
	s.mu.Unlock()
	s.notify()
	return nil
}

func (s *MemoryStore) Get(ctx context.Context, tokenNo string) (CottonEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entry, ok := s.docs[tokenNo]
	if !ok {
		return CottonEntry{}, ErrNotFound
	}
	return entry, nil
}

func (s *MemoryStore) QueryByToken(ctx context.Context, tokenNo string) ([]CottonEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var matches []CottonEntry
	for _, id := range s.order {
		if entry := s.docs[id]; entry.TokenNo == tokenNo {
			matches = append(matches, entry)
		}
	}
	return matches, nil
}

func (s *MemoryStore) All(ctx context.Context) ([]CottonEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entries := make([]CottonEntry, 0, len(s.docs))
	for _, id := range s.order {
		entries = append(entries, s.docs[id])
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].ItemName < entries[j].ItemName
	})
	return entries, nil
}

func (s *MemoryStore) Watch(ctx context.Context, limit int, fn func([]CottonEntry)) error {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	ch := make(chan struct{}, 1)
	s.watchers[id] = ch
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		delete(s.watchers, id)
		s.mu.Unlock()
	}()

	fn(s.recent(limit))
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ch:
			fn(s.recent(limit))
		}
	}
}

func (s *MemoryStore) recent(limit int) []CottonEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entries := make([]CottonEntry, 0, len(s.docs))
	for _, entry := range s.docs {
		entries = append(entries, entry)
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].LastUpdatedAt.After(entries[j].LastUpdatedAt)
	})
	if len(entries) > limit {
		entries = entries[:limit]
	}
	return entries
}

func (s *MemoryStore) notify() {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, ch := range s.watchers {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

// applyFields mirrors a Firestore merge write onto the in-memory struct.
// Field names use the stored spelling.
func applyFields(entry *CottonEntry, fields map[string]interface{}) {
	for name, value := range fields {
		switch name {
		case "billingDate":
			entry.BillingDate = value.(string)
		case "tokenNo":
			entry.TokenNo = value.(string)
		case "itemName":
			entry.ItemName = value.(string)
		case "farmerName":
			entry.FarmerName = value.(string)
		case "village":
			entry.Village = value.(string)
		case "vehicleNo":
			entry.VehicleNo = value.(string)
		case "grossWt":
			entry.GrossWt = value.(float64)
		case "tareWt":
			entry.TareWt = toFloatPtr(value)
		case "rate":
			entry.Rate = toFloatPtr(value)
		case "amountPaid":
			entry.AmountPaid = toFloatPtr(value)
		case "netWt":
			entry.NetWt = toFloatPtr(value)
		case "netWtAfterDeduction":
			entry.NetWtAfterDeduction = toFloatPtr(value)
		case "hamaliDeduction":
			entry.HamaliDeduction = toFloatPtr(value)
		case "weighmentCharges":
			entry.WeighmentCharges = toFloatPtr(value)
		case "lessDeduction":
			entry.LessDeduction = toFloatPtr(value)
		case "grossAmount":
			entry.GrossAmount = toFloatPtr(value)
		case "netAmount":
			entry.NetAmount = toFloatPtr(value)
		case "toBePaidAmount":
			entry.ToBePaidAmount = toFloatPtr(value)
		case "status":
			entry.Status = value.(string)
		case "lastUpdatedAt":
			// server timestamp sentinel, stamped below
		}
	}
}

func toFloatPtr(value interface{}) *float64 {
	switch v := value.(type) {
	case float64:
		return &v
	case *float64:
		return v
	}
	return nil
}
