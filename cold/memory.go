package cold

import "sync"

// MemoryStore is an in-memory cold tier: a map of envelopes behind a
// single RWMutex. Useful for tests and for deployments that want tiered
// semantics (admission gating, bounded hot tier) without durability.
type MemoryStore struct {
	mu      sync.RWMutex
	m       map[string][]byte
	maxSize int
}

// NewMemoryStore builds a memory-backed store. maxSize <= 0 means
// unbounded.
func NewMemoryStore(maxSize int) *MemoryStore {
	return &MemoryStore{
		m:       make(map[string][]byte),
		maxSize: maxSize,
	}
}

func (s *MemoryStore) Get(key string) (Record, bool, error) {
	s.mu.RLock()
	data, ok := s.m[key]
	s.mu.RUnlock()
	if !ok {
		return Record{}, false, nil
	}
	rec, err := unwrapRecord(data)
	if err != nil {
		return Record{}, false, err
	}
	// Copy the payload: the map entry may be replaced concurrently.
	p := make([]byte, len(rec.Payload))
	copy(p, rec.Payload)
	rec.Payload = p
	return rec, true, nil
}

func (s *MemoryStore) Put(key string, rec Record) error {
	data := wrapRecord(rec)

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.m[key]; !exists && s.maxSize > 0 && len(s.m) >= s.maxSize {
		return ErrFull
	}
	s.m[key] = data
	return nil
}

func (s *MemoryStore) Remove(key string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.m[key]; !ok {
		return false, nil
	}
	delete(s.m, key)
	return true, nil
}

func (s *MemoryStore) Clear() error {
	s.mu.Lock()
	s.m = make(map[string][]byte)
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Len() (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.m), nil
}

func (s *MemoryStore) SweepExpired(now int64) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for k, data := range s.m {
		if envelopeExpired(data, now) {
			delete(s.m, k)
			removed++
		}
	}
	return removed, nil
}

// Close is a no-op for the memory backend.
func (s *MemoryStore) Close() error { return nil }

var _ Store = (*MemoryStore)(nil)
