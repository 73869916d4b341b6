package database

import (
	"context"
	"sort"
	"sync"
)

// MemoryStore keeps tracking records in process memory.
type MemoryStore struct {
	mu     sync.RWMutex
	nextID int64
	titles map[int64]string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{titles: make(map[int64]string)}
}

func (s *MemoryStore) CreateRecord(_ context.Context, title string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	s.titles[s.nextID] = title
	return s.nextID, nil
}

func (s *MemoryStore) MissingRecords(_ context.Context, ids []int64) ([]int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var missing []int64
	for _, id := range ids {
		if _, ok := s.titles[id]; !ok {
			missing = append(missing, id)
		}
	}
	sort.Slice(missing, func(i, j int) bool { return missing[i] < missing[j] })
	return missing, nil
}

func (s *MemoryStore) RecordTitles(_ context.Context, ids []int64) (map[int64]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	titles := make(map[int64]string, len(ids))
	for _, id := range ids {
		if title, ok := s.titles[id]; ok {
			titles[id] = title
		}
	}
	return titles, nil
}
