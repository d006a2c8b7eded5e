package service

import (
	"sort"
	"sync"

	"lpool/internal/domain"
)

// PoolService keeps the latest snapshot of every pool for readers outside
// the sequencers.
type PoolService struct {
	mu        sync.RWMutex
	snapshots map[string]domain.PoolSnapshot
}

var _ domain.SnapshotObserver = (*PoolService)(nil)

// NewPoolService creates a new PoolService instance
func NewPoolService() *PoolService {
	return &PoolService{
		snapshots: make(map[string]domain.PoolSnapshot),
	}
}

// Observe records snap if it is newer than what is held for its pool. It is
// called from the sequencer loops, so readers never see an older state than
// the last applied operation.
func (s *PoolService) Observe(snap domain.PoolSnapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if cur, ok := s.snapshots[snap.Name]; ok && cur.Seq > snap.Seq {
		return
	}
	s.snapshots[snap.Name] = snap
}

// GetSnapshot returns the latest snapshot of a pool.
func (s *PoolService) GetSnapshot(name string) (domain.PoolSnapshot, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap, ok := s.snapshots[name]
	return snap, ok
}

// GetAll returns every pool's latest snapshot sorted by name
func (s *PoolService) GetAll() []domain.PoolSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]domain.PoolSnapshot, 0, len(s.snapshots))
	for _, snap := range s.snapshots {
		result = append(result, snap)
	}

	// Sort by name for consistent ordering
	sort.Slice(result, func(i, j int) bool {
		return result[i].Name < result[j].Name
	})

	return result
}
