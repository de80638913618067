package services

import (
	"sync"
	"sync/atomic"

	"sysmonitor/internal/models"
)

// SnapshotStore is the single latest-snapshot slot shared by the sampler
// and every consumer. Publish is one pointer swap, so a reader sees either
// the old snapshot or the new one, never a mix.
type SnapshotStore struct {
	latest atomic.Pointer[models.Snapshot]

	mu     sync.Mutex
	subs   map[int]chan *models.Snapshot
	nextID int
}

// NewSnapshotStore creates an empty store
func NewSnapshotStore() *SnapshotStore {
	return &SnapshotStore{subs: make(map[int]chan *models.Snapshot)}
}

// Latest returns the most recent snapshot, or the placeholder before the
// first publish. It never blocks on the sampler.
func (s *SnapshotStore) Latest() *models.Snapshot {
	if snap := s.latest.Load(); snap != nil {
		return snap
	}
	return models.EmptySnapshot()
}

// Publish replaces the current snapshot and notifies subscribers.
// Subscribers that have not drained the previous value get it replaced
// by the new one; Publish never waits on them.
func (s *SnapshotStore) Publish(snap *models.Snapshot) {
	s.latest.Store(snap)

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, ch := range s.subs {
		select {
		case <-ch:
		default:
		}
		ch <- snap
	}
}

// Subscribe returns a channel that always holds the newest unseen snapshot,
// and a cancel func that closes it.
func (s *SnapshotStore) Subscribe() (<-chan *models.Snapshot, func()) {
	ch := make(chan *models.Snapshot, 1)

	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.subs[id] = ch
	s.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.subs, id)
			s.mu.Unlock()
			close(ch)
		})
	}
	return ch, cancel
}
