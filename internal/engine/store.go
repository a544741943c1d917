package engine

import (
	"fmt"
	"sync"

	secerrors "github.com/maher92-collab/securescan-pro/internal/shared/errors"
)

// MemoryStore is the in-memory Store backend. Readers always receive
// snapshots; writers go through Update, which also enforces the monotonic
// progress invariant. Job retention is left to the embedding application.
type MemoryStore struct {
	mu          sync.RWMutex
	jobs        map[string]*Job
	subscribers map[chan Job]struct{}
}

// NewMemoryStore creates an empty in-memory job store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		jobs:        make(map[string]*Job),
		subscribers: make(map[chan Job]struct{}),
	}
}

func (s *MemoryStore) Create(job *Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.jobs[job.ID]; exists {
		return fmt.Errorf("%w: duplicate job id %s", secerrors.ErrStorage, job.ID)
	}
	s.jobs[job.ID] = job.clone()
	s.broadcast(*job.clone())
	return nil
}

func (s *MemoryStore) Get(id string) (*Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	job, ok := s.jobs[id]
	if !ok {
		return nil, secerrors.ErrJobNotFound
	}
	return job.clone(), nil
}

// Update applies mutate under the store lock and returns the resulting
// snapshot. A mutation that would lower the progress value is clamped back to
// the previous value.
func (s *MemoryStore) Update(id string, mutate func(*Job)) (*Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[id]
	if !ok {
		return nil, secerrors.ErrJobNotFound
	}
	before := job.Progress
	mutate(job)
	if job.Progress < before {
		job.Progress = before
	}
	snapshot := job.clone()
	s.broadcast(*snapshot)
	return snapshot, nil
}

// Subscribe returns a channel receiving a snapshot for every job change, and
// an unsubscribe function. Slow consumers drop updates rather than block the
// store.
func (s *MemoryStore) Subscribe() (chan Job, func()) {
	ch := make(chan Job, 16)
	s.mu.Lock()
	s.subscribers[ch] = struct{}{}
	s.mu.Unlock()
	return ch, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if _, ok := s.subscribers[ch]; ok {
			delete(s.subscribers, ch)
			close(ch)
		}
	}
}

// broadcast is called with the store lock held.
func (s *MemoryStore) broadcast(job Job) {
	for ch := range s.subscribers {
		select {
		case ch <- job:
		default:
		}
	}
}

// Len returns the number of stored jobs.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.jobs)
}
