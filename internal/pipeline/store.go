package pipeline

import (
	"fmt"
	"sort"
	"sync"
	"time"
)

// JobStore is the registry of jobs by id. Implementations must be safe for
// concurrent use: status and progress are written by the running pipeline
// while external callers read snapshots.
type JobStore interface {
	Create(job *Job) error
	Get(id string) (*Job, error)
	List(filter JobFilter) []*Job
	Delete(id string) error
}

// JobFilter narrows List results.
type JobFilter struct {
	Status JobStatus
	Since  time.Time
	Limit  int
}

// MemoryJobStore is the in-memory JobStore.
type MemoryJobStore struct {
	mu   sync.RWMutex
	jobs map[string]*Job
}

// NewMemoryJobStore creates an empty in-memory store.
func NewMemoryJobStore() *MemoryJobStore {
	return &MemoryJobStore{jobs: make(map[string]*Job)}
}

// Create registers a new job.
func (s *MemoryJobStore) Create(job *Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.jobs[job.ID]; exists {
		return fmt.Errorf("job %s already exists", job.ID)
	}
	s.jobs[job.ID] = job
	return nil
}

// Get retrieves a job by id. The returned pointer is the live job; callers
// must use its accessor methods.
func (s *MemoryJobStore) Get(id string) (*Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	job, exists := s.jobs[id]
	if !exists {
		return nil, fmt.Errorf("job %s not found", id)
	}
	return job, nil
}

// List returns jobs matching the filter, newest first.
func (s *MemoryJobStore) List(filter JobFilter) []*Job {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*Job
	for _, job := range s.jobs {
		if filter.Status != "" && job.GetStatus() != filter.Status {
			continue
		}
		if !filter.Since.IsZero() && job.CreatedAt.Before(filter.Since) {
			continue
		}
		result = append(result, job)
	}
	sort.Slice(result, func(i, k int) bool {
		return result[i].CreatedAt.After(result[k].CreatedAt)
	})
	if filter.Limit > 0 && len(result) > filter.Limit {
		result = result[:filter.Limit]
	}
	return result
}

// CleanupOldJobs removes terminal jobs whose completion is older than
// maxAge and returns the removed jobs so callers can delete their files.
func (s *MemoryJobStore) CleanupOldJobs(maxAge time.Duration) []*Job {
	cutoff := time.Now().Add(-maxAge)
	s.mu.Lock()
	defer s.mu.Unlock()

	var removed []*Job
	for id, job := range s.jobs {
		view := job.Snapshot()
		if !terminal(view.Status) {
			continue
		}
		if view.CompletedAt == nil || view.CompletedAt.After(cutoff) {
			continue
		}
		delete(s.jobs, id)
		removed = append(removed, job)
	}
	return removed
}

// Delete removes a job from the registry.
func (s *MemoryJobStore) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.jobs[id]; !exists {
		return fmt.Errorf("job %s not found", id)
	}
	delete(s.jobs, id)
	return nil
}
