// Package repository provides the concrete stores behind the repository
// contracts: in-memory stores for per-process pipelines and tests, and a
// sqlite-backed archive for the CLI.
package repository

import (
	"context"
	"sort"
	"sync"

	"github.com/eslsoft/hanguru/internal/entity"
	"github.com/eslsoft/hanguru/internal/repository"
)

// MemorySubmissionStore keeps active submissions in process memory guarded
// by a single lock. Update runs its mutation under that lock, which is what
// makes near-simultaneous reviewer completions safe.
type MemorySubmissionStore struct {
	mu   sync.RWMutex
	subs map[string]*entity.Submission
}

// NewMemorySubmissionStore returns an empty store.
func NewMemorySubmissionStore() *MemorySubmissionStore {
	return &MemorySubmissionStore{subs: make(map[string]*entity.Submission)}
}

func (s *MemorySubmissionStore) Create(_ context.Context, sub *entity.Submission) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.subs[sub.ID]; ok {
		return entity.ErrSubmissionExists
	}
	s.subs[sub.ID] = sub.Clone()
	return nil
}

func (s *MemorySubmissionStore) Get(_ context.Context, id string) (*entity.Submission, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sub, ok := s.subs[id]
	if !ok {
		return nil, entity.ErrSubmissionNotFound
	}
	return sub.Clone(), nil
}

func (s *MemorySubmissionStore) Update(_ context.Context, id string, fn func(*entity.Submission) error) (*entity.Submission, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sub, ok := s.subs[id]
	if !ok {
		return nil, entity.ErrSubmissionNotFound
	}
	if err := fn(sub); err != nil {
		return nil, err
	}
	return sub.Clone(), nil
}

func (s *MemorySubmissionStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.subs[id]; !ok {
		return entity.ErrSubmissionNotFound
	}
	delete(s.subs, id)
	return nil
}

func (s *MemorySubmissionStore) List(_ context.Context, query repository.ListSubmissionQuery) ([]*entity.Submission, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*entity.Submission
	for _, sub := range s.subs {
		if matchesQuery(sub, query) {
			out = append(out, sub.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return paginate(out, query), nil
}

// MemoryArchiveStore is the in-memory ArchiveStore used by tests.
type MemoryArchiveStore struct {
	mu   sync.RWMutex
	subs map[string]*entity.Submission
}

// NewMemoryArchiveStore returns an empty archive.
func NewMemoryArchiveStore() *MemoryArchiveStore {
	return &MemoryArchiveStore{subs: make(map[string]*entity.Submission)}
}

func (s *MemoryArchiveStore) Save(_ context.Context, sub *entity.Submission) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subs[sub.ID] = sub.Clone()
	return nil
}

func (s *MemoryArchiveStore) Get(_ context.Context, id string) (*entity.Submission, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sub, ok := s.subs[id]
	if !ok {
		return nil, entity.ErrSubmissionNotFound
	}
	return sub.Clone(), nil
}

func (s *MemoryArchiveStore) List(_ context.Context, query repository.ListSubmissionQuery) ([]*entity.Submission, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*entity.Submission
	for _, sub := range s.subs {
		if matchesQuery(sub, query) {
			out = append(out, sub.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return paginate(out, query), nil
}

func (s *MemoryArchiveStore) Count(_ context.Context, query repository.ListSubmissionQuery) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var count int64
	for _, sub := range s.subs {
		if matchesQuery(sub, query) {
			count++
		}
	}
	return count, nil
}

func matchesQuery(sub *entity.Submission, query repository.ListSubmissionQuery) bool {
	if query.Status != "" && sub.Status != query.Status {
		return false
	}
	if query.SubmitterID != "" && sub.SubmitterID != query.SubmitterID {
		return false
	}
	return true
}

func paginate(subs []*entity.Submission, query repository.ListSubmissionQuery) []*entity.Submission {
	if query.Offset > 0 {
		if query.Offset >= len(subs) {
			return nil
		}
		subs = subs[query.Offset:]
	}
	if query.Limit > 0 && query.Limit < len(subs) {
		subs = subs[:query.Limit]
	}
	return subs
}
