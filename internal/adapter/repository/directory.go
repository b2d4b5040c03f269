package repository

import (
	"context"
	"sync"

	"github.com/eslsoft/hanguru/internal/entity"
)

// StaticReviewerDirectory serves reviewer identities from fixed pools,
// round-robin per type. Pools come from configuration; in production the
// directory would front an HR system.
type StaticReviewerDirectory struct {
	mu    sync.Mutex
	pools map[entity.ReviewerType][]string
	next  map[entity.ReviewerType]int
}

// NewStaticReviewerDirectory copies the provided pools.
func NewStaticReviewerDirectory(pools map[entity.ReviewerType][]string) *StaticReviewerDirectory {
	copied := make(map[entity.ReviewerType][]string, len(pools))
	for t, ids := range pools {
		copied[t] = append([]string(nil), ids...)
	}
	return &StaticReviewerDirectory{
		pools: copied,
		next:  make(map[entity.ReviewerType]int),
	}
}

func (d *StaticReviewerDirectory) Pick(_ context.Context, t entity.ReviewerType) (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	pool := d.pools[t]
	if len(pool) == 0 {
		return "", entity.ErrNoReviewersAvailable
	}
	idx := d.next[t] % len(pool)
	d.next[t]++
	return pool[idx], nil
}

func (d *StaticReviewerDirectory) Available(_ context.Context, t entity.ReviewerType) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.pools[t]) > 0
}
