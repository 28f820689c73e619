package stats

import (
	"context"
	"slices"
	"sync"
	"time"
)

type MemStore struct {
	mu sync.RWMutex
	m  map[string]TermCount
}

func NewMemStore() *MemStore {
	return &MemStore{m: map[string]TermCount{}}
}

func (s *MemStore) Ping(ctx context.Context) error { return nil }

func (s *MemStore) Record(ctx context.Context, term string, at time.Time) error {
	term = NormalizeTerm(term)
	if term == "" {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tc := s.m[term]
	tc.Term = term
	tc.Count++
	if at.After(tc.LastSearched) {
		tc.LastSearched = at
	}
	s.m[term] = tc
	return nil
}

func (s *MemStore) Counts(ctx context.Context) (map[string]int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]int64, len(s.m))
	for term, tc := range s.m {
		out[term] = tc.Count
	}
	return out, nil
}

func (s *MemStore) Top(ctx context.Context, limit int) ([]TermCount, error) {
	s.mu.RLock()
	out := make([]TermCount, 0, len(s.m))
	for _, tc := range s.m {
		out = append(out, tc)
	}
	s.mu.RUnlock()

	slices.SortFunc(out, byPopularity)
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
