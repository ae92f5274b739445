package keyword

import (
	"fmt"
	"sync/atomic"
)

// mockIndex answers every query with a fixed list of ordinals
type mockIndex struct {
	ords       []int
	matchError error
	closed     atomic.Bool
	queries    []string
}

func newMockIndex(ords ...int) *mockIndex {
	return &mockIndex{ords: ords}
}

func (f *mockIndex) Match(query string, limit int) ([]int, int, error) {
	if f.closed.Load() {
		return nil, 0, fmt.Errorf("index closed")
	}
	f.queries = append(f.queries, query)
	if f.matchError != nil {
		return nil, 0, f.matchError
	}
	if limit > 0 && len(f.ords) > limit {
		return f.ords[:limit], len(f.ords), nil
	}
	return f.ords, len(f.ords), nil
}

func (f *mockIndex) DocCount() (uint64, error) {
	return uint64(len(f.ords)), nil
}

func (f *mockIndex) Close() error {
	if f.closed.Swap(true) {
		return fmt.Errorf("already closed")
	}
	return nil
}
