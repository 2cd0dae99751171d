package services

import (
	"fmt"
	"sort"
	"sync"

	"github.com/custodia-labs/sercha-desk/internal/core/domain"
)

// IndexLock allows one indexing run per folder tree. Two roots conflict
// when one is the other or lies beneath it.
type IndexLock struct {
	mu   sync.Mutex
	held map[string]struct{}
}

// NewIndexLock creates an empty lock table.
func NewIndexLock() *IndexLock {
	return &IndexLock{held: make(map[string]struct{})}
}

// Acquire claims root. The returned release function is idempotent.
// Returns domain.ErrIndexInProgress when an overlapping root is held.
func (l *IndexLock) Acquire(root string) (func(), error) {
	root = domain.TrimTrailingSeparator(root)

	l.mu.Lock()
	defer l.mu.Unlock()

	for other := range l.held {
		if domain.PathIsUnder(root, other) || domain.PathIsUnder(other, root) {
			return nil, fmt.Errorf("%w: %s overlaps %s", domain.ErrIndexInProgress, root, other)
		}
	}
	l.held[root] = struct{}{}

	var once sync.Once
	return func() {
		once.Do(func() {
			l.mu.Lock()
			delete(l.held, root)
			l.mu.Unlock()
		})
	}, nil
}

// Held returns the roots currently locked, sorted.
func (l *IndexLock) Held() []string {
	l.mu.Lock()
	defer l.mu.Unlock()

	roots := make([]string, 0, len(l.held))
	for r := range l.held {
		roots = append(roots, r)
	}
	sort.Strings(roots)
	return roots
}
