package cache

import (
	"sync"

	"github.com/feedup/feedup-backend/internal/remote"
)

// Page is one page of a paginated read. TotalCount is a lower-bound estimate:
// on page 0 it is len(Items) plus one more page when HasMore, on later pages
// it is the local row count.
type Page[T any] struct {
	Items      []T
	HasMore    bool
	TotalCount int
	Page       int
}

// Pager tracks the remote pagination cursor per logical query scope. Scopes
// are caller-chosen strings (e.g. a recipe id plus sort option); distinct
// scopes paginate independently.
type Pager struct {
	mu      sync.Mutex
	cursors map[string]*remote.Cursor
}

// NewPager creates an empty Pager.
func NewPager() *Pager {
	return &Pager{cursors: make(map[string]*remote.Cursor)}
}

// Cursor returns the stored cursor for the scope, or nil when the scope was
// never primed or has been reset.
func (p *Pager) Cursor(scope string) *remote.Cursor {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.cursors[scope]
}

// Advance stores the cursor of the last returned page. An empty page (nil
// cursor) leaves the previous cursor in place.
func (p *Pager) Advance(scope string, c *remote.Cursor) {
	if c == nil {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.cursors[scope] = c
}

// Reset clears the cursor for the scope.
func (p *Pager) Reset(scope string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.cursors, scope)
}

// ResetAll clears every scope.
func (p *Pager) ResetAll() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.cursors = make(map[string]*remote.Cursor)
}
