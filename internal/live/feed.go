package live

import (
	"slices"
	"sync"

	"github.com/victornm/livescore/internal/domain"
)

// feed keeps the most recent ingested events.
type feed struct {
	mu      sync.Mutex
	limit   int
	entries []domain.FeedEntry
}

func newFeed(limit int) *feed {
	return &feed{limit: limit}
}

func (f *feed) add(e domain.FeedEntry) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.entries = append(f.entries, e)
	if over := len(f.entries) - f.limit; over > 0 {
		f.entries = slices.Delete(f.entries, 0, over)
	}
}

// recent returns up to n entries, newest first.
func (f *feed) recent(n int) []domain.FeedEntry {
	f.mu.Lock()
	defer f.mu.Unlock()

	n = min(n, len(f.entries))
	out := append(make([]domain.FeedEntry, 0, n), f.entries[len(f.entries)-n:]...)
	slices.Reverse(out)

	return out
}

func (f *feed) reset() {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.entries = nil
}
