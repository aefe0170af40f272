package analysiscache

import (
	"context"
	"sync"
	"time"

	"github.com/bowerhall/worklog/internal/logger"
)

const DefaultDebounce = 50 * time.Millisecond

type cacheDeleter interface {
	Delete(ctx context.Context, userID, businessDate string) (bool, error)
}

type key struct {
	userID       string
	businessDate string
}

// Batcher collapses bursts of invalidation signals into one purge per
// distinct (user, business date) key. Every log write schedules a key and
// re-arms the debounce timer; when the timer fires, all pending keys are
// invalidated in a single batch. A failed purge is logged and swallowed:
// the cache is a derived optimization and must never fail the write that
// triggered the signal.
type Batcher struct {
	deleter  cacheDeleter
	debounce time.Duration

	mu      sync.Mutex
	pending map[key]struct{}
	timer   *time.Timer
	closed  bool
}

func NewBatcher(deleter cacheDeleter, debounce time.Duration) *Batcher {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	return &Batcher{
		deleter:  deleter,
		debounce: debounce,
		pending:  make(map[key]struct{}),
	}
}

// ScheduleInvalidation queues a key and restarts the debounce window.
// Safe for concurrent use. After Close the purge runs inline so no signal
// is ever dropped during shutdown.
func (b *Batcher) ScheduleInvalidation(userID, businessDate string) {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		b.purge([]key{{userID, businessDate}})
		return
	}

	b.pending[key{userID, businessDate}] = struct{}{}
	if b.timer != nil {
		b.timer.Stop()
	}
	b.timer = time.AfterFunc(b.debounce, b.Flush)
	b.mu.Unlock()
}

// Flush invalidates every pending key immediately.
func (b *Batcher) Flush() {
	b.mu.Lock()
	if b.timer != nil {
		b.timer.Stop()
		b.timer = nil
	}
	keys := make([]key, 0, len(b.pending))
	for k := range b.pending {
		keys = append(keys, k)
	}
	b.pending = make(map[key]struct{})
	b.mu.Unlock()

	b.purge(keys)
}

// Close cancels the timer and flushes whatever is still pending.
func (b *Batcher) Close() {
	b.mu.Lock()
	b.closed = true
	b.mu.Unlock()

	b.Flush()
}

func (b *Batcher) purge(keys []key) {
	for _, k := range keys {
		if _, err := b.deleter.Delete(context.Background(), k.userID, k.businessDate); err != nil {
			logger.Warn("cache invalidation failed",
				"user", k.userID, "date", k.businessDate, "error", err)
		}
	}
}
