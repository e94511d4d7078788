package cli

import (
	"context"
	"log/slog"
	"sync"

	"github.com/aretw0/automator/pkg/adapters/cache"
	"github.com/aretw0/automator/pkg/ports"
)

// Reloader keeps the cached condition catalog in sync with its source.
// It implements ports.Watchable itself: subscribers are signaled only after a
// change has been applied and the cache flushed.
type Reloader struct {
	source ports.Watchable
	apply  func(context.Context) error
	cache  *cache.Registry
	logger *slog.Logger

	mu   sync.Mutex
	subs map[chan struct{}]struct{}
}

// NewReloader creates a Reloader. apply may be nil when the source applies
// changes on its own before signaling.
func NewReloader(source ports.Watchable, apply func(context.Context) error, c *cache.Registry, logger *slog.Logger) *Reloader {
	return &Reloader{
		source: source,
		apply:  apply,
		cache:  c,
		logger: logger,
		subs:   make(map[chan struct{}]struct{}),
	}
}

// Run follows the source until ctx is done or the source closes.
func (r *Reloader) Run(ctx context.Context) error {
	changes, err := r.source.Watch(ctx)
	if err != nil {
		return err
	}
	for {
		select {
		case <-ctx.Done():
			return nil
		case _, ok := <-changes:
			if !ok {
				return nil
			}
			if r.apply != nil {
				if err := r.apply(ctx); err != nil {
					// Keep serving the previous catalog.
					r.logger.Error("Catalog reload failed", "err", err)
					continue
				}
			}
			r.cache.Invalidate()
			r.logger.Info("Condition catalog reloaded")
			r.notify()
		}
	}
}

// Watch implements ports.Watchable.
func (r *Reloader) Watch(ctx context.Context) (<-chan struct{}, error) {
	ch := make(chan struct{}, 1)
	r.mu.Lock()
	r.subs[ch] = struct{}{}
	r.mu.Unlock()

	go func() {
		<-ctx.Done()
		r.mu.Lock()
		delete(r.subs, ch)
		r.mu.Unlock()
		close(ch)
	}()
	return ch, nil
}

func (r *Reloader) notify() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for ch := range r.subs {
		select {
		case ch <- struct{}{}:
		default:
			// A pending signal already covers this reload.
		}
	}
}
