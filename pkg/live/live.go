// Package live turns change signals from a document store into a lazy,
// cancellable sequence of snapshots.
package live

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Snapshot is a point-in-time copy of a live-synced query.
type Snapshot[T any] struct {
	Items []T       `json:"items"`
	At    time.Time `json:"at"`
}

// FetchFunc produces the current result of the subscribed query.
type FetchFunc[T any] func(ctx context.Context) ([]T, error)

// Subscription delivers snapshots on C until Cancel is called or the parent
// context ends, after which C is closed. Delivery is latest-wins: a consumer
// that falls behind skips straight to the newest snapshot.
type Subscription[T any] struct {
	C <-chan Snapshot[T]

	cancel context.CancelFunc
	done   chan struct{}
}

// Cancel stops the subscription and waits for its goroutine to exit.
func (s *Subscription[T]) Cancel() {
	s.cancel()
	<-s.done
}

// Done is closed once the subscription has fully stopped.
func (s *Subscription[T]) Done() <-chan struct{} {
	return s.done
}

// Start fetches an initial snapshot and refetches after every signal on
// changes. stop, if not nil, is called once when the subscription ends so the
// change source can release its resources. Fetch errors are logged and the
// previous snapshot stays current until the next signal.
func Start[T any](ctx context.Context, fetch FetchFunc[T], changes <-chan struct{}, stop func(), logger *zap.Logger) *Subscription[T] {
	ctx, cancel := context.WithCancel(ctx)
	out := make(chan Snapshot[T], 1)
	s := &Subscription[T]{C: out, cancel: cancel, done: make(chan struct{})}

	go func() {
		defer close(s.done)
		defer close(out)
		if stop != nil {
			defer stop()
		}

		emit := func() {
			items, err := fetch(ctx)
			if err != nil {
				if ctx.Err() == nil {
					logger.Warn("Live snapshot fetch failed", zap.Error(err))
				}
				return
			}
			snap := Snapshot[T]{Items: items, At: time.Now().UTC()}
			// Replace any undelivered snapshot with the newer one.
			select {
			case <-out:
			default:
			}
			select {
			case out <- snap:
			case <-ctx.Done():
			}
		}

		emit()
		for {
			select {
			case <-ctx.Done():
				return
			case _, ok := <-changes:
				if !ok {
					return
				}
				emit()
			}
		}
	}()

	return s
}

// Hub is an in-process change notifier keyed by collection name. Listeners
// get a buffered signal channel; bursts of changes coalesce into one signal.
type Hub struct {
	mu        sync.Mutex
	listeners map[string]map[chan struct{}]struct{}
}

func NewHub() *Hub {
	return &Hub{listeners: make(map[string]map[chan struct{}]struct{})}
}

// Listen registers for changes on collection. The returned func unregisters
// and closes the channel.
func (h *Hub) Listen(collection string) (<-chan struct{}, func()) {
	ch := make(chan struct{}, 1)

	h.mu.Lock()
	if h.listeners[collection] == nil {
		h.listeners[collection] = make(map[chan struct{}]struct{})
	}
	h.listeners[collection][ch] = struct{}{}
	h.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.listeners[collection], ch)
			h.mu.Unlock()
			close(ch)
		})
	}
}

// Notify signals every listener on collection without blocking.
func (h *Hub) Notify(collection string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.listeners[collection] {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

// Listeners reports how many subscriptions are attached to collection.
func (h *Hub) Listeners(collection string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.listeners[collection])
}
