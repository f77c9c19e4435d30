// Package changefeed delivers state change notifications to subscribers in
// the order the changes were made.
package changefeed

import "sync"

type event[T any] struct {
	subs []func(T)
	v    T
}

// Feed queues change values and hands them to subscribers one at a time.
//
// The owner calls Publish while holding its own state lock, so queue order is
// state order, and Flush after releasing it. Whichever goroutine finds the
// feed idle delivers everything queued; a concurrent Flush returns at once and
// its values are delivered by the goroutine already draining. Subscribers
// therefore never see an older value after a newer one, and a subscriber may
// call back into the owner without deadlocking.
type Feed[T any] struct {
	mu       sync.Mutex
	subs     []func(T)
	pending  []event[T]
	draining bool
}

func (f *Feed[T]) Subscribe(fn func(T)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.subs = append(f.subs, fn)
}

// Publish queues v for the subscribers registered now.
func (f *Feed[T]) Publish(v T) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.subs) == 0 {
		return
	}
	f.pending = append(f.pending, event[T]{subs: f.subs[:len(f.subs):len(f.subs)], v: v})
}

// Flush delivers queued values unless another goroutine is already doing so.
func (f *Feed[T]) Flush() {
	f.mu.Lock()
	if f.draining {
		f.mu.Unlock()
		return
	}
	f.draining = true
	for len(f.pending) > 0 {
		ev := f.pending[0]
		f.pending = f.pending[1:]
		f.mu.Unlock()
		for _, fn := range ev.subs {
			fn(ev.v)
		}
		f.mu.Lock()
	}
	f.pending = nil
	f.draining = false
	f.mu.Unlock()
}
