package notify

import (
	"sync"

	"github.com/Overland-East-Bay/ridebook/internal/ports/out/notify"
)

// Recorder keeps every notification it receives. It is safe for concurrent use.
type Recorder struct {
	mu  sync.Mutex
	got []notify.Notification
}

func NewRecorder() *Recorder {
	return &Recorder{}
}

func (r *Recorder) Notify(n notify.Notification) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.got = append(r.got, n)
}

// All returns a copy of the recorded notifications in arrival order.
func (r *Recorder) All() []notify.Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]notify.Notification, len(r.got))
	copy(out, r.got)
	return out
}

// BySource returns the recorded notifications from src.
func (r *Recorder) BySource(src notify.Source) []notify.Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []notify.Notification
	for _, n := range r.got {
		if n.Source == src {
			out = append(out, n)
		}
	}
	return out
}
