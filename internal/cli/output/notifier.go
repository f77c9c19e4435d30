package output

import (
	"sync"

	"github.com/Overland-East-Bay/ridebook/internal/ports/out/notify"
)

// Notifier prints notifications as they arrive.
// It is safe for concurrent use.
type Notifier struct {
	mu sync.Mutex
	p  *Printer
}

var _ notify.Notifier = (*Notifier)(nil)

func NewNotifier(p *Printer) *Notifier {
	return &Notifier{p: p}
}

func (n *Notifier) Notify(msg notify.Notification) {
	n.mu.Lock()
	defer n.mu.Unlock()
	switch msg.Level {
	case notify.LevelSuccess:
		n.p.Success("%s", msg.Message)
	case notify.LevelError:
		n.p.Error("%s", msg.Message)
	default:
		n.p.Info("%s", msg.Message)
	}
}
