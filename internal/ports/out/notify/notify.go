package notify

// Level is the severity of a user-facing notification.
type Level string

const (
	LevelInfo    Level = "info"
	LevelSuccess Level = "success"
	LevelError   Level = "error"
)

// Source names the component a notification originates from.
type Source string

const (
	SourceSession Source = "session"
	SourcePickup  Source = "pickup"
	SourceDropoff Source = "dropoff"
	SourceRoute   Source = "route"
	SourceBooking Source = "booking"
	SourceHistory Source = "history"
)

// Notification is a short message meant for the end user (a "toast").
type Notification struct {
	Level   Level
	Source  Source
	Message string
}

// Notifier delivers notifications. Implementations must not block for long:
// they are called from state transitions.
type Notifier interface {
	Notify(n Notification)
}

// Discard drops every notification.
type Discard struct{}

func (Discard) Notify(Notification) {}
