package app

// Kind identifies an application notification. The string form is the bus
// signal name.
type Kind int

const (
	Launched Kind = iota
	Paused
	Resumed
	Signaled
	Unregistered
	Exited
)

func (k Kind) String() string {
	switch k {
	case Launched:
		return "launched"
	case Paused:
		return "paused"
	case Resumed:
		return "resumed"
	case Signaled:
		return "signaled"
	case Unregistered:
		return "unregistered"
	case Exited:
		return "exited"
	default:
		return "unknown"
	}
}

// Notification is delivered to subscribers on the event loop
type Notification struct {
	Path string
	Name string
	Kind Kind
	// StartIfNone is set on Paused: the caller wants a fallback launched
	// if nothing else is in the foreground. The application never acts on it.
	StartIfNone bool
	Signal      int32
	ExitCode    int32
}

func (n Notification) args() []any {
	switch n.Kind {
	case Signaled:
		return []any{n.Signal}
	case Exited:
		return []any{n.ExitCode}
	default:
		return nil
	}
}
