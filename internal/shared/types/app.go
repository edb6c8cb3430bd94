package types

import "fmt"

// State is the canonical visibility state of an application.
// The integer values are part of the bus contract.
type State int

const (
	StateInactive     State = 0
	StateInForeground State = 1
	StateInBackground State = 2
	StatePaused       State = 3
)

// String returns the lowercase name used in logs, metrics and JSON
func (s State) String() string {
	switch s {
	case StateInactive:
		return "inactive"
	case StateInForeground:
		return "foreground"
	case StateInBackground:
		return "background"
	case StatePaused:
		return "paused"
	default:
		return "unknown"
	}
}

// MarshalText renders the state name in JSON documents
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText parses a state name produced by MarshalText
func (s *State) UnmarshalText(text []byte) error {
	for _, candidate := range []State{StateInactive, StateInForeground, StateInBackground, StatePaused} {
		if candidate.String() == string(text) {
			*s = candidate
			return nil
		}
	}
	return fmt.Errorf("unknown state %q", text)
}

// AppType classifies how an application reacts to being sent to the background
type AppType int

const (
	// AppTypeForeground apps are stopped when paused
	AppTypeForeground AppType = 0
	// AppTypeBackground apps have no UI of their own and are stopped when paused
	AppTypeBackground AppType = 1
	// AppTypeBackgroundable apps keep running when paused and are told via SIGUSR2
	AppTypeBackgroundable AppType = 2
)

// String returns the type name
func (t AppType) String() string {
	switch t {
	case AppTypeForeground:
		return "foreground"
	case AppTypeBackground:
		return "background"
	case AppTypeBackgroundable:
		return "backgroundable"
	default:
		return "foreground"
	}
}

// AppView is a read-only snapshot of an application for status surfaces
type AppView struct {
	Path        string  `json:"path"`
	Name        string  `json:"name"`
	Description string  `json:"description,omitempty"`
	Call        string  `json:"call"`
	Term        string  `json:"term,omitempty"`
	Type        AppType `json:"type"`
	AutoStart   bool    `json:"auto_start"`
	SystemApp   bool    `json:"system_app"`
	State       State   `json:"state"`
	PID         int     `json:"pid,omitempty"`
	Registered  bool    `json:"registered"`
	Snapshot    bool    `json:"snapshot"`
	Usage       *Usage  `json:"usage,omitempty"`
}

// Usage holds resource usage of a live application process
type Usage struct {
	RSSBytes   uint64  `json:"rss_bytes"`
	CPUPercent float64 `json:"cpu_percent"`
}

// Stats contains manager statistics
type Stats struct {
	TotalApps      int `json:"total_apps"`
	InactiveApps   int `json:"inactive_apps"`
	ForegroundApps int `json:"foreground_apps"`
	BackgroundApps int `json:"background_apps"`
	PausedApps     int `json:"paused_apps"`
	RegisteredApps int `json:"registered_apps"`
}

// ByState returns the counts keyed by state name
func (s Stats) ByState() map[string]int {
	return map[string]int{
		StateInactive.String():     s.InactiveApps,
		StateInForeground.String(): s.ForegroundApps,
		StateInBackground.String(): s.BackgroundApps,
		StatePaused.String():       s.PausedApps,
	}
}
