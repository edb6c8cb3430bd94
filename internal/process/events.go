package process

// Phase is the runtime phase of a supervised process
type Phase int

const (
	PhaseNotStarted Phase = iota
	PhaseStarting
	PhaseRunning
	PhaseNotRunning
)

// String returns the phase name
func (p Phase) String() string {
	switch p {
	case PhaseNotStarted:
		return "not-started"
	case PhaseStarting:
		return "starting"
	case PhaseRunning:
		return "running"
	case PhaseNotRunning:
		return "not-running"
	default:
		return "unknown"
	}
}

// ErrorKind classifies process failures
type ErrorKind int

const (
	ErrorNone ErrorKind = iota
	// ErrorFailedToStart means the command could not be executed
	ErrorFailedToStart
	// ErrorCrashed means the process was terminated by a signal
	ErrorCrashed
)

// String returns the error kind name
func (k ErrorKind) String() string {
	switch k {
	case ErrorNone:
		return "none"
	case ErrorFailedToStart:
		return "failed-to-start"
	case ErrorCrashed:
		return "crashed"
	default:
		return "unknown"
	}
}

// Stream identifies a child output stream
type Stream int

const (
	Stdout Stream = iota
	Stderr
)

// String returns the stream name
func (s Stream) String() string {
	if s == Stderr {
		return "stderr"
	}
	return "stdout"
}

// Event is a process notification delivered on the event loop
type Event interface {
	event()
}

// Started is delivered once the child is running
type Started struct {
	PID int
}

// Finished is delivered after the child has been reaped.
// ExitCode is the exit status, or the signal number when Signaled.
type Finished struct {
	PID      int
	ExitCode int
	Signaled bool
}

// PhaseChanged is delivered on every phase transition
type PhaseChanged struct {
	Phase Phase
}

// ErrorOccurred is delivered when the child fails to start or crashes
type ErrorOccurred struct {
	Kind ErrorKind
	Err  error
}

// Output carries bytes read from one of the child's output streams
type Output struct {
	PID    int
	Stream Stream
	Data   []byte
}

// StreamClosed is delivered when an output stream reaches EOF
type StreamClosed struct {
	PID    int
	Stream Stream
}

func (Started) event()       {}
func (Finished) event()      {}
func (PhaseChanged) event()  {}
func (ErrorOccurred) event() {}
func (Output) event()        {}
func (StreamClosed) event()  {}
