package widget

// State is the widget's exchange state: Idle, Sending or Errored.
type State interface {
	isState()
	String() string
}

// Idle means no request is in flight and the last attempt (if any) succeeded.
type Idle struct{}

// Sending means exactly one completion request is in flight.
type Sending struct{}

// Errored holds the failure of the last attempt until the next one starts.
type Errored struct {
	Message string
	Err     error
}

func (Idle) isState()    {}
func (Sending) isState() {}
func (Errored) isState() {}

func (Idle) String() string    { return "idle" }
func (Sending) String() string { return "sending" }
func (Errored) String() string { return "errored" }
