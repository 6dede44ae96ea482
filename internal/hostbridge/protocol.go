package hostbridge

// Frame types exchanged with a remote host
const (
	FrameInit   = "init"   // host -> widget, first frame: mount with credential/input
	FrameUpdate = "update" // host -> widget: configuration changed
	FrameRead   = "read"   // host -> widget: ask for the current output
	FrameOutput = "output" // widget -> host: response text
	FrameError  = "error"  // widget -> host: protocol misuse
)

// Frame is the single JSON message shape on the host socket
type Frame struct {
	Type       string `json:"type"`
	Credential string `json:"credential,omitempty"`
	Input      string `json:"input,omitempty"`
	Text       string `json:"text,omitempty"`
}
