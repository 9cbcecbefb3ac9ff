package registry

// Event is the envelope pushed over a live connection.
// Type is used as the SSE "event:" name; Data is an arbitrary
// JSON-serialisable body.
type Event struct {
	Type string `json:"type"`
	Data any    `json:"data,omitempty"`
}
