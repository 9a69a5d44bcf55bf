package bus

import "time"

// Channel names. These are the wire contract shared with plugins.
const (
	TopicToolActivate = "tool-activate"
	TopicToolResult   = "tool-result"
)

// Activation announces that a tool was activated.
type Activation struct {
	ToolID string `json:"toolId"`
}

// Result reports the output of a completed tool run.
type Result struct {
	ToolID string `json:"toolId"`
	Result string `json:"result"`
}

// Message is the envelope delivered to subscribers.
type Message struct {
	// ID uniquely identifies this message instance.
	ID string

	// Topic is the channel the message was published on.
	Topic string

	// Time is when the message was published.
	Time time.Time

	// Payload is an Activation or a Result, matching Topic.
	Payload any
}

// ActivationPayload returns the payload as an Activation.
func (m Message) ActivationPayload() (Activation, bool) {
	a, ok := m.Payload.(Activation)
	return a, ok
}

// ResultPayload returns the payload as a Result.
func (m Message) ResultPayload() (Result, bool) {
	r, ok := m.Payload.(Result)
	return r, ok
}
