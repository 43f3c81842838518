// Package conversation tracks a story's exchange with the model as an ordered
// list of turns and serializes ranges of it into provider wire messages.
package conversation

import "strings"

// Turn is one user request and the model's response to it.
type Turn struct {
	// Request is the text supplied by the user for this step.
	Request string `json:"request"`

	// Response is the model's reply. Empty means the turn is still awaiting one.
	Response string `json:"response,omitempty"`
}

// Awaiting reports whether the turn has no response yet.
func (t Turn) Awaiting() bool {
	return strings.TrimSpace(t.Response) == ""
}

// Message is a single role-tagged entry of a provider prompt.
type Message struct {
	Author  string `json:"author"`
	Content string `json:"content"`
}
