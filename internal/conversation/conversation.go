package conversation

import "errors"

// End selects the position after the latest turn when used as a range bound.
const End = -1

var (
	ErrEmptyConversation = errors.New("conversation has no turns")
	ErrTurnFinalized     = errors.New("latest turn already has a response")
)

// Conversation is an append-only, chronologically ordered list of turns.
// It is not safe for concurrent use; callers serialize appends.
type Conversation struct {
	turns []Turn
}

// New creates an empty conversation.
func New() *Conversation {
	return &Conversation{}
}

// Append adds a turn after the latest one.
func (c *Conversation) Append(t Turn) {
	c.turns = append(c.turns, t)
}

// Len returns the number of turns.
func (c *Conversation) Len() int {
	return len(c.turns)
}

// Turns returns a copy of all turns in order.
func (c *Conversation) Turns() []Turn {
	out := make([]Turn, len(c.turns))
	copy(out, c.turns)
	return out
}

// Last returns the latest turn.
func (c *Conversation) Last() (Turn, bool) {
	if len(c.turns) == 0 {
		return Turn{}, false
	}
	return c.turns[len(c.turns)-1], true
}

// Respond attaches the model's response to the latest turn.
func (c *Conversation) Respond(text string) error {
	if len(c.turns) == 0 {
		return ErrEmptyConversation
	}
	last := &c.turns[len(c.turns)-1]
	if !last.Awaiting() {
		return ErrTurnFinalized
	}
	last.Response = text
	return nil
}

// Discard drops the latest turn if it is still awaiting a response and
// reports whether it did. Finalized turns are never removed.
func (c *Conversation) Discard() bool {
	n := len(c.turns)
	if n == 0 || !c.turns[n-1].Awaiting() {
		return false
	}
	c.turns = c.turns[:n-1]
	return true
}

// Range clamps [from, to) into [0, Len()]. A to of End or beyond the last
// turn means Len(); from past to yields an empty range.
func (c *Conversation) Range(from, to int) (int, int) {
	n := len(c.turns)
	if to == End || to > n {
		to = n
	}
	if to < 0 {
		to = 0
	}
	if from < 0 {
		from = 0
	}
	if from > to {
		from = to
	}
	return from, to
}

// Window returns the start index of the last n turns. n <= 0 means all turns.
func (c *Conversation) Window(n int) int {
	if n <= 0 || n >= len(c.turns) {
		return 0
	}
	return len(c.turns) - n
}

// BuildPrompt formats the turns in [from, to) with f, in order.
func (c *Conversation) BuildPrompt(from, to int, f Formatter, truncate int) []Message {
	from, to = c.Range(from, to)

	var messages []Message
	for _, t := range c.turns[from:to] {
		messages = append(messages, f.Prompt(t, truncate)...)
	}
	return messages
}
