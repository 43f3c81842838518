package conversation

// DisplayRecord is a chat-bubble pair shown to the user.
type DisplayRecord struct {
	User  string `json:"user"`
	Model string `json:"model,omitempty"`
}

// Projector maps a turn to its display record.
type Projector func(Turn) DisplayRecord

// ChatProjector shows the request and response side by side.
func ChatProjector(t Turn) DisplayRecord {
	return DisplayRecord{User: t.Request, Model: t.Response}
}

// Display is a read-only projection of a conversation for the UI.
type Display struct {
	*Conversation
	project Projector
}

// NewDisplay wraps c. A nil projector falls back to ChatProjector.
func NewDisplay(c *Conversation, p Projector) *Display {
	if c == nil {
		c = New()
	}
	if p == nil {
		p = ChatProjector
	}
	return &Display{Conversation: c, project: p}
}

// BuildUIs projects the turns in [from, to), one record per turn.
func (d *Display) BuildUIs(from, to int) []DisplayRecord {
	from, to = d.Range(from, to)

	records := make([]DisplayRecord, 0, to-from)
	for _, t := range d.turns[from:to] {
		records = append(records, d.project(t))
	}
	return records
}
