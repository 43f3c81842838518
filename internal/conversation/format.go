package conversation

// Formatter turns turns into the message list a provider expects.
// Implementations must be pure.
type Formatter interface {
	// Context returns the messages carrying a free-form context string, or nil
	// when the provider takes context outside the message list.
	Context(ctx string) []Message

	// Prompt formats one turn. A truncate value <= 0 disables truncation.
	Prompt(t Turn, truncate int) []Message
}

// RoleFormatter emits a user message per request and a model message per
// completed response, using provider-specific author names.
type RoleFormatter struct {
	UserAuthor  string
	ModelAuthor string
}

// NewRoleFormatter creates a formatter with the given author names.
func NewRoleFormatter(userAuthor, modelAuthor string) RoleFormatter {
	return RoleFormatter{UserAuthor: userAuthor, ModelAuthor: modelAuthor}
}

// Context is a no-op; context is passed through generation parameters.
func (f RoleFormatter) Context(ctx string) []Message {
	return nil
}

// Prompt formats a turn. An awaiting turn contributes only its request.
func (f RoleFormatter) Prompt(t Turn, truncate int) []Message {
	user := Message{Author: f.UserAuthor, Content: Truncate(t.Request, truncate)}
	if t.Awaiting() {
		return []Message{user}
	}
	return []Message{
		user,
		{Author: f.ModelAuthor, Content: Truncate(t.Response, truncate)},
	}
}

// Truncate cuts s to at most n runes. n <= 0 returns s unchanged.
func Truncate(s string, n int) string {
	if n <= 0 || len(s) <= n {
		return s
	}
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
