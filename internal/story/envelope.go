package story

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// ActionCount is the number of next actions the model must suggest.
const ActionCount = 3

var (
	ErrNoJSONBlock       = errors.New("no JSON block found in response")
	ErrMalformedEnvelope = errors.New("malformed story response")
)

var (
	jsonFence = regexp.MustCompile("(?is)```\\s*json\\s*(.*?)```")
	anyFence  = regexp.MustCompile("(?s)```\\s*(.*?)```")
)

// Envelope is the structured part of a narrative response.
type Envelope struct {
	Paragraph string   `json:"paragraph"`
	Actions   []string `json:"actions"`
}

// ExtractJSONBlock returns the first fenced block tagged json. Without one it
// falls back to the first untagged fence holding an object, then to the
// outermost brace span of the text.
func ExtractJSONBlock(text string) (string, error) {
	if m := jsonFence.FindStringSubmatch(text); m != nil {
		return strings.TrimSpace(m[1]), nil
	}
	if m := anyFence.FindStringSubmatch(text); m != nil {
		if body := strings.TrimSpace(m[1]); strings.HasPrefix(body, "{") {
			return body, nil
		}
	}

	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start >= 0 && end > start {
		return text[start : end+1], nil
	}
	return "", ErrNoJSONBlock
}

// ParseEnvelope extracts and validates the envelope embedded in text.
func ParseEnvelope(text string) (*Envelope, error) {
	block, err := ExtractJSONBlock(text)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedEnvelope, err)
	}

	var env Envelope
	if err := json.Unmarshal([]byte(block), &env); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedEnvelope, err)
	}

	env.Paragraph = strings.TrimSpace(env.Paragraph)
	if env.Paragraph == "" {
		return nil, fmt.Errorf("%w: paragraph is missing", ErrMalformedEnvelope)
	}
	if len(env.Actions) != ActionCount {
		return nil, fmt.Errorf("%w: expected %d actions, got %d", ErrMalformedEnvelope, ActionCount, len(env.Actions))
	}
	for i, a := range env.Actions {
		env.Actions[i] = strings.TrimSpace(a)
		if env.Actions[i] == "" {
			return nil, fmt.Errorf("%w: action %d is empty", ErrMalformedEnvelope, i+1)
		}
	}
	return &env, nil
}
