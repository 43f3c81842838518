// Package llm defines a provider-agnostic contract for chat and single-shot
// text generation. Concrete backends live in subpackages and are selected by
// name through a Registry; MockService provides deterministic behavior for
// tests.
package llm

import (
	"context"
	"errors"

	"github.com/Yates-Labs/zero2story/internal/conversation"
)

var (
	// ErrServiceUnavailable means the call could not complete (transport,
	// authentication, or provider failure).
	ErrServiceUnavailable = errors.New("LLM service is not available")

	// ErrContentWithheld means the provider completed the call but withheld
	// the response for content-safety reasons.
	ErrContentWithheld = errors.New("LLM withheld a response due to content safety concerns")

	ErrConfig         = errors.New("invalid LLM configuration")
	ErrMissingAPIKey  = errors.New("API key is missing")
	ErrUnknownBackend = errors.New("unknown LLM backend")
)

// Mode selects between multi-turn chat and single-shot text generation.
type Mode string

const (
	ModeChat Mode = "chat"
	ModeText Mode = "text"
)

// Request describes one generation call.
type Request struct {
	Mode Mode

	// Messages is the prompt in chat mode.
	Messages []conversation.Message

	// Prompt is the prompt in text mode.
	Prompt string

	// Context, when set in chat mode, replaces the context of the effective
	// parameters.
	Context string

	// Params overrides the backend defaults when non-nil. It is never mutated.
	Params *Params

	// DisableContentFilter widens every safety threshold to the most
	// permissive value and suppresses ErrContentWithheld.
	DisableContentFilter bool
}

// Response carries the provider's raw response and the extracted text.
type Response struct {
	Raw  any
	Text string
}

// Service executes generation calls. Implementations must be stateless and
// safe for concurrent use; they never retry.
type Service interface {
	Generate(ctx context.Context, req Request) (*Response, error)
}
