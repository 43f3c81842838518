package story

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/Yates-Labs/zero2story/internal/conversation"
	"github.com/Yates-Labs/zero2story/internal/llm"
)

var (
	ErrNoPendingTurn   = errors.New("conversation has no turn awaiting a response")
	ErrNoValidResponse = errors.New("could not obtain a valid structured response")
)

// DefaultMaxAttempts bounds the retries on unparsable responses.
const DefaultMaxAttempts = 5

// NarratorConfig controls prompt construction and retries.
type NarratorConfig struct {
	// MaxAttempts is the number of calls made before giving up on a
	// malformed response. Values <= 0 use DefaultMaxAttempts.
	MaxAttempts int

	// Window limits the prompt to the most recent turns; 0 sends all of them.
	Window int

	// Truncate bounds each message's length in runes; 0 disables it.
	Truncate int

	// DisableContentFilter is forwarded to every request.
	DisableContentFilter bool

	// Params overrides the backend's chat defaults when non-nil.
	Params *llm.Params
}

// DefaultNarratorConfig returns the settings used by the CLI.
func DefaultNarratorConfig() NarratorConfig {
	return NarratorConfig{
		MaxAttempts: DefaultMaxAttempts,
		Window:      4,
	}
}

// Narrator advances a conversation by one structured response.
// It builds the prompt once and re-issues it until the model's reply carries
// a valid envelope.
type Narrator struct {
	service llm.Service
	format  conversation.Formatter
	config  NarratorConfig
	logger  *zap.Logger
}

// NewNarrator creates a narrator for the given backend service and formatter.
func NewNarrator(service llm.Service, format conversation.Formatter, config NarratorConfig, logger *zap.Logger) *Narrator {
	if config.MaxAttempts <= 0 {
		config.MaxAttempts = DefaultMaxAttempts
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Narrator{
		service: service,
		format:  format,
		config:  config,
		logger:  logger,
	}
}

// Advance answers the latest turn of conv. contextBlock describes the world
// and cast and is passed as the chat context. On success the turn is
// finalized with the raw model text and the parsed envelope is returned.
// Service errors are returned immediately and leave the turn pending.
func (n *Narrator) Advance(ctx context.Context, conv *conversation.Conversation, contextBlock string) (*Envelope, error) {
	last, ok := conv.Last()
	if !ok || !last.Awaiting() {
		return nil, ErrNoPendingTurn
	}

	messages := n.format.Context(contextBlock)
	messages = append(messages, conv.BuildPrompt(conv.Window(n.config.Window), conversation.End, n.format, n.config.Truncate)...)

	req := llm.Request{
		Mode:                 llm.ModeChat,
		Messages:             messages,
		Context:              contextBlock,
		Params:               n.config.Params,
		DisableContentFilter: n.config.DisableContentFilter,
	}

	var lastErr error
	for attempt := 1; attempt <= n.config.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		resp, err := n.service.Generate(ctx, req)
		if err != nil {
			return nil, err
		}

		env, err := ParseEnvelope(resp.Text)
		if err != nil {
			lastErr = err
			n.logger.Debug("discarding unparsable response",
				zap.Int("attempt", attempt),
				zap.Int("max_attempts", n.config.MaxAttempts),
				zap.Error(err))
			continue
		}

		if err := conv.Respond(resp.Text); err != nil {
			return nil, err
		}
		n.logger.Debug("story advanced", zap.Int("attempt", attempt), zap.Int("turns", conv.Len()))
		return env, nil
	}

	return nil, fmt.Errorf("%w after %d attempts: %w", ErrNoValidResponse, n.config.MaxAttempts, lastErr)
}
