package openai

import (
	"context"
	"fmt"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"
	"go.uber.org/zap"

	"github.com/Yates-Labs/zero2story/internal/conversation"
	"github.com/Yates-Labs/zero2story/internal/llm"
)

const (
	DefaultModel = "gpt-4o-mini"

	finishContentFilter = "content_filter"
)

// chatCompleter is the slice of the OpenAI client used by Service.
type chatCompleter interface {
	New(ctx context.Context, body openai.ChatCompletionNewParams, opts ...option.RequestOption) (*openai.ChatCompletion, error)
}

// Service implements llm.Service with OpenAI chat completions.
type Service struct {
	completions chatCompleter
	model       string
	logger      *zap.Logger
}

// NewService creates an OpenAI service. An empty model keeps the default.
func NewService(completions chatCompleter, model string, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{completions: completions, model: model, logger: logger}
}

// Defaults returns the default parameters. OpenAI exposes no per-category
// thresholds, so the safety list is empty.
func Defaults(mode llm.Mode) llm.Params {
	p := llm.Params{
		Model:          DefaultModel,
		CandidateCount: 1,
		Temperature:    1.0,
		TopP:           0.95,
	}
	if mode == llm.ModeText {
		p.MaxOutputTokens = 1024
	}
	return p
}

func (s *Service) defaults(mode llm.Mode) llm.Params {
	p := Defaults(mode)
	if s.model != "" {
		p.Model = s.model
	}
	return p
}

// Generate runs one chat or text call.
func (s *Service) Generate(ctx context.Context, req llm.Request) (*llm.Response, error) {
	p := llm.Effective(req, s.defaults)

	var messages []openai.ChatCompletionMessageParamUnion
	switch req.Mode {
	case llm.ModeChat:
		if p.Context != "" {
			messages = append(messages, openai.SystemMessage(p.Context))
		}
		if len(req.Messages) == 0 {
			return nil, fmt.Errorf("%w: prompt cannot be empty", llm.ErrConfig)
		}
		messages = append(messages, toMessages(req.Messages)...)
	case llm.ModeText:
		if req.Prompt == "" {
			return nil, fmt.Errorf("%w: prompt cannot be empty", llm.ErrConfig)
		}
		messages = append(messages, openai.UserMessage(req.Prompt))
	default:
		return nil, fmt.Errorf("%w: unknown mode %q", llm.ErrConfig, req.Mode)
	}

	// Sampling values are sent as given, zero included.
	params := openai.ChatCompletionNewParams{
		Model:       shared.ChatModel(p.Model),
		Messages:    messages,
		Temperature: openai.Float(float64(p.Temperature)),
		TopP:        openai.Float(float64(p.TopP)),
	}
	if p.CandidateCount > 0 {
		params.N = openai.Int(int64(p.CandidateCount))
	}
	if p.MaxOutputTokens > 0 {
		params.MaxTokens = openai.Int(int64(p.MaxOutputTokens))
	}

	s.logger.Debug("openai request",
		zap.String("mode", string(req.Mode)),
		zap.String("model", p.Model),
		zap.Int("messages", len(messages)))

	completion, err := s.completions.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", llm.ErrServiceUnavailable, err)
	}
	if completion == nil || len(completion.Choices) == 0 {
		return nil, fmt.Errorf("%w: no response generated", llm.ErrServiceUnavailable)
	}

	choice := completion.Choices[0]
	if choice.FinishReason == finishContentFilter && !req.DisableContentFilter {
		return nil, fmt.Errorf("%w: content_filter", llm.ErrContentWithheld)
	}
	if choice.Message.Refusal != "" && !req.DisableContentFilter {
		return nil, fmt.Errorf("%w: %s", llm.ErrContentWithheld, choice.Message.Refusal)
	}

	return &llm.Response{Raw: completion, Text: choice.Message.Content}, nil
}

func toMessages(messages []conversation.Message) []openai.ChatCompletionMessageParamUnion {
	out := make([]openai.ChatCompletionMessageParamUnion, 0, len(messages))
	for _, m := range messages {
		switch m.Author {
		case AuthorAssistant:
			out = append(out, openai.AssistantMessage(m.Content))
		case AuthorSystem:
			out = append(out, openai.SystemMessage(m.Content))
		default:
			out = append(out, openai.UserMessage(m.Content))
		}
	}
	return out
}
