// Package openai implements the OpenAI backend on the chat completions API.
// Context is sent as a leading system message and text mode is a single user
// message.
package openai

import (
	"context"
	"fmt"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"go.uber.org/zap"

	"github.com/Yates-Labs/zero2story/internal/conversation"
	"github.com/Yates-Labs/zero2story/internal/llm"
	"github.com/Yates-Labs/zero2story/internal/prompts"
)

const (
	Name               = "openai"
	APIKeyEnv          = "OPENAI_API_KEY"
	DefaultKeyFile     = ".openai_api_key.txt"
	DefaultPromptsPath = "prompts/openai_prompts.toml"

	AuthorUser      = "user"
	AuthorAssistant = "assistant"
	AuthorSystem    = "system"
)

// PromptFormat is the OpenAI wire formatter.
var PromptFormat = conversation.NewRoleFormatter(AuthorUser, AuthorAssistant)

// Factory builds OpenAI components.
type Factory struct {
	service *Service
}

// NewFactory resolves the API key and creates the client.
// Returns an error if the API key is missing.
func NewFactory(ctx context.Context, opts llm.Options) (llm.Factory, error) {
	keyFile := opts.KeyFile
	if keyFile == "" {
		keyFile = DefaultKeyFile
	}
	apiKey, err := llm.ResolveAPIKey(opts.APIKey, APIKeyEnv, keyFile)
	if err != nil {
		return nil, fmt.Errorf("openai: %w", err)
	}

	client := openai.NewClient(
		option.WithAPIKey(apiKey),
	)

	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Factory{
		service: NewService(&client.Chat.Completions, opts.Model, logger.With(zap.String("backend", Name))),
	}, nil
}

func (f *Factory) Name() string { return Name }

func (f *Factory) PromptFormat() conversation.Formatter { return PromptFormat }

func (f *Factory) PromptManager(path string) (*prompts.Store, error) {
	if path == "" {
		path = DefaultPromptsPath
	}
	return prompts.Shared(Name, path)
}

func (f *Factory) NewConversation() *conversation.Conversation { return conversation.New() }

func (f *Factory) NewDisplay() *conversation.Display {
	return conversation.NewDisplay(conversation.New(), conversation.ChatProjector)
}

func (f *Factory) Service() llm.Service { return f.service }
