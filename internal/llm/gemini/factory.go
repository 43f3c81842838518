// Package gemini implements the Gemini backend: a role formatter using the
// "user" and "model" authors, a generation service, and an Imagen-backed
// portrait generator, all built on google.golang.org/genai.
package gemini

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/Yates-Labs/zero2story/internal/conversation"
	"github.com/Yates-Labs/zero2story/internal/llm"
	"github.com/Yates-Labs/zero2story/internal/prompts"
)

const (
	Name               = "gemini"
	APIKeyEnv          = "GEMINI_API_KEY"
	DefaultKeyFile     = ".gemini_api_key.txt"
	DefaultPromptsPath = "prompts/gemini_prompts.toml"
)

// PromptFormat is the Gemini wire formatter.
var PromptFormat = conversation.NewRoleFormatter(genai.RoleUser, genai.RoleModel)

// Factory builds Gemini components around a single client.
type Factory struct {
	client  *genai.Client
	service *Service
	logger  *zap.Logger
}

// NewFactory resolves the API key and creates the client.
func NewFactory(ctx context.Context, opts llm.Options) (llm.Factory, error) {
	keyFile := opts.KeyFile
	if keyFile == "" {
		keyFile = DefaultKeyFile
	}
	apiKey, err := llm.ResolveAPIKey(opts.APIKey, APIKeyEnv, keyFile)
	if err != nil {
		return nil, fmt.Errorf("gemini: %w", err)
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: gemini client: %w", llm.ErrConfig, err)
	}

	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.With(zap.String("backend", Name))

	return &Factory{
		client:  client,
		service: NewService(client.Models, opts.Model, logger),
		logger:  logger,
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

// ImageGenerator returns an Imagen generator sharing the factory's client.
func (f *Factory) ImageGenerator(model, outDir string) *ImageGenerator {
	return NewImageGenerator(f.client.Models, model, outDir, f.logger)
}
