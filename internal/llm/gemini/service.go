package gemini

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/Yates-Labs/zero2story/internal/conversation"
	"github.com/Yates-Labs/zero2story/internal/llm"
)

const (
	DefaultChatModel = "gemini-2.0-flash"
	DefaultTextModel = "gemini-2.0-flash"
)

// contentGenerator is the slice of *genai.Models used by Service.
type contentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// Service implements llm.Service on the Gemini API.
type Service struct {
	models contentGenerator
	model  string
	logger *zap.Logger
}

// NewService creates a Gemini service. An empty model keeps the defaults.
func NewService(models contentGenerator, model string, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{models: models, model: model, logger: logger}
}

// DefaultSafetySettings returns the stock per-category thresholds.
func DefaultSafetySettings() []llm.SafetySetting {
	return []llm.SafetySetting{
		{Category: string(genai.HarmCategoryHarassment), Threshold: llm.BlockLowAndAbove},
		{Category: string(genai.HarmCategoryHateSpeech), Threshold: llm.BlockLowAndAbove},
		{Category: string(genai.HarmCategorySexuallyExplicit), Threshold: llm.BlockMediumAndAbove},
		{Category: string(genai.HarmCategoryDangerousContent), Threshold: llm.BlockMediumAndAbove},
	}
}

// ChatDefaults returns the default parameters for chat mode.
func ChatDefaults() llm.Params {
	return llm.Params{
		Model:          DefaultChatModel,
		CandidateCount: 1,
		Temperature:    1.0,
		TopK:           40,
		TopP:           0.95,
		SafetySettings: DefaultSafetySettings(),
	}
}

// TextDefaults returns the default parameters for single-shot text mode.
func TextDefaults() llm.Params {
	return llm.Params{
		Model:           DefaultTextModel,
		CandidateCount:  1,
		Temperature:     1.0,
		TopK:            40,
		TopP:            0.95,
		MaxOutputTokens: 1024,
		SafetySettings:  DefaultSafetySettings(),
	}
}

func (s *Service) defaults(mode llm.Mode) llm.Params {
	p := ChatDefaults()
	if mode == llm.ModeText {
		p = TextDefaults()
	}
	if s.model != "" {
		p.Model = s.model
	}
	return p
}

// Generate runs one chat or text call.
func (s *Service) Generate(ctx context.Context, req llm.Request) (*llm.Response, error) {
	p := llm.Effective(req, s.defaults)
	config := generateConfig(p)

	var contents []*genai.Content
	switch req.Mode {
	case llm.ModeChat:
		contents = toContents(req.Messages)
		if p.Context != "" {
			config.SystemInstruction = genai.NewContentFromText(p.Context, genai.RoleUser)
		}
	case llm.ModeText:
		if req.Prompt != "" {
			contents = genai.Text(req.Prompt)
		}
	default:
		return nil, fmt.Errorf("%w: unknown mode %q", llm.ErrConfig, req.Mode)
	}
	if len(contents) == 0 {
		return nil, fmt.Errorf("%w: prompt cannot be empty", llm.ErrConfig)
	}

	s.logger.Debug("gemini request",
		zap.String("mode", string(req.Mode)),
		zap.String("model", p.Model),
		zap.Int("contents", len(contents)),
		zap.Bool("content_filter", !req.DisableContentFilter))

	resp, err := s.models.GenerateContent(ctx, p.Model, contents, config)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", llm.ErrServiceUnavailable, err)
	}
	if resp == nil {
		return nil, fmt.Errorf("%w: empty response", llm.ErrServiceUnavailable)
	}

	if reason := withheldReason(resp); reason != "" && !req.DisableContentFilter {
		return nil, fmt.Errorf("%w: %s", llm.ErrContentWithheld, reason)
	}

	return &llm.Response{Raw: resp, Text: resp.Text()}, nil
}

func generateConfig(p llm.Params) *genai.GenerateContentConfig {
	// Sampling values are sent as given, zero included.
	config := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(p.Temperature),
		TopK:        genai.Ptr(float32(p.TopK)),
		TopP:        genai.Ptr(p.TopP),
	}
	if p.CandidateCount > 0 {
		config.CandidateCount = int32(p.CandidateCount)
	}
	if p.MaxOutputTokens > 0 {
		config.MaxOutputTokens = int32(p.MaxOutputTokens)
	}
	for _, setting := range p.SafetySettings {
		threshold, ok := harmThreshold(setting.Threshold)
		if !ok {
			continue
		}
		config.SafetySettings = append(config.SafetySettings, &genai.SafetySetting{
			Category:  genai.HarmCategory(setting.Category),
			Threshold: threshold,
		})
	}
	return config
}

func harmThreshold(t llm.Threshold) (genai.HarmBlockThreshold, bool) {
	switch t {
	case llm.BlockLowAndAbove:
		return genai.HarmBlockThresholdBlockLowAndAbove, true
	case llm.BlockMediumAndAbove:
		return genai.HarmBlockThresholdBlockMediumAndAbove, true
	case llm.BlockOnlyHigh:
		return genai.HarmBlockThresholdBlockOnlyHigh, true
	case llm.BlockNone:
		return genai.HarmBlockThresholdBlockNone, true
	default:
		return "", false
	}
}

func toContents(messages []conversation.Message) []*genai.Content {
	contents := make([]*genai.Content, 0, len(messages))
	for _, m := range messages {
		contents = append(contents, genai.NewContentFromText(m.Content, genai.Role(m.Author)))
	}
	return contents
}

// withheldReason reports why a response carries no usable candidate, or ""
// when it does.
func withheldReason(resp *genai.GenerateContentResponse) string {
	if resp == nil {
		return "empty response"
	}
	if fb := resp.PromptFeedback; fb != nil && fb.BlockReason != "" {
		return fmt.Sprintf("prompt blocked (%s)", fb.BlockReason)
	}
	if len(resp.Candidates) == 0 {
		return "no candidates returned"
	}
	for _, c := range resp.Candidates {
		if c != nil && c.FinishReason == genai.FinishReasonSafety {
			return fmt.Sprintf("candidate %d stopped for safety", c.Index)
		}
	}
	return ""
}
