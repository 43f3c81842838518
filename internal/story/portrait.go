package story

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/Yates-Labs/zero2story/internal/imagegen"
	"github.com/Yates-Labs/zero2story/internal/llm"
	"github.com/Yates-Labs/zero2story/internal/prompts"
)

const (
	PortraitTemplate = "portrait.character"

	portraitAttempts    = 3
	portraitAspectRatio = "3:4"
	portraitGuidance    = 4.5
)

var ErrNoPortraitPrompt = errors.New("could not obtain an image prompt")

// PortraitPrompt is the image prompt the model writes for a character.
type PortraitPrompt struct {
	Prompt         string `json:"prompt"`
	NegativePrompt string `json:"negative_prompt"`
}

// PortraitMaker turns a character description into a portrait image.
type PortraitMaker struct {
	service   llm.Service
	templates *prompts.Store
	images    imagegen.Generator
	logger    *zap.Logger

	// DisableContentFilter is forwarded to the prompt-writing request.
	DisableContentFilter bool
}

// NewPortraitMaker creates a portrait maker.
func NewPortraitMaker(service llm.Service, templates *prompts.Store, images imagegen.Generator, logger *zap.Logger) *PortraitMaker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PortraitMaker{
		service:   service,
		templates: templates,
		images:    images,
		logger:    logger,
	}
}

// Prompt asks the model for an image prompt describing c in setting.
func (m *PortraitMaker) Prompt(ctx context.Context, setting Setting, c Character) (*PortraitPrompt, error) {
	text, err := m.templates.Render(PortraitTemplate, struct {
		Setting   Setting
		Character Character
	}{setting, c})
	if err != nil {
		return nil, err
	}

	req := llm.Request{
		Mode:                 llm.ModeText,
		Prompt:               text,
		DisableContentFilter: m.DisableContentFilter,
	}

	var lastErr error
	for attempt := 1; attempt <= portraitAttempts; attempt++ {
		resp, err := m.service.Generate(ctx, req)
		if err != nil {
			return nil, err
		}

		p, err := parsePortraitPrompt(resp.Text)
		if err != nil {
			lastErr = err
			m.logger.Debug("discarding unparsable image prompt",
				zap.String("character", c.Name), zap.Int("attempt", attempt), zap.Error(err))
			continue
		}
		return p, nil
	}
	return nil, fmt.Errorf("%w for %s: %w", ErrNoPortraitPrompt, c.Name, lastErr)
}

// Make writes c's portrait and returns its path.
func (m *PortraitMaker) Make(ctx context.Context, setting Setting, c Character) (string, error) {
	p, err := m.Prompt(ctx, setting, c)
	if err != nil {
		return "", err
	}

	m.logger.Info("generating portrait",
		zap.String("character", c.Name),
		zap.String("prompt", p.Prompt),
		zap.String("negative_prompt", p.NegativePrompt))

	return m.images.Generate(ctx, imagegen.Request{
		Prompt:         p.Prompt,
		NegativePrompt: p.NegativePrompt,
		AspectRatio:    portraitAspectRatio,
		GuidanceScale:  portraitGuidance,
	})
}

func parsePortraitPrompt(text string) (*PortraitPrompt, error) {
	block, err := ExtractJSONBlock(text)
	if err != nil {
		return nil, err
	}
	var p PortraitPrompt
	if err := json.Unmarshal([]byte(block), &p); err != nil {
		return nil, err
	}
	p.Prompt = strings.TrimSpace(p.Prompt)
	p.NegativePrompt = strings.TrimSpace(p.NegativePrompt)
	if p.Prompt == "" {
		return nil, errors.New("prompt is missing")
	}
	return &p, nil
}
